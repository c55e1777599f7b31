package audit

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/yungbote/tally-backend/internal/data/repos/testutil"
	types "github.com/yungbote/tally-backend/internal/domain"
	"github.com/yungbote/tally-backend/internal/platform/dbctx"
)

func TestAdminAuditRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewAdminAuditRepo(db, testutil.Logger(t))

	first, err := repo.Append(dbc, types.AuditForceSet, "ops", map[string]any{"number": 99})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	var details map[string]any
	if err := json.Unmarshal(first.Details, &details); err != nil {
		t.Fatalf("Append details: %v", err)
	}
	if details["number"] != float64(99) {
		t.Fatalf("Append details: unexpected %v", details)
	}

	if _, err := repo.Append(dbc, types.AuditRecalc, "", nil); err != nil {
		t.Fatalf("Append without details: %v", err)
	}

	recent, err := repo.Recent(dbc, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Recent: want 2 got %d", len(recent))
	}
	actors := map[string]bool{}
	for _, e := range recent {
		actors[e.Actor] = true
	}
	if !actors["ops"] || !actors["unknown"] {
		t.Fatalf("Recent: unexpected actors %v", actors)
	}
}
