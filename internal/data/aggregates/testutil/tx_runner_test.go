package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/tally-backend/internal/data/aggregates"
	repotest "github.com/yungbote/tally-backend/internal/data/repos/testutil"
	types "github.com/yungbote/tally-backend/internal/domain"
	"github.com/yungbote/tally-backend/internal/platform/dbctx"
)

func insertRecord(seq int64) func(dbc dbctx.Context) error {
	return func(dbc dbctx.Context) error {
		return dbc.Tx.Create(&types.LedgerRecord{SequenceNumber: seq, ContributorID: "alice"}).Error
	}
}

func countRecords(t *testing.T, r *FaultyTxRunner) int64 {
	t.Helper()
	var n int64
	err := r.Inner.InTx(context.Background(), func(dbc dbctx.Context) error {
		return dbc.Tx.Model(&types.LedgerRecord{}).Count(&n).Error
	})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestFaultyTxRunnerPassesThrough(t *testing.T) {
	r := NewFaultyTxRunner(aggregates.NewGormTxRunner(repotest.DB(t)))
	if err := r.InTx(context.Background(), insertRecord(1)); err != nil {
		t.Fatalf("InTx: %v", err)
	}
	if r.Calls() != 1 || r.Rollbacks() != 0 {
		t.Fatalf("calls=%d rollbacks=%d", r.Calls(), r.Rollbacks())
	}
	if n := countRecords(t, r); n != 1 {
		t.Fatalf("rows: want=1 got=%d", n)
	}
}

func TestFaultyTxRunnerBeforeBodySkipsWork(t *testing.T) {
	refused := errors.New("connection refused")
	r := NewFaultyTxRunner(aggregates.NewGormTxRunner(repotest.DB(t))).FailBeforeBody(1, refused)

	ran := false
	err := r.InTx(context.Background(), func(dbctx.Context) error {
		ran = true
		return nil
	})
	if !errors.Is(err, refused) || ran {
		t.Fatalf("want refused without running body, got err=%v ran=%v", err, ran)
	}
	if err := r.InTx(context.Background(), insertRecord(1)); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if r.Calls() != 2 {
		t.Fatalf("calls: want=2 got=%d", r.Calls())
	}
}

func TestFaultyTxRunnerAfterBodyRollsBack(t *testing.T) {
	lost := errors.New("commit ack lost")
	r := NewFaultyTxRunner(aggregates.NewGormTxRunner(repotest.DB(t))).FailAfterBody(1, lost)

	if err := r.InTx(context.Background(), insertRecord(7)); !errors.Is(err, lost) {
		t.Fatalf("want lost ack, got %v", err)
	}
	if r.Rollbacks() != 1 {
		t.Fatalf("rollbacks: want=1 got=%d", r.Rollbacks())
	}
	if n := countRecords(t, r); n != 0 {
		t.Fatalf("rolled back insert left %d rows", n)
	}
}
