package audit

import (
	"encoding/json"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/tally-backend/internal/domain"
	"github.com/yungbote/tally-backend/internal/platform/dbctx"
	"github.com/yungbote/tally-backend/internal/platform/logger"
)

type AdminAuditRepo interface {
	Append(dbc dbctx.Context, action, actor string, details map[string]any) (*types.AdminAuditEntry, error)
	Recent(dbc dbctx.Context, limit int) ([]*types.AdminAuditEntry, error)
}

type adminAuditRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAdminAuditRepo(db *gorm.DB, baseLog *logger.Logger) AdminAuditRepo {
	repoLog := baseLog.With("repo", "AdminAuditRepo")
	return &adminAuditRepo{db: db, log: repoLog}
}

func (r *adminAuditRepo) Append(dbc dbctx.Context, action, actor string, details map[string]any) (*types.AdminAuditEntry, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		actor = "unknown"
	}
	entry := &types.AdminAuditEntry{
		Action: strings.TrimSpace(action),
		Actor:  actor,
	}
	if len(details) > 0 {
		b, err := json.Marshal(details)
		if err != nil {
			return nil, err
		}
		entry.Details = datatypes.JSON(b)
	}
	if err := dbc.DB(r.db).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *adminAuditRepo) Recent(dbc dbctx.Context, limit int) ([]*types.AdminAuditEntry, error) {
	var out []*types.AdminAuditEntry
	if limit <= 0 {
		return out, nil
	}
	err := dbc.DB(r.db).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
