package contributor

import (
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/tally-backend/internal/domain"
	"github.com/yungbote/tally-backend/internal/platform/dbctx"
	"github.com/yungbote/tally-backend/internal/platform/logger"
)

// ContributorRepo stores the derived per-contributor totals.
type ContributorRepo interface {
	Increment(dbc dbctx.Context, contributorID string, displayName *string, at time.Time) (int64, error)
	Decrement(dbc dbctx.Context, contributorID string) (bool, error)
	Get(dbc dbctx.Context, contributorID string) (*types.ContributorAggregate, error)
	GetMany(dbc dbctx.Context, contributorIDs []string) ([]*types.ContributorAggregate, error)
	FindByName(dbc dbctx.Context, name string) (*types.ContributorAggregate, error)
	Top(dbc dbctx.Context, n int) ([]*types.ContributorAggregate, error)
	Rank(dbc dbctx.Context, contributorID string) (int, error)
	Count(dbc dbctx.Context) (int64, error)
	SetTotal(dbc dbctx.Context, contributorID string, total int64) (bool, error)
	UpsertMany(dbc dbctx.Context, rows []*types.ContributorAggregate) error
	PruneAbsentFromLedger(dbc dbctx.Context) (int64, error)
}

type contributorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContributorRepo(db *gorm.DB, baseLog *logger.Logger) ContributorRepo {
	repoLog := baseLog.With("repo", "ContributorRepo")
	return &contributorRepo{db: db, log: repoLog}
}

// Increment adds one to the contributor total, creating the row on first claim, and returns
// the new total. A nil displayName keeps the last-seen one.
func (r *contributorRepo) Increment(dbc dbctx.Context, contributorID string, displayName *string, at time.Time) (int64, error) {
	db := dbc.DB(r.db)
	at = at.UTC()
	if at.IsZero() {
		at = time.Now().UTC()
	}
	row := &types.ContributorAggregate{
		ContributorID:  contributorID,
		DisplayName:    normalizeName(displayName),
		TotalCount:     1,
		LastActivityAt: at,
		UpdatedAt:      at,
	}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "contributor_id"}},
		DoUpdates: clause.Set{
			{Column: clause.Column{Name: "total_count"}, Value: gorm.Expr(qualified(db, "total_count") + " + 1")},
			{Column: clause.Column{Name: "display_name"}, Value: gorm.Expr("COALESCE(excluded.display_name, " + qualified(db, "display_name") + ")")},
			{Column: clause.Column{Name: "last_activity_at"}, Value: gorm.Expr("excluded.last_activity_at")},
			{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("excluded.updated_at")},
		},
	}).Create(row).Error
	if err != nil {
		return 0, err
	}

	var total int64
	err = db.Model(&types.ContributorAggregate{}).
		Select("total_count").
		Where("contributor_id = ?", contributorID).
		Scan(&total).Error
	return total, err
}

// Decrement subtracts one, never going below zero. It reports whether a row changed.
func (r *contributorRepo) Decrement(dbc dbctx.Context, contributorID string) (bool, error) {
	res := dbc.DB(r.db).
		Model(&types.ContributorAggregate{}).
		Where("contributor_id = ? AND total_count > 0", contributorID).
		Updates(map[string]any{
			"total_count": gorm.Expr("total_count - 1"),
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *contributorRepo) Get(dbc dbctx.Context, contributorID string) (*types.ContributorAggregate, error) {
	var row types.ContributorAggregate
	err := dbc.DB(r.db).
		Where("contributor_id = ?", contributorID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ContributorID == "" {
		return nil, nil
	}
	return &row, nil
}

func (r *contributorRepo) GetMany(dbc dbctx.Context, contributorIDs []string) ([]*types.ContributorAggregate, error) {
	var out []*types.ContributorAggregate
	if len(contributorIDs) == 0 {
		return out, nil
	}
	err := dbc.DB(r.db).
		Where("contributor_id IN ?", contributorIDs).
		Find(&out).Error
	return out, err
}

// FindByName matches display names case-insensitively; the highest total wins on duplicates.
func (r *contributorRepo) FindByName(dbc dbctx.Context, name string) (*types.ContributorAggregate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var row types.ContributorAggregate
	err := dbc.DB(r.db).
		Where("LOWER(display_name) = LOWER(?)", name).
		Order("total_count DESC, contributor_id ASC").
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ContributorID == "" {
		return nil, nil
	}
	return &row, nil
}

// Top orders by total desc, then earliest last activity, then contributor id.
func (r *contributorRepo) Top(dbc dbctx.Context, n int) ([]*types.ContributorAggregate, error) {
	var out []*types.ContributorAggregate
	if n <= 0 {
		return out, nil
	}
	err := dbc.DB(r.db).
		Order("total_count DESC, last_activity_at ASC, contributor_id ASC").
		Limit(n).
		Find(&out).Error
	return out, err
}

// Rank is the competition rank: 1 + contributors with a strictly greater total. 0 when absent.
func (r *contributorRepo) Rank(dbc dbctx.Context, contributorID string) (int, error) {
	row, err := r.Get(dbc, contributorID)
	if err != nil || row == nil {
		return 0, err
	}
	var ahead int64
	err = dbc.DB(r.db).
		Model(&types.ContributorAggregate{}).
		Where("total_count > ?", row.TotalCount).
		Count(&ahead).Error
	if err != nil {
		return 0, err
	}
	return int(ahead) + 1, nil
}

func (r *contributorRepo) Count(dbc dbctx.Context) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.ContributorAggregate{}).Count(&n).Error
	return n, err
}

// SetTotal overrides an existing contributor total. It reports false when no row matched.
func (r *contributorRepo) SetTotal(dbc dbctx.Context, contributorID string, total int64) (bool, error) {
	res := dbc.DB(r.db).
		Model(&types.ContributorAggregate{}).
		Where("contributor_id = ?", contributorID).
		Updates(map[string]any{
			"total_count": total,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpsertMany writes rebuilt aggregates, replacing total, name and last activity wholesale.
func (r *contributorRepo) UpsertMany(dbc dbctx.Context, rows []*types.ContributorAggregate) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		row.UpdatedAt = now
	}
	return dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "contributor_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "total_count", "last_activity_at", "updated_at"}),
	}).Create(&rows).Error
}

// PruneAbsentFromLedger deletes aggregates whose contributor has no ledger record left.
func (r *contributorRepo) PruneAbsentFromLedger(dbc dbctx.Context) (int64, error) {
	res := dbc.DB(r.db).
		Where("contributor_id NOT IN (?)", dbc.DB(r.db).Model(&types.LedgerRecord{}).Select("contributor_id")).
		Delete(&types.ContributorAggregate{})
	return res.RowsAffected, res.Error
}

// qualified prefixes col with the target table where the dialect needs it to tell the
// existing row apart from excluded inside ON CONFLICT DO UPDATE.
func qualified(db *gorm.DB, col string) string {
	if db.Dialector != nil && db.Dialector.Name() == "postgres" {
		return (&types.ContributorAggregate{}).TableName() + "." + col
	}
	return col
}

func normalizeName(name *string) *string {
	if name == nil {
		return nil
	}
	v := strings.TrimSpace(*name)
	if v == "" {
		return nil
	}
	return &v
}
