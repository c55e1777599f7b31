package ledger

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/tally-backend/internal/domain"
	"github.com/yungbote/tally-backend/internal/platform/dbctx"
	"github.com/yungbote/tally-backend/internal/platform/logger"
)

// LedgerRepo is the append-only store of numbered records. Create is the claim primitive:
// the unique index on sequence_number makes it insert-or-fail in one round trip.
type LedgerRepo interface {
	Create(dbc dbctx.Context, rec *types.LedgerRecord) (*types.LedgerRecord, error)
	GetBySeq(dbc dbctx.Context, number int64) (*types.LedgerRecord, error)
	GetByRef(dbc dbctx.Context, ref string) (*types.LedgerRecord, error)
	DeleteBySeq(dbc dbctx.Context, number int64) (*types.LedgerRecord, error)
	DeleteByRef(dbc dbctx.Context, ref string) (*types.LedgerRecord, error)
	DeleteFrom(dbc dbctx.Context, number int64) (int64, error)
	MaxSequence(dbc dbctx.Context) (int64, error)
	Count(dbc dbctx.Context) (int64, error)
	CountByContributor(dbc dbctx.Context, contributorID string) (int64, error)
	Recent(dbc dbctx.Context, limit int) ([]*types.LedgerRecord, error)
	ListBetween(dbc dbctx.Context, start, end time.Time, limit int) ([]*types.LedgerRecord, error)
	WindowStats(dbc dbctx.Context, start, end time.Time, limit int) (*types.WindowStats, error)
	ListAfter(dbc dbctx.Context, afterSeq int64, limit int) ([]*types.LedgerRecord, error)
	Tally(dbc dbctx.Context, batchSize int) ([]*ContributorTally, error)
}

// ContributorTally is one contributor's share of the ledger as computed from the records.
type ContributorTally struct {
	ContributorID  string
	DisplayName    *string
	Count          int64
	LastActivityAt time.Time
	lastSeq        int64
}

type ledgerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLedgerRepo(db *gorm.DB, baseLog *logger.Logger) LedgerRepo {
	repoLog := baseLog.With("repo", "LedgerRepo")
	return &ledgerRepo{db: db, log: repoLog}
}

func (r *ledgerRepo) Create(dbc dbctx.Context, rec *types.LedgerRecord) (*types.LedgerRecord, error) {
	if rec == nil {
		return nil, errors.New("nil ledger record")
	}
	if rec.SequenceNumber <= 0 {
		return nil, errors.New("sequence number must be positive")
	}
	if strings.TrimSpace(rec.ContributorID) == "" {
		return nil, errors.New("missing contributor id")
	}
	if rec.ExternalRef != nil && strings.TrimSpace(*rec.ExternalRef) == "" {
		rec.ExternalRef = nil
	}
	if err := dbc.DB(r.db).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *ledgerRepo) GetBySeq(dbc dbctx.Context, number int64) (*types.LedgerRecord, error) {
	var rec types.LedgerRecord
	err := dbc.DB(r.db).
		Where("sequence_number = ?", number).
		Limit(1).
		Find(&rec).Error
	if err != nil {
		return nil, err
	}
	if rec.SequenceNumber == 0 {
		return nil, nil
	}
	return &rec, nil
}

func (r *ledgerRepo) GetByRef(dbc dbctx.Context, ref string) (*types.LedgerRecord, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, nil
	}
	var rec types.LedgerRecord
	err := dbc.DB(r.db).
		Where("external_ref = ?", ref).
		Limit(1).
		Find(&rec).Error
	if err != nil {
		return nil, err
	}
	if rec.SequenceNumber == 0 {
		return nil, nil
	}
	return &rec, nil
}

// DeleteBySeq removes the record at number and returns it, or nil when there was none.
func (r *ledgerRepo) DeleteBySeq(dbc dbctx.Context, number int64) (*types.LedgerRecord, error) {
	rec, err := r.GetBySeq(dbc, number)
	if err != nil || rec == nil {
		return nil, err
	}
	return r.deleteRecord(dbc, rec)
}

func (r *ledgerRepo) DeleteByRef(dbc dbctx.Context, ref string) (*types.LedgerRecord, error) {
	rec, err := r.GetByRef(dbc, ref)
	if err != nil || rec == nil {
		return nil, err
	}
	return r.deleteRecord(dbc, rec)
}

func (r *ledgerRepo) deleteRecord(dbc dbctx.Context, rec *types.LedgerRecord) (*types.LedgerRecord, error) {
	res := dbc.DB(r.db).
		Where("id = ?", rec.ID).
		Delete(&types.LedgerRecord{})
	if res.Error != nil {
		return nil, res.Error
	}
	// a concurrent delete got there first
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return rec, nil
}

// DeleteFrom truncates every record with sequence_number >= number.
func (r *ledgerRepo) DeleteFrom(dbc dbctx.Context, number int64) (int64, error) {
	res := dbc.DB(r.db).
		Where("sequence_number >= ?", number).
		Delete(&types.LedgerRecord{})
	return res.RowsAffected, res.Error
}

func (r *ledgerRepo) MaxSequence(dbc dbctx.Context) (int64, error) {
	var high int64
	err := dbc.DB(r.db).
		Model(&types.LedgerRecord{}).
		Select("COALESCE(MAX(sequence_number), 0)").
		Scan(&high).Error
	return high, err
}

func (r *ledgerRepo) Count(dbc dbctx.Context) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.LedgerRecord{}).Count(&n).Error
	return n, err
}

func (r *ledgerRepo) CountByContributor(dbc dbctx.Context, contributorID string) (int64, error) {
	var n int64
	err := dbc.DB(r.db).
		Model(&types.LedgerRecord{}).
		Where("contributor_id = ?", contributorID).
		Count(&n).Error
	return n, err
}

func (r *ledgerRepo) Recent(dbc dbctx.Context, limit int) ([]*types.LedgerRecord, error) {
	var out []*types.LedgerRecord
	if limit <= 0 {
		return out, nil
	}
	err := dbc.DB(r.db).
		Order("sequence_number DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListBetween returns records created in [start, end) ordered by sequence number.
func (r *ledgerRepo) ListBetween(dbc dbctx.Context, start, end time.Time, limit int) ([]*types.LedgerRecord, error) {
	var out []*types.LedgerRecord
	q := dbc.DB(r.db).
		Where("created_at >= ? AND created_at < ?", start.UTC(), end.UTC()).
		Order("sequence_number ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// WindowStats summarises records created in [start, end). The breakdown is ordered by count
// desc then contributor id and capped at limit when limit > 0.
func (r *ledgerRepo) WindowStats(dbc dbctx.Context, start, end time.Time, limit int) (*types.WindowStats, error) {
	out := &types.WindowStats{
		Start:        start.UTC(),
		End:          end.UTC(),
		Contributors: []types.ContributorCount{},
	}
	db := dbc.DB(r.db)

	var summary struct {
		Total  int64
		MinSeq int64
		MaxSeq int64
	}
	err := db.Model(&types.LedgerRecord{}).
		Select("COUNT(*) AS total, COALESCE(MIN(sequence_number), 0) AS min_seq, COALESCE(MAX(sequence_number), 0) AS max_seq").
		Where("created_at >= ? AND created_at < ?", out.Start, out.End).
		Scan(&summary).Error
	if err != nil {
		return nil, err
	}
	out.Total = summary.Total
	out.MinSequence = summary.MinSeq
	out.MaxSequence = summary.MaxSeq
	if out.Total == 0 {
		return out, nil
	}

	q := db.Model(&types.LedgerRecord{}).
		Select("contributor_id, COUNT(*) AS count").
		Where("created_at >= ? AND created_at < ?", out.Start, out.End).
		Group("contributor_id").
		Order("count DESC, contributor_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []types.ContributorCount
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	out.Contributors = rows
	return out, nil
}

// ListAfter returns up to limit records with sequence_number > afterSeq, in sequence order.
// Paging on the sequence keeps every page an index range scan.
func (r *ledgerRepo) ListAfter(dbc dbctx.Context, afterSeq int64, limit int) ([]*types.LedgerRecord, error) {
	if limit <= 0 {
		limit = 500
	}
	var out []*types.LedgerRecord
	if err := dbc.DB(r.db).
		Where("sequence_number > ?", afterSeq).
		Order("sequence_number ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Tally walks the whole ledger page by page in one call. Rebuilds that need a bound per
// page drive ListAfter and Tallies themselves.
func (r *ledgerRepo) Tally(dbc dbctx.Context, batchSize int) ([]*ContributorTally, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	tallies := NewTallies()
	var after int64
	for {
		page, err := r.ListAfter(dbc, after, batchSize)
		if err != nil {
			return nil, err
		}
		after = tallies.Add(page, after)
		if len(page) < batchSize {
			return tallies.Result(), nil
		}
	}
}

// Tallies groups ledger records by contributor. The display name of each tally is the one
// attached to that contributor's most recent record.
type Tallies struct {
	byID  map[string]*ContributorTally
	order []string
}

func NewTallies() *Tallies {
	return &Tallies{byID: map[string]*ContributorTally{}}
}

// Add folds one page into the tallies and returns the highest sequence number seen,
// starting from after.
func (t *Tallies) Add(page []*types.LedgerRecord, after int64) int64 {
	for _, rec := range page {
		ct := t.byID[rec.ContributorID]
		if ct == nil {
			ct = &ContributorTally{ContributorID: rec.ContributorID}
			t.byID[rec.ContributorID] = ct
			t.order = append(t.order, rec.ContributorID)
		}
		ct.Count++
		if newerThan(rec, ct) {
			ct.LastActivityAt = rec.CreatedAt
			ct.lastSeq = rec.SequenceNumber
			ct.DisplayName = rec.ContributorName
		}
		if rec.SequenceNumber > after {
			after = rec.SequenceNumber
		}
	}
	return after
}

// Result lists the tallies in first-seen order.
func (t *Tallies) Result() []*ContributorTally {
	out := make([]*ContributorTally, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.byID[id])
	}
	return out
}

func newerThan(rec *types.LedgerRecord, t *ContributorTally) bool {
	if t.lastSeq == 0 {
		return true
	}
	if rec.CreatedAt.Equal(t.LastActivityAt) {
		return rec.SequenceNumber > t.lastSeq
	}
	return rec.CreatedAt.After(t.LastActivityAt)
}
