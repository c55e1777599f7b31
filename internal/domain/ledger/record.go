package ledger

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	OriginClaim     = "claim"
	OriginBootstrap = "bootstrap"
	OriginForced    = "forced"
)

// LedgerRecord is one numbered event. SequenceNumber is unique across the ledger;
// gaps are legal after deletion or forced renumbering. Rows are never updated in place.
type LedgerRecord struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SequenceNumber int64     `gorm:"column:sequence_number;not null;uniqueIndex:idx_count_ledger_sequence" json:"sequence_number"`

	ContributorID   string  `gorm:"column:contributor_id;type:text;not null;index" json:"contributor_id"`
	ContributorName *string `gorm:"column:contributor_name;type:text" json:"contributor_name,omitempty"`

	// ExternalRef is the idempotency token of the originating message; unique when set.
	ExternalRef *string `gorm:"column:external_ref;type:text;uniqueIndex:idx_count_ledger_external_ref" json:"external_ref,omitempty"`
	HasEvidence bool    `gorm:"column:has_evidence;not null;default:false" json:"has_evidence"`
	Origin      string  `gorm:"column:origin;type:text;not null;default:'claim'" json:"origin"`

	CreatedAt time.Time `gorm:"column:created_at;not null;index" json:"created_at"`
}

func (LedgerRecord) TableName() string { return "count_ledger" }

func (r *LedgerRecord) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Origin == "" {
		r.Origin = OriginClaim
	}
	return nil
}

// DisplayName returns the contributor name or "" when none was recorded.
func (r *LedgerRecord) DisplayName() string {
	if r == nil || r.ContributorName == nil {
		return ""
	}
	return *r.ContributorName
}
