package ledger

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AuditBootstrap = "bootstrap"
	AuditForceSet  = "force_set"
	AuditDeleteSeq = "delete_by_seq"
	AuditDeleteRef = "delete_by_ref"
	AuditSetTotal  = "set_contributor_total"
	AuditRecalc    = "recalculate_all"
)

// AdminAuditEntry records one administrative mutation of the ledger or aggregates.
type AdminAuditEntry struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Action    string         `gorm:"column:action;type:text;not null;index" json:"action"`
	Actor     string         `gorm:"column:actor;type:text;not null" json:"actor"`
	Details   datatypes.JSON `gorm:"column:details" json:"details,omitempty"`
	CreatedAt time.Time      `gorm:"column:created_at;not null;index" json:"created_at"`
}

func (AdminAuditEntry) TableName() string { return "admin_audit" }

func (e *AdminAuditEntry) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return nil
}
