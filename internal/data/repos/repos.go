package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/tally-backend/internal/data/repos/audit"
	"github.com/yungbote/tally-backend/internal/data/repos/contributor"
	"github.com/yungbote/tally-backend/internal/data/repos/ledger"
	"github.com/yungbote/tally-backend/internal/platform/logger"
)

type LedgerRepo = ledger.LedgerRepo
type ContributorTally = ledger.ContributorTally
type Tallies = ledger.Tallies
type ContributorRepo = contributor.ContributorRepo
type AdminAuditRepo = audit.AdminAuditRepo

func NewLedgerRepo(db *gorm.DB, baseLog *logger.Logger) LedgerRepo {
	return ledger.NewLedgerRepo(db, baseLog)
}

func NewTallies() *Tallies { return ledger.NewTallies() }

func NewContributorRepo(db *gorm.DB, baseLog *logger.Logger) ContributorRepo {
	return contributor.NewContributorRepo(db, baseLog)
}

func NewAdminAuditRepo(db *gorm.DB, baseLog *logger.Logger) AdminAuditRepo {
	return audit.NewAdminAuditRepo(db, baseLog)
}

// Set bundles the repos the counting aggregate and services share.
type Set struct {
	Ledger       LedgerRepo
	Contributors ContributorRepo
	Audit        AdminAuditRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) Set {
	return Set{
		Ledger:       NewLedgerRepo(db, baseLog),
		Contributors: NewContributorRepo(db, baseLog),
		Audit:        NewAdminAuditRepo(db, baseLog),
	}
}
