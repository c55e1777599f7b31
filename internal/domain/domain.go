package domain

import "github.com/yungbote/tally-backend/internal/domain/ledger"

const (
	OriginClaim     = ledger.OriginClaim
	OriginBootstrap = ledger.OriginBootstrap
	OriginForced    = ledger.OriginForced

	EventCountClaimed      = ledger.EventCountClaimed
	EventCountReverted     = ledger.EventCountReverted
	EventCountBootstrapped = ledger.EventCountBootstrapped
	EventCountForced       = ledger.EventCountForced
	EventTotalsRebuilt     = ledger.EventTotalsRebuilt
	EventTotalOverridden   = ledger.EventTotalOverridden

	AuditBootstrap = ledger.AuditBootstrap
	AuditForceSet  = ledger.AuditForceSet
	AuditDeleteSeq = ledger.AuditDeleteSeq
	AuditDeleteRef = ledger.AuditDeleteRef
	AuditSetTotal  = ledger.AuditSetTotal
	AuditRecalc    = ledger.AuditRecalc
)

type (
	LedgerRecord         = ledger.LedgerRecord
	ContributorAggregate = ledger.ContributorAggregate
	ContributorStanding  = ledger.ContributorStanding
	AdminAuditEntry      = ledger.AdminAuditEntry
	LedgerEvent          = ledger.Event
	WindowStats          = ledger.WindowStats
	ContributorCount     = ledger.ContributorCount
)

// Models lists every table owned by the service, in migration order.
func Models() []any {
	return []any{
		&LedgerRecord{},
		&ContributorAggregate{},
		&AdminAuditEntry{},
	}
}
