package ledger

import "time"

const (
	EventCountClaimed      = "count_claimed"
	EventCountReverted     = "count_reverted"
	EventCountBootstrapped = "count_bootstrapped"
	EventCountForced       = "count_forced"
	EventTotalsRebuilt     = "totals_rebuilt"
	EventTotalOverridden   = "total_overridden"
)

// Event is published after a ledger mutation commits, for reporting consumers.
type Event struct {
	Type             string    `json:"type"`
	SequenceNumber   int64     `json:"sequence_number,omitempty"`
	ContributorID    string    `json:"contributor_id,omitempty"`
	ContributorName  string    `json:"contributor_name,omitempty"`
	ContributorTotal int64     `json:"contributor_total,omitempty"`
	CurrentCount     int64     `json:"current_count"`
	HasEvidence      bool      `json:"has_evidence,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// WindowStats summarises ledger activity between two instants.
type WindowStats struct {
	Start        time.Time          `json:"start"`
	End          time.Time          `json:"end"`
	Total        int64              `json:"total"`
	MinSequence  int64              `json:"min_sequence"`
	MaxSequence  int64              `json:"max_sequence"`
	Contributors []ContributorCount `json:"contributors"`
}

type ContributorCount struct {
	ContributorID string `json:"contributor_id"`
	DisplayName   string `json:"display_name,omitempty"`
	Count         int64  `json:"count"`
}
