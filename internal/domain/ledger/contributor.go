package ledger

import "time"

// ContributorAggregate is the derived per-contributor running total. It is a
// rebuildable projection of the ledger, never the source of truth.
type ContributorAggregate struct {
	ContributorID  string    `gorm:"column:contributor_id;type:text;primaryKey" json:"contributor_id"`
	DisplayName    *string   `gorm:"column:display_name;type:text" json:"display_name,omitempty"`
	TotalCount     int64     `gorm:"column:total_count;not null;default:0" json:"total_count"`
	LastActivityAt time.Time `gorm:"column:last_activity_at;not null" json:"last_activity_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (ContributorAggregate) TableName() string { return "contributor" }

func (c *ContributorAggregate) Name() string {
	if c == nil || c.DisplayName == nil {
		return ""
	}
	return *c.DisplayName
}

// ContributorStanding pairs an aggregate with its competition rank.
type ContributorStanding struct {
	Contributor ContributorAggregate `json:"contributor"`
	Rank        int                  `json:"rank"`
}
