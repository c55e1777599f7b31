package counting

// Tier is a named band of contributor totals. MaxCount 0 means no upper bound.
type Tier struct {
	Name     string `json:"name"`
	Emoji    string `json:"emoji"`
	MinCount int64  `json:"min_count"`
	MaxCount int64  `json:"max_count,omitempty"`
}

// Tiers is ordered by MinCount and covers every total from 0 up.
var Tiers = []Tier{
	{Name: "Sparkling Water", Emoji: "💧", MinCount: 0, MaxCount: 9},
	{Name: "Beginner", Emoji: "🍺", MinCount: 10, MaxCount: 29},
	{Name: "Casual", Emoji: "🍻", MinCount: 30, MaxCount: 59},
	{Name: "Regular", Emoji: "🥃", MinCount: 60, MaxCount: 99},
	{Name: "Veteran", Emoji: "🏅", MinCount: 100, MaxCount: 199},
	{Name: "Legendary", Emoji: "🏆", MinCount: 200, MaxCount: 349},
	{Name: "Master Brewer", Emoji: "👑", MinCount: 350, MaxCount: 499},
	{Name: "Immortal", Emoji: "⚡", MinCount: 500, MaxCount: 749},
	{Name: "Divine", Emoji: "🔱", MinCount: 750, MaxCount: 999},
	{Name: "The Legend", Emoji: "🌟", MinCount: 1000},
}

func tierIndex(total int64) int {
	for i := len(Tiers) - 1; i > 0; i-- {
		if total >= Tiers[i].MinCount {
			return i
		}
	}
	return 0
}

// TierFor returns the tier a total falls in. Negative totals land in the first tier.
func TierFor(total int64) Tier {
	return Tiers[tierIndex(total)]
}

// NextTier returns the tier after the one total falls in, false at the top.
func NextTier(total int64) (Tier, bool) {
	i := tierIndex(total)
	if i == len(Tiers)-1 {
		return Tier{}, false
	}
	return Tiers[i+1], true
}

// ToNextTier is how many more counts total needs to reach the next tier; 0 at the top.
func ToNextTier(total int64) int64 {
	next, ok := NextTier(total)
	if !ok {
		return 0
	}
	return next.MinCount - total
}
