package counting

import "math"

const DefaultGoal int64 = 1_000_000

type Progress struct {
	Current    int64   `json:"current"`
	Goal       int64   `json:"goal"`
	Remaining  int64   `json:"remaining"`
	Percentage float64 `json:"percentage"`
}

// ComputeProgress reports how far current is toward goal. Percentage is rounded to two
// decimals and may exceed 100 after the goal is passed.
func ComputeProgress(current, goal int64) Progress {
	if goal <= 0 {
		goal = DefaultGoal
	}
	if current < 0 {
		current = 0
	}
	remaining := goal - current
	if remaining < 0 {
		remaining = 0
	}
	return Progress{
		Current:    current,
		Goal:       goal,
		Remaining:  remaining,
		Percentage: round2(float64(current) / float64(goal) * 100),
	}
}

// Share returns part as a percentage of whole, rounded to two decimals; 0 when whole is 0.
func Share(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return round2(float64(part) / float64(whole) * 100)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
