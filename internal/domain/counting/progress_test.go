package counting

import "testing"

func TestComputeProgress(t *testing.T) {
	p := ComputeProgress(123456, 1_000_000)
	if p.Percentage != 12.35 {
		t.Fatalf("percentage: want=12.35 got=%v", p.Percentage)
	}
	if p.Remaining != 876544 {
		t.Fatalf("remaining: want=876544 got=%d", p.Remaining)
	}

	done := ComputeProgress(1_000_010, 1_000_000)
	if done.Remaining != 0 {
		t.Fatalf("remaining past goal: want=0 got=%d", done.Remaining)
	}

	def := ComputeProgress(10, 0)
	if def.Goal != DefaultGoal {
		t.Fatalf("goal default: want=%d got=%d", DefaultGoal, def.Goal)
	}
}

func TestShare(t *testing.T) {
	if got := Share(1, 3); got != 33.33 {
		t.Fatalf("share: want=33.33 got=%v", got)
	}
	if got := Share(5, 0); got != 0 {
		t.Fatalf("share of empty: want=0 got=%v", got)
	}
}
