package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestMetricsNilIsNoop(t *testing.T) {
	var m *Metrics
	m.IncAttempt("VALID", "claimed")
	m.ObserveAggregateOperation("op", "success", time.Millisecond)
	m.SetHighWater(10)
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("nil WritePrometheus: %v", err)
	}
	if m.AttemptCount("VALID", "claimed") != 0 {
		t.Fatalf("nil AttemptCount should be 0")
	}
}

func TestMetricsExposition(t *testing.T) {
	m := New()
	m.IncAttempt("VALID", "claimed")
	m.IncAttempt("VALID", "lost")
	m.IncAttempt("VALID", "lost")
	m.SetHighWater(101)
	m.ObserveAPI("GET", "/api/count", "200", 20*time.Millisecond)
	m.ObserveAggregateOperation("Counting.Counter.Claim", "conflict", 3*time.Millisecond)

	if got := m.AttemptCount("VALID", "lost"); got != 2 {
		t.Fatalf("AttemptCount: want=2 got=%v", got)
	}

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`tally_attempts_total{verdict="VALID",outcome="lost"} 2`,
		`tally_claim_conflicts_total 2`,
		`tally_high_water_mark 101`,
		`tally_api_request_duration_seconds_bucket{method="GET",route="/api/count",le="0.025"} 1`,
		`tally_aggregate_operations_total{op="Counting.Counter.Claim",status="conflict"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("exposition missing %q:\n%s", want, out)
		}
	}
}

func TestLabelStringEscapes(t *testing.T) {
	got := labelString([]string{"a", "b"}, []string{`x"y`})
	if got != `{a="x\"y",b="unknown"}` {
		t.Fatalf("labelString: got %s", got)
	}
}
