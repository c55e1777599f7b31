package aggregates

import "testing"

func TestCounterAggregateContract(t *testing.T) {
	c := CounterAggregateContract
	if !c.RequiresAggregateOwnedTx() {
		t.Fatalf("counter writes must own their transactions: %+v", c)
	}
	for _, m := range []string{"ForceSet", "Recalculate"} {
		if !c.SpansTransactions(m) {
			t.Fatalf("%s should be listed as multi-transaction", m)
		}
	}
	for _, m := range []string{"Claim", "Bootstrap", "RevertBySeq", "SetTotal"} {
		if c.SpansTransactions(m) {
			t.Fatalf("%s should commit once", m)
		}
	}
	if (Contract{}).RequiresAggregateOwnedTx() {
		t.Fatalf("zero contract must not claim tx ownership")
	}
}
