package aggregates

// WriteTxOwnership says who opens the transaction around a write.
type WriteTxOwnership string

const (
	// WriteTxOwnedByAggregate: write methods open and commit their own transactions;
	// callers never pass one in.
	WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"
)

// ReadPolicy says which reads an aggregate may expose.
type ReadPolicy string

const (
	// ReadPolicyInvariantScoped: only the reads a write needs to check its invariants.
	// Leaderboards, windows and tails stay on the table repos.
	ReadPolicyInvariantScoped ReadPolicy = "invariant_scoped_reads"
)

type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	ReadPolicy       ReadPolicy
	// MultiTx lists the writes that span several transactions and are only
	// idempotent, not atomic, as a whole.
	MultiTx          []string
}

// Aggregate is implemented by every write boundary.
type Aggregate interface {
	Contract() Contract
}

func (c Contract) RequiresAggregateOwnedTx() bool {
	return c.WriteTxOwnership == WriteTxOwnedByAggregate
}

// SpansTransactions reports whether method commits in more than one transaction.
func (c Contract) SpansTransactions(method string) bool {
	for _, m := range c.MultiTx {
		if m == method {
			return true
		}
	}
	return false
}

// CounterAggregateContract: Claim, Bootstrap, Revert* and SetTotal each commit once with
// the ledger row, the contributor total and the audit row together. ForceSet and
// Recalculate rebuild totals in batches and converge when rerun.
var CounterAggregateContract = Contract{
	Name:             "counter",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	MultiTx:          []string{"ForceSet", "Recalculate"},
}
