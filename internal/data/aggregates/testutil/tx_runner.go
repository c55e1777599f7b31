package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/yungbote/tally-backend/internal/data/aggregates"
	"github.com/yungbote/tally-backend/internal/platform/dbctx"
)

// errInjectedCommit is returned from inside the real transaction so the backend rolls back
// everything the unit of work already wrote.
var errInjectedCommit = errors.New("injected commit failure")

// FaultyTxRunner wraps a real TxRunner and fails chosen calls. Calls are numbered from 1.
//
// BeforeBody failures return without touching storage, like a connection that never opened.
// AfterBody failures run the unit of work and then force a rollback, like an ack lost on commit.
type FaultyTxRunner struct {
	Inner aggregates.TxRunner

	mu         sync.Mutex
	calls      int
	beforeBody map[int]error
	afterBody  map[int]error
	rollbacks  int
}

var _ aggregates.TxRunner = (*FaultyTxRunner)(nil)

func NewFaultyTxRunner(inner aggregates.TxRunner) *FaultyTxRunner {
	return &FaultyTxRunner{
		Inner:      inner,
		beforeBody: map[int]error{},
		afterBody:  map[int]error{},
	}
}

func (r *FaultyTxRunner) FailBeforeBody(call int, err error) *FaultyTxRunner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beforeBody[call] = err
	return r
}

func (r *FaultyTxRunner) FailAfterBody(call int, err error) *FaultyTxRunner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterBody[call] = err
	return r
}

func (r *FaultyTxRunner) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *FaultyTxRunner) Rollbacks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rollbacks
}

func (r *FaultyTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.calls++
	call := r.calls
	before := r.beforeBody[call]
	after := r.afterBody[call]
	r.mu.Unlock()

	if before != nil {
		return before
	}
	err := r.Inner.InTx(ctx, func(dbc dbctx.Context) error {
		if err := fn(dbc); err != nil {
			return err
		}
		if after != nil {
			return errInjectedCommit
		}
		return nil
	})
	if err != nil {
		r.mu.Lock()
		r.rollbacks++
		r.mu.Unlock()
	}
	if errors.Is(err, errInjectedCommit) {
		return after
	}
	return err
}
