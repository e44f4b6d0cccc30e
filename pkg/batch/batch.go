// Package batch implements the Coalescing Batcher (C6): a dedup set of
// dirty pool addresses drained by a fixed-interval timer, each drained
// address re-enriched and emitted as a single update_pulse_v2 batch.
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/solana-zh/pulsefeed/pkg/model"
)

// Period is the fixed batch interval (spec.md §4.6, BATCH_PERIOD ≈ 200ms).
const Period = 200 * time.Millisecond

// Enricher is the subset of enrich.Enricher the batcher depends on.
type Enricher interface {
	Enrich(ctx context.Context, pool model.Pool) (*model.PulseDataResponse, error)
}

// PoolLookup resolves a bare pool address back to the in-memory Pool the
// Enricher needs (the dirty set stores only addresses, not full Pool
// values, to keep Mark cheap and allocation-free on the hot ingestion
// path).
type PoolLookup interface {
	LookupPool(ctx context.Context, poolAddress string) (model.Pool, bool)
}

// Sink receives the batch emitted at the end of a tick.
type Sink interface {
	EmitUpdatePulseBatch(content []model.PulseDataResponse)
}

// Batcher owns the dirty-pool set exclusively during drain — the only
// correctness invariant this component has (spec.md §4.6 Rationale): at
// most one enrichment query per pool per tick, regardless of how many
// times Mark was called.
type Batcher struct {
	mu    sync.Mutex
	dirty map[string]struct{}

	enricher Enricher
	lookup   PoolLookup
	sink     Sink
	log      *logrus.Entry
}

// New builds a Batcher. Run must be called to start the timer loop.
func New(enricher Enricher, lookup PoolLookup, sink Sink, log *logrus.Logger) *Batcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Batcher{
		dirty:    make(map[string]struct{}),
		enricher: enricher,
		lookup:   lookup,
		sink:     sink,
		log:      log.WithField("component", "batcher"),
	}
}

// Mark inserts a pool address into the dirty set. Idempotent: marking the
// same address any number of times within one period still produces
// exactly one query at the next tick (spec.md §8 invariant 3).
func (b *Batcher) Mark(poolAddress string) {
	b.mu.Lock()
	b.dirty[poolAddress] = struct{}{}
	b.mu.Unlock()
}

// drain atomically swaps the dirty set with a fresh empty one and returns
// the snapshot, per the "swap with empty" discipline spec.md §9 calls for
// to avoid losing insertions racing a non-atomic iterate-and-clear.
func (b *Batcher) drain() map[string]struct{} {
	b.mu.Lock()
	snapshot := b.dirty
	b.dirty = make(map[string]struct{})
	b.mu.Unlock()
	return snapshot
}

// Run blocks, firing a drain+enrich+emit cycle every Period until ctx is
// canceled.
func (b *Batcher) Run(ctx context.Context) {
	ticker := time.NewTicker(Period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.tick(ctx)
		}
	}
}

func (b *Batcher) tick(ctx context.Context) {
	snapshot := b.drain()
	if len(snapshot) == 0 {
		return
	}

	content := make([]model.PulseDataResponse, 0, len(snapshot))
	for poolAddress := range snapshot {
		pool, ok := b.lookup.LookupPool(ctx, poolAddress)
		if !ok {
			b.log.WithField("pool_address", poolAddress).Warn("batch: dirty pool not found, skipping")
			continue
		}
		resp, err := b.enricher.Enrich(ctx, pool)
		if err != nil {
			// A single pool's failure never poisons the batch (spec.md
			// §4.6): it is logged and skipped.
			b.log.WithError(err).WithField("pool_address", poolAddress).Warn("batch: enrich failed, skipping")
			continue
		}
		content = append(content, *resp)
	}
	if len(content) == 0 {
		return
	}
	b.sink.EmitUpdatePulseBatch(content)
}
