// Package ingest implements the Event Ingestion Loop (C4): a single
// long-lived task subscribing to pool_created/swap_created, gating by
// recency, and dispatching to the Enricher and Batcher.
package ingest

import (
	"context"
	"encoding/json"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/solana-zh/pulsefeed/pkg/bus"
	"github.com/solana-zh/pulsefeed/pkg/model"
)

// Channel names on the pub/sub bus (spec.md §6).
const (
	ChannelPoolCreated = "pool_created"
	ChannelSwapCreated = "swap_created"
)

// recencyWindow bounds how old an event may be before it is dropped
// silently (spec.md §4.4 step 3 / §8 invariant 5).
const recencyWindow = 24 * time.Hour

// Backoff bounds for bus reconnection (spec.md §4.4 step 6).
const (
	backoffMin    = 100 * time.Millisecond
	backoffMax    = 10 * time.Second
	backoffFactor = 2
)

// Enricher is the subset of enrich.Enricher the loop depends on.
type Enricher interface {
	Enrich(ctx context.Context, pool model.Pool) (*model.PulseDataResponse, error)
}

// Batcher is the subset of batch.Batcher the loop depends on.
type Batcher interface {
	Mark(poolAddress string)
}

// Broadcaster is the subset of the gateway the loop depends on.
type Broadcaster interface {
	EmitNewPair(resp model.PulseDataResponse)
	EmitSwap(poolAddress string, swap model.SwapWire)
}

// PoolRegistry lets the loop both register a freshly-seen pool (for the
// batcher's pool lookup and the recency probe) and answer the small
// keyed-index "created_at" probe the swap path needs without querying the
// store per event (spec.md §9 Design Notes).
type PoolRegistry interface {
	RegisterPool(pool model.Pool)
	PoolCreatedAt(poolAddress string) (time.Time, bool)
}

// Loop is the C4 ingestion task.
type Loop struct {
	bus         bus.Bus
	enricher    Enricher
	batcher     Batcher
	broadcaster Broadcaster
	registry    PoolRegistry
	log         *logrus.Entry

	// createdAtCache is the bounded in-memory LRU spec.md §9 suggests for
	// the swap-path recency probe, populated on every pool_created event.
	createdAtCache *lru.Cache[string, time.Time]
}

// Config bounds the ingestion loop's own resources.
type Config struct {
	CreatedAtCacheSize int // default 4096
}

// New builds a Loop. registry may be nil if the caller only wants the LRU
// probe (PoolRegistry is an optional richer alternative, e.g. backed by a
// real cache with eviction metrics); when nil the loop falls back to the
// LRU exclusively.
func New(b bus.Bus, enricher Enricher, batcher Batcher, broadcaster Broadcaster, registry PoolRegistry, cfg Config, log *logrus.Logger) (*Loop, error) {
	if cfg.CreatedAtCacheSize == 0 {
		cfg.CreatedAtCacheSize = 4096
	}
	cache, err := lru.New[string, time.Time](cfg.CreatedAtCacheSize)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Loop{
		bus:            b,
		enricher:       enricher,
		batcher:        batcher,
		broadcaster:    broadcaster,
		registry:       registry,
		createdAtCache: cache,
		log:            log.WithField("component", "ingest"),
	}, nil
}

// Run subscribes and processes messages until ctx is canceled, reconnecting
// with exponential backoff on transport failure.
func (l *Loop) Run(ctx context.Context) {
	backoff := backoffMin
	for {
		if ctx.Err() != nil {
			return
		}
		sub, err := l.bus.Subscribe(ctx, ChannelPoolCreated, ChannelSwapCreated)
		if err != nil {
			l.log.WithError(err).Warn("ingest: subscribe failed, backing off")
			if !sleepOrDone(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff)
			continue
		}

		backoff = backoffMin
		if !l.consume(ctx, sub) {
			return
		}
		// consume returned due to a transport error (not ctx cancellation);
		// fall through and reconnect after a backoff.
		if !sleepOrDone(ctx, backoff) {
			return
		}
		backoff = nextBackoff(backoff)
	}
}

// consume reads messages off sub until ctx is done (returns false, loop
// should stop) or a transport error occurs (returns true, loop should
// reconnect).
func (l *Loop) consume(ctx context.Context, sub bus.Subscription) bool {
	defer sub.Close()
	for {
		msg, err := sub.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			l.log.WithError(err).Warn("ingest: bus receive failed")
			return true
		}
		l.handle(ctx, msg)
	}
}

func (l *Loop) handle(ctx context.Context, msg bus.Message) {
	switch msg.Channel {
	case ChannelPoolCreated:
		l.handlePoolCreated(ctx, msg.Payload)
	case ChannelSwapCreated:
		l.handleSwapCreated(ctx, msg.Payload)
	}
}

func (l *Loop) handlePoolCreated(ctx context.Context, payload []byte) {
	var wire model.PoolWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		l.log.WithError(err).Warn("ingest: malformed pool_created payload")
		return
	}
	pool, err := model.PoolFromWire(wire)
	if err != nil {
		l.log.WithError(err).Warn("ingest: pool_created failed to parse")
		return
	}
	if time.Since(pool.CreatedAt) > recencyWindow {
		return
	}

	addr := pool.PoolAddress.String()
	l.createdAtCache.Add(addr, pool.CreatedAt)
	if l.registry != nil {
		l.registry.RegisterPool(pool)
	}

	resp, err := l.enricher.Enrich(ctx, pool)
	if err != nil {
		// UnsupportedFactoryError and transport/decode failures alike are
		// dropped silently here (spec.md §4.5/§8 scenario S6); the
		// Enricher's own error type distinguishes them for logging
		// purposes only.
		l.log.WithError(err).WithField("pool_address", addr).Debug("ingest: enrich skipped")
		return
	}

	// new-pair is emitted synchronously before marking dirty, preserving
	// the causal ordering clients rely on (spec.md §4.4 step 4, §8
	// invariant 6).
	l.broadcaster.EmitNewPair(*resp)
	l.batcher.Mark(addr)
}

func (l *Loop) handleSwapCreated(_ context.Context, payload []byte) {
	var wire model.SwapWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		l.log.WithError(err).Warn("ingest: malformed swap_created payload")
		return
	}
	swap, err := model.SwapFromWire(wire)
	if err != nil {
		l.log.WithError(err).Warn("ingest: swap_created failed to parse")
		return
	}
	if time.Since(swap.CreatedAt) > recencyWindow {
		return
	}

	addr := swap.PoolAddress.String()
	l.broadcaster.EmitSwap(addr, wire)

	createdAt, ok := l.poolCreatedAt(addr)
	if ok && time.Since(createdAt) <= recencyWindow {
		l.batcher.Mark(addr)
	}
}

// poolCreatedAt is the small keyed-index probe spec.md §4.4 step 5
// describes: the LRU is checked first (populated by pool_created events),
// falling back to the richer registry if one was supplied.
func (l *Loop) poolCreatedAt(poolAddress string) (time.Time, bool) {
	if t, ok := l.createdAtCache.Get(poolAddress); ok {
		return t, true
	}
	if l.registry != nil {
		return l.registry.PoolCreatedAt(poolAddress)
	}
	return time.Time{}, false
}

func nextBackoff(cur time.Duration) time.Duration {
	next := cur * backoffFactor
	if next > backoffMax {
		return backoffMax
	}
	return next
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
