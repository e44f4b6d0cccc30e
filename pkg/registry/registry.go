// Package registry holds the small in-memory index of recently-seen pools
// that the ingestion loop (C4) and the batcher (C6) both need: C4 uses it
// to probe a pool's created_at for the swap-path recency gate, C6 uses it
// to resolve a dirty pool address back to the full model.Pool the Enricher
// requires.
package registry

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/solana-zh/pulsefeed/pkg/model"
)

// DefaultSize bounds the registry to a fixed number of recently-seen pools,
// evicting the least-recently-used entry once full — the same bounded-LRU
// discipline as ingest.Loop's own recency-probe cache.
const DefaultSize = 16384

// MemoryRegistry is a bounded, concurrency-safe pool index. It satisfies
// both ingest.PoolRegistry and batch.PoolLookup structurally.
type MemoryRegistry struct {
	cache *lru.Cache[string, model.Pool]
}

// New builds a MemoryRegistry with the given capacity; size <= 0 uses
// DefaultSize.
func New(size int) (*MemoryRegistry, error) {
	if size <= 0 {
		size = DefaultSize
	}
	cache, err := lru.New[string, model.Pool](size)
	if err != nil {
		return nil, err
	}
	return &MemoryRegistry{cache: cache}, nil
}

// RegisterPool records or refreshes a pool's entry.
func (r *MemoryRegistry) RegisterPool(pool model.Pool) {
	r.cache.Add(pool.PoolAddress.String(), pool)
}

// PoolCreatedAt returns the registered pool's creation time, if known.
func (r *MemoryRegistry) PoolCreatedAt(poolAddress string) (time.Time, bool) {
	pool, ok := r.cache.Get(poolAddress)
	if !ok {
		return time.Time{}, false
	}
	return pool.CreatedAt, true
}

// LookupPool returns the full registered Pool, if known. ctx is accepted
// only to satisfy batch.PoolLookup's signature — lookups never block.
func (r *MemoryRegistry) LookupPool(_ context.Context, poolAddress string) (model.Pool, bool) {
	return r.cache.Get(poolAddress)
}
