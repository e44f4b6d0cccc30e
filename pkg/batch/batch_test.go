package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/solana-zh/pulsefeed/pkg/model"
)

func poolWithAddress() model.Pool {
	return model.Pool{PoolAddress: solana.NewWallet().PublicKey()}
}

type fakeEnricher struct {
	calls map[string]int
	fail  map[string]bool
}

func newFakeEnricher() *fakeEnricher {
	return &fakeEnricher{calls: map[string]int{}, fail: map[string]bool{}}
}

func (f *fakeEnricher) Enrich(ctx context.Context, pool model.Pool) (*model.PulseDataResponse, error) {
	addr := pool.PoolAddress.String()
	f.calls[addr]++
	if f.fail[addr] {
		return nil, errors.New("enrich failed")
	}
	return &model.PulseDataResponse{PairAddress: addr}, nil
}

type fakeLookup struct {
	pools map[string]model.Pool
}

func (f *fakeLookup) LookupPool(ctx context.Context, poolAddress string) (model.Pool, bool) {
	p, ok := f.pools[poolAddress]
	return p, ok
}

type fakeSink struct {
	batches [][]model.PulseDataResponse
}

func (f *fakeSink) EmitUpdatePulseBatch(content []model.PulseDataResponse) {
	f.batches = append(f.batches, content)
}

func TestMarkIsIdempotentWithinOneTick(t *testing.T) {
	pool := poolWithAddress()
	addr := pool.PoolAddress.String()
	enricher := newFakeEnricher()
	lookup := &fakeLookup{pools: map[string]model.Pool{addr: pool}}
	sink := &fakeSink{}
	b := New(enricher, lookup, sink, nil)

	for i := 0; i < 50; i++ {
		b.Mark(addr)
	}
	b.tick(context.Background())

	require.Equal(t, 1, enricher.calls[addr])
	require.Len(t, sink.batches, 1)
	require.Len(t, sink.batches[0], 1)
}

func TestEmptyDirtySetEmitsNothing(t *testing.T) {
	enricher := newFakeEnricher()
	lookup := &fakeLookup{pools: map[string]model.Pool{}}
	sink := &fakeSink{}
	b := New(enricher, lookup, sink, nil)

	b.tick(context.Background())
	require.Empty(t, sink.batches)
}

func TestFailedEnrichIsSkippedNotFatal(t *testing.T) {
	badPool := poolWithAddress()
	goodPool := poolWithAddress()
	badAddr, goodAddr := badPool.PoolAddress.String(), goodPool.PoolAddress.String()

	enricher := newFakeEnricher()
	enricher.fail[badAddr] = true
	lookup := &fakeLookup{pools: map[string]model.Pool{
		badAddr: badPool, goodAddr: goodPool,
	}}
	sink := &fakeSink{}
	b := New(enricher, lookup, sink, nil)

	b.Mark(badAddr)
	b.Mark(goodAddr)
	b.tick(context.Background())

	require.Len(t, sink.batches, 1)
	require.Len(t, sink.batches[0], 1)
	require.Equal(t, goodAddr, sink.batches[0][0].PairAddress)
}

func TestDrainSwapsWithFreshEmptySet(t *testing.T) {
	enricher := newFakeEnricher()
	lookup := &fakeLookup{pools: map[string]model.Pool{}}
	sink := &fakeSink{}
	b := New(enricher, lookup, sink, nil)

	b.Mark("P")
	snapshot := b.drain()
	require.Len(t, snapshot, 1)

	second := b.drain()
	require.Empty(t, second)
}
