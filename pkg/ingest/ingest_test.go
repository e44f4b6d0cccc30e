package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/solana-zh/pulsefeed/pkg/model"
)

type fakeEnricher struct {
	mu    sync.Mutex
	calls int
	resp  *model.PulseDataResponse
	err   error
}

func (f *fakeEnricher) Enrich(ctx context.Context, pool model.Pool) (*model.PulseDataResponse, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.resp, f.err
}

type fakeBatcher struct {
	mu      sync.Mutex
	marked  []string
}

func (f *fakeBatcher) Mark(poolAddress string) {
	f.mu.Lock()
	f.marked = append(f.marked, poolAddress)
	f.mu.Unlock()
}

type fakeBroadcaster struct {
	mu       sync.Mutex
	newPairs []model.PulseDataResponse
	swaps    []string
}

func (f *fakeBroadcaster) EmitNewPair(resp model.PulseDataResponse) {
	f.mu.Lock()
	f.newPairs = append(f.newPairs, resp)
	f.mu.Unlock()
}

func (f *fakeBroadcaster) EmitSwap(poolAddress string, swap model.SwapWire) {
	f.mu.Lock()
	f.swaps = append(f.swaps, poolAddress)
	f.mu.Unlock()
}

func TestHandlePoolCreatedEmitsNewPairThenMarksDirty(t *testing.T) {
	loop, enricher, batcher, broadcaster := newTestLoop(t)
	_ = enricher

	wire := samplePoolWire(time.Now().Add(-30 * time.Second))
	payload, err := json.Marshal(wire)
	require.NoError(t, err)

	loop.handlePoolCreated(context.Background(), payload)

	require.Len(t, broadcaster.newPairs, 1)
	require.Len(t, batcher.marked, 1)
}

func TestHandlePoolCreatedDropsStalePool(t *testing.T) {
	loop, _, batcher, broadcaster := newTestLoop(t)

	wire := samplePoolWire(time.Now().Add(-48 * time.Hour))
	payload, err := json.Marshal(wire)
	require.NoError(t, err)

	loop.handlePoolCreated(context.Background(), payload)

	require.Empty(t, broadcaster.newPairs)
	require.Empty(t, batcher.marked)
}

func TestHandlePoolCreatedSkipsOnEnricherError(t *testing.T) {
	loop, enricher, batcher, broadcaster := newTestLoop(t)
	enricher.err = errors.New("unsupported factory")

	wire := samplePoolWire(time.Now())
	payload, _ := json.Marshal(wire)

	loop.handlePoolCreated(context.Background(), payload)

	require.Empty(t, broadcaster.newPairs)
	require.Empty(t, batcher.marked)
}

func TestHandleSwapCreatedMarksDirtyWhenPoolIsRecent(t *testing.T) {
	loop, _, batcher, broadcaster := newTestLoop(t)

	poolWire := samplePoolWire(time.Now())
	poolPayload, _ := json.Marshal(poolWire)
	loop.handlePoolCreated(context.Background(), poolPayload)

	swapWire := model.SwapWire{
		Hash:         "1111111111111111111111111111111111111111111111111111111111111111",
		PoolAddress:  poolWire.PoolAddress,
		Creator:      poolWire.Creator,
		SwapType:     string(model.SwapTypeBuy),
		BaseAmount:   "100",
		QuoteAmount:  "1",
		BaseReserve:  "100",
		QuoteReserve: "1",
		PriceSol:     "0.01",
		CreatedAt:    time.Now(),
	}
	swapPayload, _ := json.Marshal(swapWire)
	loop.handleSwapCreated(context.Background(), swapPayload)

	require.Contains(t, broadcaster.swaps, poolWire.PoolAddress)
	require.Contains(t, batcher.marked, poolWire.PoolAddress)
}

func TestHandleSwapCreatedDropsMalformedPayload(t *testing.T) {
	loop, _, batcher, broadcaster := newTestLoop(t)
	loop.handleSwapCreated(context.Background(), []byte("not json"))
	require.Empty(t, broadcaster.swaps)
	require.Empty(t, batcher.marked)
}

func samplePoolWire(createdAt time.Time) model.PoolWire {
	return model.PoolWire{
		PoolAddress:              "11111111111111111111111111111111",
		Creator:                  "So11111111111111111111111111111111111111112",
		TokenBaseAddress:         "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		TokenQuoteAddress:        "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB",
		PoolBaseAddress:          "So11111111111111111111111111111111111111112",
		PoolQuoteAddress:         "11111111111111111111111111111111",
		Factory:                  string(model.FactoryPumpFun),
		InitialTokenBaseReserve:  "1000",
		InitialTokenQuoteReserve: "2000",
		Hash:                     "1111111111111111111111111111111111111111111111111111111111111111",
		CreatedAt:                createdAt,
	}
}

func newTestLoop(t *testing.T) (*Loop, *fakeEnricher, *fakeBatcher, *fakeBroadcaster) {
	t.Helper()
	enricher := &fakeEnricher{resp: &model.PulseDataResponse{}}
	batcher := &fakeBatcher{}
	broadcaster := &fakeBroadcaster{}
	loop, err := New(nil, enricherAdapter{enricher}, batcher, broadcasterAdapter{broadcaster}, nil, Config{}, nil)
	require.NoError(t, err)
	return loop, enricher, batcher, broadcaster
}

// enricherAdapter/broadcasterAdapter satisfy the package's exported
// interfaces without importing the bus package's concrete message type
// into the fakes above.
type enricherAdapter struct{ e *fakeEnricher }

func (a enricherAdapter) Enrich(ctx context.Context, pool model.Pool) (*model.PulseDataResponse, error) {
	return a.e.Enrich(ctx, pool)
}

type broadcasterAdapter struct{ b *fakeBroadcaster }

func (a broadcasterAdapter) EmitNewPair(resp model.PulseDataResponse) {
	a.b.EmitNewPair(resp)
}

func (a broadcasterAdapter) EmitSwap(poolAddress string, swap model.SwapWire) {
	a.b.EmitSwap(poolAddress, swap)
}
