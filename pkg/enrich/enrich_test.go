package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/solana-zh/pulsefeed/pkg/decimal"
	"github.com/solana-zh/pulsefeed/pkg/model"
	"github.com/solana-zh/pulsefeed/pkg/store"
)

type fakeStore struct {
	row *store.EnrichmentRow
	err error
}

func (f *fakeStore) EnrichPool(ctx context.Context, poolAddress string) (*store.EnrichmentRow, error) {
	return f.row, f.err
}

func samplePool(factory model.Factory) model.Pool {
	return model.Pool{
		PoolAddress: solana.NewWallet().PublicKey(),
		Creator:     solana.NewWallet().PublicKey(),
		Factory:     factory,
		CreatedAt:   time.Now(),
	}
}

func TestEnrichRejectsUnsupportedFactory(t *testing.T) {
	e := New(&fakeStore{})
	_, err := e.Enrich(context.Background(), samplePool(model.FactoryRaydium))
	require.Error(t, err)
	var uerr *UnsupportedFactoryError
	require.ErrorAs(t, err, &uerr)
}

func TestEnrichComputesPercentagesAndMarketCap(t *testing.T) {
	pool := samplePool(model.FactoryPumpFun)
	token := model.Token{
		MintAddress: solana.NewWallet().PublicKey(),
		Decimals:    6,
		Supply:      decimal.FromInt64(1_000_000_000),
	}
	priceSol, err := decimal.Parse("0.0001")
	require.NoError(t, err)
	row := &store.EnrichmentRow{
		Pool:             pool,
		Token:            token,
		LatestPriceSol:   priceSol,
		Top10AmountRaw:   150_000_000_000_000, // S5 scenario: 15%
		DevAmountRaw:     50_000_000_000_000,
		SnipersAmountRaw: 1_000_000,
		NumBuys:          3,
		NumSells:         2,
		NumTxns:          5,
		NumHolders:       42,
		MigrationCount:   0,
	}

	e := New(&fakeStore{row: row})
	resp, err := e.Enrich(context.Background(), pool)
	require.NoError(t, err)

	require.Equal(t, "15", resp.Top10HoldersPercent.String())
	require.True(t, resp.DevHoldsPercent.Cmp(decimal.Zero) > 0)
	require.Equal(t, "100000", resp.MarketCapSol.String()) // 0.0001 SOL * 1e9 supply
	require.Equal(t, uint64(3), resp.NumBuys)
	require.Equal(t, uint64(2), resp.NumSells)
	require.LessOrEqual(t, resp.Top10HoldersPercent.Cmp(decimal.FromInt64(100)), 0)
}

func TestEnrichPropagatesStoreError(t *testing.T) {
	pool := samplePool(model.FactoryPumpSwap)
	e := New(&fakeStore{err: &store.StoreError{Kind: store.ErrTransport}})
	_, err := e.Enrich(context.Background(), pool)
	require.Error(t, err)
}

func TestClampPercentCapsAtHundred(t *testing.T) {
	over := decimal.FromInt64(150)
	require.Equal(t, "100", clampPercent(over).String())
}
