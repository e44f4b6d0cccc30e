// Package enrich implements the per-pool Enricher (C5): it runs the
// analytical store's centerpiece aggregation query for one pool and
// assembles a model.PulseDataResponse, applying the Q18.18 percentage and
// market-cap math from pkg/decimal.
package enrich

import (
	"context"
	"fmt"

	"github.com/solana-zh/pulsefeed/pkg/decimal"
	"github.com/solana-zh/pulsefeed/pkg/model"
	"github.com/solana-zh/pulsefeed/pkg/store"
)

// EnricherError::UnsupportedFactory (spec.md §4.5 step 1): the factory of
// the given pool is not one this service knows how to price.
type UnsupportedFactoryError struct {
	Factory model.Factory
}

func (e *UnsupportedFactoryError) Error() string {
	return fmt.Sprintf("enrich: unsupported factory %q", e.Factory)
}

// storeClient is the subset of *store.Client the Enricher depends on,
// narrowed for testability.
type storeClient interface {
	EnrichPool(ctx context.Context, poolAddress string) (*store.EnrichmentRow, error)
}

// Enricher turns a Pool into a broadcast-ready PulseDataResponse.
type Enricher struct {
	store storeClient
}

// New builds an Enricher over the given store client.
func New(s storeClient) *Enricher {
	return &Enricher{store: s}
}

// Enrich runs the enrichment query for pool and assembles the response.
// Only PumpFun and PumpSwap pools are supported; any other factory returns
// UnsupportedFactoryError so the caller (C4/C6) can drop the event silently
// per spec.md §4.5 step 1 / §8 scenario S6.
func (e *Enricher) Enrich(ctx context.Context, pool model.Pool) (*model.PulseDataResponse, error) {
	if !pool.Factory.Supported() {
		return nil, &UnsupportedFactoryError{Factory: pool.Factory}
	}

	row, err := e.store.EnrichPool(ctx, pool.PoolAddress.String())
	if err != nil {
		return nil, err
	}

	scaleFactor := row.Token.Decimals

	top10Percent := decimal.PercentageScaled(row.Top10AmountRaw, scaleFactor, row.Token.Supply)
	devPercent := decimal.PercentageScaled(row.DevAmountRaw, scaleFactor, row.Token.Supply)
	// snipers_amount_raw is already expressed in token units (spec.md §4.5
	// step 3), so it is converted with FromRaw at zero decimals (no scaling)
	// and goes through Percentage rather than PercentageScaled.
	snipersPercent := decimal.Percentage(decimal.FromRaw(row.SnipersAmountRaw, 0), row.Token.Supply)
	marketCap := decimal.MarketCap(row.LatestPriceSol, row.Token.Supply)

	resp := &model.PulseDataResponse{
		PairAddress:         row.Pool.PoolAddress.String(),
		TokenAddress:        row.Token.MintAddress.String(),
		Creator:             row.Pool.Creator.String(),
		TokenName:           row.Token.Name,
		TokenSymbol:         row.Token.Symbol,
		TokenImage:          row.Token.Image,
		TokenDecimals:       row.Token.Decimals,
		Protocol:            string(row.Pool.Factory),
		Website:             row.Token.Website,
		Twitter:             row.Token.Twitter,
		Telegram:            row.Token.Telegram,
		Top10HoldersPercent: clampPercent(top10Percent),
		DevHoldsPercent:     clampPercent(devPercent),
		SnipersHoldsPercent: clampPercent(snipersPercent),
		VolumeSol:           decimal.Add(row.VolumeBuysSol, row.VolumeSellsSol),
		MarketCapSol:        marketCap,
		LiquiditySol:        row.LatestQuoteReserve,
		LiquidityToken:      row.LatestBaseReserve,
		BondingCurvePercent: clampPercent(row.BondingCurvePercent),
		Supply:              row.Token.Supply,
		NumTxns:             row.NumTxns,
		NumBuys:             row.NumBuys,
		NumSells:            row.NumSells,
		NumHolders:          row.NumHolders,
		CreatedAt:           row.Pool.CreatedAt,
		MigrationCount:      row.MigrationCount,
		PreFactory:          string(row.Pool.PreFactory),
	}

	// Dev-wallet funding is populated only when the funding row's source is
	// non-empty (spec.md §4.5 step 4) — a transfer row with an empty source
	// means "no funding transfer found", not "funded by the zero address".
	if row.DevFunding != nil && !row.DevFunding.Source.Equals(model.ZeroPublicKey) {
		resp.DevWalletFunding = &model.DevWalletFunding{
			FundingWalletAddress: row.DevFunding.Source.String(),
			WalletAddress:        row.DevFunding.Destination.String(),
			AmountSol:            decimal.FromRaw(row.DevFunding.Amount, 9).String(),
			Hash:                 row.DevFunding.Hash.String(),
			FundedAt:             row.DevFunding.CreatedAt,
		}
	}

	return resp, nil
}

// clampPercent enforces invariant 1 from spec.md §8: percentages emitted on
// the wire never exceed 100 even if upstream data is momentarily
// inconsistent (e.g. a holder snapshot racing a burn).
func clampPercent(p decimal.Fixed) decimal.Fixed {
	hundred := decimal.FromInt64(100)
	if p.Cmp(hundred) > 0 {
		return hundred
	}
	if p.Sign() < 0 {
		return decimal.Zero
	}
	return p
}
