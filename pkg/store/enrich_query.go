package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gagliardetto/solana-go"

	"github.com/solana-zh/pulsefeed/pkg/decimal"
	"github.com/solana-zh/pulsefeed/pkg/model"
)

// EnrichmentRow is the centerpiece multi-CTE aggregate (§4.3) the per-pool
// Enricher (C5) turns into a PulseDataResponse. Holder amounts
// (Top10AmountRaw, DevAmountRaw) are raw base units; reserves, price and
// volumes are already decoded into Fixed values. The Enricher, not this
// package, applies token decimals and percentage math.
type EnrichmentRow struct {
	Pool  model.Pool
	Token model.Token

	// LatestBaseReserve/LatestQuoteReserve/LatestPriceSol come from the most
	// recent swap, falling back to the pool's initial reserves when no swap
	// has happened yet.
	LatestBaseReserve  decimal.Fixed
	LatestQuoteReserve decimal.Fixed
	LatestPriceSol     decimal.Fixed
	BondingCurvePercent decimal.Fixed

	VolumeBuysSol  decimal.Fixed
	VolumeSellsSol decimal.Fixed
	NumBuys        uint64
	NumSells       uint64
	NumTxns        uint64

	NumHolders uint64

	// Top10AmountRaw is the sum of the 10 largest non-pool-owned holder
	// balances, in raw base units.
	Top10AmountRaw uint64
	// DevAmountRaw is the creator's current holding, in raw base units.
	DevAmountRaw uint64
	// SnipersAmountRaw is the sum of buys landing in the slot immediately
	// after pool creation, already expressed in token (not raw) units —
	// snipers are measured by trade size, not current balance.
	SnipersAmountRaw uint64

	MigrationCount uint64

	DevFunding *model.TransferSol
}

// sqlEnrichPool computes, in one round trip, everything the Enricher needs
// to build a PulseDataResponse for a single pool. Each CTE mirrors one
// sub-query described in spec.md §4.3; keeping them as named CTEs rather
// than a single nested query is what let the original implementation keep
// this readable despite doing eight different aggregations over the same
// pool address.
const sqlEnrichPool = `
WITH
latest_swap AS (
	SELECT base_reserve, quote_reserve, price_sol
	FROM swaps
	WHERE pool_address = ?
	ORDER BY created_at DESC, slot DESC
	LIMIT 1
),
volume_24h AS (
	SELECT
		sum(if(swap_type = 'BUY', toFloat64(quote_amount), 0)) AS buys_sol,
		sum(if(swap_type = 'SELL', toFloat64(quote_amount), 0)) AS sells_sol,
		countIf(swap_type = 'BUY') AS num_buys,
		countIf(swap_type = 'SELL') AS num_sells,
		count() AS num_txns
	FROM swaps
	WHERE pool_address = ? AND created_at >= now() - INTERVAL 24 HOUR
),
holders AS (
	SELECT count(DISTINCT a.account) AS num_holders
	FROM accounts a
	INNER JOIN pools p ON p.token_base_address = a.mint
	WHERE p.pool_address = ? AND a.amount > 0
		AND a.owner != p.pool_address AND a.owner != p.pool_base_address AND a.owner != p.pool_quote_address
),
top10 AS (
	SELECT sum(amount) AS amount_raw FROM (
		SELECT a.amount AS amount
		FROM accounts a
		INNER JOIN pools p ON p.token_base_address = a.mint
		WHERE p.pool_address = ? AND a.amount > 0
			AND a.owner != p.pool_address AND a.owner != p.pool_base_address AND a.owner != p.pool_quote_address
		ORDER BY a.amount DESC
		LIMIT 10
	)
),
dev AS (
	SELECT a.amount AS amount_raw
	FROM accounts a
	INNER JOIN pools p ON p.token_base_address = a.mint
	WHERE p.pool_address = ? AND a.owner = p.creator
	LIMIT 1
),
snipers AS (
	SELECT sum(toFloat64(base_amount)) AS amount
	FROM swaps s
	INNER JOIN pools p ON p.pool_address = s.pool_address
	WHERE s.pool_address = ? AND s.swap_type = 'BUY' AND s.slot = p.slot + 1
		AND s.creator != p.pool_address AND s.creator != p.pool_base_address AND s.creator != p.pool_quote_address
),
migrations AS (
	SELECT countIf(pre_factory = 'PumpFun' AND factory = 'PumpSwap') AS migration_count
	FROM pools
	WHERE creator = (SELECT creator FROM pools WHERE pool_address = ?)
),
curve AS (
	SELECT curve_percentage
	FROM pool_curve_updates
	WHERE pool_address = ?
	ORDER BY updated_at DESC
	LIMIT 1
)
SELECT
	p.pool_address, p.creator, p.token_base_address, p.token_quote_address,
	p.pool_base_address, p.pool_quote_address, p.factory, p.pre_factory,
	p.reversed, p.initial_token_base_reserve, p.initial_token_quote_reserve,
	p.slot, p.hash, p.created_at,
	t.mint_address, t.name, t.symbol, t.decimals, t.uri, t.supply, t.program_id, t.slot, t.hash,
	coalesce((SELECT base_reserve FROM latest_swap), p.initial_token_base_reserve),
	coalesce((SELECT quote_reserve FROM latest_swap), p.initial_token_quote_reserve),
	coalesce((SELECT price_sol FROM latest_swap), '0'),
	coalesce((SELECT curve_percentage FROM curve), '0'),
	(SELECT buys_sol FROM volume_24h), (SELECT sells_sol FROM volume_24h),
	(SELECT num_buys FROM volume_24h), (SELECT num_sells FROM volume_24h), (SELECT num_txns FROM volume_24h),
	(SELECT num_holders FROM holders),
	coalesce((SELECT amount_raw FROM top10), 0),
	coalesce((SELECT amount_raw FROM dev), 0),
	coalesce((SELECT amount FROM snipers), 0),
	(SELECT migration_count FROM migrations)
FROM pools p
INNER JOIN tokens t ON t.mint_address = p.token_base_address
WHERE p.pool_address = ?
LIMIT 1`

// EnrichPool runs the centerpiece aggregation query for one pool. The
// caller supplies poolAddress once; it is repeated across the query's CTEs
// internally since argument binding is positional (spec.md §4.3).
func (c *Client) EnrichPool(ctx context.Context, poolAddress string) (*EnrichmentRow, error) {
	args := make([]any, 9)
	for i := range args {
		args[i] = poolAddress
	}

	row, cancel, err := c.queryRow(ctx, sqlEnrichPool, args...)
	defer cancel()
	if err != nil {
		return nil, err
	}

	var pw model.PoolWire
	var tw model.TokenWire
	var baseReserve, quoteReserve, priceSol, curvePercentage string
	var volumeBuys, volumeSells float64
	var snipers float64
	var out EnrichmentRow

	scanErr := row.Scan(
		&pw.PoolAddress, &pw.Creator, &pw.TokenBaseAddress, &pw.TokenQuoteAddress,
		&pw.PoolBaseAddress, &pw.PoolQuoteAddress, &pw.Factory, &pw.PreFactory,
		&pw.Reversed, &pw.InitialTokenBaseReserve, &pw.InitialTokenQuoteReserve,
		&pw.Slot, &pw.Hash, &pw.CreatedAt,
		&tw.MintAddress, &tw.Name, &tw.Symbol, &tw.Decimals, &tw.URI, &tw.Supply, &tw.ProgramID, &tw.Slot, &tw.Hash,
		&baseReserve, &quoteReserve, &priceSol, &curvePercentage,
		&volumeBuys, &volumeSells, &out.NumBuys, &out.NumSells, &out.NumTxns,
		&out.NumHolders,
		&out.Top10AmountRaw, &out.DevAmountRaw, &snipers,
		&out.MigrationCount,
	)
	if scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			return nil, &StoreError{Kind: ErrMissingRow, Err: scanErr}
		}
		return nil, decodeErr("enrich_pool_row", scanErr)
	}

	pool, err := model.PoolFromWire(pw)
	if err != nil {
		return nil, decodeErr("pool_wire", err)
	}
	tok, err := model.TokenFromWire(tw)
	if err != nil {
		return nil, decodeErr("token_wire", err)
	}
	out.Pool = pool
	out.Token = tok

	if out.LatestBaseReserve, err = decimal.Parse(baseReserve); err != nil {
		return nil, decodeErr("latest_base_reserve", err)
	}
	if out.LatestQuoteReserve, err = decimal.Parse(quoteReserve); err != nil {
		return nil, decodeErr("latest_quote_reserve", err)
	}
	if out.LatestPriceSol, err = decimal.Parse(priceSol); err != nil {
		return nil, decodeErr("latest_price_sol", err)
	}
	if out.BondingCurvePercent, err = decimal.Parse(curvePercentage); err != nil {
		return nil, decodeErr("bonding_curve_percent", err)
	}
	out.VolumeBuysSol = decimal.FromRaw(uint64(volumeBuys*1e9), 9)
	out.VolumeSellsSol = decimal.FromRaw(uint64(volumeSells*1e9), 9)
	out.SnipersAmountRaw = uint64(snipers)

	funding, err := c.devWalletFunding(ctx, pw.Creator)
	if err != nil && !IsMissingRow(err) {
		return nil, err
	}
	out.DevFunding = funding

	return &out, nil
}

const sqlDevWalletFunding = `
SELECT source, destination, amount, hash, created_at
FROM transfers_sol
WHERE destination = ?
ORDER BY created_at ASC
LIMIT 1`

// devWalletFunding finds the first SOL transfer into the pool creator's
// wallet, used to populate PulseDataResponse.DevWalletFunding. It runs on
// every EnrichPool call. When no transfer exists it returns a MissingRow
// StoreError, which EnrichPool treats as "no funding found", not a failure.
func (c *Client) devWalletFunding(ctx context.Context, walletAddress string) (*model.TransferSol, error) {
	row, cancel, err := c.queryRow(ctx, sqlDevWalletFunding, walletAddress)
	defer cancel()
	if err != nil {
		return nil, err
	}

	var w model.TransferSolWire
	if err := row.Scan(&w.Source, &w.Destination, &w.Amount, &w.Hash, &w.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &StoreError{Kind: ErrMissingRow, Err: err}
		}
		return nil, decodeErr("dev_wallet_funding_row", err)
	}

	transfer, err := transferSolFromWire(w)
	if err != nil {
		return nil, decodeErr("transfer_sol_wire", err)
	}
	return &transfer, nil
}

// transferSolFromWire is a local, single-use sibling of model.*FromWire —
// TransferSol never round-trips back out to the wire (it is read-only
// provenance data), so it has no ToWire and lives here rather than in
// pkg/model alongside the round-tripping triads.
func transferSolFromWire(w model.TransferSolWire) (model.TransferSol, error) {
	source, err := solana.PublicKeyFromBase58(w.Source)
	if err != nil {
		return model.TransferSol{}, err
	}
	destination, err := solana.PublicKeyFromBase58(w.Destination)
	if err != nil {
		return model.TransferSol{}, err
	}
	amount, err := decimal.Parse(w.Amount)
	if err != nil {
		return model.TransferSol{}, err
	}
	hash, err := solana.SignatureFromBase58(w.Hash)
	if err != nil {
		return model.TransferSol{}, err
	}
	return model.TransferSol{
		Source:      source,
		Destination: destination,
		Amount:      amount.ToRaw(9),
		Hash:        hash,
		CreatedAt:   w.CreatedAt,
	}, nil
}
