package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/solana-zh/pulsefeed/pkg/decimal"
	"github.com/solana-zh/pulsefeed/pkg/model"
)

const sqlPairInfo = `
SELECT
	p.pool_address, p.creator, p.token_base_address, p.token_quote_address,
	p.pool_base_address, p.pool_quote_address, p.factory, p.pre_factory,
	p.reversed, p.initial_token_base_reserve, p.initial_token_quote_reserve,
	p.slot, p.hash, p.created_at,
	bt.mint_address, bt.name, bt.symbol, bt.decimals, bt.uri, bt.supply, bt.program_id, bt.slot, bt.hash,
	qt.mint_address, qt.name, qt.symbol, qt.decimals, qt.uri, qt.supply, qt.program_id, qt.slot, qt.hash
FROM pools p
INNER JOIN tokens bt ON bt.mint_address = p.token_base_address
INNER JOIN tokens qt ON qt.mint_address = p.token_quote_address
WHERE p.pool_address = ?
LIMIT 1`

// PairInfo returns the pool alongside its base and quote token metadata
// (§4.9 `/pair-info/{pool_address}`).
func (c *Client) PairInfo(ctx context.Context, poolAddress string) (*model.PairInfo, error) {
	row, cancel, err := c.queryRow(ctx, sqlPairInfo, poolAddress)
	defer cancel()
	if err != nil {
		return nil, err
	}

	var pw model.PoolWire
	var bw, qw model.TokenWire
	err = row.Scan(
		&pw.PoolAddress, &pw.Creator, &pw.TokenBaseAddress, &pw.TokenQuoteAddress,
		&pw.PoolBaseAddress, &pw.PoolQuoteAddress, &pw.Factory, &pw.PreFactory,
		&pw.Reversed, &pw.InitialTokenBaseReserve, &pw.InitialTokenQuoteReserve,
		&pw.Slot, &pw.Hash, &pw.CreatedAt,
		&bw.MintAddress, &bw.Name, &bw.Symbol, &bw.Decimals, &bw.URI, &bw.Supply, &bw.ProgramID, &bw.Slot, &bw.Hash,
		&qw.MintAddress, &qw.Name, &qw.Symbol, &qw.Decimals, &qw.URI, &qw.Supply, &qw.ProgramID, &qw.Slot, &qw.Hash,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &StoreError{Kind: ErrMissingRow, Err: err}
		}
		return nil, decodeErr("pair_info_row", err)
	}
	return &model.PairInfo{Pool: pw, BaseToken: bw, QuoteToken: qw}, nil
}

const sqlTokenInfo = `
SELECT
	t.mint_address, t.name, t.symbol, t.decimals, t.supply, t.website, t.twitter, t.telegram, t.image,
	(SELECT count(DISTINCT a.account) FROM accounts a WHERE a.mint = t.mint_address AND a.amount > 0) AS num_holders
FROM tokens t
INNER JOIN pools p ON p.token_base_address = t.mint_address OR p.token_quote_address = t.mint_address
WHERE p.pool_address = ?
LIMIT 1`

// TokenInfo returns token metadata plus a live holder count (§4.9
// `/token-info/{pool_address}`).
func (c *Client) TokenInfo(ctx context.Context, poolAddress string) (*model.TokenInfo, error) {
	row, cancel, err := c.queryRow(ctx, sqlTokenInfo, poolAddress)
	defer cancel()
	if err != nil {
		return nil, err
	}

	var out model.TokenInfo
	var supply string
	err = row.Scan(&out.MintAddress, &out.Name, &out.Symbol, &out.Decimals, &supply,
		&out.Website, &out.Twitter, &out.Telegram, &out.Image, &out.NumHolders)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &StoreError{Kind: ErrMissingRow, Err: err}
		}
		return nil, decodeErr("token_info_row", err)
	}
	out.Supply, err = decimal.Parse(supply)
	if err != nil {
		return nil, decodeErr("supply", err)
	}
	return &out, nil
}

const sqlTopTraders = `
SELECT
	maker_address, pool_address,
	sum(if(swap_type = 'BUY', toFloat64(quote_amount), 0)) AS bought_base_sol,
	sum(if(swap_type = 'SELL', toFloat64(quote_amount), 0)) AS sold_base_sol,
	sum(if(swap_type = 'SELL', toFloat64(quote_amount), -toFloat64(quote_amount))) AS realized_pnl_sol,
	countIf(swap_type = 'BUY') AS num_buys,
	countIf(swap_type = 'SELL') AS num_sells,
	max(created_at) AS last_trade_at
FROM (
	SELECT creator AS maker_address, pool_address, swap_type, quote_amount, created_at
	FROM swaps WHERE pool_address = ?
)
GROUP BY maker_address, pool_address
ORDER BY bought_base_sol + sold_base_sol DESC
LIMIT 10`

// TopTraders returns the top 10 traders by volume for a pool (§4.9
// `/top-traders/{pool_address}`).
func (c *Client) TopTraders(ctx context.Context, poolAddress string) ([]model.TopTrader, error) {
	rows, err := c.query(ctx, sqlTopTraders, poolAddress)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TopTrader
	for rows.Next() {
		var t model.TopTrader
		var bought, sold, pnl float64
		if err := rows.Scan(&t.MakerAddress, &t.PoolAddress, &bought, &sold, &pnl,
			&t.NumBuys, &t.NumSells, &t.LastTradeAt); err != nil {
			return nil, decodeErr("top_trader_row", err)
		}
		t.BoughtBaseSol = decimal.FromRaw(uint64(bought*1e9), 9)
		t.SoldBaseSol = decimal.FromRaw(uint64(sold*1e9), 9)
		t.RealizedPnlSol = decimal.Sub(t.SoldBaseSol, t.BoughtBaseSol)
		_ = pnl
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, transportErr(err)
	}
	return out, nil
}

const sqlHolders = `
SELECT
	a.account, a.owner, a.amount, t.supply, a.updated_at
FROM accounts a
INNER JOIN tokens t ON t.mint_address = a.mint
WHERE a.mint = ? AND a.amount > 0
ORDER BY a.amount DESC
LIMIT 10`

// Holders returns the top 10 holders of a token by balance (§4.9
// `/holders/{token_address}`).
func (c *Client) Holders(ctx context.Context, tokenAddress string) ([]model.Holder, error) {
	rows, err := c.query(ctx, sqlHolders, tokenAddress)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Holder
	for rows.Next() {
		var h model.Holder
		var amount uint64
		var supply string
		if err := rows.Scan(&h.Account, &h.Owner, &amount, &supply, &h.UpdatedAt); err != nil {
			return nil, decodeErr("holder_row", err)
		}
		supplyFixed, err := decimal.Parse(supply)
		if err != nil {
			return nil, decodeErr("supply", err)
		}
		h.Amount = decimal.FromRaw(amount, 0)
		h.PercentOf = decimal.Percentage(h.Amount, supplyFixed)
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, transportErr(err)
	}
	return out, nil
}

const sqlPoolReport = `
SELECT pool_address, report_type, bucket_start, open, high, low, close, volume_sol, num_buys, num_sells
FROM pool_reports
WHERE pool_address = ? AND report_type = ?
ORDER BY bucket_start DESC
LIMIT 288`

// PoolReport returns the OHLCV-shaped report series for a pool at the given
// window size (supplemented from original_source's pool_report.rs).
func (c *Client) PoolReport(ctx context.Context, poolAddress string, reportType model.ReportType) ([]model.PoolReport, error) {
	rows, err := c.query(ctx, sqlPoolReport, poolAddress, string(reportType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PoolReport
	for rows.Next() {
		var r model.PoolReport
		var open, high, low, close, volume string
		var reportType string
		if err := rows.Scan(&r.PoolAddress, &reportType, &r.BucketStart, &open, &high, &low, &close,
			&volume, &r.NumBuys, &r.NumSells); err != nil {
			return nil, decodeErr("pool_report_row", err)
		}
		r.ReportType = model.ReportType(reportType)
		if r.Open, err = decimal.Parse(open); err != nil {
			return nil, decodeErr("open", err)
		}
		if r.High, err = decimal.Parse(high); err != nil {
			return nil, decodeErr("high", err)
		}
		if r.Low, err = decimal.Parse(low); err != nil {
			return nil, decodeErr("low", err)
		}
		if r.Close, err = decimal.Parse(close); err != nil {
			return nil, decodeErr("close", err)
		}
		if r.VolumeSol, err = decimal.Parse(volume); err != nil {
			return nil, decodeErr("volume_sol", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, transportErr(err)
	}
	return out, nil
}

const sqlCandlestick = `
SELECT bucket_start, open, high, low, close, volume_sol, num_txns
FROM candlesticks
WHERE pool_address = ? AND interval = ? AND bucket_start >= ? AND bucket_start <= ?
ORDER BY bucket_start ASC
LIMIT ?`

// Candlestick returns OHLCV buckets for a pool over [start, end], bounded by
// limit (§4.9 `/candlestick?pool_address=...`).
func (c *Client) Candlestick(ctx context.Context, poolAddress, interval string, start, end time.Time, limit int) ([]model.OHLCV, error) {
	rows, err := c.query(ctx, sqlCandlestick, poolAddress, interval, start, end, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.OHLCV
	for rows.Next() {
		var o model.OHLCV
		var open, high, low, close, volume string
		if err := rows.Scan(&o.BucketStart, &open, &high, &low, &close, &volume, &o.NumTxns); err != nil {
			return nil, decodeErr("candlestick_row", err)
		}
		if o.Open, err = decimal.Parse(open); err != nil {
			return nil, decodeErr("open", err)
		}
		if o.High, err = decimal.Parse(high); err != nil {
			return nil, decodeErr("high", err)
		}
		if o.Low, err = decimal.Parse(low); err != nil {
			return nil, decodeErr("low", err)
		}
		if o.Close, err = decimal.Parse(close); err != nil {
			return nil, decodeErr("close", err)
		}
		if o.VolumeSol, err = decimal.Parse(volume); err != nil {
			return nil, decodeErr("volume_sol", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, transportErr(err)
	}
	return out, nil
}

const sqlLastTransaction = `
SELECT hash, pool_address, creator, swap_type, base_amount, quote_amount, base_reserve, quote_reserve, price_sol, slot, created_at
FROM swaps
WHERE pool_address = ?
ORDER BY created_at DESC, slot DESC
LIMIT 1`

// LastTransaction returns the most recent swap for a pool (§4.9
// `/get-last-transaction/{pool_address}`).
func (c *Client) LastTransaction(ctx context.Context, poolAddress string) (*model.Swap, error) {
	row, cancel, err := c.queryRow(ctx, sqlLastTransaction, poolAddress)
	defer cancel()
	if err != nil {
		return nil, err
	}

	var w model.SwapWire
	err = row.Scan(&w.Hash, &w.PoolAddress, &w.Creator, &w.SwapType, &w.BaseAmount, &w.QuoteAmount,
		&w.BaseReserve, &w.QuoteReserve, &w.PriceSol, &w.Slot, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &StoreError{Kind: ErrMissingRow, Err: err}
		}
		return nil, decodeErr("last_transaction_row", err)
	}
	swap, err := model.SwapFromWire(w)
	if err != nil {
		return nil, decodeErr("swap_wire", err)
	}
	return &swap, nil
}

const sqlPoolAndTokenSearch = `
SELECT
	p.pool_address, p.creator, p.token_base_address, p.token_quote_address,
	p.pool_base_address, p.pool_quote_address, p.factory, p.pre_factory,
	p.reversed, p.initial_token_base_reserve, p.initial_token_quote_reserve,
	p.slot, p.hash, p.created_at,
	t.mint_address, t.name, t.symbol, t.decimals, t.uri, t.supply, t.program_id, t.slot, t.hash
FROM pools p
INNER JOIN tokens t ON t.mint_address = p.token_base_address
WHERE t.symbol ILIKE concat('%', ?, '%') OR t.name ILIKE concat('%', ?, '%') OR p.pool_address = ?
ORDER BY p.created_at DESC
LIMIT 20`

// Search returns pools joined with their base token whose symbol, name, or
// address matches the query (§4.9 `/search`, supplemented).
func (c *Client) Search(ctx context.Context, query string) ([]model.PoolAndToken, error) {
	rows, err := c.query(ctx, sqlPoolAndTokenSearch, query, query, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PoolAndToken
	for rows.Next() {
		var pw model.PoolWire
		var tw model.TokenWire
		if err := rows.Scan(
			&pw.PoolAddress, &pw.Creator, &pw.TokenBaseAddress, &pw.TokenQuoteAddress,
			&pw.PoolBaseAddress, &pw.PoolQuoteAddress, &pw.Factory, &pw.PreFactory,
			&pw.Reversed, &pw.InitialTokenBaseReserve, &pw.InitialTokenQuoteReserve,
			&pw.Slot, &pw.Hash, &pw.CreatedAt,
			&tw.MintAddress, &tw.Name, &tw.Symbol, &tw.Decimals, &tw.URI, &tw.Supply, &tw.ProgramID, &tw.Slot, &tw.Hash,
		); err != nil {
			return nil, decodeErr("pool_and_token_row", err)
		}
		out = append(out, model.PoolAndToken{Pool: pw, Token: tw})
	}
	if err := rows.Err(); err != nil {
		return nil, transportErr(err)
	}
	return out, nil
}

const sqlTrades = `
SELECT hash, pool_address, creator, swap_type, base_amount, quote_amount, base_reserve, quote_reserve, price_sol, slot, created_at
FROM swaps
WHERE pool_address = ? AND created_at >= ? AND created_at <= ?
ORDER BY created_at DESC, slot DESC
LIMIT 200`

// Trades returns swaps for a pool within [start, end] (§4.9 `/trades`).
func (c *Client) Trades(ctx context.Context, poolAddress string, start, end time.Time) ([]model.Swap, error) {
	rows, err := c.query(ctx, sqlTrades, poolAddress, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Swap
	for rows.Next() {
		var w model.SwapWire
		if err := rows.Scan(&w.Hash, &w.PoolAddress, &w.Creator, &w.SwapType, &w.BaseAmount, &w.QuoteAmount,
			&w.BaseReserve, &w.QuoteReserve, &w.PriceSol, &w.Slot, &w.CreatedAt); err != nil {
			return nil, decodeErr("trade_row", err)
		}
		swap, err := model.SwapFromWire(w)
		if err != nil {
			return nil, decodeErr("swap_wire", err)
		}
		out = append(out, swap)
	}
	if err := rows.Err(); err != nil {
		return nil, transportErr(err)
	}
	return out, nil
}

const sqlTraderDetails = `
SELECT
	maker_address, pool_address,
	sum(if(swap_type = 'BUY', toFloat64(quote_amount), 0)) AS bought_base_sol,
	sum(if(swap_type = 'SELL', toFloat64(quote_amount), 0)) AS sold_base_sol,
	countIf(swap_type = 'BUY') AS num_buys,
	countIf(swap_type = 'SELL') AS num_sells,
	max(created_at) AS last_trade_at
FROM (
	SELECT creator AS maker_address, pool_address, swap_type, quote_amount, created_at
	FROM swaps WHERE pool_address = ? AND creator = ?
)
GROUP BY maker_address, pool_address
LIMIT 1`

// TraderDetails returns the single top-trader row for one maker/pool pair
// (§4.9 `/trader-details`).
func (c *Client) TraderDetails(ctx context.Context, poolAddress, makerAddress string) (*model.TopTrader, error) {
	row, cancel, err := c.queryRow(ctx, sqlTraderDetails, poolAddress, makerAddress)
	defer cancel()
	if err != nil {
		return nil, err
	}

	var t model.TopTrader
	var bought, sold float64
	err = row.Scan(&t.MakerAddress, &t.PoolAddress, &bought, &sold, &t.NumBuys, &t.NumSells, &t.LastTradeAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &StoreError{Kind: ErrMissingRow, Err: err}
		}
		return nil, decodeErr("trader_details_row", err)
	}
	t.BoughtBaseSol = decimal.FromRaw(uint64(bought*1e9), 9)
	t.SoldBaseSol = decimal.FromRaw(uint64(sold*1e9), 9)
	t.RealizedPnlSol = decimal.Sub(t.SoldBaseSol, t.BoughtBaseSol)
	return &t, nil
}

const sqlPortfolio = `
SELECT
	a.mint AS token_address,
	p.pool_address,
	t.symbol,
	a.amount,
	if(p.initial_token_base_reserve > 0, toFloat64(a.amount) / toFloat64(t.supply) * toFloat64(p.initial_token_quote_reserve), 0) AS value_sol,
	if(p.creator = ?, 'creator', 'trader') AS role
FROM accounts a
INNER JOIN tokens t ON t.mint_address = a.mint
INNER JOIN pools p ON p.token_base_address = a.mint
WHERE a.owner = ? AND a.amount > 0
ORDER BY value_sol DESC
LIMIT 100`

// Portfolio returns up to 100 pool/token positions held by a wallet, highest
// value first (supplemented
// from original_source's portfolio.rs).
func (c *Client) Portfolio(ctx context.Context, walletAddress string) ([]model.PortfolioEntry, error) {
	rows, err := c.query(ctx, sqlPortfolio, walletAddress, walletAddress)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PortfolioEntry
	for rows.Next() {
		var e model.PortfolioEntry
		var amount uint64
		var value float64
		if err := rows.Scan(&e.TokenAddress, &e.PoolAddress, &e.TokenSymbol, &amount, &value, &e.Role); err != nil {
			return nil, decodeErr("portfolio_row", err)
		}
		e.Amount = decimal.FromRaw(amount, 0)
		e.ValueSol = decimal.FromRaw(uint64(value*1e9), 9)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, transportErr(err)
	}
	return out, nil
}
