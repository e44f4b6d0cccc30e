package store

import (
	"context"

	"github.com/solana-zh/pulsefeed/pkg/decimal"
	"github.com/solana-zh/pulsefeed/pkg/model"
)

// PulseQuery is the dynamic part of a pulse-table query, built by
// pkg/filter from a validated PulseFilter. The store owns the fixed
// SELECT prefix common to all three pulse tables and the fixed LIMIT; filter
// contributes only the WHERE and ORDER BY parts, so a schema change to the pulse tables
// never has to be duplicated into the filter package.
type PulseQuery struct {
	// Table selects which of the three pulse source views to query.
	Table model.PulseTable
	// Where is a parameterized SQL boolean expression (may be empty).
	Where string
	// Args are positional arguments for placeholders in Where, in order.
	Args []any
	// OrderBy is the ORDER BY clause body (without the keyword), fixed per
	// table by pkg/filter: NewPairs/Migrated order by created_at DESC,
	// FinalStretch orders by bonding_curve_percent DESC (spec.md §4.8).
	OrderBy string
}

func (q PulseQuery) sourceView() string {
	switch q.Table {
	case model.PulseTableNewPairs:
		return "pulse_new_pairs"
	case model.PulseTableFinalStretch:
		return "pulse_final_stretch"
	case model.PulseTableMigrated:
		return "pulse_migrated"
	default:
		return "pulse_new_pairs"
	}
}

// pulseSelectPrefix lists the columns every pulse view exposes; the views
// are maintained inside the analytical store, and this query only reads them.
const pulseSelectPrefix = `
SELECT
	pair_address, token_address, creator, token_name, token_symbol, token_image, token_decimals,
	protocol, website, twitter, telegram,
	top10_holders_percent, dev_holds_percent, snipers_holds_percent,
	volume_sol, market_cap_sol, liquidity_sol, liquidity_token, bonding_curve_percent, supply,
	num_txns, num_buys, num_sells, num_holders, created_at, migration_count, pre_factory
FROM `

// Pulse runs a filter-built query against the selected pulse view, up to
// the fixed 10-row limit per table (spec.md §4.8).
func (c *Client) Pulse(ctx context.Context, q PulseQuery) ([]model.PulseDataResponse, error) {
	sql := pulseSelectPrefix + q.sourceView()
	args := append([]any(nil), q.Args...)
	if q.Where != "" {
		sql += " WHERE " + q.Where
	}
	orderBy := q.OrderBy
	if orderBy == "" {
		orderBy = "created_at DESC"
	}
	sql += " ORDER BY " + orderBy + " LIMIT 10"

	rows, err := c.query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PulseDataResponse
	for rows.Next() {
		var r model.PulseDataResponse
		var top10, dev, snipers, volume, marketCap, liquiditySol, liquidityToken, bonding, supply string
		if err := rows.Scan(
			&r.PairAddress, &r.TokenAddress, &r.Creator, &r.TokenName, &r.TokenSymbol, &r.TokenImage, &r.TokenDecimals,
			&r.Protocol, &r.Website, &r.Twitter, &r.Telegram,
			&top10, &dev, &snipers,
			&volume, &marketCap, &liquiditySol, &liquidityToken, &bonding, &supply,
			&r.NumTxns, &r.NumBuys, &r.NumSells, &r.NumHolders, &r.CreatedAt, &r.MigrationCount, &r.PreFactory,
		); err != nil {
			return nil, decodeErr("pulse_row", err)
		}
		fields := []*string{&top10, &dev, &snipers, &volume, &marketCap, &liquiditySol, &liquidityToken, &bonding, &supply}
		targets := []*decimal.Fixed{
			&r.Top10HoldersPercent, &r.DevHoldsPercent, &r.SnipersHoldsPercent,
			&r.VolumeSol, &r.MarketCapSol, &r.LiquiditySol, &r.LiquidityToken, &r.BondingCurvePercent, &r.Supply,
		}
		for i, raw := range fields {
			v, perr := decimal.Parse(*raw)
			if perr != nil {
				return nil, decodeErr("pulse_decimal_field", perr)
			}
			*targets[i] = v
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, transportErr(err)
	}
	return out, nil
}
