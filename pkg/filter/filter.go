// Package filter implements the PulseFilter DSL (C8): a validated query
// description the HTTP and websocket surfaces accept from clients, and a
// builder that turns it into a store.PulseQuery.
package filter

import (
	"fmt"
	"strings"

	"github.com/solana-zh/pulsefeed/pkg/model"
	"github.com/solana-zh/pulsefeed/pkg/store"
)

// Range is an inclusive [Min, Max] bound. Nil means "use the field's
// default for that side" — Min defaults to 0, Max defaults to the field's
// cap.
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

func (r Range) resolve(cap float64) (min, max float64) {
	min, max = 0, cap
	if r.Min != nil {
		min = *r.Min
	}
	if r.Max != nil {
		max = *r.Max
	}
	return min, max
}

// Filters is the body of a PulseFilter's `filters` object.
type Filters struct {
	Factories map[model.Factory]bool `json:"factories,omitempty"`

	SearchKeywords  []string `json:"searchKeywords,omitempty"`
	ExcludeKeywords []string `json:"excludeKeywords,omitempty"`

	AgeMinutes Range `json:"ageMinutes,omitempty"`
	Top10      Range `json:"top10,omitempty"`
	Dev        Range `json:"dev,omitempty"`
	Snipers    Range `json:"snipers,omitempty"`
	Bonding    Range `json:"bonding,omitempty"`
	Holders    Range `json:"holders,omitempty"`
	Txns       Range `json:"txns,omitempty"`
	Buys       Range `json:"buys,omitempty"`
	Sells      Range `json:"sells,omitempty"`
	Migrations Range `json:"migrations,omitempty"`
	Liquidity  Range `json:"liquidity,omitempty"`
	Volume     Range `json:"volume,omitempty"`
	MarketCap  Range `json:"marketCap,omitempty"`

	Twitter          bool `json:"twitter,omitempty"`
	Website          bool `json:"website,omitempty"`
	Telegram         bool `json:"telegram,omitempty"`
	AtLeastOneSocial bool `json:"atLeastOneSocial,omitempty"`
}

// PulseFilter selects and bounds a pulse-table query (spec.md §4.8).
type PulseFilter struct {
	Table   model.PulseTable `json:"table"`
	Filters Filters          `json:"filters"`
}

// Default returns the permissive default filter C7 uses for the
// subscribe-snapshot (spec.md §4.7 step 3): table NewPairs, no restrictions.
func Default() PulseFilter {
	return PulseFilter{Table: model.PulseTableNewPairs}
}

const (
	capPercent    = 100
	capCount      = 1e9
	capAgeMinutes = 1440
)

var rangeCaps = map[string]float64{
	"age_minutes": capAgeMinutes,
	"top10":       capPercent,
	"dev":         capPercent,
	"snipers":     capPercent,
	"bonding":     capPercent,
	"holders":     capCount,
	"txns":        capCount,
	"buys":        capCount,
	"sells":       capCount,
	"migrations":  capCount,
	"liquidity":   capCount,
	"volume":      capCount,
	"market_cap":  capCount,
}

// Validate checks every range against its cap, per spec.md §4.8 and the
// boundary law in §8 ("age filter accepts max=1440, rejects max=1441").
func (f PulseFilter) Validate() error {
	checks := []struct {
		field string
		r     Range
	}{
		{"age_minutes", f.Filters.AgeMinutes},
		{"top10", f.Filters.Top10},
		{"dev", f.Filters.Dev},
		{"snipers", f.Filters.Snipers},
		{"bonding", f.Filters.Bonding},
		{"holders", f.Filters.Holders},
		{"txns", f.Filters.Txns},
		{"buys", f.Filters.Buys},
		{"sells", f.Filters.Sells},
		{"migrations", f.Filters.Migrations},
		{"liquidity", f.Filters.Liquidity},
		{"volume", f.Filters.Volume},
		{"market_cap", f.Filters.MarketCap},
	}
	for _, c := range checks {
		cap := rangeCaps[c.field]
		if c.r.Max != nil && *c.r.Max > cap {
			return outOfBounds(c.field)
		}
		if c.r.Min != nil && *c.r.Min < 0 {
			return outOfBounds(c.field)
		}
	}
	switch f.Table {
	case model.PulseTableNewPairs, model.PulseTableFinalStretch, model.PulseTableMigrated, "":
	default:
		return outOfBounds("table")
	}
	return nil
}

// Build validates f and translates it into a store.PulseQuery: the table's
// fixed base predicate and ORDER BY, plus the dynamic WHERE fragment
// contributed by the filter's ranges, keywords, factory flags, and social
// toggles.
func Build(f PulseFilter) (store.PulseQuery, error) {
	if err := f.Validate(); err != nil {
		return store.PulseQuery{}, err
	}

	table := f.Table
	if table == "" {
		table = model.PulseTableNewPairs
	}

	var clauses []string
	var args []any

	// Recency bound common to all three pulse tables (spec.md §4.3).
	clauses = append(clauses, "created_at >= now() - INTERVAL 24 HOUR")

	switch table {
	case model.PulseTableNewPairs:
		clauses = append(clauses, "bonding_curve_percent < 50")
	case model.PulseTableFinalStretch:
		clauses = append(clauses, "bonding_curve_percent < 100")
	case model.PulseTableMigrated:
		clauses = append(clauses, "pre_factory != ''")
	}

	if len(f.Filters.Factories) > 0 {
		var active []string
		for factory, enabled := range f.Filters.Factories {
			if enabled {
				active = append(active, string(factory))
			}
		}
		if len(active) > 0 {
			placeholders := make([]string, len(active))
			for i, factory := range active {
				placeholders[i] = "?"
				args = append(args, factory)
			}
			clauses = append(clauses, fmt.Sprintf("protocol IN (%s)", strings.Join(placeholders, ",")))
		}
	}

	for _, kw := range f.Filters.SearchKeywords {
		if kw == "" {
			continue
		}
		clauses = append(clauses, "(lower(token_name) LIKE ? OR lower(token_symbol) LIKE ?)")
		like := "%" + strings.ToLower(kw) + "%"
		args = append(args, like, like)
	}
	for _, kw := range f.Filters.ExcludeKeywords {
		if kw == "" {
			continue
		}
		clauses = append(clauses, "NOT (lower(token_name) LIKE ? OR lower(token_symbol) LIKE ?)")
		like := "%" + strings.ToLower(kw) + "%"
		args = append(args, like, like)
	}

	rangeClauses := []struct {
		column string
		field  string
		r      Range
	}{
		{"dateDiff('minute', created_at, now())", "age_minutes", f.Filters.AgeMinutes},
		{"top10_holders_percent", "top10", f.Filters.Top10},
		{"dev_holds_percent", "dev", f.Filters.Dev},
		{"snipers_holds_percent", "snipers", f.Filters.Snipers},
		{"bonding_curve_percent", "bonding", f.Filters.Bonding},
		{"num_holders", "holders", f.Filters.Holders},
		{"num_txns", "txns", f.Filters.Txns},
		{"num_buys", "buys", f.Filters.Buys},
		{"num_sells", "sells", f.Filters.Sells},
		{"migration_count", "migrations", f.Filters.Migrations},
		{"liquidity_sol", "liquidity", f.Filters.Liquidity},
		{"volume_sol", "volume", f.Filters.Volume},
		{"market_cap_sol", "market_cap", f.Filters.MarketCap},
	}
	for _, rc := range rangeClauses {
		if rc.r.Min == nil && rc.r.Max == nil {
			continue
		}
		min, max := rc.r.resolve(rangeCaps[rc.field])
		clauses = append(clauses, fmt.Sprintf("%s BETWEEN ? AND ?", rc.column))
		args = append(args, min, max)
	}

	if f.Filters.Twitter {
		clauses = append(clauses, "twitter != ''")
	}
	if f.Filters.Website {
		clauses = append(clauses, "website != ''")
	}
	if f.Filters.Telegram {
		clauses = append(clauses, "telegram != ''")
	}
	if f.Filters.AtLeastOneSocial {
		clauses = append(clauses, "(twitter != '' OR website != '' OR telegram != '')")
	}

	orderBy := "created_at DESC"
	if table == model.PulseTableFinalStretch {
		orderBy = "bonding_curve_percent DESC"
	}

	return store.PulseQuery{
		Table:   table,
		Where:   strings.Join(clauses, " AND "),
		Args:    args,
		OrderBy: orderBy,
	}, nil
}
