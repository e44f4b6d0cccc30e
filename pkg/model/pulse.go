package model

import (
	"time"

	"github.com/solana-zh/pulsefeed/pkg/decimal"
)

// PulseTable selects which of the three pulse views (§4.3/§4.8) a query or
// filter targets.
type PulseTable string

const (
	PulseTableNewPairs     PulseTable = "NewPairs"
	PulseTableFinalStretch PulseTable = "FinalStretch"
	PulseTableMigrated     PulseTable = "Migrated"
)

// DevWalletFunding names the first SOL transfer that funded the pool
// creator's wallet, when one was found.
type DevWalletFunding struct {
	FundingWalletAddress string    `json:"fundingWalletAddress"`
	WalletAddress        string    `json:"walletAddress"`
	AmountSol             string   `json:"amountSol"`
	Hash                  string   `json:"hash"`
	FundedAt              time.Time `json:"fundedAt"`
}

// PulseDataResponse is the enriched, broadcast-ready record produced by the
// per-pool Enricher (C5) and emitted as `new-pair` and `update_pulse_v2`
// content (spec.md §6). Field order/casing matches the wire contract
// exactly; this is a response-only form, there is no separate wire row for
// it because it never round-trips back in from the store.
type PulseDataResponse struct {
	PairAddress          string            `json:"pairAddress"`
	TokenAddress         string            `json:"tokenAddress"`
	Creator              string            `json:"creator"`
	TokenName            string            `json:"tokenName,omitempty"`
	TokenSymbol          string            `json:"tokenSymbol,omitempty"`
	TokenImage           string            `json:"tokenImage,omitempty"`
	TokenDecimals        uint8             `json:"tokenDecimals"`
	Protocol             string            `json:"protocol"`
	Website              string            `json:"website,omitempty"`
	Twitter              string            `json:"twitter,omitempty"`
	Telegram             string            `json:"telegram,omitempty"`
	Top10HoldersPercent  decimal.Fixed     `json:"top10HoldersPercent"`
	DevHoldsPercent      decimal.Fixed     `json:"devHoldsPercent"`
	SnipersHoldsPercent  decimal.Fixed     `json:"snipersHoldsPercent"`
	VolumeSol            decimal.Fixed     `json:"volumeSol"`
	MarketCapSol         decimal.Fixed     `json:"marketCapSol"`
	LiquiditySol         decimal.Fixed     `json:"liquiditySol"`
	LiquidityToken       decimal.Fixed     `json:"liquidityToken"`
	BondingCurvePercent  decimal.Fixed     `json:"bondingCurvePercent"`
	Supply               decimal.Fixed     `json:"supply"`
	NumTxns              uint64            `json:"numTxns"`
	NumBuys              uint64            `json:"numBuys"`
	NumSells             uint64            `json:"numSells"`
	NumHolders           uint64            `json:"numHolders"`
	CreatedAt            time.Time         `json:"createdAt"`
	MigrationCount       uint64            `json:"migrationCount"`
	DevWalletFunding     *DevWalletFunding `json:"devWalletFunding,omitempty"`

	// PreFactory is the pool's own migration-source tag (non-empty iff this
	// pool migrated), used only to build the Migrated pulse table's base
	// predicate — it is not part of the wire contract.
	PreFactory string `json:"-"`
}

// OHLCV is one candlestick bucket.
type OHLCV struct {
	BucketStart time.Time     `json:"bucketStart"`
	Open        decimal.Fixed `json:"open"`
	High        decimal.Fixed `json:"high"`
	Low         decimal.Fixed `json:"low"`
	Close       decimal.Fixed `json:"close"`
	VolumeSol   decimal.Fixed `json:"volumeSol"`
	NumTxns     uint64        `json:"numTxns"`
}

// ReportType buckets a PoolReport row by window size.
type ReportType string

const (
	ReportType1m  ReportType = "1m"
	ReportType5m  ReportType = "5m"
	ReportType1h  ReportType = "1h"
	ReportType6h  ReportType = "6h"
	ReportType24h ReportType = "24h"
)

// Valid reports whether r is one of the five supported report windows.
func (r ReportType) Valid() bool {
	switch r {
	case ReportType1m, ReportType5m, ReportType1h, ReportType6h, ReportType24h:
		return true
	default:
		return false
	}
}

// PoolReport is an OHLCV-shaped aggregate keyed by a coarser report window
// than a raw candlestick bucket (supplemented from original_source's
// pool_report.rs — see SPEC_FULL.md).
type PoolReport struct {
	PoolAddress string        `json:"poolAddress"`
	ReportType  ReportType    `json:"reportType"`
	BucketStart time.Time     `json:"bucketStart"`
	Open        decimal.Fixed `json:"open"`
	High        decimal.Fixed `json:"high"`
	Low         decimal.Fixed `json:"low"`
	Close       decimal.Fixed `json:"close"`
	VolumeSol   decimal.Fixed `json:"volumeSol"`
	NumBuys     uint64        `json:"numBuys"`
	NumSells    uint64        `json:"numSells"`
}

// TopTrader is one row of the top-traders-by-pool view.
type TopTrader struct {
	MakerAddress   string        `json:"makerAddress"`
	PoolAddress    string        `json:"poolAddress"`
	BoughtBaseSol  decimal.Fixed `json:"boughtBaseSol"`
	SoldBaseSol    decimal.Fixed `json:"soldBaseSol"`
	RealizedPnlSol decimal.Fixed `json:"realizedPnlSol"`
	NumBuys        uint64        `json:"numBuys"`
	NumSells       uint64        `json:"numSells"`
	LastTradeAt    time.Time     `json:"lastTradeAt"`
}

// Holder is one row of the holders-by-token view.
type Holder struct {
	Account    string        `json:"account"`
	Owner      string        `json:"owner"`
	Amount     decimal.Fixed `json:"amount"`
	PercentOf  decimal.Fixed `json:"percentOf"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// TokenInfo is the token-info aggregate (§4.9 `/token-info/{pool_address}`).
type TokenInfo struct {
	MintAddress string        `json:"mintAddress"`
	Name        string        `json:"name"`
	Symbol      string        `json:"symbol"`
	Decimals    uint8         `json:"decimals"`
	Supply      decimal.Fixed `json:"supply"`
	Website     string        `json:"website,omitempty"`
	Twitter     string        `json:"twitter,omitempty"`
	Telegram    string        `json:"telegram,omitempty"`
	Image       string        `json:"image,omitempty"`
	NumHolders  uint64        `json:"numHolders"`
}

// PairInfo is the `/pair-info/{pool_address}` response shape.
type PairInfo struct {
	Pool       PoolWire  `json:"pool"`
	BaseToken  TokenWire `json:"baseToken"`
	QuoteToken TokenWire `json:"quoteToken"`
}

// PoolAndToken is the combined row used by /pools search results.
type PoolAndToken struct {
	Pool  PoolWire  `json:"pool"`
	Token TokenWire `json:"token"`
}

// PortfolioEntry is one pool/token line in a wallet's portfolio (supplemented
// from original_source's portfolio.rs — see SPEC_FULL.md).
type PortfolioEntry struct {
	PoolAddress  string        `json:"poolAddress"`
	TokenAddress string        `json:"tokenAddress"`
	TokenSymbol  string        `json:"tokenSymbol,omitempty"`
	Amount       decimal.Fixed `json:"amount"`
	ValueSol     decimal.Fixed `json:"valueSol"`
	Role         string        `json:"role"` // "creator" or "trader"
}
