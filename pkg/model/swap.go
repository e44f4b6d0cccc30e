package model

import (
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/solana-zh/pulsefeed/pkg/decimal"
)

// SwapWire is the wire row layout for a swap execution.
type SwapWire struct {
	Hash         string    `json:"hash"`
	PoolAddress  string    `json:"pool_address"`
	Creator      string    `json:"creator"`
	SwapType     string    `json:"swap_type"`
	BaseAmount   string    `json:"base_amount"`
	QuoteAmount  string    `json:"quote_amount"`
	BaseReserve  string    `json:"base_reserve"`
	QuoteReserve string    `json:"quote_reserve"`
	PriceSol     string    `json:"price_sol"`
	Slot         uint64    `json:"slot"`
	CreatedAt    time.Time `json:"created_at"`
}

// Swap is the in-memory form, keyed by (Hash, PoolAddress) per spec.md §3.
type Swap struct {
	Hash         solana.Signature
	PoolAddress  solana.PublicKey
	Creator      solana.PublicKey
	SwapType     SwapType
	BaseAmount   decimal.Fixed
	QuoteAmount  decimal.Fixed
	BaseReserve  decimal.Fixed
	QuoteReserve decimal.Fixed
	PriceSol     decimal.Fixed
	Slot         uint64
	CreatedAt    time.Time
}

// SwapFromWire parses a wire row. BaseAmount/QuoteAmount are kept exactly as
// stored (the open question in spec.md §9 on sign convention is not
// resolved here) under the assumption that SwapType tags the direction and
// the amounts themselves are unsigned magnitudes.
func SwapFromWire(w SwapWire) (Swap, error) {
	hash, err := parseSignature(w.Hash)
	if err != nil {
		return Swap{}, NewParseError("hash", err)
	}
	poolAddr, err := solana.PublicKeyFromBase58(w.PoolAddress)
	if err != nil {
		return Swap{}, NewParseError("pool_address", err)
	}
	creator, err := solana.PublicKeyFromBase58(w.Creator)
	if err != nil {
		return Swap{}, NewParseError("creator", err)
	}
	swapType := SwapType(w.SwapType)
	switch swapType {
	case SwapTypeBuy, SwapTypeSell, SwapTypeAdd, SwapTypeRemove, SwapTypeUnknown:
	default:
		return Swap{}, NewParseError("swap_type", errInvalidEnum(w.SwapType))
	}

	baseAmount, err := decimal.Parse(w.BaseAmount)
	if err != nil {
		return Swap{}, NewParseError("base_amount", err)
	}
	quoteAmount, err := decimal.Parse(w.QuoteAmount)
	if err != nil {
		return Swap{}, NewParseError("quote_amount", err)
	}
	baseReserve, err := decimal.Parse(w.BaseReserve)
	if err != nil {
		return Swap{}, NewParseError("base_reserve", err)
	}
	quoteReserve, err := decimal.Parse(w.QuoteReserve)
	if err != nil {
		return Swap{}, NewParseError("quote_reserve", err)
	}
	priceSol, err := decimal.Parse(w.PriceSol)
	if err != nil {
		return Swap{}, NewParseError("price_sol", err)
	}

	return Swap{
		Hash:         hash,
		PoolAddress:  poolAddr,
		Creator:      creator,
		SwapType:     swapType,
		BaseAmount:   baseAmount,
		QuoteAmount:  quoteAmount,
		BaseReserve:  baseReserve,
		QuoteReserve: quoteReserve,
		PriceSol:     priceSol,
		Slot:         w.Slot,
		CreatedAt:    w.CreatedAt,
	}, nil
}

// ToWire converts the in-memory form back to the wire row, infallibly.
func (s Swap) ToWire() SwapWire {
	return SwapWire{
		Hash:         base58Signature(s.Hash),
		PoolAddress:  s.PoolAddress.String(),
		Creator:      s.Creator.String(),
		SwapType:     string(s.SwapType),
		BaseAmount:   s.BaseAmount.String(),
		QuoteAmount:  s.QuoteAmount.String(),
		BaseReserve:  s.BaseReserve.String(),
		QuoteReserve: s.QuoteReserve.String(),
		PriceSol:     s.PriceSol.String(),
		Slot:         s.Slot,
		CreatedAt:    s.CreatedAt,
	}
}

// IsBuy reports whether the swap contributes to buy-side aggregates.
func (s Swap) IsBuy() bool { return s.SwapType == SwapTypeBuy }

// IsSell reports whether the swap contributes to sell-side aggregates.
func (s Swap) IsSell() bool { return s.SwapType == SwapTypeSell }
