package model

import (
	"encoding/json"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/solana-zh/pulsefeed/pkg/decimal"
)

// PoolWire is the row layout of the Pool entity as the analytical store and
// the pub/sub bus exchange it: string-encoded keys, decimal strings for
// fixed-point amounts, RFC-3339 timestamps.
type PoolWire struct {
	PoolAddress              string          `json:"pool_address"`
	Creator                  string          `json:"creator"`
	TokenBaseAddress         string          `json:"token_base_address"`
	TokenQuoteAddress        string          `json:"token_quote_address"`
	PoolBaseAddress          string          `json:"pool_base_address"`
	PoolQuoteAddress         string          `json:"pool_quote_address"`
	Factory                  string          `json:"factory"`
	PreFactory               string          `json:"pre_factory,omitempty"`
	Reversed                 bool            `json:"reversed"`
	InitialTokenBaseReserve  string          `json:"initial_token_base_reserve"`
	InitialTokenQuoteReserve string          `json:"initial_token_quote_reserve"`
	Slot                     uint64          `json:"slot"`
	Hash                     string          `json:"hash"`
	Metadata                 json.RawMessage `json:"metadata,omitempty"`
	CreatedAt                time.Time       `json:"created_at"`
}

// Pool is the in-memory form: typed keys and fixed-point amounts.
type Pool struct {
	PoolAddress              solana.PublicKey
	Creator                  solana.PublicKey
	TokenBaseAddress         solana.PublicKey
	TokenQuoteAddress        solana.PublicKey
	PoolBaseAddress          solana.PublicKey
	PoolQuoteAddress         solana.PublicKey
	Factory                  Factory
	PreFactory               Factory // empty iff the pool did not migrate
	Reversed                 bool
	InitialTokenBaseReserve  decimal.Fixed
	InitialTokenQuoteReserve decimal.Fixed
	Slot                     uint64
	Hash                     solana.Signature
	Metadata                 json.RawMessage
	CreatedAt                time.Time
}

// Migrated reports whether the pool carries provenance from another factory.
func (p Pool) Migrated() bool {
	return p.PreFactory != ""
}

// PoolFromWire converts a wire row into the in-memory form. It fails with a
// ParseError naming the offending field when a key is the wrong length or
// the signature is malformed; numeric parse failures are likewise reported
// per-field rather than silently zeroed.
func PoolFromWire(w PoolWire) (Pool, error) {
	poolAddr, err := solana.PublicKeyFromBase58(w.PoolAddress)
	if err != nil {
		return Pool{}, NewParseError("pool_address", err)
	}
	creator, err := solana.PublicKeyFromBase58(w.Creator)
	if err != nil {
		return Pool{}, NewParseError("creator", err)
	}
	tokenBase, err := solana.PublicKeyFromBase58(w.TokenBaseAddress)
	if err != nil {
		return Pool{}, NewParseError("token_base_address", err)
	}
	tokenQuote, err := solana.PublicKeyFromBase58(w.TokenQuoteAddress)
	if err != nil {
		return Pool{}, NewParseError("token_quote_address", err)
	}
	poolBase, err := solana.PublicKeyFromBase58(w.PoolBaseAddress)
	if err != nil {
		return Pool{}, NewParseError("pool_base_address", err)
	}
	poolQuote, err := solana.PublicKeyFromBase58(w.PoolQuoteAddress)
	if err != nil {
		return Pool{}, NewParseError("pool_quote_address", err)
	}
	hash, err := parseSignature(w.Hash)
	if err != nil {
		return Pool{}, NewParseError("hash", err)
	}
	baseReserve, err := decimal.Parse(w.InitialTokenBaseReserve)
	if err != nil {
		return Pool{}, NewParseError("initial_token_base_reserve", err)
	}
	quoteReserve, err := decimal.Parse(w.InitialTokenQuoteReserve)
	if err != nil {
		return Pool{}, NewParseError("initial_token_quote_reserve", err)
	}

	factory := Factory(w.Factory)
	if !factory.Valid() {
		return Pool{}, NewParseError("factory", errInvalidEnum(w.Factory))
	}
	preFactory := Factory(w.PreFactory)
	if w.PreFactory != "" && !preFactory.Valid() {
		return Pool{}, NewParseError("pre_factory", errInvalidEnum(w.PreFactory))
	}
	if tokenBase.Equals(tokenQuote) {
		return Pool{}, NewParseError("token_base_address", errSameMint)
	}

	return Pool{
		PoolAddress:              poolAddr,
		Creator:                  creator,
		TokenBaseAddress:         tokenBase,
		TokenQuoteAddress:        tokenQuote,
		PoolBaseAddress:          poolBase,
		PoolQuoteAddress:         poolQuote,
		Factory:                  factory,
		PreFactory:               preFactory,
		Reversed:                 w.Reversed,
		InitialTokenBaseReserve:  baseReserve,
		InitialTokenQuoteReserve: quoteReserve,
		Slot:                     w.Slot,
		Hash:                     hash,
		Metadata:                 w.Metadata,
		CreatedAt:                w.CreatedAt,
	}, nil
}

// ToWire converts the in-memory form back to the wire row. This direction
// is always infallible.
func (p Pool) ToWire() PoolWire {
	return PoolWire{
		PoolAddress:              p.PoolAddress.String(),
		Creator:                  p.Creator.String(),
		TokenBaseAddress:         p.TokenBaseAddress.String(),
		TokenQuoteAddress:        p.TokenQuoteAddress.String(),
		PoolBaseAddress:          p.PoolBaseAddress.String(),
		PoolQuoteAddress:         p.PoolQuoteAddress.String(),
		Factory:                  string(p.Factory),
		PreFactory:               string(p.PreFactory),
		Reversed:                 p.Reversed,
		InitialTokenBaseReserve:  p.InitialTokenBaseReserve.String(),
		InitialTokenQuoteReserve: p.InitialTokenQuoteReserve.String(),
		Slot:                     p.Slot,
		Hash:                     base58Signature(p.Hash),
		Metadata:                 p.Metadata,
		CreatedAt:                p.CreatedAt,
	}
}

// PoolCurveUpdate is the latest-by-updated_at bonding-curve percentage for a
// pool (spec.md §3, "PC").
type PoolCurveUpdate struct {
	PoolAddress      solana.PublicKey
	CurvePercentage  decimal.Fixed
	UpdatedAt        time.Time
}
