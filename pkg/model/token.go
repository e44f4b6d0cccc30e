package model

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/solana-zh/pulsefeed/pkg/decimal"
)

// TokenWire is the wire row layout for token metadata.
type TokenWire struct {
	MintAddress    string    `json:"mint_address"`
	Name           string    `json:"name"`
	Symbol         string    `json:"symbol"`
	Decimals       uint8     `json:"decimals"`
	URI            string    `json:"uri"`
	Image          string    `json:"image,omitempty"`
	Twitter        string    `json:"twitter,omitempty"`
	Telegram       string    `json:"telegram,omitempty"`
	Website        string    `json:"website,omitempty"`
	Supply         string    `json:"supply"`
	MintAuthority  string    `json:"mint_authority,omitempty"`
	FreezeAuthority string   `json:"freeze_authority,omitempty"`
	ProgramID      string    `json:"program_id"`
	Slot           uint64    `json:"slot"`
	Hash           string    `json:"hash"`
}

// Token is the in-memory form.
type Token struct {
	MintAddress     solana.PublicKey
	Name            string
	Symbol          string
	Decimals        uint8
	URI             string
	Image           string
	Twitter         string
	Telegram        string
	Website         string
	Supply          decimal.Fixed
	MintAuthority   solana.PublicKey
	HasMintAuth     bool
	FreezeAuthority solana.PublicKey
	HasFreezeAuth   bool
	ProgramID       solana.PublicKey
	Slot            uint64
	Hash            solana.Signature
}

// ScaleFactor returns 10^Decimals, the divisor between raw base units and
// human token units.
func (t Token) ScaleFactor() uint64 {
	f := uint64(1)
	for i := uint8(0); i < t.Decimals; i++ {
		f *= 10
	}
	return f
}

// TokenFromWire parses a wire row, rejecting decimals outside [0,18] per
// spec.md §3.
func TokenFromWire(w TokenWire) (Token, error) {
	if w.Decimals > 18 {
		return Token{}, NewParseError("decimals", fmt.Errorf("decimals %d out of range [0,18]", w.Decimals))
	}
	mint, err := solana.PublicKeyFromBase58(w.MintAddress)
	if err != nil {
		return Token{}, NewParseError("mint_address", err)
	}
	programID, err := solana.PublicKeyFromBase58(w.ProgramID)
	if err != nil {
		return Token{}, NewParseError("program_id", err)
	}
	hash, err := parseSignature(w.Hash)
	if err != nil {
		return Token{}, NewParseError("hash", err)
	}
	supply, err := decimal.Parse(w.Supply)
	if err != nil {
		return Token{}, NewParseError("supply", err)
	}

	tok := Token{
		MintAddress: mint,
		Name:        w.Name,
		Symbol:      w.Symbol,
		Decimals:    w.Decimals,
		URI:         w.URI,
		Image:       w.Image,
		Twitter:     w.Twitter,
		Telegram:    w.Telegram,
		Website:     w.Website,
		Supply:      supply,
		ProgramID:   programID,
		Slot:        w.Slot,
		Hash:        hash,
	}

	if w.MintAuthority != "" {
		auth, err := solana.PublicKeyFromBase58(w.MintAuthority)
		if err != nil {
			return Token{}, NewParseError("mint_authority", err)
		}
		tok.MintAuthority = auth
		tok.HasMintAuth = true
	}
	if w.FreezeAuthority != "" {
		auth, err := solana.PublicKeyFromBase58(w.FreezeAuthority)
		if err != nil {
			return Token{}, NewParseError("freeze_authority", err)
		}
		tok.FreezeAuthority = auth
		tok.HasFreezeAuth = true
	}

	return tok, nil
}

// ToWire converts the in-memory form back to the wire row, infallibly.
func (t Token) ToWire() TokenWire {
	w := TokenWire{
		MintAddress: t.MintAddress.String(),
		Name:        t.Name,
		Symbol:      t.Symbol,
		Decimals:    t.Decimals,
		URI:         t.URI,
		Image:       t.Image,
		Twitter:     t.Twitter,
		Telegram:    t.Telegram,
		Website:     t.Website,
		Supply:      t.Supply.String(),
		ProgramID:   t.ProgramID.String(),
		Slot:        t.Slot,
		Hash:        base58Signature(t.Hash),
	}
	if t.HasMintAuth {
		w.MintAuthority = t.MintAuthority.String()
	}
	if t.HasFreezeAuth {
		w.FreezeAuthority = t.FreezeAuthority.String()
	}
	return w
}
