package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func samplePoolWire() PoolWire {
	return PoolWire{
		PoolAddress:              "11111111111111111111111111111111",
		Creator:                  "So11111111111111111111111111111111111111112",
		TokenBaseAddress:         "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		TokenQuoteAddress:        "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB",
		PoolBaseAddress:          "So11111111111111111111111111111111111111112",
		PoolQuoteAddress:         "11111111111111111111111111111111",
		Factory:                  string(FactoryPumpFun),
		Reversed:                 false,
		InitialTokenBaseReserve:  "1000.5",
		InitialTokenQuoteReserve: "2000",
		Slot:                     123456,
		Hash:                     "1111111111111111111111111111111111111111111111111111111111111111",
		CreatedAt:                time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestPoolWireRoundTrip(t *testing.T) {
	w := samplePoolWire()
	p, err := PoolFromWire(w)
	require.NoError(t, err)
	require.Equal(t, w, p.ToWire())
}

func TestPoolRejectsSameMint(t *testing.T) {
	w := samplePoolWire()
	w.TokenQuoteAddress = w.TokenBaseAddress
	_, err := PoolFromWire(w)
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestPoolRejectsBadKeyLength(t *testing.T) {
	w := samplePoolWire()
	w.PoolAddress = "short"
	_, err := PoolFromWire(w)
	require.Error(t, err)
}

func TestSwapWireRoundTrip(t *testing.T) {
	w := SwapWire{
		Hash:         "1111111111111111111111111111111111111111111111111111111111111111",
		PoolAddress:  "11111111111111111111111111111111",
		Creator:      "So11111111111111111111111111111111111111112",
		SwapType:     string(SwapTypeBuy),
		BaseAmount:   "100",
		QuoteAmount:  "0.5",
		BaseReserve:  "1000",
		QuoteReserve: "5",
		PriceSol:     "0.005",
		Slot:         42,
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	s, err := SwapFromWire(w)
	require.NoError(t, err)
	require.Equal(t, w, s.ToWire())
	require.True(t, s.IsBuy())
	require.False(t, s.IsSell())
}

func TestSwapRejectsUnknownType(t *testing.T) {
	w := SwapWire{
		Hash:        "1111111111111111111111111111111111111111111111111111111111111111",
		PoolAddress: "11111111111111111111111111111111",
		Creator:     "So11111111111111111111111111111111111111112",
		SwapType:    "NOT_A_TYPE",
		BaseAmount:  "0",
		QuoteAmount: "0",
		BaseReserve: "0",
		QuoteReserve: "0",
		PriceSol:    "0",
	}
	_, err := SwapFromWire(w)
	require.Error(t, err)
}

func TestTokenWireRoundTrip(t *testing.T) {
	w := TokenWire{
		MintAddress: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Name:        "Example",
		Symbol:      "EXM",
		Decimals:    6,
		URI:         "https://example.com/meta.json",
		Supply:      "1000000000",
		ProgramID:   "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA",
		Slot:        99,
		Hash:        "1111111111111111111111111111111111111111111111111111111111111111",
	}
	tok, err := TokenFromWire(w)
	require.NoError(t, err)
	require.Equal(t, w, tok.ToWire())
	require.Equal(t, uint64(1_000_000), tok.ScaleFactor())
}

func TestTokenRejectsDecimalsOutOfRange(t *testing.T) {
	w := TokenWire{
		MintAddress: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Decimals:    19,
		Supply:      "0",
		ProgramID:   "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA",
		Hash:        "1111111111111111111111111111111111111111111111111111111111111111",
	}
	_, err := TokenFromWire(w)
	require.Error(t, err)
}

func TestAccountWireRoundTrip(t *testing.T) {
	w := AccountWire{
		Account:   "11111111111111111111111111111111",
		Mint:      "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Owner:     "So11111111111111111111111111111111111111112",
		Amount:    500,
		Program:   "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA",
		State:     string(AccountInitialized),
		UpdatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	a, err := AccountFromWire(w)
	require.NoError(t, err)
	require.Equal(t, w, a.ToWire())
	require.True(t, a.Live())
}
