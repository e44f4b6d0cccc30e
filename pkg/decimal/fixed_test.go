package decimal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPercentageZeroSupply(t *testing.T) {
	require.True(t, Percentage(FromInt64(10), Zero).IsZero())
}

func TestPercentageScaledZeroDenominators(t *testing.T) {
	require.True(t, PercentageScaled(100, 6, Zero).IsZero())
	require.True(t, PercentageScaled(0, 6, FromInt64(1000)).IsZero())
}

func TestPercentageScaledKnownValue(t *testing.T) {
	// decimals=6, supply=1_000_000_000, top10_amount_raw=150_000_000_000_000
	// -> 150_000_000_000_000 / 1e6 = 150_000_000 token units held
	// 150_000_000 / 1_000_000_000 * 100 == 15.0
	got := PercentageScaled(150_000_000_000_000, 6, FromInt64(1_000_000_000))
	require.Equal(t, "15", got.String())
}

func TestDivByZeroIsZero(t *testing.T) {
	require.True(t, Div(FromInt64(5), Zero).IsZero())
}

func TestMulRoundHalfUp(t *testing.T) {
	// 0.5 * 0.000000000000000003 rounds the 19th digit up.
	half, err := Parse("0.5")
	require.NoError(t, err)
	tiny, err := Parse("0.000000000000000003")
	require.NoError(t, err)
	got := Mul(half, tiny)
	require.Equal(t, "0.000000000000000002", got.String())
}

func TestAddSubRoundTrip(t *testing.T) {
	a := FromInt64(42)
	b := FromInt64(-17)
	require.Equal(t, "25", Add(a, b).String())
	require.Equal(t, "59", Sub(a, b).String())
}

func TestParseStringRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "1", "-1", "123.456", "-0.000001", "1000000"} {
		f, err := Parse(s)
		require.NoError(t, err)
		require.Equal(t, s, f.String())
	}
}

func TestMarketCap(t *testing.T) {
	price, _ := Parse("2.5")
	supply := FromInt64(1000)
	require.Equal(t, "2500", MarketCap(price, supply).String())
}

func TestSaturatingAdd(t *testing.T) {
	ceiling := fromBig(maxMagBig)
	sum := Add(ceiling, FromInt64(1))
	require.Equal(t, 0, sum.Cmp(ceiling)) // saturates at the ceiling instead of overflowing
}

func TestCmpAndSign(t *testing.T) {
	require.Equal(t, 0, Zero.Sign())
	require.Equal(t, 1, FromInt64(1).Sign())
	require.Equal(t, -1, FromInt64(-1).Sign())
	require.Equal(t, -1, FromInt64(1).Cmp(FromInt64(2)))
}
