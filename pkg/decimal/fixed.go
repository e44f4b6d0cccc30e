// Package decimal implements the Q18.18 fixed-point kernel used to keep
// percentage and market-cap math deterministic across the heterogeneous
// numeric types (raw integers, floats, arbitrary-precision decimals) that
// show up on the wire between the analytical store and this service.
package decimal

import (
	"fmt"
	"math/big"
	"strings"

	"lukechampine.com/uint128"
)

// Scale is 10^18, the number of fractional units represented by one whole unit.
const Scale = 1_000_000_000_000_000000

var (
	scaleBig = big.NewInt(Scale)
	maxMag    = uint128.Max.Div64(2) // 2^127-1 (the int128 maximum), used as the saturation ceiling for an int128 magnitude
	maxMagBig = maxMag.Big()
)

// Fixed is a signed Q18.18 fixed-point number backed by a 128-bit magnitude.
// The zero value is zero.
type Fixed struct {
	neg bool
	mag uint128.Uint128
}

// Zero is the additive identity.
var Zero = Fixed{}

// FromInt64 builds a Fixed representing the whole number n.
func FromInt64(n int64) Fixed {
	if n == 0 {
		return Zero
	}
	neg := n < 0
	abs := n
	if neg {
		abs = -n
	}
	return Fixed{neg: neg, mag: uint128.From64(uint64(abs)).Mul64(Scale)}
}

// FromRaw builds a Fixed from a raw on-chain integer amount and the token's
// decimals, e.g. FromRaw(1_500_000, 6) == 1.5. Callers must not pre-divide
// raw amounts by the scale factor before calling this — the scale travels
// alongside the raw amount so percentage math stays exact.
func FromRaw(rawUnits uint64, decimals uint8) Fixed {
	if rawUnits == 0 {
		return Zero
	}
	num := new(big.Int).Mul(new(big.Int).SetUint64(rawUnits), scaleBig)
	den := pow10(decimals)
	return fromBig(divRoundHalfUp(num, den))
}

// ToRaw is the inverse of FromRaw: it returns the non-negative raw integer
// amount f would represent at the given decimals, rounding half away from
// zero and saturating at MaxUint64. Negative values saturate to 0 — raw
// on-chain amounts are never negative.
func (f Fixed) ToRaw(decimals uint8) uint64 {
	if f.neg || f.mag.IsZero() {
		return 0
	}
	num := new(big.Int).Mul(f.mag.Big(), pow10(decimals))
	raw := divRoundHalfUp(num, scaleBig)
	if !raw.IsUint64() {
		return ^uint64(0)
	}
	return raw.Uint64()
}

// Parse reads a base-10 decimal string such as "123.456789" into a Fixed.
// Digits beyond the 18th fractional place are truncated, not rounded —
// wire producers are expected to emit at most 18 fractional digits.
func Parse(s string) (Fixed, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, fmt.Errorf("decimal: empty string")
	}
	neg := false
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		s = s[1:]
	}

	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if intPart == "" {
		intPart = "0"
	}
	if !hasFrac {
		fracPart = ""
	}
	if len(fracPart) > 18 {
		fracPart = fracPart[:18]
	}
	for len(fracPart) < 18 {
		fracPart += "0"
	}

	digits := intPart + fracPart
	bi, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return Zero, fmt.Errorf("decimal: invalid number %q", s)
	}
	if neg {
		bi.Neg(bi)
	}
	return fromBig(bi), nil
}

// String renders the Fixed as a base-10 decimal string with trailing
// fractional zeros trimmed.
func (f Fixed) String() string {
	bi := f.signedBig()
	neg := bi.Sign() < 0
	abs := new(big.Int).Abs(bi)

	q, r := new(big.Int).QuoRem(abs, scaleBig, new(big.Int))
	frac := r.String()
	frac = strings.Repeat("0", 18-len(frac)) + frac
	frac = strings.TrimRight(frac, "0")

	out := q.String()
	if frac != "" {
		out += "." + frac
	}
	if neg && out != "0" {
		out = "-" + out
	}
	return out
}

// MarshalJSON renders f as a bare JSON number, matching the float-equivalent
// wire representation spec.md §9 calls for.
func (f Fixed) MarshalJSON() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalJSON accepts either a bare JSON number or a quoted decimal
// string, since some upstream producers emit high-precision amounts as
// strings to dodge float64 rounding.
func (f *Fixed) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*f = Zero
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// IsZero reports whether f is zero.
func (f Fixed) IsZero() bool {
	return f.mag.IsZero()
}

// Sign returns -1, 0, or 1.
func (f Fixed) Sign() int {
	if f.mag.IsZero() {
		return 0
	}
	if f.neg {
		return -1
	}
	return 1
}

// Cmp compares f to g, returning -1, 0, or 1.
func (f Fixed) Cmp(g Fixed) int {
	return f.signedBig().Cmp(g.signedBig())
}

// Add returns f+g, saturating on overflow.
func Add(f, g Fixed) Fixed {
	return fromBig(new(big.Int).Add(f.signedBig(), g.signedBig()))
}

// Sub returns f-g, saturating on overflow.
func Sub(f, g Fixed) Fixed {
	return fromBig(new(big.Int).Sub(f.signedBig(), g.signedBig()))
}

// Mul returns round_half_up(f.bits * g.bits, Scale), saturating on overflow.
func Mul(f, g Fixed) Fixed {
	prod := new(big.Int).Mul(f.signedBig(), g.signedBig())
	return fromBig(divRoundHalfUp(prod, scaleBig))
}

// Div returns round_half_up(f.bits*Scale, g.bits), or Zero when g is zero.
func Div(f, g Fixed) Fixed {
	if g.IsZero() {
		return Zero
	}
	num := new(big.Int).Mul(f.signedBig(), scaleBig)
	return fromBig(divRoundHalfUp(num, g.signedBig()))
}

// Percentage returns (amount/supply)*100, or Zero when supply is zero.
func Percentage(amount, supply Fixed) Fixed {
	if supply.IsZero() {
		return Zero
	}
	return Mul(Div(amount, supply), FromInt64(100))
}

// PercentageScaled returns ((rawAmount/scaleFactor)/supply)*100, or Zero when
// either denominator is zero. rawAmount is in raw base units, decimals is the
// token's on-chain decimal count.
func PercentageScaled(rawAmount uint64, decimals uint8, supply Fixed) Fixed {
	if supply.IsZero() {
		return Zero
	}
	amount := FromRaw(rawAmount, decimals)
	return Percentage(amount, supply)
}

// MarketCap returns price*supply.
func MarketCap(price, supply Fixed) Fixed {
	return Mul(price, supply)
}

func (f Fixed) signedBig() *big.Int {
	bi := f.mag.Big()
	if f.neg {
		bi.Neg(bi)
	}
	return bi
}

// fromBig saturates bi to the int128 magnitude bound before storing it.
func fromBig(bi *big.Int) Fixed {
	if bi.Sign() == 0 {
		return Zero
	}
	neg := bi.Sign() < 0
	abs := new(big.Int).Abs(bi)
	if abs.Cmp(maxMagBig) > 0 {
		abs = maxMagBig
	}
	return Fixed{neg: neg, mag: uint128.FromBig(abs)}
}

// divRoundHalfUp divides num by den, rounding the quotient half away from
// zero rather than truncating toward zero the way big.Int.Quo does.
func divRoundHalfUp(num, den *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(num, den, new(big.Int))
	twiceRem := new(big.Int).Abs(r)
	twiceRem.Lsh(twiceRem, 1)
	denAbs := new(big.Int).Abs(den)
	if twiceRem.Cmp(denAbs) >= 0 {
		if (num.Sign() >= 0) == (den.Sign() >= 0) {
			q.Add(q, big.NewInt(1))
		} else {
			q.Sub(q, big.NewInt(1))
		}
	}
	return q
}

func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
