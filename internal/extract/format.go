package extract

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountNotAvailable is substituted when a raw amount has no recognizable
// numeric form.
const AmountNotAvailable = "not available"

// ParseRawAmount converts an on-chain amount string to a human-scaled
// decimal. A value containing a decimal separator is treated as already
// human-scaled; otherwise it is an integer scaled by 10^decimals. Arbitrary
// precision throughout: large supplies must never pass through a float.
func ParseRawAmount(raw string, decimals int) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, false
	}

	if strings.ContainsAny(raw, ".,") {
		d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}

	n, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return decimal.Zero, false
	}
	return decimal.NewFromBigInt(n, -int32(decimals)), true
}

// FormatTokenAmount renders a raw token amount into the display buckets:
// plain two-decimal value below a thousand, then K, M and B suffixes.
func FormatTokenAmount(raw string, decimals int) string {
	d, ok := ParseRawAmount(raw, decimals)
	if !ok {
		return AmountNotAvailable
	}
	return FormatBucketed(d)
}

// FormatBucketed renders a human-scaled amount with K/M/B thresholds.
func FormatBucketed(d decimal.Decimal) string {
	abs := d.Abs()
	switch {
	case abs.GreaterThanOrEqual(decimal.NewFromInt(1_000_000_000)):
		return abs.Div(decimal.NewFromInt(1_000_000_000)).StringFixed(2) + "B"
	case abs.GreaterThanOrEqual(decimal.NewFromInt(1_000_000)):
		return abs.Div(decimal.NewFromInt(1_000_000)).StringFixed(2) + "M"
	case abs.GreaterThanOrEqual(decimal.NewFromInt(1_000)):
		return abs.Div(decimal.NewFromInt(1_000)).StringFixed(2) + "K"
	default:
		return abs.StringFixed(2)
	}
}

// FormatSolAmount renders a SOL value: three decimals at or above one SOL,
// six below so dust stays readable.
func FormatSolAmount(d decimal.Decimal) string {
	abs := d.Abs()
	if abs.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return abs.StringFixed(3)
	}
	return abs.StringFixed(6)
}

// LamportsToSol converts a native base-unit amount.
func LamportsToSol(lamports int64) decimal.Decimal {
	return decimal.New(lamports, -9)
}

// FormatSolText renders a SOL amount with its unit for event hand-off.
func FormatSolText(d decimal.Decimal) string {
	return fmt.Sprintf("%s SOL", FormatSolAmount(d))
}
