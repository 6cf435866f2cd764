package chain

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// EtherDecimals is the scale of "ether"-style amounts.
const EtherDecimals = 18

var (
	// ErrInvalidAmount is returned for anything that is not a non-negative decimal.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrPrecisionLoss is returned when an amount has more fractional digits
	// than the target token can represent.
	ErrPrecisionLoss = errors.New("amount exceeds token precision")
)

// ToBaseUnits converts a decimal string such as "12.5" into base units
// (amount × 10^decimals). The conversion is exact; inputs with more than
// decimals fractional digits are rejected with ErrPrecisionLoss.
func ToBaseUnits(amount string, decimals int) (*big.Int, error) {
	s := strings.TrimSpace(amount)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	whole, frac, ok := splitDecimal(s)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}

	trimmed := strings.TrimRight(frac, "0")
	if len(trimmed) > decimals {
		return nil, fmt.Errorf("%w: %q has %d fractional digits, token supports %d",
			ErrPrecisionLoss, amount, len(trimmed), decimals)
	}

	digits := whole + trimmed + strings.Repeat("0", decimals-len(trimmed))
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return new(big.Int), nil
	}
	n, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	return n, nil
}

// FromBaseUnits renders base units as an exact decimal string with trailing
// fractional zeros removed: 1500000000000000000 @18 → "1.5".
func FromBaseUnits(raw *big.Int, decimals int) string {
	if raw == nil {
		return "0"
	}
	neg := raw.Sign() < 0
	s := new(big.Int).Abs(raw).String()
	if decimals > 0 {
		if len(s) <= decimals {
			s = strings.Repeat("0", decimals-len(s)+1) + s
		}
		whole, frac := s[:len(s)-decimals], strings.TrimRight(s[len(s)-decimals:], "0")
		s = whole
		if frac != "" {
			s += "." + frac
		}
	}
	if neg {
		s = "-" + s
	}
	return s
}

// FormatUnits renders base units rounded to places fractional digits, halves
// rounded away from zero: 1234560000000000000 @18,4 → "1.2346".
func FormatUnits(raw *big.Int, decimals, places int) string {
	if raw == nil {
		return "0"
	}
	r := new(big.Rat).SetFrac(raw, pow10(decimals))
	return r.FloatString(places)
}

// WeiToETH converts a wei amount to an exact ether decimal string.
func WeiToETH(wei *big.Int) string { return FromBaseUnits(wei, EtherDecimals) }

// Quote divides a decimal amount by a decimal price and renders the result
// with up to places fractional digits, trailing zeros removed.
func Quote(amount, price string, places int) (string, error) {
	a, ok := parseDecimal(amount)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	p, ok := parseDecimal(price)
	if !ok || p.Sign() == 0 {
		return "", fmt.Errorf("%w: price %q", ErrInvalidAmount, price)
	}
	out := new(big.Rat).Quo(a, p).FloatString(places)
	if strings.Contains(out, ".") {
		out = strings.TrimRight(strings.TrimRight(out, "0"), ".")
	}
	return out, nil
}

// splitDecimal splits a plain non-negative decimal ("12", "12.5", ".5",
// "12.") into its digit runs. Signs, exponents and fractions are rejected.
func splitDecimal(s string) (whole, frac string, ok bool) {
	whole, frac, _ = strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return "", "", false
	}
	if !digitsOnly(whole) || !digitsOnly(frac) {
		return "", "", false
	}
	return whole, frac, true
}

func parseDecimal(s string) (*big.Rat, bool) {
	whole, frac, ok := splitDecimal(strings.TrimSpace(s))
	if !ok {
		return nil, false
	}
	if whole == "" {
		whole = "0"
	}
	if frac == "" {
		frac = "0"
	}
	return new(big.Rat).SetString(whole + "." + frac)
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
