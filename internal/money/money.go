// Package money normalizes free-form amount strings into integer cents.
//
// Every downstream comparison in internal/reconcile operates on cents
// (int64), never on float64, so that equality checks are exact.
package money

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Cents is a fixed-point amount, always two decimal places of precision.
type Cents int64

// Abs returns the absolute value.
func (c Cents) Abs() Cents {
	if c < 0 {
		return -c
	}
	return c
}

const currencySigils = "$€£R"

// ParseAmount parses a free-form amount string into cents. It never fails:
// an unparseable, blank, or missing value normalizes to zero, matching the
// engine's contract that parse errors are local and non-fatal (spec §4.10).
func ParseAmount(value string) Cents {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = stripSigils(s)
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	if negative {
		d = d.Neg()
	}

	cents := d.Mul(decimal.NewFromInt(100)).Round(0)
	return Cents(cents.IntPart())
}

// stripSigils removes currency symbols, thousands separators, and whitespace.
func stripSigils(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(currencySigils, r) {
			continue
		}
		if r == ',' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatAmount renders cents back to a decimal string with two places,
// used for display and for persistence columns typed as text.
func FormatAmount(c Cents) string {
	neg := c < 0
	abs := int64(c.Abs())
	whole := abs / 100
	frac := abs % 100
	s := strconv.FormatInt(whole, 10) + "." + pad2(frac)
	if neg {
		return "-" + s
	}
	return s
}

func pad2(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
