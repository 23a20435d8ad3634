// Package numfmt parses and formats numbers written in Indonesian notation
// (dot thousands separator, comma decimal separator).
package numfmt

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Parse converts user-typed text into a number. It accepts "1.500.000,50",
// "1500000,5", "75.000" and plain "12.5". Anything it cannot read yields 0.
func Parse(text string) float64 {
	normalized, ok := normalize(text)
	if !ok {
		return 0
	}
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

// NonNegative is Parse clamped to zero.
func NonNegative(text string) float64 {
	v := Parse(text)
	if v < 0 {
		return 0
	}
	return v
}

func normalize(text string) (string, bool) {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "Rp"), "rp")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return "", false
	}
	// No exponent notation.
	if strings.ContainsAny(s, "eE") {
		return "", false
	}

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	if strings.Contains(s, ",") {
		// Comma present: every dot is a thousands separator.
		intPart, fracPart, _ := strings.Cut(s, ",")
		if strings.Contains(fracPart, ",") {
			return "", false
		}
		s = strings.ReplaceAll(intPart, ".", "")
		if fracPart != "" {
			s += "." + fracPart
		}
	} else if n := strings.Count(s, "."); n > 1 {
		s = strings.ReplaceAll(s, ".", "")
	} else if n == 1 {
		intPart, fracPart, _ := strings.Cut(s, ".")
		if len(fracPart) == 3 && intPart != "" && intPart != "0" {
			s = intPart + fracPart
		}
	}

	if s == "" || s == "." {
		return "", false
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	if negative {
		s = "-" + s
	}
	return s, true
}

// Round2 rounds half away from zero to two decimals. Use it only when
// reporting; internal sums stay at full precision.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Rupiah renders an amount as "Rp 1.234.567,89".
func Rupiah(v float64) string {
	return "Rp " + Grouped(v)
}

// Grouped renders v with Indonesian separators and two decimals.
func Grouped(v float64) string {
	return humanize.FormatFloat("#.###,##", Round2(v))
}
