// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatMoney formats a dollar amount with thousands separators and up to
// three fraction digits, trailing zeros dropped: 12500 -> "$12,500",
// 1234.5 -> "$1,234.5".
func FormatMoney(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	neg := v < 0
	if neg {
		v = -v
	}

	s := strconv.FormatFloat(math.Round(v*1000)/1000, 'f', 3, 64)
	whole, frac, _ := strings.Cut(s, ".")
	frac = strings.TrimRight(frac, "0")

	n, _ := strconv.ParseInt(whole, 10, 64)
	out := "$" + FormatNumber(n)
	if frac != "" {
		out += "." + frac
	}
	if neg && out != "$0" {
		return "-" + out
	}
	return out
}

// FormatMoneyDelta formats a change in money with an explicit sign.
func FormatMoneyDelta(d float64) string {
	if d >= 0 {
		return "+" + FormatMoney(d)
	}
	return "-" + FormatMoney(-d)
}

// FormatIntDelta formats a change in a count with an explicit sign.
func FormatIntDelta(d int) string {
	if d >= 0 {
		return "+" + strconv.Itoa(d)
	}
	return strconv.Itoa(d)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a whole percentage.
func FormatPercent(p int) string {
	return strconv.Itoa(p) + "%"
}

// FormatRate formats a 0-100 float with one decimal.
func FormatRate(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// FormatDaysLeft describes a deadline relative to today.
func FormatDaysLeft(days int) string {
	switch {
	case days == 0:
		return "due today"
	case days == 1:
		return "1 day left"
	case days > 1:
		return fmt.Sprintf("%d days left", days)
	case days == -1:
		return "1 day overdue"
	default:
		return fmt.Sprintf("%d days overdue", -days)
	}
}

// FormatTimestamp renders a snapshot time in local time.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// Truncate shortens s to max runes, ending with an ellipsis.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}
