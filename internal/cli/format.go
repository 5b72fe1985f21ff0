// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatCurrency formats a USD amount with comma separators.
// e.g., 1234.5 -> "$1,234.50", -89.9 -> "-$89.90"
func FormatCurrency(amount float64) string {
	if amount < 0 {
		return "-" + FormatCurrency(-amount)
	}
	whole := int64(amount)
	cents := int64(math.Round((amount - float64(whole)) * 100))
	if cents == 100 {
		whole++
		cents = 0
	}
	return fmt.Sprintf("$%s.%02d", FormatNumber(whole), cents)
}

// FormatMiles formats a mileage figure, dropping a trailing ".0".
// e.g., 820 -> "820 mi", 820.5 -> "820.5 mi"
func FormatMiles(miles float64) string {
	if miles == math.Trunc(miles) {
		return fmt.Sprintf("%s mi", FormatNumber(int64(miles)))
	}
	return fmt.Sprintf("%.1f mi", miles)
}

// FormatRatePerMile formats a per-mile rate.
// e.g., 1.2 -> "$1.20/mi"
func FormatRatePerMile(rpm float64) string {
	return fmt.Sprintf("$%.2f/mi", rpm)
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

// FormatPercent formats an already-scaled percentage value.
// e.g., 53.3 -> "53.3%"
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatDuration formats seconds into a human-readable duration.
// e.g., 3725 -> "1h 2m", 125 -> "2m", 45 -> "45s"
func FormatDuration(secs int64) string {
	if secs <= 0 {
		return "0s"
	}

	hours := secs / 3600
	mins := (secs % 3600) / 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	if mins > 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%ds", secs)
}
