package cli

import "testing"

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{1.5, "$1.50"},
		{1234.5, "$1,234.50"},
		{999.999, "$1,000.00"},
		{-89.9, "-$89.90"},
		{1250000, "$1,250,000.00"},
	}
	for _, tt := range tests {
		if got := FormatCurrency(tt.in); got != tt.want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatMiles(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{820, "820 mi"},
		{820.5, "820.5 mi"},
		{1420, "1,420 mi"},
		{0, "0 mi"},
	}
	for _, tt := range tests {
		if got := FormatMiles(tt.in); got != tt.want {
			t.Errorf("FormatMiles(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4500, "-4,500"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(53.28); got != "53.3%" {
		t.Errorf("FormatPercent(53.28) = %q, want 53.3%%", got)
	}
}

func TestFormatRatePerMile(t *testing.T) {
	if got := FormatRatePerMile(1.2); got != "$1.20/mi" {
		t.Errorf("FormatRatePerMile(1.2) = %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0s"},
		{45, "45s"},
		{125, "2m"},
		{3725, "1h 2m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
