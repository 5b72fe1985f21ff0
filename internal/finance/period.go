package finance

import "github.com/expediterhq/loadpilot/internal/model"

// CanonicalPeriod validates a period key: "all", a 4-digit year, or a
// zero-padded "YYYY-MM". Any other shape degrades to "all".
func CanonicalPeriod(key string) string {
	switch {
	case key == "all":
		return key
	case len(key) == 4 && allDigits(key):
		return key
	case len(key) == 7 && key[4] == '-' && allDigits(key[:4]) && allDigits(key[5:]):
		return key
	default:
		return "all"
	}
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// FilterLoads returns the loads whose date falls in the period. Filtering
// is a prefix match against the normalized date string.
func FilterLoads(records []model.LoadRecord, period string) []model.LoadRecord {
	if period == "all" {
		return records
	}
	result := make([]model.LoadRecord, 0, len(records))
	for _, r := range records {
		if hasPeriodPrefix(r.Date, period) {
			result = append(result, r)
		}
	}
	return result
}

// FilterExpenses returns the expenses whose date falls in the period.
func FilterExpenses(records []model.ExpenseRecord, period string) []model.ExpenseRecord {
	if period == "all" {
		return records
	}
	result := make([]model.ExpenseRecord, 0, len(records))
	for _, r := range records {
		if hasPeriodPrefix(r.Date, period) {
			result = append(result, r)
		}
	}
	return result
}

func hasPeriodPrefix(date, period string) bool {
	return len(date) >= len(period) && date[:len(period)] == period
}
