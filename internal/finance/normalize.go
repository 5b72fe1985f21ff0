// Package finance implements the financial aggregation core: record
// normalization, the single-flight TTL cache over the remote store, period
// filtering, and KPI aggregation.
package finance

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/expediterhq/loadpilot/internal/config"
	"github.com/expediterhq/loadpilot/internal/model"
	"github.com/expediterhq/loadpilot/internal/store"
)

// ErrMalformedRecord marks a fetched document with no usable identity.
// Such records are skipped; they never abort a batch.
var ErrMalformedRecord = errors.New("finance: malformed record")

// NormalizeLoad maps a raw store document onto a LoadRecord. Legacy field
// names are honored, string/number ambiguity is resolved, and missing cost
// fields are backfilled from the configured legacy rates so every numeric
// field on the output is populated.
func NormalizeLoad(doc store.Document, rates config.CostRates, now time.Time) (model.LoadRecord, error) {
	id := doc.ID()
	if id == "" {
		return model.LoadRecord{}, ErrMalformedRecord
	}

	loaded := num(doc, "loadedMiles", "loaded")
	deadhead := num(doc, "deadheadMiles", "deadhead")
	totalMiles := num(doc, "totalMiles", "miles")
	if totalMiles == 0 {
		totalMiles = loaded + deadhead
	}

	rec := model.LoadRecord{
		ID:          id,
		Date:        normalizeDate(doc, now),
		LoadNumber:  str(doc, "loadNumber"),
		CompanyName: str(doc, "companyName"),
		Origin:      strOr(doc, "-", "origin"),
		Destination: strOr(doc, "-", "destination"),

		TotalMiles:    totalMiles,
		LoadedMiles:   loaded,
		DeadheadMiles: deadhead,
		TotalCharge:   num(doc, "totalCharge", "rate", "totalCost"),
		NetProfit:     num(doc, "netProfit", "profit"),
		RatePerMile:   num(doc, "rpm", "ratePerMile"),
		OperatingCost: numOr(doc, totalMiles*rates.LegacyOperating, "operatingCost", "opCost"),
		FuelCost:      numOr(doc, totalMiles*rates.LegacyFuel, "fuelCost"),
		Tolls:         num(doc, "tolls"),
		OtherCosts:    num(doc, "otherCosts"),

		PaymentStatus:       str(doc, "paymentStatus"),
		PaymentDate:         str(doc, "paymentDate"),
		ExpectedPaymentDate: str(doc, "expectedPaymentDate"),
		ActualPaymentDate:   str(doc, "actualPaymentDate"),
	}

	if rec.PaymentStatus == "" {
		rec.PaymentStatus = "pending"
		rec.ExpectedPaymentDate = expectedPaymentDate(rec.Date)
	}

	return rec, nil
}

// NormalizeExpense maps a raw store document onto an ExpenseRecord.
func NormalizeExpense(doc store.Document, now time.Time) (model.ExpenseRecord, error) {
	id := doc.ID()
	if id == "" {
		return model.ExpenseRecord{}, ErrMalformedRecord
	}

	typ := str(doc, "type")
	rec := model.ExpenseRecord{
		ID:          id,
		Date:        normalizeDate(doc, now),
		Amount:      num(doc, "amount"),
		Type:        typ,
		Category:    strOr(doc, typ, "category"),
		Description: str(doc, "description"),
		Deductible:  boolean(doc, "deductible"),
	}
	return rec, nil
}

// normalizeDate resolves a record's date to local YYYY-MM-DD: the date field
// if present, else the creation timestamp, else today.
func normalizeDate(doc store.Document, now time.Time) string {
	if d := str(doc, "date"); d != "" {
		if len(d) >= 10 {
			return d[:10]
		}
		return d
	}
	if created := str(doc, "createdAt"); created != "" {
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			return t.Local().Format("2006-01-02")
		}
		if len(created) >= 10 {
			if t, err := time.Parse("2006-01-02", created[:10]); err == nil {
				return t.Format("2006-01-02")
			}
		}
	}
	return now.Local().Format("2006-01-02")
}

// expectedPaymentDate estimates the payout date for a record missing payment
// fields: the Friday after next, counted from the trip date (Sundays roll to
// Monday first).
func expectedPaymentDate(date string) string {
	t, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return ""
	}
	if t.Weekday() == time.Sunday {
		t = t.AddDate(0, 0, 1)
	}
	daysUntil := (int(time.Friday)-int(t.Weekday())+7)%7 + 7
	return t.AddDate(0, 0, daysUntil).Format("2006-01-02")
}

// num returns the first present key decoded as a float64. Handles JSON
// numbers and numeric strings; anything else counts as absent.
func num(doc store.Document, keys ...string) float64 {
	return numOr(doc, 0, keys...)
}

func numOr(doc store.Document, fallback float64, keys ...string) float64 {
	for _, k := range keys {
		v, ok := doc[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case int64:
			return float64(n)
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f
			}
		case string:
			s := strings.TrimSpace(strings.TrimPrefix(n, "$"))
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f
			}
		}
	}
	return fallback
}

func str(doc store.Document, keys ...string) string {
	return strOr(doc, "", keys...)
}

func strOr(doc store.Document, fallback string, keys ...string) string {
	for _, k := range keys {
		if s, ok := doc[k].(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

func boolean(doc store.Document, key string) bool {
	switch v := doc[key].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "yes" || v == "1"
	}
	return false
}
