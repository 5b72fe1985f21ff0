// Package model defines domain types for load evaluation and financial records.
package model

import "fmt"

// Verdict is the outcome of classifying a candidate load.
type Verdict string

const (
	VerdictAccept             Verdict = "ACCEPT"
	VerdictEvaluate           Verdict = "EVALUATE"
	VerdictEvaluateReposition Verdict = "EVALUATE_REPOSITION"
	VerdictReject             Verdict = "REJECT"
)

// Rank orders verdicts from worst to best for monotonicity comparisons.
func (v Verdict) Rank() int {
	switch v {
	case VerdictReject:
		return 0
	case VerdictEvaluate:
		return 1
	case VerdictEvaluateReposition:
		return 2
	case VerdictAccept:
		return 3
	}
	return -1
}

// Confidence expresses how firm a decision is.
type Confidence string

const (
	ConfidenceLow        Confidence = "Low"
	ConfidenceMedium     Confidence = "Medium"
	ConfidenceMediumHigh Confidence = "Medium-High"
	ConfidenceHigh       Confidence = "High"
)

// LoadInput is a candidate trip under evaluation. Exactly one of Rate or
// RatePerMile is the source of truth; when both are supplied Rate wins and
// RatePerMile is recomputed from it.
type LoadInput struct {
	Origin        string  `json:"origin"`
	Destination   string  `json:"destination"`
	LoadedMiles   float64 `json:"loaded_miles"`
	DeadheadMiles float64 `json:"deadhead_miles"`
	Rate          float64 `json:"rate"`
	RatePerMile   float64 `json:"rate_per_mile"`
	Tolls         float64 `json:"tolls"`
	OtherCosts    float64 `json:"other_costs"`
}

// TotalMiles is loaded plus deadhead distance.
func (l LoadInput) TotalMiles() float64 {
	return l.LoadedMiles + l.DeadheadMiles
}

// CostBreakdown holds the per-trip operating cost split. Immutable once
// computed for a given mileage.
type CostBreakdown struct {
	FuelCost        float64 `json:"fuel_cost"`
	MaintenanceCost float64 `json:"maintenance_cost"` // includes tire reserve
	FoodCost        float64 `json:"food_cost"`
	FixedCost       float64 `json:"fixed_cost"`
	Tolls           float64 `json:"tolls"`
	OtherCosts      float64 `json:"other_costs"`
	TotalExpenses   float64 `json:"total_expenses"`
}

// TripTime is the estimated duration of a trip.
type TripTime struct {
	FuelStops    int     `json:"fuel_stops"`
	DrivingHours float64 `json:"driving_hours"`
}

// Format renders the duration as "XhYm".
func (t TripTime) Format() string {
	hours := int(t.DrivingHours)
	mins := int((t.DrivingHours - float64(hours)) * 60)
	return fmt.Sprintf("%dh %dm", hours, mins)
}

// SpecialFactors are the market-context signals that soften a borderline
// rate. AreaIsBad and RelocatesToGoodArea derive from the origin and
// destination strings; DaysIdle and LimitedAlternatives are user-asserted.
type SpecialFactors struct {
	AreaIsBad           bool `json:"area_is_bad"`
	RelocatesToGoodArea bool `json:"relocates_to_good_area"`
	DaysIdle            int  `json:"days_idle"`
	LimitedAlternatives bool `json:"limited_alternatives"`
}

// Decision is the classifier output for one evaluation. Score is only
// meaningful for the EVALUATE verdicts.
type Decision struct {
	Verdict    Verdict    `json:"verdict"`
	Confidence Confidence `json:"confidence"`
	Score      int        `json:"score"`
	Reason     string     `json:"reason"`
}

// Evaluation bundles everything computed for one candidate load.
type Evaluation struct {
	Input       LoadInput      `json:"input"`
	Costs       CostBreakdown  `json:"costs"`
	Trip        TripTime       `json:"trip"`
	Factors     SpecialFactors `json:"factors"`
	TotalCharge float64        `json:"total_charge"`
	NetProfit   float64        `json:"net_profit"`
	Margin      float64        `json:"margin"`
	ProfitMile  float64        `json:"profit_per_mile"`
	ActualRPM   float64        `json:"actual_rpm"`
	Decision    Decision       `json:"decision"`
}
