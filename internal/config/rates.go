package config

// CostRates holds the operator's per-mile operating costs in $/mi, plus
// the fixed daily overhead used to price idle days.
type CostRates struct {
	Fuel        float64 `toml:"fuel"`
	Maintenance float64 `toml:"maintenance"` // excludes tires
	TireReserve float64 `toml:"tire_reserve"`
	Food        float64 `toml:"food"`
	Fixed       float64 `toml:"fixed"` // insurance, payments, tolls baseline

	IdleDayFixed float64 `toml:"idle_day_fixed"` // $/day of sitting

	// Fallback rates for legacy records missing cost fields.
	LegacyOperating float64 `toml:"legacy_operating"`
	LegacyFuel      float64 `toml:"legacy_fuel"`
}

// PerMileTotal is the all-in operating cost per mile.
func (r CostRates) PerMileTotal() float64 {
	return r.Fuel + r.Maintenance + r.TireReserve + r.Food + r.Fixed
}

// DefaultCostRates are the operator's confirmed real costs.
var DefaultCostRates = CostRates{
	Fuel:        0.194,
	Maintenance: 0.010,
	TireReserve: 0.014, // $700 per 50,000 miles
	Food:        0.021,
	Fixed:       0.287,

	IdleDayFixed: 95,

	LegacyOperating: 0.33,
	LegacyFuel:      0.18,
}

// TierThresholds are the rate-per-mile cutoffs for one mileage tier,
// ordered Accept > Evaluate > Relocation.
type TierThresholds struct {
	Accept     float64 `toml:"accept"`
	Evaluate   float64 `toml:"evaluate"`
	Relocation float64 `toml:"relocation"`
}

// Thresholds holds the cutoffs for the three mileage tiers.
type Thresholds struct {
	Short  TierThresholds `toml:"short"`  // <= 400 mi
	Medium TierThresholds `toml:"medium"` // 401-600 mi
	Long   TierThresholds `toml:"long"`   // > 600 mi
}

// ForMiles returns the tier cutoffs applying to a trip of the given length.
func (t Thresholds) ForMiles(miles float64) TierThresholds {
	switch {
	case miles <= 400:
		return t.Short
	case miles <= 600:
		return t.Medium
	default:
		return t.Long
	}
}

// MileageCategory names the tier a trip length falls into.
func MileageCategory(miles float64) string {
	switch {
	case miles <= 400:
		return "short"
	case miles <= 600:
		return "medium"
	default:
		return "long"
	}
}

// DefaultThresholds match current market conditions: short hauls must pay
// better, long hauls get more flexibility.
var DefaultThresholds = Thresholds{
	Short:  TierThresholds{Accept: 1.15, Evaluate: 1.00, Relocation: 0.90},
	Medium: TierThresholds{Accept: 0.85, Evaluate: 0.75, Relocation: 0.70},
	Long:   TierThresholds{Accept: 0.80, Evaluate: 0.70, Relocation: 0.65},
}

// Markets holds the weak and strong freight market token lists matched
// against origin and destination strings.
type Markets struct {
	Weak   []string `toml:"weak"`
	Strong []string `toml:"strong"`
}

// DefaultMarkets reflect the operator's lanes: South Florida is a dead end,
// Georgia/Texas/Carolinas reload well.
var DefaultMarkets = Markets{
	Weak:   []string{"miami", "south florida", "key west", "fort myers"},
	Strong: []string{"georgia", "atlanta", "texas", "dallas", "houston", "charlotte"},
}
