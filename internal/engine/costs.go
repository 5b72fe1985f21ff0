// Package engine implements the load economics and decision core: the cost
// model, trip time estimator, special factor detector, and the tiered
// decision classifier.
package engine

import (
	"math"

	"github.com/expediterhq/loadpilot/internal/config"
	"github.com/expediterhq/loadpilot/internal/model"
)

const (
	fuelStopInterval = 300 // miles between fuel stops
	averageSpeedMPH  = 75
	fuelStopHours    = 0.5
)

// Engine evaluates candidate loads against the operator's cost structure.
type Engine struct {
	rates      config.CostRates
	thresholds config.Thresholds
	markets    config.Markets
}

// New returns an Engine using the given rates, thresholds, and market lists.
func New(rates config.CostRates, thresholds config.Thresholds, markets config.Markets) *Engine {
	return &Engine{rates: rates, thresholds: thresholds, markets: markets}
}

// Default returns an Engine with the built-in configuration.
func Default() *Engine {
	return New(config.DefaultCostRates, config.DefaultThresholds, config.DefaultMarkets)
}

// ComputeCosts derives the operating cost breakdown for a trip. Total over
// its domain: negative or non-finite mileage is clamped to zero so a
// partially entered form never errors. Linear in totalMiles.
func (e *Engine) ComputeCosts(totalMiles, tolls, otherCosts float64) model.CostBreakdown {
	if totalMiles < 0 || math.IsNaN(totalMiles) || math.IsInf(totalMiles, 0) {
		totalMiles = 0
	}

	cb := model.CostBreakdown{
		FuelCost:        totalMiles * e.rates.Fuel,
		MaintenanceCost: totalMiles * (e.rates.Maintenance + e.rates.TireReserve),
		FoodCost:        totalMiles * e.rates.Food,
		FixedCost:       totalMiles * e.rates.Fixed,
		Tolls:           tolls,
		OtherCosts:      otherCosts,
	}
	cb.TotalExpenses = cb.FuelCost + cb.MaintenanceCost + cb.FoodCost + cb.FixedCost + tolls + otherCosts
	return cb
}

// EstimateTripTime estimates driving time for a trip: one fuel stop every
// 300 miles at half an hour each, 75 mph highway average otherwise.
func EstimateTripTime(totalMiles float64) model.TripTime {
	if totalMiles < 0 || math.IsNaN(totalMiles) || math.IsInf(totalMiles, 0) {
		totalMiles = 0
	}
	stops := int(math.Floor(totalMiles / fuelStopInterval))
	return model.TripTime{
		FuelStops:    stops,
		DrivingHours: totalMiles/averageSpeedMPH + float64(stops)*fuelStopHours,
	}
}

// round2 rounds to 2 decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
