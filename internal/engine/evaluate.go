package engine

import (
	"errors"
	"math"

	"github.com/expediterhq/loadpilot/internal/model"
)

// ErrInvalidInput marks a load that cannot be economically evaluated:
// non-positive or non-finite mileage, or no usable rate. Distinct from a
// REJECT verdict, which is reserved for loads that were actually scored.
var ErrInvalidInput = errors.New("engine: invalid load input")

// Evaluate validates and scores a candidate load. The optional override
// supplies the user-asserted context the strings cannot provide (days idle,
// limited alternatives) and may force the area flags on.
//
// When both a flat rate and a rate per mile are given, the flat rate is
// authoritative and the rate per mile is recomputed from it.
func (e *Engine) Evaluate(in model.LoadInput, override *model.SpecialFactors) (model.Evaluation, error) {
	totalMiles := in.TotalMiles()
	if !isFinite(totalMiles) || totalMiles <= 0 {
		return model.Evaluation{}, ErrInvalidInput
	}
	if !isFinite(in.Rate) || !isFinite(in.RatePerMile) || in.Rate < 0 || in.RatePerMile < 0 {
		return model.Evaluation{}, ErrInvalidInput
	}
	if in.Rate == 0 && in.RatePerMile == 0 {
		return model.Evaluation{}, ErrInvalidInput
	}

	// Reconcile rate and RPM: flat rate wins when both are present.
	switch {
	case in.Rate == 0:
		in.Rate = math.Round(in.RatePerMile * in.LoadedMiles)
	case in.LoadedMiles > 0:
		in.RatePerMile = round2(in.Rate / in.LoadedMiles)
	default:
		// All-deadhead reposition: fall back to total miles.
		in.RatePerMile = round2(in.Rate / totalMiles)
	}

	factors := e.DetectFactors(in.Origin, in.Destination)
	if override != nil {
		factors.DaysIdle = override.DaysIdle
		factors.LimitedAlternatives = override.LimitedAlternatives
		if override.AreaIsBad {
			factors.AreaIsBad = true
		}
		if override.RelocatesToGoodArea {
			factors.RelocatesToGoodArea = true
		}
	}

	costs := e.ComputeCosts(totalMiles, in.Tolls, in.OtherCosts)

	totalCharge := in.Rate + in.Tolls + in.OtherCosts
	netProfit := totalCharge - costs.TotalExpenses

	ev := model.Evaluation{
		Input:       in,
		Costs:       costs,
		Trip:        EstimateTripTime(totalMiles),
		Factors:     factors,
		TotalCharge: totalCharge,
		NetProfit:   netProfit,
		ProfitMile:  netProfit / totalMiles,
		ActualRPM:   totalCharge / totalMiles,
		Decision:    e.Classify(in.RatePerMile, totalMiles, factors),
	}
	if totalCharge > 0 {
		ev.Margin = netProfit / totalCharge * 100
	}

	return ev, nil
}
