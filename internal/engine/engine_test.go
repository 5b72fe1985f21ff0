package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/expediterhq/loadpilot/internal/model"
)

func TestComputeCosts_ZeroMiles(t *testing.T) {
	cb := Default().ComputeCosts(0, 0, 0)
	if cb.TotalExpenses != 0 {
		t.Errorf("TotalExpenses = %.2f, want 0", cb.TotalExpenses)
	}
}

func TestComputeCosts_NegativeMilesClamped(t *testing.T) {
	cb := Default().ComputeCosts(-100, 0, 0)
	if cb.FuelCost != 0 || cb.TotalExpenses != 0 {
		t.Errorf("negative miles should clamp to zero costs, got %+v", cb)
	}
}

func TestComputeCosts_Linearity(t *testing.T) {
	e := Default()
	base := e.ComputeCosts(100, 0, 0)
	for _, k := range []float64{0, 0.5, 2, 7, 13.5} {
		scaled := e.ComputeCosts(100*k, 0, 0)
		want := base.TotalExpenses * k
		if math.Abs(scaled.TotalExpenses-want) > 1e-9 {
			t.Errorf("cost(%v*100) = %.6f, want %.6f", k, scaled.TotalExpenses, want)
		}
	}
}

func TestComputeCosts_TollsAndOthersAdded(t *testing.T) {
	e := Default()
	cb := e.ComputeCosts(1000, 25, 10)
	withoutExtras := e.ComputeCosts(1000, 0, 0)
	if got, want := cb.TotalExpenses, withoutExtras.TotalExpenses+35; math.Abs(got-want) > 1e-9 {
		t.Errorf("TotalExpenses = %.2f, want %.2f", got, want)
	}
}

func TestEstimateTripTime(t *testing.T) {
	tests := []struct {
		miles     float64
		wantStops int
		wantHours float64
	}{
		{0, 0, 0},
		{299, 0, 299.0 / 75},
		{300, 1, 300.0/75 + 0.5},
		{350, 1, 350.0/75 + 0.5},
		{900, 3, 900.0/75 + 1.5},
	}
	for _, tt := range tests {
		got := EstimateTripTime(tt.miles)
		if got.FuelStops != tt.wantStops {
			t.Errorf("miles=%.0f: FuelStops = %d, want %d", tt.miles, got.FuelStops, tt.wantStops)
		}
		if math.Abs(got.DrivingHours-tt.wantHours) > 1e-9 {
			t.Errorf("miles=%.0f: DrivingHours = %.4f, want %.4f", tt.miles, got.DrivingHours, tt.wantHours)
		}
	}
}

func TestTripTimeFormat(t *testing.T) {
	tt := EstimateTripTime(350) // 5.1667h
	if got := tt.Format(); got != "5h 10m" {
		t.Errorf("Format() = %q, want \"5h 10m\"", got)
	}
}

func TestDetectFactors(t *testing.T) {
	e := Default()
	tests := []struct {
		origin, destination string
		wantBad, wantReloc  bool
	}{
		{"Miami, FL", "Atlanta, GA", true, true},
		{"MIAMI", "Orlando, FL", true, false},
		{"North Fort Myers, FL", "Dallas, TX", true, true},
		{"Savannah, GA", "Miami, FL", false, false},
		{"Key West, FL", "Charlotte, NC", true, true},
		{"", "", false, false},
	}
	for _, tt := range tests {
		got := e.DetectFactors(tt.origin, tt.destination)
		if got.AreaIsBad != tt.wantBad {
			t.Errorf("%q: AreaIsBad = %v, want %v", tt.origin, got.AreaIsBad, tt.wantBad)
		}
		if got.RelocatesToGoodArea != tt.wantReloc {
			t.Errorf("%q->%q: RelocatesToGoodArea = %v, want %v",
				tt.origin, tt.destination, got.RelocatesToGoodArea, tt.wantReloc)
		}
	}
}

func TestClassify_ShortHaulAccept(t *testing.T) {
	// 350 mi at $1.20/mi clears the short-haul accept threshold of 1.15.
	d := Default().Classify(1.20, 350, model.SpecialFactors{})
	if d.Verdict != model.VerdictAccept {
		t.Fatalf("Verdict = %s, want ACCEPT", d.Verdict)
	}
	if d.Confidence != model.ConfidenceHigh {
		t.Errorf("Confidence = %s, want High", d.Confidence)
	}
}

func TestClassify_LongHaulReposition(t *testing.T) {
	// 700 mi at $0.72/mi: above relocation (0.65), above evaluate (0.70),
	// score 30 (idle) + 25 (bad area) = 55 -> EVALUATE_REPOSITION, Medium.
	factors := model.SpecialFactors{DaysIdle: 2, AreaIsBad: true}
	d := Default().Classify(0.72, 700, factors)
	if d.Verdict != model.VerdictEvaluateReposition {
		t.Fatalf("Verdict = %s, want EVALUATE_REPOSITION", d.Verdict)
	}
	if d.Score != 55 {
		t.Errorf("Score = %d, want 55", d.Score)
	}
	if d.Confidence != model.ConfidenceMedium {
		t.Errorf("Confidence = %s, want Medium (score < 60)", d.Confidence)
	}
}

func TestClassify_EvaluateWithoutRepositionScore(t *testing.T) {
	// Clears the evaluate threshold with no factors: plain EVALUATE.
	d := Default().Classify(0.78, 500, model.SpecialFactors{})
	if d.Verdict != model.VerdictEvaluate {
		t.Fatalf("Verdict = %s, want EVALUATE", d.Verdict)
	}
	if d.Score != 0 {
		t.Errorf("Score = %d, want 0", d.Score)
	}
}

func TestClassify_Reject(t *testing.T) {
	d := Default().Classify(0.50, 500, model.SpecialFactors{})
	if d.Verdict != model.VerdictReject {
		t.Fatalf("Verdict = %s, want REJECT", d.Verdict)
	}
	if d.Confidence != model.ConfidenceHigh {
		t.Errorf("Confidence = %s, want High", d.Confidence)
	}
}

func TestClassify_BelowEvaluateAboveRelocation(t *testing.T) {
	// Between relocation and evaluate thresholds with no factors: score 0
	// and rate below the evaluate bar, so the load is rejected.
	d := Default().Classify(0.72, 500, model.SpecialFactors{})
	if d.Verdict != model.VerdictReject {
		t.Fatalf("Verdict = %s, want REJECT", d.Verdict)
	}
}

func TestClassify_ScoreCappedAt100(t *testing.T) {
	factors := model.SpecialFactors{
		DaysIdle:            3,
		AreaIsBad:           true,
		RelocatesToGoodArea: true,
		LimitedAlternatives: true,
	}
	d := Default().Classify(0.72, 500, factors)
	if d.Score != 100 {
		t.Errorf("Score = %d, want 100 (capped)", d.Score)
	}
	if d.Confidence != model.ConfidenceMediumHigh {
		t.Errorf("Confidence = %s, want Medium-High", d.Confidence)
	}
}

func TestClassify_MonotoneInRate(t *testing.T) {
	e := Default()
	for _, miles := range []float64{200, 500, 900} {
		prevRank := -1
		for rpm := 0.10; rpm <= 2.0; rpm += 0.01 {
			d := e.Classify(rpm, miles, model.SpecialFactors{})
			rank := d.Verdict.Rank()
			if rank < prevRank {
				t.Fatalf("miles=%.0f rpm=%.2f: verdict rank decreased (%d -> %d)",
					miles, rpm, prevRank, rank)
			}
			prevRank = rank
		}
	}
}

func TestEvaluate_InvalidInput(t *testing.T) {
	e := Default()
	tests := []struct {
		name string
		in   model.LoadInput
	}{
		{"zero miles", model.LoadInput{Rate: 500}},
		{"no rate", model.LoadInput{LoadedMiles: 300}},
		{"nan miles", model.LoadInput{LoadedMiles: math.NaN(), Rate: 500}},
		{"negative rate", model.LoadInput{LoadedMiles: 300, Rate: -1}},
		{"inf rpm", model.LoadInput{LoadedMiles: 300, RatePerMile: math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.Evaluate(tt.in, nil); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestEvaluate_RateAuthoritative(t *testing.T) {
	// Both supplied: the flat rate wins and RPM is recomputed at 2 decimals.
	ev, err := Default().Evaluate(model.LoadInput{
		Origin:      "Tampa, FL",
		Destination: "Atlanta, GA",
		LoadedMiles: 450,
		Rate:        400,
		RatePerMile: 2.00, // ignored
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := ev.Input.RatePerMile; got != 0.89 {
		t.Errorf("RatePerMile = %.4f, want 0.89", got)
	}
}

func TestEvaluate_RateDerivedFromRPM(t *testing.T) {
	ev, err := Default().Evaluate(model.LoadInput{
		Origin:      "Tampa, FL",
		Destination: "Atlanta, GA",
		LoadedMiles: 400,
		RatePerMile: 1.10,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := ev.Input.Rate; got != 440 {
		t.Errorf("Rate = %.2f, want 440", got)
	}
}

func TestEvaluate_OverrideMergesUserContext(t *testing.T) {
	ev, err := Default().Evaluate(model.LoadInput{
		Origin:      "Miami, FL",
		Destination: "Atlanta, GA",
		LoadedMiles: 650,
		DeadheadMiles: 50,
		RatePerMile: 0.72,
	}, &model.SpecialFactors{DaysIdle: 2, LimitedAlternatives: true})
	if err != nil {
		t.Fatal(err)
	}
	f := ev.Factors
	if !f.AreaIsBad || !f.RelocatesToGoodArea {
		t.Errorf("detected flags lost in merge: %+v", f)
	}
	if f.DaysIdle != 2 || !f.LimitedAlternatives {
		t.Errorf("override not applied: %+v", f)
	}
	if ev.Decision.Verdict != model.VerdictEvaluateReposition {
		t.Errorf("Verdict = %s, want EVALUATE_REPOSITION", ev.Decision.Verdict)
	}
}

func TestEvaluate_ProfitArithmetic(t *testing.T) {
	ev, err := Default().Evaluate(model.LoadInput{
		Origin:      "Tampa, FL",
		Destination: "Dallas, TX",
		LoadedMiles: 1000,
		Rate:        1200,
		Tolls:       40,
		OtherCosts:  10,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	wantCharge := 1250.0
	if ev.TotalCharge != wantCharge {
		t.Errorf("TotalCharge = %.2f, want %.2f", ev.TotalCharge, wantCharge)
	}
	wantExpenses := 1000*0.526 + 50
	if math.Abs(ev.Costs.TotalExpenses-wantExpenses) > 1e-9 {
		t.Errorf("TotalExpenses = %.2f, want %.2f", ev.Costs.TotalExpenses, wantExpenses)
	}
	if math.Abs(ev.NetProfit-(wantCharge-wantExpenses)) > 1e-9 {
		t.Errorf("NetProfit = %.2f, want %.2f", ev.NetProfit, wantCharge-wantExpenses)
	}
}
