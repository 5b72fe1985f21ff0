package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/expediterhq/loadpilot/internal/config"
	"github.com/expediterhq/loadpilot/internal/model"
)

// Factor score weights. Additive, capped at 100.
const (
	scoreDaysIdle    = 30
	scoreBadArea     = 25
	scoreRelocation  = 30
	scoreLimitedAlts = 15
	scoreReposition  = 40 // at or above this the verdict upgrades to reposition
	scoreHighConf    = 60 // at or above this confidence is Medium-High
	maxScore         = 100
)

// Classify runs the tiered decision tree over a rate per mile. The rules are
// evaluated in fixed order and each is terminal:
//
//  1. rpm >= accept threshold        -> ACCEPT
//  2. rpm >= relocation threshold    -> score the special factors; EVALUATE
//     or EVALUATE_REPOSITION when the rate or the score clears the bar
//  3. otherwise                      -> REJECT
func (e *Engine) Classify(ratePerMile, totalMiles float64, factors model.SpecialFactors) model.Decision {
	tier := e.thresholds.ForMiles(totalMiles)

	if ratePerMile >= tier.Accept {
		return model.Decision{
			Verdict:    model.VerdictAccept,
			Confidence: model.ConfidenceHigh,
			Reason:     e.reason("accept", ratePerMile, totalMiles, nil),
		}
	}

	if ratePerMile >= tier.Relocation {
		score, reasons := e.scoreFactors(factors)

		if ratePerMile >= tier.Evaluate || score >= scoreReposition {
			verdict := model.VerdictEvaluate
			if score >= scoreReposition {
				verdict = model.VerdictEvaluateReposition
			}
			confidence := model.ConfidenceMedium
			if score >= scoreHighConf {
				confidence = model.ConfidenceMediumHigh
			}
			return model.Decision{
				Verdict:    verdict,
				Confidence: confidence,
				Score:      score,
				Reason:     e.reason("borderline", ratePerMile, totalMiles, reasons),
			}
		}
	}

	return model.Decision{
		Verdict:    model.VerdictReject,
		Confidence: model.ConfidenceHigh,
		Reason:     e.reason("reject", ratePerMile, totalMiles, nil),
	}
}

// scoreFactors computes the additive factor score and the matching
// descriptions in scoring order.
func (e *Engine) scoreFactors(f model.SpecialFactors) (int, []string) {
	score := 0
	var reasons []string

	if f.DaysIdle >= 1 {
		score += scoreDaysIdle
		reasons = append(reasons, fmt.Sprintf("%d day(s) idle = $%.0f in fixed overhead",
			f.DaysIdle, float64(f.DaysIdle)*e.rates.IdleDayFixed))
	}
	if f.AreaIsBad {
		score += scoreBadArea
		reasons = append(reasons, "origin is a weak market")
	}
	if f.RelocatesToGoodArea {
		score += scoreRelocation
		reasons = append(reasons, "relocates toward a strong market")
	}
	if f.LimitedAlternatives {
		score += scoreLimitedAlts
		reasons = append(reasons, "few alternatives available")
	}

	if score > maxScore {
		score = maxScore
	}
	return score, reasons
}

// reason builds the human-readable justification: mileage category,
// estimated profit at the operator's total cost per mile, and any
// contributing factors for borderline calls.
func (e *Engine) reason(level string, rpm, miles float64, factorReasons []string) string {
	category := config.MileageCategory(miles)
	profit := (rpm - e.rates.PerMileTotal()) * miles

	var b strings.Builder
	fmt.Fprintf(&b, "%s haul (%.0f mi): ", capitalize(category), miles)

	switch level {
	case "accept":
		fmt.Fprintf(&b, "strong rate $%.2f/mi. Estimated profit: $%.0f", rpm, profit)
	case "borderline":
		fmt.Fprintf(&b, "rate $%.2f/mi is borderline. Estimated profit: $%.0f", rpm, profit)
		if len(factorReasons) > 0 {
			fmt.Fprintf(&b, ". Factors in favor: %s", strings.Join(factorReasons, ", "))
		}
	default:
		fmt.Fprintf(&b, "rate $%.2f/mi is too low. Estimated profit: $%.0f", rpm, profit)
		if profit < 50 {
			b.WriteString(". Look for a better alternative.")
		}
	}

	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
