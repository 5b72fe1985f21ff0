package engine

import (
	"strings"

	"github.com/expediterhq/loadpilot/internal/model"
)

// DetectFactors derives market-context signals from the origin and
// destination strings. Only the string-derived flags are set here; DaysIdle
// and LimitedAlternatives must come from the caller.
func (e *Engine) DetectFactors(origin, destination string) model.SpecialFactors {
	badOrigin := matchesMarket(origin, e.markets.Weak)
	return model.SpecialFactors{
		AreaIsBad:           badOrigin,
		RelocatesToGoodArea: badOrigin && matchesMarket(destination, e.markets.Strong),
	}
}

// matchesMarket reports whether the place string contains any of the market
// tokens or their leading word, case-insensitively. "Miami, FL" matches
// "miami"; "North Fort Myers" matches "fort myers" via "fort".
func matchesMarket(place string, tokens []string) bool {
	p := strings.ToLower(place)
	for _, tok := range tokens {
		if strings.Contains(p, tok) {
			return true
		}
		if first, _, ok := strings.Cut(tok, " "); ok && strings.Contains(p, first) {
			return true
		}
	}
	return false
}
