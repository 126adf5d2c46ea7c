package completion

import (
	"github.com/aimd54/academy-progression/internal/models"
	"github.com/aimd54/academy-progression/internal/service/attributes"
	"github.com/aimd54/academy-progression/internal/service/catalog"
)

// share is the fraction of the specific boost an attribute receives.
type share struct {
	attr     models.Attribute
	fraction float64
}

// categoryEffects maps normalized categories to attribute shares.
// Categories not listed only raise overall through the base boost.
var categoryEffects = map[string][]share{
	"passing":     {{models.AttrPassing, 1}, {models.AttrFirstTouch, 0.5}},
	"shooting":    {{models.AttrShooting, 1}},
	"dribbling":   {{models.AttrDribbling, 1}, {models.AttrFirstTouch, 0.3}},
	"fitness":     {{models.AttrPace, 1}},
	"juggles":     {{models.AttrJuggles, 1}, {models.AttrFirstTouch, 0.3}},
	"first_touch": {{models.AttrFirstTouch, 1}, {models.AttrDribbling, 0.3}},
	"tactical": {
		{models.AttrPace, 0.5},
		{models.AttrShooting, 0.5},
		{models.AttrPassing, 0.5},
		{models.AttrDribbling, 0.5},
		{models.AttrJuggles, 0.5},
		{models.AttrFirstTouch, 0.5},
	},
}

// Deltas returns the attribute deltas a completion in category yields for a specific boost.
func Deltas(category string, specificBoost float64) attributes.Deltas {
	shares := categoryEffects[catalog.NormalizeCategory(category)]
	deltas := make(attributes.Deltas, len(shares))
	for _, s := range shares {
		deltas[s.attr] += s.fraction * specificBoost
	}
	return deltas
}
