// Package attributes applies challenge rewards and skill test ratings to player skill vectors.
package attributes

import (
	"math"
	"time"

	"github.com/aimd54/academy-progression/internal/config"
	"github.com/aimd54/academy-progression/internal/models"
)

// Deltas maps attributes to the amount added on a completion.
type Deltas map[models.Attribute]float64

// Clamp bounds v to the attribute range [0,99].
func Clamp(v float64) float64 {
	return math.Max(models.MinAttributeValue, math.Min(models.MaxAttributeValue, v))
}

// Aggregator mutates skill vectors while keeping attributes bounded and overall derived.
type Aggregator struct {
	blend config.BlendConfig
}

// NewAggregator creates an aggregator with the given blend weights.
func NewAggregator(blend config.BlendConfig) *Aggregator {
	return &Aggregator{blend: blend}
}

// ApplyCompletion adds deltas to vec, clamps each attribute and sets
// overall = clamp(mean + baseBoost). The version is bumped.
func (a *Aggregator) ApplyCompletion(vec *models.PlayerSkillVector, deltas Deltas, baseBoost float64, now time.Time) {
	for _, attr := range models.Attributes {
		delta, ok := deltas[attr]
		if !ok {
			continue
		}
		vec.Set(attr, Clamp(vec.Get(attr)+delta))
	}
	vec.Overall = Clamp(vec.Mean() + baseBoost)
	touch(vec, now)
}

// BlendResult describes one skill test blend.
type BlendResult struct {
	ActivityLevel  float64
	ActivityWeight float64
	CurrentWeight  float64
}

// BlendTestRatings folds ratings into vec weighted by the user's completed challenge count.
// Only attributes with a rating change; overall becomes the plain mean of the six.
func (a *Aggregator) BlendTestRatings(vec *models.PlayerSkillVector, ratings models.Ratings, completed int64, now time.Time) BlendResult {
	level := a.blend.ActivityLevel(completed)
	activityWeight := a.blend.ActivityWeight(level)
	currentWeight := 1 - a.blend.TestWeight - activityWeight

	for _, test := range models.TestTypes {
		r, ok := ratings[test]
		if !ok {
			continue
		}
		attr, _ := test.Attribute()
		old := vec.Get(attr)
		vec.Set(attr, Clamp(currentWeight*old+a.blend.TestWeight*r+activityWeight*old))
	}
	vec.Overall = Clamp(vec.Mean())
	touch(vec, now)

	return BlendResult{ActivityLevel: level, ActivityWeight: activityWeight, CurrentWeight: currentWeight}
}

func touch(vec *models.PlayerSkillVector, now time.Time) {
	vec.LastUpdated = now
	vec.Version++
}
