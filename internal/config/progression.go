package config

import (
	"fmt"
	"math"
	"strings"
)

// Player positions recognized by the rating thresholds.
const (
	PositionStriker    = "striker"
	PositionMidfielder = "midfielder"
	PositionDefender   = "defender"
	PositionGoalkeeper = "goalkeeper"
)

// Positions lists the recognized positions.
var Positions = []string{PositionStriker, PositionMidfielder, PositionDefender, PositionGoalkeeper}

// CompletionConfig contains the multipliers applied on challenge completion.
type CompletionConfig struct {
	SpecificMultiplier float64 `mapstructure:"specific_multiplier"`
	BaseMultiplier     float64 `mapstructure:"base_multiplier"`
	// UnlockCreatesMissingStatus makes unlock propagation insert AVAILABLE rows
	// for successors the user has no status row for.
	UnlockCreatesMissingStatus bool `mapstructure:"unlock_creates_missing_status"`
}

// DefaultCompletionConfig returns the standard completion multipliers.
func DefaultCompletionConfig() CompletionConfig {
	return CompletionConfig{
		SpecificMultiplier: 5,
		BaseMultiplier:     2,
	}
}

// Validate checks the completion multipliers.
func (c CompletionConfig) Validate() error {
	if c.SpecificMultiplier < 0 || c.BaseMultiplier < 0 {
		return fmt.Errorf("progression.completion multipliers must not be negative")
	}
	return nil
}

// BlendConfig contains the weights used to blend skill test ratings into a vector.
type BlendConfig struct {
	TestWeight             float64 `mapstructure:"test_weight"`
	ActivityWeightPerLevel float64 `mapstructure:"activity_weight_per_level"`
	MaxActivityWeight      float64 `mapstructure:"max_activity_weight"`
	// ActivitySaturation is the completed challenge count at which activity level reaches 1.
	ActivitySaturation int `mapstructure:"activity_saturation"`
}

// DefaultBlendConfig returns the standard blend weights.
func DefaultBlendConfig() BlendConfig {
	return BlendConfig{
		TestWeight:             0.6,
		ActivityWeightPerLevel: 0.02,
		MaxActivityWeight:      0.4,
		ActivitySaturation:     20,
	}
}

// ActivityLevel maps a completed challenge count to [0,1].
func (c BlendConfig) ActivityLevel(completed int64) float64 {
	if completed <= 0 || c.ActivitySaturation <= 0 {
		return 0
	}
	return math.Min(1, float64(completed)/float64(c.ActivitySaturation))
}

// ActivityWeight returns the weight given to activity for an activity level.
func (c BlendConfig) ActivityWeight(level float64) float64 {
	return math.Min(c.MaxActivityWeight, level*c.ActivityWeightPerLevel)
}

// Validate checks that the weights form a convex combination.
func (c BlendConfig) Validate() error {
	if c.TestWeight < 0 || c.TestWeight > 1 {
		return fmt.Errorf("progression.blend.test_weight must be within [0,1]")
	}
	if c.ActivityWeightPerLevel < 0 || c.MaxActivityWeight < 0 {
		return fmt.Errorf("progression.blend activity weights must not be negative")
	}
	if c.TestWeight+c.MaxActivityWeight > 1 {
		return fmt.Errorf("progression.blend.test_weight plus max_activity_weight must not exceed 1")
	}
	if c.ActivitySaturation <= 0 {
		return fmt.Errorf("progression.blend.activity_saturation must be positive")
	}
	return nil
}

// RatingConfig holds the per test, per position maximum used to normalize raw measurements.
type RatingConfig struct {
	DefaultPosition string                        `mapstructure:"default_position"`
	Thresholds      map[string]map[string]float64 `mapstructure:"thresholds"`
}

// DefaultRatingConfig returns the academy's standard thresholds.
func DefaultRatingConfig() RatingConfig {
	return RatingConfig{
		DefaultPosition: PositionMidfielder,
		Thresholds: map[string]map[string]float64{
			"passing":     {PositionStriker: 40, PositionMidfielder: 45, PositionDefender: 40, PositionGoalkeeper: 35},
			"sprint":      {PositionStriker: 1.9, PositionMidfielder: 1.9, PositionDefender: 1.9, PositionGoalkeeper: 2.0},
			"first_touch": {PositionStriker: 35, PositionMidfielder: 40, PositionDefender: 35, PositionGoalkeeper: 30},
			"shooting":    {PositionStriker: 14, PositionMidfielder: 12, PositionDefender: 11, PositionGoalkeeper: 10},
			"juggling":    {PositionStriker: 150, PositionMidfielder: 150, PositionDefender: 150, PositionGoalkeeper: 130},
			"dribbling":   {PositionStriker: 12, PositionMidfielder: 11, PositionDefender: 12, PositionGoalkeeper: 13},
		},
	}
}

// NormalizePosition lowercases a position and maps unknown values to the default position.
func (c RatingConfig) NormalizePosition(position string) string {
	p := strings.ToLower(strings.TrimSpace(position))
	for _, known := range Positions {
		if p == known {
			return p
		}
	}
	return c.DefaultPosition
}

// Threshold returns the maximum M for a test and position.
func (c RatingConfig) Threshold(test, position string) (float64, bool) {
	byPosition, ok := c.Thresholds[test]
	if !ok {
		return 0, false
	}
	max, ok := byPosition[c.NormalizePosition(position)]
	return max, ok
}

// Validate checks that every test has a positive threshold for every position.
func (c RatingConfig) Validate() error {
	known := false
	for _, p := range Positions {
		if c.DefaultPosition == p {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("progression.rating.default_position %q is not a known position", c.DefaultPosition)
	}
	if len(c.Thresholds) == 0 {
		return fmt.Errorf("progression.rating.thresholds must not be empty")
	}
	for test, byPosition := range c.Thresholds {
		for _, p := range Positions {
			max, ok := byPosition[p]
			if !ok {
				return fmt.Errorf("progression.rating.thresholds.%s.%s is required", test, p)
			}
			if max <= 0 || math.IsNaN(max) || math.IsInf(max, 0) {
				return fmt.Errorf("progression.rating.thresholds.%s.%s must be positive", test, p)
			}
		}
	}
	return nil
}
