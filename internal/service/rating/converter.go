// Package rating converts raw physical-test measurements into normalized ratings.
package rating

import (
	"fmt"
	"math"

	"github.com/aimd54/academy-progression/internal/config"
	"github.com/aimd54/academy-progression/internal/models"
)

// Rating bounds.
const (
	Floor   = 50.0
	Ceiling = 99.0
)

// Converter rates measurements against per test, per position thresholds.
type Converter struct {
	cfg config.RatingConfig
}

// NewConverter creates a converter over cfg. cfg must not be mutated afterwards.
func NewConverter(cfg config.RatingConfig) *Converter {
	return &Converter{cfg: cfg}
}

// Position returns the threshold row used for a position.
func (c *Converter) Position(position string) string {
	return c.cfg.NormalizePosition(position)
}

// Validate checks a raw measurement without rating it.
func Validate(test models.TestType, raw float64) error {
	if _, ok := test.Attribute(); !ok {
		return models.NewValidationError("test", "unknown test type %q", test)
	}
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return models.NewValidationError(string(test), "value must be a finite number")
	}
	if raw < 0 {
		return models.NewValidationError(string(test), "value must not be negative, got %v", raw)
	}
	if test.LowerIsBetter() && raw == 0 {
		return models.NewValidationError(string(test), "time must be greater than zero")
	}
	return nil
}

// Rate converts a raw measurement into a rating in [50,99].
func (c *Converter) Rate(test models.TestType, raw float64, position string) (float64, error) {
	if err := Validate(test, raw); err != nil {
		return 0, err
	}
	max, ok := c.cfg.Threshold(string(test), position)
	if !ok {
		return 0, fmt.Errorf("no threshold for test %q position %q: %w", test, c.Position(position), models.ErrValidation)
	}

	if test.LowerIsBetter() {
		return rateLowerIsBetter(raw, max), nil
	}
	return rateHigherIsBetter(raw, max), nil
}

// rateLowerIsBetter interpolates linearly from 99 at 0.5M down to 50 at 1.5M.
func rateLowerIsBetter(raw, max float64) float64 {
	best := 0.5 * max
	worst := 1.5 * max
	switch {
	case raw < best:
		return Ceiling
	case raw > worst:
		return Floor
	}
	return clamp(Floor + (1-(raw-best)/(worst-best))*(Ceiling-Floor))
}

// rateHigherIsBetter scales raw/M, capped at 1, onto [50,99].
func rateHigherIsBetter(raw, max float64) float64 {
	ratio := math.Min(raw/max, 1)
	return clamp(Floor + ratio*(Ceiling-Floor))
}

// RateAll rates every supplied measurement.
func (c *Converter) RateAll(measurements models.Measurements, position string) (models.Ratings, error) {
	out := make(models.Ratings, len(measurements))
	for _, test := range sortedTests(measurements) {
		r, err := c.Rate(test, measurements[test], position)
		if err != nil {
			return nil, err
		}
		out[test] = r
	}
	return out, nil
}

// Overall returns the mean of the supplied ratings, or 50 when none were supplied.
func Overall(ratings models.Ratings) float64 {
	if len(ratings) == 0 {
		return Floor
	}
	sum := 0.0
	for _, r := range ratings {
		sum += r
	}
	return sum / float64(len(ratings))
}

func clamp(v float64) float64 {
	return math.Max(Floor, math.Min(Ceiling, v))
}

// sortedTests returns known tests in canonical order followed by unknown ones,
// so the first validation error is deterministic.
func sortedTests(m models.Measurements) []models.TestType {
	out := make([]models.TestType, 0, len(m))
	for _, t := range models.TestTypes {
		if _, ok := m[t]; ok {
			out = append(out, t)
		}
	}
	for t := range m {
		if _, known := t.Attribute(); !known {
			out = append(out, t)
		}
	}
	return out
}
