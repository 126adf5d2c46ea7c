package models

import (
	"time"
)

// TestType identifies one of the physical tests of a submission.
type TestType string

// TestType constants.
const (
	TestSprint     TestType = "sprint"
	TestDribbling  TestType = "dribbling"
	TestPassing    TestType = "passing"
	TestShooting   TestType = "shooting"
	TestFirstTouch TestType = "first_touch"
	TestJuggling   TestType = "juggling"
)

// TestTypes lists all test types in canonical order.
var TestTypes = []TestType{TestSprint, TestShooting, TestPassing, TestDribbling, TestJuggling, TestFirstTouch}

// Attribute returns the skill vector attribute fed by the test.
func (t TestType) Attribute() (Attribute, bool) {
	switch t {
	case TestSprint:
		return AttrPace, true
	case TestShooting:
		return AttrShooting, true
	case TestPassing:
		return AttrPassing, true
	case TestDribbling:
		return AttrDribbling, true
	case TestJuggling:
		return AttrJuggles, true
	case TestFirstTouch:
		return AttrFirstTouch, true
	default:
		return "", false
	}
}

// LowerIsBetter reports whether the raw value of the test is a time.
func (t TestType) LowerIsBetter() bool {
	return t == TestSprint || t == TestDribbling
}

// Measurements holds the raw values of one submission. Nil means the test was not taken.
type Measurements map[TestType]float64

// Ratings holds normalized ratings keyed by test type.
type Ratings map[TestType]float64

// SkillTestSample is the immutable audit record of one skill test submission.
type SkillTestSample struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	SampleUUID  string `gorm:"size:36;uniqueIndex;not null" json:"sample_uuid"`
	PlayerID    uint   `gorm:"not null;index" json:"player_id"`
	SubmittedBy uint   `gorm:"not null" json:"submitted_by"`
	Position    string `gorm:"size:50;not null" json:"position"`

	SprintRaw     *float64 `json:"sprint_raw,omitempty"`
	ShootingRaw   *float64 `json:"shooting_raw,omitempty"`
	PassingRaw    *float64 `json:"passing_raw,omitempty"`
	DribblingRaw  *float64 `json:"dribbling_raw,omitempty"`
	JugglingRaw   *float64 `json:"juggling_raw,omitempty"`
	FirstTouchRaw *float64 `json:"first_touch_raw,omitempty"`

	SprintRating     *float64 `json:"sprint_rating,omitempty"`
	ShootingRating   *float64 `json:"shooting_rating,omitempty"`
	PassingRating    *float64 `json:"passing_rating,omitempty"`
	DribblingRating  *float64 `json:"dribbling_rating,omitempty"`
	JugglingRating   *float64 `json:"juggling_rating,omitempty"`
	FirstTouchRating *float64 `json:"first_touch_rating,omitempty"`

	Overall       float64   `gorm:"not null" json:"overall"`
	ActivityLevel float64   `gorm:"not null;default:0" json:"activity_level"`
	TakenAt       time.Time `gorm:"not null;index" json:"taken_at"`
}

// TableName specifies the table name for SkillTestSample model.
func (SkillTestSample) TableName() string {
	return "skill_test_samples"
}

// columns returns the raw and rating columns of a test.
func (s *SkillTestSample) columns(t TestType) (raw, rating **float64) {
	switch t {
	case TestSprint:
		return &s.SprintRaw, &s.SprintRating
	case TestShooting:
		return &s.ShootingRaw, &s.ShootingRating
	case TestPassing:
		return &s.PassingRaw, &s.PassingRating
	case TestDribbling:
		return &s.DribblingRaw, &s.DribblingRating
	case TestJuggling:
		return &s.JugglingRaw, &s.JugglingRating
	case TestFirstTouch:
		return &s.FirstTouchRaw, &s.FirstTouchRating
	default:
		return nil, nil
	}
}

// SetResult records the raw value and rating of a test.
func (s *SkillTestSample) SetResult(t TestType, raw, rating float64) {
	rawCol, ratingCol := s.columns(t)
	if rawCol == nil {
		return
	}
	*rawCol = &raw
	*ratingCol = &rating
}

// Raw returns the supplied raw values.
func (s *SkillTestSample) Raw() Measurements {
	out := make(Measurements)
	for _, t := range TestTypes {
		if raw, _ := s.columns(t); *raw != nil {
			out[t] = **raw
		}
	}
	return out
}

// Ratings returns the computed ratings of the supplied tests.
func (s *SkillTestSample) Ratings() Ratings {
	out := make(Ratings)
	for _, t := range TestTypes {
		if _, rating := s.columns(t); *rating != nil {
			out[t] = **rating
		}
	}
	return out
}
