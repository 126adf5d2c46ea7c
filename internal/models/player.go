package models

import (
	"time"
)

// Attribute names one of the six skill vector components.
type Attribute string

// Attribute constants.
const (
	AttrPace       Attribute = "pace"
	AttrShooting   Attribute = "shooting"
	AttrPassing    Attribute = "passing"
	AttrDribbling  Attribute = "dribbling"
	AttrJuggles    Attribute = "juggles"
	AttrFirstTouch Attribute = "first_touch"
)

// Attributes lists all six attributes in canonical order.
var Attributes = []Attribute{AttrPace, AttrShooting, AttrPassing, AttrDribbling, AttrJuggles, AttrFirstTouch}

// Skill vector bounds.
const (
	MinAttributeValue     = 0.0
	MaxAttributeValue     = 99.0
	DefaultAttributeValue = 50.0
)

// PlayerSkillVector is the canonical attribute vector of a user.
type PlayerSkillVector struct {
	UserID      uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Pace        float64   `gorm:"not null;default:50" json:"pace"`
	Shooting    float64   `gorm:"not null;default:50" json:"shooting"`
	Passing     float64   `gorm:"not null;default:50" json:"passing"`
	Dribbling   float64   `gorm:"not null;default:50" json:"dribbling"`
	Juggles     float64   `gorm:"not null;default:50" json:"juggles"`
	FirstTouch  float64   `gorm:"not null;default:50" json:"first_touch"`
	Overall     float64   `gorm:"not null;default:50" json:"overall"`
	Version     int       `gorm:"not null;default:0" json:"version"`
	LastUpdated time.Time `json:"last_updated"`
}

// TableName specifies the table name for PlayerSkillVector model.
func (PlayerSkillVector) TableName() string {
	return "player_skill_vectors"
}

// NewPlayerSkillVector returns the default vector for a user without one.
func NewPlayerSkillVector(userID uint) *PlayerSkillVector {
	return &PlayerSkillVector{
		UserID:     userID,
		Pace:       DefaultAttributeValue,
		Shooting:   DefaultAttributeValue,
		Passing:    DefaultAttributeValue,
		Dribbling:  DefaultAttributeValue,
		Juggles:    DefaultAttributeValue,
		FirstTouch: DefaultAttributeValue,
		Overall:    DefaultAttributeValue,
	}
}

// field returns a pointer to the storage of the given attribute.
func (v *PlayerSkillVector) field(a Attribute) *float64 {
	switch a {
	case AttrPace:
		return &v.Pace
	case AttrShooting:
		return &v.Shooting
	case AttrPassing:
		return &v.Passing
	case AttrDribbling:
		return &v.Dribbling
	case AttrJuggles:
		return &v.Juggles
	case AttrFirstTouch:
		return &v.FirstTouch
	default:
		return nil
	}
}

// Get returns the value of an attribute, or 0 for an unknown attribute.
func (v *PlayerSkillVector) Get(a Attribute) float64 {
	if p := v.field(a); p != nil {
		return *p
	}
	return 0
}

// Set stores the value of an attribute. Unknown attributes are ignored and reported as false.
func (v *PlayerSkillVector) Set(a Attribute, value float64) bool {
	p := v.field(a)
	if p == nil {
		return false
	}
	*p = value
	return true
}

// Mean returns the arithmetic mean of the six attributes.
func (v *PlayerSkillVector) Mean() float64 {
	return (v.Pace + v.Shooting + v.Passing + v.Dribbling + v.Juggles + v.FirstTouch) / float64(len(Attributes))
}
