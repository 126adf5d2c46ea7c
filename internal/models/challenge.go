// Package models defines domain models for the challenge progression engine.
package models

import (
	"time"
)

// Challenge is an immutable catalog entry.
type Challenge struct {
	ID             uint      `gorm:"primaryKey" json:"id" yaml:"id"`
	Title          string    `gorm:"size:255;not null" json:"title" yaml:"title"`
	Description    string    `gorm:"type:text" json:"description" yaml:"description"`
	Category       string    `gorm:"size:100;not null;index" json:"category" yaml:"category"`
	Level          int       `gorm:"not null;default:1;index" json:"level" yaml:"level"`
	PrerequisiteID *uint     `gorm:"index" json:"prerequisite_id,omitempty" yaml:"prerequisite_id"`
	RewardWeight   int       `gorm:"not null;default:1" json:"reward_weight" yaml:"reward_weight"`
	IsWeekly       bool      `gorm:"not null;default:false" json:"is_weekly" yaml:"is_weekly"`
	CreatedAt      time.Time `json:"created_at" yaml:"-"`
	UpdatedAt      time.Time `json:"updated_at" yaml:"-"`
}

// TableName specifies the table name for Challenge model.
func (Challenge) TableName() string {
	return "challenges"
}

// ChallengeState is the per-user progression marker of a challenge.
type ChallengeState string

// ChallengeState constants. States only ever move forward in this order.
const (
	StateLocked    ChallengeState = "LOCKED"
	StateAvailable ChallengeState = "AVAILABLE"
	StateCompleted ChallengeState = "COMPLETED"
)

// rank orders states so regressions can be detected.
func (s ChallengeState) rank() int {
	switch s {
	case StateLocked:
		return 0
	case StateAvailable:
		return 1
	case StateCompleted:
		return 2
	default:
		return -1
	}
}

// Valid reports whether s is one of the known states.
func (s ChallengeState) Valid() bool {
	return s.rank() >= 0
}

// CanAdvanceTo reports whether next is the state directly after s.
func (s ChallengeState) CanAdvanceTo(next ChallengeState) bool {
	return s.Valid() && next.Valid() && next.rank() == s.rank()+1
}

// ChallengeStatus tracks one user's state for one challenge.
type ChallengeStatus struct {
	UserID      uint           `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	ChallengeID uint           `gorm:"primaryKey;autoIncrement:false;index" json:"challenge_id"`
	State       ChallengeState `gorm:"size:20;not null;default:LOCKED;index" json:"state"`
	UnlockedAt  *time.Time     `json:"unlocked_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// TableName specifies the table name for ChallengeStatus model.
func (ChallengeStatus) TableName() string {
	return "challenge_statuses"
}
