package models

import (
	"time"
)

// Badge is awarded to a user once per completed challenge.
type Badge struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_badge_user_challenge,priority:1" json:"user_id"`
	ChallengeID uint      `gorm:"not null;uniqueIndex:idx_badge_user_challenge,priority:2" json:"challenge_id"`
	Challenge   Challenge `gorm:"foreignKey:ChallengeID" json:"challenge,omitempty"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Icon        string    `gorm:"size:255" json:"icon"`
	EarnedAt    time.Time `gorm:"not null" json:"earned_at"`
}

// TableName specifies the table name for Badge model.
func (Badge) TableName() string {
	return "badges"
}
