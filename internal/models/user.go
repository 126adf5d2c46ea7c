package models

import (
	"time"
)

// User is the player/coach profile consumed from the surrounding system.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null;size:255" json:"username"`
	Email     string    `gorm:"size:255" json:"email"`
	Position  string    `gorm:"size:50" json:"position"`
	IsCoach   bool      `gorm:"not null;default:false" json:"is_coach"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model.
func (User) TableName() string {
	return "users"
}

// Principal is the resolved identity of the caller.
type Principal struct {
	UserID  uint
	IsCoach bool
}

// CanActFor reports whether the principal may act on the given player's data.
func (p Principal) CanActFor(playerID uint) bool {
	return p.UserID == playerID || p.IsCoach
}
