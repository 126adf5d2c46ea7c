package progression

import (
	"time"

	"github.com/aimd54/academy-progression/internal/models"
	"github.com/aimd54/academy-progression/internal/service/completion"
)

// ChallengeView is a catalog challenge joined with a user's status.
type ChallengeView struct {
	ID             uint                  `json:"id"`
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	Category       string                `json:"category"`
	Level          int                   `json:"level"`
	PrerequisiteID *uint                 `json:"prerequisite_id,omitempty"`
	RewardWeight   int                   `json:"reward_weight"`
	IsWeekly       bool                  `json:"is_weekly"`
	State          models.ChallengeState `json:"state"`
	UnlockedAt     *time.Time            `json:"unlocked_at,omitempty"`
	CompletedAt    *time.Time            `json:"completed_at,omitempty"`
}

// ChallengeStatusView is the outcome of a completion.
type ChallengeStatusView struct {
	UserID      uint                   `json:"user_id"`
	ChallengeID uint                   `json:"challenge_id"`
	State       models.ChallengeState  `json:"state"`
	UnlockedAt  *time.Time             `json:"unlocked_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	Unlocked    []uint                 `json:"unlocked,omitempty"`
	Badge       *BadgeView             `json:"badge,omitempty"`
	Vector      *PlayerSkillVectorView `json:"vector"`
}

// PlayerSkillVectorView is a user's skill vector.
type PlayerSkillVectorView struct {
	UserID      uint      `json:"user_id"`
	Pace        float64   `json:"pace"`
	Shooting    float64   `json:"shooting"`
	Passing     float64   `json:"passing"`
	Dribbling   float64   `json:"dribbling"`
	Juggles     float64   `json:"juggles"`
	FirstTouch  float64   `json:"first_touch"`
	Overall     float64   `json:"overall"`
	LastUpdated time.Time `json:"last_updated"`
	Version     int       `json:"version"`
}

// SkillTestSampleView is a stored skill test submission.
type SkillTestSampleView struct {
	ID            uint                   `json:"id"`
	SampleUUID    string                 `json:"sample_uuid"`
	PlayerID      uint                   `json:"player_id"`
	SubmittedBy   uint                   `json:"submitted_by"`
	Position      string                 `json:"position"`
	Raw           models.Measurements    `json:"raw"`
	Ratings       models.Ratings         `json:"ratings"`
	Overall       float64                `json:"overall"`
	ActivityLevel float64                `json:"activity_level"`
	TakenAt       time.Time              `json:"taken_at"`
	Vector        *PlayerSkillVectorView `json:"vector,omitempty"`
}

// BadgeView is an earned badge.
type BadgeView struct {
	ChallengeID uint      `json:"challenge_id"`
	Category    string    `json:"category,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	EarnedAt    time.Time `json:"earned_at"`
}

// ChallengeStatistics summarizes a user's progression.
type ChallengeStatistics struct {
	UserID              uint             `json:"user_id"`
	TotalChallenges     int              `json:"total_challenges"`
	Completed           int64            `json:"completed"`
	CompletedByCategory map[string]int64 `json:"completed_by_category"`
	BadgesByCategory    map[string]int64 `json:"badges_by_category"`
	ActivityLevel       float64          `json:"activity_level"`
}

func newVectorView(v *models.PlayerSkillVector) *PlayerSkillVectorView {
	return &PlayerSkillVectorView{
		UserID:      v.UserID,
		Pace:        v.Pace,
		Shooting:    v.Shooting,
		Passing:     v.Passing,
		Dribbling:   v.Dribbling,
		Juggles:     v.Juggles,
		FirstTouch:  v.FirstTouch,
		Overall:     v.Overall,
		LastUpdated: v.LastUpdated,
		Version:     v.Version,
	}
}

func newBadgeView(b *models.Badge) *BadgeView {
	return &BadgeView{
		ChallengeID: b.ChallengeID,
		Category:    b.Challenge.Category,
		Name:        b.Name,
		Description: b.Description,
		Icon:        b.Icon,
		EarnedAt:    b.EarnedAt,
	}
}

func newSampleView(s *models.SkillTestSample) *SkillTestSampleView {
	return &SkillTestSampleView{
		ID:            s.ID,
		SampleUUID:    s.SampleUUID,
		PlayerID:      s.PlayerID,
		SubmittedBy:   s.SubmittedBy,
		Position:      s.Position,
		Raw:           s.Raw(),
		Ratings:       s.Ratings(),
		Overall:       s.Overall,
		ActivityLevel: s.ActivityLevel,
		TakenAt:       s.TakenAt,
	}
}

func newChallengeStatusView(res *completion.Result) *ChallengeStatusView {
	view := &ChallengeStatusView{
		UserID:      res.Status.UserID,
		ChallengeID: res.Status.ChallengeID,
		State:       res.Status.State,
		UnlockedAt:  res.Status.UnlockedAt,
		CompletedAt: res.Status.CompletedAt,
		Unlocked:    res.Unlocked,
		Vector:      newVectorView(res.Vector),
	}
	if res.Badge != nil {
		view.Badge = newBadgeView(res.Badge)
		view.Badge.Category = res.Challenge.Category
	}
	return view
}
