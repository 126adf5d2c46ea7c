// Package catalog provides the immutable, indexed view of the challenge catalog.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aimd54/academy-progression/internal/models"
)

// Source lists the stored catalog.
type Source interface {
	List(ctx context.Context) ([]models.Challenge, error)
}

type levelKey struct {
	category string
	level    int
}

// Catalog indexes challenges by ID, category, (category, level) and prerequisite.
// It is built once and never mutated, so it is safe for concurrent use.
type Catalog struct {
	all        []models.Challenge
	byID       map[uint]int
	byCategory map[string][]int
	byLevel    map[levelKey][]int
	successors map[uint][]uint
}

// NormalizeCategory returns the lookup form of a category tag.
func NormalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// Load builds a catalog from the stored challenges.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	challenges, err := src.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load challenge catalog: %w", err)
	}
	return New(challenges)
}

// New validates challenges and builds the catalog indexes.
func New(challenges []models.Challenge) (*Catalog, error) {
	if err := Validate(challenges); err != nil {
		return nil, err
	}

	all := make([]models.Challenge, len(challenges))
	copy(all, challenges)
	sort.SliceStable(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	c := &Catalog{
		all:        all,
		byID:       make(map[uint]int, len(all)),
		byCategory: make(map[string][]int),
		byLevel:    make(map[levelKey][]int),
		successors: make(map[uint][]uint),
	}
	for i := range all {
		ch := &all[i]
		category := NormalizeCategory(ch.Category)
		c.byID[ch.ID] = i
		c.byCategory[category] = append(c.byCategory[category], i)
		key := levelKey{category: category, level: ch.Level}
		c.byLevel[key] = append(c.byLevel[key], i)
		if ch.PrerequisiteID != nil {
			c.successors[*ch.PrerequisiteID] = append(c.successors[*ch.PrerequisiteID], ch.ID)
		}
	}
	return c, nil
}

// Validate checks catalog consistency: unique IDs, level >= 1, positive reward
// weights, and prerequisites that exist and form no cycle.
func Validate(challenges []models.Challenge) error {
	parent := make(map[uint]*uint, len(challenges))
	for _, ch := range challenges {
		if ch.ID == 0 {
			return fmt.Errorf("challenge %q: id is required: %w", ch.Title, models.ErrValidation)
		}
		if _, dup := parent[ch.ID]; dup {
			return fmt.Errorf("challenge %d: duplicate id: %w", ch.ID, models.ErrValidation)
		}
		if ch.Level < 1 {
			return fmt.Errorf("challenge %d: level must be >= 1: %w", ch.ID, models.ErrValidation)
		}
		if ch.RewardWeight <= 0 {
			return fmt.Errorf("challenge %d: reward_weight must be positive: %w", ch.ID, models.ErrValidation)
		}
		if NormalizeCategory(ch.Category) == "" {
			return fmt.Errorf("challenge %d: category is required: %w", ch.ID, models.ErrValidation)
		}
		parent[ch.ID] = ch.PrerequisiteID
	}

	for id, pre := range parent {
		if pre == nil {
			continue
		}
		if _, ok := parent[*pre]; !ok {
			return fmt.Errorf("challenge %d: unknown prerequisite %d: %w", id, *pre, models.ErrValidation)
		}
		// Walk up the chain; more steps than challenges means a cycle.
		steps := 0
		for cur := pre; cur != nil; cur = parent[*cur] {
			if *cur == id || steps > len(parent) {
				return fmt.Errorf("challenge %d: prerequisite cycle: %w", id, models.ErrValidation)
			}
			steps++
		}
	}
	return nil
}

// GetByID returns a challenge or models.ErrChallengeNotFound.
func (c *Catalog) GetByID(id uint) (*models.Challenge, error) {
	i, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("challenge %d: %w", id, models.ErrChallengeNotFound)
	}
	ch := c.all[i]
	return &ch, nil
}

// Contains reports whether the catalog has a challenge.
func (c *Catalog) Contains(id uint) bool {
	_, ok := c.byID[id]
	return ok
}

// ListByCategory returns the challenges of a category, matched case-insensitively.
func (c *Catalog) ListByCategory(category string) []models.Challenge {
	return c.collect(c.byCategory[NormalizeCategory(category)])
}

// AtLevel returns the challenges of a category at a level, weekly ones included.
func (c *Catalog) AtLevel(category string, level int) []models.Challenge {
	return c.collect(c.byLevel[levelKey{category: NormalizeCategory(category), level: level}])
}

// Cohort returns the non-weekly challenges of a category at a level.
func (c *Catalog) Cohort(category string, level int) []models.Challenge {
	var out []models.Challenge
	for _, ch := range c.AtLevel(category, level) {
		if !ch.IsWeekly {
			out = append(out, ch)
		}
	}
	return out
}

// Successors returns the IDs of the challenges that name id as prerequisite.
func (c *Catalog) Successors(id uint) []uint {
	out := make([]uint, len(c.successors[id]))
	copy(out, c.successors[id])
	return out
}

// All returns every challenge ordered by ID.
func (c *Catalog) All() []models.Challenge {
	out := make([]models.Challenge, len(c.all))
	copy(out, c.all)
	return out
}

// Categories returns the normalized category tags in sorted order.
func (c *Catalog) Categories() []string {
	out := make([]string, 0, len(c.byCategory))
	for category := range c.byCategory {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of challenges.
func (c *Catalog) Len() int {
	return len(c.all)
}

func (c *Catalog) collect(idx []int) []models.Challenge {
	out := make([]models.Challenge, 0, len(idx))
	for _, i := range idx {
		out = append(out, c.all[i])
	}
	return out
}
