package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aimd54/academy-progression/internal/models"
)

const vectorKeyPrefix = "progression:vector:"

// VectorKey returns the cache key of a user's skill vector.
func VectorKey(userID uint) string {
	return fmt.Sprintf("%s%d", vectorKeyPrefix, userID)
}

// VectorCache caches skill vectors as JSON.
type VectorCache struct {
	cache Cache
	ttl   time.Duration
}

// NewVectorCache creates a vector cache with the given entry TTL.
func NewVectorCache(c Cache, ttl time.Duration) *VectorCache {
	return &VectorCache{cache: c, ttl: ttl}
}

// Get returns the cached vector of a user, or nil on a miss.
func (v *VectorCache) Get(ctx context.Context, userID uint) (*models.PlayerSkillVector, error) {
	raw, err := v.cache.Get(ctx, VectorKey(userID))
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}

	var vec models.PlayerSkillVector
	if err := json.Unmarshal([]byte(raw), &vec); err != nil {
		return nil, fmt.Errorf("failed to decode cached skill vector for user %d: %w", userID, err)
	}
	return &vec, nil
}

// Put stores a vector.
func (v *VectorCache) Put(ctx context.Context, vec *models.PlayerSkillVector) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("failed to encode skill vector for user %d: %w", vec.UserID, err)
	}
	return v.cache.Set(ctx, VectorKey(vec.UserID), string(data), v.ttl)
}

// Invalidate removes a user's cached vector.
func (v *VectorCache) Invalidate(ctx context.Context, userID uint) error {
	return v.cache.Del(ctx, VectorKey(userID))
}
