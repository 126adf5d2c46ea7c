package catalog

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aimd54/academy-progression/internal/models"
)

// SeedFile is the on-disk format of a catalog seed.
type SeedFile struct {
	Challenges []models.Challenge `yaml:"challenges"`
}

// Upserter stores catalog entries.
type Upserter interface {
	Upsert(ctx context.Context, challenges []models.Challenge) error
}

// ParseSeed decodes and validates a YAML catalog seed.
func ParseSeed(data []byte) ([]models.Challenge, error) {
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse catalog seed: %w", err)
	}
	for i := range seed.Challenges {
		if seed.Challenges[i].Level == 0 {
			seed.Challenges[i].Level = 1
		}
		if seed.Challenges[i].RewardWeight == 0 {
			seed.Challenges[i].RewardWeight = 1
		}
	}
	if err := Validate(seed.Challenges); err != nil {
		return nil, fmt.Errorf("invalid catalog seed: %w", err)
	}
	return seed.Challenges, nil
}

// LoadSeedFile reads and parses a catalog seed file.
func LoadSeedFile(path string) ([]models.Challenge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog seed %s: %w", path, err)
	}
	return ParseSeed(data)
}

// Seed upserts the challenges of a seed file into the store and returns how many were written.
func Seed(ctx context.Context, dst Upserter, path string) (int, error) {
	challenges, err := LoadSeedFile(path)
	if err != nil {
		return 0, err
	}
	if err := dst.Upsert(ctx, challenges); err != nil {
		return 0, err
	}
	return len(challenges), nil
}
