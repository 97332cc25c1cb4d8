package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cloud-wave-best-zizon/enrollment-service/internal/domain"
)

// Seed is the catalogue and user fixture loaded from SEED_FILE.
type Seed struct {
	Courses []domain.Course      `json:"courses"`
	Users   []domain.UserProfile `json:"users"`
}

type Seeder interface {
	PutCourse(ctx context.Context, course *domain.Course) error
	PutUser(ctx context.Context, user *domain.UserProfile) error
}

func LoadSeedFile(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return &seed, nil
}

func ApplySeed(ctx context.Context, s Seeder, seed *Seed) error {
	for i := range seed.Courses {
		if err := s.PutCourse(ctx, &seed.Courses[i]); err != nil {
			return fmt.Errorf("failed to seed course %s: %w", seed.Courses[i].CourseID, err)
		}
	}
	for i := range seed.Users {
		if err := s.PutUser(ctx, &seed.Users[i]); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", seed.Users[i].UserID, err)
		}
	}
	return nil
}
