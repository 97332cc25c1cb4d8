package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cloud-wave-best-zizon/enrollment-service/internal/domain"
)

var (
	ErrPaymentAlreadyClaimed = errors.New("payment already claimed")
	ErrPaymentNotFound       = fmt.Errorf("payment %w", domain.ErrNotFound)
	ErrProgressNotFound      = fmt.Errorf("progress record %w", domain.ErrNotFound)
)

func newProgress(courseID, userID string, now time.Time) *domain.ProgressRecord {
	return &domain.ProgressRecord{
		ProgressID:      uuid.NewString(),
		CourseID:        courseID,
		UserID:          userID,
		CompletedVideos: []string{},
		CreatedAt:       now.UTC(),
	}
}
