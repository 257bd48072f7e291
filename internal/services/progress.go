package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumenlearn/lms-backend/internal/data/repos/learning"
	types "github.com/lumenlearn/lms-backend/internal/domain"
	"github.com/lumenlearn/lms-backend/internal/pkg/logger"
)

type ProgressService interface {
	StartLesson(ctx context.Context, enrollmentID, lessonID uuid.UUID) (*types.LessonProgress, error)
	CompleteLesson(ctx context.Context, enrollmentID, lessonID uuid.UUID) (*types.LessonProgress, error)
	// RecordTime adds seconds to the row's counter; the counter never
	// decreases.
	RecordTime(ctx context.Context, enrollmentID, lessonID uuid.UUID, seconds int) (*types.LessonProgress, error)
	RecordQuizScore(ctx context.Context, enrollmentID, lessonID uuid.UUID, score float64) (*types.LessonProgress, error)
	Summary(ctx context.Context, enrollmentID uuid.UUID) (*types.ProgressSummary, error)
	ModuleBreakdown(ctx context.Context, enrollmentID uuid.UUID) ([]*types.ModuleProgress, error)
	NextLesson(ctx context.Context, enrollmentID uuid.UUID) (*types.Lesson, error)
}

type progressService struct {
	db             *gorm.DB
	log            *logger.Logger
	progressRepo   learning.LessonProgressRepo
	enrollmentRepo learning.EnrollmentRepo
}

func NewProgressService(
	db *gorm.DB,
	log *logger.Logger,
	progressRepo learning.LessonProgressRepo,
	enrollmentRepo learning.EnrollmentRepo,
) ProgressService {
	serviceLog := log.With("service", "ProgressService")
	return &progressService{
		db:             db,
		log:            serviceLog,
		progressRepo:   progressRepo,
		enrollmentRepo: enrollmentRepo,
	}
}

func (s *progressService) StartLesson(ctx context.Context, enrollmentID, lessonID uuid.UUID) (*types.LessonProgress, error) {
	now := time.Now()
	patch := types.LessonProgressPatch{LastAccessedAt: &now}

	row, err := s.progressRepo.GetByEnrollmentAndLesson(ctx, nil, enrollmentID, lessonID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, types.NewNotFound("ProgressService.StartLesson", "no progress row for enrollment and lesson")
	}
	// Completed lessons stay completed; reopening only bumps the access
	// timestamp.
	if row.Status == types.ProgressStatusNotStarted {
		status := types.ProgressStatusInProgress
		patch.Status = &status
	}

	updated, err := s.progressRepo.UpdateByEnrollmentAndLesson(ctx, nil, enrollmentID, lessonID, patch)
	if err != nil {
		return nil, err
	}
	return updated, s.touchEnrollment(ctx, enrollmentID, now)
}

func (s *progressService) CompleteLesson(ctx context.Context, enrollmentID, lessonID uuid.UUID) (*types.LessonProgress, error) {
	now := time.Now()
	status := types.ProgressStatusCompleted
	updated, err := s.progressRepo.UpdateByEnrollmentAndLesson(ctx, nil, enrollmentID, lessonID, types.LessonProgressPatch{
		Status:         &status,
		CompletedAt:    &now,
		LastAccessedAt: &now,
	})
	if err != nil {
		return nil, err
	}
	return updated, s.recalcEnrollment(ctx, enrollmentID, now)
}

func (s *progressService) RecordTime(ctx context.Context, enrollmentID, lessonID uuid.UUID, seconds int) (*types.LessonProgress, error) {
	const op = "ProgressService.RecordTime"

	if seconds <= 0 {
		return nil, types.NewValidation(op, "seconds must be positive")
	}

	row, err := s.progressRepo.GetByEnrollmentAndLesson(ctx, nil, enrollmentID, lessonID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, types.NewNotFound(op, "no progress row for enrollment and lesson")
	}

	now := time.Now()
	total := row.TimeSpentSeconds + seconds
	updated, err := s.progressRepo.UpdateByEnrollmentAndLesson(ctx, nil, enrollmentID, lessonID, types.LessonProgressPatch{
		TimeSpentSeconds: &total,
		LastAccessedAt:   &now,
	})
	if err != nil {
		return nil, err
	}
	return updated, s.touchEnrollment(ctx, enrollmentID, now)
}

func (s *progressService) RecordQuizScore(ctx context.Context, enrollmentID, lessonID uuid.UUID, score float64) (*types.LessonProgress, error) {
	const op = "ProgressService.RecordQuizScore"

	if score < 0 || score > 100 {
		return nil, types.NewValidation(op, "score must be between 0 and 100")
	}

	row, err := s.progressRepo.GetByEnrollmentAndLesson(ctx, nil, enrollmentID, lessonID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, types.NewNotFound(op, "no progress row for enrollment and lesson")
	}

	now := time.Now()
	attempts := row.AttemptsCount + 1
	updated, err := s.progressRepo.UpdateByEnrollmentAndLesson(ctx, nil, enrollmentID, lessonID, types.LessonProgressPatch{
		QuizScore:      &score,
		AttemptsCount:  &attempts,
		LastAccessedAt: &now,
	})
	if err != nil {
		return nil, err
	}
	return updated, s.touchEnrollment(ctx, enrollmentID, now)
}

func (s *progressService) Summary(ctx context.Context, enrollmentID uuid.UUID) (*types.ProgressSummary, error) {
	return s.progressRepo.GetProgressSummary(ctx, nil, enrollmentID)
}

func (s *progressService) ModuleBreakdown(ctx context.Context, enrollmentID uuid.UUID) ([]*types.ModuleProgress, error) {
	return s.progressRepo.GetModuleProgress(ctx, nil, enrollmentID)
}

func (s *progressService) NextLesson(ctx context.Context, enrollmentID uuid.UUID) (*types.Lesson, error) {
	return s.progressRepo.GetNextLesson(ctx, nil, enrollmentID)
}

// recalcEnrollment pulls the fresh summary (the mutation just invalidated
// it) and patches the enrollment's percentage.
func (s *progressService) recalcEnrollment(ctx context.Context, enrollmentID uuid.UUID, accessedAt time.Time) error {
	summary, err := s.progressRepo.GetProgressSummary(ctx, nil, enrollmentID)
	if err != nil {
		return err
	}
	pct := float64(summary.ProgressPercentage)
	_, err = s.enrollmentRepo.Update(ctx, nil, enrollmentID, types.EnrollmentPatch{
		ProgressPercentage: &pct,
		LastAccessedAt:     &accessedAt,
	})
	return err
}

func (s *progressService) touchEnrollment(ctx context.Context, enrollmentID uuid.UUID, accessedAt time.Time) error {
	_, err := s.enrollmentRepo.Update(ctx, nil, enrollmentID, types.EnrollmentPatch{
		LastAccessedAt: &accessedAt,
	})
	return err
}
