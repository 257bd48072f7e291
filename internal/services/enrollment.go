package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumenlearn/lms-backend/internal/data/repos/learning"
	types "github.com/lumenlearn/lms-backend/internal/domain"
	"github.com/lumenlearn/lms-backend/internal/pkg/logger"
	"github.com/lumenlearn/lms-backend/internal/pkg/pointers"
)

// CourseEnrollmentStats is the per-course enrollment headcount.
type CourseEnrollmentStats struct {
	CourseID  uuid.UUID `json:"course_id"`
	Active    int64     `json:"active"`
	Completed int64     `json:"completed"`
}

type EnrollmentService interface {
	// Enroll creates the enrollment and seeds one not_started progress row
	// per lesson reachable through the course hierarchy, atomically.
	Enroll(ctx context.Context, studentID, courseID uuid.UUID) (*types.Enrollment, error)
	Get(ctx context.Context, enrollmentID uuid.UUID) (*types.Enrollment, error)
	ListForStudent(ctx context.Context, studentID uuid.UUID, filter types.EnrollmentFilter) ([]*types.Enrollment, error)
	ListForCourse(ctx context.Context, courseID uuid.UUID, filter types.EnrollmentFilter) ([]*types.Enrollment, error)
	Drop(ctx context.Context, enrollmentID uuid.UUID) error
	Remove(ctx context.Context, enrollmentID uuid.UUID) error
	CourseStats(ctx context.Context, courseID uuid.UUID) (*CourseEnrollmentStats, error)
	// CompleteEligible sweeps enrollments whose lessons are all complete and
	// transitions them to completed. Returns how many were transitioned.
	CompleteEligible(ctx context.Context, limit int) (int, error)
}

type enrollmentService struct {
	db             *gorm.DB
	log            *logger.Logger
	enrollmentRepo learning.EnrollmentRepo
	progressRepo   learning.LessonProgressRepo
	courseRepo     learning.CourseRepo
	lessonRepo     learning.LessonRepo
}

func NewEnrollmentService(
	db *gorm.DB,
	log *logger.Logger,
	enrollmentRepo learning.EnrollmentRepo,
	progressRepo learning.LessonProgressRepo,
	courseRepo learning.CourseRepo,
	lessonRepo learning.LessonRepo,
) EnrollmentService {
	serviceLog := log.With("service", "EnrollmentService")
	return &enrollmentService{
		db:             db,
		log:            serviceLog,
		enrollmentRepo: enrollmentRepo,
		progressRepo:   progressRepo,
		courseRepo:     courseRepo,
		lessonRepo:     lessonRepo,
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, studentID, courseID uuid.UUID) (*types.Enrollment, error) {
	const op = "EnrollmentService.Enroll"

	course, err := s.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, types.NewNotFound(op, "course not found")
	}

	var enrollment *types.Enrollment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := s.enrollmentRepo.Create(ctx, tx, &types.Enrollment{
			StudentID: studentID,
			CourseID:  courseID,
		})
		if err != nil {
			return err
		}

		lessons, err := s.lessonRepo.GetByCourse(ctx, tx, courseID)
		if err != nil {
			return err
		}
		rows := make([]*types.LessonProgress, 0, len(lessons))
		for _, lesson := range lessons {
			rows = append(rows, &types.LessonProgress{
				EnrollmentID: created.ID,
				LessonID:     lesson.ID,
				Status:       types.ProgressStatusNotStarted,
			})
		}
		if _, err := s.progressRepo.CreateMany(ctx, tx, rows); err != nil {
			return err
		}

		enrollment = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Student enrolled", "student_id", studentID, "course_id", courseID, "enrollment_id", enrollment.ID)
	return enrollment, nil
}

func (s *enrollmentService) Get(ctx context.Context, enrollmentID uuid.UUID) (*types.Enrollment, error) {
	const op = "EnrollmentService.Get"

	e, err := s.enrollmentRepo.GetByID(ctx, nil, enrollmentID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, types.NewNotFound(op, "enrollment not found")
	}
	return e, nil
}

func (s *enrollmentService) ListForStudent(ctx context.Context, studentID uuid.UUID, filter types.EnrollmentFilter) ([]*types.Enrollment, error) {
	return s.enrollmentRepo.GetByStudent(ctx, nil, studentID, filter)
}

func (s *enrollmentService) ListForCourse(ctx context.Context, courseID uuid.UUID, filter types.EnrollmentFilter) ([]*types.Enrollment, error) {
	return s.enrollmentRepo.GetByCourse(ctx, nil, courseID, filter)
}

func (s *enrollmentService) Drop(ctx context.Context, enrollmentID uuid.UUID) error {
	if err := s.enrollmentRepo.SoftDelete(ctx, nil, enrollmentID); err != nil {
		return err
	}
	s.progressRepo.InvalidateCacheByEnrollment(ctx, enrollmentID)
	return nil
}

// Remove physically deletes the enrollment. Administrative cleanup only.
func (s *enrollmentService) Remove(ctx context.Context, enrollmentID uuid.UUID) error {
	if err := s.enrollmentRepo.HardDelete(ctx, nil, enrollmentID); err != nil {
		return err
	}
	s.progressRepo.InvalidateCacheByEnrollment(ctx, enrollmentID)
	return nil
}

func (s *enrollmentService) CourseStats(ctx context.Context, courseID uuid.UUID) (*CourseEnrollmentStats, error) {
	active, err := s.enrollmentRepo.GetActiveEnrollmentCount(ctx, nil, courseID)
	if err != nil {
		return nil, err
	}
	completed, err := s.enrollmentRepo.GetCompletedEnrollmentCount(ctx, nil, courseID)
	if err != nil {
		return nil, err
	}
	return &CourseEnrollmentStats{CourseID: courseID, Active: active, Completed: completed}, nil
}

func (s *enrollmentService) CompleteEligible(ctx context.Context, limit int) (int, error) {
	eligible, err := s.enrollmentRepo.FindEligibleForCompletion(ctx, nil, limit)
	if err != nil {
		return 0, err
	}

	transitioned := 0
	for _, e := range eligible {
		// Re-check before transitioning; the scan and the update are not
		// atomic and a lesson may have been reopened in between.
		done, err := s.progressRepo.AreAllLessonsCompleted(ctx, nil, e.ID)
		if err != nil {
			return transitioned, err
		}
		if !done {
			continue
		}

		now := time.Now()
		if _, err := s.enrollmentRepo.Update(ctx, nil, e.ID, types.EnrollmentPatch{
			Status:             pointers.String(types.EnrollmentStatusCompleted),
			ProgressPercentage: pointers.Float64(100),
			CompletedAt:        &now,
		}); err != nil {
			return transitioned, err
		}
		transitioned++
	}

	if transitioned > 0 {
		s.log.Info("Completed eligible enrollments", "count", transitioned)
	}
	return transitioned, nil
}
