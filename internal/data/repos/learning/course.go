package learning

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/lumenlearn/lms-backend/internal/domain"
	"github.com/lumenlearn/lms-backend/internal/pkg/logger"
)

type CourseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, courses []*types.Course) ([]*types.Course, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Course, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Course, error)
	GetByInstructor(ctx context.Context, tx *gorm.DB, instructorID uuid.UUID) ([]*types.Course, error)
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	repoLog := baseLog.With("repo", "CourseRepo")
	return &courseRepo{db: db, log: repoLog}
}

func (r *courseRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *courseRepo) Create(ctx context.Context, tx *gorm.DB, courses []*types.Course) ([]*types.Course, error) {
	const op = "CourseRepo.Create"

	if len(courses) == 0 {
		return []*types.Course{}, nil
	}
	for _, c := range courses {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		if c.Status == "" {
			c.Status = types.CourseStatusDraft
		}
	}
	if err := r.handle(tx).WithContext(ctx).Create(&courses).Error; err != nil {
		return nil, types.Translate(op, err)
	}
	return courses, nil
}

func (r *courseRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Course, error) {
	const op = "CourseRepo.GetByID"

	var c types.Course
	err := r.handle(tx).WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, types.Translate(op, err)
	}
	return &c, nil
}

func (r *courseRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Course, error) {
	const op = "CourseRepo.GetBySlug"

	var c types.Course
	err := r.handle(tx).WithContext(ctx).Where("slug = ?", slug).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, types.Translate(op, err)
	}
	return &c, nil
}

func (r *courseRepo) GetByInstructor(ctx context.Context, tx *gorm.DB, instructorID uuid.UUID) ([]*types.Course, error) {
	const op = "CourseRepo.GetByInstructor"

	var results []*types.Course
	if err := r.handle(tx).WithContext(ctx).
		Where("instructor_id = ?", instructorID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, types.Translate(op, err)
	}
	return results, nil
}

func (r *courseRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	const op = "CourseRepo.SoftDeleteByIDs"

	if len(ids) == 0 {
		return nil
	}
	if err := r.handle(tx).WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.Course{}).Error; err != nil {
		return types.Translate(op, err)
	}
	return nil
}
