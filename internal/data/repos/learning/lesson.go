package learning

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/lumenlearn/lms-backend/internal/domain"
	"github.com/lumenlearn/lms-backend/internal/pkg/logger"
)

type LessonRepo interface {
	Create(ctx context.Context, tx *gorm.DB, lessons []*types.Lesson) ([]*types.Lesson, error)
	GetByModule(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) ([]*types.Lesson, error)
	// GetByCourse resolves every lesson reachable through the course's
	// module hierarchy, in module then lesson order.
	GetByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Lesson, error)
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type lessonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	repoLog := baseLog.With("repo", "LessonRepo")
	return &lessonRepo{db: db, log: repoLog}
}

func (r *lessonRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *lessonRepo) Create(ctx context.Context, tx *gorm.DB, lessons []*types.Lesson) ([]*types.Lesson, error) {
	const op = "LessonRepo.Create"

	if len(lessons) == 0 {
		return []*types.Lesson{}, nil
	}
	for _, l := range lessons {
		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}
	}
	if err := r.handle(tx).WithContext(ctx).Create(&lessons).Error; err != nil {
		return nil, types.Translate(op, err)
	}
	return lessons, nil
}

func (r *lessonRepo) GetByModule(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) ([]*types.Lesson, error) {
	const op = "LessonRepo.GetByModule"

	var results []*types.Lesson
	if err := r.handle(tx).WithContext(ctx).
		Where("module_id = ?", moduleID).
		Order("position ASC").
		Find(&results).Error; err != nil {
		return nil, types.Translate(op, err)
	}
	return results, nil
}

func (r *lessonRepo) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Lesson, error) {
	const op = "LessonRepo.GetByCourse"

	var results []*types.Lesson
	if err := r.handle(tx).WithContext(ctx).
		Model(&types.Lesson{}).
		Select("lesson.*").
		Joins("JOIN course_module ON course_module.id = lesson.module_id").
		Where("course_module.course_id = ? AND course_module.deleted_at IS NULL", courseID).
		Order("course_module.position ASC, lesson.position ASC").
		Find(&results).Error; err != nil {
		return nil, types.Translate(op, err)
	}
	return results, nil
}

func (r *lessonRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	const op = "LessonRepo.SoftDeleteByIDs"

	if len(ids) == 0 {
		return nil
	}
	if err := r.handle(tx).WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.Lesson{}).Error; err != nil {
		return types.Translate(op, err)
	}
	return nil
}
