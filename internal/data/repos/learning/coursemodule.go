package learning

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/lumenlearn/lms-backend/internal/domain"
	"github.com/lumenlearn/lms-backend/internal/pkg/logger"
)

type CourseModuleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, modules []*types.CourseModule) ([]*types.CourseModule, error)
	GetByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.CourseModule, error)
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type courseModuleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseModuleRepo(db *gorm.DB, baseLog *logger.Logger) CourseModuleRepo {
	repoLog := baseLog.With("repo", "CourseModuleRepo")
	return &courseModuleRepo{db: db, log: repoLog}
}

func (r *courseModuleRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *courseModuleRepo) Create(ctx context.Context, tx *gorm.DB, modules []*types.CourseModule) ([]*types.CourseModule, error) {
	const op = "CourseModuleRepo.Create"

	if len(modules) == 0 {
		return []*types.CourseModule{}, nil
	}
	for _, m := range modules {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
	}
	if err := r.handle(tx).WithContext(ctx).Create(&modules).Error; err != nil {
		return nil, types.Translate(op, err)
	}
	return modules, nil
}

func (r *courseModuleRepo) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.CourseModule, error) {
	const op = "CourseModuleRepo.GetByCourse"

	var results []*types.CourseModule
	if err := r.handle(tx).WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("position ASC").
		Find(&results).Error; err != nil {
		return nil, types.Translate(op, err)
	}
	return results, nil
}

func (r *courseModuleRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	const op = "CourseModuleRepo.SoftDeleteByIDs"

	if len(ids) == 0 {
		return nil
	}
	if err := r.handle(tx).WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.CourseModule{}).Error; err != nil {
		return types.Translate(op, err)
	}
	return nil
}
