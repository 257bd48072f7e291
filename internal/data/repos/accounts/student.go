package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/lumenlearn/lms-backend/internal/domain"
	"github.com/lumenlearn/lms-backend/internal/pkg/logger"
)

type StudentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, students []*types.Student) ([]*types.Student, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Student, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.Student, error)
	EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error)
}

type studentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudentRepo(db *gorm.DB, baseLog *logger.Logger) StudentRepo {
	repoLog := baseLog.With("repo", "StudentRepo")
	return &studentRepo{db: db, log: repoLog}
}

func (r *studentRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *studentRepo) Create(ctx context.Context, tx *gorm.DB, students []*types.Student) ([]*types.Student, error) {
	const op = "StudentRepo.Create"

	if len(students) == 0 {
		return []*types.Student{}, nil
	}
	for _, s := range students {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	}
	if err := r.handle(tx).WithContext(ctx).Create(&students).Error; err != nil {
		return nil, types.Translate(op, err)
	}
	return students, nil
}

func (r *studentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Student, error) {
	const op = "StudentRepo.GetByID"

	var s types.Student
	err := r.handle(tx).WithContext(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, types.Translate(op, err)
	}
	return &s, nil
}

func (r *studentRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.Student, error) {
	const op = "StudentRepo.GetByEmail"

	var s types.Student
	err := r.handle(tx).WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, types.Translate(op, err)
	}
	return &s, nil
}

func (r *studentRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	const op = "StudentRepo.EmailExists"

	var count int64
	if err := r.handle(tx).WithContext(ctx).
		Model(&types.Student{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error; err != nil {
		return false, types.Translate(op, err)
	}
	return count > 0, nil
}
