package learning

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumenlearn/lms-backend/internal/data/cache"
	types "github.com/lumenlearn/lms-backend/internal/domain"
	"github.com/lumenlearn/lms-backend/internal/pkg/logger"
)

// EnrollmentRepo manages the enrollment lifecycle. Soft delete transitions
// status to dropped and keeps the row; HardDelete physically removes it and
// is reserved for administrative cleanup.
type EnrollmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, e *types.Enrollment) (*types.Enrollment, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Enrollment, error)
	GetByStudentAndCourse(ctx context.Context, tx *gorm.DB, studentID, courseID uuid.UUID) (*types.Enrollment, error)
	GetByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, filter types.EnrollmentFilter) ([]*types.Enrollment, error)
	GetByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, filter types.EnrollmentFilter) ([]*types.Enrollment, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, patch types.EnrollmentPatch) (*types.Enrollment, error)
	SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	HardDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	GetActiveEnrollmentCount(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error)
	GetCompletedEnrollmentCount(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error)
	FindEligibleForCompletion(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Enrollment, error)
	InvalidateCache(ctx context.Context, e *types.Enrollment)
}

type enrollmentRepo struct {
	db     *gorm.DB
	readDB *gorm.DB
	store  cache.Store
	inv    *cache.Invalidator
	log    *logger.Logger
}

func NewEnrollmentRepo(db, readDB *gorm.DB, store cache.Store, baseLog *logger.Logger) EnrollmentRepo {
	repoLog := baseLog.With("repo", "EnrollmentRepo")
	return &enrollmentRepo{
		db:     db,
		readDB: readDB,
		store:  store,
		inv:    cache.NewInvalidator(store, repoLog),
		log:    repoLog,
	}
}

func (r *enrollmentRepo) writer(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *enrollmentRepo) reader(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.readDB
}

func (r *enrollmentRepo) cacheFor(tx *gorm.DB) cache.Store {
	if tx != nil {
		return nil
	}
	return r.store
}

// Create rejects a second non-dropped enrollment for the same (student,
// course) pair as a conflict.
func (r *enrollmentRepo) Create(ctx context.Context, tx *gorm.DB, e *types.Enrollment) (*types.Enrollment, error) {
	const op = "EnrollmentRepo.Create"

	if e == nil {
		return nil, types.NewValidation(op, "enrollment required")
	}
	if e.StudentID == uuid.Nil {
		return nil, types.NewValidation(op, "student id required")
	}
	if e.CourseID == uuid.Nil {
		return nil, types.NewValidation(op, "course id required")
	}

	w := r.writer(tx)
	var count int64
	if err := w.WithContext(ctx).
		Model(&types.Enrollment{}).
		Where("student_id = ? AND course_id = ? AND status <> ?", e.StudentID, e.CourseID, types.EnrollmentStatusDropped).
		Count(&count).Error; err != nil {
		return nil, types.Translate(op, err)
	}
	if count > 0 {
		return nil, types.NewConflict(op, "student already enrolled in course")
	}

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == "" {
		e.Status = types.EnrollmentStatusActive
	}

	if err := w.WithContext(ctx).Create(e).Error; err != nil {
		return nil, types.Translate(op, err)
	}

	r.InvalidateCache(ctx, e)
	return e, nil
}

func (r *enrollmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Enrollment, error) {
	const op = "EnrollmentRepo.GetByID"

	return cache.LookupPtr(ctx, r.cacheFor(tx), r.log, cache.EnrollmentIDKey(id), cache.TTLRecord,
		func(ctx context.Context) (*types.Enrollment, error) {
			var e types.Enrollment
			err := r.reader(tx).WithContext(ctx).Where("id = ?", id).First(&e).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			if err != nil {
				return nil, types.Translate(op, err)
			}
			return &e, nil
		})
}

// GetByStudentAndCourse resolves the current (non-dropped) enrollment for
// the pair, or nil when the student is not enrolled.
func (r *enrollmentRepo) GetByStudentAndCourse(ctx context.Context, tx *gorm.DB, studentID, courseID uuid.UUID) (*types.Enrollment, error) {
	const op = "EnrollmentRepo.GetByStudentAndCourse"

	store := r.cacheFor(tx)
	e, err := cache.LookupPtr(ctx, store, r.log, cache.EnrollmentPairKey(studentID, courseID), cache.TTLRecord,
		func(ctx context.Context) (*types.Enrollment, error) {
			var e types.Enrollment
			err := r.reader(tx).WithContext(ctx).
				Where("student_id = ? AND course_id = ? AND status <> ?", studentID, courseID, types.EnrollmentStatusDropped).
				First(&e).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			if err != nil {
				return nil, types.Translate(op, err)
			}
			return &e, nil
		})
	if err != nil || e == nil {
		return e, err
	}

	if store != nil {
		if err := store.Set(ctx, cache.EnrollmentIDKey(e.ID), e, cache.TTLRecord); err != nil {
			r.log.Warn("cache set failed", "key", cache.EnrollmentIDKey(e.ID), "error", err)
		}
	}
	return e, nil
}

func (r *enrollmentRepo) GetByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, filter types.EnrollmentFilter) ([]*types.Enrollment, error) {
	const op = "EnrollmentRepo.GetByStudent"

	key := cache.EnrollmentsByStudentKey(studentID, filter.CacheToken())
	return cache.Lookup(ctx, r.cacheFor(tx), r.log, key, cache.TTLList,
		func(ctx context.Context) ([]*types.Enrollment, error) {
			q := r.listQuery(r.reader(tx).WithContext(ctx), filter).
				Where("student_id = ?", studentID)
			var rows []*types.Enrollment
			if err := q.Find(&rows).Error; err != nil {
				return nil, types.Translate(op, err)
			}
			return rows, nil
		})
}

func (r *enrollmentRepo) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, filter types.EnrollmentFilter) ([]*types.Enrollment, error) {
	const op = "EnrollmentRepo.GetByCourse"

	key := cache.EnrollmentsByCourseKey(courseID, filter.CacheToken())
	return cache.Lookup(ctx, r.cacheFor(tx), r.log, key, cache.TTLList,
		func(ctx context.Context) ([]*types.Enrollment, error) {
			q := r.listQuery(r.reader(tx).WithContext(ctx), filter).
				Where("course_id = ?", courseID)
			var rows []*types.Enrollment
			if err := q.Find(&rows).Error; err != nil {
				return nil, types.Translate(op, err)
			}
			return rows, nil
		})
}

func (r *enrollmentRepo) listQuery(q *gorm.DB, filter types.EnrollmentFilter) *gorm.DB {
	q = q.Model(&types.Enrollment{}).Order("created_at ASC, id ASC")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.CourseID != nil {
		q = q.Where("course_id = ?", *filter.CourseID)
	}
	if filter.StudentID != nil {
		q = q.Where("student_id = ?", *filter.StudentID)
	}
	if filter.CompletedFrom != nil {
		q = q.Where("completed_at >= ?", *filter.CompletedFrom)
	}
	if filter.CompletedTo != nil {
		q = q.Where("completed_at <= ?", *filter.CompletedTo)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	return q
}

func (r *enrollmentRepo) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, patch types.EnrollmentPatch) (*types.Enrollment, error) {
	const op = "EnrollmentRepo.Update"

	w := r.writer(tx)
	var e types.Enrollment
	err := w.WithContext(ctx).Where("id = ?", id).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NewNotFound(op, "enrollment not found")
	}
	if err != nil {
		return nil, types.Translate(op, err)
	}

	fields := patch.Fields()
	if len(fields) > 0 {
		fields["updated_at"] = time.Now()
		if err := w.WithContext(ctx).Model(&e).Updates(fields).Error; err != nil {
			return nil, types.Translate(op, err)
		}
		if err := w.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
			return nil, types.Translate(op, err)
		}
	}

	r.InvalidateCache(ctx, &e)
	return &e, nil
}

// SoftDelete drops the enrollment: status moves to dropped, the row stays.
func (r *enrollmentRepo) SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	const op = "EnrollmentRepo.SoftDelete"

	w := r.writer(tx)
	var e types.Enrollment
	err := w.WithContext(ctx).Where("id = ?", id).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.NewNotFound(op, "enrollment not found")
	}
	if err != nil {
		return types.Translate(op, err)
	}

	if err := w.WithContext(ctx).Model(&e).Updates(map[string]interface{}{
		"status":     types.EnrollmentStatusDropped,
		"updated_at": time.Now(),
	}).Error; err != nil {
		return types.Translate(op, err)
	}

	r.InvalidateCache(ctx, &e)
	return nil
}

func (r *enrollmentRepo) HardDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	const op = "EnrollmentRepo.HardDelete"

	w := r.writer(tx)
	var e types.Enrollment
	err := w.WithContext(ctx).Unscoped().Where("id = ?", id).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.NewNotFound(op, "enrollment not found")
	}
	if err != nil {
		return types.Translate(op, err)
	}

	if err := w.WithContext(ctx).Unscoped().Delete(&e).Error; err != nil {
		return types.Translate(op, err)
	}

	r.InvalidateCache(ctx, &e)
	return nil
}

func (r *enrollmentRepo) GetActiveEnrollmentCount(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error) {
	return r.countByStatus(ctx, tx, "EnrollmentRepo.GetActiveEnrollmentCount", courseID, types.EnrollmentStatusActive)
}

func (r *enrollmentRepo) GetCompletedEnrollmentCount(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error) {
	return r.countByStatus(ctx, tx, "EnrollmentRepo.GetCompletedEnrollmentCount", courseID, types.EnrollmentStatusCompleted)
}

func (r *enrollmentRepo) countByStatus(ctx context.Context, tx *gorm.DB, op string, courseID uuid.UUID, status string) (int64, error) {
	var count int64
	if err := r.reader(tx).WithContext(ctx).
		Model(&types.Enrollment{}).
		Where("course_id = ? AND status = ?", courseID, status).
		Count(&count).Error; err != nil {
		return 0, types.Translate(op, err)
	}
	return count, nil
}

// FindEligibleForCompletion scans for enrollments whose progress rows are
// all completed (and where at least one row exists) but whose own status has
// not yet transitioned.
func (r *enrollmentRepo) FindEligibleForCompletion(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Enrollment, error) {
	const op = "EnrollmentRepo.FindEligibleForCompletion"

	q := r.reader(tx).WithContext(ctx).
		Model(&types.Enrollment{}).
		Where("status = ?", types.EnrollmentStatusActive).
		Where(`EXISTS (
			SELECT 1 FROM lesson_progress lp
			WHERE lp.enrollment_id = enrollment.id AND lp.deleted_at IS NULL
		)`).
		Where(`NOT EXISTS (
			SELECT 1 FROM lesson_progress lp
			WHERE lp.enrollment_id = enrollment.id AND lp.deleted_at IS NULL AND lp.status <> ?
		)`, types.ProgressStatusCompleted).
		Order("updated_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []*types.Enrollment
	if err := q.Find(&rows).Error; err != nil {
		return nil, types.Translate(op, err)
	}
	return rows, nil
}

func (r *enrollmentRepo) InvalidateCache(ctx context.Context, e *types.Enrollment) {
	r.inv.Invalidate(ctx, cache.EnrollmentScope(e))
}
