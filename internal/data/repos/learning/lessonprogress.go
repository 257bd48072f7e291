package learning

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumenlearn/lms-backend/internal/data/cache"
	types "github.com/lumenlearn/lms-backend/internal/domain"
	"github.com/lumenlearn/lms-backend/internal/pkg/logger"
)

// LessonProgressRepo is the sole authority over lesson_progress rows and the
// aggregates derived from them. Reads passed a non-nil tx bypass the cache
// and run inside that transaction; nil-tx reads are read-through cached
// against the read handle.
type LessonProgressRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.LessonProgress) (*types.LessonProgress, error)
	CreateMany(ctx context.Context, tx *gorm.DB, rows []*types.LessonProgress) ([]*types.LessonProgress, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.LessonProgress, error)
	GetByEnrollmentAndLesson(ctx context.Context, tx *gorm.DB, enrollmentID, lessonID uuid.UUID) (*types.LessonProgress, error)
	GetByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) ([]*types.LessonProgress, error)
	GetByLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) ([]*types.LessonProgress, error)
	GetCompletedByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) ([]*types.LessonProgress, error)
	GetInProgressByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) ([]*types.LessonProgress, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, patch types.LessonProgressPatch) (*types.LessonProgress, error)
	UpdateByEnrollmentAndLesson(ctx context.Context, tx *gorm.DB, enrollmentID, lessonID uuid.UUID, patch types.LessonProgressPatch) (*types.LessonProgress, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	GetProgressSummary(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) (*types.ProgressSummary, error)
	GetModuleProgress(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) ([]*types.ModuleProgress, error)
	AreAllLessonsCompleted(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) (bool, error)
	GetNextLesson(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) (*types.Lesson, error)
	InvalidateCache(ctx context.Context, row *types.LessonProgress)
	InvalidateCacheByEnrollment(ctx context.Context, enrollmentID uuid.UUID)
	InvalidateCacheByLesson(ctx context.Context, lessonID uuid.UUID)
}

type lessonProgressRepo struct {
	db     *gorm.DB
	readDB *gorm.DB
	store  cache.Store
	inv    *cache.Invalidator
	log    *logger.Logger
}

func NewLessonProgressRepo(db, readDB *gorm.DB, store cache.Store, baseLog *logger.Logger) LessonProgressRepo {
	repoLog := baseLog.With("repo", "LessonProgressRepo")
	return &lessonProgressRepo{
		db:     db,
		readDB: readDB,
		store:  store,
		inv:    cache.NewInvalidator(store, repoLog),
		log:    repoLog,
	}
}

func (r *lessonProgressRepo) writer(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *lessonProgressRepo) reader(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.readDB
}

// cacheFor disables the cache for transactional reads: rows visible inside
// an uncommitted transaction must never be served from or written to the
// shared cache.
func (r *lessonProgressRepo) cacheFor(tx *gorm.DB) cache.Store {
	if tx != nil {
		return nil
	}
	return r.store
}

func (r *lessonProgressRepo) Create(ctx context.Context, tx *gorm.DB, row *types.LessonProgress) (*types.LessonProgress, error) {
	const op = "LessonProgressRepo.Create"

	if row == nil {
		return nil, types.NewValidation(op, "row required")
	}
	if row.EnrollmentID == uuid.Nil {
		return nil, types.NewValidation(op, "enrollment id required")
	}
	if row.LessonID == uuid.Nil {
		return nil, types.NewValidation(op, "lesson id required")
	}

	w := r.writer(tx)
	var count int64
	if err := w.WithContext(ctx).
		Model(&types.LessonProgress{}).
		Where("enrollment_id = ? AND lesson_id = ?", row.EnrollmentID, row.LessonID).
		Count(&count).Error; err != nil {
		return nil, types.Translate(op, err)
	}
	if count > 0 {
		return nil, types.NewConflict(op, "progress row already exists for enrollment and lesson")
	}

	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.Status == "" {
		row.Status = types.ProgressStatusNotStarted
	}

	if err := w.WithContext(ctx).Create(row).Error; err != nil {
		return nil, types.Translate(op, err)
	}

	r.InvalidateCache(ctx, row)
	return row, nil
}

// CreateMany bulk-inserts inside a single transaction; any unique-constraint
// violation aborts the whole batch.
func (r *lessonProgressRepo) CreateMany(ctx context.Context, tx *gorm.DB, rows []*types.LessonProgress) ([]*types.LessonProgress, error) {
	const op = "LessonProgressRepo.CreateMany"

	if len(rows) == 0 {
		return []*types.LessonProgress{}, nil
	}
	for _, row := range rows {
		if row == nil {
			return nil, types.NewValidation(op, "nil row in batch")
		}
		if row.EnrollmentID == uuid.Nil || row.LessonID == uuid.Nil {
			return nil, types.NewValidation(op, "enrollment id and lesson id required for every row")
		}
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.Status == "" {
			row.Status = types.ProgressStatusNotStarted
		}
	}

	insert := func(txn *gorm.DB) error {
		return txn.WithContext(ctx).Create(&rows).Error
	}

	var err error
	if tx != nil {
		err = insert(tx)
	} else {
		err = r.db.WithContext(ctx).Transaction(insert)
	}
	if err != nil {
		return nil, types.Translate(op, err)
	}

	scope := cache.Scope{}
	seenEnrollment := map[uuid.UUID]bool{}
	for _, row := range rows {
		if seenEnrollment[row.EnrollmentID] {
			scope = scope.Merge(cache.Scope{Keys: []string{
				cache.LessonProgressIDKey(row.ID),
				cache.LessonProgressPairKey(row.EnrollmentID, row.LessonID),
				cache.LessonProgressByLessonKey(row.LessonID),
			}})
			continue
		}
		seenEnrollment[row.EnrollmentID] = true
		scope = scope.Merge(cache.LessonProgressScope(row))
	}
	r.inv.Invalidate(ctx, scope)

	return rows, nil
}

func (r *lessonProgressRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.LessonProgress, error) {
	const op = "LessonProgressRepo.GetByID"

	return cache.LookupPtr(ctx, r.cacheFor(tx), r.log, cache.LessonProgressIDKey(id), cache.TTLRecord,
		func(ctx context.Context) (*types.LessonProgress, error) {
			var row types.LessonProgress
			err := r.reader(tx).WithContext(ctx).Where("id = ?", id).First(&row).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			if err != nil {
				return nil, types.Translate(op, err)
			}
			return &row, nil
		})
}

func (r *lessonProgressRepo) GetByEnrollmentAndLesson(ctx context.Context, tx *gorm.DB, enrollmentID, lessonID uuid.UUID) (*types.LessonProgress, error) {
	const op = "LessonProgressRepo.GetByEnrollmentAndLesson"

	store := r.cacheFor(tx)
	row, err := cache.LookupPtr(ctx, store, r.log, cache.LessonProgressPairKey(enrollmentID, lessonID), cache.TTLRecord,
		func(ctx context.Context) (*types.LessonProgress, error) {
			var row types.LessonProgress
			err := r.reader(tx).WithContext(ctx).
				Where("enrollment_id = ? AND lesson_id = ?", enrollmentID, lessonID).
				First(&row).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			if err != nil {
				return nil, types.Translate(op, err)
			}
			return &row, nil
		})
	if err != nil || row == nil {
		return row, err
	}

	// Keep the id-keyed entry consistent with the pair-keyed one.
	if store != nil {
		if err := store.Set(ctx, cache.LessonProgressIDKey(row.ID), row, cache.TTLRecord); err != nil {
			r.log.Warn("cache set failed", "key", cache.LessonProgressIDKey(row.ID), "error", err)
		}
	}
	return row, nil
}

func (r *lessonProgressRepo) GetByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) ([]*types.LessonProgress, error) {
	const op = "LessonProgressRepo.GetByEnrollment"

	return cache.Lookup(ctx, r.cacheFor(tx), r.log, cache.LessonProgressByEnrollmentKey(enrollmentID), cache.TTLList,
		func(ctx context.Context) ([]*types.LessonProgress, error) {
			var rows []*types.LessonProgress
			if err := r.reader(tx).WithContext(ctx).
				Where("enrollment_id = ?", enrollmentID).
				Order("created_at ASC, id ASC").
				Find(&rows).Error; err != nil {
				return nil, types.Translate(op, err)
			}
			return rows, nil
		})
}

func (r *lessonProgressRepo) GetByLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) ([]*types.LessonProgress, error) {
	const op = "LessonProgressRepo.GetByLesson"

	return cache.Lookup(ctx, r.cacheFor(tx), r.log, cache.LessonProgressByLessonKey(lessonID), cache.TTLList,
		func(ctx context.Context) ([]*types.LessonProgress, error) {
			var rows []*types.LessonProgress
			if err := r.reader(tx).WithContext(ctx).
				Where("lesson_id = ?", lessonID).
				Order("created_at ASC, id ASC").
				Find(&rows).Error; err != nil {
				return nil, types.Translate(op, err)
			}
			return rows, nil
		})
}

func (r *lessonProgressRepo) GetCompletedByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) ([]*types.LessonProgress, error) {
	const op = "LessonProgressRepo.GetCompletedByEnrollment"

	return cache.Lookup(ctx, r.cacheFor(tx), r.log, cache.LessonProgressCompletedKey(enrollmentID), cache.TTLList,
		func(ctx context.Context) ([]*types.LessonProgress, error) {
			var rows []*types.LessonProgress
			if err := r.reader(tx).WithContext(ctx).
				Where("enrollment_id = ? AND status = ?", enrollmentID, types.ProgressStatusCompleted).
				Order("completed_at ASC").
				Find(&rows).Error; err != nil {
				return nil, types.Translate(op, err)
			}
			return rows, nil
		})
}

func (r *lessonProgressRepo) GetInProgressByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) ([]*types.LessonProgress, error) {
	const op = "LessonProgressRepo.GetInProgressByEnrollment"

	return cache.Lookup(ctx, r.cacheFor(tx), r.log, cache.LessonProgressInProgressKey(enrollmentID), cache.TTLList,
		func(ctx context.Context) ([]*types.LessonProgress, error) {
			var rows []*types.LessonProgress
			if err := r.reader(tx).WithContext(ctx).
				Where("enrollment_id = ? AND status = ?", enrollmentID, types.ProgressStatusInProgress).
				Order("last_accessed_at DESC").
				Find(&rows).Error; err != nil {
				return nil, types.Translate(op, err)
			}
			return rows, nil
		})
}

func (r *lessonProgressRepo) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, patch types.LessonProgressPatch) (*types.LessonProgress, error) {
	const op = "LessonProgressRepo.Update"

	w := r.writer(tx)
	var row types.LessonProgress
	err := w.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NewNotFound(op, "lesson progress not found")
	}
	if err != nil {
		return nil, types.Translate(op, err)
	}

	return r.applyPatch(ctx, w, op, &row, patch)
}

func (r *lessonProgressRepo) UpdateByEnrollmentAndLesson(ctx context.Context, tx *gorm.DB, enrollmentID, lessonID uuid.UUID, patch types.LessonProgressPatch) (*types.LessonProgress, error) {
	const op = "LessonProgressRepo.UpdateByEnrollmentAndLesson"

	w := r.writer(tx)
	var row types.LessonProgress
	err := w.WithContext(ctx).
		Where("enrollment_id = ? AND lesson_id = ?", enrollmentID, lessonID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NewNotFound(op, "lesson progress not found for enrollment and lesson")
	}
	if err != nil {
		return nil, types.Translate(op, err)
	}

	return r.applyPatch(ctx, w, op, &row, patch)
}

func (r *lessonProgressRepo) applyPatch(ctx context.Context, w *gorm.DB, op string, row *types.LessonProgress, patch types.LessonProgressPatch) (*types.LessonProgress, error) {
	fields := patch.Fields()
	if len(fields) > 0 {
		fields["updated_at"] = time.Now()
		if err := w.WithContext(ctx).Model(row).Updates(fields).Error; err != nil {
			return nil, types.Translate(op, err)
		}
		if err := w.WithContext(ctx).Where("id = ?", row.ID).First(row).Error; err != nil {
			return nil, types.Translate(op, err)
		}
	}

	r.InvalidateCache(ctx, row)
	return row, nil
}

// Delete physically removes the row. A deleted pair must free its slot in
// the (enrollment, lesson) unique index so the pair can be re-created.
func (r *lessonProgressRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	const op = "LessonProgressRepo.Delete"

	w := r.writer(tx)
	var row types.LessonProgress
	err := w.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.NewNotFound(op, "lesson progress not found")
	}
	if err != nil {
		return types.Translate(op, err)
	}

	if err := w.WithContext(ctx).Unscoped().Delete(&row).Error; err != nil {
		return types.Translate(op, err)
	}

	r.InvalidateCache(ctx, &row)
	return nil
}

type progressTally struct {
	Total      int
	Completed  int
	InProgress int
	NotStarted int
	TimeSpent  int
	AvgQuiz    *float64
}

func (r *lessonProgressRepo) GetProgressSummary(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) (*types.ProgressSummary, error) {
	const op = "LessonProgressRepo.GetProgressSummary"

	return cache.LookupPtr(ctx, r.cacheFor(tx), r.log, cache.ProgressSummaryKey(enrollmentID), cache.TTLAggregate,
		func(ctx context.Context) (*types.ProgressSummary, error) {
			var tally progressTally
			if err := r.reader(tx).WithContext(ctx).
				Model(&types.LessonProgress{}).
				Select(`COUNT(*) AS total,
					COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed,
					COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS in_progress,
					COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS not_started,
					COALESCE(SUM(time_spent_seconds), 0) AS time_spent,
					AVG(quiz_score) AS avg_quiz`,
					types.ProgressStatusCompleted,
					types.ProgressStatusInProgress,
					types.ProgressStatusNotStarted).
				Where("enrollment_id = ?", enrollmentID).
				Scan(&tally).Error; err != nil {
				return nil, types.Translate(op, err)
			}

			summary := &types.ProgressSummary{
				EnrollmentID:          enrollmentID,
				TotalLessons:          tally.Total,
				CompletedLessons:      tally.Completed,
				InProgressLessons:     tally.InProgress,
				NotStartedLessons:     tally.NotStarted,
				TotalTimeSpentSeconds: tally.TimeSpent,
				ProgressPercentage:    percentage(tally.Completed, tally.Total),
			}
			if tally.AvgQuiz != nil {
				rounded := math.Round(*tally.AvgQuiz*100) / 100
				summary.AverageQuizScore = &rounded
			}
			return summary, nil
		})
}

type moduleTally struct {
	ModuleID  uuid.UUID
	Title     string
	Position  int
	Total     int
	Completed int
}

func (r *lessonProgressRepo) GetModuleProgress(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) ([]*types.ModuleProgress, error) {
	const op = "LessonProgressRepo.GetModuleProgress"

	return cache.Lookup(ctx, r.cacheFor(tx), r.log, cache.ModuleProgressKey(enrollmentID), cache.TTLAggregate,
		func(ctx context.Context) ([]*types.ModuleProgress, error) {
			var tallies []moduleTally
			// Table() bypasses the soft-delete scope, so it is restored by hand
			// for each joined table.
			if err := r.reader(tx).WithContext(ctx).
				Table("lesson_progress").
				Select(`course_module.id AS module_id,
					course_module.title AS title,
					course_module.position AS position,
					COUNT(*) AS total,
					COALESCE(SUM(CASE WHEN lesson_progress.status = ? THEN 1 ELSE 0 END), 0) AS completed`,
					types.ProgressStatusCompleted).
				Joins("JOIN lesson ON lesson.id = lesson_progress.lesson_id").
				Joins("JOIN course_module ON course_module.id = lesson.module_id").
				Where(`lesson_progress.enrollment_id = ?
					AND lesson_progress.deleted_at IS NULL
					AND lesson.deleted_at IS NULL
					AND course_module.deleted_at IS NULL`, enrollmentID).
				Group("course_module.id, course_module.title, course_module.position").
				Order("course_module.position ASC").
				Scan(&tallies).Error; err != nil {
				return nil, types.Translate(op, err)
			}

			results := make([]*types.ModuleProgress, 0, len(tallies))
			for _, t := range tallies {
				results = append(results, &types.ModuleProgress{
					ModuleID:           t.ModuleID,
					Title:              t.Title,
					Position:           t.Position,
					TotalLessons:       t.Total,
					CompletedLessons:   t.Completed,
					ProgressPercentage: percentage(t.Completed, t.Total),
					IsCompleted:        t.Total > 0 && t.Completed == t.Total,
				})
			}
			return results, nil
		})
}

// AreAllLessonsCompleted reports whether every progress row of the
// enrollment is completed. An enrollment with zero rows is never complete.
func (r *lessonProgressRepo) AreAllLessonsCompleted(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) (bool, error) {
	const op = "LessonProgressRepo.AreAllLessonsCompleted"

	var tally struct {
		Total     int
		Completed int
	}
	if err := r.reader(tx).WithContext(ctx).
		Model(&types.LessonProgress{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed`,
			types.ProgressStatusCompleted).
		Where("enrollment_id = ?", enrollmentID).
		Scan(&tally).Error; err != nil {
		return false, types.Translate(op, err)
	}
	return tally.Total > 0 && tally.Completed == tally.Total, nil
}

// GetNextLesson returns the first in-progress lesson in module/lesson order,
// falling back to the first not-started one, or nil when all are complete.
func (r *lessonProgressRepo) GetNextLesson(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) (*types.Lesson, error) {
	const op = "LessonProgressRepo.GetNextLesson"

	for _, status := range []string{types.ProgressStatusInProgress, types.ProgressStatusNotStarted} {
		var lesson types.Lesson
		err := r.reader(tx).WithContext(ctx).
			Model(&types.Lesson{}).
			Select("lesson.*").
			Joins("JOIN lesson_progress ON lesson_progress.lesson_id = lesson.id").
			Joins("JOIN course_module ON course_module.id = lesson.module_id").
			Where(`lesson_progress.enrollment_id = ?
				AND lesson_progress.status = ?
				AND lesson_progress.deleted_at IS NULL
				AND course_module.deleted_at IS NULL`, enrollmentID, status).
			Order("course_module.position ASC, lesson.position ASC").
			First(&lesson).Error
		if err == nil {
			return &lesson, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.Translate(op, err)
		}
	}
	return nil, nil
}

func (r *lessonProgressRepo) InvalidateCache(ctx context.Context, row *types.LessonProgress) {
	r.inv.Invalidate(ctx, cache.LessonProgressScope(row))
}

func (r *lessonProgressRepo) InvalidateCacheByEnrollment(ctx context.Context, enrollmentID uuid.UUID) {
	r.inv.Invalidate(ctx, cache.Scope{
		Patterns: []string{cache.LessonProgressEnrollmentPattern(enrollmentID)},
	})
}

func (r *lessonProgressRepo) InvalidateCacheByLesson(ctx context.Context, lessonID uuid.UUID) {
	r.inv.Invalidate(ctx, cache.Scope{
		Keys: []string{cache.LessonProgressByLessonKey(lessonID)},
	})
}

func percentage(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
