package cache

import (
	"context"

	"github.com/lumenlearn/lms-backend/internal/domain"
	"github.com/lumenlearn/lms-backend/internal/pkg/logger"
)

// Scope is the set of cache entries that may reference a mutated entity:
// exact keys where the key is fully known, patterns where the key space is
// parametrized (paginated/filtered listings).
type Scope struct {
	Keys     []string
	Patterns []string
}

func (s Scope) Merge(other Scope) Scope {
	return Scope{
		Keys:     append(append([]string{}, s.Keys...), other.Keys...),
		Patterns: append(append([]string{}, s.Patterns...), other.Patterns...),
	}
}

// LessonProgressScope expands every cache entry a lesson-progress mutation
// can invalidate: the record by id, by its (enrollment, lesson) pair, the
// lesson's list, and everything under the enrollment prefix (full list,
// filtered lists, summary, module breakdown).
func LessonProgressScope(row *domain.LessonProgress) Scope {
	if row == nil {
		return Scope{}
	}
	return Scope{
		Keys: []string{
			LessonProgressIDKey(row.ID),
			LessonProgressPairKey(row.EnrollmentID, row.LessonID),
			LessonProgressByLessonKey(row.LessonID),
		},
		Patterns: []string{
			LessonProgressEnrollmentPattern(row.EnrollmentID),
		},
	}
}

// EnrollmentScope expands every cache entry an enrollment mutation can
// invalidate, including the student's and course's paginated listings.
func EnrollmentScope(e *domain.Enrollment) Scope {
	if e == nil {
		return Scope{}
	}
	return Scope{
		Keys: []string{
			EnrollmentIDKey(e.ID),
			EnrollmentPairKey(e.StudentID, e.CourseID),
		},
		Patterns: []string{
			EnrollmentsByStudentPattern(e.StudentID),
			EnrollmentsByCoursePattern(e.CourseID),
		},
	}
}

// Invalidator fans scope deletion out to the store. Failures are logged and
// swallowed: a stale cache entry is an acceptable degraded state, a failed
// write is not.
type Invalidator struct {
	store Store
	log   *logger.Logger
}

func NewInvalidator(store Store, log *logger.Logger) *Invalidator {
	return &Invalidator{store: store, log: log.With("component", "CacheInvalidator")}
}

func (i *Invalidator) Invalidate(ctx context.Context, scope Scope) {
	if i == nil || i.store == nil {
		return
	}
	if len(scope.Keys) > 0 {
		if err := i.store.Delete(ctx, scope.Keys...); err != nil {
			i.log.Warn("cache key invalidation failed", "keys", scope.Keys, "error", err)
		}
	}
	for _, pattern := range scope.Patterns {
		if err := i.store.DeletePattern(ctx, pattern); err != nil {
			i.log.Warn("cache pattern invalidation failed", "pattern", pattern, "error", err)
		}
	}
}
