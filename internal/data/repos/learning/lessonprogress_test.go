package learning_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumenlearn/lms-backend/internal/data/cache"
	"github.com/lumenlearn/lms-backend/internal/data/repos/learning"
	"github.com/lumenlearn/lms-backend/internal/data/repos/testutil"
	"github.com/lumenlearn/lms-backend/internal/domain"
	"github.com/lumenlearn/lms-backend/internal/pkg/pointers"
)

type progressFixture struct {
	repo       learning.LessonProgressRepo
	store      *testutil.MemoryStore
	enrollment *domain.Enrollment
	lessons    []*domain.Lesson
}

// newProgressFixture builds a course with the given module layout and an
// active enrollment for a fresh student, all inside a rolled-back tx. The
// repo uses the tx as both handles, so nil-tx calls exercise the cache path.
func newProgressFixture(t *testing.T, ctx context.Context, tx *gorm.DB, lessonsPerModule []int) *progressFixture {
	t.Helper()
	store := testutil.NewMemoryStore()
	repo := learning.NewLessonProgressRepo(tx, tx, store, testutil.Logger(t))

	student := testutil.SeedStudent(t, ctx, tx, uuid.NewString()+"@test.dev")
	course, lessons := testutil.SeedCourseWithLessons(t, ctx, tx, student.ID, lessonsPerModule)
	enrollment := testutil.SeedEnrollment(t, ctx, tx, student.ID, course.ID)

	return &progressFixture{
		repo:       repo,
		store:      store,
		enrollment: enrollment,
		lessons:    lessons,
	}
}

func (f *progressFixture) seedRow(t *testing.T, ctx context.Context, lessonID uuid.UUID, status string) *domain.LessonProgress {
	t.Helper()
	row, err := f.repo.Create(ctx, nil, &domain.LessonProgress{
		EnrollmentID: f.enrollment.ID,
		LessonID:     lessonID,
		Status:       status,
	})
	if err != nil {
		t.Fatalf("seed progress row: %v", err)
	}
	return row
}

func TestLessonProgressCreate(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	f := newProgressFixture(t, ctx, tx, []int{1})

	row, err := f.repo.Create(ctx, nil, &domain.LessonProgress{
		EnrollmentID: f.enrollment.ID,
		LessonID:     f.lessons[0].ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if row.ID == uuid.Nil {
		t.Fatal("expected generated id")
	}
	if row.Status != domain.ProgressStatusNotStarted {
		t.Fatalf("expected default status not_started, got %s", row.Status)
	}

	// Same pair again is a conflict.
	_, err = f.repo.Create(ctx, nil, &domain.LessonProgress{
		EnrollmentID: f.enrollment.ID,
		LessonID:     f.lessons[0].ID,
	})
	if !domain.IsKind(err, domain.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLessonProgressCreateValidation(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	f := newProgressFixture(t, ctx, tx, []int{1})

	_, err := f.repo.Create(ctx, nil, nil)
	if !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected validation for nil row, got %v", err)
	}
	_, err = f.repo.Create(ctx, nil, &domain.LessonProgress{LessonID: f.lessons[0].ID})
	if !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected validation for missing enrollment id, got %v", err)
	}
}

func TestLessonProgressCreateManyAtomic(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	f := newProgressFixture(t, ctx, tx, []int{3})

	rows := []*domain.LessonProgress{
		{EnrollmentID: f.enrollment.ID, LessonID: f.lessons[0].ID},
		{EnrollmentID: f.enrollment.ID, LessonID: f.lessons[1].ID},
		{EnrollmentID: f.enrollment.ID, LessonID: f.lessons[2].ID},
	}
	created, err := f.repo.CreateMany(ctx, nil, rows)
	if err != nil {
		t.Fatalf("create many: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(created))
	}
	for _, row := range created {
		if row.Status != domain.ProgressStatusNotStarted {
			t.Fatalf("expected defaulted status, got %s", row.Status)
		}
	}

	// A batch holding an already-persisted pair fails whole.
	dupBatch := []*domain.LessonProgress{
		{EnrollmentID: f.enrollment.ID, LessonID: f.lessons[0].ID},
	}
	if _, err := f.repo.CreateMany(ctx, nil, dupBatch); !domain.IsKind(err, domain.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	var count int64
	if err := tx.Model(&domain.LessonProgress{}).
		Where("enrollment_id = ?", f.enrollment.ID).
		Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("failed batch must not insert rows, have %d", count)
	}
}

func TestLessonProgressCreateManyEmpty(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	f := newProgressFixture(t, ctx, tx, []int{1})

	created, err := f.repo.CreateMany(ctx, nil, nil)
	if err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if len(created) != 0 {
		t.Fatalf("expected empty result, got %d", len(created))
	}
}

func TestLessonProgressGetByIDMissing(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	f := newProgressFixture(t, ctx, tx, []int{1})

	row, err := f.repo.GetByID(ctx, nil, uuid.New())
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if row != nil {
		t.Fatal("expected nil for missing row")
	}
}

func TestLessonProgressPairLookupPopulatesIDKey(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	f := newProgressFixture(t, ctx, tx, []int{1})
	row := f.seedRow(t, ctx, f.lessons[0].ID, domain.ProgressStatusInProgress)

	got, err := f.repo.GetByEnrollmentAndLesson(ctx, nil, f.enrollment.ID, f.lessons[0].ID)
	if err != nil {
		t.Fatalf("get by pair: %v", err)
	}
	if got == nil || got.ID != row.ID {
		t.Fatalf("unexpected row: %+v", got)
	}

	if !f.store.Has(cache.LessonProgressPairKey(f.enrollment.ID, f.lessons[0].ID)) {
		t.Fatal("pair key not cached")
	}
	if !f.store.Has(cache.LessonProgressIDKey(row.ID)) {
		t.Fatal("pair hit should also populate the id key")
	}
}

func TestLessonProgressPairLookupSeesNewRow(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	f := newProgressFixture(t, ctx, tx, []int{1})

	got, err := f.repo.GetByEnrollmentAndLesson(ctx, nil, f.enrollment.ID, f.lessons[0].ID)
	if err != nil {
		t.Fatalf("get before create: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil before the row exists")
	}

	// The nil result must not stick: creating the row makes the next lookup
	// return it.
	f.seedRow(t, ctx, f.lessons[0].ID, "")
	got, err = f.repo.GetByEnrollmentAndLesson(ctx, nil, f.enrollment.ID, f.lessons[0].ID)
	if err != nil {
		t.Fatalf("get after create: %v", err)
	}
	if got == nil || got.Status != domain.ProgressStatusNotStarted {
		t.Fatalf("expected fresh not_started row, got %+v", got)
	}
}

func TestLessonProgressGetByEnrollmentOrder(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	f := newProgressFixture(t, ctx, tx, []int{3})

	for _, lesson := range f.lessons {
		f.seedRow(t, ctx, lesson.ID, "")
	}

	rows, err := f.repo.GetByEnrollment(ctx, nil, f.enrollment.ID)
	if err != nil {
		t.Fatalf("get by enrollment: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i, lesson := range f.lessons {
		if rows[i].LessonID != lesson.ID {
			t.Fatalf("row %d out of creation order", i)
		}
	}
}

func TestLessonProgressFilteredLists(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	f := newProgressFixture(t, ctx, tx, []int{3})

	f.seedRow(t, ctx, f.lessons[0].ID, domain.ProgressStatusCompleted)
	f.seedRow(t, ctx, f.lessons[1].ID, domain.ProgressStatusInProgress)
	f.seedRow(t, ctx, f.lessons[2].ID, domain.ProgressStatusNotStarted)

	completed, err := f.repo.GetCompletedByEnrollment(ctx, nil, f.enrollment.ID)
	if err != nil {
		t.Fatalf("get completed: %v", err)
	}
	if len(completed) != 1 || completed[0].LessonID != f.lessons[0].ID {
		t.Fatalf("unexpected completed rows: %d", len(completed))
	}

	inProgress, err := f.repo.GetInProgressByEnrollment(ctx, nil, f.enrollment.ID)
	if err != nil {
		t.Fatalf("get in progress: %v", err)
	}
	if len(inProgress) != 1 || inProgress[0].LessonID != f.lessons[1].ID {
		t.Fatalf("unexpected in-progress rows: %d", len(inProgress))
	}
}

func TestLessonProgressUpdateInvalidatesEnrollmentKeys(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	f := newProgressFixture(t, ctx, tx, []int{2})
	row := f.seedRow(t, ctx, f.lessons[0].ID, "")
	f.seedRow(t, ctx, f.lessons[1].ID, "")

	// Prime the caches the update must clear.
	if _, err := f.repo.GetByEnrollment(ctx, nil, f.enrollment.ID); err != nil {
		t.Fatalf("prime list: %v", err)
	}
	if _, err := f.repo.GetProgressSummary(ctx, nil, f.enrollment.ID); err != nil {
		t.Fatalf("prime summary: %v", err)
	}
	if !f.store.Has(cache.ProgressSummaryKey(f.enrollment.ID)) {
		t.Fatal("summary not primed")
	}

	updated, err := f.repo.Update(ctx, nil, row.ID, domain.LessonProgressPatch{
		Status: pointers.String(domain.ProgressStatusCompleted),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != domain.ProgressStatusCompleted {
		t.Fatalf("patch not applied: %s", updated.Status)
	}

	if f.store.Has(cache.LessonProgressByEnrollmentKey(f.enrollment.ID)) {
		t.Fatal("enrollment list survived invalidation")
	}
	if f.store.Has(cache.ProgressSummaryKey(f.enrollment.ID)) {
		t.Fatal("summary survived invalidation")
	}

	summary, err := f.repo.GetProgressSummary(ctx, nil, f.enrollment.ID)
	if err != nil {
		t.Fatalf("summary after update: %v", err)
	}
	if summary.CompletedLessons != 1 {
		t.Fatalf("summary stale after invalidation: %+v", summary)
	}
}

func TestLessonProgressUpdateMissing(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	f := newProgressFixture(t, ctx, tx, []int{1})

	_, err := f.repo.Update(ctx, nil, uuid.New(), domain.LessonProgressPatch{
		Status: pointers.String(domain.ProgressStatusCompleted),
	})
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	_, err = f.repo.UpdateByEnrollmentAndLesson(ctx, nil, f.enrollment.ID, uuid.New(), domain.LessonProgressPatch{})
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found for missing pair, got %v", err)
	}
}

func TestLessonProgressDelete(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	f := newProgressFixture(t, ctx, tx, []int{1})
	row := f.seedRow(t, ctx, f.lessons[0].ID, "")

	if err := f.repo.Delete(ctx, nil, row.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := f.repo.GetByID(ctx, nil, row.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Fatal("row still visible after delete")
	}

	if err := f.repo.Delete(ctx, nil, row.ID); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

// A deleted pair must be creatable again: the delete has to release the
// (enrollment, lesson) slot in the unique index, not just hide the row.
func TestLessonProgressDeleteThenRecreate(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	f := newProgressFixture(t, ctx, tx, []int{1})

	first := f.seedRow(t, ctx, f.lessons[0].ID, domain.ProgressStatusInProgress)
	if err := f.repo.Delete(ctx, nil, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := f.repo.GetByEnrollmentAndLesson(ctx, nil, f.enrollment.ID, f.lessons[0].ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Fatal("pair still resolves after delete")
	}

	recreated, err := f.repo.Create(ctx, nil, &domain.LessonProgress{
		EnrollmentID: f.enrollment.ID,
		LessonID:     f.lessons[0].ID,
	})
	if err != nil {
		t.Fatalf("recreate after delete: %v", err)
	}
	if recreated.ID == first.ID {
		t.Fatal("expected a fresh row")
	}
	if recreated.Status != domain.ProgressStatusNotStarted {
		t.Fatalf("expected default status, got %s", recreated.Status)
	}
}

func TestProgressSummary(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	f := newProgressFixture(t, ctx, tx, []int{4})

	for i, lesson := range f.lessons {
		status := domain.ProgressStatusCompleted
		if i == 3 {
			status = domain.ProgressStatusInProgress
		}
		row := f.seedRow(t, ctx, lesson.ID, status)
		patch := domain.LessonProgressPatch{
			TimeSpentSeconds: pointers.Ptr(100),
		}
		if i == 0 {
			patch.QuizScore = pointers.Float64(80)
		}
		if i == 1 {
			patch.QuizScore = pointers.Float64(85)
		}
		if _, err := f.repo.Update(ctx, nil, row.ID, patch); err != nil {
			t.Fatalf("patch row: %v", err)
		}
	}

	summary, err := f.repo.GetProgressSummary(ctx, nil, f.enrollment.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TotalLessons != 4 || summary.CompletedLessons != 3 ||
		summary.InProgressLessons != 1 || summary.NotStartedLessons != 0 {
		t.Fatalf("unexpected tallies: %+v", summary)
	}
	if summary.TotalTimeSpentSeconds != 400 {
		t.Fatalf("expected 400 seconds, got %d", summary.TotalTimeSpentSeconds)
	}
	if summary.ProgressPercentage != 75 {
		t.Fatalf("expected 75%%, got %d", summary.ProgressPercentage)
	}
	if summary.AverageQuizScore == nil || *summary.AverageQuizScore != 82.5 {
		t.Fatalf("expected average quiz 82.5, got %v", summary.AverageQuizScore)
	}
}

func TestProgressSummaryEmptyEnrollment(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	f := newProgressFixture(t, ctx, tx, []int{1})

	summary, err := f.repo.GetProgressSummary(ctx, nil, f.enrollment.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TotalLessons != 0 || summary.ProgressPercentage != 0 {
		t.Fatalf("expected zeroed summary, got %+v", summary)
	}
	if summary.AverageQuizScore != nil {
		t.Fatal("expected nil average with no scores")
	}
}

func TestModuleProgress(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	// Module 1 holds two lessons, module 2 holds one.
	f := newProgressFixture(t, ctx, tx, []int{2, 1})

	f.seedRow(t, ctx, f.lessons[0].ID, domain.ProgressStatusCompleted)
	f.seedRow(t, ctx, f.lessons[1].ID, domain.ProgressStatusNotStarted)
	f.seedRow(t, ctx, f.lessons[2].ID, domain.ProgressStatusCompleted)

	modules, err := f.repo.GetModuleProgress(ctx, nil, f.enrollment.ID)
	if err != nil {
		t.Fatalf("module progress: %v", err)
	}
	if len(modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(modules))
	}

	first, second := modules[0], modules[1]
	if first.Position != 1 || second.Position != 2 {
		t.Fatal("modules out of position order")
	}
	if first.TotalLessons != 2 || first.CompletedLessons != 1 || first.ProgressPercentage != 50 || first.IsCompleted {
		t.Fatalf("unexpected first module: %+v", first)
	}
	if second.TotalLessons != 1 || second.CompletedLessons != 1 || !second.IsCompleted {
		t.Fatalf("unexpected second module: %+v", second)
	}
}

func TestAreAllLessonsCompleted(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	f := newProgressFixture(t, ctx, tx, []int{2})

	// Zero rows is never complete.
	done, err := f.repo.AreAllLessonsCompleted(ctx, nil, f.enrollment.ID)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if done {
		t.Fatal("enrollment with no rows reported complete")
	}

	f.seedRow(t, ctx, f.lessons[0].ID, domain.ProgressStatusCompleted)
	f.seedRow(t, ctx, f.lessons[1].ID, domain.ProgressStatusInProgress)

	done, err = f.repo.AreAllLessonsCompleted(ctx, nil, f.enrollment.ID)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if done {
		t.Fatal("partially complete enrollment reported complete")
	}

	if _, err := f.repo.UpdateByEnrollmentAndLesson(ctx, nil, f.enrollment.ID, f.lessons[1].ID, domain.LessonProgressPatch{
		Status: pointers.String(domain.ProgressStatusCompleted),
	}); err != nil {
		t.Fatalf("complete last lesson: %v", err)
	}

	done, err = f.repo.AreAllLessonsCompleted(ctx, nil, f.enrollment.ID)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !done {
		t.Fatal("fully complete enrollment not reported complete")
	}
}

func TestGetNextLesson(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	// Three lessons across two modules.
	f := newProgressFixture(t, ctx, tx, []int{2, 1})

	f.seedRow(t, ctx, f.lessons[0].ID, domain.ProgressStatusCompleted)
	f.seedRow(t, ctx, f.lessons[1].ID, domain.ProgressStatusNotStarted)
	f.seedRow(t, ctx, f.lessons[2].ID, domain.ProgressStatusInProgress)

	// In-progress wins over an earlier not-started lesson.
	next, err := f.repo.GetNextLesson(ctx, nil, f.enrollment.ID)
	if err != nil {
		t.Fatalf("next lesson: %v", err)
	}
	if next == nil || next.ID != f.lessons[2].ID {
		t.Fatalf("expected the in-progress lesson, got %+v", next)
	}

	if _, err := f.repo.UpdateByEnrollmentAndLesson(ctx, nil, f.enrollment.ID, f.lessons[2].ID, domain.LessonProgressPatch{
		Status: pointers.String(domain.ProgressStatusCompleted),
	}); err != nil {
		t.Fatalf("complete lesson: %v", err)
	}

	next, err = f.repo.GetNextLesson(ctx, nil, f.enrollment.ID)
	if err != nil {
		t.Fatalf("next lesson: %v", err)
	}
	if next == nil || next.ID != f.lessons[1].ID {
		t.Fatalf("expected first not-started lesson, got %+v", next)
	}

	if _, err := f.repo.UpdateByEnrollmentAndLesson(ctx, nil, f.enrollment.ID, f.lessons[1].ID, domain.LessonProgressPatch{
		Status: pointers.String(domain.ProgressStatusCompleted),
	}); err != nil {
		t.Fatalf("complete lesson: %v", err)
	}

	next, err = f.repo.GetNextLesson(ctx, nil, f.enrollment.ID)
	if err != nil {
		t.Fatalf("next lesson: %v", err)
	}
	if next != nil {
		t.Fatalf("expected nil when everything is complete, got %+v", next)
	}
}

func TestInvalidateCacheByEnrollment(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	f := newProgressFixture(t, ctx, tx, []int{1})
	f.seedRow(t, ctx, f.lessons[0].ID, "")

	if _, err := f.repo.GetByEnrollment(ctx, nil, f.enrollment.ID); err != nil {
		t.Fatalf("prime: %v", err)
	}
	if _, err := f.repo.GetProgressSummary(ctx, nil, f.enrollment.ID); err != nil {
		t.Fatalf("prime: %v", err)
	}

	f.repo.InvalidateCacheByEnrollment(ctx, f.enrollment.ID)

	if f.store.Has(cache.LessonProgressByEnrollmentKey(f.enrollment.ID)) ||
		f.store.Has(cache.ProgressSummaryKey(f.enrollment.ID)) {
		t.Fatal("enrollment-scoped keys survived pattern invalidation")
	}
}
