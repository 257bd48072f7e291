package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumenlearn/lms-backend/internal/data/repos/testutil"
	"github.com/lumenlearn/lms-backend/internal/domain"
)

func enrolledFixture(t *testing.T, ctx context.Context, tx *gorm.DB, lessonsPerModule []int) (*serviceFixture, *domain.Enrollment, []*domain.Lesson) {
	t.Helper()
	f := newServiceFixture(t, tx)
	student := testutil.SeedStudent(t, ctx, tx, uuid.NewString()+"@test.dev")
	course, lessons := testutil.SeedCourseWithLessons(t, ctx, tx, student.ID, lessonsPerModule)
	enrollment, err := f.enrollmentSvc.Enroll(ctx, student.ID, course.ID)
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	return f, enrollment, lessons
}

func TestStartLesson(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	f, enrollment, lessons := enrolledFixture(t, ctx, tx, []int{2})

	row, err := f.progressSvc.StartLesson(ctx, enrollment.ID, lessons[0].ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if row.Status != domain.ProgressStatusInProgress {
		t.Fatalf("expected in_progress, got %s", row.Status)
	}
	if row.LastAccessedAt == nil {
		t.Fatal("expected last_accessed_at to be set")
	}

	// Starting an unknown pair is not found.
	if _, err := f.progressSvc.StartLesson(ctx, enrollment.ID, uuid.New()); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStartLessonDoesNotReopenCompleted(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	f, enrollment, lessons := enrolledFixture(t, ctx, tx, []int{1})

	if _, err := f.progressSvc.CompleteLesson(ctx, enrollment.ID, lessons[0].ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	row, err := f.progressSvc.StartLesson(ctx, enrollment.ID, lessons[0].ID)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if row.Status != domain.ProgressStatusCompleted {
		t.Fatalf("completed lesson must stay completed, got %s", row.Status)
	}
}

func TestCompleteLessonRecalculatesEnrollment(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	f, enrollment, lessons := enrolledFixture(t, ctx, tx, []int{4})

	row, err := f.progressSvc.CompleteLesson(ctx, enrollment.ID, lessons[0].ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if row.Status != domain.ProgressStatusCompleted || row.CompletedAt == nil {
		t.Fatalf("unexpected row after completion: %+v", row)
	}

	e, err := f.enrollmentSvc.Get(ctx, enrollment.ID)
	if err != nil {
		t.Fatalf("get enrollment: %v", err)
	}
	if e.ProgressPercentage != 25 {
		t.Fatalf("expected 25%% after 1 of 4, got %v", e.ProgressPercentage)
	}
	if e.LastAccessedAt == nil {
		t.Fatal("expected last_accessed_at on the enrollment")
	}
}

func TestRecordTimeAccumulates(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	f, enrollment, lessons := enrolledFixture(t, ctx, tx, []int{1})

	if _, err := f.progressSvc.RecordTime(ctx, enrollment.ID, lessons[0].ID, 0); !domain.IsKind(err, domain.KindValidation) {
		t.Fatal("zero seconds must be rejected")
	}
	if _, err := f.progressSvc.RecordTime(ctx, enrollment.ID, lessons[0].ID, -5); !domain.IsKind(err, domain.KindValidation) {
		t.Fatal("negative seconds must be rejected")
	}

	row, err := f.progressSvc.RecordTime(ctx, enrollment.ID, lessons[0].ID, 60)
	if err != nil {
		t.Fatalf("record time: %v", err)
	}
	if row.TimeSpentSeconds != 60 {
		t.Fatalf("expected 60 seconds, got %d", row.TimeSpentSeconds)
	}

	row, err = f.progressSvc.RecordTime(ctx, enrollment.ID, lessons[0].ID, 30)
	if err != nil {
		t.Fatalf("record time: %v", err)
	}
	if row.TimeSpentSeconds != 90 {
		t.Fatalf("time must accumulate, got %d", row.TimeSpentSeconds)
	}
}

func TestRecordQuizScore(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	f, enrollment, lessons := enrolledFixture(t, ctx, tx, []int{1})

	if _, err := f.progressSvc.RecordQuizScore(ctx, enrollment.ID, lessons[0].ID, -1); !domain.IsKind(err, domain.KindValidation) {
		t.Fatal("negative score must be rejected")
	}
	if _, err := f.progressSvc.RecordQuizScore(ctx, enrollment.ID, lessons[0].ID, 101); !domain.IsKind(err, domain.KindValidation) {
		t.Fatal("score above 100 must be rejected")
	}

	row, err := f.progressSvc.RecordQuizScore(ctx, enrollment.ID, lessons[0].ID, 85)
	if err != nil {
		t.Fatalf("record score: %v", err)
	}
	if row.QuizScore == nil || *row.QuizScore != 85 {
		t.Fatalf("unexpected score: %v", row.QuizScore)
	}
	if row.AttemptsCount != 1 {
		t.Fatalf("expected 1 attempt, got %d", row.AttemptsCount)
	}

	row, err = f.progressSvc.RecordQuizScore(ctx, enrollment.ID, lessons[0].ID, 92)
	if err != nil {
		t.Fatalf("record score: %v", err)
	}
	if *row.QuizScore != 92 || row.AttemptsCount != 2 {
		t.Fatalf("retake not recorded: score %v attempts %d", row.QuizScore, row.AttemptsCount)
	}
}

func TestNextLessonThroughService(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	f, enrollment, lessons := enrolledFixture(t, ctx, tx, []int{2})

	next, err := f.progressSvc.NextLesson(ctx, enrollment.ID)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if next == nil || next.ID != lessons[0].ID {
		t.Fatalf("expected first lesson, got %+v", next)
	}

	if _, err := f.progressSvc.CompleteLesson(ctx, enrollment.ID, lessons[0].ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	next, err = f.progressSvc.NextLesson(ctx, enrollment.ID)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if next == nil || next.ID != lessons[1].ID {
		t.Fatalf("expected second lesson, got %+v", next)
	}
}

func TestSummaryAndModuleBreakdownThroughService(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	f, enrollment, lessons := enrolledFixture(t, ctx, tx, []int{1, 1})

	if _, err := f.progressSvc.CompleteLesson(ctx, enrollment.ID, lessons[0].ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	summary, err := f.progressSvc.Summary(ctx, enrollment.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TotalLessons != 2 || summary.CompletedLessons != 1 || summary.ProgressPercentage != 50 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	modules, err := f.progressSvc.ModuleBreakdown(ctx, enrollment.ID)
	if err != nil {
		t.Fatalf("modules: %v", err)
	}
	if len(modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(modules))
	}
	if !modules[0].IsCompleted || modules[1].IsCompleted {
		t.Fatalf("unexpected module completion: %+v %+v", modules[0], modules[1])
	}
}
