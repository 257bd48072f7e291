package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lumenlearn/lms-backend/internal/domain"
)

func SeedStudent(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *domain.Student {
	tb.Helper()
	s := &domain.Student{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed student: %v", err)
	}
	return s
}

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, instructorID uuid.UUID) *domain.Course {
	tb.Helper()
	c := &domain.Course{
		ID:           uuid.New(),
		InstructorID: instructorID,
		Title:        "course",
		Slug:         fmt.Sprintf("course-%s", uuid.NewString()[:8]),
		Status:       domain.CourseStatusPublished,
		Metadata:     datatypes.JSON([]byte("{}")),
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedModule(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, position int) *domain.CourseModule {
	tb.Helper()
	m := &domain.CourseModule{
		ID:       uuid.New(),
		CourseID: courseID,
		Position: position,
		Title:    fmt.Sprintf("module %d", position),
		Metadata: datatypes.JSON([]byte("{}")),
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed module: %v", err)
	}
	return m
}

func SeedLesson(tb testing.TB, ctx context.Context, tx *gorm.DB, moduleID uuid.UUID, position int) *domain.Lesson {
	tb.Helper()
	l := &domain.Lesson{
		ID:       uuid.New(),
		ModuleID: moduleID,
		Position: position,
		Title:    fmt.Sprintf("lesson %d", position),
		Metadata: datatypes.JSON([]byte("{}")),
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return l
}

func SeedEnrollment(tb testing.TB, ctx context.Context, tx *gorm.DB, studentID, courseID uuid.UUID) *domain.Enrollment {
	tb.Helper()
	e := &domain.Enrollment{
		ID:        uuid.New(),
		StudentID: studentID,
		CourseID:  courseID,
		Status:    domain.EnrollmentStatusActive,
		Metadata:  datatypes.JSON([]byte("{}")),
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return e
}

// SeedCourseWithLessons builds a course with the given module layout, e.g.
// {2, 1} creates two modules holding two and one lesson respectively.
func SeedCourseWithLessons(tb testing.TB, ctx context.Context, tx *gorm.DB, instructorID uuid.UUID, lessonsPerModule []int) (*domain.Course, []*domain.Lesson) {
	tb.Helper()
	course := SeedCourse(tb, ctx, tx, instructorID)
	var lessons []*domain.Lesson
	for i, count := range lessonsPerModule {
		module := SeedModule(tb, ctx, tx, course.ID, i+1)
		for j := 0; j < count; j++ {
			lessons = append(lessons, SeedLesson(tb, ctx, tx, module.ID, j+1))
		}
	}
	return course, lessons
}

func PtrUUID(id uuid.UUID) *uuid.UUID { return &id }
