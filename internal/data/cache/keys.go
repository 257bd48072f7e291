package cache

import (
	"strings"

	"github.com/google/uuid"
)

// Key namespaces. Enrollment-scoped lesson-progress keys deliberately share
// the "lessonprogress:enrollment:<id>" prefix so a single pattern delete
// clears the list, the filtered lists and the derived aggregates at once.
const (
	prefixLessonProgress = "lessonprogress"
	prefixEnrollment     = "enrollment"
)

func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

func LessonProgressIDKey(id uuid.UUID) string {
	return Key(prefixLessonProgress, "id", id.String())
}

func LessonProgressPairKey(enrollmentID, lessonID uuid.UUID) string {
	return Key(prefixLessonProgress, "pair", enrollmentID.String(), lessonID.String())
}

func LessonProgressByEnrollmentKey(enrollmentID uuid.UUID) string {
	return Key(prefixLessonProgress, "enrollment", enrollmentID.String())
}

func LessonProgressCompletedKey(enrollmentID uuid.UUID) string {
	return Key(prefixLessonProgress, "enrollment", enrollmentID.String(), "completed")
}

func LessonProgressInProgressKey(enrollmentID uuid.UUID) string {
	return Key(prefixLessonProgress, "enrollment", enrollmentID.String(), "inprogress")
}

func ProgressSummaryKey(enrollmentID uuid.UUID) string {
	return Key(prefixLessonProgress, "enrollment", enrollmentID.String(), "summary")
}

func ModuleProgressKey(enrollmentID uuid.UUID) string {
	return Key(prefixLessonProgress, "enrollment", enrollmentID.String(), "modules")
}

func LessonProgressEnrollmentPattern(enrollmentID uuid.UUID) string {
	return Key(prefixLessonProgress, "enrollment", enrollmentID.String()) + "*"
}

func LessonProgressByLessonKey(lessonID uuid.UUID) string {
	return Key(prefixLessonProgress, "lesson", lessonID.String())
}

func EnrollmentIDKey(id uuid.UUID) string {
	return Key(prefixEnrollment, "id", id.String())
}

func EnrollmentPairKey(studentID, courseID uuid.UUID) string {
	return Key(prefixEnrollment, "pair", studentID.String(), courseID.String())
}

// EnrollmentsByStudentKey keys one page of a filtered student listing; the
// filter token embeds filters and pagination so each page caches
// independently.
func EnrollmentsByStudentKey(studentID uuid.UUID, filterToken string) string {
	return Key(prefixEnrollment, "student", studentID.String(), filterToken)
}

func EnrollmentsByStudentPattern(studentID uuid.UUID) string {
	return Key(prefixEnrollment, "student", studentID.String()) + ":*"
}

func EnrollmentsByCourseKey(courseID uuid.UUID, filterToken string) string {
	return Key(prefixEnrollment, "course", courseID.String(), filterToken)
}

func EnrollmentsByCoursePattern(courseID uuid.UUID) string {
	return Key(prefixEnrollment, "course", courseID.String()) + ":*"
}
