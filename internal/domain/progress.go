package domain

import "github.com/google/uuid"

// ProgressSummary is a derived aggregate over an enrollment's lesson
// progress rows. It is never persisted; repositories recompute it from the
// database and cache it with a short TTL.
type ProgressSummary struct {
	EnrollmentID          uuid.UUID `json:"enrollment_id"`
	TotalLessons          int       `json:"total_lessons"`
	CompletedLessons      int       `json:"completed_lessons"`
	InProgressLessons     int       `json:"in_progress_lessons"`
	NotStartedLessons     int       `json:"not_started_lessons"`
	TotalTimeSpentSeconds int       `json:"total_time_spent_seconds"`
	AverageQuizScore      *float64  `json:"average_quiz_score,omitempty"`
	ProgressPercentage    int       `json:"progress_percentage"`
}

// ModuleProgress is the per-module breakdown of an enrollment's progress,
// joined through lesson -> course_module.
type ModuleProgress struct {
	ModuleID           uuid.UUID `json:"module_id"`
	Title              string    `json:"title"`
	Position           int       `json:"position"`
	TotalLessons       int       `json:"total_lessons"`
	CompletedLessons   int       `json:"completed_lessons"`
	ProgressPercentage int       `json:"progress_percentage"`
	IsCompleted        bool      `json:"is_completed"`
}
