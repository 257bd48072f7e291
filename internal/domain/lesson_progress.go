package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ProgressStatusNotStarted = "not_started"
	ProgressStatusInProgress = "in_progress"
	ProgressStatusCompleted  = "completed"
)

type LessonProgress struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EnrollmentID     uuid.UUID      `gorm:"type:uuid;not null;index:idx_enrollment_lesson,unique" json:"enrollment_id"`
	Enrollment       *Enrollment    `gorm:"constraint:OnDelete:CASCADE;foreignKey:EnrollmentID;references:ID" json:"enrollment,omitempty"`
	LessonID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_enrollment_lesson,unique" json:"lesson_id"`
	Lesson           *Lesson        `gorm:"constraint:OnDelete:CASCADE;foreignKey:LessonID;references:ID" json:"lesson,omitempty"`
	Status           string         `gorm:"column:status;not null;default:'not_started'" json:"status"`
	TimeSpentSeconds int            `gorm:"column:time_spent_seconds;not null;default:0" json:"time_spent_seconds"`
	QuizScore        *float64       `gorm:"column:quiz_score;type:decimal(5,2)" json:"quiz_score,omitempty"`
	AttemptsCount    int            `gorm:"column:attempts_count;not null;default:0" json:"attempts_count"`
	CompletedAt      *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	LastAccessedAt   *time.Time     `gorm:"column:last_accessed_at" json:"last_accessed_at,omitempty"`
	Metadata         datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt        time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (LessonProgress) TableName() string { return "lesson_progress" }

// LessonProgressPatch carries a partial update; nil fields are left untouched.
type LessonProgressPatch struct {
	Status           *string
	TimeSpentSeconds *int
	QuizScore        *float64
	AttemptsCount    *int
	CompletedAt      *time.Time
	LastAccessedAt   *time.Time
}

func (p LessonProgressPatch) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if p.Status != nil {
		fields["status"] = *p.Status
	}
	if p.TimeSpentSeconds != nil {
		fields["time_spent_seconds"] = *p.TimeSpentSeconds
	}
	if p.QuizScore != nil {
		fields["quiz_score"] = *p.QuizScore
	}
	if p.AttemptsCount != nil {
		fields["attempts_count"] = *p.AttemptsCount
	}
	if p.CompletedAt != nil {
		fields["completed_at"] = *p.CompletedAt
	}
	if p.LastAccessedAt != nil {
		fields["last_accessed_at"] = *p.LastAccessedAt
	}
	return fields
}
