package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EnrollmentStatusActive    = "active"
	EnrollmentStatusCompleted = "completed"
	EnrollmentStatusDropped   = "dropped"
)

// Enrollment ties a student to a course. At most one non-dropped row may
// exist per (student, course) pair; dropping keeps the row queryable.
type Enrollment struct {
	ID                 uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID          uuid.UUID      `gorm:"type:uuid;not null;index:idx_student_course,unique,where:status <> 'dropped'" json:"student_id"`
	Student            *Student       `gorm:"constraint:OnDelete:CASCADE;foreignKey:StudentID;references:ID" json:"student,omitempty"`
	CourseID           uuid.UUID      `gorm:"type:uuid;not null;index:idx_student_course,unique,where:status <> 'dropped'" json:"course_id"`
	Course             *Course        `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	Status             string         `gorm:"column:status;not null;default:'active'" json:"status"`
	ProgressPercentage float64        `gorm:"column:progress_percentage;type:decimal(5,2);not null;default:0" json:"progress_percentage"`
	CompletedAt        *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	LastAccessedAt     *time.Time     `gorm:"column:last_accessed_at" json:"last_accessed_at,omitempty"`
	CertificateID      *uuid.UUID     `gorm:"type:uuid;column:certificate_id" json:"certificate_id,omitempty"`
	Metadata           datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt          time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Enrollment) TableName() string { return "enrollment" }

// EnrollmentPatch carries a partial update; nil fields are left untouched.
type EnrollmentPatch struct {
	Status             *string
	ProgressPercentage *float64
	CompletedAt        *time.Time
	LastAccessedAt     *time.Time
	CertificateID      *uuid.UUID
}

func (p EnrollmentPatch) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if p.Status != nil {
		fields["status"] = *p.Status
	}
	if p.ProgressPercentage != nil {
		fields["progress_percentage"] = *p.ProgressPercentage
	}
	if p.CompletedAt != nil {
		fields["completed_at"] = *p.CompletedAt
	}
	if p.LastAccessedAt != nil {
		fields["last_accessed_at"] = *p.LastAccessedAt
	}
	if p.CertificateID != nil {
		fields["certificate_id"] = *p.CertificateID
	}
	return fields
}

// EnrollmentFilter narrows and pages enrollment list queries.
type EnrollmentFilter struct {
	Status        string
	CourseID      *uuid.UUID
	StudentID     *uuid.UUID
	CompletedFrom *time.Time
	CompletedTo   *time.Time
	Offset        int
	Limit         int
}

// CacheToken renders the filter as a deterministic cache key segment.
func (f EnrollmentFilter) CacheToken() string {
	parts := []string{
		f.Status,
		uuidToken(f.CourseID),
		uuidToken(f.StudentID),
		timeToken(f.CompletedFrom),
		timeToken(f.CompletedTo),
		fmt.Sprintf("%d", f.Offset),
		fmt.Sprintf("%d", f.Limit),
	}
	return strings.Join(parts, "|")
}

func uuidToken(id *uuid.UUID) string {
	if id == nil {
		return "-"
	}
	return id.String()
}

func timeToken(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return fmt.Sprintf("%d", t.Unix())
}
