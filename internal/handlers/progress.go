package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lumenlearn/lms-backend/internal/services"
)

type ProgressHandler struct {
	svc         services.ProgressService
	enrollments services.EnrollmentService
}

func NewProgressHandler(svc services.ProgressService, enrollments services.EnrollmentService) *ProgressHandler {
	return &ProgressHandler{svc: svc, enrollments: enrollments}
}

func pairParams(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	enrollmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, 400, "BAD_USER_INPUT", err)
		return uuid.Nil, uuid.Nil, false
	}
	lessonID, err := uuid.Parse(c.Param("lessonID"))
	if err != nil {
		RespondError(c, 400, "BAD_USER_INPUT", err)
		return uuid.Nil, uuid.Nil, false
	}
	return enrollmentID, lessonID, true
}

// POST /api/enrollments/:id/lessons/:lessonID/start
func (h *ProgressHandler) StartLesson(c *gin.Context) {
	enrollmentID, lessonID, ok := pairParams(c)
	if !ok {
		return
	}

	if _, ok := requireOwnedEnrollment(c, h.enrollments, enrollmentID); !ok {
		return
	}

	progress, err := h.svc.StartLesson(c.Request.Context(), enrollmentID, lessonID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"progress": progress})
}

// POST /api/enrollments/:id/lessons/:lessonID/complete
func (h *ProgressHandler) CompleteLesson(c *gin.Context) {
	enrollmentID, lessonID, ok := pairParams(c)
	if !ok {
		return
	}

	if _, ok := requireOwnedEnrollment(c, h.enrollments, enrollmentID); !ok {
		return
	}

	progress, err := h.svc.CompleteLesson(c.Request.Context(), enrollmentID, lessonID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"progress": progress})
}

type recordTimeRequest struct {
	Seconds int `json:"seconds" binding:"required,min=1"`
}

// POST /api/enrollments/:id/lessons/:lessonID/time
func (h *ProgressHandler) RecordTime(c *gin.Context) {
	enrollmentID, lessonID, ok := pairParams(c)
	if !ok {
		return
	}
	if _, ok := requireOwnedEnrollment(c, h.enrollments, enrollmentID); !ok {
		return
	}

	var req recordTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, 400, "BAD_USER_INPUT", err)
		return
	}

	progress, err := h.svc.RecordTime(c.Request.Context(), enrollmentID, lessonID, req.Seconds)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"progress": progress})
}

type recordQuizRequest struct {
	Score *float64 `json:"score" binding:"required,min=0,max=100"`
}

// POST /api/enrollments/:id/lessons/:lessonID/quiz
func (h *ProgressHandler) RecordQuizScore(c *gin.Context) {
	enrollmentID, lessonID, ok := pairParams(c)
	if !ok {
		return
	}
	if _, ok := requireOwnedEnrollment(c, h.enrollments, enrollmentID); !ok {
		return
	}

	var req recordQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, 400, "BAD_USER_INPUT", err)
		return
	}

	progress, err := h.svc.RecordQuizScore(c.Request.Context(), enrollmentID, lessonID, *req.Score)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"progress": progress})
}

// GET /api/enrollments/:id/progress
func (h *ProgressHandler) Summary(c *gin.Context) {
	enrollmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, 400, "BAD_USER_INPUT", err)
		return
	}

	if _, ok := requireOwnedEnrollment(c, h.enrollments, enrollmentID); !ok {
		return
	}

	summary, err := h.svc.Summary(c.Request.Context(), enrollmentID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"summary": summary})
}

// GET /api/enrollments/:id/progress/modules
func (h *ProgressHandler) ModuleBreakdown(c *gin.Context) {
	enrollmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, 400, "BAD_USER_INPUT", err)
		return
	}

	if _, ok := requireOwnedEnrollment(c, h.enrollments, enrollmentID); !ok {
		return
	}

	modules, err := h.svc.ModuleBreakdown(c.Request.Context(), enrollmentID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"modules": modules})
}

// GET /api/enrollments/:id/progress/next-lesson
func (h *ProgressHandler) NextLesson(c *gin.Context) {
	enrollmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, 400, "BAD_USER_INPUT", err)
		return
	}

	if _, ok := requireOwnedEnrollment(c, h.enrollments, enrollmentID); !ok {
		return
	}

	lesson, err := h.svc.NextLesson(c.Request.Context(), enrollmentID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"lesson": lesson})
}
