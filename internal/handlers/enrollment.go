package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/lumenlearn/lms-backend/internal/domain"
	"github.com/lumenlearn/lms-backend/internal/middleware"
	"github.com/lumenlearn/lms-backend/internal/services"
)

type EnrollmentHandler struct {
	svc services.EnrollmentService
}

func NewEnrollmentHandler(svc services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{svc: svc}
}

type enrollRequest struct {
	CourseID string `json:"course_id" binding:"required,uuid"`
}

// POST /api/enrollments
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	studentID, ok := middleware.StudentID(c)
	if !ok {
		RespondError(c, 401, "UNAUTHENTICATED", nil)
		return
	}

	var req enrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, 400, "BAD_USER_INPUT", err)
		return
	}
	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		RespondError(c, 400, "BAD_USER_INPUT", err)
		return
	}

	enrollment, err := h.svc.Enroll(c.Request.Context(), studentID, courseID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"enrollment": enrollment})
}

// GET /api/enrollments/:id
func (h *EnrollmentHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, 400, "BAD_USER_INPUT", err)
		return
	}

	enrollment, ok := requireOwnedEnrollment(c, h.svc, id)
	if !ok {
		return
	}
	RespondOK(c, gin.H{"enrollment": enrollment})
}

type enrollmentListQuery struct {
	Status string `form:"status" binding:"omitempty,enrollmentstatus"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// GET /api/enrollments
func (h *EnrollmentHandler) ListMine(c *gin.Context) {
	studentID, ok := middleware.StudentID(c)
	if !ok {
		RespondError(c, 401, "UNAUTHENTICATED", nil)
		return
	}

	var q enrollmentListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondError(c, 400, "BAD_USER_INPUT", err)
		return
	}

	enrollments, err := h.svc.ListForStudent(c.Request.Context(), studentID, types.EnrollmentFilter{
		Status: q.Status,
		Offset: q.Offset,
		Limit:  q.Limit,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"enrollments": enrollments})
}

// GET /api/courses/:id/enrollments
func (h *EnrollmentHandler) ListForCourse(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, 400, "BAD_USER_INPUT", err)
		return
	}

	var q enrollmentListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondError(c, 400, "BAD_USER_INPUT", err)
		return
	}

	enrollments, err := h.svc.ListForCourse(c.Request.Context(), courseID, types.EnrollmentFilter{
		Status: q.Status,
		Offset: q.Offset,
		Limit:  q.Limit,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"enrollments": enrollments})
}

// GET /api/courses/:id/enrollment-stats
func (h *EnrollmentHandler) CourseStats(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, 400, "BAD_USER_INPUT", err)
		return
	}

	stats, err := h.svc.CourseStats(c.Request.Context(), courseID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"stats": stats})
}

// DELETE /api/enrollments/:id
func (h *EnrollmentHandler) Drop(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, 400, "BAD_USER_INPUT", err)
		return
	}

	if _, ok := requireOwnedEnrollment(c, h.svc, id); !ok {
		return
	}
	if err := h.svc.Drop(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"dropped": true})
}

type completeEligibleRequest struct {
	Limit int `json:"limit" binding:"omitempty,min=1,max=1000"`
}

// POST /api/enrollments/complete-eligible
func (h *EnrollmentHandler) CompleteEligible(c *gin.Context) {
	// The body is optional; only bind when the client sent one.
	var req completeEligibleRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, 400, "BAD_USER_INPUT", err)
			return
		}
	}
	if req.Limit == 0 {
		req.Limit = 100
	}

	completed, err := h.svc.CompleteEligible(c.Request.Context(), req.Limit)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"completed": completed})
}
