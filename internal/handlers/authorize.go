package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/lumenlearn/lms-backend/internal/domain"
	"github.com/lumenlearn/lms-backend/internal/middleware"
	"github.com/lumenlearn/lms-backend/internal/services"
)

var errNotOwner = errors.New("enrollment belongs to another student")

// requireOwnedEnrollment loads the enrollment and verifies it belongs to the
// authenticated student. When ok is false the response has already been
// written and the caller must return.
func requireOwnedEnrollment(c *gin.Context, svc services.EnrollmentService, enrollmentID uuid.UUID) (*types.Enrollment, bool) {
	studentID, ok := middleware.StudentID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "UNAUTHENTICATED", nil)
		return nil, false
	}

	enrollment, err := svc.Get(c.Request.Context(), enrollmentID)
	if err != nil {
		RespondDomainError(c, err)
		return nil, false
	}
	if enrollment.StudentID != studentID {
		RespondError(c, http.StatusForbidden, "FORBIDDEN", errNotOwner)
		return nil, false
	}
	return enrollment, true
}
