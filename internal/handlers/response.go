package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumenlearn/lms-backend/internal/domain"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondDomainError maps repository error kinds to user-facing codes and
// statuses. Database causes are deliberately not echoed back to clients.
func RespondDomainError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL_ERROR"
	msg := "internal error"

	switch domain.KindOf(err) {
	case domain.KindValidation:
		status, code, msg = http.StatusBadRequest, "BAD_USER_INPUT", err.Error()
	case domain.KindNotFound:
		status, code, msg = http.StatusNotFound, "NOT_FOUND", err.Error()
	case domain.KindConflict:
		status, code, msg = http.StatusConflict, "CONFLICT", err.Error()
	}

	c.JSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
