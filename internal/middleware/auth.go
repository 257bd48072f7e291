package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lumenlearn/lms-backend/internal/pkg/logger"
	"github.com/lumenlearn/lms-backend/internal/services"
)

const studentIDKey = "studentID"

// StudentID returns the authenticated student id set by RequireAuth.
func StudentID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(studentIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// RequireAuth validates the bearer token and stores the student id on the
// request context.
func RequireAuth(auth services.AuthService, log *logger.Logger) gin.HandlerFunc {
	mwLog := log.With("middleware", "RequireAuth")
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthenticated(c, "missing authorization header")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthenticated(c, "malformed authorization header")
			return
		}

		studentID, err := auth.ParseToken(parts[1])
		if err != nil {
			mwLog.Debug("token rejected", "error", err)
			abortUnauthenticated(c, "invalid or expired token")
			return
		}

		c.Set(studentIDKey, studentID)
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{"message": msg, "code": "UNAUTHENTICATED"},
	})
}
