package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openclinic/ehr-api/pkg/token"
)

const (
	ContextDoctorID   = "doctor_id"
	ContextDoctorName = "doctor_name"
)

type AuthMiddleware struct {
	tokens token.Service
}

func NewAuthMiddleware(tokens token.Service) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate verifies the bearer token and sets the doctor identity in
// context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}

		claims, err := m.tokens.ValidateSession(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextDoctorID, claims.DoctorID.String())
		c.Set(ContextDoctorName, claims.DisplayName)
		c.Next()
	}
}

// DoctorID extracts the authenticated doctor's id from the context.
func DoctorID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString(ContextDoctorID))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
