package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/exstem-quiz/internal/response"
)

// ContextKeySessionID is the Gin context key for the authorized session ID.
const ContextKeySessionID = "session_id"

// RequireSessionOwner checks that the :id path param is the session the token
// was issued for. It must run after RequireSessionToken.
func RequireSessionOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.AbortFail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}

		owned, err := claims.SessionID()
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}
		if owned != id {
			response.AbortFail(c, http.StatusForbidden, response.ErrForbidden)
			return
		}

		c.Set(ContextKeySessionID, id)
		c.Next()
	}
}

// SessionID returns the session authorized by RequireSessionOwner.
func SessionID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(ContextKeySessionID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
