package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"notifyhub/internal/pkg/jwt"
	"notifyhub/internal/pkg/response"
)

// Keys set on the gin context by JWTAuth and StreamAuth.
const (
	KeyUserID = "user_id"
	KeyEmail  = "email"
	KeyRole   = "role"
)

// JWTAuth requires "Authorization: Bearer <token>".
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			response.Abort(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
			return
		}
		token, ok := bearerToken(h)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'")
			return
		}
		authenticate(c, jwtService, token)
	}
}

// StreamAuth is JWTAuth that also accepts ?token=, since EventSource and
// browser WebSocket clients cannot set headers.
func StreamAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			token = strings.TrimSpace(c.Query("token"))
		}
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Access token required")
			return
		}
		authenticate(c, jwtService, token)
	}
}

// Identity returns the authenticated email, or "" outside an auth group.
func Identity(c *gin.Context) string {
	return c.GetString(KeyEmail)
}

func authenticate(c *gin.Context, jwtService *jwt.Service, token string) {
	claims, err := jwtService.ValidateToken(token)
	if err != nil {
		response.Abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}

	c.Set(KeyUserID, claims.UserID)
	c.Set(KeyEmail, claims.Email)
	c.Set(KeyRole, claims.Role)
	c.Next()
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
