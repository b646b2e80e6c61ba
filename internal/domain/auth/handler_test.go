package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notifyhub/internal/logger"
	"notifyhub/internal/middleware"
	"notifyhub/internal/pkg/jwt"
)

func newTestRouter(t *testing.T) (*gin.Engine, *jwt.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	j := jwt.New("auth-handler-secret", time.Hour)
	svc := NewService(newTestRepo(t), j, func(email string) bool { return email == "root@example.com" })
	h := NewHandler(svc, logger.Discard())

	r := gin.New()
	v1 := r.Group("/api/v1")
	h.RegisterPublicRoutes(v1)
	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(j))
	h.RegisterProtectedRoutes(protected)
	return r, j
}

func postJSON(r http.Handler, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type authResponse struct {
	Data struct {
		Token string     `json:"token"`
		User  UserPublic `json:"user"`
	} `json:"data"`
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}

func TestHandler_RegisterLoginMe(t *testing.T) {
	r, j := newTestRouter(t)

	w := postJSON(r, "/api/v1/auth/register", map[string]string{
		"name": "Ann", "email": "ann@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var reg authResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))
	assert.Equal(t, "ann@example.com", reg.Data.User.Email)
	assert.Equal(t, "user", reg.Data.User.Role)
	assert.NotContains(t, w.Body.String(), "password")

	claims, err := j.ValidateToken(reg.Data.Token)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", claims.Email)
	assert.Equal(t, reg.Data.User.ID, claims.UserID)

	w = postJSON(r, "/api/v1/auth/login", map[string]string{"email": "ann@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	var login authResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.NotEmpty(t, login.Data.Token)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Data.Token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"ann@example.com"`)
}

func TestHandler_RegisterErrors(t *testing.T) {
	r, _ := newTestRouter(t)

	w := postJSON(r, "/api/v1/auth/register", map[string]string{"email": "not-an-email", "password": "secret123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(r, "/api/v1/auth/register", map[string]string{"email": "a@example.com", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.Equal(t, http.StatusCreated, postJSON(r, "/api/v1/auth/register", map[string]string{"email": "a@example.com", "password": "secret123"}).Code)
	w = postJSON(r, "/api/v1/auth/register", map[string]string{"email": "a@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "EMAIL_EXISTS")
}

func TestHandler_RegisterAdmin(t *testing.T) {
	r, _ := newTestRouter(t)

	w := postJSON(r, "/api/v1/auth/register", map[string]string{"email": "root@example.com", "password": "secret123"})
	require.Equal(t, http.StatusCreated, w.Code)

	var reg authResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))
	assert.Equal(t, "admin", reg.Data.User.Role)
}

func TestHandler_LoginInvalid(t *testing.T) {
	r, _ := newTestRouter(t)
	require.Equal(t, http.StatusCreated, postJSON(r, "/api/v1/auth/register", map[string]string{"email": "a@example.com", "password": "secret123"}).Code)

	w := postJSON(r, "/api/v1/auth/login", map[string]string{"email": "a@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_CREDENTIALS")

	w = postJSON(r, "/api/v1/auth/login", map[string]string{"email": "ghost@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
