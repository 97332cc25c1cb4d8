package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cloud-wave-best-zizon/enrollment-service/internal/domain"
)

var testSecret = []byte("test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

func authRouter() *gin.Engine {
	r := gin.New()
	r.Use(Auth(testSecret))
	r.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(UserIDKey))
	})
	return r
}

func get(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth_ValidToken(t *testing.T) {
	token, err := IssueToken(testSecret, "u1", "u1@example.com", time.Hour)
	require.NoError(t, err)

	w := get(authRouter(), "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())
}

func TestAuth_FallsBackToSubject(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u2",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)

	w := get(authRouter(), "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u2", w.Body.String())
}

func TestAuth_Rejects(t *testing.T) {
	expired, err := IssueToken(testSecret, "u1", "", -time.Minute)
	require.NoError(t, err)
	wrongKey, err := IssueToken([]byte("other"), "u1", "", time.Hour)
	require.NoError(t, err)
	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"empty token", "Bearer "},
		{"garbage", "Bearer not-a-jwt"},
		{"expired", "Bearer " + expired},
		{"wrong key", "Bearer " + wrongKey},
		{"no user claim", "Bearer " + noUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(authRouter(), tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"success":false,"message":"`+messageFor(tt.header)+`"}`, w.Body.String())
		})
	}
}

func messageFor(header string) string {
	if header == "" || header == "Basic abc" || header == "Bearer " {
		return "Token is missing"
	}
	return "Token is invalid"
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/id", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey)+"|"+domain.RequestIDFromContext(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123|req-123", w.Body.String())
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/id", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated+"|"+generated, w.Body.String())
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(RequestID(), Logger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.FilterMessage("Request completed").All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "/ok", entries[0].ContextMap()["path"])
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}
