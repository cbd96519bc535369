package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"supplytrack/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-test-secret"

func signToken(t *testing.T, secret, role string, dur time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id":  uuid.NewString(),
		"username": "tester",
		"role":     role,
		"exp":      time.Now().Add(dur).Unix(),
		"iat":      time.Now().Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func ginTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuth(testSecret))
	r.GET("/protected", func(c *gin.Context) {
		claims := GetClaims(c)
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID, "role": claims.Role})
	})
	r.POST("/write", RequireRole(model.RoleEditor), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func do(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	r := ginTestRouter()

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"garbage", "abc.def.ghi", http.StatusUnauthorized},
		{"wrong secret", signToken(t, "other-secret", "viewer", time.Hour), http.StatusUnauthorized},
		{"expired", signToken(t, testSecret, "viewer", -time.Minute), http.StatusUnauthorized},
		{"unknown role", signToken(t, testSecret, "owner", time.Hour), http.StatusUnauthorized},
		{"valid", signToken(t, testSecret, "viewer", time.Hour), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodGet, "/protected", tt.token)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token "+signToken(t, testSecret, "viewer", time.Hour))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "only the Bearer scheme is accepted")
}

func TestRequireRole(t *testing.T) {
	r := ginTestRouter()

	w := do(r, http.MethodPost, "/write", signToken(t, testSecret, "viewer", time.Hour))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"detail":"Insufficient permissions"}`, w.Body.String())

	for _, role := range []string{"editor", "admin"} {
		w := do(r, http.MethodPost, "/write", signToken(t, testSecret, role, time.Hour))
		assert.Equal(t, http.StatusOK, w.Code, role)
	}
}
