package webserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, secret []byte, sub string, roles []string) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": sub, "exp": time.Now().Add(time.Hour).Unix()}
	if roles != nil {
		rs := make([]interface{}, len(roles))
		for i, r := range roles {
			rs[i] = r
		}
		claims["roles"] = rs
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return tok
}

func TestJWTMiddleware(t *testing.T) {
	secret := []byte("test-secret")

	r := gin.New()
	r.Use(JWTMiddleware(secret))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"uid":   c.GetString("uid"),
			"roles": c.GetStringSlice("roles"),
		})
	})

	// no token
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// wrong secret
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, []byte("other"), "u1", nil))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// missing subject
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, secret, "", nil))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// valid
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, secret, "u1", []string{"Researcher"}))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"uid":"u1"`)
	assert.Contains(t, w.Body.String(), `"Researcher"`)
}

func TestRequireRole(t *testing.T) {
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("roles", []string{"Inquirer"}) })
	r.GET("/admin", RequireRole("Admin"), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/work", RequireRole("Inquirer"), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/work", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWriteFaultMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"not found", types.NotFound("task gone"), http.StatusNotFound},
		{"conflict", types.Conflict("claimed"), http.StatusConflict},
		{"forbidden", types.Forbidden("not yours"), http.StatusForbidden},
		{"invalid state", types.InvalidState("wrong status"), http.StatusUnprocessableEntity},
		{"validation", types.Validation("missing field"), http.StatusBadRequest},
		{"rate limited", types.RateLimited("slow down"), http.StatusTooManyRequests},
		{"plain error", assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			writeFault(c, tt.err)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestWriteFaultRateLimitPayload(t *testing.T) {
	f := types.RateLimited("cooldown active")
	f.RetryMinutes = 42

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	writeFault(c, f)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"retry_after_minutes":42`)

	f = types.RateLimited("recent contact")
	f.RetryDays = 5
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	writeFault(c, f)
	assert.Contains(t, w.Body.String(), `"retry_after_days":5`)
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewRateLimiter(2, 60)

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("uid", "u1") }, RateLimitMiddleware(limiter))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code, "request %d", i)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
