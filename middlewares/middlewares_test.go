package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parampara-foods/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(tokens *utils.TokenManager) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), RequestLogger(), PrometheusMiddleware())
	r.GET("/open", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	authed := r.Group("/", AuthMiddleware(tokens))
	authed.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextUserID)+"|"+c.GetString(ContextRole))
	})
	authed.GET("/admin", RequireRole("Admin"), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func do(r http.Handler, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := newRouter(utils.NewTokenManager("secret", "test", time.Hour))

	w := do(r, "/open", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Equal(t, w.Header().Get(RequestIDHeader), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
}

func TestAuthMiddleware(t *testing.T) {
	tokens := utils.NewTokenManager("secret", "test", time.Hour)
	r := newRouter(tokens)
	userToken, _, err := tokens.GenerateToken("u-1", "asha@example.com", "User", "local")
	require.NoError(t, err)
	adminToken, _, err := tokens.GenerateToken("a-1", "admin@example.com", "Admin", "local")
	require.NoError(t, err)

	t.Run("missing header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "").Code)
	})
	t.Run("wrong scheme", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "Basic "+userToken).Code)
	})
	t.Run("bad token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "Bearer nope").Code)
	})
	t.Run("token from another issuer", func(t *testing.T) {
		other, _, err := utils.NewTokenManager("secret", "elsewhere", time.Hour).GenerateToken("u-1", "", "Admin", "local")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "Bearer "+other).Code)
	})
	t.Run("valid token", func(t *testing.T) {
		w := do(r, "/me", "Bearer "+userToken)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "u-1|User", w.Body.String())
	})
	t.Run("role required", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, do(r, "/admin", "Bearer "+userToken).Code)
		assert.Equal(t, http.StatusNoContent, do(r, "/admin", "bearer "+adminToken).Code)
	})
}
