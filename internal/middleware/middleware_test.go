package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharma-crm-server/internal/config"
	"pharma-crm-server/internal/policy"
	"pharma-crm-server/internal/services"
	"pharma-crm-server/internal/utils"
)

type stubResolver map[string]policy.Actor

func (s stubResolver) ResolveActor(_ context.Context, userID string) (policy.Actor, error) {
	a, ok := s[userID]
	if !ok {
		return policy.Actor{}, services.ErrNotFound
	}
	return a, nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:                 "access",
		JWTRefreshSecret:          "refresh",
		JWTExpirationMinutes:      5,
		JWTRefreshExpirationHours: 1,
	}
}

func newRouter(cfg *config.Config, resolver ActorResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(cfg, resolver, zerolog.Nop()))
	r.GET("/me", func(c *gin.Context) {
		actor, _ := GetActorFromContext(c)
		c.JSON(http.StatusOK, gin.H{"user": actor.UserID, "manager": actor.Manager})
	})
	r.GET("/admin", RequireManager(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func TestAuthMiddleware(t *testing.T) {
	cfg := testConfig()
	resolver := stubResolver{
		"u-1": {UserID: "u-1"},
		"u-2": {UserID: "u-2", Manager: true},
	}
	r := newRouter(cfg, resolver)

	access, _, err := utils.GenerateTokens("u-1", cfg)
	require.NoError(t, err)
	managerAccess, _, err := utils.GenerateTokens("u-2", cfg)
	require.NoError(t, err)
	ghostAccess, _, err := utils.GenerateTokens("u-ghost", cfg)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		cookie string
		want   int
	}{
		{name: "missing token", path: "/me", want: http.StatusUnauthorized},
		{name: "malformed header", path: "/me", header: "Token " + access, want: http.StatusUnauthorized},
		{name: "bad signature", path: "/me", header: "Bearer " + access + "x", want: http.StatusUnauthorized},
		{name: "unknown user", path: "/me", header: "Bearer " + ghostAccess, want: http.StatusUnauthorized},
		{name: "bearer", path: "/me", header: "Bearer " + access, want: http.StatusOK},
		{name: "cookie", path: "/me", cookie: access, want: http.StatusOK},
		{name: "representative on admin", path: "/admin", header: "Bearer " + access, want: http.StatusForbidden},
		{name: "manager on admin", path: "/admin", header: "Bearer " + managerAccess, want: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequireManager_WithSetActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	serve := func(actor *policy.Actor) *httptest.ResponseRecorder {
		r := gin.New()
		r.GET("/admin", func(c *gin.Context) {
			if actor != nil {
				SetActor(c, *actor)
			}
		}, RequireManager(), func(c *gin.Context) {
			id, _ := GetUserIDFromContext(c)
			c.String(http.StatusOK, id)
		})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
		return rec
	}

	rec := serve(&policy.Actor{UserID: "boss", Manager: true})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "boss", rec.Body.String())

	assert.Equal(t, http.StatusForbidden, serve(&policy.Actor{UserID: "rep"}).Code)
	assert.Equal(t, http.StatusInternalServerError, serve(nil).Code)
}

func TestRequestIDAndLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestID(), Logger(zerolog.New(&buf)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "my-custom-id")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "my-custom-id", rec.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"request_id":"my-custom-id"`)
	assert.Contains(t, buf.String(), `"status":200`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(Recovery(zerolog.New(&buf)))
	r.GET("/", func(c *gin.Context) { panic("kaboom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), "kaboom")
}
