package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memodeck_backend/internal/config"
	"memodeck_backend/internal/model"
	"memodeck_backend/internal/service"
	"memodeck_backend/internal/util"
)

type failingStore struct{}

func (failingStore) Revoke(context.Context, string, time.Duration) error { return nil }
func (failingStore) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func testConfig() *config.Config {
	return &config.Config{JWT: config.JWTConfig{
		Secret:     "middleware-test-secret-middleware",
		ExpireTime: time.Hour,
		CookieName: "memodeck_session",
	}}
}

func newRouter(cfg *config.Config, store service.SessionStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(cfg, store), func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID, "token": c.GetString(util.ContextTokenKey) != ""})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	cfg := testConfig()
	store := service.NewMemorySessionStore()
	user := &model.User{BaseModel: model.BaseModel{ID: 7}, Username: "u", Email: "u@example.com"}

	session, claims, err := util.GenerateJWT(user, cfg.JWT.Secret, time.Hour)
	require.NoError(t, err)
	reset, err := util.GenerateResetToken(user, cfg.JWT.Secret, time.Minute)
	require.NoError(t, err)
	forged, _, err := util.GenerateJWT(user, "another-secret-another-secret-xx", time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"bearer", "Bearer " + session, "", http.StatusOK},
		{"cookie", "", session, http.StatusOK},
		{"reset token", "Bearer " + reset, "", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + forged, "", http.StatusUnauthorized},
		{"not bearer", "Token " + session, "", http.StatusUnauthorized},
	}
	r := newRouter(cfg, store)
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if c.header != "" {
				req.Header.Set("Authorization", c.header)
			}
			if c.cookie != "" {
				req.AddCookie(&http.Cookie{Name: cfg.JWT.CookieName, Value: c.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, c.want, w.Code, w.Body.String())
			if c.want == http.StatusOK {
				assert.JSONEq(t, `{"user_id":7,"token":true}`, w.Body.String())
			}
		})
	}

	require.NoError(t, store.Revoke(context.Background(), claims.ID, time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+session)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareStoreFailure(t *testing.T) {
	cfg := testConfig()
	user := &model.User{BaseModel: model.BaseModel{ID: 1}}
	token, _, err := util.GenerateJWT(user, cfg.JWT.Secret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	newRouter(cfg, failingStore{}).ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
