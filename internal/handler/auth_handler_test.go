package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"docflow/internal/middleware"
	"docflow/internal/model"
	"docflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthService struct {
	stubAuth
	loggedOut []string
}

func (s *stubAuthService) Register(context.Context, service.RegisterRequest) (*service.TokenResponse, error) {
	return nil, &service.Error{Kind: service.ErrConflict, Message: "username already exists"}
}

func (s *stubAuthService) Login(_ context.Context, req service.LoginRequest) (*service.TokenResponse, error) {
	if req.Password != "secret" {
		return nil, &service.Error{Kind: service.ErrUnauthenticated, Message: "invalid credentials"}
	}
	return &service.TokenResponse{
		Token:     "admin",
		ExpiresAt: time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		User:      service.UserResponse{ID: adminActor.ID, Username: "admin", Role: model.RoleAdmin},
	}, nil
}

func (s *stubAuthService) Logout(_ context.Context, token string) error {
	s.loggedOut = append(s.loggedOut, token)
	return nil
}

type stubUsers struct {
	service.UserService
}

func (stubUsers) GetUserByID(_ context.Context, id string) (*service.UserResponse, error) {
	return &service.UserResponse{Username: "admin", Role: model.RoleAdmin, Fullname: id}, nil
}

func newAuthRouter(auth *stubAuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	guard := middleware.NewGuard(auth, middleware.DefaultPolicy)
	r := gin.New()
	NewAuthHandler(auth, stubUsers{}, guard, false).RegisterRoutes(r.Group(""))
	return r
}

func cookieNamed(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLoginSetsCookie(t *testing.T) {
	auth := &stubAuthService{stubAuth: stubAuth{"admin": adminActor}}
	r := newAuthRouter(auth)

	w, res := do(r, http.MethodPost, "/login", "", strings.NewReader(`{"username":"admin","password":"secret"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", res.Status)

	cookie := cookieNamed(w.Result(), middleware.AccessTokenCookie)
	require.NotNil(t, cookie)
	assert.Equal(t, "admin", cookie.Value)
	assert.True(t, cookie.HttpOnly)

	w, res = do(r, http.MethodPost, "/login", "", strings.NewReader(`{"username":"admin","password":"nope"}`), "application/json")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid credentials", res.Error)
}

func TestLoginRequiresCredentials(t *testing.T) {
	r := newAuthRouter(&stubAuthService{})

	w, _ := do(r, http.MethodPost, "/login", "", strings.NewReader(`{"username":"admin"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterConflict(t *testing.T) {
	r := newAuthRouter(&stubAuthService{})

	w, res := do(r, http.MethodPost, "/register", "", strings.NewReader(`{"username":"a","fullname":"A","password":"secret1"}`), "application/json")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "username already exists", res.Error)
}

func TestLogoutRevokesAndClearsCookie(t *testing.T) {
	auth := &stubAuthService{stubAuth: stubAuth{"admin": adminActor}}
	r := newAuthRouter(auth)

	w, _ := do(r, http.MethodPost, "/logout", "admin", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"admin"}, auth.loggedOut)

	cookie := cookieNamed(w.Result(), middleware.AccessTokenCookie)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestMeReturnsCaller(t *testing.T) {
	auth := &stubAuthService{stubAuth: stubAuth{"admin": adminActor}}
	r := newAuthRouter(auth)

	w, res := do(r, http.MethodGet, "/me", "admin", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	data, ok := res.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, adminActor.ID.String(), data["fullname"])

	w, _ = do(r, http.MethodGet, "/me", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
