package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"docflow/internal/auth/token"
	"docflow/internal/model"
	"docflow/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TokenRevoker remembers tokens that were logged out before they expired.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type noopRevoker struct{}

func (noopRevoker) Revoke(context.Context, string, time.Time) error { return nil }
func (noopRevoker) IsRevoked(context.Context, string) (bool, error) { return false, nil }

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Fullname string `json:"fullname" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// AuthService issues tokens and resolves them back to callers.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Logout(ctx context.Context, tokenString string) error
	// Authenticate resolves a bearer token to the user it was issued to.
	Authenticate(ctx context.Context, tokenString string) (Actor, error)
}

type authService struct {
	users   repository.UserRepository
	hasher  PasswordHasher
	tokens  *token.Manager
	revoker TokenRevoker
	logger  *zap.Logger
}

// NewAuthService creates an AuthService. revoker may be nil, in which case
// logout only forgets the client cookie.
func NewAuthService(users repository.UserRepository, hasher PasswordHasher, tokens *token.Manager, revoker TokenRevoker, logger *zap.Logger) AuthService {
	if revoker == nil {
		revoker = noopRevoker{}
	}
	return &authService{users: users, hasher: hasher, tokens: tokens, revoker: revoker, logger: logger.Named("auth")}
}

// Register creates a regular user account. Elevated roles are only granted
// by an admin through the user endpoints.
func (s *authService) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	user, err := createAccount(ctx, s.users, s.hasher, req.Username, req.Fullname, req.Password, model.RoleUser)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("username", user.Username))
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return nil, validation("please provide username and password")
	}

	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrUnauthenticated, "invalid credentials")
	}
	if err != nil {
		return nil, fromRepo(err, "user")
	}

	ok, err := s.hasher.Verify(req.Password, user.Password)
	if err != nil {
		s.logger.Warn("stored password hash unreadable", zap.String("username", user.Username), zap.Error(err))
	}
	if !ok {
		return nil, newError(ErrUnauthenticated, "invalid credentials")
	}

	return s.issue(user)
}

func (s *authService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.tokens.Parse(tokenString)
	if err != nil {
		// nothing to revoke
		return nil
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return internal("failed to revoke token", err)
	}
	return nil
}

func (s *authService) Authenticate(ctx context.Context, tokenString string) (Actor, error) {
	if tokenString == "" {
		return Actor{}, newError(ErrUnauthenticated, "authorization is missing")
	}
	claims, err := s.tokens.Parse(tokenString)
	if err != nil {
		return Actor{}, newError(ErrUnauthenticated, "invalid token")
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return Actor{}, internal("failed to check token", err)
	}
	if revoked {
		return Actor{}, newError(ErrUnauthenticated, "token has been revoked")
	}

	user, err := s.users.GetByID(ctx, claims.UserID())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Actor{}, newError(ErrUnauthenticated, "user no longer exists")
	}
	if err != nil {
		return Actor{}, fromRepo(err, "user")
	}

	// the stored role wins over the one in the token
	return Actor{ID: user.ID, Username: user.Username, Role: user.Role}, nil
}

func (s *authService) issue(user *model.User) (*TokenResponse, error) {
	signed, expiresAt, err := s.tokens.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, internal("failed to generate token", err)
	}
	return &TokenResponse{
		Token:     signed,
		ExpiresAt: expiresAt.Format(time.RFC3339),
		User:      *mapUser(user),
	}, nil
}
