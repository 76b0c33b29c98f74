package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"docflow/internal/model"
	"docflow/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PasswordHasher hashes and verifies user credentials.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, encoded string) (bool, error)
}

// DTOs for Request validation
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Fullname string `json:"fullname" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`
}

type UpdateUserRequest struct {
	Fullname string `json:"fullname"`
	Password string `json:"password" binding:"omitempty,min=6"`
	Role     string `json:"role"`
}

// DTO for returning User without exposing the password hash
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Fullname  string    `json:"fullname"`
	Role      string    `json:"role"`
	CreatedAt string    `json:"created_at"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context) ([]UserResponse, error)
	ListRegularUsers(ctx context.Context) ([]UserResponse, error)
	UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, id string) error
}

type userService struct {
	repo   repository.UserRepository
	tx     repository.TransactionManager
	hasher PasswordHasher
	logger *zap.Logger
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository, tx repository.TransactionManager, hasher PasswordHasher, logger *zap.Logger) UserService {
	return &userService{repo: repo, tx: tx, hasher: hasher, logger: logger.Named("users")}
}

func mapUser(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Fullname:  user.Fullname,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

func mapUsers(users []model.User) []UserResponse {
	res := make([]UserResponse, 0, len(users))
	for i := range users {
		res = append(res, *mapUser(&users[i]))
	}
	return res
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	role := orDefault(req.Role, model.RoleUser)
	if !model.IsValidRole(role) {
		return nil, validation("invalid role: must be one of %s", strings.Join(model.Roles, ", "))
	}
	user, err := createAccount(ctx, s.repo, s.hasher, req.Username, req.Fullname, req.Password, role)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user created", zap.String("username", user.Username), zap.String("role", user.Role))
	return mapUser(user), nil
}

// createAccount is shared by admin creation and public registration.
func createAccount(ctx context.Context, repo repository.UserRepository, hasher PasswordHasher, username, fullname, password, role string) (*model.User, error) {
	username = strings.TrimSpace(username)
	fullname = strings.TrimSpace(fullname)
	if username == "" || fullname == "" || password == "" {
		return nil, validation("please provide username, fullname, and password")
	}

	if _, err := repo.GetByUsername(ctx, username); err == nil {
		return nil, conflict("username already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fromRepo(err, "user")
	}

	hashed, err := hasher.Hash(password)
	if err != nil {
		return nil, internal("failed to hash password", err)
	}

	user := &model.User{
		Username: username,
		Fullname: fullname,
		Password: hashed,
		Role:     role,
	}
	if err := repo.Create(ctx, user); err != nil {
		return nil, fromRepo(err, "user")
	}
	return user, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapUser(user), nil
}

func (s *userService) ListUsers(ctx context.Context) ([]UserResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, internal("failed to fetch users", err)
	}
	return mapUsers(users), nil
}

// ListRegularUsers returns the accounts documents can be assigned to.
func (s *userService) ListRegularUsers(ctx context.Context) ([]UserResponse, error) {
	users, err := s.repo.ListByRole(ctx, model.RoleUser)
	if err != nil {
		return nil, internal("failed to fetch users", err)
	}
	return mapUsers(users), nil
}

func (s *userService) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error) {
	if req.Role != "" && !model.IsValidRole(req.Role) {
		return nil, validation("invalid role: must be one of %s", strings.Join(model.Roles, ", "))
	}

	var updated *model.User
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		user, err := s.find(txCtx, id)
		if err != nil {
			return err
		}

		if req.Role != "" && req.Role != user.Role && user.Role == model.RoleAdmin {
			if err := s.ensureAnotherAdmin(txCtx, user.ID, "cannot change the role of the last admin user"); err != nil {
				return err
			}
		}

		if req.Fullname != "" {
			user.Fullname = req.Fullname
		}
		if req.Role != "" {
			user.Role = req.Role
		}
		if req.Password != "" {
			hashed, err := s.hasher.Hash(req.Password)
			if err != nil {
				return internal("failed to hash password", err)
			}
			user.Password = hashed
		}

		if err := s.repo.Update(txCtx, user); err != nil {
			return fromRepo(err, "user")
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mapUser(updated), nil
}

// DeleteUser hard deletes a user. The last admin cannot be removed.
func (s *userService) DeleteUser(ctx context.Context, id string) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		user, err := s.find(txCtx, id)
		if err != nil {
			return err
		}

		if user.Role == model.RoleAdmin {
			if err := s.ensureAnotherAdmin(txCtx, user.ID, "cannot delete the last admin user"); err != nil {
				return err
			}
		}

		if err := s.repo.Delete(txCtx, user.ID); err != nil {
			return fromRepo(err, "user")
		}
		s.logger.Info("user deleted", zap.String("username", user.Username))
		return nil
	})
}

// ensureAnotherAdmin fails unless an admin other than id exists. The admin
// rows stay locked for the rest of the transaction.
func (s *userService) ensureAnotherAdmin(ctx context.Context, id uuid.UUID, msg string) error {
	admins, err := s.repo.LockByRole(ctx, model.RoleAdmin)
	if err != nil {
		return fromRepo(err, "user")
	}
	for _, a := range admins {
		if a.ID != id {
			return nil
		}
	}
	return validation("%s", msg)
}

func (s *userService) find(ctx context.Context, id string) (*model.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, notFound("user not found")
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, fromRepo(err, "user")
	}
	return user, nil
}
