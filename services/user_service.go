package services

import (
	"context"
	"database/sql"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"parampara-foods/apperror"
	"parampara-foods/models"
	"parampara-foods/repositories"
	"parampara-foods/utils"
)

const (
	MinPasswordLength      = 6
	DefaultUserSearchLimit = 10
)

type UserService struct {
	users *repositories.UserRepository
	roles *repositories.RoleRepository
	now   func() time.Time
}

func NewUserService(db *sql.DB) *UserService {
	return &UserService{
		users: repositories.NewUserRepository(db),
		roles: repositories.NewRoleRepository(db),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// activeRole resolves a role name, defaulting to User. Unknown or inactive
// roles are a validation error.
func (s *UserService) activeRole(ctx context.Context, name string) (*models.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = models.RoleUser
	}
	role, err := s.roles.GetByName(ctx, name)
	if errors.Is(err, repositories.ErrNotFound) || (err == nil && !role.IsActive) {
		return nil, apperror.Validation("Invalid role: " + name)
	}
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to load role")
	}
	return role, nil
}

// CreateLocalUser registers an email/password account.
func (s *UserService) CreateLocalUser(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, apperror.Validation("Invalid email address")
	}
	if len(req.Password) < MinPasswordLength {
		return nil, apperror.Validation("Password must be at least 6 characters")
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to check email")
	}
	if exists {
		return nil, apperror.Validation("Email is already registered")
	}

	role, err := s.activeRole(ctx, req.Role)
	if err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to hash password")
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        &email,
		PasswordHash: &hash,
		RoleID:       role.ID,
		RoleName:     role.Name,
		AuthProvider: models.AuthProviderLocal,
		Address:      req.Address,
		CreatedAt:    s.now(),
	}
	if name := strings.TrimSpace(req.FullName); name != "" {
		user.FullName = &name
	}

	if err := s.users.Create(ctx, user); err != nil {
		utils.Zlog.Error("create user failed", zap.String("email", email), zap.Error(err))
		return nil, apperror.Wrap(err, "Failed to create user")
	}
	utils.Zlog.Info("user created", zap.String("user_id", user.ID), zap.String("role", role.Name))
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.UserResponse, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to list users")
	}
	return toUserResponses(users), nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.UserResponse, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	resp := models.NewUserResponse(user)
	return &resp, nil
}

func (s *UserService) UpdateUserRole(ctx context.Context, id, roleName string) (*models.UserResponse, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	role, err := s.activeRole(ctx, roleName)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateRole(ctx, id, role.ID); err != nil {
		return nil, apperror.Wrap(err, "Failed to update user role")
	}
	utils.Zlog.Info("user role changed", zap.String("user_id", id), zap.String("from", user.RoleName), zap.String("to", role.Name))

	user.RoleID = role.ID
	user.RoleName = role.Name
	resp := models.NewUserResponse(user)
	return &resp, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrInUse) {
			return apperror.Validation("User has orders or blog posts and cannot be deleted")
		}
		return notFoundOr(err, "User not found")
	}
	utils.Zlog.Info("user deleted", zap.String("user_id", id))
	return nil
}

func (s *UserService) SearchUsers(ctx context.Context, q string, limit int) ([]models.UserResponse, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []models.UserResponse{}, nil
	}
	if limit <= 0 {
		limit = DefaultUserSearchLimit
	}
	users, err := s.users.Search(ctx, q, limit)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to search users")
	}
	return toUserResponses(users), nil
}

func (s *UserService) EmailSuggestions(ctx context.Context, q string, limit int) ([]string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = DefaultUserSearchLimit
	}
	emails, err := s.users.EmailSuggestions(ctx, q, limit)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to load email suggestions")
	}
	return emails, nil
}

func toUserResponses(users []models.User) []models.UserResponse {
	resp := make([]models.UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, models.NewUserResponse(&users[i]))
	}
	return resp
}

type RoleService struct {
	roles *repositories.RoleRepository
}

func NewRoleService(db *sql.DB) *RoleService {
	return &RoleService{roles: repositories.NewRoleRepository(db)}
}

func (s *RoleService) ListRoles(ctx context.Context) ([]models.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to list roles")
	}
	return roles, nil
}

func (s *RoleService) ListActiveRoles(ctx context.Context) ([]models.Role, error) {
	roles, err := s.roles.ListActive(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to list roles")
	}
	return roles, nil
}

func (s *RoleService) GetRole(ctx context.Context, id int64) (*models.Role, error) {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Role not found")
	}
	return role, nil
}

// nameTaken reports whether another role already uses name.
func (s *RoleService) nameTaken(ctx context.Context, name string, selfID int64) (bool, error) {
	existing, err := s.roles.GetByName(ctx, name)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return existing.ID != selfID, nil
}

func (s *RoleService) CreateRole(ctx context.Context, req models.RoleRequest) (*models.Role, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("Role name is required")
	}
	taken, err := s.nameTaken(ctx, name, 0)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to check role name")
	}
	if taken {
		return nil, apperror.Validation("Role name already exists")
	}

	role := &models.Role{Name: name, Description: req.Description, IsActive: true}
	if req.IsActive != nil {
		role.IsActive = *req.IsActive
	}
	id, err := s.roles.Create(ctx, role)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to create role")
	}
	utils.Zlog.Info("role created", zap.Int64("role_id", id), zap.String("name", name))
	return s.GetRole(ctx, id)
}

func (s *RoleService) UpdateRole(ctx context.Context, id int64, req models.RoleRequest) (*models.Role, error) {
	role, err := s.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("Role name is required")
	}
	taken, err := s.nameTaken(ctx, name, id)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to check role name")
	}
	if taken {
		return nil, apperror.Validation("Role name already exists")
	}

	role.Name = name
	role.Description = req.Description
	if req.IsActive != nil {
		role.IsActive = *req.IsActive
	}
	if err := s.roles.Update(ctx, role); err != nil {
		return nil, apperror.Wrap(err, "Failed to update role")
	}
	return s.GetRole(ctx, id)
}

// DeleteRole removes a role nobody holds.
func (s *RoleService) DeleteRole(ctx context.Context, id int64) error {
	role, err := s.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if role.UserCount > 0 {
		return apperror.Validation("Cannot delete role that is assigned to users")
	}
	if err := s.roles.Delete(ctx, id); err != nil {
		return notFoundOr(err, "Role not found")
	}
	utils.Zlog.Info("role deleted", zap.Int64("role_id", id), zap.String("name", role.Name))
	return nil
}
