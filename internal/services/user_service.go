package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oficina-avance/oficina/internal/apperr"
	"github.com/oficina-avance/oficina/internal/auth"
	"github.com/oficina-avance/oficina/internal/models"
	"github.com/oficina-avance/oficina/internal/storage"
)

const minPasswordLength = 6

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmptyCredentials   = apperr.Validation("email and password are required")
	ErrUserInactive       = apperr.Forbidden("user is inactive")
)

// UserService определяет интерфейс для работы с сотрудниками и сессиями.
type UserService interface {
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	Me(ctx context.Context, userID uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, req models.UpdateUserRequest) (*models.User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, newPassword string) error
	EnsureAdmin(ctx context.Context, name, email, password string) error
}

// UserServiceImpl реализует UserService.
type UserServiceImpl struct {
	userStorage     UserStorage
	sessions        auth.SessionStore
	jwtSecret       string
	tokenExpiration time.Duration
}

// NewUserService создаёт новый экземпляр UserService. sessions может быть nil,
// тогда выход, деактивация и смена роли не отзывают выданные токены.
func NewUserService(userStorage UserStorage, sessions auth.SessionStore, jwtSecret string, tokenExpiration time.Duration) *UserServiceImpl {
	if tokenExpiration <= 0 {
		tokenExpiration = 24 * time.Hour
	}
	return &UserServiceImpl{
		userStorage:     userStorage,
		sessions:        sessions,
		jwtSecret:       jwtSecret,
		tokenExpiration: tokenExpiration,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login аутентифицирует сотрудника и выдаёт токен.
func (s *UserServiceImpl) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", ErrEmptyCredentials
	}

	user, err := s.userStorage.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, "", ErrUserInactive
	}

	token, err := auth.GenerateToken(user, s.jwtSecret, s.tokenExpiration)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return user, token, nil
}

// Logout отзывает предъявленный токен до истечения его срока.
func (s *UserServiceImpl) Logout(ctx context.Context, claims *auth.Claims) error {
	if s.sessions == nil || claims == nil || claims.ID == "" {
		return nil
	}
	if err := s.sessions.RevokeToken(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// Me возвращает профиль владельца токена.
func (s *UserServiceImpl) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.userStorage.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// List возвращает всех сотрудников.
func (s *UserServiceImpl) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.userStorage.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Create заводит учётную запись. Новая запись активна.
func (s *UserServiceImpl) Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	switch {
	case name == "":
		return nil, apperr.Validation("name is required")
	case email == "":
		return nil, apperr.Validation("email is required")
	case len(req.Password) < minPasswordLength:
		return nil, apperr.Validation("password must be at least %d characters", minPasswordLength)
	case !req.Role.Valid():
		return nil, apperr.Validation("unknown role %q", req.Role)
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Validation("password cannot be used: %v", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         req.Role,
		Department:   req.Department,
		IsActive:     true,
	}

	if err := s.userStorage.Create(ctx, user); err != nil {
		if errors.Is(err, storage.ErrEmailExists) {
			return nil, apperr.Conflict("email already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Update применяет переданные поля. Деактивация отзывает все сессии сотрудника.
func (s *UserServiceImpl) Update(ctx context.Context, id uuid.UUID, req models.UpdateUserRequest) (*models.User, error) {
	user, err := s.userStorage.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	wasActive, oldRole := user.IsActive, user.Role

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperr.Validation("name must not be empty")
		}
		user.Name = name
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email == "" {
			return nil, apperr.Validation("email must not be empty")
		}
		user.Email = email
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			return nil, apperr.Validation("unknown role %q", *req.Role)
		}
		user.Role = *req.Role
	}
	if req.Department != nil {
		user.Department = req.Department
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	// Отзыв идёт до записи: при недоступном хранилище сессий изменение не сохраняется.
	if (wasActive && !user.IsActive) || user.Role != oldRole {
		if err := s.revokeUser(ctx, user.ID); err != nil {
			return nil, err
		}
	}

	if err := s.userStorage.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, storage.ErrUserNotFound):
			return nil, apperr.NotFound("user not found")
		case errors.Is(err, storage.ErrEmailExists):
			return nil, apperr.Conflict("email already exists")
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// ChangePassword заменяет пароль и отзывает выданные токены.
func (s *UserServiceImpl) ChangePassword(ctx context.Context, id uuid.UUID, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperr.Validation("password must be at least %d characters", minPasswordLength)
	}

	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return apperr.Validation("password cannot be used: %v", err)
	}

	if err := s.revokeUser(ctx, id); err != nil {
		return err
	}

	if err := s.userStorage.UpdatePassword(ctx, id, passwordHash); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return apperr.NotFound("user not found")
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// EnsureAdmin создаёт или восстанавливает активного SYS_ADMIN с заданным паролем.
func (s *UserServiceImpl) EnsureAdmin(ctx context.Context, name, email, password string) error {
	email = normalizeEmail(email)
	if name = strings.TrimSpace(name); name == "" {
		name = "Administrator"
	}

	existing, err := s.userStorage.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, storage.ErrUserNotFound) {
			return fmt.Errorf("failed to look up admin: %w", err)
		}
		_, err := s.Create(ctx, models.CreateUserRequest{
			Name:     name,
			Email:    email,
			Password: password,
			Role:     models.RoleSysAdmin,
		})
		return err
	}

	if existing.Role != models.RoleSysAdmin || !existing.IsActive {
		existing.Role = models.RoleSysAdmin
		existing.IsActive = true
		if err := s.userStorage.Update(ctx, existing); err != nil {
			return fmt.Errorf("failed to restore admin: %w", err)
		}
	}

	if auth.CheckPassword(password, existing.PasswordHash) {
		return nil
	}
	return s.ChangePassword(ctx, existing.ID, password)
}

func (s *UserServiceImpl) revokeUser(ctx context.Context, id uuid.UUID) error {
	if s.sessions == nil {
		return nil
	}
	if err := s.sessions.RevokeUser(ctx, id, s.tokenExpiration); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	return nil
}
