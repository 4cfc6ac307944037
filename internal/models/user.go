package models

import (
	"time"

	"github.com/google/uuid"
)

// Role - роль сотрудника мастерской.
type Role string

const (
	RoleSysAdmin     Role = "SYS_ADMIN"
	RoleAdmin        Role = "ADMIN"
	RoleManager      Role = "MANAGER"
	RoleAdminAux     Role = "ADMIN_AUX"
	RoleMechanic     Role = "MECHANIC"
	RoleReceptionist Role = "RECEPTIONIST"
)

// Valid сообщает, известна ли роль.
func (r Role) Valid() bool {
	switch r {
	case RoleSysAdmin, RoleAdmin, RoleManager, RoleAdminAux, RoleMechanic, RoleReceptionist:
		return true
	}
	return false
}

// User представляет сотрудника с учётной записью.
type User struct {
	ID           uuid.UUID `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         Role      `db:"role"`
	Department   *string   `db:"department"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// LoginRequest - запрос на аутентификацию.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse - ответ на успешный вход.
type LoginResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  Role      `json:"role"`
	Token string    `json:"token"`
}

// CreateUserRequest - создание учётной записи администратором.
type CreateUserRequest struct {
	Name       string  `json:"name" validate:"required"`
	Email      string  `json:"email" validate:"required,email"`
	Password   string  `json:"password" validate:"required,min=6"`
	Role       Role    `json:"role" validate:"required"`
	Department *string `json:"department"`
}

// UpdateUserRequest - частичное обновление учётной записи.
type UpdateUserRequest struct {
	Name       *string `json:"name"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Role       *Role   `json:"role"`
	Department *string `json:"department"`
	IsActive   *bool   `json:"isActive"`
}

// ChangePasswordRequest - сброс пароля администратором.
type ChangePasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

// UserResponse - пользователь без хеша пароля.
type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	Department *string   `json:"department"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  string    `json:"createdAt"`
}

// NewUserResponse собирает DTO из доменной модели.
func NewUserResponse(u *User) *UserResponse {
	return &UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Department: u.Department,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt.Format(time.RFC3339),
	}
}
