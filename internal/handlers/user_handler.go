package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/oficina-avance/oficina/internal/auth"
	"github.com/oficina-avance/oficina/internal/models"
	"github.com/oficina-avance/oficina/internal/services"
	"github.com/oficina-avance/oficina/internal/storage"
	"go.uber.org/zap"
)

// UserHandler обрабатывает вход, выход и администрирование сотрудников.
type UserHandler struct {
	userService services.UserService
	tokenTTL    time.Duration
	logger      *zap.Logger
}

// NewUserHandler создаёт новый экземпляр UserHandler.
func NewUserHandler(userService services.UserService, tokenTTL time.Duration, logger *zap.Logger) *UserHandler {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &UserHandler{
		userService: userService,
		tokenTTL:    tokenTTL,
		logger:      orNop(logger),
	}
}

// Login обрабатывает POST /api/login.
func (h *UserHandler) Login(c echo.Context) error {
	var req models.LoginRequest

	// Парсинг JSON body
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	user, token, err := h.userService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
		}
		return serviceError(h.logger, "failed to login user", err)
	}

	// Установка токена в cookie и заголовок
	h.setAuthToken(c, token)

	return c.JSON(http.StatusOK, models.LoginResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
		Token: token,
	})
}

// Logout обрабатывает POST /api/logout.
func (h *UserHandler) Logout(c echo.Context) error {
	claims, err := auth.GetClaimsFromContext(c)
	if err != nil {
		return err
	}

	if err := h.userService.Logout(c.Request().Context(), claims); err != nil {
		return serviceError(h.logger, "failed to logout user", err)
	}

	c.SetCookie(&http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
	return c.NoContent(http.StatusNoContent)
}

// Me обрабатывает GET /api/me.
func (h *UserHandler) Me(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	user, err := h.userService.Me(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "user not found")
		}
		return serviceError(h.logger, "failed to load profile", err)
	}

	return c.JSON(http.StatusOK, models.NewUserResponse(user))
}

// List обрабатывает GET /api/users.
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.userService.List(c.Request().Context())
	if err != nil {
		return serviceError(h.logger, "failed to list users", err)
	}

	response := make([]*models.UserResponse, 0, len(users))
	for _, u := range users {
		response = append(response, models.NewUserResponse(u))
	}
	return c.JSON(http.StatusOK, response)
}

// Create обрабатывает POST /api/users.
func (h *UserHandler) Create(c echo.Context) error {
	var req models.CreateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userService.Create(c.Request().Context(), req)
	if err != nil {
		return serviceError(h.logger, "failed to create user", err)
	}

	return c.JSON(http.StatusCreated, models.NewUserResponse(user))
}

// Update обрабатывает PUT /api/users/:id.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userService.Update(c.Request().Context(), id, req)
	if err != nil {
		return serviceError(h.logger, "failed to update user", err)
	}

	return c.JSON(http.StatusOK, models.NewUserResponse(user))
}

// ChangePassword обрабатывает PATCH /api/users/:id/password.
func (h *UserHandler) ChangePassword(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req models.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	if err := h.userService.ChangePassword(c.Request().Context(), id, req.NewPassword); err != nil {
		return serviceError(h.logger, "failed to change password", err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "password updated"})
}

// setAuthToken устанавливает токен в cookie и заголовок ответа.
func (h *UserHandler) setAuthToken(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(h.tokenTTL.Seconds()),
	})

	// Также устанавливаем в заголовок для удобства
	c.Response().Header().Set("Authorization", "Bearer "+token)
}
