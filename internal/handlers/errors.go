package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/oficina-avance/oficina/internal/apperr"
	"go.uber.org/zap"
)

// serviceError переводит ошибку сервиса в HTTP-ошибку. Неклассифицированные
// ошибки логируются и скрываются за 500.
func serviceError(logger *zap.Logger, op string, err error) error {
	if msg, ok := apperr.Message(err); ok {
		switch {
		case errors.Is(err, apperr.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, msg)
		case errors.Is(err, apperr.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, msg)
		case errors.Is(err, apperr.ErrConflict):
			return echo.NewHTTPError(http.StatusConflict, msg)
		case errors.Is(err, apperr.ErrForbidden):
			return echo.NewHTTPError(http.StatusForbidden, msg)
		}
	}

	logger.Error(op, zap.Error(err))
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
}

// pathID читает UUID из параметра маршрута.
func pathID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
