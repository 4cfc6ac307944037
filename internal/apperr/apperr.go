// Package apperr классифицирует ошибки приложения по видам, которые
// HTTP-слой превращает в коды ответа.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation - некорректный или отсутствующий входной параметр.
	ErrValidation = errors.New("validation error")
	// ErrNotFound - сущность не найдена.
	ErrNotFound = errors.New("not found")
	// ErrConflict - нарушение уникальности или недопустимое состояние сущности.
	ErrConflict = errors.New("conflict")
	// ErrForbidden - у исполнителя нет прав на операцию.
	ErrForbidden = errors.New("forbidden")
)

// Error - ошибка с видом и сообщением для клиента.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

func newError(kind error, format string, args ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Validation создаёт ошибку валидации.
func Validation(format string, args ...any) error {
	return newError(ErrValidation, format, args...)
}

// NotFound создаёт ошибку отсутствия сущности.
func NotFound(format string, args ...any) error {
	return newError(ErrNotFound, format, args...)
}

// Conflict создаёт ошибку конфликта.
func Conflict(format string, args ...any) error {
	return newError(ErrConflict, format, args...)
}

// Forbidden создаёт ошибку доступа.
func Forbidden(format string, args ...any) error {
	return newError(ErrForbidden, format, args...)
}

// Message возвращает сообщение для клиента, если err классифицирована.
func Message(err error) (string, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.msg, true
	}
	return "", false
}
