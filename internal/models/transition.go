package models

import (
	"errors"
	"fmt"
	"strings"
)

// TransitionPolicy определяет, какие смены статуса разрешены.
type TransitionPolicy string

const (
	// PolicyPermissive разрешает из незакрытого статуса перейти в любой.
	PolicyPermissive TransitionPolicy = "permissive"
	// PolicyStrict разрешает только рёбра из strictTransitions.
	PolicyStrict TransitionPolicy = "strict"
)

var (
	// ErrOrderLocked - заказ-наряд закрыт и принимает только переоткрытие.
	ErrOrderLocked = errors.New("order is locked")
	// ErrInvalidTransition - переход запрещён политикой.
	ErrInvalidTransition = errors.New("status transition is not allowed")
)

var strictTransitions = map[WorkOrderStatus][]WorkOrderStatus{
	StatusOpen:            {StatusDiagnosis, StatusWaitingApproval, StatusInProgress, StatusCanceled},
	StatusDiagnosis:       {StatusWaitingApproval, StatusInProgress, StatusCanceled},
	StatusWaitingApproval: {StatusWaitingPart, StatusInProgress, StatusCanceled},
	StatusWaitingPart:     {StatusInProgress, StatusCanceled},
	StatusInProgress:      {StatusWaitingPart, StatusFinished, StatusCanceled},
}

// ParseTransitionPolicy разбирает значение из конфигурации. Пустая строка
// означает PolicyPermissive.
func ParseTransitionPolicy(raw string) (TransitionPolicy, error) {
	switch p := TransitionPolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return PolicyPermissive, nil
	case PolicyPermissive, PolicyStrict:
		return p, nil
	default:
		return "", fmt.Errorf("unknown transition policy %q", raw)
	}
}

// IsReopen сообщает, является ли переход переоткрытием закрытого заказ-наряда.
func IsReopen(from WorkOrderStatus, reason string) bool {
	return from.IsTerminal() && strings.TrimSpace(reason) != ""
}

// Check проверяет переход from -> to.
//
// Закрытый заказ-наряд покидает терминальный статус только в IN_PROGRESS
// и только с причиной. Тот же статус у открытого заказ-наряда разрешён всегда.
func (p TransitionPolicy) Check(from, to WorkOrderStatus, reason string) error {
	if from.IsTerminal() {
		if strings.TrimSpace(reason) == "" {
			return ErrOrderLocked
		}
		if to != StatusInProgress {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
		}
		return nil
	}

	if from == to || p != PolicyStrict {
		return nil
	}

	for _, allowed := range strictTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// AllowedTransitions возвращает статусы, в которые можно перейти из from.
func (p TransitionPolicy) AllowedTransitions(from WorkOrderStatus) []WorkOrderStatus {
	if from.IsTerminal() {
		return []WorkOrderStatus{StatusInProgress}
	}
	if p == PolicyStrict {
		return append([]WorkOrderStatus(nil), strictTransitions[from]...)
	}

	all := []WorkOrderStatus{StatusOpen, StatusDiagnosis, StatusWaitingApproval, StatusWaitingPart,
		StatusInProgress, StatusFinished, StatusCanceled}
	out := make([]WorkOrderStatus, 0, len(all)-1)
	for _, s := range all {
		if s != from {
			out = append(out, s)
		}
	}
	return out
}
