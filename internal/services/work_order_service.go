package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/oficina-avance/oficina/internal/apperr"
	"github.com/oficina-avance/oficina/internal/auth"
	"github.com/oficina-avance/oficina/internal/models"
	"github.com/oficina-avance/oficina/internal/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WorkOrderService определяет операции над заказ-нарядами. Каждая операция
// получает исполнителя явно.
type WorkOrderService interface {
	Create(ctx context.Context, actor auth.Actor, req models.CreateWorkOrderRequest) (*models.WorkOrder, error)
	List(ctx context.Context, actor auth.Actor, filter models.WorkOrderFilter) ([]*models.WorkOrderSummary, error)
	Show(ctx context.Context, actor auth.Actor, id uuid.UUID) (*models.WorkOrderDetails, error)
	SetStatus(ctx context.Context, actor auth.Actor, id uuid.UUID, req models.SetStatusRequest) (*models.WorkOrder, error)
	UpdateDetails(ctx context.Context, actor auth.Actor, id uuid.UUID, req models.UpdateDetailsRequest) (*models.WorkOrder, error)
	AddService(ctx context.Context, actor auth.Actor, id uuid.UUID, req models.AddServiceRequest) (*models.OsService, error)
	AddPart(ctx context.Context, actor auth.Actor, id uuid.UUID, req models.AddPartRequest) (*models.OsPart, error)
	Policy() models.TransitionPolicy
}

// WorkOrderServiceImpl реализует WorkOrderService поверх PostgreSQL.
// Каждая команда выполняется в одной транзакции с блокировкой строки заказ-наряда.
type WorkOrderServiceImpl struct {
	pool    storage.TxBeginner
	orders  WorkOrderStorage
	policy  models.TransitionPolicy
	logger  *zap.Logger
	nowFunc func() time.Time
}

// NewWorkOrderService создаёт сервис заказ-нарядов.
func NewWorkOrderService(pool storage.TxBeginner, orders WorkOrderStorage, policy models.TransitionPolicy, logger *zap.Logger) *WorkOrderServiceImpl {
	if policy == "" {
		policy = models.PolicyPermissive
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkOrderServiceImpl{
		pool:    pool,
		orders:  orders,
		policy:  policy,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// Policy возвращает действующую политику переходов.
func (s *WorkOrderServiceImpl) Policy() models.TransitionPolicy {
	return s.policy
}

// authorize отклоняет неопределённого исполнителя и чужие роли.
func authorize(actor auth.Actor, roles ...models.Role) error {
	if actor.IsZero() {
		return apperr.Forbidden("actor is required")
	}
	if len(roles) > 0 && !actor.HasRole(roles...) {
		return apperr.Forbidden("role %s is not allowed to perform this action", actor.Role)
	}
	return nil
}

// Create открывает заказ-наряд и пишет первую запись журнала.
func (s *WorkOrderServiceImpl) Create(ctx context.Context, actor auth.Actor, req models.CreateWorkOrderRequest) (*models.WorkOrder, error) {
	if err := authorize(actor, auth.WorkOrderOpeners...); err != nil {
		return nil, err
	}

	description := strings.TrimSpace(req.Description)
	switch {
	case req.VehicleID == uuid.Nil:
		return nil, apperr.Validation("vehicleId is required")
	case description == "":
		return nil, apperr.Validation("description is required")
	case req.Mileage != nil && *req.Mileage < 0:
		return nil, apperr.Validation("mileage must not be negative")
	case req.Mileage != nil && *req.Mileage > models.MaxCount:
		return nil, apperr.Validation("mileage must be at most %d", models.MaxCount)
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	if !priority.Valid() {
		return nil, apperr.Validation("unknown priority %q", priority)
	}

	order := &models.WorkOrder{
		VehicleID:   req.VehicleID,
		Description: description,
		Status:      models.StatusOpen,
		Priority:    priority,
		Mileage:     req.Mileage,
		Discount:    decimal.Zero,
		LaborTotal:  decimal.Zero,
		PartsTotal:  decimal.Zero,
		GrandTotal:  decimal.Zero,
	}

	err := storage.WithinTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.orders.CreateTx(ctx, tx, order); err != nil {
			return err
		}
		return s.appendHistory(ctx, tx, order.ID, actor, models.HistoryOrderOpened)
	})
	if err != nil {
		return nil, classifyWorkOrderError("create work order", err)
	}

	s.logger.Info("work order opened",
		zap.Int64("number", order.Number),
		zap.String("vehicle_id", order.VehicleID.String()),
		zap.String("user_id", actor.UserID.String()))

	return order, nil
}

// List возвращает сводки заказ-нарядов, новые первыми.
func (s *WorkOrderServiceImpl) List(ctx context.Context, actor auth.Actor, filter models.WorkOrderFilter) ([]*models.WorkOrderSummary, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperr.Validation("unknown status %q", *filter.Status)
	}

	list, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list work orders: %w", err)
	}
	return list, nil
}

// Show возвращает заказ-наряд со всеми позициями и журналом.
func (s *WorkOrderServiceImpl) Show(ctx context.Context, actor auth.Actor, id uuid.UUID) (*models.WorkOrderDetails, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}

	details, err := s.orders.GetDetails(ctx, id)
	if err != nil {
		return nil, classifyWorkOrderError("show work order", err)
	}
	return details, nil
}

// SetStatus меняет статус, назначает механика и переоткрывает закрытый
// заказ-наряд, если передана причина.
func (s *WorkOrderServiceImpl) SetStatus(ctx context.Context, actor auth.Actor, id uuid.UUID, req models.SetStatusRequest) (*models.WorkOrder, error) {
	if err := authorize(actor, auth.WorkOrderEditors...); err != nil {
		return nil, err
	}
	if !req.Status.Valid() {
		return nil, apperr.Validation("unknown status %q", req.Status)
	}
	if req.MechanicID != nil && *req.MechanicID == uuid.Nil {
		return nil, apperr.Validation("mechanicId is invalid")
	}

	var reason string
	if req.Reason != nil {
		reason = strings.TrimSpace(*req.Reason)
	}

	var (
		order  *models.WorkOrder
		reopen bool
	)
	err := storage.WithinTx(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		if order, err = s.orders.GetForUpdateTx(ctx, tx, id); err != nil {
			return err
		}

		reopen = models.IsReopen(order.Status, reason)
		if reopen && !actor.HasRole(auth.ElevatedRoles...) {
			return apperr.Forbidden("only administrators and managers can reopen a closed order")
		}
		if err := s.policy.Check(order.Status, req.Status, reason); err != nil {
			return err
		}

		if req.MechanicID != nil {
			mechanicID := *req.MechanicID
			order.MechanicID = &mechanicID
		}
		order.ApplyStatus(req.Status, s.nowFunc())

		if err := s.orders.UpdateTx(ctx, tx, order); err != nil {
			return err
		}

		action := models.HistoryStatusChanged(req.Status)
		if reason != "" {
			action = models.HistoryReopened(req.Status, reason)
		}
		return s.appendHistory(ctx, tx, order.ID, actor, action)
	})
	if err != nil {
		return nil, classifyWorkOrderError("set work order status", err)
	}

	if reopen {
		s.logger.Info("work order reopened",
			zap.Int64("number", order.Number),
			zap.String("reason", reason),
			zap.String("user_id", actor.UserID.String()))
	}

	return order, nil
}

// UpdateDetails частично обновляет детали. Скидка пересчитывает суммы.
func (s *WorkOrderServiceImpl) UpdateDetails(ctx context.Context, actor auth.Actor, id uuid.UUID, req models.UpdateDetailsRequest) (*models.WorkOrder, error) {
	if err := authorize(actor, auth.WorkOrderEditors...); err != nil {
		return nil, err
	}
	if req.Priority != nil && !req.Priority.Valid() {
		return nil, apperr.Validation("unknown priority %q", *req.Priority)
	}
	if req.Discount != nil {
		if err := checkMoney("discount", *req.Discount); err != nil {
			return nil, err
		}
	}

	var order *models.WorkOrder
	err := storage.WithinTx(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		if order, err = s.lockMutable(ctx, tx, id); err != nil {
			return err
		}

		if req.Diagnostic != nil {
			order.Diagnostic = req.Diagnostic
		}
		if req.Cause != nil {
			order.Cause = req.Cause
		}
		if req.Notes != nil {
			order.Notes = req.Notes
		}
		if req.Priority != nil {
			order.Priority = *req.Priority
		}
		if req.Discount != nil {
			order.Discount = models.RoundMoney(*req.Discount)
			if err := s.recalculate(ctx, tx, order); err != nil {
				return err
			}
		}

		return s.orders.UpdateTx(ctx, tx, order)
	})
	if err != nil {
		return nil, classifyWorkOrderError("update work order details", err)
	}

	return order, nil
}

// AddService добавляет работу и пересчитывает суммы.
func (s *WorkOrderServiceImpl) AddService(ctx context.Context, actor auth.Actor, id uuid.UUID, req models.AddServiceRequest) (*models.OsService, error) {
	if err := authorize(actor, auth.WorkOrderEditors...); err != nil {
		return nil, err
	}

	description := strings.TrimSpace(req.Description)
	switch {
	case description == "":
		return nil, apperr.Validation("description is required")
	case req.Price == nil:
		return nil, apperr.Validation("price is required")
	}
	if err := checkMoney("price", *req.Price); err != nil {
		return nil, err
	}
	if err := checkHours("estimatedTime", req.EstimatedTime); err != nil {
		return nil, err
	}
	if err := checkHours("realTime", req.RealTime); err != nil {
		return nil, err
	}

	service := &models.OsService{
		WorkOrderID:   id,
		Description:   description,
		EstimatedTime: roundHours(req.EstimatedTime),
		RealTime:      roundHours(req.RealTime),
		Price:         models.RoundMoney(*req.Price),
	}

	err := storage.WithinTx(ctx, s.pool, func(tx pgx.Tx) error {
		order, err := s.lockMutable(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.orders.AddServiceTx(ctx, tx, service); err != nil {
			return err
		}
		if err := s.recalculate(ctx, tx, order); err != nil {
			return err
		}
		return s.orders.UpdateTx(ctx, tx, order)
	})
	if err != nil {
		return nil, classifyWorkOrderError("add service", err)
	}

	return service, nil
}

// AddPart добавляет запчасть и пересчитывает суммы.
func (s *WorkOrderServiceImpl) AddPart(ctx context.Context, actor auth.Actor, id uuid.UUID, req models.AddPartRequest) (*models.OsPart, error) {
	if err := authorize(actor, auth.WorkOrderEditors...); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		return nil, apperr.Validation("name is required")
	case req.Quantity == nil || *req.Quantity < 1:
		return nil, apperr.Validation("quantity must be at least 1")
	case *req.Quantity > models.MaxCount:
		return nil, apperr.Validation("quantity must be at most %d", models.MaxCount)
	case req.UnitPrice == nil:
		return nil, apperr.Validation("unitPrice is required")
	}
	if err := checkMoney("unitPrice", *req.UnitPrice); err != nil {
		return nil, err
	}

	origin, ok := models.ParsePartOrigin(req.Origin)
	if !ok {
		return nil, apperr.Validation("unknown part origin %q", req.Origin)
	}

	part := &models.OsPart{
		WorkOrderID: id,
		Name:        name,
		Quantity:    *req.Quantity,
		UnitPrice:   models.RoundMoney(*req.UnitPrice),
		Origin:      origin,
	}

	err := storage.WithinTx(ctx, s.pool, func(tx pgx.Tx) error {
		order, err := s.lockMutable(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.orders.AddPartTx(ctx, tx, part); err != nil {
			return err
		}
		if err := s.recalculate(ctx, tx, order); err != nil {
			return err
		}
		return s.orders.UpdateTx(ctx, tx, order)
	})
	if err != nil {
		return nil, classifyWorkOrderError("add part", err)
	}

	return part, nil
}

// lockMutable блокирует заказ-наряд и отклоняет закрытый.
func (s *WorkOrderServiceImpl) lockMutable(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.WorkOrder, error) {
	order, err := s.orders.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if order.IsLocked() {
		return nil, models.ErrOrderLocked
	}
	return order, nil
}

// recalculate перечитывает все позиции и пересчитывает суммы заказ-наряда.
func (s *WorkOrderServiceImpl) recalculate(ctx context.Context, tx pgx.Tx, order *models.WorkOrder) error {
	services, err := s.orders.ListServicesTx(ctx, tx, order.ID)
	if err != nil {
		return err
	}
	parts, err := s.orders.ListPartsTx(ctx, tx, order.ID)
	if err != nil {
		return err
	}
	totals := models.CalculateTotals(services, parts, order.Discount)
	if !totals.WithinLimits() {
		return apperr.Validation("work order totals must not exceed %s", models.MaxMoney)
	}
	order.ApplyTotals(totals)
	return nil
}

func (s *WorkOrderServiceImpl) appendHistory(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, actor auth.Actor, action string) error {
	userID := actor.UserID
	return s.orders.AddHistoryTx(ctx, tx, &models.OsHistory{
		WorkOrderID: orderID,
		UserID:      &userID,
		Action:      action,
	})
}

// checkMoney проверяет сумму после округления до копеек.
func checkMoney(field string, d decimal.Decimal) error {
	rounded := models.RoundMoney(d)
	switch {
	case d.IsNegative():
		return apperr.Validation("%s must not be negative", field)
	case rounded.GreaterThan(models.MaxMoney):
		return apperr.Validation("%s must be at most %s", field, models.MaxMoney)
	}
	return nil
}

func checkHours(field string, d *decimal.Decimal) error {
	if d == nil {
		return nil
	}
	rounded := d.Round(2)
	switch {
	case d.IsNegative():
		return apperr.Validation("%s must not be negative", field)
	case rounded.GreaterThan(models.MaxHours):
		return apperr.Validation("%s must be at most %s", field, models.MaxHours)
	}
	return nil
}

func roundHours(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	rounded := d.Round(2)
	return &rounded
}

// classifyWorkOrderError переводит ошибки хранилища и модели в виды apperr.
func classifyWorkOrderError(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrWorkOrderNotFound):
		return apperr.NotFound("work order not found")
	case errors.Is(err, storage.ErrVehicleNotFound):
		return apperr.NotFound("vehicle not found")
	case errors.Is(err, storage.ErrMechanicNotFound):
		return apperr.NotFound("mechanic not found")
	case errors.Is(err, models.ErrOrderLocked):
		return apperr.Conflict("order is locked")
	case errors.Is(err, models.ErrInvalidTransition):
		return apperr.Conflict("%v", err)
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
