package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/oficina-avance/oficina/internal/models"
)

var (
	ErrWorkOrderNotFound = errors.New("work order not found")
	ErrMechanicNotFound  = errors.New("mechanic not found")
)

const workOrderColumns = `wo.id, wo.number, wo.vehicle_id, wo.mechanic_id, wo.description, wo.status, wo.priority,
	wo.mileage, wo.diagnostic, wo.cause, wo.notes, wo.discount, wo.labor_total, wo.parts_total, wo.grand_total,
	wo.start_date, wo.end_date, wo.updated_at`

// PostgresWorkOrderStorage хранит заказ-наряды, их позиции и журнал.
// Методы с суффиксом Tx работают внутри транзакции команды.
type PostgresWorkOrderStorage struct {
	db DB
}

// NewPostgresWorkOrderStorage создаёт новый экземпляр PostgresWorkOrderStorage.
func NewPostgresWorkOrderStorage(db DB) *PostgresWorkOrderStorage {
	return &PostgresWorkOrderStorage{db: db}
}

func workOrderTargets(o *models.WorkOrder) []any {
	return []any{
		&o.ID, &o.Number, &o.VehicleID, &o.MechanicID, &o.Description, &o.Status, &o.Priority,
		&o.Mileage, &o.Diagnostic, &o.Cause, &o.Notes, &o.Discount, &o.LaborTotal, &o.PartsTotal, &o.GrandTotal,
		&o.StartDate, &o.EndDate, &o.UpdatedAt,
	}
}

// CreateTx вставляет заказ-наряд. Номер и дату открытия назначает база.
func (s *PostgresWorkOrderStorage) CreateTx(ctx context.Context, tx pgx.Tx, order *models.WorkOrder) error {
	query := `
		INSERT INTO work_orders (id, vehicle_id, description, status, priority, mileage, discount,
			labor_total, parts_total, grand_total, start_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING number, start_date, updated_at
	`

	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}

	err := tx.QueryRow(ctx, query,
		order.ID,
		order.VehicleID,
		order.Description,
		order.Status,
		order.Priority,
		order.Mileage,
		order.Discount,
		order.LaborTotal,
		order.PartsTotal,
		order.GrandTotal,
	).Scan(&order.Number, &order.StartDate, &order.UpdatedAt)

	if err != nil {
		if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
			return ErrVehicleNotFound
		}
		return fmt.Errorf("failed to create work order: %w", err)
	}

	return nil
}

// GetForUpdateTx читает заказ-наряд и блокирует строку до конца транзакции.
func (s *PostgresWorkOrderStorage) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.WorkOrder, error) {
	query := `SELECT ` + workOrderColumns + ` FROM work_orders wo WHERE wo.id = $1 FOR UPDATE`

	order := &models.WorkOrder{}
	if err := tx.QueryRow(ctx, query, id).Scan(workOrderTargets(order)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkOrderNotFound
		}
		return nil, fmt.Errorf("failed to lock work order: %w", err)
	}

	return order, nil
}

// UpdateTx сохраняет изменяемые поля заказ-наряда и пересчитанные суммы.
func (s *PostgresWorkOrderStorage) UpdateTx(ctx context.Context, tx pgx.Tx, order *models.WorkOrder) error {
	query := `
		UPDATE work_orders
		SET status = $1, mechanic_id = $2, priority = $3, diagnostic = $4, cause = $5, notes = $6,
			discount = $7, labor_total = $8, parts_total = $9, grand_total = $10, end_date = $11, updated_at = NOW()
		WHERE id = $12
		RETURNING updated_at
	`

	err := tx.QueryRow(ctx, query,
		order.Status,
		order.MechanicID,
		order.Priority,
		order.Diagnostic,
		order.Cause,
		order.Notes,
		order.Discount,
		order.LaborTotal,
		order.PartsTotal,
		order.GrandTotal,
		order.EndDate,
		order.ID,
	).Scan(&order.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrWorkOrderNotFound
		}
		if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
			return ErrMechanicNotFound
		}
		return fmt.Errorf("failed to update work order: %w", err)
	}

	return nil
}

// AddServiceTx добавляет работу к заказ-наряду.
func (s *PostgresWorkOrderStorage) AddServiceTx(ctx context.Context, tx pgx.Tx, service *models.OsService) error {
	query := `
		INSERT INTO os_services (id, work_order_id, description, estimated_time, real_time, price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`

	if service.ID == uuid.Nil {
		service.ID = uuid.New()
	}

	err := tx.QueryRow(ctx, query,
		service.ID,
		service.WorkOrderID,
		service.Description,
		service.EstimatedTime,
		service.RealTime,
		service.Price,
	).Scan(&service.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add service: %w", err)
	}

	return nil
}

// AddPartTx добавляет запчасть к заказ-наряду.
func (s *PostgresWorkOrderStorage) AddPartTx(ctx context.Context, tx pgx.Tx, part *models.OsPart) error {
	query := `
		INSERT INTO os_parts (id, work_order_id, name, quantity, unit_price, origin, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`

	if part.ID == uuid.Nil {
		part.ID = uuid.New()
	}

	err := tx.QueryRow(ctx, query,
		part.ID,
		part.WorkOrderID,
		part.Name,
		part.Quantity,
		part.UnitPrice,
		part.Origin,
	).Scan(&part.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add part: %w", err)
	}

	return nil
}

// AddHistoryTx дописывает запись в журнал заказ-наряда.
func (s *PostgresWorkOrderStorage) AddHistoryTx(ctx context.Context, tx pgx.Tx, entry *models.OsHistory) error {
	query := `
		INSERT INTO os_history (id, work_order_id, user_id, action, created_at)
		VALUES ($1, $2, $3, $4, clock_timestamp())
		RETURNING created_at
	`

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	err := tx.QueryRow(ctx, query,
		entry.ID,
		entry.WorkOrderID,
		entry.UserID,
		entry.Action,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add history entry: %w", err)
	}

	return nil
}

// ListServicesTx читает все работы заказ-наряда в порядке добавления.
func (s *PostgresWorkOrderStorage) ListServicesTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]*models.OsService, error) {
	return listServices(ctx, tx, orderID)
}

// ListPartsTx читает все запчасти заказ-наряда в порядке добавления.
func (s *PostgresWorkOrderStorage) ListPartsTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]*models.OsPart, error) {
	return listParts(ctx, tx, orderID)
}

// List возвращает сводки заказ-нарядов, новые номера первыми.
func (s *PostgresWorkOrderStorage) List(ctx context.Context, filter models.WorkOrderFilter) ([]*models.WorkOrderSummary, error) {
	query := `SELECT ` + workOrderSummaryColumns + workOrderSummaryFrom
	args := []any{}
	if filter.Status != nil {
		query += ` WHERE wo.status = $1`
		args = append(args, *filter.Status)
	}
	query += ` ORDER BY wo.number DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query work orders: %w", err)
	}
	defer rows.Close()

	summaries := make([]*models.WorkOrderSummary, 0)
	for rows.Next() {
		summary, err := scanWorkOrderSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}

	return summaries, nil
}

// GetDetails собирает полный агрегат заказ-наряда.
func (s *PostgresWorkOrderStorage) GetDetails(ctx context.Context, id uuid.UUID) (*models.WorkOrderDetails, error) {
	query := `SELECT ` + workOrderSummaryColumns + workOrderSummaryFrom + ` WHERE wo.id = $1`

	summary, err := scanWorkOrderSummary(s.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	details := &models.WorkOrderDetails{WorkOrderSummary: *summary}

	if details.Services, err = listServices(ctx, s.db, id); err != nil {
		return nil, err
	}
	if details.Parts, err = listParts(ctx, s.db, id); err != nil {
		return nil, err
	}
	if details.History, err = listHistory(ctx, s.db, id); err != nil {
		return nil, err
	}

	return details, nil
}

const workOrderSummaryColumns = workOrderColumns + `,
	v.id, v.plate, v.brand, v.model, v.year, v.vin, v.fuel_type,
	c.id, c.name, c.phone,
	m.id, m.name`

const workOrderSummaryFrom = `
	FROM work_orders wo
	JOIN vehicles v ON v.id = wo.vehicle_id
	JOIN clients c ON c.id = v.client_id
	LEFT JOIN users m ON m.id = wo.mechanic_id`

// scanWorkOrderSummary читает заказ-наряд вместе с автомобилем, клиентом и механиком.
func scanWorkOrderSummary(row pgx.Row) (*models.WorkOrderSummary, error) {
	var (
		summary      models.WorkOrderSummary
		mechanicID   *uuid.UUID
		mechanicName *string
	)

	targets := append(workOrderTargets(&summary.Order),
		&summary.Vehicle.ID,
		&summary.Vehicle.Plate,
		&summary.Vehicle.Brand,
		&summary.Vehicle.Model,
		&summary.Vehicle.Year,
		&summary.Vehicle.VIN,
		&summary.Vehicle.FuelType,
		&summary.Vehicle.ClientID,
		&summary.Vehicle.ClientName,
		&summary.Vehicle.ClientPhone,
		&mechanicID,
		&mechanicName,
	)

	if err := row.Scan(targets...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkOrderNotFound
		}
		return nil, fmt.Errorf("failed to scan work order: %w", err)
	}

	if mechanicID != nil {
		summary.Mechanic = &models.UserRef{ID: *mechanicID}
		if mechanicName != nil {
			summary.Mechanic.Name = *mechanicName
		}
	}

	return &summary, nil
}

func listServices(ctx context.Context, q DB, orderID uuid.UUID) ([]*models.OsService, error) {
	query := `
		SELECT id, work_order_id, description, estimated_time, real_time, price, created_at
		FROM os_services
		WHERE work_order_id = $1
		ORDER BY created_at ASC
	`

	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query services: %w", err)
	}
	defer rows.Close()

	services := make([]*models.OsService, 0)
	for rows.Next() {
		svc := &models.OsService{}
		if err := rows.Scan(
			&svc.ID,
			&svc.WorkOrderID,
			&svc.Description,
			&svc.EstimatedTime,
			&svc.RealTime,
			&svc.Price,
			&svc.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, svc)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}

	return services, nil
}

func listParts(ctx context.Context, q DB, orderID uuid.UUID) ([]*models.OsPart, error) {
	query := `
		SELECT id, work_order_id, name, quantity, unit_price, origin, created_at
		FROM os_parts
		WHERE work_order_id = $1
		ORDER BY created_at ASC
	`

	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query parts: %w", err)
	}
	defer rows.Close()

	parts := make([]*models.OsPart, 0)
	for rows.Next() {
		part := &models.OsPart{}
		if err := rows.Scan(
			&part.ID,
			&part.WorkOrderID,
			&part.Name,
			&part.Quantity,
			&part.UnitPrice,
			&part.Origin,
			&part.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan part: %w", err)
		}
		parts = append(parts, part)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}

	return parts, nil
}

func listHistory(ctx context.Context, q DB, orderID uuid.UUID) ([]*models.OsHistory, error) {
	query := `
		SELECT id, work_order_id, user_id, action, created_at
		FROM os_history
		WHERE work_order_id = $1
		ORDER BY created_at DESC
	`

	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	history := make([]*models.OsHistory, 0)
	for rows.Next() {
		entry := &models.OsHistory{}
		if err := rows.Scan(
			&entry.ID,
			&entry.WorkOrderID,
			&entry.UserID,
			&entry.Action,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		history = append(history, entry)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}

	return history, nil
}
