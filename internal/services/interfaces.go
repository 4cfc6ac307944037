package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/oficina-avance/oficina/internal/models"
)

// UserStorage определяет интерфейс для работы с учётными записями.
type UserStorage interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// ClientStorage определяет интерфейс для работы с клиентами.
type ClientStorage interface {
	Create(ctx context.Context, client *models.Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	List(ctx context.Context) ([]*models.Client, error)
	Update(ctx context.Context, client *models.Client) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// VehicleStorage определяет интерфейс для работы с автомобилями.
type VehicleStorage interface {
	Create(ctx context.Context, vehicle *models.Vehicle) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	List(ctx context.Context) ([]*models.Vehicle, error)
	Update(ctx context.Context, vehicle *models.Vehicle) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// WorkOrderStorage определяет интерфейс для работы с заказ-нарядами.
// Методы с суффиксом Tx выполняются в транзакции команды.
type WorkOrderStorage interface {
	CreateTx(ctx context.Context, tx pgx.Tx, order *models.WorkOrder) error
	GetForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.WorkOrder, error)
	UpdateTx(ctx context.Context, tx pgx.Tx, order *models.WorkOrder) error
	AddServiceTx(ctx context.Context, tx pgx.Tx, service *models.OsService) error
	AddPartTx(ctx context.Context, tx pgx.Tx, part *models.OsPart) error
	AddHistoryTx(ctx context.Context, tx pgx.Tx, entry *models.OsHistory) error
	ListServicesTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]*models.OsService, error)
	ListPartsTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]*models.OsPart, error)
	List(ctx context.Context, filter models.WorkOrderFilter) ([]*models.WorkOrderSummary, error)
	GetDetails(ctx context.Context, id uuid.UUID) (*models.WorkOrderDetails, error)
}
