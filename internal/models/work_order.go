package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WorkOrderStatus - этап жизненного цикла заказ-наряда.
type WorkOrderStatus string

const (
	StatusOpen            WorkOrderStatus = "OPEN"
	StatusDiagnosis       WorkOrderStatus = "DIAGNOSIS"
	StatusWaitingApproval WorkOrderStatus = "WAITING_APPROVAL"
	StatusWaitingPart     WorkOrderStatus = "WAITING_PART"
	StatusInProgress      WorkOrderStatus = "IN_PROGRESS"
	StatusFinished        WorkOrderStatus = "FINISHED"
	StatusCanceled        WorkOrderStatus = "CANCELED"
)

// Valid сообщает, известен ли статус.
func (s WorkOrderStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusDiagnosis, StatusWaitingApproval, StatusWaitingPart,
		StatusInProgress, StatusFinished, StatusCanceled:
		return true
	}
	return false
}

// IsTerminal сообщает, закрыт ли заказ-наряд в этом статусе.
func (s WorkOrderStatus) IsTerminal() bool {
	return s == StatusFinished || s == StatusCanceled
}

// Priority - срочность заказ-наряда.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Valid сообщает, известен ли приоритет.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// PartOrigin - откуда взялась запчасть.
type PartOrigin string

const (
	OriginInternalStock    PartOrigin = "INTERNAL_STOCK"
	OriginPurchased        PartOrigin = "PURCHASED"
	OriginCustomerSupplied PartOrigin = "CUSTOMER_SUPPLIED"
)

// legacyOrigins - подписи, которые отправлял старый веб-клиент.
var legacyOrigins = map[string]PartOrigin{
	"estoque interno":      OriginInternalStock,
	"comprado externo":     OriginPurchased,
	"comprado fora":        OriginPurchased,
	"trazido pelo cliente": OriginCustomerSupplied,
}

// ParsePartOrigin нормализует происхождение запчасти. Пустое значение
// означает склад мастерской.
func ParsePartOrigin(raw string) (PartOrigin, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return OriginInternalStock, true
	}
	switch origin := PartOrigin(strings.ToUpper(value)); origin {
	case OriginInternalStock, OriginPurchased, OriginCustomerSupplied:
		return origin, true
	}
	origin, ok := legacyOrigins[strings.ToLower(value)]
	return origin, ok
}

// Тексты записей истории.
const HistoryOrderOpened = "Order Opened"

// HistoryStatusChanged - запись об обычной смене статуса.
func HistoryStatusChanged(status WorkOrderStatus) string {
	return fmt.Sprintf("Status changed to: %s", status)
}

// HistoryReopened - запись о смене статуса с указанием причины.
func HistoryReopened(status WorkOrderStatus, reason string) string {
	return fmt.Sprintf("Order REOPENED to %s. Reason: %s", status, reason)
}

// WorkOrder - заказ-наряд на обслуживание одного автомобиля.
type WorkOrder struct {
	ID          uuid.UUID       `db:"id"`
	Number      int64           `db:"number"`
	VehicleID   uuid.UUID       `db:"vehicle_id"`
	MechanicID  *uuid.UUID      `db:"mechanic_id"`
	Description string          `db:"description"`
	Status      WorkOrderStatus `db:"status"`
	Priority    Priority        `db:"priority"`
	Mileage     *int            `db:"mileage"`
	Diagnostic  *string         `db:"diagnostic"`
	Cause       *string         `db:"cause"`
	Notes       *string         `db:"notes"`
	Discount    decimal.Decimal `db:"discount"`
	LaborTotal  decimal.Decimal `db:"labor_total"`
	PartsTotal  decimal.Decimal `db:"parts_total"`
	GrandTotal  decimal.Decimal `db:"grand_total"`
	StartDate   time.Time       `db:"start_date"`
	EndDate     *time.Time      `db:"end_date"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// IsLocked сообщает, закрыт ли заказ-наряд для правок.
func (o *WorkOrder) IsLocked() bool {
	return o.Status.IsTerminal()
}

// ApplyStatus выставляет статус и согласованную с ним дату закрытия.
func (o *WorkOrder) ApplyStatus(status WorkOrderStatus, now time.Time) {
	o.Status = status
	if status.IsTerminal() {
		closedAt := now
		o.EndDate = &closedAt
		return
	}
	o.EndDate = nil
}

// ApplyTotals записывает пересчитанные суммы.
func (o *WorkOrder) ApplyTotals(t Totals) {
	o.LaborTotal = t.Labor
	o.PartsTotal = t.Parts
	o.GrandTotal = t.Grand
}

// OsService - работа, выполненная по заказ-наряду.
type OsService struct {
	ID            uuid.UUID        `db:"id"`
	WorkOrderID   uuid.UUID        `db:"work_order_id"`
	Description   string           `db:"description"`
	EstimatedTime *decimal.Decimal `db:"estimated_time"`
	RealTime      *decimal.Decimal `db:"real_time"`
	Price         decimal.Decimal  `db:"price"`
	CreatedAt     time.Time        `db:"created_at"`
}

// OsPart - запчасть, списанная на заказ-наряд.
type OsPart struct {
	ID          uuid.UUID       `db:"id"`
	WorkOrderID uuid.UUID       `db:"work_order_id"`
	Name        string          `db:"name"`
	Quantity    int             `db:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
	Origin      PartOrigin      `db:"origin"`
	CreatedAt   time.Time       `db:"created_at"`
}

// LineTotal - стоимость позиции.
func (p *OsPart) LineTotal() decimal.Decimal {
	return RoundMoney(p.UnitPrice.Mul(decimal.NewFromInt(int64(p.Quantity))))
}

// OsHistory - запись журнала заказ-наряда. Записи только добавляются.
type OsHistory struct {
	ID          uuid.UUID  `db:"id"`
	WorkOrderID uuid.UUID  `db:"work_order_id"`
	UserID      *uuid.UUID `db:"user_id"`
	Action      string     `db:"action"`
	CreatedAt   time.Time  `db:"created_at"`
}

// VehicleRef - данные автомобиля и клиента для отображения в заказ-наряде.
type VehicleRef struct {
	ID          uuid.UUID
	Plate       string
	Brand       string
	Model       string
	Year        *int
	VIN         *string
	FuelType    FuelType
	ClientID    uuid.UUID
	ClientName  string
	ClientPhone *string
}

// UserRef - механик, назначенный на заказ-наряд.
type UserRef struct {
	ID   uuid.UUID
	Name string
}

// WorkOrderSummary - строка списка заказ-нарядов.
type WorkOrderSummary struct {
	Order    WorkOrder
	Vehicle  VehicleRef
	Mechanic *UserRef
}

// WorkOrderDetails - полный агрегат заказ-наряда.
type WorkOrderDetails struct {
	WorkOrderSummary
	Services []*OsService
	Parts    []*OsPart
	History  []*OsHistory
}

// WorkOrderFilter - фильтр списка заказ-нарядов.
type WorkOrderFilter struct {
	Status *WorkOrderStatus
}
