package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateWorkOrderRequest - открытие заказ-наряда.
type CreateWorkOrderRequest struct {
	VehicleID   uuid.UUID `json:"vehicleId"`
	Description string    `json:"description"`
	Mileage     *int      `json:"mileage"`
	Priority    Priority  `json:"priority"`
}

// SetStatusRequest - смена статуса, взятие в работу или переоткрытие.
type SetStatusRequest struct {
	Status     WorkOrderStatus `json:"status" validate:"required"`
	MechanicID *uuid.UUID      `json:"mechanicId"`
	Reason     *string         `json:"reason"`
}

// UpdateDetailsRequest - частичное обновление деталей. Меняются только
// переданные поля.
type UpdateDetailsRequest struct {
	Diagnostic *string          `json:"diagnostic"`
	Cause      *string          `json:"cause"`
	Notes      *string          `json:"notes"`
	Priority   *Priority        `json:"priority"`
	Discount   *decimal.Decimal `json:"discount"`
}

// AddServiceRequest - добавление работы.
type AddServiceRequest struct {
	Description   string           `json:"description" validate:"required"`
	EstimatedTime *decimal.Decimal `json:"estimatedTime"`
	RealTime      *decimal.Decimal `json:"realTime"`
	Price         *decimal.Decimal `json:"price" validate:"required"`
}

// AddPartRequest - добавление запчасти.
type AddPartRequest struct {
	Name      string           `json:"name" validate:"required"`
	Quantity  *int             `json:"quantity" validate:"required"`
	UnitPrice *decimal.Decimal `json:"unitPrice" validate:"required"`
	Origin    string           `json:"origin"`
}

func money(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func optionalMoney(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := money(*d)
	return &f
}

func optionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

// WorkOrderResponse - DTO заказ-наряда.
type WorkOrderResponse struct {
	ID          uuid.UUID       `json:"id"`
	Number      int64           `json:"number"`
	VehicleID   uuid.UUID       `json:"vehicleId"`
	MechanicID  *uuid.UUID      `json:"mechanicId"`
	Description string          `json:"description"`
	Status      WorkOrderStatus `json:"status"`
	Priority    Priority        `json:"priority"`
	Mileage     *int            `json:"mileage"`
	Diagnostic  *string         `json:"diagnostic"`
	Cause       *string         `json:"cause"`
	Notes       *string         `json:"notes"`
	Discount    float64         `json:"discount"`
	LaborTotal  float64         `json:"laborTotal"`
	PartsTotal  float64         `json:"partsTotal"`
	GrandTotal  float64         `json:"grandTotal"`
	StartDate   string          `json:"startDate"`
	EndDate     *string         `json:"endDate"`
	UpdatedAt   string          `json:"updatedAt"`
}

// NewWorkOrderResponse собирает DTO из доменной модели.
func NewWorkOrderResponse(o *WorkOrder) *WorkOrderResponse {
	return &WorkOrderResponse{
		ID:          o.ID,
		Number:      o.Number,
		VehicleID:   o.VehicleID,
		MechanicID:  o.MechanicID,
		Description: o.Description,
		Status:      o.Status,
		Priority:    o.Priority,
		Mileage:     o.Mileage,
		Diagnostic:  o.Diagnostic,
		Cause:       o.Cause,
		Notes:       o.Notes,
		Discount:    money(o.Discount),
		LaborTotal:  money(o.LaborTotal),
		PartsTotal:  money(o.PartsTotal),
		GrandTotal:  money(o.GrandTotal),
		StartDate:   o.StartDate.Format(time.RFC3339),
		EndDate:     optionalTime(o.EndDate),
		UpdatedAt:   o.UpdatedAt.Format(time.RFC3339),
	}
}

// ServiceResponse - DTO работы.
type ServiceResponse struct {
	ID            uuid.UUID `json:"id"`
	WorkOrderID   uuid.UUID `json:"workOrderId"`
	Description   string    `json:"description"`
	EstimatedTime *float64  `json:"estimatedTime"`
	RealTime      *float64  `json:"realTime"`
	Price         float64   `json:"price"`
	CreatedAt     string    `json:"createdAt"`
}

// NewServiceResponse собирает DTO работы.
func NewServiceResponse(s *OsService) *ServiceResponse {
	return &ServiceResponse{
		ID:            s.ID,
		WorkOrderID:   s.WorkOrderID,
		Description:   s.Description,
		EstimatedTime: optionalMoney(s.EstimatedTime),
		RealTime:      optionalMoney(s.RealTime),
		Price:         money(s.Price),
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
	}
}

// PartResponse - DTO запчасти.
type PartResponse struct {
	ID          uuid.UUID  `json:"id"`
	WorkOrderID uuid.UUID  `json:"workOrderId"`
	Name        string     `json:"name"`
	Quantity    int        `json:"quantity"`
	UnitPrice   float64    `json:"unitPrice"`
	Total       float64    `json:"total"`
	Origin      PartOrigin `json:"origin"`
	CreatedAt   string     `json:"createdAt"`
}

// NewPartResponse собирает DTO запчасти.
func NewPartResponse(p *OsPart) *PartResponse {
	return &PartResponse{
		ID:          p.ID,
		WorkOrderID: p.WorkOrderID,
		Name:        p.Name,
		Quantity:    p.Quantity,
		UnitPrice:   money(p.UnitPrice),
		Total:       money(p.LineTotal()),
		Origin:      p.Origin,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}

// HistoryResponse - DTO записи журнала.
type HistoryResponse struct {
	ID        uuid.UUID  `json:"id"`
	UserID    *uuid.UUID `json:"userId"`
	Action    string     `json:"action"`
	CreatedAt string     `json:"createdAt"`
}

// VehicleRefResponse - автомобиль в составе заказ-наряда.
type VehicleRefResponse struct {
	ID       uuid.UUID         `json:"id"`
	Plate    string            `json:"plate"`
	Brand    string            `json:"brand"`
	Model    string            `json:"model"`
	Year     *int              `json:"year,omitempty"`
	VIN      *string           `json:"vin,omitempty"`
	FuelType FuelType          `json:"fuelType,omitempty"`
	Client   ClientRefResponse `json:"client"`
}

// ClientRefResponse - владелец автомобиля в составе заказ-наряда.
type ClientRefResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Phone *string   `json:"phone"`
}

// MechanicResponse - назначенный механик.
type MechanicResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// WorkOrderSummaryResponse - строка списка заказ-нарядов.
type WorkOrderSummaryResponse struct {
	*WorkOrderResponse
	Vehicle  VehicleRefResponse `json:"vehicle"`
	Mechanic *MechanicResponse  `json:"mechanic"`
}

// NewWorkOrderSummaryResponse собирает строку списка.
func NewWorkOrderSummaryResponse(s *WorkOrderSummary) *WorkOrderSummaryResponse {
	resp := &WorkOrderSummaryResponse{
		WorkOrderResponse: NewWorkOrderResponse(&s.Order),
		Vehicle: VehicleRefResponse{
			ID:       s.Vehicle.ID,
			Plate:    s.Vehicle.Plate,
			Brand:    s.Vehicle.Brand,
			Model:    s.Vehicle.Model,
			Year:     s.Vehicle.Year,
			VIN:      s.Vehicle.VIN,
			FuelType: s.Vehicle.FuelType,
			Client: ClientRefResponse{
				ID:    s.Vehicle.ClientID,
				Name:  s.Vehicle.ClientName,
				Phone: s.Vehicle.ClientPhone,
			},
		},
	}
	if s.Mechanic != nil {
		resp.Mechanic = &MechanicResponse{ID: s.Mechanic.ID, Name: s.Mechanic.Name}
	}
	return resp
}

// WorkOrderDetailsResponse - полная карточка заказ-наряда.
type WorkOrderDetailsResponse struct {
	*WorkOrderSummaryResponse
	Services           []*ServiceResponse `json:"services"`
	Parts              []*PartResponse    `json:"parts"`
	History            []*HistoryResponse `json:"history"`
	Locked             bool               `json:"locked"`
	AllowedTransitions []WorkOrderStatus  `json:"allowedTransitions"`
}

// NewWorkOrderDetailsResponse собирает карточку заказ-наряда.
func NewWorkOrderDetailsResponse(d *WorkOrderDetails, policy TransitionPolicy) *WorkOrderDetailsResponse {
	resp := &WorkOrderDetailsResponse{
		WorkOrderSummaryResponse: NewWorkOrderSummaryResponse(&d.WorkOrderSummary),
		Services:                 make([]*ServiceResponse, 0, len(d.Services)),
		Parts:                    make([]*PartResponse, 0, len(d.Parts)),
		History:                  make([]*HistoryResponse, 0, len(d.History)),
		Locked:                   d.Order.IsLocked(),
		AllowedTransitions:       policy.AllowedTransitions(d.Order.Status),
	}
	for _, s := range d.Services {
		resp.Services = append(resp.Services, NewServiceResponse(s))
	}
	for _, p := range d.Parts {
		resp.Parts = append(resp.Parts, NewPartResponse(p))
	}
	for _, h := range d.History {
		resp.History = append(resp.History, &HistoryResponse{
			ID:        h.ID,
			UserID:    h.UserID,
			Action:    h.Action,
			CreatedAt: h.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp
}
