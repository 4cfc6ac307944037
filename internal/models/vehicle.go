package models

import (
	"time"

	"github.com/google/uuid"
)

// FuelType - тип силовой установки автомобиля.
type FuelType string

const (
	FuelCombustion FuelType = "COMBUSTION"
	FuelFlex       FuelType = "FLEX"
	FuelDiesel     FuelType = "DIESEL"
	FuelHybrid     FuelType = "HYBRID"
	FuelElectric   FuelType = "ELECTRIC"
)

// Valid сообщает, известен ли тип топлива.
func (f FuelType) Valid() bool {
	switch f {
	case FuelCombustion, FuelFlex, FuelDiesel, FuelHybrid, FuelElectric:
		return true
	}
	return false
}

// Vehicle - автомобиль клиента.
type Vehicle struct {
	ID        uuid.UUID `db:"id"`
	ClientID  uuid.UUID `db:"client_id"`
	Plate     string    `db:"plate"`
	VIN       *string   `db:"vin"`
	Brand     string    `db:"brand"`
	Model     string    `db:"model"`
	Year      *int      `db:"year"`
	FuelType  FuelType  `db:"fuel_type"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	// Client заполняется при чтении списка.
	Client *Client `db:"-"`
}

// VehicleRequest - создание и редактирование автомобиля.
type VehicleRequest struct {
	ClientID uuid.UUID `json:"clientId" validate:"required"`
	Plate    string    `json:"plate" validate:"required"`
	VIN      *string   `json:"vin"`
	Brand    string    `json:"brand" validate:"required"`
	Model    string    `json:"model" validate:"required"`
	Year     *int      `json:"year" validate:"omitempty,min=1900,max=2100"`
	FuelType FuelType  `json:"fuelType"`
}

// VehicleResponse - DTO автомобиля.
type VehicleResponse struct {
	ID       uuid.UUID       `json:"id"`
	ClientID uuid.UUID       `json:"clientId"`
	Plate    string          `json:"plate"`
	VIN      *string         `json:"vin"`
	Brand    string          `json:"brand"`
	Model    string          `json:"model"`
	Year     *int            `json:"year"`
	FuelType FuelType        `json:"fuelType"`
	Client   *ClientResponse `json:"client,omitempty"`
}

// NewVehicleResponse собирает DTO из доменной модели.
func NewVehicleResponse(v *Vehicle) *VehicleResponse {
	resp := &VehicleResponse{
		ID:       v.ID,
		ClientID: v.ClientID,
		Plate:    v.Plate,
		VIN:      v.VIN,
		Brand:    v.Brand,
		Model:    v.Model,
		Year:     v.Year,
		FuelType: v.FuelType,
	}
	if v.Client != nil {
		resp.Client = NewClientResponse(v.Client)
	}
	return resp
}
