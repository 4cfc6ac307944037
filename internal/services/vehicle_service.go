package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/oficina-avance/oficina/internal/apperr"
	"github.com/oficina-avance/oficina/internal/models"
	"github.com/oficina-avance/oficina/internal/storage"
	"github.com/oficina-avance/oficina/internal/utils"
)

// VehicleService определяет операции реестра автомобилей.
type VehicleService interface {
	List(ctx context.Context) ([]*models.Vehicle, error)
	Create(ctx context.Context, req models.VehicleRequest) (*models.Vehicle, error)
	Update(ctx context.Context, id uuid.UUID, req models.VehicleRequest) (*models.Vehicle, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// VehicleServiceImpl реализует VehicleService.
type VehicleServiceImpl struct {
	vehicleStorage VehicleStorage
}

// NewVehicleService создаёт сервис автомобилей.
func NewVehicleService(vehicleStorage VehicleStorage) *VehicleServiceImpl {
	return &VehicleServiceImpl{vehicleStorage: vehicleStorage}
}

// List возвращает автомобили вместе с владельцами.
func (s *VehicleServiceImpl) List(ctx context.Context) ([]*models.Vehicle, error) {
	vehicles, err := s.vehicleStorage.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	return vehicles, nil
}

// Create регистрирует автомобиль клиента.
func (s *VehicleServiceImpl) Create(ctx context.Context, req models.VehicleRequest) (*models.Vehicle, error) {
	vehicle, err := vehicleFromRequest(req)
	if err != nil {
		return nil, err
	}

	if err := s.vehicleStorage.Create(ctx, vehicle); err != nil {
		return nil, classifyVehicleError("create vehicle", err)
	}
	return vehicle, nil
}

// Update заменяет данные автомобиля, в том числе владельца.
func (s *VehicleServiceImpl) Update(ctx context.Context, id uuid.UUID, req models.VehicleRequest) (*models.Vehicle, error) {
	vehicle, err := vehicleFromRequest(req)
	if err != nil {
		return nil, err
	}
	vehicle.ID = id

	if err := s.vehicleStorage.Update(ctx, vehicle); err != nil {
		return nil, classifyVehicleError("update vehicle", err)
	}
	return vehicle, nil
}

// Delete удаляет автомобиль без заказ-нарядов.
func (s *VehicleServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.vehicleStorage.Delete(ctx, id); err != nil {
		return classifyVehicleError("delete vehicle", err)
	}
	return nil
}

func vehicleFromRequest(req models.VehicleRequest) (*models.Vehicle, error) {
	if req.ClientID == uuid.Nil {
		return nil, apperr.Validation("clientId is required")
	}

	plate := utils.NormalizePlate(req.Plate)
	if !utils.ValidatePlate(plate) {
		return nil, apperr.Validation("plate %q is not a valid Brazilian plate", req.Plate)
	}

	var vin *string
	if req.VIN != nil && strings.TrimSpace(*req.VIN) != "" {
		v := utils.NormalizeVIN(*req.VIN)
		if !utils.ValidateVIN(v) {
			return nil, apperr.Validation("vin must have 17 characters without I, O or Q")
		}
		vin = &v
	}

	brand := strings.TrimSpace(req.Brand)
	model := strings.TrimSpace(req.Model)
	if brand == "" || model == "" {
		return nil, apperr.Validation("brand and model are required")
	}
	if req.Year != nil && (*req.Year < 1900 || *req.Year > 2100) {
		return nil, apperr.Validation("year %d is out of range", *req.Year)
	}

	fuel := req.FuelType
	if fuel == "" {
		fuel = models.FuelCombustion
	}
	if !fuel.Valid() {
		return nil, apperr.Validation("unknown fuel type %q", req.FuelType)
	}

	return &models.Vehicle{
		ClientID: req.ClientID,
		Plate:    plate,
		VIN:      vin,
		Brand:    brand,
		Model:    model,
		Year:     req.Year,
		FuelType: fuel,
	}, nil
}

func classifyVehicleError(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrVehicleNotFound):
		return apperr.NotFound("vehicle not found")
	case errors.Is(err, storage.ErrClientNotFound):
		return apperr.NotFound("client not found")
	case errors.Is(err, storage.ErrPlateExists):
		return apperr.Conflict("plate already registered")
	case errors.Is(err, storage.ErrVINExists):
		return apperr.Conflict("vin already registered")
	case errors.Is(err, storage.ErrVehicleInUse):
		return apperr.Conflict("vehicle has work orders")
	}
	return fmt.Errorf("%s: %w", op, err)
}
