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
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrPlateExists     = errors.New("plate already registered")
	ErrVINExists       = errors.New("vin already registered")
	ErrVehicleInUse    = errors.New("vehicle has work orders")
)

const vehicleColumns = `id, client_id, plate, vin, brand, model, year, fuel_type, created_at, updated_at`

// PostgresVehicleStorage хранит автомобили клиентов.
type PostgresVehicleStorage struct {
	db DB
}

// NewPostgresVehicleStorage создаёт новый экземпляр PostgresVehicleStorage.
func NewPostgresVehicleStorage(db DB) *PostgresVehicleStorage {
	return &PostgresVehicleStorage{db: db}
}

// vehicleWriteError переводит ошибки ограничений таблицы vehicles.
func vehicleWriteError(err error) error {
	code, constraint := pgErrorCode(err)
	switch {
	case code == pgUniqueViolation && constraint == "vehicles_vin_key":
		return ErrVINExists
	case code == pgUniqueViolation:
		return ErrPlateExists
	case code == pgForeignKeyViolation:
		return ErrClientNotFound
	}
	return nil
}

// Create сохраняет новый автомобиль.
func (s *PostgresVehicleStorage) Create(ctx context.Context, vehicle *models.Vehicle) error {
	query := `
		INSERT INTO vehicles (id, client_id, plate, vin, brand, model, year, fuel_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if vehicle.ID == uuid.Nil {
		vehicle.ID = uuid.New()
	}

	err := s.db.QueryRow(ctx, query,
		vehicle.ID,
		vehicle.ClientID,
		vehicle.Plate,
		vehicle.VIN,
		vehicle.Brand,
		vehicle.Model,
		vehicle.Year,
		vehicle.FuelType,
	).Scan(&vehicle.CreatedAt, &vehicle.UpdatedAt)

	if err != nil {
		if mapped := vehicleWriteError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to create vehicle: %w", err)
	}

	return nil
}

// GetByID возвращает автомобиль по ID.
func (s *PostgresVehicleStorage) GetByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`

	vehicle := &models.Vehicle{}
	err := s.db.QueryRow(ctx, query, id).Scan(
		&vehicle.ID,
		&vehicle.ClientID,
		&vehicle.Plate,
		&vehicle.VIN,
		&vehicle.Brand,
		&vehicle.Model,
		&vehicle.Year,
		&vehicle.FuelType,
		&vehicle.CreatedAt,
		&vehicle.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVehicleNotFound
		}
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}

	return vehicle, nil
}

// List возвращает автомобили вместе с владельцами, новые первыми.
func (s *PostgresVehicleStorage) List(ctx context.Context) ([]*models.Vehicle, error) {
	query := `
		SELECT v.id, v.client_id, v.plate, v.vin, v.brand, v.model, v.year, v.fuel_type, v.created_at, v.updated_at,
		       c.id, c.name, c.document, c.phone, c.email, c.created_at, c.updated_at
		FROM vehicles v
		JOIN clients c ON c.id = v.client_id
		ORDER BY v.created_at DESC
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicles: %w", err)
	}
	defer rows.Close()

	vehicles := make([]*models.Vehicle, 0)
	for rows.Next() {
		vehicle := &models.Vehicle{Client: &models.Client{}}
		err := rows.Scan(
			&vehicle.ID,
			&vehicle.ClientID,
			&vehicle.Plate,
			&vehicle.VIN,
			&vehicle.Brand,
			&vehicle.Model,
			&vehicle.Year,
			&vehicle.FuelType,
			&vehicle.CreatedAt,
			&vehicle.UpdatedAt,
			&vehicle.Client.ID,
			&vehicle.Client.Name,
			&vehicle.Client.Document,
			&vehicle.Client.Phone,
			&vehicle.Client.Email,
			&vehicle.Client.CreatedAt,
			&vehicle.Client.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		vehicles = append(vehicles, vehicle)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}

	return vehicles, nil
}

// Update сохраняет изменения автомобиля.
func (s *PostgresVehicleStorage) Update(ctx context.Context, vehicle *models.Vehicle) error {
	query := `
		UPDATE vehicles
		SET client_id = $1, plate = $2, vin = $3, brand = $4, model = $5, year = $6, fuel_type = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING created_at, updated_at
	`

	err := s.db.QueryRow(ctx, query,
		vehicle.ClientID,
		vehicle.Plate,
		vehicle.VIN,
		vehicle.Brand,
		vehicle.Model,
		vehicle.Year,
		vehicle.FuelType,
		vehicle.ID,
	).Scan(&vehicle.CreatedAt, &vehicle.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrVehicleNotFound
		}
		if mapped := vehicleWriteError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to update vehicle: %w", err)
	}

	return nil
}

// Delete удаляет автомобиль без заказ-нарядов.
func (s *PostgresVehicleStorage) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
			return ErrVehicleInUse
		}
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrVehicleNotFound
	}

	return nil
}
