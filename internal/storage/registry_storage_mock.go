package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/oficina-avance/oficina/internal/models"
)

// MockClientStorage - мок хранилища клиентов для тестов.
type MockClientStorage struct {
	CreateFunc  func(ctx context.Context, client *models.Client) error
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*models.Client, error)
	ListFunc    func(ctx context.Context) ([]*models.Client, error)
	UpdateFunc  func(ctx context.Context, client *models.Client) error
	DeleteFunc  func(ctx context.Context, id uuid.UUID) error
}

func (m *MockClientStorage) Create(ctx context.Context, client *models.Client) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, client)
	}
	return nil
}

func (m *MockClientStorage) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, ErrClientNotFound
}

func (m *MockClientStorage) List(ctx context.Context) ([]*models.Client, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.Client{}, nil
}

func (m *MockClientStorage) Update(ctx context.Context, client *models.Client) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, client)
	}
	return nil
}

func (m *MockClientStorage) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockVehicleStorage - мок хранилища автомобилей для тестов.
type MockVehicleStorage struct {
	CreateFunc  func(ctx context.Context, vehicle *models.Vehicle) error
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	ListFunc    func(ctx context.Context) ([]*models.Vehicle, error)
	UpdateFunc  func(ctx context.Context, vehicle *models.Vehicle) error
	DeleteFunc  func(ctx context.Context, id uuid.UUID) error
}

func (m *MockVehicleStorage) Create(ctx context.Context, vehicle *models.Vehicle) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, vehicle)
	}
	return nil
}

func (m *MockVehicleStorage) GetByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, ErrVehicleNotFound
}

func (m *MockVehicleStorage) List(ctx context.Context) ([]*models.Vehicle, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.Vehicle{}, nil
}

func (m *MockVehicleStorage) Update(ctx context.Context, vehicle *models.Vehicle) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, vehicle)
	}
	return nil
}

func (m *MockVehicleStorage) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}
