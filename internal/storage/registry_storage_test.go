package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oficina-avance/oficina/internal/models"
	"github.com/pashagolub/pgxmock/v3"
)

func TestPostgresClientStorage_CreateConflicts(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		want       error
	}{
		{"document", "clients_document_key", ErrDocumentExists},
		{"email", "clients_email_key", ErrClientEmailExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockPool(t)
			s := NewPostgresClientStorage(mock)

			mock.ExpectQuery("INSERT INTO clients").
				WithArgs(anyArgs(5)...).
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})

			err := s.Create(context.Background(), &models.Client{Name: "Maria", Document: "123"})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			expectationsMet(t, mock)
		})
	}
}

func TestPostgresClientStorage_List(t *testing.T) {
	mock := newMockPool(t)
	s := NewPostgresClientStorage(mock)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM clients ORDER BY name ASC").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "document", "phone", "email", "created_at", "updated_at"}).
			AddRow(uuid.New(), "Maria", "123", strPtr("+55 11 99999-0000"), nil, now, now))

	clients, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(clients) != 1 || clients[0].Phone == nil || clients[0].Email != nil {
		t.Fatalf("unexpected clients: %+v", clients)
	}
	expectationsMet(t, mock)
}

func TestPostgresClientStorage_Delete(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	tests := []struct {
		name   string
		expect func(mock pgxmock.PgxPoolIface)
		want   error
	}{
		{
			name: "deleted",
			expect: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec("DELETE FROM clients").WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 1))
			},
		},
		{
			name: "missing",
			expect: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec("DELETE FROM clients").WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 0))
			},
			want: ErrClientNotFound,
		},
		{
			name: "owns vehicles",
			expect: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec("DELETE FROM clients").WithArgs(id).
					WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "vehicles_client_id_fkey"})
			},
			want: ErrClientInUse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockPool(t)
			tt.expect(mock)

			err := NewPostgresClientStorage(mock).Delete(ctx, id)
			if tt.want == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			expectationsMet(t, mock)
		})
	}
}

func TestPostgresVehicleStorage_CreateErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"plate", &pgconn.PgError{Code: "23505", ConstraintName: "vehicles_plate_key"}, ErrPlateExists},
		{"vin", &pgconn.PgError{Code: "23505", ConstraintName: "vehicles_vin_key"}, ErrVINExists},
		{"unknown client", &pgconn.PgError{Code: "23503", ConstraintName: "vehicles_client_id_fkey"}, ErrClientNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockPool(t)
			s := NewPostgresVehicleStorage(mock)

			mock.ExpectQuery("INSERT INTO vehicles").WithArgs(anyArgs(8)...).WillReturnError(tt.err)

			err := s.Create(context.Background(), &models.Vehicle{Plate: "ABC1D23", FuelType: models.FuelFlex})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			expectationsMet(t, mock)
		})
	}
}

func TestPostgresVehicleStorage_ListWithClient(t *testing.T) {
	mock := newMockPool(t)
	s := NewPostgresVehicleStorage(mock)
	now := time.Now()
	clientID := uuid.New()

	columns := []string{
		"id", "client_id", "plate", "vin", "brand", "model", "year", "fuel_type", "created_at", "updated_at",
		"c_id", "c_name", "c_document", "c_phone", "c_email", "c_created_at", "c_updated_at",
	}
	mock.ExpectQuery(`FROM vehicles v\s+JOIN clients c`).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(uuid.New(), clientID, "ABC1D23", nil, "Fiat", "Uno", intPtr(2012), models.FuelFlex, now, now,
				clientID, "Maria", "123", nil, nil, now, now))

	vehicles, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(vehicles) != 1 {
		t.Fatalf("expected 1 vehicle, got %d", len(vehicles))
	}
	v := vehicles[0]
	if v.Client == nil || v.Client.Name != "Maria" || v.Client.ID != clientID {
		t.Errorf("client not joined: %+v", v.Client)
	}
	if v.Year == nil || *v.Year != 2012 || v.VIN != nil {
		t.Errorf("unexpected optional fields: year=%v vin=%v", v.Year, v.VIN)
	}
	expectationsMet(t, mock)
}

func TestPostgresVehicleStorage_GetByIDNotFound(t *testing.T) {
	mock := newMockPool(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM vehicles WHERE id").WithArgs(id).WillReturnError(pgx.ErrNoRows)

	if _, err := NewPostgresVehicleStorage(mock).GetByID(context.Background(), id); !errors.Is(err, ErrVehicleNotFound) {
		t.Fatalf("expected ErrVehicleNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestPostgresVehicleStorage_DeleteInUse(t *testing.T) {
	mock := newMockPool(t)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM vehicles").WithArgs(id).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "work_orders_vehicle_id_fkey"})

	if err := NewPostgresVehicleStorage(mock).Delete(context.Background(), id); !errors.Is(err, ErrVehicleInUse) {
		t.Fatalf("expected ErrVehicleInUse, got %v", err)
	}
	expectationsMet(t, mock)
}
