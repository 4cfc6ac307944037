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
	ErrClientNotFound    = errors.New("client not found")
	ErrDocumentExists    = errors.New("document already registered")
	ErrClientEmailExists = errors.New("client email already registered")
	ErrClientInUse       = errors.New("client still owns vehicles")
)

const clientColumns = `id, name, document, phone, email, created_at, updated_at`

// PostgresClientStorage хранит клиентов мастерской.
type PostgresClientStorage struct {
	db DB
}

// NewPostgresClientStorage создаёт новый экземпляр PostgresClientStorage.
func NewPostgresClientStorage(db DB) *PostgresClientStorage {
	return &PostgresClientStorage{db: db}
}

// clientConflict переводит нарушение уникальности в ошибку конкретного поля.
func clientConflict(err error) error {
	code, constraint := pgErrorCode(err)
	if code != pgUniqueViolation {
		return nil
	}
	if constraint == "clients_email_key" {
		return ErrClientEmailExists
	}
	return ErrDocumentExists
}

// Create сохраняет нового клиента.
func (s *PostgresClientStorage) Create(ctx context.Context, client *models.Client) error {
	query := `
		INSERT INTO clients (id, name, document, phone, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}

	err := s.db.QueryRow(ctx, query,
		client.ID,
		client.Name,
		client.Document,
		client.Phone,
		client.Email,
	).Scan(&client.CreatedAt, &client.UpdatedAt)

	if err != nil {
		if conflict := clientConflict(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("failed to create client: %w", err)
	}

	return nil
}

// GetByID возвращает клиента по ID.
func (s *PostgresClientStorage) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	return scanClient(s.db.QueryRow(ctx, query, id))
}

// List возвращает клиентов по алфавиту.
func (s *PostgresClientStorage) List(ctx context.Context) ([]*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients ORDER BY name ASC`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	clients := make([]*models.Client, 0)
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}

	return clients, nil
}

// Update сохраняет изменения клиента.
func (s *PostgresClientStorage) Update(ctx context.Context, client *models.Client) error {
	query := `
		UPDATE clients
		SET name = $1, document = $2, phone = $3, email = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING created_at, updated_at
	`

	err := s.db.QueryRow(ctx, query,
		client.Name,
		client.Document,
		client.Phone,
		client.Email,
		client.ID,
	).Scan(&client.CreatedAt, &client.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrClientNotFound
		}
		if conflict := clientConflict(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("failed to update client: %w", err)
	}

	return nil
}

// Delete удаляет клиента без автомобилей.
func (s *PostgresClientStorage) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
			return ErrClientInUse
		}
		return fmt.Errorf("failed to delete client: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrClientNotFound
	}

	return nil
}

// scanClient читает клиента из строки результата.
func scanClient(row pgx.Row) (*models.Client, error) {
	client := &models.Client{}
	err := row.Scan(
		&client.ID,
		&client.Name,
		&client.Document,
		&client.Phone,
		&client.Email,
		&client.CreatedAt,
		&client.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to scan client: %w", err)
	}

	return client, nil
}
