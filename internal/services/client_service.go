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

// ClientService определяет операции реестра клиентов.
type ClientService interface {
	List(ctx context.Context) ([]*models.Client, error)
	Create(ctx context.Context, req models.ClientRequest) (*models.Client, error)
	Update(ctx context.Context, id uuid.UUID, req models.ClientRequest) (*models.Client, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ClientServiceImpl реализует ClientService.
type ClientServiceImpl struct {
	clientStorage ClientStorage
}

// NewClientService создаёт сервис клиентов.
func NewClientService(clientStorage ClientStorage) *ClientServiceImpl {
	return &ClientServiceImpl{clientStorage: clientStorage}
}

// List возвращает клиентов по алфавиту.
func (s *ClientServiceImpl) List(ctx context.Context) ([]*models.Client, error) {
	clients, err := s.clientStorage.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}

// Create регистрирует клиента.
func (s *ClientServiceImpl) Create(ctx context.Context, req models.ClientRequest) (*models.Client, error) {
	client, err := clientFromRequest(req)
	if err != nil {
		return nil, err
	}

	if err := s.clientStorage.Create(ctx, client); err != nil {
		return nil, classifyClientError("create client", err)
	}
	return client, nil
}

// Update заменяет данные клиента.
func (s *ClientServiceImpl) Update(ctx context.Context, id uuid.UUID, req models.ClientRequest) (*models.Client, error) {
	client, err := clientFromRequest(req)
	if err != nil {
		return nil, err
	}
	client.ID = id

	if err := s.clientStorage.Update(ctx, client); err != nil {
		return nil, classifyClientError("update client", err)
	}
	return client, nil
}

// Delete удаляет клиента без автомобилей.
func (s *ClientServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.clientStorage.Delete(ctx, id); err != nil {
		return classifyClientError("delete client", err)
	}
	return nil
}

func clientFromRequest(req models.ClientRequest) (*models.Client, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}

	document := utils.NormalizeDocument(req.Document)
	if !utils.ValidateDocument(document) {
		return nil, apperr.Validation("document must be a valid CPF or CNPJ")
	}

	return &models.Client{
		Name:     name,
		Document: document,
		Phone:    trimOptional(req.Phone),
		Email:    lowerOptional(req.Email),
	}, nil
}

func classifyClientError(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrClientNotFound):
		return apperr.NotFound("client not found")
	case errors.Is(err, storage.ErrDocumentExists):
		return apperr.Conflict("document already registered")
	case errors.Is(err, storage.ErrClientEmailExists):
		return apperr.Conflict("email already registered")
	case errors.Is(err, storage.ErrClientInUse):
		return apperr.Conflict("client still owns vehicles")
	}
	return fmt.Errorf("%s: %w", op, err)
}

// trimOptional убирает пробелы и превращает пустую строку в nil.
func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func lowerOptional(s *string) *string {
	v := trimOptional(s)
	if v == nil {
		return nil
	}
	lower := strings.ToLower(*v)
	return &lower
}
