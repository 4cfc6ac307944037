package models

import (
	"time"

	"github.com/google/uuid"
)

// Client - владелец автомобилей.
type Client struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Document  string    `db:"document"`
	Phone     *string   `db:"phone"`
	Email     *string   `db:"email"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ClientRequest - создание и редактирование клиента.
type ClientRequest struct {
	Name     string  `json:"name" validate:"required"`
	Document string  `json:"document" validate:"required"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email" validate:"omitempty,email"`
}

// ClientResponse - DTO клиента.
type ClientResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Document  string    `json:"document"`
	Phone     *string   `json:"phone"`
	Email     *string   `json:"email"`
	CreatedAt string    `json:"createdAt"`
}

// NewClientResponse собирает DTO из доменной модели.
func NewClientResponse(c *Client) *ClientResponse {
	return &ClientResponse{
		ID:        c.ID,
		Name:      c.Name,
		Document:  c.Document,
		Phone:     c.Phone,
		Email:     c.Email,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}
