package transport

import "github.com/google/uuid"

// CreateClientRequest contains data for creating a client.
type CreateClientRequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=200"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Document *string `json:"document,omitempty" validate:"omitempty,max=30"`
	Address  *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

// UpdateClientRequest contains data for updating a client.
type UpdateClientRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Document *string `json:"document,omitempty" validate:"omitempty,max=30"`
	Address  *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

// ClientResponse represents a client in API responses.
type ClientResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Document  *string   `json:"document,omitempty"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt string    `json:"createdAt"`
	UpdatedAt string    `json:"updatedAt"`
}

// ClientListResponse wraps a list of clients.
type ClientListResponse struct {
	Items []ClientResponse `json:"items"`
	Total int              `json:"total"`
}
