package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Client is a customer the back-office opens service orders for. The core
// workflow only needs the lookup; the rest is display data.
type Client struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	Phone     *string
	Document  *string
	Address   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateParams contains parameters for creating a client.
type CreateParams struct {
	Name     string
	Email    *string
	Phone    *string
	Document *string
	Address  *string
}

// UpdateParams contains parameters for updating a client. Nil fields are
// left unchanged.
type UpdateParams struct {
	ID       uuid.UUID
	Name     *string
	Email    *string
	Phone    *string
	Document *string
	Address  *string
}

// ClientReader provides read operations for clients.
type ClientReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Client, error)
	List(ctx context.Context) ([]Client, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// ClientWriter provides write operations for clients.
type ClientWriter interface {
	Create(ctx context.Context, params CreateParams) (Client, error)
	Update(ctx context.Context, params UpdateParams) (Client, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repository combines all client repository operations.
type Repository interface {
	ClientReader
	ClientWriter
}
