package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is a back-office worker who can create service orders and execute
// tasks. The role carries the sector the user works in.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	RoleID       uuid.UUID
	RoleName     string
	RoleSector   string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateParams contains parameters for creating a user.
type CreateParams struct {
	Name         string
	Email        string
	PasswordHash string
	RoleID       uuid.UUID
}

// UpdateParams contains parameters for updating a user. Nil fields are left
// unchanged.
type UpdateParams struct {
	ID     uuid.UUID
	Name   *string
	Email  *string
	RoleID *uuid.UUID
}

// UserReader provides read operations for users.
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context) ([]User, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// UserWriter provides write operations for users.
type UserWriter interface {
	Create(ctx context.Context, params CreateParams) (User, error)
	Update(ctx context.Context, params UpdateParams) (User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// Repository combines all user repository operations.
type Repository interface {
	UserReader
	UserWriter
}
