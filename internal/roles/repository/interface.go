package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role is a named function within a sector, referenced by users, tasks, and
// template tasks.
type Role struct {
	ID          uuid.UUID
	Name        string
	Description string
	Sector      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateParams contains parameters for creating a role.
type CreateParams struct {
	Name        string
	Description string
	Sector      string
}

// UpdateParams contains parameters for updating a role. Nil fields are left
// unchanged.
type UpdateParams struct {
	ID          uuid.UUID
	Name        *string
	Description *string
	Sector      *string
}

// RoleReader provides read operations for roles.
type RoleReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Role, error)
	GetByName(ctx context.Context, name string) (Role, error)
	List(ctx context.Context) ([]Role, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// IsReferenced reports whether any user, task, or template task points
	// at the role.
	IsReferenced(ctx context.Context, id uuid.UUID) (bool, error)
}

// RoleWriter provides write operations for roles.
type RoleWriter interface {
	Create(ctx context.Context, params CreateParams) (Role, error)
	Update(ctx context.Context, params UpdateParams) (Role, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repository combines all role repository operations.
type Repository interface {
	RoleReader
	RoleWriter
}
