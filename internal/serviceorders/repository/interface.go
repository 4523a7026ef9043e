package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ServiceOrder is the commercial record a set of tasks fulfills. Status moves
// only forward; FINALIZADO is set exclusively by the task completion cascade.
type ServiceOrder struct {
	ID            uuid.UUID
	Code          string
	UserID        uuid.UUID
	UserName      string
	ClientID      uuid.UUID
	ClientName    string
	Status        string
	Sector        string
	Description   string
	ValueCents    int64
	CreationDate  time.Time
	DeactivatedAt *time.Time
}

// OrderTask is the read-side view of a task as embedded in a service order
// detail. Task mutations are owned by the tasks module.
type OrderTask struct {
	ID             uuid.UUID
	Title          string
	Sector         string
	Stage          string
	AssignedUserID *uuid.UUID
	StartedAt      *time.Time
	CompletedAt    *time.Time
	DueDate        *time.Time
}

// Log is one immutable sector-completion entry. The BIGSERIAL id is the
// total order of completion events.
type Log struct {
	ID             int64
	ServiceOrderID uuid.UUID
	Action         string
	CreationDate   time.Time
}

// CreateParams contains parameters for opening a service order.
type CreateParams struct {
	UserID      uuid.UUID
	ClientID    uuid.UUID
	Sector      string
	Description string
	ValueCents  int64
}

// UpdateParams contains parameters for updating commercial fields. Nil fields
// are left unchanged; status is never writable through here.
type UpdateParams struct {
	ID          uuid.UUID
	ClientID    *uuid.UUID
	Sector      *string
	Description *string
	ValueCents  *int64
}

// ListFilters narrows a service order listing.
type ListFilters struct {
	Status        *string
	Sector        *string
	ClientID      *uuid.UUID
	IncludeClosed bool
	Limit         int
	Offset        int
}

// Reader provides read operations for service orders.
type Reader interface {
	GetByID(ctx context.Context, id uuid.UUID) (ServiceOrder, error)
	ListTasks(ctx context.Context, orderID uuid.UUID) ([]OrderTask, error)
	List(ctx context.Context, filters ListFilters) ([]ServiceOrder, int, error)
	ListLogs(ctx context.Context, orderID uuid.UUID) ([]Log, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Writer provides write operations for service orders.
type Writer interface {
	Create(ctx context.Context, params CreateParams) (ServiceOrder, error)
	Update(ctx context.Context, params UpdateParams) (ServiceOrder, error)
	MarkOperational(ctx context.Context, id uuid.UUID) (ServiceOrder, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// Repository combines all service order repository operations.
type Repository interface {
	Reader
	Writer
}
