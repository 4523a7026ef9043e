package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Task is a unit of work belonging to exactly one service order. Rows with a
// process reference instead are template tasks and never pass through the
// lifecycle operations here.
type Task struct {
	ID             uuid.UUID
	Seq            int64
	Title          string
	Sector         string
	Stage          string
	RoleID         *uuid.UUID
	RoleName       string
	ServiceOrderID *uuid.UUID
	ProcessID      *uuid.UUID
	AssignedUserID *uuid.UUID
	AssignedName   string
	StartedAt      *time.Time
	CompletedAt    *time.Time
	DueDate        *time.Time
	TaskCostCents  *int64
	Address        *string
	CreatedAt      time.Time
}

// CreateParams contains parameters for creating an ad hoc task on a service
// order.
type CreateParams struct {
	ServiceOrderID uuid.UUID
	Title          string
	Sector         string
	Stage          string
	AssignedUserID *uuid.UUID
	DueDate        *time.Time
	TaskCostCents  *int64
	Address        *string
}

// CascadeResult reports what one committed completion changed. SectorLogged
// and OrderFinalized are false on an idempotent re-complete.
type CascadeResult struct {
	Task           Task
	OrderID        uuid.UUID
	OrderCode      string
	OrderCreatorID uuid.UUID
	Sector         string
	AlreadyDone    bool
	SectorLogged   bool
	OrderFinalized bool
}

// RemoveResult reports the cascade side effects of a removal: deleting the
// last open task of a sector can close the sector and finalize the order.
type RemoveResult struct {
	OrderID        uuid.UUID
	OrderCode      string
	OrderCreatorID uuid.UUID
	Sector         string
	SectorLogged   bool
	OrderFinalized bool
}

// OverdueFilters narrows the overdue-task count.
type OverdueFilters struct {
	StartedAfter *time.Time
	DueBefore    *time.Time
	Sector       *string
}

// Reader provides read operations for tasks.
type Reader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Task, error)
	ListByServiceOrder(ctx context.Context, orderID uuid.UUID) ([]Task, error)
	CountOverdue(ctx context.Context, filters OverdueFilters) (int64, error)
}

// Writer provides write operations for tasks. Create, InstantiateFromTemplate,
// CompleteCascade, Uncomplete and Remove run inside a transaction holding the
// owning service order's row lock; Remove re-evaluates the removed task's
// sector the same way the completion cascade does.
type Writer interface {
	Create(ctx context.Context, params CreateParams) (Task, error)
	InstantiateFromTemplate(ctx context.Context, orderID, templateID uuid.UUID) ([]Task, error)
	Assign(ctx context.Context, taskID, userID uuid.UUID) (Task, error)
	Unassign(ctx context.Context, taskID uuid.UUID) (Task, error)
	Start(ctx context.Context, taskID uuid.UUID) (Task, error)
	CompleteCascade(ctx context.Context, taskID uuid.UUID) (CascadeResult, error)
	Uncomplete(ctx context.Context, taskID uuid.UUID) (Task, error)
	UpdateDueDate(ctx context.Context, taskID uuid.UUID, dueDate *time.Time) (Task, error)
	AddCost(ctx context.Context, taskID uuid.UUID, costCents int64) (Task, error)
	Remove(ctx context.Context, taskID uuid.UUID) (RemoveResult, error)
}

// Repository combines all task repository operations.
type Repository interface {
	Reader
	Writer
}
