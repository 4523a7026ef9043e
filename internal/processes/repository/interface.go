package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProcessTemplate is a reusable blueprint naming the tasks a service order
// of its kind should contain.
type ProcessTemplate struct {
	ID        uuid.UUID
	Title     string
	CreatedAt time.Time
	Tasks     []TemplateTask
}

// TemplateTask is a task-shaped stamp inside a template. It is never started
// or completed, only cloned onto service orders. Seq records the creation
// sequence and is the documented, stable expansion order.
type TemplateTask struct {
	ID            uuid.UUID
	Seq           int64
	Title         string
	Sector        string
	Stage         string
	RoleID        uuid.UUID
	RoleName      string
	TaskCostCents *int64
	Address       *string
}

// AddTaskParams contains parameters for adding a task to a template.
type AddTaskParams struct {
	TemplateID    uuid.UUID
	Title         string
	Sector        string
	Stage         string
	RoleID        uuid.UUID
	TaskCostCents *int64
	Address       *string
}

// TemplateReader provides read operations for process templates.
type TemplateReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (ProcessTemplate, error)
	List(ctx context.Context) ([]ProcessTemplate, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// TemplateWriter provides write operations for process templates.
type TemplateWriter interface {
	Create(ctx context.Context, title string) (ProcessTemplate, error)
	AddTask(ctx context.Context, params AddTaskParams) (TemplateTask, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repository combines all process template repository operations.
type Repository interface {
	TemplateReader
	TemplateWriter
}
