package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateTaskRequest contains data for creating an ad hoc task on a service
// order.
type CreateTaskRequest struct {
	ServiceOrderID uuid.UUID  `json:"serviceOrderId" validate:"required"`
	Title          string     `json:"title" validate:"required,min=1,max=200"`
	Sector         string     `json:"sector" validate:"required,min=1,max=100"`
	Stage          string     `json:"stage" validate:"max=100"`
	UserID         *uuid.UUID `json:"userId,omitempty"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	TaskCostCents  *int64     `json:"taskCostCents,omitempty" validate:"omitempty,min=0"`
	Address        *string    `json:"address,omitempty" validate:"omitempty,max=500"`
}

// InstantiateRequest expands a process template onto a service order.
type InstantiateRequest struct {
	ServiceOrderID uuid.UUID `json:"serviceOrderId" validate:"required"`
	TemplateID     uuid.UUID `json:"templateId" validate:"required"`
}

// AssignRequest assigns a task to a user.
type AssignRequest struct {
	UserID uuid.UUID `json:"userId" validate:"required"`
}

// UpdateDueDateRequest sets or clears a task's due date (null clears).
type UpdateDueDateRequest struct {
	DueDate *time.Time `json:"dueDate"`
}

// AddCostRequest sets a task's cost.
type AddCostRequest struct {
	TaskCostCents int64 `json:"taskCostCents" validate:"min=0"`
}

// OverdueQuery narrows the overdue-task count.
type OverdueQuery struct {
	StartedAfter *time.Time `form:"startedAfter" time_format:"2006-01-02T15:04:05Z07:00"`
	DueBefore    *time.Time `form:"dueBefore" time_format:"2006-01-02T15:04:05Z07:00"`
	Sector       *string    `form:"sector"`
}

// TaskResponse represents a task in API responses.
type TaskResponse struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Sector         string     `json:"sector"`
	Stage          string     `json:"stage"`
	ServiceOrderID *uuid.UUID `json:"serviceOrderId,omitempty"`
	RoleID         *uuid.UUID `json:"roleId,omitempty"`
	Role           string     `json:"role,omitempty"`
	AssignedUserID *uuid.UUID `json:"assignedUserId,omitempty"`
	AssignedName   string     `json:"assignedName,omitempty"`
	StartedAt      *string    `json:"startedAt,omitempty"`
	CompletedAt    *string    `json:"completedAt,omitempty"`
	DueDate        *string    `json:"dueDate,omitempty"`
	TaskCostCents  *int64     `json:"taskCostCents,omitempty"`
	Address        *string    `json:"address,omitempty"`
	CreatedAt      string     `json:"createdAt"`
}

// CompleteTaskResponse is the task plus what its completion cascaded into.
type CompleteTaskResponse struct {
	Task           TaskResponse `json:"task"`
	SectorComplete bool         `json:"sectorComplete"`
	OrderComplete  bool         `json:"orderComplete"`
}

// TaskListResponse wraps a list of tasks.
type TaskListResponse struct {
	Items []TaskResponse `json:"items"`
	Total int            `json:"total"`
}

// OverdueCountResponse wraps the overdue aggregate.
type OverdueCountResponse struct {
	Count int64 `json:"count"`
}
