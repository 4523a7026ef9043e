package transport

import "github.com/google/uuid"

// CreateTemplateRequest contains data for creating a process template.
type CreateTemplateRequest struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
}

// AddTemplateTaskRequest contains data for adding a task to a template.
type AddTemplateTaskRequest struct {
	Title         string    `json:"title" validate:"required,min=1,max=200"`
	Sector        string    `json:"sector" validate:"required,min=1,max=100"`
	Stage         string    `json:"stage" validate:"max=100"`
	RoleID        uuid.UUID `json:"roleId" validate:"required"`
	TaskCostCents *int64    `json:"taskCostCents,omitempty" validate:"omitempty,min=0"`
	Address       *string   `json:"address,omitempty" validate:"omitempty,max=500"`
}

// TemplateTaskResponse represents a template task in API responses.
type TemplateTaskResponse struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Sector        string    `json:"sector"`
	Stage         string    `json:"stage"`
	RoleID        uuid.UUID `json:"roleId"`
	Role          string    `json:"role,omitempty"`
	TaskCostCents *int64    `json:"taskCostCents,omitempty"`
	Address       *string   `json:"address,omitempty"`
}

// TemplateResponse represents a process template in API responses. Tasks are
// listed in creation sequence, which is the expansion order.
type TemplateResponse struct {
	ID        uuid.UUID              `json:"id"`
	Title     string                 `json:"title"`
	CreatedAt string                 `json:"createdAt"`
	Tasks     []TemplateTaskResponse `json:"tasks"`
}

// TemplateListResponse wraps a list of templates.
type TemplateListResponse struct {
	Items []TemplateResponse `json:"items"`
	Total int                `json:"total"`
}
