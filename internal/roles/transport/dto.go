package transport

import "github.com/google/uuid"

// CreateRoleRequest contains data for creating a role.
type CreateRoleRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=500"`
	Sector      string `json:"sector" validate:"required,min=1,max=100"`
}

// UpdateRoleRequest contains data for updating a role.
type UpdateRoleRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	Sector      *string `json:"sector,omitempty" validate:"omitempty,min=1,max=100"`
}

// RoleResponse represents a role in API responses.
type RoleResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Sector      string    `json:"sector"`
	CreatedAt   string    `json:"createdAt"`
	UpdatedAt   string    `json:"updatedAt"`
}

// RoleListResponse wraps a list of roles.
type RoleListResponse struct {
	Items []RoleResponse `json:"items"`
	Total int            `json:"total"`
}
