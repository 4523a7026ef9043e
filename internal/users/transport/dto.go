package transport

import "github.com/google/uuid"

// RegisterRequest contains data for registering a user.
type RegisterRequest struct {
	Name     string    `json:"name" validate:"required,min=1,max=150"`
	Email    string    `json:"email" validate:"required,email"`
	Password string    `json:"password" validate:"required,min=8,max=72"`
	RoleID   uuid.UUID `json:"roleId" validate:"required"`
}

// LoginRequest contains login credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued access token and the user profile.
type LoginResponse struct {
	AccessToken string       `json:"accessToken"`
	User        UserResponse `json:"user"`
}

// UpdateUserRequest contains data for updating a user.
type UpdateUserRequest struct {
	Name   *string    `json:"name,omitempty" validate:"omitempty,min=1,max=150"`
	Email  *string    `json:"email,omitempty" validate:"omitempty,email"`
	RoleID *uuid.UUID `json:"roleId,omitempty"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	RoleID    uuid.UUID `json:"roleId"`
	Role      string    `json:"role"`
	Sector    string    `json:"sector"`
	Active    bool      `json:"active"`
	CreatedAt string    `json:"createdAt"`
	UpdatedAt string    `json:"updatedAt"`
}

// UserListResponse wraps a list of users.
type UserListResponse struct {
	Items []UserResponse `json:"items"`
	Total int            `json:"total"`
}
