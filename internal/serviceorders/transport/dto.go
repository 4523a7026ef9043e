package transport

import "github.com/google/uuid"

// CreateServiceOrderRequest contains data for opening a service order. The
// creator comes from the authenticated identity, never from the payload.
type CreateServiceOrderRequest struct {
	ClientID    uuid.UUID `json:"clientId" validate:"required"`
	Sector      string    `json:"sector" validate:"required,min=1,max=100"`
	Description string    `json:"description" validate:"max=2000"`
	ValueCents  int64     `json:"valueCents" validate:"min=0"`
}

// UpdateServiceOrderRequest contains commercial fields to update. Omitted
// fields are left unchanged; status is not updatable through this surface.
type UpdateServiceOrderRequest struct {
	ClientID    *uuid.UUID `json:"clientId,omitempty"`
	Sector      *string    `json:"sector,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	ValueCents  *int64     `json:"valueCents,omitempty" validate:"omitempty,min=0"`
}

// ListServiceOrdersQuery holds the supported listing filters.
type ListServiceOrdersQuery struct {
	Status        *string    `form:"status" validate:"omitempty,oneof=PENDENTE OPERACIONAL FINALIZADO"`
	Sector        *string    `form:"sector"`
	ClientID      *uuid.UUID `form:"clientId"`
	IncludeClosed bool       `form:"includeClosed"`
	Limit         int        `form:"limit" validate:"min=0,max=100"`
	Offset        int        `form:"offset" validate:"min=0"`
}

// OrderTaskResponse is a task as shown inside a service order detail.
type OrderTaskResponse struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Sector         string     `json:"sector"`
	Stage          string     `json:"stage"`
	AssignedUserID *uuid.UUID `json:"assignedUserId,omitempty"`
	StartedAt      *string    `json:"startedAt,omitempty"`
	CompletedAt    *string    `json:"completedAt,omitempty"`
	DueDate        *string    `json:"dueDate,omitempty"`
}

// LogResponse is one sector-completion audit entry.
type LogResponse struct {
	ID           int64  `json:"id"`
	Action       string `json:"action"`
	CreationDate string `json:"creationDate"`
}

// ServiceOrderResponse represents a service order in API responses.
type ServiceOrderResponse struct {
	ID            uuid.UUID `json:"id"`
	Code          string    `json:"code"`
	UserID        uuid.UUID `json:"userId"`
	UserName      string    `json:"userName"`
	ClientID      uuid.UUID `json:"clientId"`
	ClientName    string    `json:"clientName"`
	Status        string    `json:"status"`
	Sector        string    `json:"sector"`
	Description   string    `json:"description"`
	ValueCents    int64     `json:"valueCents"`
	CreationDate  string    `json:"creationDate"`
	DeactivatedAt *string   `json:"deactivatedAt,omitempty"`
}

// ServiceOrderDetailResponse is the full order view with tasks and logs.
type ServiceOrderDetailResponse struct {
	ServiceOrderResponse
	Tasks []OrderTaskResponse `json:"tasks"`
	Logs  []LogResponse       `json:"logs"`
}

// ServiceOrderListResponse wraps a paginated listing.
type ServiceOrderListResponse struct {
	Items  []ServiceOrderResponse `json:"items"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}

// LogListResponse wraps an order's audit log.
type LogListResponse struct {
	Items []LogResponse `json:"items"`
	Total int           `json:"total"`
}
