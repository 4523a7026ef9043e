// Package events provides domain event definitions for decoupled
// communication between modules. Infrastructure (Bus, Handler) lives in
// platform/events.
package events

import (
	"logistica_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience.
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions.
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Service order domain events
// =============================================================================

// ServiceOrderCreated is published when a new service order is opened.
type ServiceOrderCreated struct {
	BaseEvent
	ServiceOrderID uuid.UUID `json:"serviceOrderId"`
	Code           string    `json:"code"`
	Sector         string    `json:"sector"`
	CreatedByID    uuid.UUID `json:"createdById"`
}

func (e ServiceOrderCreated) EventName() string { return "serviceorders.created" }

// SectorCompleted is published after the completion cascade committed a new
// sector-completion log entry.
type SectorCompleted struct {
	BaseEvent
	ServiceOrderID uuid.UUID `json:"serviceOrderId"`
	Code           string    `json:"code"`
	Sector         string    `json:"sector"`
	CreatedByID    uuid.UUID `json:"createdById"`
}

func (e SectorCompleted) EventName() string { return "serviceorders.sector_completed" }

// ServiceOrderFinalized is published after the cascade transitioned an order
// to FINALIZADO.
type ServiceOrderFinalized struct {
	BaseEvent
	ServiceOrderID uuid.UUID `json:"serviceOrderId"`
	Code           string    `json:"code"`
	CreatedByID    uuid.UUID `json:"createdById"`
}

func (e ServiceOrderFinalized) EventName() string { return "serviceorders.finalized" }

// =============================================================================
// Task domain events
// =============================================================================

// TaskAssigned is published when a task is assigned to a user.
type TaskAssigned struct {
	BaseEvent
	TaskID         uuid.UUID `json:"taskId"`
	ServiceOrderID uuid.UUID `json:"serviceOrderId"`
	AssignedUserID uuid.UUID `json:"assignedUserId"`
}

func (e TaskAssigned) EventName() string { return "tasks.assigned" }

// TaskCompleted is published after a task completion committed, with the
// cascade outcome that accompanied it.
type TaskCompleted struct {
	BaseEvent
	TaskID         uuid.UUID `json:"taskId"`
	ServiceOrderID uuid.UUID `json:"serviceOrderId"`
	Sector         string    `json:"sector"`
	SectorComplete bool      `json:"sectorComplete"`
	OrderComplete  bool      `json:"orderComplete"`
}

func (e TaskCompleted) EventName() string { return "tasks.completed" }
