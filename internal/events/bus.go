// Package events re-exports the platform event bus for convenience so
// modules import a single events package.
package events

import (
	platformevents "logistica_backend/platform/events"
	"logistica_backend/platform/logger"
)

// InMemoryBus is a type alias to the platform InMemoryBus.
type InMemoryBus = platformevents.InMemoryBus

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
