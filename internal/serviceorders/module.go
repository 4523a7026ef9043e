// Package serviceorders provides the service order bounded context: the
// commercial record, its monotonic status lifecycle, and the read side of the
// sector-completion audit log. Writing log entries and finalizing orders
// belongs to the tasks module's completion cascade.
package serviceorders

import (
	"logistica_backend/internal/events"
	apphttp "logistica_backend/internal/http"
	"logistica_backend/internal/serviceorders/handler"
	"logistica_backend/internal/serviceorders/repository"
	"logistica_backend/internal/serviceorders/service"
	"logistica_backend/platform/logger"
	"logistica_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the service orders bounded context module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and wires the service orders module.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "serviceorders"
}

// Service returns the service layer for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts service order routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/service-orders")
	group.POST("", m.handler.Create)
	group.GET("", m.handler.List)
	group.GET("/:id", m.handler.Get)
	group.GET("/:id/logs", m.handler.ListLogs)
	group.PUT("/:id", m.handler.Update)

	adminGroup := ctx.Admin.Group("/service-orders")
	adminGroup.PATCH("/:id/operational", m.handler.MarkOperational)
	adminGroup.PATCH("/:id/deactivate", m.handler.Deactivate)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
