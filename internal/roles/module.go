// Package roles provides the role catalog bounded context. Roles carry the
// sector a worker belongs to and are referenced by users, tasks, and
// template tasks.
package roles

import (
	"logistica_backend/internal/roles/handler"
	"logistica_backend/internal/roles/repository"
	"logistica_backend/internal/roles/service"
	apphttp "logistica_backend/internal/http"
	"logistica_backend/platform/logger"
	"logistica_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the roles bounded context module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and wires the roles module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "roles"
}

// Service returns the service layer for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts role routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/roles", m.handler.List)
	ctx.Protected.GET("/roles/:id", m.handler.GetByID)

	adminGroup := ctx.Admin.Group("/roles")
	adminGroup.POST("", m.handler.Create)
	adminGroup.PUT("/:id", m.handler.Update)
	adminGroup.DELETE("/:id", m.handler.Delete)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
