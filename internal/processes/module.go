// Package processes provides the process template bounded context. Templates
// are reusable blueprints; expanding one onto a service order is owned by
// the tasks module.
package processes

import (
	apphttp "logistica_backend/internal/http"
	"logistica_backend/internal/processes/handler"
	"logistica_backend/internal/processes/repository"
	"logistica_backend/internal/processes/service"
	"logistica_backend/platform/logger"
	"logistica_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the process templates bounded context module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and wires the processes module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "processes"
}

// Service returns the service layer for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts template routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/processes", m.handler.List)
	ctx.Protected.GET("/processes/:id", m.handler.GetByID)

	adminGroup := ctx.Admin.Group("/processes")
	adminGroup.POST("", m.handler.Create)
	adminGroup.POST("/:id/tasks", m.handler.AddTask)
	adminGroup.DELETE("/:id", m.handler.Delete)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
