// Package tasks provides the task lifecycle bounded context: creation (ad hoc
// or by template expansion), assignment, the start/complete/uncomplete
// lifecycle, and the completion cascade that closes sectors and finalizes
// service orders.
package tasks

import (
	"logistica_backend/internal/events"
	apphttp "logistica_backend/internal/http"
	"logistica_backend/internal/tasks/handler"
	"logistica_backend/internal/tasks/repository"
	"logistica_backend/internal/tasks/service"
	"logistica_backend/platform/logger"
	"logistica_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Module is the tasks bounded context module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and wires the tasks module. The cache client may be nil.
func NewModule(pool *pgxpool.Pool, bus events.Bus, cache *redis.Client, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, cache, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "tasks"
}

// Service returns the service layer for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts task routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/tasks")
	group.POST("", m.handler.Create)
	group.POST("/from-template", m.handler.Instantiate)
	group.GET("", m.handler.List)
	group.GET("/overdue/count", m.handler.CountOverdue)
	group.GET("/:id", m.handler.Get)
	group.PATCH("/:id/assign", m.handler.Assign)
	group.PATCH("/:id/unassign", m.handler.Unassign)
	group.PATCH("/:id/start", m.handler.Start)
	group.PATCH("/:id/complete", m.handler.Complete)
	group.PATCH("/:id/uncomplete", m.handler.Uncomplete)
	group.PATCH("/:id/due-date", m.handler.UpdateDueDate)
	group.PATCH("/:id/cost", m.handler.AddCost)

	ctx.Admin.DELETE("/tasks/:id", m.handler.Remove)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
