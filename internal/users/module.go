// Package users provides the user registry and authentication bounded
// context. Users carry a role, and through it the sector they work in; tasks
// inherit that role on assignment.
package users

import (
	apphttp "logistica_backend/internal/http"
	"logistica_backend/internal/users/handler"
	"logistica_backend/internal/users/repository"
	"logistica_backend/internal/users/service"
	"logistica_backend/platform/config"
	"logistica_backend/platform/logger"
	"logistica_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the users bounded context module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and wires the users module.
func NewModule(pool *pgxpool.Pool, cfg config.AuthConfig, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "users"
}

// Service returns the service layer for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts user and auth routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Login is public but rate limited against credential stuffing.
	ctx.V1.POST("/auth/login", ctx.AuthRateLimiter.RateLimit(), m.handler.Login)

	ctx.Protected.GET("/me", m.handler.Me)
	ctx.Protected.GET("/users", m.handler.List)
	ctx.Protected.GET("/users/:id", m.handler.GetByID)

	adminGroup := ctx.Admin.Group("/users")
	adminGroup.POST("", m.handler.Register)
	adminGroup.PUT("/:id", m.handler.Update)
	adminGroup.PATCH("/:id/deactivate", m.handler.Deactivate)
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
