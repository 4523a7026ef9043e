package scheduler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apphttp "logistica_backend/internal/http"
	"logistica_backend/platform/httpkit"
	"logistica_backend/platform/logger"
)

// Module exposes the administrative job surface: enqueueing an immediate
// overdue scan instead of waiting for the cron run.
type Module struct {
	enqueuer *Enqueuer
	log      *logger.Logger
}

// NewModule creates the scheduler HTTP module.
func NewModule(enqueuer *Enqueuer, log *logger.Logger) *Module {
	return &Module{enqueuer: enqueuer, log: log}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "scheduler"
}

// RegisterRoutes mounts job routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.POST("/jobs/overdue-scan", m.triggerOverdueScan)
}

// triggerOverdueScan queues one scan run.
// POST /api/v1/admin/jobs/overdue-scan
func (m *Module) triggerOverdueScan(c *gin.Context) {
	if err := m.enqueuer.EnqueueOverdueScan(c.Request.Context()); err != nil {
		m.log.Error("overdue scan enqueue failed", "error", err.Error())
		httpkit.Error(c, http.StatusInternalServerError, "failed to enqueue scan", nil)
		return
	}

	m.log.Info("overdue scan enqueued manually")
	httpkit.OK(c, gin.H{"enqueued": TypeOverdueScan})
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
