package scheduler

import (
	"context"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"logistica_backend/internal/email"
	"logistica_backend/platform/logger"
)

// OverdueLister is what the scan handler reads; satisfied by *Repo.
type OverdueLister interface {
	ListOverdueOpen(ctx context.Context) ([]OverdueTask, error)
}

// Handler processes scheduler jobs.
type Handler struct {
	repo   OverdueLister
	sender email.Sender
	log    *logger.Logger
}

// NewHandler creates the scheduler job handler.
func NewHandler(repo OverdueLister, sender email.Sender, log *logger.Logger) *Handler {
	return &Handler{repo: repo, sender: sender, log: log}
}

// Mux returns the asynq mux with all job handlers registered.
func (h *Handler) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeOverdueScan, h.HandleOverdueScan)
	return mux
}

// HandleOverdueScan emails each assignee a digest of their overdue tasks.
// One failed recipient does not stop the others; the first error is returned
// so asynq retries the scan.
func (h *Handler) HandleOverdueScan(ctx context.Context, _ *asynq.Task) error {
	overdue, err := h.repo.ListOverdueOpen(ctx)
	if err != nil {
		return err
	}
	if len(overdue) == 0 {
		h.log.Info("overdue scan found nothing")
		return nil
	}

	type recipient struct {
		name  string
		email string
		items []email.OverdueItem
	}
	byUser := map[uuid.UUID]*recipient{}
	order := []uuid.UUID{}
	for _, task := range overdue {
		r, ok := byUser[task.UserID]
		if !ok {
			r = &recipient{name: task.UserName, email: task.UserEmail}
			byUser[task.UserID] = r
			order = append(order, task.UserID)
		}
		r.items = append(r.items, email.OverdueItem{
			Title:  task.Title + " (" + task.OrderCode + ")",
			Sector: task.Sector,
			Due:    email.FormatDue(task.DueDate),
		})
	}

	var firstErr error
	sent := 0
	for _, userID := range order {
		r := byUser[userID]
		subject, body := email.OverdueReminder(r.name, r.items)
		err := h.sender.Send(ctx, email.Message{
			To:      r.email,
			ToName:  r.name,
			Subject: subject,
			HTML:    body,
		})
		if err != nil {
			h.log.Error("overdue reminder failed", "to", r.email, "error", err.Error())
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		sent++
	}

	h.log.Info("overdue scan finished",
		"overdueTasks", len(overdue), "remindersSent", sent)
	return firstErr
}
