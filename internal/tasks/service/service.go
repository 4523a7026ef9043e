package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"logistica_backend/internal/events"
	"logistica_backend/internal/tasks/repository"
	"logistica_backend/internal/tasks/transport"
	"logistica_backend/platform/logger"
)

// overdueCacheTTL bounds staleness of the overdue aggregate. The count feeds
// dashboards and reminder scans, not invariants, so a short window is fine.
const overdueCacheTTL = 30 * time.Second

// Service provides business logic for the task lifecycle and the completion
// cascade. All invariant-critical work happens inside the repository's
// transaction; this layer adds validation plumbing, post-commit events and
// the overdue cache.
type Service struct {
	repo  repository.Repository
	bus   events.Bus
	cache *redis.Client
	log   *logger.Logger
}

// New creates a new tasks service. The cache client may be nil; the overdue
// count then always hits the database.
func New(repo repository.Repository, bus events.Bus, cache *redis.Client, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, cache: cache, log: log}
}

// Create creates an ad hoc task on a service order. When a user is given the
// task is assigned immediately and inherits the user's role.
func (s *Service) Create(ctx context.Context, req transport.CreateTaskRequest) (transport.TaskResponse, error) {
	task, err := s.repo.Create(ctx, repository.CreateParams{
		ServiceOrderID: req.ServiceOrderID,
		Title:          req.Title,
		Sector:         req.Sector,
		Stage:          req.Stage,
		AssignedUserID: req.UserID,
		DueDate:        req.DueDate,
		TaskCostCents:  req.TaskCostCents,
		Address:        req.Address,
	})
	if err != nil {
		return transport.TaskResponse{}, err
	}

	s.log.Info("task created",
		"id", task.ID, "serviceOrderId", req.ServiceOrderID, "sector", task.Sector)

	if task.AssignedUserID != nil {
		s.bus.Publish(ctx, events.TaskAssigned{
			BaseEvent:      events.NewBaseEvent(),
			TaskID:         task.ID,
			ServiceOrderID: req.ServiceOrderID,
			AssignedUserID: *task.AssignedUserID,
		})
	}
	return toResponse(task), nil
}

// Instantiate expands a process template onto a service order: one task per
// template task, in template insertion order, all or nothing.
func (s *Service) Instantiate(ctx context.Context, req transport.InstantiateRequest) (transport.TaskListResponse, error) {
	tasks, err := s.repo.InstantiateFromTemplate(ctx, req.ServiceOrderID, req.TemplateID)
	if err != nil {
		return transport.TaskListResponse{}, err
	}

	s.log.Info("template instantiated",
		"serviceOrderId", req.ServiceOrderID, "templateId", req.TemplateID, "tasks", len(tasks))

	return toListResponse(tasks), nil
}

// Get retrieves a task by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.TaskResponse, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.TaskResponse{}, err
	}
	return toResponse(task), nil
}

// ListByServiceOrder retrieves an order's tasks in creation sequence.
func (s *Service) ListByServiceOrder(ctx context.Context, orderID uuid.UUID) (transport.TaskListResponse, error) {
	tasks, err := s.repo.ListByServiceOrder(ctx, orderID)
	if err != nil {
		return transport.TaskListResponse{}, err
	}
	return toListResponse(tasks), nil
}

// Assign assigns a task to a user; the task inherits the user's role.
func (s *Service) Assign(ctx context.Context, taskID uuid.UUID, req transport.AssignRequest) (transport.TaskResponse, error) {
	task, err := s.repo.Assign(ctx, taskID, req.UserID)
	if err != nil {
		return transport.TaskResponse{}, err
	}

	if task.ServiceOrderID != nil {
		s.bus.Publish(ctx, events.TaskAssigned{
			BaseEvent:      events.NewBaseEvent(),
			TaskID:         task.ID,
			ServiceOrderID: *task.ServiceOrderID,
			AssignedUserID: req.UserID,
		})
	}
	return toResponse(task), nil
}

// Unassign clears a task's assignee.
func (s *Service) Unassign(ctx context.Context, taskID uuid.UUID) (transport.TaskResponse, error) {
	task, err := s.repo.Unassign(ctx, taskID)
	if err != nil {
		return transport.TaskResponse{}, err
	}
	return toResponse(task), nil
}

// Start stamps the task's start. First start wins; a repeated call returns
// the task unchanged.
func (s *Service) Start(ctx context.Context, taskID uuid.UUID) (transport.TaskResponse, error) {
	task, err := s.repo.Start(ctx, taskID)
	if err != nil {
		return transport.TaskResponse{}, err
	}
	return toResponse(task), nil
}

// Complete completes a task and runs the sector cascade in one transaction.
// Events fire only after the commit, and only for what this call actually
// changed: an idempotent re-complete publishes nothing.
func (s *Service) Complete(ctx context.Context, taskID uuid.UUID) (transport.CompleteTaskResponse, error) {
	result, err := s.repo.CompleteCascade(ctx, taskID)
	if err != nil {
		return transport.CompleteTaskResponse{}, err
	}

	s.log.CascadeEvent(result.OrderID.String(), result.Sector,
		result.SectorLogged, result.OrderFinalized)

	if !result.AlreadyDone {
		s.bus.Publish(ctx, events.TaskCompleted{
			BaseEvent:      events.NewBaseEvent(),
			TaskID:         result.Task.ID,
			ServiceOrderID: result.OrderID,
			Sector:         result.Sector,
			SectorComplete: result.SectorLogged,
			OrderComplete:  result.OrderFinalized,
		})
	}
	if result.SectorLogged {
		s.bus.Publish(ctx, events.SectorCompleted{
			BaseEvent:      events.NewBaseEvent(),
			ServiceOrderID: result.OrderID,
			Code:           result.OrderCode,
			Sector:         result.Sector,
			CreatedByID:    result.OrderCreatorID,
		})
	}
	if result.OrderFinalized {
		s.bus.Publish(ctx, events.ServiceOrderFinalized{
			BaseEvent:      events.NewBaseEvent(),
			ServiceOrderID: result.OrderID,
			Code:           result.OrderCode,
			CreatedByID:    result.OrderCreatorID,
		})
	}

	return transport.CompleteTaskResponse{
		Task:           toResponse(result.Task),
		SectorComplete: result.SectorLogged,
		OrderComplete:  result.OrderFinalized,
	}, nil
}

// Uncomplete clears a task's completion. Fails with Conflict once the task's
// sector has been logged as complete.
func (s *Service) Uncomplete(ctx context.Context, taskID uuid.UUID) (transport.TaskResponse, error) {
	task, err := s.repo.Uncomplete(ctx, taskID)
	if err != nil {
		return transport.TaskResponse{}, err
	}

	s.log.Info("task uncompleted", "id", taskID)
	return toResponse(task), nil
}

// UpdateDueDate sets or clears a task's due date.
func (s *Service) UpdateDueDate(ctx context.Context, taskID uuid.UUID, req transport.UpdateDueDateRequest) (transport.TaskResponse, error) {
	task, err := s.repo.UpdateDueDate(ctx, taskID, req.DueDate)
	if err != nil {
		return transport.TaskResponse{}, err
	}
	return toResponse(task), nil
}

// AddCost sets a task's cost.
func (s *Service) AddCost(ctx context.Context, taskID uuid.UUID, req transport.AddCostRequest) (transport.TaskResponse, error) {
	task, err := s.repo.AddCost(ctx, taskID, req.TaskCostCents)
	if err != nil {
		return transport.TaskResponse{}, err
	}
	return toResponse(task), nil
}

// Remove hard-deletes a task, refusing when the audit trail would be
// falsified. Deleting the last open task of a sector runs the same cascade a
// completion does, so the matching events fire here too.
func (s *Service) Remove(ctx context.Context, taskID uuid.UUID) error {
	result, err := s.repo.Remove(ctx, taskID)
	if err != nil {
		return err
	}
	s.log.Info("task removed", "id", taskID)

	if result.SectorLogged || result.OrderFinalized {
		s.log.CascadeEvent(result.OrderID.String(), result.Sector,
			result.SectorLogged, result.OrderFinalized)
	}
	if result.SectorLogged {
		s.bus.Publish(ctx, events.SectorCompleted{
			BaseEvent:      events.NewBaseEvent(),
			ServiceOrderID: result.OrderID,
			Code:           result.OrderCode,
			Sector:         result.Sector,
			CreatedByID:    result.OrderCreatorID,
		})
	}
	if result.OrderFinalized {
		s.bus.Publish(ctx, events.ServiceOrderFinalized{
			BaseEvent:      events.NewBaseEvent(),
			ServiceOrderID: result.OrderID,
			Code:           result.OrderCode,
			CreatedByID:    result.OrderCreatorID,
		})
	}
	return nil
}

// CountOverdue counts tasks finished after their due date, excluding
// template tasks, through a short-lived Redis cache.
func (s *Service) CountOverdue(ctx context.Context, query transport.OverdueQuery) (transport.OverdueCountResponse, error) {
	filters := repository.OverdueFilters{
		StartedAfter: query.StartedAfter,
		DueBefore:    query.DueBefore,
		Sector:       query.Sector,
	}

	key := overdueCacheKey(filters)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Result(); err == nil {
			if count, err := strconv.ParseInt(cached, 10, 64); err == nil {
				return transport.OverdueCountResponse{Count: count}, nil
			}
		}
	}

	count, err := s.repo.CountOverdue(ctx, filters)
	if err != nil {
		return transport.OverdueCountResponse{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, strconv.FormatInt(count, 10), overdueCacheTTL).Err(); err != nil {
			s.log.Warn("overdue cache write failed", "error", err.Error())
		}
	}
	return transport.OverdueCountResponse{Count: count}, nil
}

func overdueCacheKey(filters repository.OverdueFilters) string {
	started, due, sector := "-", "-", "-"
	if filters.StartedAfter != nil {
		started = filters.StartedAfter.UTC().Format(time.RFC3339)
	}
	if filters.DueBefore != nil {
		due = filters.DueBefore.UTC().Format(time.RFC3339)
	}
	if filters.Sector != nil {
		sector = *filters.Sector
	}
	return fmt.Sprintf("tasks:overdue:%s:%s:%s", started, due, sector)
}

func toResponse(task repository.Task) transport.TaskResponse {
	return transport.TaskResponse{
		ID:             task.ID,
		Title:          task.Title,
		Sector:         task.Sector,
		Stage:          task.Stage,
		ServiceOrderID: task.ServiceOrderID,
		RoleID:         task.RoleID,
		Role:           task.RoleName,
		AssignedUserID: task.AssignedUserID,
		AssignedName:   task.AssignedName,
		StartedAt:      formatTime(task.StartedAt),
		CompletedAt:    formatTime(task.CompletedAt),
		DueDate:        formatTime(task.DueDate),
		TaskCostCents:  task.TaskCostCents,
		Address:        task.Address,
		CreatedAt:      task.CreatedAt.Format(time.RFC3339),
	}
}

func toListResponse(tasks []repository.Task) transport.TaskListResponse {
	items := make([]transport.TaskResponse, len(tasks))
	for i, task := range tasks {
		items[i] = toResponse(task)
	}
	return transport.TaskListResponse{Items: items, Total: len(items)}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(time.RFC3339)
	return &formatted
}
