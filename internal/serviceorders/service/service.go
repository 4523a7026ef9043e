package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"logistica_backend/internal/events"
	"logistica_backend/internal/serviceorders/repository"
	"logistica_backend/internal/serviceorders/transport"
	"logistica_backend/platform/logger"
)

// Service provides business logic for service orders. The FINALIZADO
// transition is owned by the task completion cascade and never reachable
// through this service.
type Service struct {
	repo repository.Repository
	bus  events.Bus
	log  *logger.Logger
}

// New creates a new service orders service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// Create opens a service order in PENDENTE for the authenticated creator.
func (s *Service) Create(ctx context.Context, creatorID uuid.UUID, req transport.CreateServiceOrderRequest) (transport.ServiceOrderResponse, error) {
	order, err := s.repo.Create(ctx, repository.CreateParams{
		UserID:      creatorID,
		ClientID:    req.ClientID,
		Sector:      req.Sector,
		Description: req.Description,
		ValueCents:  req.ValueCents,
	})
	if err != nil {
		return transport.ServiceOrderResponse{}, err
	}

	s.log.Info("service order created",
		"id", order.ID, "code", order.Code, "sector", order.Sector)

	s.bus.Publish(ctx, events.ServiceOrderCreated{
		BaseEvent:      events.NewBaseEvent(),
		ServiceOrderID: order.ID,
		Code:           order.Code,
		Sector:         order.Sector,
		CreatedByID:    order.UserID,
	})

	return toResponse(order), nil
}

// Get retrieves a service order with its tasks and audit log.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.ServiceOrderDetailResponse, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.ServiceOrderDetailResponse{}, err
	}

	tasks, err := s.repo.ListTasks(ctx, id)
	if err != nil {
		return transport.ServiceOrderDetailResponse{}, err
	}
	logs, err := s.repo.ListLogs(ctx, id)
	if err != nil {
		return transport.ServiceOrderDetailResponse{}, err
	}

	detail := transport.ServiceOrderDetailResponse{
		ServiceOrderResponse: toResponse(order),
		Tasks:                make([]transport.OrderTaskResponse, len(tasks)),
		Logs:                 make([]transport.LogResponse, len(logs)),
	}
	for i, task := range tasks {
		detail.Tasks[i] = toTaskResponse(task)
	}
	for i, entry := range logs {
		detail.Logs[i] = toLogResponse(entry)
	}
	return detail, nil
}

// List retrieves service orders matching the query filters.
func (s *Service) List(ctx context.Context, query transport.ListServiceOrdersQuery) (transport.ServiceOrderListResponse, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 50
	}

	orders, total, err := s.repo.List(ctx, repository.ListFilters{
		Status:        query.Status,
		Sector:        query.Sector,
		ClientID:      query.ClientID,
		IncludeClosed: query.IncludeClosed,
		Limit:         limit,
		Offset:        query.Offset,
	})
	if err != nil {
		return transport.ServiceOrderListResponse{}, err
	}

	items := make([]transport.ServiceOrderResponse, len(orders))
	for i, order := range orders {
		items[i] = toResponse(order)
	}
	return transport.ServiceOrderListResponse{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: query.Offset,
	}, nil
}

// ListLogs retrieves the order's sector-completion audit trail.
func (s *Service) ListLogs(ctx context.Context, orderID uuid.UUID) (transport.LogListResponse, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return transport.LogListResponse{}, err
	}

	logs, err := s.repo.ListLogs(ctx, order.ID)
	if err != nil {
		return transport.LogListResponse{}, err
	}

	items := make([]transport.LogResponse, len(logs))
	for i, entry := range logs {
		items[i] = toLogResponse(entry)
	}
	return transport.LogListResponse{Items: items, Total: len(items)}, nil
}

// Update modifies commercial fields of an order.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateServiceOrderRequest) (transport.ServiceOrderResponse, error) {
	order, err := s.repo.Update(ctx, repository.UpdateParams{
		ID:          id,
		ClientID:    req.ClientID,
		Sector:      req.Sector,
		Description: req.Description,
		ValueCents:  req.ValueCents,
	})
	if err != nil {
		return transport.ServiceOrderResponse{}, err
	}
	return toResponse(order), nil
}

// MarkOperational performs the administrative PENDENTE -> OPERACIONAL
// transition. Regressions surface as Conflict from the repository.
func (s *Service) MarkOperational(ctx context.Context, id uuid.UUID) (transport.ServiceOrderResponse, error) {
	order, err := s.repo.MarkOperational(ctx, id)
	if err != nil {
		return transport.ServiceOrderResponse{}, err
	}

	s.log.Info("service order marked operational", "id", order.ID, "code", order.Code)
	return toResponse(order), nil
}

// Deactivate soft-closes the commercial record.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.log.Info("service order deactivated", "id", id)
	return nil
}

// Exists reports whether a service order exists; consumed by the tasks module.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, id)
}

func toResponse(order repository.ServiceOrder) transport.ServiceOrderResponse {
	resp := transport.ServiceOrderResponse{
		ID:           order.ID,
		Code:         order.Code,
		UserID:       order.UserID,
		UserName:     order.UserName,
		ClientID:     order.ClientID,
		ClientName:   order.ClientName,
		Status:       order.Status,
		Sector:       order.Sector,
		Description:  order.Description,
		ValueCents:   order.ValueCents,
		CreationDate: order.CreationDate.Format(time.RFC3339),
	}
	if order.DeactivatedAt != nil {
		formatted := order.DeactivatedAt.Format(time.RFC3339)
		resp.DeactivatedAt = &formatted
	}
	return resp
}

func toTaskResponse(task repository.OrderTask) transport.OrderTaskResponse {
	return transport.OrderTaskResponse{
		ID:             task.ID,
		Title:          task.Title,
		Sector:         task.Sector,
		Stage:          task.Stage,
		AssignedUserID: task.AssignedUserID,
		StartedAt:      formatTime(task.StartedAt),
		CompletedAt:    formatTime(task.CompletedAt),
		DueDate:        formatTime(task.DueDate),
	}
}

func toLogResponse(entry repository.Log) transport.LogResponse {
	return transport.LogResponse{
		ID:           entry.ID,
		Action:       entry.Action,
		CreationDate: entry.CreationDate.Format(time.RFC3339),
	}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(time.RFC3339)
	return &formatted
}
