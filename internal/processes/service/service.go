package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"logistica_backend/internal/processes/repository"
	"logistica_backend/internal/processes/transport"
	"logistica_backend/platform/logger"
)

// Service provides business logic for process templates.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new process templates service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// GetByID retrieves a template with its tasks in expansion order.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.TemplateResponse, error) {
	tmpl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.TemplateResponse{}, err
	}
	return toResponse(tmpl), nil
}

// List retrieves all templates.
func (s *Service) List(ctx context.Context) (transport.TemplateListResponse, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return transport.TemplateListResponse{}, err
	}

	responses := make([]transport.TemplateResponse, len(items))
	for i, item := range items {
		responses[i] = toResponse(item)
	}
	return transport.TemplateListResponse{Items: responses, Total: len(responses)}, nil
}

// Create creates a template with an empty task list.
func (s *Service) Create(ctx context.Context, req transport.CreateTemplateRequest) (transport.TemplateResponse, error) {
	tmpl, err := s.repo.Create(ctx, req.Title)
	if err != nil {
		return transport.TemplateResponse{}, err
	}

	s.log.Info("process template created", "id", tmpl.ID, "title", tmpl.Title)
	return toResponse(tmpl), nil
}

// AddTask appends a template task; the creation sequence defines the order
// tasks are instantiated in.
func (s *Service) AddTask(ctx context.Context, templateID uuid.UUID, req transport.AddTemplateTaskRequest) (transport.TemplateTaskResponse, error) {
	task, err := s.repo.AddTask(ctx, repository.AddTaskParams{
		TemplateID:    templateID,
		Title:         req.Title,
		Sector:        req.Sector,
		Stage:         req.Stage,
		RoleID:        req.RoleID,
		TaskCostCents: req.TaskCostCents,
		Address:       req.Address,
	})
	if err != nil {
		return transport.TemplateTaskResponse{}, err
	}

	s.log.Info("template task added",
		"templateId", templateID, "taskId", task.ID, "sector", task.Sector)
	return toTaskResponse(task), nil
}

// Delete removes a template and its template tasks.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("process template deleted", "id", id)
	return nil
}

func toResponse(tmpl repository.ProcessTemplate) transport.TemplateResponse {
	tasks := make([]transport.TemplateTaskResponse, len(tmpl.Tasks))
	for i, task := range tmpl.Tasks {
		tasks[i] = toTaskResponse(task)
	}
	return transport.TemplateResponse{
		ID:        tmpl.ID,
		Title:     tmpl.Title,
		CreatedAt: tmpl.CreatedAt.Format(time.RFC3339),
		Tasks:     tasks,
	}
}

func toTaskResponse(task repository.TemplateTask) transport.TemplateTaskResponse {
	return transport.TemplateTaskResponse{
		ID:            task.ID,
		Title:         task.Title,
		Sector:        task.Sector,
		Stage:         task.Stage,
		RoleID:        task.RoleID,
		Role:          task.RoleName,
		TaskCostCents: task.TaskCostCents,
		Address:       task.Address,
	}
}
