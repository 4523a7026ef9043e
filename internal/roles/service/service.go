package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"logistica_backend/internal/roles/repository"
	"logistica_backend/internal/roles/transport"
	"logistica_backend/platform/apperr"
	"logistica_backend/platform/logger"
)

// Service provides business logic for the role catalog.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new roles service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// GetByID retrieves a role by ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.RoleResponse, error) {
	role, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.RoleResponse{}, err
	}
	return toResponse(role), nil
}

// List retrieves all roles.
func (s *Service) List(ctx context.Context) (transport.RoleListResponse, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return transport.RoleListResponse{}, err
	}

	responses := make([]transport.RoleResponse, len(items))
	for i, item := range items {
		responses[i] = toResponse(item)
	}
	return transport.RoleListResponse{Items: responses, Total: len(responses)}, nil
}

// Create creates a new role.
func (s *Service) Create(ctx context.Context, req transport.CreateRoleRequest) (transport.RoleResponse, error) {
	role, err := s.repo.Create(ctx, repository.CreateParams{
		Name:        req.Name,
		Description: req.Description,
		Sector:      req.Sector,
	})
	if err != nil {
		return transport.RoleResponse{}, err
	}

	s.log.Info("role created", "id", role.ID, "name", role.Name, "sector", role.Sector)
	return toResponse(role), nil
}

// Update applies administrative edits to a role.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateRoleRequest) (transport.RoleResponse, error) {
	role, err := s.repo.Update(ctx, repository.UpdateParams{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Sector:      req.Sector,
	})
	if err != nil {
		return transport.RoleResponse{}, err
	}

	s.log.Info("role updated", "id", role.ID, "name", role.Name)
	return toResponse(role), nil
}

// Delete removes a role. Deletion is forbidden while the role is referenced
// by a user, task, or template task.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	referenced, err := s.repo.IsReferenced(ctx, id)
	if err != nil {
		return err
	}
	if referenced {
		return apperr.Conflict("role is referenced by users or tasks")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info("role deleted", "id", id)
	return nil
}

// Exists checks if a role exists by ID.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, id)
}

func toResponse(role repository.Role) transport.RoleResponse {
	return transport.RoleResponse{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		Sector:      role.Sector,
		CreatedAt:   role.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   role.UpdatedAt.Format(time.RFC3339),
	}
}
