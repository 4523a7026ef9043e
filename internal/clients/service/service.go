package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"logistica_backend/internal/clients/repository"
	"logistica_backend/internal/clients/transport"
	"logistica_backend/platform/logger"
	"logistica_backend/platform/phone"
)

// Service provides business logic for the client registry.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new clients service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// GetByID retrieves a client by ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.ClientResponse, error) {
	client, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.ClientResponse{}, err
	}
	return toResponse(client), nil
}

// List retrieves all clients.
func (s *Service) List(ctx context.Context) (transport.ClientListResponse, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return transport.ClientListResponse{}, err
	}

	responses := make([]transport.ClientResponse, len(items))
	for i, item := range items {
		responses[i] = toResponse(item)
	}
	return transport.ClientListResponse{Items: responses, Total: len(responses)}, nil
}

// Create creates a new client with a normalized phone number.
func (s *Service) Create(ctx context.Context, req transport.CreateClientRequest) (transport.ClientResponse, error) {
	client, err := s.repo.Create(ctx, repository.CreateParams{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    normalizePhone(req.Phone),
		Document: req.Document,
		Address:  req.Address,
	})
	if err != nil {
		return transport.ClientResponse{}, err
	}

	s.log.Info("client created", "id", client.ID, "name", client.Name)
	return toResponse(client), nil
}

// Update updates a client.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateClientRequest) (transport.ClientResponse, error) {
	client, err := s.repo.Update(ctx, repository.UpdateParams{
		ID:       id,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    normalizePhone(req.Phone),
		Document: req.Document,
		Address:  req.Address,
	})
	if err != nil {
		return transport.ClientResponse{}, err
	}

	s.log.Info("client updated", "id", client.ID)
	return toResponse(client), nil
}

// Delete removes a client without service orders.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("client deleted", "id", id)
	return nil
}

// Exists checks if a client exists by ID.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, id)
}

func normalizePhone(input *string) *string {
	if input == nil {
		return nil
	}
	normalized := phone.NormalizeE164(*input)
	return &normalized
}

func toResponse(client repository.Client) transport.ClientResponse {
	return transport.ClientResponse{
		ID:        client.ID,
		Name:      client.Name,
		Email:     client.Email,
		Phone:     client.Phone,
		Document:  client.Document,
		Address:   client.Address,
		CreatedAt: client.CreatedAt.Format(time.RFC3339),
		UpdatedAt: client.UpdatedAt.Format(time.RFC3339),
	}
}
