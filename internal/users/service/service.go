package service

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"logistica_backend/internal/users/password"
	"logistica_backend/internal/users/repository"
	"logistica_backend/internal/users/transport"
	"logistica_backend/platform/apperr"
	"logistica_backend/platform/config"
	"logistica_backend/platform/logger"
)

// Service provides user registry and authentication logic.
type Service struct {
	repo repository.Repository
	cfg  config.AuthConfig
	log  *logger.Logger
}

// New creates a new users service.
func New(repo repository.Repository, cfg config.AuthConfig, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, log: log}
}

// Register creates a new user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, req transport.RegisterRequest) (transport.UserResponse, error) {
	hash, err := password.Hash(req.Password)
	if err != nil {
		return transport.UserResponse{}, apperr.Wrap(apperr.KindInternal, "hash password", err)
	}

	user, err := s.repo.Create(ctx, repository.CreateParams{
		Name:         req.Name,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		RoleID:       req.RoleID,
	})
	if err != nil {
		return transport.UserResponse{}, err
	}

	s.log.Info("user registered", "id", user.ID, "email", user.Email, "role", user.RoleName)
	return toResponse(user), nil
}

// Login verifies credentials and issues a signed access token.
func (s *Service) Login(ctx context.Context, req transport.LoginRequest) (transport.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		s.log.AuthEvent("login", email, false, "unknown email")
		return transport.LoginResponse{}, apperr.Unauthorized("invalid credentials")
	}

	if err := password.Compare(user.PasswordHash, req.Password); err != nil {
		s.log.AuthEvent("login", email, false, "wrong password")
		return transport.LoginResponse{}, apperr.Unauthorized("invalid credentials")
	}

	if !user.Active {
		s.log.AuthEvent("login", email, false, "deactivated")
		return transport.LoginResponse{}, apperr.Forbidden("user is deactivated")
	}

	token, err := s.issueAccessToken(user)
	if err != nil {
		return transport.LoginResponse{}, apperr.Wrap(apperr.KindInternal, "sign token", err)
	}

	s.log.AuthEvent("login", email, true, "")
	return transport.LoginResponse{AccessToken: token, User: toResponse(user)}, nil
}

// GetByID retrieves a user by ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.UserResponse{}, err
	}
	return toResponse(user), nil
}

// List retrieves all users.
func (s *Service) List(ctx context.Context) (transport.UserListResponse, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return transport.UserListResponse{}, err
	}

	responses := make([]transport.UserResponse, len(items))
	for i, item := range items {
		responses[i] = toResponse(item)
	}
	return transport.UserListResponse{Items: responses, Total: len(responses)}, nil
}

// Update applies administrative edits to a user.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateUserRequest) (transport.UserResponse, error) {
	var email *string
	if req.Email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*req.Email))
		email = &normalized
	}

	user, err := s.repo.Update(ctx, repository.UpdateParams{
		ID:     id,
		Name:   req.Name,
		Email:  email,
		RoleID: req.RoleID,
	})
	if err != nil {
		return transport.UserResponse{}, err
	}

	s.log.Info("user updated", "id", user.ID)
	return toResponse(user), nil
}

// Deactivate blocks a user from logging in without removing task history.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.log.Info("user deactivated", "id", id)
	return nil
}

// Exists checks if a user exists by ID.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, id)
}

func (s *Service) issueAccessToken(user repository.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":    user.ID.String(),
		"role":   user.RoleName,
		"sector": user.RoleSector,
		"iat":    now.Unix(),
		"exp":    now.Add(s.cfg.GetAccessTokenTTL()).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.GetJWTSecret()))
}

func toResponse(user repository.User) transport.UserResponse {
	return transport.UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		RoleID:    user.RoleID,
		Role:      user.RoleName,
		Sector:    user.RoleSector,
		Active:    user.Active,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}
