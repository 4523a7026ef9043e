package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"logistica_backend/internal/roles/repository"
	"logistica_backend/internal/roles/transport"
	"logistica_backend/platform/apperr"
	"logistica_backend/platform/logger"
)

type fakeRepo struct {
	roles      map[uuid.UUID]repository.Role
	referenced map[uuid.UUID]bool
	deleted    []uuid.UUID
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		roles:      make(map[uuid.UUID]repository.Role),
		referenced: make(map[uuid.UUID]bool),
	}
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Role, error) {
	role, ok := f.roles[id]
	if !ok {
		return repository.Role{}, apperr.NotFound("role not found")
	}
	return role, nil
}

func (f *fakeRepo) GetByName(_ context.Context, name string) (repository.Role, error) {
	for _, role := range f.roles {
		if role.Name == name {
			return role, nil
		}
	}
	return repository.Role{}, apperr.NotFound("role not found")
}

func (f *fakeRepo) List(_ context.Context) ([]repository.Role, error) {
	out := make([]repository.Role, 0, len(f.roles))
	for _, role := range f.roles {
		out = append(out, role)
	}
	return out, nil
}

func (f *fakeRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := f.roles[id]
	return ok, nil
}

func (f *fakeRepo) IsReferenced(_ context.Context, id uuid.UUID) (bool, error) {
	return f.referenced[id], nil
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateParams) (repository.Role, error) {
	role := repository.Role{
		ID:          uuid.New(),
		Name:        params.Name,
		Description: params.Description,
		Sector:      params.Sector,
	}
	f.roles[role.ID] = role
	return role, nil
}

func (f *fakeRepo) Update(_ context.Context, params repository.UpdateParams) (repository.Role, error) {
	role, ok := f.roles[params.ID]
	if !ok {
		return repository.Role{}, apperr.NotFound("role not found")
	}
	if params.Name != nil {
		role.Name = *params.Name
	}
	if params.Description != nil {
		role.Description = *params.Description
	}
	if params.Sector != nil {
		role.Sector = *params.Sector
	}
	f.roles[params.ID] = role
	return role, nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.roles[id]; !ok {
		return apperr.NotFound("role not found")
	}
	delete(f.roles, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func TestDeleteReferencedRoleReturnsConflict(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, logger.New("development"))

	created, err := svc.Create(context.Background(), transport.CreateRoleRequest{
		Name:   "Motorista",
		Sector: "OPERACOES",
	})
	if err != nil {
		t.Fatalf("create role: %v", err)
	}
	repo.referenced[created.ID] = true

	err = svc.Delete(context.Background(), created.ID)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if len(repo.deleted) != 0 {
		t.Fatalf("expected no delete to reach the repository, got %d", len(repo.deleted))
	}
}

func TestDeleteUnreferencedRoleSucceeds(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, logger.New("development"))

	created, err := svc.Create(context.Background(), transport.CreateRoleRequest{
		Name:   "Financeiro",
		Sector: "FINANCEIRO",
	})
	if err != nil {
		t.Fatalf("create role: %v", err)
	}

	if err := svc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("delete role: %v", err)
	}
	if len(repo.deleted) != 1 {
		t.Fatalf("expected one delete, got %d", len(repo.deleted))
	}
}
