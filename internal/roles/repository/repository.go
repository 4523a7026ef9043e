package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"logistica_backend/platform/apperr"
)

const roleNotFoundMessage = "role not found"

// uniqueViolation is the PostgreSQL error code for unique constraint breaks.
const uniqueViolation = "23505"

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new roles repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const roleColumns = `id, name, description, sector, created_at, updated_at`

// GetByID retrieves a role by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE id = $1`

	var role Role
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&role.ID, &role.Name, &role.Description, &role.Sector, &role.CreatedAt, &role.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, apperr.NotFound(roleNotFoundMessage)
		}
		return Role{}, fmt.Errorf("get role by id: %w", err)
	}

	return role, nil
}

// GetByName retrieves a role by its unique name.
func (r *Repo) GetByName(ctx context.Context, name string) (Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE name = $1`

	var role Role
	err := r.pool.QueryRow(ctx, query, name).Scan(
		&role.ID, &role.Name, &role.Description, &role.Sector, &role.CreatedAt, &role.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, apperr.NotFound(roleNotFoundMessage)
		}
		return Role{}, fmt.Errorf("get role by name: %w", err)
	}

	return role, nil
}

// List retrieves all roles ordered by sector and name.
func (r *Repo) List(ctx context.Context) ([]Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles ORDER BY sector ASC, name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var results []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(
			&role.ID, &role.Name, &role.Description, &role.Sector, &role.CreatedAt, &role.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		results = append(results, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}

	return results, nil
}

// Exists checks if a role exists by ID.
func (r *Repo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM roles WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check role exists: %w", err)
	}
	return exists, nil
}

// IsReferenced checks whether the role is referenced by any user or task
// (template tasks included, they live in the tasks table).
func (r *Repo) IsReferenced(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(SELECT 1 FROM users WHERE role_id = $1)
			OR EXISTS(SELECT 1 FROM tasks WHERE role_id = $1)`

	var referenced bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&referenced); err != nil {
		return false, fmt.Errorf("check role references: %w", err)
	}
	return referenced, nil
}

// Create creates a new role.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Role, error) {
	query := `
		INSERT INTO roles (name, description, sector)
		VALUES ($1, $2, $3)
		RETURNING ` + roleColumns

	var role Role
	err := r.pool.QueryRow(ctx, query, params.Name, params.Description, params.Sector).Scan(
		&role.ID, &role.Name, &role.Description, &role.Sector, &role.CreatedAt, &role.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return Role{}, apperr.Conflict("role name already exists")
		}
		return Role{}, fmt.Errorf("create role: %w", err)
	}

	return role, nil
}

// Update updates an existing role.
func (r *Repo) Update(ctx context.Context, params UpdateParams) (Role, error) {
	query := `
		UPDATE roles SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			sector = COALESCE($4, sector),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + roleColumns

	var role Role
	err := r.pool.QueryRow(ctx, query, params.ID, params.Name, params.Description, params.Sector).Scan(
		&role.ID, &role.Name, &role.Description, &role.Sector, &role.CreatedAt, &role.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, apperr.NotFound(roleNotFoundMessage)
		}
		if isUniqueViolation(err) {
			return Role{}, apperr.Conflict("role name already exists")
		}
		return Role{}, fmt.Errorf("update role: %w", err)
	}

	return role, nil
}

// Delete removes a role by ID. Referencing rows make the delete fail at the
// service layer before reaching here; the FK RESTRICT is the backstop.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(roleNotFoundMessage)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
