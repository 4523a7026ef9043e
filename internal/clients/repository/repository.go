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

const clientNotFoundMessage = "client not found"

// foreignKeyViolation is the PostgreSQL error code for FK constraint breaks.
const foreignKeyViolation = "23503"

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new clients repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const clientColumns = `id, name, email, phone, document, address, created_at, updated_at`

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Document, &c.Address, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// GetByID retrieves a client by ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`

	client, err := scanClient(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, apperr.NotFound(clientNotFoundMessage)
		}
		return Client{}, fmt.Errorf("get client by id: %w", err)
	}
	return client, nil
}

// List retrieves all clients ordered by name.
func (r *Repo) List(ctx context.Context) ([]Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var results []Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		results = append(results, client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}

	return results, nil
}

// Exists checks if a client exists by ID.
func (r *Repo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM clients WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check client exists: %w", err)
	}
	return exists, nil
}

// Create creates a new client.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Client, error) {
	query := `
		INSERT INTO clients (name, email, phone, document, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + clientColumns

	client, err := scanClient(r.pool.QueryRow(ctx, query,
		params.Name, params.Email, params.Phone, params.Document, params.Address,
	))
	if err != nil {
		return Client{}, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}

// Update updates a client's fields.
func (r *Repo) Update(ctx context.Context, params UpdateParams) (Client, error) {
	query := `
		UPDATE clients SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			phone = COALESCE($4, phone),
			document = COALESCE($5, document),
			address = COALESCE($6, address),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + clientColumns

	client, err := scanClient(r.pool.QueryRow(ctx, query,
		params.ID, params.Name, params.Email, params.Phone, params.Document, params.Address,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, apperr.NotFound(clientNotFoundMessage)
		}
		return Client{}, fmt.Errorf("update client: %w", err)
	}
	return client, nil
}

// Delete removes a client. Clients referenced by service orders cannot be
// removed; the FK RESTRICT surfaces as a conflict.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return apperr.Conflict("client has service orders")
		}
		return fmt.Errorf("delete client: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(clientNotFoundMessage)
	}
	return nil
}
