package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"logistica_backend/internal/serviceorders/domain"
	"logistica_backend/platform/apperr"
)

const (
	orderNotFoundMessage = "service order not found"
)

const foreignKeyViolation = "23503"

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new service orders repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const orderSelect = `
	SELECT so.id, so.code, so.user_id, u.name, so.client_id, c.name,
	       so.status, so.sector, so.description, so.value_cents,
	       so.creation_date, so.deactivated_at
	FROM service_orders so
	JOIN users u ON u.id = so.user_id
	JOIN clients c ON c.id = so.client_id`

// nextOrderNumber claims the next sequence number for the given year. The
// upsert increments atomically, so concurrent creates each get a distinct
// number.
const nextOrderNumber = `
	INSERT INTO service_order_counters (year, last_number)
	VALUES ($1, 1)
	ON CONFLICT (year) DO UPDATE
	SET last_number = service_order_counters.last_number + 1
	RETURNING last_number`

// Create opens a service order in PENDENTE with a generated OS-<year>-<NNNN>
// code. Counter claim and insert share one transaction so a failed insert
// does not burn a number permanently visible to callers.
func (r *Repo) Create(ctx context.Context, params CreateParams) (ServiceOrder, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return ServiceOrder{}, fmt.Errorf("begin create order: %w", err)
	}
	defer tx.Rollback(ctx)

	year := time.Now().Year()
	var number int
	if err := tx.QueryRow(ctx, nextOrderNumber, year).Scan(&number); err != nil {
		return ServiceOrder{}, fmt.Errorf("next order number: %w", err)
	}
	code := fmt.Sprintf("OS-%d-%04d", year, number)

	var id uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO service_orders (code, user_id, client_id, sector, description, value_cents)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		code, params.UserID, params.ClientID, params.Sector, params.Description, params.ValueCents,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return ServiceOrder{}, apperr.NotFound("user or client not found")
		}
		return ServiceOrder{}, fmt.Errorf("create service order: %w", err)
	}

	var order ServiceOrder
	if err := scanOrder(tx.QueryRow(ctx, orderSelect+` WHERE so.id = $1`, id), &order); err != nil {
		return ServiceOrder{}, fmt.Errorf("reload created order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return ServiceOrder{}, fmt.Errorf("commit create order: %w", err)
	}
	return order, nil
}

// GetByID retrieves a service order by ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (ServiceOrder, error) {
	var order ServiceOrder
	err := scanOrder(r.pool.QueryRow(ctx, orderSelect+` WHERE so.id = $1`, id), &order)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ServiceOrder{}, apperr.NotFound(orderNotFoundMessage)
		}
		return ServiceOrder{}, fmt.Errorf("get service order: %w", err)
	}
	return order, nil
}

// ListTasks loads the order's tasks in creation sequence for the detail view.
func (r *Repo) ListTasks(ctx context.Context, orderID uuid.UUID) ([]OrderTask, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, sector, stage, assigned_user_id, started_at, completed_at, due_date
		FROM tasks
		WHERE service_order_id = $1
		ORDER BY seq ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order tasks: %w", err)
	}
	defer rows.Close()

	tasks := []OrderTask{}
	for rows.Next() {
		var t OrderTask
		if err := rows.Scan(&t.ID, &t.Title, &t.Sector, &t.Stage,
			&t.AssignedUserID, &t.StartedAt, &t.CompletedAt, &t.DueDate); err != nil {
			return nil, fmt.Errorf("scan order task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order tasks: %w", err)
	}
	return tasks, nil
}

// List retrieves service orders matching the filters, newest first, with the
// total count for pagination.
func (r *Repo) List(ctx context.Context, filters ListFilters) ([]ServiceOrder, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argPos := 1

	if filters.Status != nil {
		where += fmt.Sprintf(` AND so.status = $%d`, argPos)
		args = append(args, *filters.Status)
		argPos++
	}
	if filters.Sector != nil {
		where += fmt.Sprintf(` AND so.sector = $%d`, argPos)
		args = append(args, *filters.Sector)
		argPos++
	}
	if filters.ClientID != nil {
		where += fmt.Sprintf(` AND so.client_id = $%d`, argPos)
		args = append(args, *filters.ClientID)
		argPos++
	}
	if !filters.IncludeClosed {
		where += ` AND so.deactivated_at IS NULL`
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM service_orders so` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count service orders: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := orderSelect + where +
		fmt.Sprintf(` ORDER BY so.creation_date DESC LIMIT $%d OFFSET $%d`, argPos, argPos+1)
	args = append(args, limit, filters.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list service orders: %w", err)
	}
	defer rows.Close()

	orders := []ServiceOrder{}
	for rows.Next() {
		var order ServiceOrder
		if err := scanOrderRows(rows, &order); err != nil {
			return nil, 0, fmt.Errorf("scan service order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate service orders: %w", err)
	}

	return orders, total, nil
}

// ListLogs returns the order's sector-completion log, oldest first. The
// BIGSERIAL id gives a total order consistent with completion time.
func (r *Repo) ListLogs(ctx context.Context, orderID uuid.UUID) ([]Log, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, service_order_id, action, creation_date
		FROM service_order_logs
		WHERE service_order_id = $1
		ORDER BY id ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order logs: %w", err)
	}
	defer rows.Close()

	logs := []Log{}
	for rows.Next() {
		var entry Log
		if err := rows.Scan(&entry.ID, &entry.ServiceOrderID, &entry.Action, &entry.CreationDate); err != nil {
			return nil, fmt.Errorf("scan order log: %w", err)
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order logs: %w", err)
	}
	return logs, nil
}

// Exists checks if a service order exists by ID.
func (r *Repo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM service_orders WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check order exists: %w", err)
	}
	return exists, nil
}

// Update modifies commercial fields via COALESCE; status and code are never
// touched here.
func (r *Repo) Update(ctx context.Context, params UpdateParams) (ServiceOrder, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE service_orders SET
			client_id = COALESCE($2, client_id),
			sector = COALESCE($3, sector),
			description = COALESCE($4, description),
			value_cents = COALESCE($5, value_cents)
		WHERE id = $1`,
		params.ID, params.ClientID, params.Sector, params.Description, params.ValueCents)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return ServiceOrder{}, apperr.NotFound("client not found")
		}
		return ServiceOrder{}, fmt.Errorf("update service order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ServiceOrder{}, apperr.NotFound(orderNotFoundMessage)
	}
	return r.GetByID(ctx, params.ID)
}

// MarkOperational moves PENDENTE -> OPERACIONAL. The status predicate in the
// WHERE clause makes the transition race-safe: a concurrent cascade that
// finalized the order first leaves zero rows affected.
func (r *Repo) MarkOperational(ctx context.Context, id uuid.UUID) (ServiceOrder, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE service_orders SET status = $2
		WHERE id = $1 AND status = $3`,
		id, domain.StatusOperacional, domain.StatusPendente)
	if err != nil {
		return ServiceOrder{}, fmt.Errorf("mark order operational: %w", err)
	}
	if result.RowsAffected() == 0 {
		order, err := r.GetByID(ctx, id)
		if err != nil {
			return ServiceOrder{}, err
		}
		return ServiceOrder{}, apperr.Conflict(
			fmt.Sprintf("cannot move order from %s to %s", order.Status, domain.StatusOperacional))
	}
	return r.GetByID(ctx, id)
}

// Deactivate soft-closes the commercial record. Status is untouched;
// deactivation is not a lifecycle transition.
func (r *Repo) Deactivate(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE service_orders SET deactivated_at = now()
		WHERE id = $1 AND deactivated_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("deactivate service order: %w", err)
	}
	if result.RowsAffected() == 0 {
		exists, err := r.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound(orderNotFoundMessage)
		}
		return apperr.Conflict("service order already deactivated")
	}
	return nil
}

func scanOrder(row pgx.Row, order *ServiceOrder) error {
	return row.Scan(
		&order.ID, &order.Code, &order.UserID, &order.UserName,
		&order.ClientID, &order.ClientName, &order.Status, &order.Sector,
		&order.Description, &order.ValueCents, &order.CreationDate, &order.DeactivatedAt)
}

func scanOrderRows(rows pgx.Rows, order *ServiceOrder) error {
	return scanOrder(rows, order)
}
