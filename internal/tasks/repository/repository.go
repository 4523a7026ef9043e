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

	orderdomain "logistica_backend/internal/serviceorders/domain"
	"logistica_backend/internal/tasks/domain"
	"logistica_backend/platform/apperr"
)

const (
	taskNotFoundMessage     = "task not found"
	orderNotFoundMessage    = "service order not found"
	userNotFoundMessage     = "user not found"
	templateNotFoundMessage = "process template not found"
	templateTaskMessage     = "template tasks have no lifecycle"
	orderFinalizedMessage   = "service order is already finalized"
)

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new tasks repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// querier is satisfied by both pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const taskSelect = `
	SELECT t.id, t.seq, t.title, t.sector, t.stage,
	       t.role_id, COALESCE(r.name, ''), t.service_order_id, t.process_id,
	       t.assigned_user_id, COALESCE(u.name, ''),
	       t.started_at, t.completed_at, t.due_date,
	       t.task_cost_cents, t.address, t.created_at
	FROM tasks t
	LEFT JOIN roles r ON r.id = t.role_id
	LEFT JOIN users u ON u.id = t.assigned_user_id`

// lockOrderQuery takes the row lock that serializes every mutation of one
// order's task/log/status set. Different orders never contend.
const lockOrderQuery = `
	SELECT id, code, user_id, status
	FROM service_orders
	WHERE id = $1
	FOR UPDATE`

// orderTaskStatesQuery re-reads the completion snapshot inside the order
// lock. The aggregator must never run on state captured before the lock.
const orderTaskStatesQuery = `
	SELECT id, sector, completed_at IS NOT NULL
	FROM tasks
	WHERE service_order_id = $1`

// insertSectorLogQuery appends the immutable sector-completion entry. The
// unique constraint plus DO NOTHING is the storage-level backstop against a
// concurrent double insert; RowsAffected reports whether this call won.
const insertSectorLogQuery = `
	INSERT INTO service_order_logs (service_order_id, action)
	VALUES ($1, $2)
	ON CONFLICT (service_order_id, action) DO NOTHING`

// finalizeOrderQuery is the only writer of FINALIZADO. The status predicate
// keeps the transition idempotent under re-completes.
const finalizeOrderQuery = `
	UPDATE service_orders
	SET status = $2
	WHERE id = $1 AND status <> $2`

// completeTaskQuery stamps completion, backfilling started_at atomically so
// a completed task is never observed as never-started.
const completeTaskQuery = `
	UPDATE tasks
	SET completed_at = now(), started_at = COALESCE(started_at, now())
	WHERE id = $1 AND completed_at IS NULL`

// countOverdueQuery counts tasks finished after their due date. Template
// task rows (non-null process_id) never count.
const countOverdueQuery = `
	SELECT COUNT(*)
	FROM tasks
	WHERE process_id IS NULL
	  AND completed_at IS NOT NULL
	  AND due_date IS NOT NULL
	  AND completed_at > due_date`

// GetByID retrieves a task by ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Task, error) {
	return getTask(ctx, r.pool, id)
}

// ListByServiceOrder retrieves the order's tasks in creation sequence.
func (r *Repo) ListByServiceOrder(ctx context.Context, orderID uuid.UUID) ([]Task, error) {
	rows, err := r.pool.Query(ctx, taskSelect+`
		WHERE t.service_order_id = $1
		ORDER BY t.seq ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list tasks by order: %w", err)
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		var task Task
		if err := scanTask(rows, &task); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// CountOverdue counts non-template tasks completed after their due date,
// narrowed by the optional filters.
func (r *Repo) CountOverdue(ctx context.Context, filters OverdueFilters) (int64, error) {
	query := countOverdueQuery
	args := []any{}
	argPos := 1

	if filters.StartedAfter != nil {
		query += fmt.Sprintf(` AND started_at > $%d`, argPos)
		args = append(args, *filters.StartedAfter)
		argPos++
	}
	if filters.DueBefore != nil {
		query += fmt.Sprintf(` AND due_date < $%d`, argPos)
		args = append(args, *filters.DueBefore)
		argPos++
	}
	if filters.Sector != nil {
		query += fmt.Sprintf(` AND sector = $%d`, argPos)
		args = append(args, *filters.Sector)
	}

	var count int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count overdue tasks: %w", err)
	}
	return count, nil
}

// Create creates an ad hoc task on a service order. When an assignee is
// given the task inherits that user's role as a denormalized convenience.
// The insert holds the order row lock: FINALIZADO is terminal, so a new task
// may never land on a finalized order, and an insert must not interleave with
// a cascade's in-lock re-read.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Task, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Task{}, fmt.Errorf("begin create: %w", err)
	}
	defer tx.Rollback(ctx)

	var lockedID, creatorID uuid.UUID
	var code, status string
	err = tx.QueryRow(ctx, lockOrderQuery, params.ServiceOrderID).
		Scan(&lockedID, &code, &creatorID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, apperr.NotFound(orderNotFoundMessage)
		}
		return Task{}, fmt.Errorf("lock order for create: %w", err)
	}
	if orderdomain.IsTerminal(status) {
		return Task{}, apperr.Conflict(orderFinalizedMessage)
	}

	var roleID *uuid.UUID
	if params.AssignedUserID != nil {
		rid, err := userRoleID(ctx, tx, *params.AssignedUserID)
		if err != nil {
			return Task{}, err
		}
		roleID = &rid
	}

	var id uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO tasks (title, sector, stage, role_id, service_order_id,
		                   assigned_user_id, due_date, task_cost_cents, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		params.Title, params.Sector, params.Stage, roleID, params.ServiceOrderID,
		params.AssignedUserID, params.DueDate, params.TaskCostCents, params.Address,
	).Scan(&id)
	if err != nil {
		return Task{}, fmt.Errorf("create task: %w", err)
	}

	task, err := getTask(ctx, tx, id)
	if err != nil {
		return Task{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Task{}, fmt.Errorf("commit create: %w", err)
	}
	return task, nil
}

// InstantiateFromTemplate clones every template task onto the order in
// template insertion order, inside one transaction. Partial expansion is
// never observable: any failure rolls the whole batch back. The order lock
// also keeps the expansion serialized against a concurrent cascade.
func (r *Repo) InstantiateFromTemplate(ctx context.Context, orderID, templateID uuid.UUID) ([]Task, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin instantiate: %w", err)
	}
	defer tx.Rollback(ctx)

	var lockedID uuid.UUID
	var code, status string
	var creatorID uuid.UUID
	err = tx.QueryRow(ctx, lockOrderQuery, orderID).Scan(&lockedID, &code, &creatorID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(orderNotFoundMessage)
		}
		return nil, fmt.Errorf("lock order for instantiate: %w", err)
	}
	if orderdomain.IsTerminal(status) {
		return nil, apperr.Conflict(orderFinalizedMessage)
	}

	rows, err := tx.Query(ctx, `
		SELECT title, sector, stage, role_id, task_cost_cents, address
		FROM tasks
		WHERE process_id = $1
		ORDER BY seq ASC`, templateID)
	if err != nil {
		return nil, fmt.Errorf("load template tasks: %w", err)
	}

	type stamp struct {
		title, sector, stage string
		roleID               *uuid.UUID
		costCents            *int64
		address              *string
	}
	stamps := []stamp{}
	for rows.Next() {
		var s stamp
		if err := rows.Scan(&s.title, &s.sector, &s.stage, &s.roleID, &s.costCents, &s.address); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan template task: %w", err)
		}
		stamps = append(stamps, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate template tasks: %w", err)
	}

	if len(stamps) == 0 {
		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM process_templates WHERE id = $1)`, templateID).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("check template exists: %w", err)
		}
		if !exists {
			return nil, apperr.NotFound(templateNotFoundMessage)
		}
	}

	ids := make([]uuid.UUID, 0, len(stamps))
	for _, s := range stamps {
		var id uuid.UUID
		err := tx.QueryRow(ctx, `
			INSERT INTO tasks (title, sector, stage, role_id, service_order_id, task_cost_cents, address)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			s.title, s.sector, s.stage, s.roleID, orderID, s.costCents, s.address,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("clone template task: %w", err)
		}
		ids = append(ids, id)
	}

	tasks := make([]Task, 0, len(ids))
	for _, id := range ids {
		task, err := getTask(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit instantiate: %w", err)
	}
	return tasks, nil
}

// Assign assigns a task to a user, inheriting the user's role.
func (r *Repo) Assign(ctx context.Context, taskID, userID uuid.UUID) (Task, error) {
	roleID, err := userRoleID(ctx, r.pool, userID)
	if err != nil {
		return Task{}, err
	}

	result, err := r.pool.Exec(ctx, `
		UPDATE tasks SET assigned_user_id = $2, role_id = $3
		WHERE id = $1 AND service_order_id IS NOT NULL`,
		taskID, userID, roleID)
	if err != nil {
		return Task{}, fmt.Errorf("assign task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return Task{}, r.missingOrTemplate(ctx, taskID)
	}
	return getTask(ctx, r.pool, taskID)
}

// Unassign clears a task's assignee; the inherited role stays.
func (r *Repo) Unassign(ctx context.Context, taskID uuid.UUID) (Task, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE tasks SET assigned_user_id = NULL
		WHERE id = $1 AND service_order_id IS NOT NULL`, taskID)
	if err != nil {
		return Task{}, fmt.Errorf("unassign task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return Task{}, r.missingOrTemplate(ctx, taskID)
	}
	return getTask(ctx, r.pool, taskID)
}

// Start stamps started_at once. A repeated start is a silent no-op that
// keeps the original timestamp.
func (r *Repo) Start(ctx context.Context, taskID uuid.UUID) (Task, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE tasks SET started_at = now()
		WHERE id = $1 AND started_at IS NULL AND service_order_id IS NOT NULL`, taskID)
	if err != nil {
		return Task{}, fmt.Errorf("start task: %w", err)
	}
	if result.RowsAffected() == 0 {
		task, err := getTask(ctx, r.pool, taskID)
		if err != nil {
			return Task{}, err
		}
		if task.ServiceOrderID == nil {
			return Task{}, apperr.Conflict(templateTaskMessage)
		}
		return task, nil
	}
	return getTask(ctx, r.pool, taskID)
}

// CompleteCascade completes a task and runs the sector cascade as one
// serializable unit: lock the owning order row, stamp the task, re-read all
// sibling tasks inside the lock, evaluate, append the sector log (unique
// constraint as backstop), and finalize the order when everything is done.
// Any failure rolls the entire unit back.
func (r *Repo) CompleteCascade(ctx context.Context, taskID uuid.UUID) (CascadeResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return CascadeResult{}, fmt.Errorf("begin complete: %w", err)
	}
	defer tx.Rollback(ctx)

	// Locate the owner first; the authoritative task state is re-read after
	// the lock is held.
	orderID, sector, err := taskOwner(ctx, tx, taskID)
	if err != nil {
		return CascadeResult{}, err
	}

	result := CascadeResult{Sector: sector}
	var status string
	err = tx.QueryRow(ctx, lockOrderQuery, orderID).
		Scan(&result.OrderID, &result.OrderCode, &result.OrderCreatorID, &status)
	if err != nil {
		return CascadeResult{}, fmt.Errorf("lock order for complete: %w", err)
	}

	tag, err := tx.Exec(ctx, completeTaskQuery, taskID)
	if err != nil {
		return CascadeResult{}, fmt.Errorf("complete task: %w", err)
	}
	result.AlreadyDone = tag.RowsAffected() == 0

	states, err := orderTaskStates(ctx, tx, orderID)
	if err != nil {
		return CascadeResult{}, err
	}
	eval := domain.EvaluateSector(states, sector)

	if eval.SectorComplete {
		tag, err := tx.Exec(ctx, insertSectorLogQuery, orderID, sector)
		if err != nil {
			return CascadeResult{}, fmt.Errorf("append sector log: %w", err)
		}
		result.SectorLogged = tag.RowsAffected() > 0
	}
	if eval.OrderComplete {
		tag, err := tx.Exec(ctx, finalizeOrderQuery, orderID, orderdomain.StatusFinalizado)
		if err != nil {
			return CascadeResult{}, fmt.Errorf("finalize order: %w", err)
		}
		result.OrderFinalized = tag.RowsAffected() > 0
	}

	task, err := getTask(ctx, tx, taskID)
	if err != nil {
		return CascadeResult{}, err
	}
	result.Task = task

	if err := tx.Commit(ctx); err != nil {
		return CascadeResult{}, fmt.Errorf("commit complete: %w", err)
	}
	return result, nil
}

// Uncomplete clears a task's completion. Once the task's sector is already
// logged, or the order has reached FINALIZADO, the audit trail would be
// falsified, so the call fails with Conflict. The checks run under the same
// order lock the cascade takes.
func (r *Repo) Uncomplete(ctx context.Context, taskID uuid.UUID) (Task, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Task{}, fmt.Errorf("begin uncomplete: %w", err)
	}
	defer tx.Rollback(ctx)

	orderID, sector, err := taskOwner(ctx, tx, taskID)
	if err != nil {
		return Task{}, err
	}

	var lockedID, creatorID uuid.UUID
	var code, status string
	err = tx.QueryRow(ctx, lockOrderQuery, orderID).Scan(&lockedID, &code, &creatorID, &status)
	if err != nil {
		return Task{}, fmt.Errorf("lock order for uncomplete: %w", err)
	}
	if orderdomain.IsTerminal(status) {
		return Task{}, apperr.Conflict(orderFinalizedMessage)
	}

	logged, err := sectorLogged(ctx, tx, orderID, sector)
	if err != nil {
		return Task{}, err
	}
	if logged {
		return Task{}, apperr.Conflict("sector already logged as complete")
	}

	if _, err := tx.Exec(ctx,
		`UPDATE tasks SET completed_at = NULL WHERE id = $1`, taskID); err != nil {
		return Task{}, fmt.Errorf("uncomplete task: %w", err)
	}

	task, err := getTask(ctx, tx, taskID)
	if err != nil {
		return Task{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Task{}, fmt.Errorf("commit uncomplete: %w", err)
	}
	return task, nil
}

// UpdateDueDate sets or clears a task's due date.
func (r *Repo) UpdateDueDate(ctx context.Context, taskID uuid.UUID, dueDate *time.Time) (Task, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE tasks SET due_date = $2
		WHERE id = $1 AND service_order_id IS NOT NULL`, taskID, dueDate)
	if err != nil {
		return Task{}, fmt.Errorf("update task due date: %w", err)
	}
	if result.RowsAffected() == 0 {
		return Task{}, r.missingOrTemplate(ctx, taskID)
	}
	return getTask(ctx, r.pool, taskID)
}

// AddCost sets a task's cost.
func (r *Repo) AddCost(ctx context.Context, taskID uuid.UUID, costCents int64) (Task, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE tasks SET task_cost_cents = $2
		WHERE id = $1 AND service_order_id IS NOT NULL`, taskID, costCents)
	if err != nil {
		return Task{}, fmt.Errorf("update task cost: %w", err)
	}
	if result.RowsAffected() == 0 {
		return Task{}, r.missingOrTemplate(ctx, taskID)
	}
	return getTask(ctx, r.pool, taskID)
}

// Remove hard-deletes a task. A completed task whose sector is already in
// the audit log stays: deleting it would falsify the trail. Removing the last
// open task of a sector completes that sector, so the deletion re-runs the
// same evaluation the completion cascade does, inside the same order lock:
// append the sector log and finalize the order when everything left is done.
func (r *Repo) Remove(ctx context.Context, taskID uuid.UUID) (RemoveResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return RemoveResult{}, fmt.Errorf("begin remove: %w", err)
	}
	defer tx.Rollback(ctx)

	orderID, sector, err := taskOwner(ctx, tx, taskID)
	if err != nil {
		return RemoveResult{}, err
	}

	result := RemoveResult{Sector: sector}
	var status string
	err = tx.QueryRow(ctx, lockOrderQuery, orderID).
		Scan(&result.OrderID, &result.OrderCode, &result.OrderCreatorID, &status)
	if err != nil {
		return RemoveResult{}, fmt.Errorf("lock order for remove: %w", err)
	}

	var completed bool
	err = tx.QueryRow(ctx,
		`SELECT completed_at IS NOT NULL FROM tasks WHERE id = $1`, taskID).Scan(&completed)
	if err != nil {
		return RemoveResult{}, fmt.Errorf("read task for remove: %w", err)
	}
	if completed {
		logged, err := sectorLogged(ctx, tx, orderID, sector)
		if err != nil {
			return RemoveResult{}, err
		}
		if logged {
			return RemoveResult{}, apperr.Conflict("completed task in a logged sector cannot be removed")
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, taskID); err != nil {
		return RemoveResult{}, fmt.Errorf("remove task: %w", err)
	}

	states, err := orderTaskStates(ctx, tx, orderID)
	if err != nil {
		return RemoveResult{}, err
	}
	eval := domain.EvaluateSector(states, sector)

	if eval.SectorComplete {
		tag, err := tx.Exec(ctx, insertSectorLogQuery, orderID, sector)
		if err != nil {
			return RemoveResult{}, fmt.Errorf("append sector log: %w", err)
		}
		result.SectorLogged = tag.RowsAffected() > 0
	}
	if eval.OrderComplete {
		tag, err := tx.Exec(ctx, finalizeOrderQuery, orderID, orderdomain.StatusFinalizado)
		if err != nil {
			return RemoveResult{}, fmt.Errorf("finalize order: %w", err)
		}
		result.OrderFinalized = tag.RowsAffected() > 0
	}

	if err := tx.Commit(ctx); err != nil {
		return RemoveResult{}, fmt.Errorf("commit remove: %w", err)
	}
	return result, nil
}

// taskOwner resolves a task to its owning service order, rejecting template
// tasks.
func taskOwner(ctx context.Context, q querier, taskID uuid.UUID) (uuid.UUID, string, error) {
	var orderID *uuid.UUID
	var sector string
	err := q.QueryRow(ctx,
		`SELECT service_order_id, sector FROM tasks WHERE id = $1`, taskID,
	).Scan(&orderID, &sector)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, "", apperr.NotFound(taskNotFoundMessage)
		}
		return uuid.Nil, "", fmt.Errorf("resolve task owner: %w", err)
	}
	if orderID == nil {
		return uuid.Nil, "", apperr.Conflict(templateTaskMessage)
	}
	return *orderID, sector, nil
}

func orderTaskStates(ctx context.Context, q querier, orderID uuid.UUID) ([]domain.TaskState, error) {
	rows, err := q.Query(ctx, orderTaskStatesQuery, orderID)
	if err != nil {
		return nil, fmt.Errorf("read order task states: %w", err)
	}
	defer rows.Close()

	states := []domain.TaskState{}
	for rows.Next() {
		var state domain.TaskState
		if err := rows.Scan(&state.ID, &state.Sector, &state.Completed); err != nil {
			return nil, fmt.Errorf("scan task state: %w", err)
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task states: %w", err)
	}
	return states, nil
}

func sectorLogged(ctx context.Context, q querier, orderID uuid.UUID, sector string) (bool, error) {
	var logged bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM service_order_logs
			WHERE service_order_id = $1 AND action = $2
		)`, orderID, sector).Scan(&logged)
	if err != nil {
		return false, fmt.Errorf("check sector log: %w", err)
	}
	return logged, nil
}

func userRoleID(ctx context.Context, q querier, userID uuid.UUID) (uuid.UUID, error) {
	var roleID uuid.UUID
	err := q.QueryRow(ctx, `SELECT role_id FROM users WHERE id = $1`, userID).Scan(&roleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, apperr.NotFound(userNotFoundMessage)
		}
		return uuid.Nil, fmt.Errorf("resolve user role: %w", err)
	}
	return roleID, nil
}

func (r *Repo) missingOrTemplate(ctx context.Context, taskID uuid.UUID) error {
	_, _, err := taskOwner(ctx, r.pool, taskID)
	if err != nil {
		return err
	}
	return apperr.NotFound(taskNotFoundMessage)
}

func getTask(ctx context.Context, q querier, id uuid.UUID) (Task, error) {
	var task Task
	err := scanTask(q.QueryRow(ctx, taskSelect+` WHERE t.id = $1`, id), &task)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, apperr.NotFound(taskNotFoundMessage)
		}
		return Task{}, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

func scanTask(row pgx.Row, task *Task) error {
	return row.Scan(
		&task.ID, &task.Seq, &task.Title, &task.Sector, &task.Stage,
		&task.RoleID, &task.RoleName, &task.ServiceOrderID, &task.ProcessID,
		&task.AssignedUserID, &task.AssignedName,
		&task.StartedAt, &task.CompletedAt, &task.DueDate,
		&task.TaskCostCents, &task.Address, &task.CreatedAt)
}
