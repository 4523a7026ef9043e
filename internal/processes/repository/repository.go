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

const (
	templateNotFoundMessage = "process template not found"
	roleNotFoundMessage     = "role not found"
)

const foreignKeyViolation = "23503"

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new process templates repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// templateTasksQuery loads a template's tasks in creation sequence. The seq
// ordering is the contract consumers rely on for expansion order.
const templateTasksQuery = `
	SELECT t.id, t.seq, t.title, t.sector, t.stage, t.role_id, r.name, t.task_cost_cents, t.address
	FROM tasks t
	JOIN roles r ON r.id = t.role_id
	WHERE t.process_id = $1
	ORDER BY t.seq ASC`

// GetByID retrieves a template with its tasks in insertion order.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (ProcessTemplate, error) {
	var tmpl ProcessTemplate
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, created_at FROM process_templates WHERE id = $1`, id,
	).Scan(&tmpl.ID, &tmpl.Title, &tmpl.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProcessTemplate{}, apperr.NotFound(templateNotFoundMessage)
		}
		return ProcessTemplate{}, fmt.Errorf("get template by id: %w", err)
	}

	tasks, err := r.loadTasks(ctx, id)
	if err != nil {
		return ProcessTemplate{}, err
	}
	tmpl.Tasks = tasks

	return tmpl, nil
}

// List retrieves all templates with their tasks.
func (r *Repo) List(ctx context.Context) ([]ProcessTemplate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, created_at FROM process_templates ORDER BY title ASC`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var results []ProcessTemplate
	for rows.Next() {
		var tmpl ProcessTemplate
		if err := rows.Scan(&tmpl.ID, &tmpl.Title, &tmpl.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		results = append(results, tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}

	for i := range results {
		tasks, err := r.loadTasks(ctx, results[i].ID)
		if err != nil {
			return nil, err
		}
		results[i].Tasks = tasks
	}

	return results, nil
}

// Exists checks if a template exists by ID.
func (r *Repo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM process_templates WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check template exists: %w", err)
	}
	return exists, nil
}

// Create creates a new template with an empty task list.
func (r *Repo) Create(ctx context.Context, title string) (ProcessTemplate, error) {
	var tmpl ProcessTemplate
	err := r.pool.QueryRow(ctx,
		`INSERT INTO process_templates (title) VALUES ($1) RETURNING id, title, created_at`,
		title,
	).Scan(&tmpl.ID, &tmpl.Title, &tmpl.CreatedAt)
	if err != nil {
		return ProcessTemplate{}, fmt.Errorf("create template: %w", err)
	}

	tmpl.Tasks = []TemplateTask{}
	return tmpl, nil
}

// AddTask appends a template task. Template tasks live in the tasks table
// with process_id set and service_order_id null.
func (r *Repo) AddTask(ctx context.Context, params AddTaskParams) (TemplateTask, error) {
	exists, err := r.Exists(ctx, params.TemplateID)
	if err != nil {
		return TemplateTask{}, err
	}
	if !exists {
		return TemplateTask{}, apperr.NotFound(templateNotFoundMessage)
	}

	query := `
		INSERT INTO tasks (title, sector, stage, role_id, process_id, task_cost_cents, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, seq`

	var task TemplateTask
	err = r.pool.QueryRow(ctx, query,
		params.Title, params.Sector, params.Stage, params.RoleID, params.TemplateID,
		params.TaskCostCents, params.Address,
	).Scan(&task.ID, &task.Seq)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return TemplateTask{}, apperr.NotFound(roleNotFoundMessage)
		}
		return TemplateTask{}, fmt.Errorf("add template task: %w", err)
	}

	task.Title = params.Title
	task.Sector = params.Sector
	task.Stage = params.Stage
	task.RoleID = params.RoleID
	task.TaskCostCents = params.TaskCostCents
	task.Address = params.Address

	return task, nil
}

// Delete removes a template; its template tasks go with it (owned rows).
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM process_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(templateNotFoundMessage)
	}
	return nil
}

func (r *Repo) loadTasks(ctx context.Context, templateID uuid.UUID) ([]TemplateTask, error) {
	rows, err := r.pool.Query(ctx, templateTasksQuery, templateID)
	if err != nil {
		return nil, fmt.Errorf("load template tasks: %w", err)
	}
	defer rows.Close()

	tasks := []TemplateTask{}
	for rows.Next() {
		var task TemplateTask
		if err := rows.Scan(
			&task.ID, &task.Seq, &task.Title, &task.Sector, &task.Stage,
			&task.RoleID, &task.RoleName, &task.TaskCostCents, &task.Address,
		); err != nil {
			return nil, fmt.Errorf("scan template task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate template tasks: %w", err)
	}

	return tasks, nil
}
