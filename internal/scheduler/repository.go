package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OverdueTask is one open, assigned task past its due date.
type OverdueTask struct {
	TaskID    uuid.UUID
	Title     string
	Sector    string
	OrderCode string
	DueDate   time.Time
	UserID    uuid.UUID
	UserName  string
	UserEmail string
}

// Repo is the scheduler's read model over tasks and users.
type Repo struct {
	pool *pgxpool.Pool
}

// NewRepo creates the scheduler repository.
func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// listOverdueQuery selects open tasks past due with an assignee. Template
// task rows never match (they have no service order).
const listOverdueQuery = `
	SELECT t.id, t.title, t.sector, so.code, t.due_date, u.id, u.name, u.email
	FROM tasks t
	JOIN service_orders so ON so.id = t.service_order_id
	JOIN users u ON u.id = t.assigned_user_id
	WHERE t.process_id IS NULL
	  AND t.completed_at IS NULL
	  AND t.due_date IS NOT NULL
	  AND t.due_date < now()
	  AND u.active
	ORDER BY u.id, t.due_date ASC`

// ListOverdueOpen returns all open overdue tasks grouped by assignee order.
func (r *Repo) ListOverdueOpen(ctx context.Context) ([]OverdueTask, error) {
	rows, err := r.pool.Query(ctx, listOverdueQuery)
	if err != nil {
		return nil, fmt.Errorf("list overdue tasks: %w", err)
	}
	defer rows.Close()

	out := []OverdueTask{}
	for rows.Next() {
		var t OverdueTask
		if err := rows.Scan(&t.TaskID, &t.Title, &t.Sector, &t.OrderCode,
			&t.DueDate, &t.UserID, &t.UserName, &t.UserEmail); err != nil {
			return nil, fmt.Errorf("scan overdue task: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate overdue tasks: %w", err)
	}
	return out, nil
}
