package repository

import (
	"strings"
	"testing"
)

// The cascade's correctness rests on these query shapes; guard them against
// accidental edits.

func TestLockOrderQueryTakesRowLock(t *testing.T) {
	if !strings.Contains(lockOrderQuery, "FOR UPDATE") {
		t.Error("order lock query must take a row lock")
	}
}

func TestSectorLogInsertHasUniquenessBackstop(t *testing.T) {
	if !strings.Contains(insertSectorLogQuery, "ON CONFLICT (service_order_id, action) DO NOTHING") {
		t.Error("sector log insert must rely on the unique constraint backstop")
	}
}

func TestCompleteTaskBackfillsStart(t *testing.T) {
	if !strings.Contains(completeTaskQuery, "started_at = COALESCE(started_at, now())") {
		t.Error("completing must backfill started_at atomically")
	}
	if !strings.Contains(completeTaskQuery, "completed_at IS NULL") {
		t.Error("completing must be idempotent on already-completed tasks")
	}
}

func TestFinalizeOrderIsIdempotent(t *testing.T) {
	if !strings.Contains(finalizeOrderQuery, "status <> $2") {
		t.Error("finalize must be a no-op when the order is already final")
	}
}

func TestCountOverdueExcludesTemplateTasks(t *testing.T) {
	if !strings.Contains(countOverdueQuery, "process_id IS NULL") {
		t.Error("overdue count must exclude template tasks")
	}
	if !strings.Contains(countOverdueQuery, "completed_at > due_date") {
		t.Error("overdue means finished after the due date")
	}
}
