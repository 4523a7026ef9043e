package domain

import (
	"testing"

	"github.com/google/uuid"
)

func task(sector string, completed bool) TaskState {
	return TaskState{ID: uuid.New(), Sector: sector, Completed: completed}
}

func TestEvaluateSectorEmptyOrderIsNeverComplete(t *testing.T) {
	eval := EvaluateSector(nil, "operations")
	if eval.SectorComplete || eval.OrderComplete {
		t.Errorf("empty order must never be complete, got %+v", eval)
	}
}

func TestEvaluateSectorUnknownSectorIsNotComplete(t *testing.T) {
	tasks := []TaskState{task("operations", true)}
	eval := EvaluateSector(tasks, "finance")
	if eval.SectorComplete {
		t.Error("sector with no tasks must not be complete")
	}
	if !eval.OrderComplete {
		t.Error("order with all tasks complete must be complete")
	}
}

func TestEvaluateSectorPartialSector(t *testing.T) {
	tasks := []TaskState{
		task("operations", true),
		task("operations", false),
	}
	eval := EvaluateSector(tasks, "operations")
	if eval.SectorComplete {
		t.Error("sector with an open task must not be complete")
	}
	if eval.OrderComplete {
		t.Error("order with an open task must not be complete")
	}
}

func TestEvaluateSectorCompleteSectorOpenOrder(t *testing.T) {
	tasks := []TaskState{
		task("operations", true),
		task("operations", true),
		task("finance", false),
	}
	eval := EvaluateSector(tasks, "operations")
	if !eval.SectorComplete {
		t.Error("sector with all tasks complete must be complete")
	}
	if eval.OrderComplete {
		t.Error("order must stay open while another sector has open tasks")
	}
}

// Delivery scenario: two tasks in sector A, one in sector B. Closing sector A
// completes only A; closing B then completes the whole order.
func TestEvaluateSectorDeliveryScenario(t *testing.T) {
	a1 := task("A", false)
	a2 := task("A", false)
	b1 := task("B", false)

	step1 := EvaluateSector([]TaskState{{a1.ID, "A", true}, a2, b1}, "A")
	if step1.SectorComplete || step1.OrderComplete {
		t.Errorf("one of two sector-A tasks complete: got %+v", step1)
	}

	step2 := EvaluateSector([]TaskState{{a1.ID, "A", true}, {a2.ID, "A", true}, b1}, "A")
	if !step2.SectorComplete {
		t.Error("both sector-A tasks complete: sector must be complete")
	}
	if step2.OrderComplete {
		t.Error("sector B still open: order must not be complete")
	}

	step3 := EvaluateSector([]TaskState{{a1.ID, "A", true}, {a2.ID, "A", true}, {b1.ID, "B", true}}, "B")
	if !step3.SectorComplete || !step3.OrderComplete {
		t.Errorf("all tasks complete: got %+v", step3)
	}
}
