// Package domain holds the pure completion-aggregation rules for tasks. The
// functions here take snapshots and return decisions; all locking and I/O is
// the repository's responsibility.
package domain

import "github.com/google/uuid"

// TaskState is the minimal task snapshot the aggregator needs. The caller
// must build it from task rows re-read inside the order lock, never from
// state captured before acquiring it.
type TaskState struct {
	ID        uuid.UUID
	Sector    string
	Completed bool
}

// SectorEvaluation is the aggregator's decision for one completed task.
type SectorEvaluation struct {
	// SectorComplete is true when the order has at least one task in the
	// sector and every one of them is complete.
	SectorComplete bool
	// OrderComplete is true when the order has at least one task and every
	// task, regardless of sector, is complete.
	OrderComplete bool
}

// EvaluateSector decides sector and order completeness from a snapshot of all
// tasks belonging to one service order. An order with zero tasks is never
// complete: that guards against finalizing an order whose tasks have not been
// instantiated yet.
func EvaluateSector(tasks []TaskState, sector string) SectorEvaluation {
	if len(tasks) == 0 {
		return SectorEvaluation{}
	}

	sectorSeen := false
	sectorComplete := true
	orderComplete := true

	for _, task := range tasks {
		if !task.Completed {
			orderComplete = false
		}
		if task.Sector == sector {
			sectorSeen = true
			if !task.Completed {
				sectorComplete = false
			}
		}
	}

	return SectorEvaluation{
		SectorComplete: sectorSeen && sectorComplete,
		OrderComplete:  orderComplete,
	}
}
