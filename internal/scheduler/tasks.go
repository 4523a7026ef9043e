// Package scheduler provides the Redis-backed background jobs: the periodic
// overdue-task scan that reminds assignees by email. Nothing here touches the
// workflow invariants; the scan is a pure read side effect.
package scheduler

import "github.com/hibiken/asynq"

// TypeOverdueScan identifies the overdue reminder scan job.
const TypeOverdueScan = "tasks:overdue_scan"

// NewOverdueScanTask creates the scan job. It carries no payload; the scan
// always looks at the current state.
func NewOverdueScanTask() *asynq.Task {
	return asynq.NewTask(TypeOverdueScan, nil)
}
