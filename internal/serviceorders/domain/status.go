// Package domain holds the pure service-order status rules. No I/O lives
// here; repositories and services call into it.
package domain

// Service order statuses. The lifecycle is strictly forward:
// PENDENTE -> OPERACIONAL -> FINALIZADO, with PENDENTE -> FINALIZADO allowed
// directly (small orders finalize without an operational phase).
const (
	StatusPendente    = "PENDENTE"
	StatusOperacional = "OPERACIONAL"
	StatusFinalizado  = "FINALIZADO"
)

// statusRank orders statuses along the lifecycle. Unknown statuses rank -1
// and never participate in a valid transition.
func statusRank(status string) int {
	switch status {
	case StatusPendente:
		return 0
	case StatusOperacional:
		return 1
	case StatusFinalizado:
		return 2
	default:
		return -1
	}
}

// CanTransition reports whether moving from one status to another is allowed.
// Only strictly forward moves are valid; FINALIZADO is terminal.
func CanTransition(from, to string) bool {
	fromRank := statusRank(from)
	toRank := statusRank(to)
	if fromRank < 0 || toRank < 0 {
		return false
	}
	return toRank > fromRank
}

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(status string) bool {
	return status == StatusFinalizado
}
