package repository

import (
	"strings"
	"testing"
)

// The counter claim must be a single atomic upsert; two concurrent creates
// in the same year must never read the same number.
func TestNextOrderNumberIsAtomicUpsert(t *testing.T) {
	if !strings.Contains(nextOrderNumber, "ON CONFLICT (year) DO UPDATE") {
		t.Error("order number query must upsert the counter row")
	}
	if !strings.Contains(nextOrderNumber, "RETURNING last_number") {
		t.Error("order number query must return the claimed number")
	}
}

func TestOrderSelectJoinsDisplayNames(t *testing.T) {
	for _, join := range []string{"JOIN users u", "JOIN clients c"} {
		if !strings.Contains(orderSelect, join) {
			t.Errorf("order select must contain %q", join)
		}
	}
}
