package domain

import "testing"

func TestCanTransitionForward(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{StatusPendente, StatusOperacional, true},
		{StatusOperacional, StatusFinalizado, true},
		{StatusPendente, StatusFinalizado, true},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCanTransitionNeverRegresses(t *testing.T) {
	cases := []struct {
		from, to string
	}{
		{StatusOperacional, StatusPendente},
		{StatusFinalizado, StatusOperacional},
		{StatusFinalizado, StatusPendente},
		{StatusPendente, StatusPendente},
		{StatusFinalizado, StatusFinalizado},
	}
	for _, tc := range cases {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("CanTransition(%s, %s) = true, want false", tc.from, tc.to)
		}
	}
}

func TestCanTransitionRejectsUnknownStatus(t *testing.T) {
	if CanTransition("CANCELADO", StatusFinalizado) {
		t.Error("transition from unknown status should be rejected")
	}
	if CanTransition(StatusPendente, "ARQUIVADO") {
		t.Error("transition to unknown status should be rejected")
	}
}

func TestIsTerminal(t *testing.T) {
	if !IsTerminal(StatusFinalizado) {
		t.Error("FINALIZADO should be terminal")
	}
	if IsTerminal(StatusPendente) || IsTerminal(StatusOperacional) {
		t.Error("non-final statuses should not be terminal")
	}
}
