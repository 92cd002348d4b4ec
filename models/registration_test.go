package models

import "testing"

func TestRegistrationStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to RegistrationStatus
		want     bool
	}{
		{RegistrationPending, RegistrationApproved, true},
		{RegistrationPending, RegistrationDenied, true},
		{RegistrationPending, RegistrationPending, false},
		{RegistrationApproved, RegistrationDenied, false},
		{RegistrationApproved, RegistrationPending, false},
		{RegistrationApproved, RegistrationApproved, false},
		{RegistrationDenied, RegistrationApproved, false},
		{RegistrationDenied, RegistrationPending, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
