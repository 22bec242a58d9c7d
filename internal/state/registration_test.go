package state

import "testing"

func TestRegistrationFromWire(t *testing.T) {
	tests := []struct {
		wire int
		want Registration
	}{
		{0, RegUnregistered},
		{1, RegTrying},
		{2, RegRegistered},
		{3, RegErrorGeneric},
		{4, RegErrorAuth},
		{5, RegErrorNetwork},
		{6, RegErrorHost},
		{7, RegErrorService},
		{8, RegErrorNeedMigration},
		{9, RegInitializing},
	}
	for _, tt := range tests {
		got, ok := RegistrationFromWire(tt.wire)
		if !ok {
			t.Errorf("RegistrationFromWire(%d) not ok", tt.wire)
		}
		if got != tt.want {
			t.Errorf("RegistrationFromWire(%d) = %s, want %s", tt.wire, got, tt.want)
		}
	}
}

func TestRegistrationFromWireOutOfRange(t *testing.T) {
	for _, wire := range []int{-1, 10, 99} {
		if _, ok := RegistrationFromWire(wire); ok {
			t.Errorf("RegistrationFromWire(%d) should not decode", wire)
		}
	}
}

func TestRegistrationTransitions(t *testing.T) {
	tests := []struct {
		from Registration
		to   Registration
		want bool
	}{
		{RegInitializing, RegTrying, true},
		{RegTrying, RegRegistered, true},
		{RegTrying, RegErrorNetwork, true},
		{RegTrying, RegErrorAuth, true},
		{RegRegistered, RegTrying, true},
		{RegRegistered, RegUnregistered, true},
		{RegErrorNetwork, RegTrying, true},
		{RegUnregistered, RegTrying, true},
		// Registered is only reachable through a registration attempt.
		{RegUnregistered, RegRegistered, false},
		{RegInitializing, RegRegistered, false},
		// Errors only surface while trying.
		{RegRegistered, RegErrorNetwork, false},
		{RegUnregistered, RegErrorGeneric, false},
		// Initializing is never re-entered.
		{RegRegistered, RegInitializing, false},
		{RegUnregistered, RegInitializing, false},
		// Self loops are not transitions.
		{RegRegistered, RegRegistered, false},
		{RegTrying, RegTrying, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestRegistrationIsError(t *testing.T) {
	errs := []Registration{
		RegErrorGeneric, RegErrorAuth, RegErrorNetwork,
		RegErrorHost, RegErrorService, RegErrorNeedMigration,
	}
	for _, r := range errs {
		if !r.IsError() {
			t.Errorf("%s.IsError() = false, want true", r)
		}
	}
	for _, r := range []Registration{RegUnregistered, RegTrying, RegRegistered, RegInitializing} {
		if r.IsError() {
			t.Errorf("%s.IsError() = true, want false", r)
		}
	}
}
