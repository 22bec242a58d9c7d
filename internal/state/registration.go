// Package state defines the typed finite-state representations used by the
// bridge: account registration state, call state and name-lookup outcome.
package state

import "slices"

// Registration represents an account's registration state on the daemon.
type Registration string

const (
	RegUnregistered       Registration = "UNREGISTERED"
	RegTrying             Registration = "TRYING"
	RegRegistered         Registration = "REGISTERED"
	RegErrorGeneric       Registration = "ERROR_GENERIC"
	RegErrorAuth          Registration = "ERROR_AUTH"
	RegErrorNetwork       Registration = "ERROR_NETWORK"
	RegErrorHost          Registration = "ERROR_HOST"
	RegErrorService       Registration = "ERROR_SERVICE_UNAVAILABLE"
	RegErrorNeedMigration Registration = "ERROR_NEED_MIGRATION"
	RegInitializing       Registration = "INITIALIZING"
)

// registrationByWire maps the daemon's numeric registration codes, in the
// order the native enum declares them.
var registrationByWire = []Registration{
	RegUnregistered,
	RegTrying,
	RegRegistered,
	RegErrorGeneric,
	RegErrorAuth,
	RegErrorNetwork,
	RegErrorHost,
	RegErrorService,
	RegErrorNeedMigration,
	RegInitializing,
}

// RegistrationFromWire decodes a daemon numeric state. Returns false for
// values outside the declared enum.
func RegistrationFromWire(v int) (Registration, bool) {
	if v < 0 || v >= len(registrationByWire) {
		return "", false
	}
	return registrationByWire[v], true
}

// registrationErrors are the error sub-states reachable from TRYING.
var registrationErrors = []Registration{
	RegErrorGeneric,
	RegErrorAuth,
	RegErrorNetwork,
	RegErrorHost,
	RegErrorService,
	RegErrorNeedMigration,
}

// IsError reports whether r is one of the error sub-states.
func (r Registration) IsError() bool {
	return slices.Contains(registrationErrors, r)
}

// CanTransition reports whether moving from r to next is a legal
// registration transition. Any state may return to TRYING (re-registration),
// error sub-states are reachable from TRYING only, and INITIALIZING is a
// pre-state before the first attempt.
func (r Registration) CanTransition(next Registration) bool {
	if r == next {
		return false
	}
	switch next {
	case RegTrying:
		return true
	case RegRegistered:
		return r == RegTrying
	case RegUnregistered:
		// Deactivation can happen from any state.
		return true
	case RegInitializing:
		return false
	default: // error sub-states
		return r == RegTrying
	}
}
