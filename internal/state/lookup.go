package state

// Lookup is the outcome of a single name or address lookup. It is a value,
// not a persistent machine.
type Lookup string

const (
	LookupSuccess  Lookup = "SUCCESS"
	LookupNotFound Lookup = "NOT_FOUND"
	LookupInvalid  Lookup = "INVALID"
	LookupError    Lookup = "ERROR"
)

var lookupByWire = []Lookup{
	LookupSuccess,
	LookupNotFound,
	LookupInvalid,
	LookupError,
}

// LookupFromWire decodes a daemon numeric lookup state. Values outside the
// declared enum map to ERROR.
func LookupFromWire(v int) Lookup {
	if v < 0 || v >= len(lookupByWire) {
		return LookupError
	}
	return lookupByWire[v]
}
