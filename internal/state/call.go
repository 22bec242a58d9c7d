package state

import "slices"

// Call represents a call's lifecycle state.
type Call string

const (
	CallInactive   Call = "INACTIVE"
	CallIncoming   Call = "INCOMING"
	CallConnecting Call = "CONNECTING"
	CallRinging    Call = "RINGING"
	CallCurrent    Call = "CURRENT"
	CallHungup     Call = "HUNGUP"
	CallBusy       Call = "BUSY"
	CallFailure    Call = "FAILURE"
	CallHold       Call = "HOLD"
	CallUnhold     Call = "UNHOLD"
	CallOver       Call = "OVER"
)

// callByWire maps the daemon's numeric call state codes, in native enum order.
var callByWire = []Call{
	CallInactive,
	CallIncoming,
	CallConnecting,
	CallRinging,
	CallCurrent,
	CallHungup,
	CallBusy,
	CallFailure,
	CallHold,
	CallUnhold,
	CallOver,
}

// CallFromWire decodes a daemon numeric call state. Returns false for values
// outside the declared enum.
func CallFromWire(v int) (Call, bool) {
	if v < 0 || v >= len(callByWire) {
		return "", false
	}
	return callByWire[v], true
}

// terminal states accept no further transitions.
var callTerminal = []Call{CallHungup, CallBusy, CallFailure, CallOver}

// Terminal reports whether c is a terminal call state.
func (c Call) Terminal() bool {
	return slices.Contains(callTerminal, c)
}

// validCallTransitions defines the legal call state graph.
var validCallTransitions = map[Call][]Call{
	CallInactive:   {CallIncoming, CallConnecting},
	CallIncoming:   {CallRinging, CallCurrent, CallHungup, CallBusy, CallFailure, CallOver},
	CallConnecting: {CallRinging, CallCurrent, CallHungup, CallBusy, CallFailure, CallOver},
	CallRinging:    {CallCurrent, CallHungup, CallBusy, CallFailure, CallOver},
	CallCurrent:    {CallHold, CallHungup, CallBusy, CallFailure, CallOver},
	CallHold:       {CallUnhold, CallHungup, CallFailure, CallOver},
	CallUnhold:     {CallCurrent, CallHold, CallHungup, CallFailure, CallOver},
	CallHungup:     nil,
	CallBusy:       nil,
	CallFailure:    nil,
	CallOver:       nil,
}

// CanTransition reports whether moving from c to next is legal. Terminal
// states accept nothing.
func (c Call) CanTransition(next Call) bool {
	return slices.Contains(validCallTransitions[c], next)
}
