package router

import (
	"testing"

	"github.com/leiter/jami-kmp/internal/daemon"
	"github.com/leiter/jami-kmp/internal/event"
	"github.com/leiter/jami-kmp/internal/model"
	"github.com/leiter/jami-kmp/internal/registry"
	"github.com/leiter/jami-kmp/internal/state"
	"go.uber.org/zap"
)

// recorder collects dispatched events.
type recorder struct {
	events []event.Event
}

func (r *recorder) OnEvent(e event.Event) {
	r.events = append(r.events, e)
}

func newTestRouter() (*Router, *registry.Registry, *recorder) {
	reg := registry.New()
	r := New(reg, zap.NewNop())
	rec := &recorder{}
	r.SetObserver(rec)
	return r, reg, rec
}

func (r *recorder) kinds() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind()
	}
	return out
}

func TestRegistrationSequence(t *testing.T) {
	r, reg, rec := newTestRouter()

	for _, wire := range []int{9, 1, 2} { // initializing, trying, registered
		r.Process(daemon.RegistrationStateChanged{AccountID: "a1", State: wire, Code: 200})
	}

	want := []state.Registration{state.RegInitializing, state.RegTrying, state.RegRegistered}
	if len(rec.events) != len(want) {
		t.Fatalf("got %d events, want %d", len(rec.events), len(want))
	}
	for i, e := range rec.events {
		got, ok := e.(event.RegistrationStateChanged)
		if !ok {
			t.Fatalf("event[%d] type = %T", i, e)
		}
		if got.State != want[i] {
			t.Errorf("event[%d].State = %s, want %s", i, got.State, want[i])
		}
	}
	a, ok := reg.Account("a1")
	if !ok {
		t.Fatal("account not cached")
	}
	if a.RegistrationState != state.RegRegistered {
		t.Errorf("registry state = %s, want REGISTERED", a.RegistrationState)
	}
}

func TestRegistrationUnknownCodeDropped(t *testing.T) {
	r, reg, rec := newTestRouter()
	r.Process(daemon.RegistrationStateChanged{AccountID: "a1", State: 42})
	if len(rec.events) != 0 {
		t.Errorf("events = %v, want none", rec.kinds())
	}
	if _, ok := reg.Account("a1"); ok {
		t.Error("malformed signal created an account entry")
	}
}

// TestRegistryUpdatedBeforeDispatch verifies an observer re-querying the
// registry from its callback sees the post-event state.
func TestRegistryUpdatedBeforeDispatch(t *testing.T) {
	reg := registry.New()
	r := New(reg, zap.NewNop())
	var observed state.Registration
	r.SetObserver(event.ObserverFunc(func(e event.Event) {
		if _, ok := e.(event.RegistrationStateChanged); ok {
			a, _ := reg.Account("a1")
			observed = a.RegistrationState
		}
	}))
	r.Process(daemon.RegistrationStateChanged{AccountID: "a1", State: 1})
	if observed != state.RegTrying {
		t.Errorf("observer saw registry state %s, want TRYING", observed)
	}
}

func TestSignalsDrainInOrder(t *testing.T) {
	r, _, rec := newTestRouter()
	ch := make(chan daemon.Signal, 8)
	ch <- daemon.RegistrationStateChanged{AccountID: "a1", State: 1}
	ch <- daemon.IncomingCall{AccountID: "a1", CallID: "c1", PeerID: "peer"}
	ch <- daemon.CallStateChanged{AccountID: "a1", CallID: "c1", State: 4}
	close(ch)

	r.Start(ch)
	r.Wait()

	want := []string{"account.registration_state", "call.incoming", "call.state"}
	got := rec.kinds()
	if len(got) != len(want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("kinds[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestTerminalCallAbsorbsLateSignals verifies a spurious state change after
// hangup is dropped and the registry keeps the terminal state.
func TestTerminalCallAbsorbsLateSignals(t *testing.T) {
	r, reg, rec := newTestRouter()
	r.Process(daemon.IncomingCall{AccountID: "a1", CallID: "c1", PeerID: "peer"})
	r.Process(daemon.CallStateChanged{AccountID: "a1", CallID: "c1", State: 4}) // current
	r.Process(daemon.CallStateChanged{AccountID: "a1", CallID: "c1", State: 5}) // hungup
	before := len(rec.events)

	r.Process(daemon.CallStateChanged{AccountID: "a1", CallID: "c1", State: 3}) // late ringing

	if len(rec.events) != before {
		t.Error("late signal after terminal state was dispatched")
	}
	c, _ := reg.Call("c1")
	if c.State != state.CallHungup {
		t.Errorf("registry state = %s, want HUNGUP", c.State)
	}
}

func TestIllegalCallTransitionDropped(t *testing.T) {
	r, reg, rec := newTestRouter()
	r.Process(daemon.IncomingCall{AccountID: "a1", CallID: "c1"})
	before := len(rec.events)
	// INCOMING -> HOLD is not in the call graph.
	r.Process(daemon.CallStateChanged{AccountID: "a1", CallID: "c1", State: 8})
	if len(rec.events) != before {
		t.Error("illegal transition was dispatched")
	}
	c, _ := reg.Call("c1")
	if c.State != state.CallIncoming {
		t.Errorf("registry state = %s, want INCOMING", c.State)
	}
}

// TestPlacedCallStateOutrunsFacadeInsert verifies no outgoing-call
// transition is lost when the daemon's state signals are drained before
// the command result is cached: the router synthesizes the entry and the
// facade's later insert-if-absent leaves the router-applied state alone.
func TestPlacedCallStateOutrunsFacadeInsert(t *testing.T) {
	r, reg, rec := newTestRouter()
	r.Process(daemon.CallStateChanged{AccountID: "a1", CallID: "c1", State: 2}) // connecting
	r.Process(daemon.CallStateChanged{AccountID: "a1", CallID: "c1", State: 3}) // ringing

	if len(rec.events) != 2 {
		t.Fatalf("events = %v, want connecting and ringing", rec.kinds())
	}
	last, ok := rec.events[1].(event.CallStateChanged)
	if !ok || last.State != state.CallRinging {
		t.Fatalf("event[1] = %+v, want RINGING", rec.events[1])
	}

	// The facade caches the placed call only after PlaceCall returns.
	reg.EnsureCall(model.Call{ID: "c1", AccountID: "a1", State: state.CallConnecting})
	c, _ := reg.Call("c1")
	if c.State != state.CallRinging {
		t.Errorf("registry state = %s, want RINGING after facade insert", c.State)
	}

	r.Process(daemon.CallStateChanged{AccountID: "a1", CallID: "c1", State: 4}) // current
	c, _ = reg.Call("c1")
	if c.State != state.CallCurrent {
		t.Errorf("registry state = %s, want CURRENT", c.State)
	}
}

func TestMessageUpdateSynthesizesUnknownID(t *testing.T) {
	r, reg, rec := newTestRouter()
	r.Process(daemon.MessageUpdated{
		AccountID:      "a1",
		ConversationID: "conv1",
		Message:        daemon.SwarmMessage{ID: "m1", Status: map[string]int{"peer": 3}},
	})
	if len(rec.events) != 1 {
		t.Fatalf("events = %v, want one", rec.kinds())
	}
	m, ok := reg.Message("conv1", "m1")
	if !ok {
		t.Fatal("update did not synthesize the message")
	}
	if m.Status["peer"] != 3 {
		t.Errorf("status = %v", m.Status)
	}
}

func TestMessagesLoadedCarriesRequestID(t *testing.T) {
	r, reg, rec := newTestRouter()
	r.Process(daemon.MessagesLoaded{
		RequestID:      7,
		AccountID:      "a1",
		ConversationID: "conv1",
		Messages: []daemon.SwarmMessage{
			{ID: "m1", Body: map[string]string{"body": "one"}},
			{ID: ""}, // malformed entry is skipped, not fatal
			{ID: "m2", Body: map[string]string{"body": "two"}},
		},
	})
	if len(rec.events) != 1 {
		t.Fatalf("events = %v, want one", rec.kinds())
	}
	loaded, ok := rec.events[0].(event.MessagesLoaded)
	if !ok {
		t.Fatalf("event type = %T", rec.events[0])
	}
	if loaded.RequestID != 7 {
		t.Errorf("request id = %d, want 7", loaded.RequestID)
	}
	if len(loaded.Messages) != 2 {
		t.Errorf("messages = %d, want 2 (empty id skipped)", len(loaded.Messages))
	}
	if got := reg.Messages("conv1"); len(got) != 2 {
		t.Errorf("cached messages = %d, want 2", len(got))
	}
}

// TestInterleavedPageLoadsKeepRequestIDs verifies two outstanding history
// requests correlate by request id, not arrival order.
func TestInterleavedPageLoadsKeepRequestIDs(t *testing.T) {
	r, _, rec := newTestRouter()
	r.Process(daemon.MessagesLoaded{
		RequestID:      2,
		AccountID:      "a1",
		ConversationID: "conv1",
		Messages:       []daemon.SwarmMessage{{ID: "m2", Body: map[string]string{"body": "second page"}}},
	})
	r.Process(daemon.MessagesLoaded{
		RequestID:      1,
		AccountID:      "a1",
		ConversationID: "conv1",
		Messages:       []daemon.SwarmMessage{{ID: "m1", Body: map[string]string{"body": "first page"}}},
	})

	if len(rec.events) != 2 {
		t.Fatalf("events = %v, want two", rec.kinds())
	}
	wantIDs := []int{2, 1}
	wantMsgs := []string{"m2", "m1"}
	for i, e := range rec.events {
		loaded, ok := e.(event.MessagesLoaded)
		if !ok {
			t.Fatalf("event[%d] type = %T", i, e)
		}
		if loaded.RequestID != wantIDs[i] {
			t.Errorf("event[%d].RequestID = %d, want %d", i, loaded.RequestID, wantIDs[i])
		}
		if len(loaded.Messages) != 1 || loaded.Messages[0].ID != wantMsgs[i] {
			t.Errorf("event[%d] messages = %+v, want %s", i, loaded.Messages, wantMsgs[i])
		}
	}
}

func TestReactionRemovedWithoutMatchIsNoOp(t *testing.T) {
	r, _, rec := newTestRouter()
	r.Process(daemon.ReactionRemoved{
		AccountID:      "a1",
		ConversationID: "conv1",
		MessageID:      "m1",
		ReactionID:     "ghost",
	})
	if len(rec.events) != 0 {
		t.Errorf("events = %v, want none", rec.kinds())
	}
}

func TestConversationRemovedBlocksLateMessages(t *testing.T) {
	r, reg, rec := newTestRouter()
	r.Process(daemon.ConversationReady{AccountID: "a1", ConversationID: "conv1"})
	r.Process(daemon.ConversationRemoved{AccountID: "a1", ConversationID: "conv1"})
	before := len(rec.events)

	r.Process(daemon.MessageReceived{
		AccountID:      "a1",
		ConversationID: "conv1",
		Message:        daemon.SwarmMessage{ID: "m1"},
	})

	if len(rec.events) != before {
		t.Error("message for removed conversation was dispatched")
	}
	if _, ok := reg.Conversation("conv1"); ok {
		t.Error("removed conversation resurrected")
	}
}

func TestConversationReadyResolvesRequest(t *testing.T) {
	r, reg, _ := newTestRouter()
	r.Process(daemon.ConversationRequestReceived{
		AccountID:      "a1",
		ConversationID: "conv1",
		Metadata:       map[string]string{"from": "peer"},
	})
	if got := reg.ConversationRequests("a1"); len(got) != 1 || got[0].From != "peer" {
		t.Fatalf("requests = %v, want one from peer", got)
	}
	r.Process(daemon.ConversationReady{AccountID: "a1", ConversationID: "conv1"})
	if got := reg.ConversationRequests("a1"); len(got) != 0 {
		t.Errorf("requests = %v, want empty after ready", got)
	}
}

func TestContactBanKeepsEntry(t *testing.T) {
	r, reg, _ := newTestRouter()
	r.Process(daemon.ContactAdded{AccountID: "a1", URI: "peer", Confirmed: true})
	r.Process(daemon.ContactRemoved{AccountID: "a1", URI: "peer", Banned: true})
	c, ok := reg.Contact("a1", "peer")
	if !ok {
		t.Fatal("banned contact evicted")
	}
	if !c.Banned || c.Confirmed {
		t.Errorf("contact = %+v, want banned and not confirmed", c)
	}

	r.Process(daemon.ContactRemoved{AccountID: "a1", URI: "peer", Banned: false})
	if _, ok := reg.Contact("a1", "peer"); ok {
		t.Error("plain removal left the contact cached")
	}
}

func TestConfirmedContactResolvesTrustRequest(t *testing.T) {
	r, reg, _ := newTestRouter()
	r.Process(daemon.IncomingTrustRequest{AccountID: "a1", From: "peer", Received: 123})
	if got := reg.TrustRequests("a1"); len(got) != 1 {
		t.Fatalf("trust requests = %v, want one", got)
	}
	r.Process(daemon.ContactAdded{AccountID: "a1", URI: "peer", Confirmed: true})
	if got := reg.TrustRequests("a1"); len(got) != 0 {
		t.Errorf("trust requests = %v, want empty after confirm", got)
	}
}

func TestTransferTerminalDropsLateProgress(t *testing.T) {
	r, reg, rec := newTestRouter()
	r.Process(daemon.FileTransferEvent{FileID: "f1", AccountID: "a1", TotalSize: 100, Progress: 50})
	r.Process(daemon.FileTransferEvent{FileID: "f1", AccountID: "a1", TotalSize: 100, Progress: 100, Flags: model.TransferFlagDone})
	before := len(rec.events)

	r.Process(daemon.FileTransferEvent{FileID: "f1", AccountID: "a1", TotalSize: 100, Progress: 100})

	if len(rec.events) != before {
		t.Error("progress after terminal flag was dispatched")
	}
	tr, _ := reg.Transfer("f1")
	if !tr.Terminal() || tr.Progress != 100 {
		t.Errorf("transfer = %+v, want done at 100", tr)
	}
}

func TestNoObserverStillMutatesRegistry(t *testing.T) {
	reg := registry.New()
	r := New(reg, zap.NewNop())
	// No observer installed.
	r.Process(daemon.RegistrationStateChanged{AccountID: "a1", State: 1})
	a, ok := reg.Account("a1")
	if !ok || a.RegistrationState != state.RegTrying {
		t.Error("registry not updated without an observer")
	}
}

func TestClearObserverStopsDispatch(t *testing.T) {
	r, _, rec := newTestRouter()
	r.Process(daemon.RegistrationStateChanged{AccountID: "a1", State: 1})
	r.ClearObserver()
	r.Process(daemon.RegistrationStateChanged{AccountID: "a1", State: 2})
	if len(rec.events) != 1 {
		t.Errorf("events = %v, want only the pre-clear one", rec.kinds())
	}
}
