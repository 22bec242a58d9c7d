package bridge

import (
	"testing"
	"time"

	"github.com/leiter/jami-kmp/internal/config"
	"github.com/leiter/jami-kmp/internal/daemon/emulated"
	"github.com/leiter/jami-kmp/internal/errors"
	"github.com/leiter/jami-kmp/internal/event"
	"github.com/leiter/jami-kmp/internal/state"
	"go.uber.org/zap"
)

// testBridge wires a bridge over an emulated daemon rooted in a temp dir.
func testBridge(t *testing.T) (*Bridge, *emulated.Daemon, chan event.Event) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.DataDir = dir
	d := emulated.New(dir, 0, zap.NewNop())
	b := New(cfg, d, zap.NewNop())
	events := make(chan event.Event, 128)
	b.SetObserver(event.ObserverFunc(func(e event.Event) {
		events <- e
	}))
	return b, d, events
}

func startedBridge(t *testing.T) (*Bridge, *emulated.Daemon, chan event.Event) {
	t.Helper()
	b, d, events := testBridge(t)
	if err := b.Initialize(b.cfg.DataDir); err != nil {
		t.Fatal(err)
	}
	if err := b.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if b.IsRunning() {
			_ = b.Stop()
		}
		_ = b.Close()
	})
	return b, d, events
}

// waitFor returns the next event of the given kind, failing after a bound.
func waitFor(t *testing.T, events chan event.Event, kind string) event.Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case e := <-events:
			if e.Kind() == kind {
				return e
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q event", kind)
		}
	}
}

func wantCode(t *testing.T, err error, code errors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("error = nil, want code %s", code)
	}
	if got := errors.CodeOf(err); got != code {
		t.Fatalf("error code = %s, want %s (err: %v)", got, code, err)
	}
}

func TestStartBeforeInitialize(t *testing.T) {
	b, _, _ := testBridge(t)
	wantCode(t, b.Start(), errors.NotRunning)
}

func TestInitializeTwice(t *testing.T) {
	b, _, _ := testBridge(t)
	if err := b.Initialize(b.cfg.DataDir); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = b.Close() }()
	wantCode(t, b.Initialize(b.cfg.DataDir), errors.InvalidArgument)
}

func TestInitializeEmptyPath(t *testing.T) {
	b, _, _ := testBridge(t)
	wantCode(t, b.Initialize(""), errors.InvalidArgument)
}

// TestDataDirLockIsExclusive verifies a second bridge cannot initialize
// over a data dir already held by another bridge.
func TestDataDirLockIsExclusive(t *testing.T) {
	b, _, _ := testBridge(t)
	if err := b.Initialize(b.cfg.DataDir); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = b.Close() }()

	other := New(b.cfg, emulated.New(b.cfg.DataDir, 0, zap.NewNop()), zap.NewNop())
	wantCode(t, other.Initialize(b.cfg.DataDir), errors.DaemonRejected)
}

func TestCommandsRequireRunningDaemon(t *testing.T) {
	b, _, _ := testBridge(t)
	if _, err := b.CreateAccount("alice", ""); errors.CodeOf(err) != errors.NotRunning {
		t.Errorf("CreateAccount error = %v, want NOT_RUNNING", err)
	}
	if _, err := b.AccountIDs(); errors.CodeOf(err) != errors.NotRunning {
		t.Errorf("AccountIDs error = %v, want NOT_RUNNING", err)
	}
	if err := b.HangUp("a", "c"); errors.CodeOf(err) != errors.NotRunning {
		t.Errorf("HangUp error = %v, want NOT_RUNNING", err)
	}
}

func TestLifecycle(t *testing.T) {
	b, _, _ := testBridge(t)
	if b.IsRunning() {
		t.Error("IsRunning before start")
	}
	if err := b.Initialize(b.cfg.DataDir); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = b.Close() }()
	if err := b.Start(); err != nil {
		t.Fatal(err)
	}
	if !b.IsRunning() {
		t.Error("IsRunning = false after start")
	}
	wantCode(t, b.Start(), errors.InvalidArgument) // already running
	if err := b.Stop(); err != nil {
		t.Fatal(err)
	}
	if b.IsRunning() {
		t.Error("IsRunning = true after stop")
	}
	wantCode(t, b.Stop(), errors.NotRunning)
}

// TestStopClearsRegistry verifies cached entities do not outlive the
// daemon session that issued their identifiers.
func TestStopClearsRegistry(t *testing.T) {
	b, _, events := startedBridge(t)
	id, err := b.CreateAccount("alice", "")
	if err != nil {
		t.Fatal(err)
	}
	waitFor(t, events, "account.registration_state")
	if err := b.Stop(); err != nil {
		t.Fatal(err)
	}
	if _, ok := b.Registry().Account(id); ok {
		t.Error("account survived daemon stop")
	}
}

func TestCreateAccountRegistrationFlow(t *testing.T) {
	b, _, events := startedBridge(t)
	id, err := b.CreateAccount("alice", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("empty account id")
	}

	// The daemon walks initializing, trying, registered, in order.
	want := []state.Registration{state.RegInitializing, state.RegTrying, state.RegRegistered}
	for _, st := range want {
		e := waitFor(t, events, "account.registration_state").(event.RegistrationStateChanged)
		if e.AccountID != id {
			t.Errorf("event account = %q, want %q", e.AccountID, id)
		}
		if e.State != st {
			t.Errorf("state = %s, want %s", e.State, st)
		}
	}
	a, ok := b.Registry().Account(id)
	if !ok {
		t.Fatal("account not cached")
	}
	if a.RegistrationState != state.RegRegistered {
		t.Errorf("registry state = %s, want REGISTERED", a.RegistrationState)
	}
}

func TestAccountScopedCommandsValidateLocally(t *testing.T) {
	b, _, _ := startedBridge(t)
	if _, err := b.AccountDetails(""); errors.CodeOf(err) != errors.InvalidArgument {
		t.Errorf("empty id error = %v, want INVALID_ARGUMENT", err)
	}
	if _, err := b.AccountDetails("ghost"); errors.CodeOf(err) != errors.NotFound {
		t.Errorf("unknown id error = %v, want NOT_FOUND", err)
	}
}

func TestNameRegistrationAndLookup(t *testing.T) {
	b, _, events := startedBridge(t)
	id, err := b.CreateAccount("alice", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := b.RegisterName(id, "alice", ""); err != nil {
		t.Fatal(err)
	}
	e := waitFor(t, events, "account.name_registration").(event.NameRegistrationEnded)
	if e.State != 0 {
		t.Fatalf("name registration state = %d, want 0 (success)", e.State)
	}

	res, err := b.LookupName(id, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if res.State != state.LookupSuccess || res.Address == "" {
		t.Errorf("lookup = %+v, want success with address", res)
	}

	missing, err := b.LookupName(id, "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if missing.State != state.LookupNotFound {
		t.Errorf("lookup state = %s, want NOT_FOUND", missing.State)
	}
}

func TestDeleteAccountTombstones(t *testing.T) {
	b, _, events := startedBridge(t)
	id, err := b.CreateAccount("alice", "")
	if err != nil {
		t.Fatal(err)
	}
	waitFor(t, events, "account.registration_state")
	if err := b.DeleteAccount(id); err != nil {
		t.Fatal(err)
	}
	if _, ok := b.Registry().Account(id); ok {
		t.Error("deleted account still cached")
	}
	// Account-scoped commands now fail locally.
	if _, err := b.AccountDetails(id); errors.CodeOf(err) != errors.NotFound {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestCallFlow(t *testing.T) {
	b, d, events := startedBridge(t)
	acct, err := b.CreateAccount("alice", "")
	if err != nil {
		t.Fatal(err)
	}

	callID, err := b.PlaceCall(acct, "peer-uri", false)
	if err != nil {
		t.Fatal(err)
	}
	d.SimulatePeerAnswer(callID)
	for {
		e := waitFor(t, events, "call.state").(event.CallStateChanged)
		if e.CallID == callID && e.State == state.CallCurrent {
			break
		}
	}

	if err := b.HangUp(acct, callID); err != nil {
		t.Fatal(err)
	}
	for {
		e := waitFor(t, events, "call.state").(event.CallStateChanged)
		if e.CallID == callID && e.State == state.CallHungup {
			break
		}
	}

	// Commands against an ended call fail locally.
	wantCode(t, b.HangUp(acct, callID), errors.InvalidArgument)
	wantCode(t, b.HoldCall(acct, callID), errors.InvalidArgument)
	// The call remains queryable with its terminal state.
	c, ok := b.Registry().Call(callID)
	if !ok {
		t.Fatal("terminal call evicted")
	}
	if c.State != state.CallHungup {
		t.Errorf("state = %s, want HUNGUP", c.State)
	}
}

func TestIncomingCallAcceptRefuse(t *testing.T) {
	b, d, events := startedBridge(t)
	acct, err := b.CreateAccount("alice", "")
	if err != nil {
		t.Fatal(err)
	}

	callID := d.SimulateIncomingCall(acct, "peer-uri", "Peer", true)
	inc := waitFor(t, events, "call.incoming").(event.IncomingCall)
	if inc.CallID != callID || inc.PeerDisplayName != "Peer" || !inc.HasVideo {
		t.Errorf("incoming = %+v", inc)
	}

	if err := b.AcceptCall(acct, callID, true); err != nil {
		t.Fatal(err)
	}
	for {
		e := waitFor(t, events, "call.state").(event.CallStateChanged)
		if e.CallID == callID && e.State == state.CallCurrent {
			break
		}
	}
}

func TestTrustRequestFlow(t *testing.T) {
	b, d, events := startedBridge(t)
	acct, err := b.CreateAccount("alice", "")
	if err != nil {
		t.Fatal(err)
	}

	d.SimulateTrustRequest(acct, "peer-uri", []byte("vcard"))
	req := waitFor(t, events, "contact.trust_request").(event.IncomingTrustRequest)
	if req.Request.From != "peer-uri" {
		t.Fatalf("request from = %q", req.Request.From)
	}

	if err := b.AcceptTrustRequest(acct, "peer-uri"); err != nil {
		t.Fatal(err)
	}
	added := waitFor(t, events, "contact.added").(event.ContactAdded)
	if !added.Confirmed {
		t.Error("accepted contact not confirmed")
	}
	c, ok := b.Registry().Contact(acct, "peer-uri")
	if !ok || !c.Confirmed {
		t.Errorf("contact = %+v, want cached and confirmed", c)
	}
	if got := b.Registry().TrustRequests(acct); len(got) != 0 {
		t.Errorf("trust requests = %v, want empty", got)
	}
}

func TestConversationAndMessaging(t *testing.T) {
	b, _, events := startedBridge(t)
	acct, err := b.CreateAccount("alice", "")
	if err != nil {
		t.Fatal(err)
	}

	convID, err := b.StartConversation(acct)
	if err != nil {
		t.Fatal(err)
	}
	waitFor(t, events, "conversation.ready")

	msgID, err := b.SendMessage(acct, convID, "hello", "")
	if err != nil {
		t.Fatal(err)
	}
	recv := waitFor(t, events, "message.received").(event.MessageReceived)
	if recv.Message.ID != msgID || recv.Message.Body["body"] != "hello" {
		t.Errorf("message = %+v", recv.Message)
	}

	reqID, err := b.LoadMessages(acct, convID, "", 10)
	if err != nil {
		t.Fatal(err)
	}
	page := waitFor(t, events, "message.page_loaded").(event.MessagesLoaded)
	if page.RequestID != reqID {
		t.Errorf("page request id = %d, want %d", page.RequestID, reqID)
	}
	if len(page.Messages) != 1 {
		t.Errorf("page = %d messages, want 1", len(page.Messages))
	}

	if _, err := b.SendMessage(acct, convID, "", ""); errors.CodeOf(err) != errors.InvalidArgument {
		t.Errorf("empty body error = %v, want INVALID_ARGUMENT", err)
	}
	if _, err := b.LoadMessages(acct, convID, "", 0); errors.CodeOf(err) != errors.InvalidArgument {
		t.Errorf("zero count error = %v, want INVALID_ARGUMENT", err)
	}
}

func TestConversationRequestFlow(t *testing.T) {
	b, d, events := startedBridge(t)
	acct, err := b.CreateAccount("alice", "")
	if err != nil {
		t.Fatal(err)
	}

	convID := d.SimulateConversationRequest(acct, "peer-uri", map[string]string{"title": "swarm"})
	req := waitFor(t, events, "conversation.request").(event.ConversationRequestReceived)
	if req.Request.From != "peer-uri" {
		t.Fatalf("request from = %q", req.Request.From)
	}

	if err := b.AcceptConversationRequest(acct, convID); err != nil {
		t.Fatal(err)
	}
	waitFor(t, events, "conversation.ready")
	if _, ok := b.Registry().Conversation(convID); !ok {
		t.Error("accepted conversation not cached")
	}
	if got := b.Registry().ConversationRequests(acct); len(got) != 0 {
		t.Errorf("requests = %v, want empty after accept", got)
	}
}

func TestFileTransferFlow(t *testing.T) {
	b, d, events := startedBridge(t)
	acct, err := b.CreateAccount("alice", "")
	if err != nil {
		t.Fatal(err)
	}
	convID, err := b.StartConversation(acct)
	if err != nil {
		t.Fatal(err)
	}
	waitFor(t, events, "conversation.ready")

	fileID := d.SimulateIncomingTransfer(acct, convID, "peer-uri", "photo.jpg", 1000)
	offer := waitFor(t, events, "transfer.updated").(event.FileTransferUpdated)
	if offer.Transfer.ID != fileID || offer.Transfer.Terminal() {
		t.Fatalf("offer = %+v", offer.Transfer)
	}

	if err := b.AcceptFileTransfer(acct, convID, "", fileID, "/tmp/photo.jpg"); err != nil {
		t.Fatal(err)
	}
	var last event.FileTransferUpdated
	for {
		last = waitFor(t, events, "transfer.updated").(event.FileTransferUpdated)
		if last.Transfer.Terminal() {
			break
		}
	}
	if last.Transfer.Progress != 1000 {
		t.Errorf("final progress = %d, want 1000", last.Transfer.Progress)
	}
	tr, ok := b.Registry().Transfer(fileID)
	if !ok || !tr.Terminal() {
		t.Errorf("registry transfer = %+v, want terminal", tr)
	}
}
