package registry

import (
	"testing"

	"github.com/leiter/jami-kmp/internal/model"
	"github.com/leiter/jami-kmp/internal/state"
)

func TestUpsertAccountAndSnapshot(t *testing.T) {
	r := New()
	if !r.UpsertAccount(model.Account{ID: "a1", Details: map[string]string{"k": "v"}}) {
		t.Fatal("UpsertAccount returned false")
	}
	a, ok := r.Account("a1")
	if !ok {
		t.Fatal("account not cached")
	}
	// Snapshot maps must not alias the stored entry.
	a.Details["k"] = "changed"
	again, _ := r.Account("a1")
	if again.Details["k"] != "v" {
		t.Error("snapshot mutation leaked into the registry")
	}
}

func TestAccountIDsInsertionOrder(t *testing.T) {
	r := New()
	for _, id := range []string{"c", "a", "b"} {
		r.UpsertAccount(model.Account{ID: id})
	}
	r.UpsertAccount(model.Account{ID: "a"}) // re-upsert must not reorder
	got := r.AccountIDs()
	want := []string{"c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestRemoveAccountNoResurrection verifies a deleted account id cannot come
// back through a late upsert; daemon ids are never reused within a session.
func TestRemoveAccountNoResurrection(t *testing.T) {
	r := New()
	r.UpsertAccount(model.Account{ID: "a1"})
	r.RemoveAccount("a1")
	if _, ok := r.Account("a1"); ok {
		t.Fatal("account still cached after removal")
	}
	if r.UpsertAccount(model.Account{ID: "a1"}) {
		t.Error("tombstoned account id was resurrected")
	}
	if len(r.AccountIDs()) != 0 {
		t.Errorf("AccountIDs = %v, want empty", r.AccountIDs())
	}
}

func TestRemoveAccountCascades(t *testing.T) {
	r := New()
	r.UpsertAccount(model.Account{ID: "a1"})
	r.UpsertContact(model.Contact{AccountID: "a1", URI: "peer"})
	r.UpsertTrustRequest(model.TrustRequest{AccountID: "a1", From: "peer"})
	r.UpsertConversation(model.Conversation{ID: "conv1", AccountID: "a1"})
	r.PutMessage(model.Message{ID: "m1", ConversationID: "conv1"})
	r.UpsertCall(model.Call{ID: "call1", AccountID: "a1", State: state.CallCurrent})

	r.RemoveAccount("a1")

	if got := r.Contacts("a1"); len(got) != 0 {
		t.Errorf("contacts = %v, want empty", got)
	}
	if got := r.TrustRequests("a1"); len(got) != 0 {
		t.Errorf("trust requests = %v, want empty", got)
	}
	if _, ok := r.Conversation("conv1"); ok {
		t.Error("conversation survived account removal")
	}
	if got := r.Messages("conv1"); len(got) != 0 {
		t.Errorf("messages = %v, want empty", got)
	}
	if _, ok := r.Call("call1"); ok {
		t.Error("call survived account removal")
	}
	// The conversation id is tombstoned along with the account's swarms.
	if r.UpsertConversation(model.Conversation{ID: "conv1", AccountID: "a1"}) {
		t.Error("removed conversation id was resurrected")
	}
}

func TestUpsertContactBanSupersedesConfirmed(t *testing.T) {
	r := New()
	r.UpsertContact(model.Contact{AccountID: "a1", URI: "peer", Confirmed: true, Banned: true})
	c, ok := r.Contact("a1", "peer")
	if !ok {
		t.Fatal("contact not cached")
	}
	if c.Confirmed {
		t.Error("banned contact kept the confirmed flag")
	}
	if !c.Banned {
		t.Error("banned flag lost")
	}
}

func TestRemoveContactAllowsReAdd(t *testing.T) {
	r := New()
	r.UpsertContact(model.Contact{AccountID: "a1", URI: "peer"})
	r.RemoveContact("a1", "peer")
	r.UpsertContact(model.Contact{AccountID: "a1", URI: "peer", Confirmed: true})
	c, ok := r.Contact("a1", "peer")
	if !ok || !c.Confirmed {
		t.Error("re-added contact missing or wrong")
	}
}

func TestConversationRemovalTombstones(t *testing.T) {
	r := New()
	r.UpsertConversation(model.Conversation{ID: "conv1", AccountID: "a1"})
	r.PutMessage(model.Message{ID: "m1", ConversationID: "conv1"})
	r.RemoveConversation("a1", "conv1")
	if _, ok := r.Conversation("conv1"); ok {
		t.Fatal("conversation still cached")
	}
	if got := r.Messages("conv1"); len(got) != 0 {
		t.Error("messages survived conversation removal")
	}
	if r.UpsertConversation(model.Conversation{ID: "conv1", AccountID: "a1"}) {
		t.Error("tombstoned conversation id was resurrected")
	}
	if got := r.Conversations("a1"); len(got) != 0 {
		t.Errorf("conversation ids = %v, want empty", got)
	}
}

func TestApplyMemberEvent(t *testing.T) {
	r := New()
	r.UpsertConversation(model.Conversation{ID: "conv1", AccountID: "a1"})

	r.ApplyMemberEvent("conv1", "peer", model.MemberJoin)
	c, _ := r.Conversation("conv1")
	if len(c.Members) != 1 || c.Members[0].Role != model.RoleMember {
		t.Fatalf("members after join = %v", c.Members)
	}

	r.ApplyMemberEvent("conv1", "peer", model.MemberBan)
	c, _ = r.Conversation("conv1")
	if c.Members[0].Role != model.RoleBanned {
		t.Errorf("role after ban = %s, want banned", c.Members[0].Role)
	}

	r.ApplyMemberEvent("conv1", "peer", model.MemberUnban)
	c, _ = r.Conversation("conv1")
	if c.Members[0].Role != model.RoleMember {
		t.Errorf("role after unban = %s, want member", c.Members[0].Role)
	}

	r.ApplyMemberEvent("conv1", "peer", model.MemberLeave)
	c, _ = r.Conversation("conv1")
	if len(c.Members) != 0 {
		t.Errorf("members after leave = %v, want empty", c.Members)
	}
}

func TestPutMessageMergePreservesContent(t *testing.T) {
	r := New()
	r.PutMessage(model.Message{
		ID: "m1", ConversationID: "conv1",
		Body:   map[string]string{"body": "hello"},
		Status: map[string]int{"alice": 2},
	})
	// A second put with different content must not rewrite the body, only
	// merge status and reactions.
	r.PutMessage(model.Message{
		ID: "m1", ConversationID: "conv1",
		Body:      map[string]string{"body": "tampered"},
		Status:    map[string]int{"bob": 3},
		Reactions: []map[string]string{{"id": "r1", "body": "+1"}},
	})
	m, ok := r.Message("conv1", "m1")
	if !ok {
		t.Fatal("message not cached")
	}
	if m.Body["body"] != "hello" {
		t.Errorf("body = %q, want original content", m.Body["body"])
	}
	if m.Status["alice"] != 2 || m.Status["bob"] != 3 {
		t.Errorf("status = %v, want merged alice+bob", m.Status)
	}
	if len(m.Reactions) != 1 {
		t.Errorf("reactions = %v, want one", m.Reactions)
	}
}

// TestMergeMessageUpdateIdempotent verifies applying the same update twice
// equals applying it once.
func TestMergeMessageUpdateIdempotent(t *testing.T) {
	r := New()
	update := model.Message{
		ID: "m1", ConversationID: "conv1",
		Status:    map[string]int{"alice": 3},
		Reactions: []map[string]string{{"id": "r1", "body": "+1"}},
	}
	r.MergeMessageUpdate(update)
	r.MergeMessageUpdate(update)
	m, ok := r.Message("conv1", "m1")
	if !ok {
		t.Fatal("update did not synthesize the unknown message")
	}
	if len(m.Reactions) != 1 {
		t.Errorf("reactions = %v, want exactly one after duplicate update", m.Reactions)
	}
	if m.Status["alice"] != 3 {
		t.Errorf("status = %v", m.Status)
	}
}

func TestReactionAddRemove(t *testing.T) {
	r := New()
	r.AddReaction("conv1", "m1", map[string]string{"id": "r1", "body": "+1"})
	r.AddReaction("conv1", "m1", map[string]string{"id": "r1", "body": "+1"}) // dedupe
	r.AddReaction("conv1", "m1", map[string]string{"id": "r2", "body": "eyes"})
	m, _ := r.Message("conv1", "m1")
	if len(m.Reactions) != 2 {
		t.Fatalf("reactions = %v, want two", m.Reactions)
	}
	if !r.RemoveReaction("conv1", "m1", "r1") {
		t.Error("RemoveReaction(r1) = false")
	}
	if r.RemoveReaction("conv1", "m1", "r1") {
		t.Error("second RemoveReaction(r1) should report no match")
	}
	m, _ = r.Message("conv1", "m1")
	if len(m.Reactions) != 1 || m.Reactions[0]["id"] != "r2" {
		t.Errorf("reactions = %v, want only r2", m.Reactions)
	}
}

func TestActiveCallsExcludesTerminal(t *testing.T) {
	r := New()
	r.UpsertCall(model.Call{ID: "c1", AccountID: "a1", State: state.CallCurrent})
	r.UpsertCall(model.Call{ID: "c2", AccountID: "a1", State: state.CallRinging})
	r.SetCallState("c2", state.CallHungup, 0)
	got := r.ActiveCalls("a1")
	if len(got) != 1 || got[0] != "c1" {
		t.Errorf("ActiveCalls = %v, want [c1]", got)
	}
	// Terminal call stays queryable with its final state.
	c, ok := r.Call("c2")
	if !ok {
		t.Fatal("terminal call evicted")
	}
	if c.State != state.CallHungup {
		t.Errorf("state = %s, want HUNGUP", c.State)
	}
}

// TestEnsureCallKeepsExistingState verifies a command-result insert cannot
// roll back a state the router already applied.
func TestEnsureCallKeepsExistingState(t *testing.T) {
	r := New()
	r.UpsertCall(model.Call{ID: "c1", AccountID: "a1", State: state.CallRinging})
	r.EnsureCall(model.Call{ID: "c1", AccountID: "a1", State: state.CallConnecting})
	c, _ := r.Call("c1")
	if c.State != state.CallRinging {
		t.Errorf("state = %s, want RINGING", c.State)
	}

	r.EnsureCall(model.Call{ID: "c2", AccountID: "a1", State: state.CallConnecting})
	if _, ok := r.Call("c2"); !ok {
		t.Error("ensure did not insert the unknown call")
	}
}

// TestEnsureConferencePreservesInfos verifies a command-result insert
// cannot wipe infos the router already applied.
func TestEnsureConferencePreservesInfos(t *testing.T) {
	r := New()
	r.UpsertConference(model.Conference{ID: "conf1", AccountID: "a1"})
	r.SetConferenceInfos("conf1", []map[string]string{{"uri": "peer"}})

	if !r.EnsureConference(model.Conference{ID: "conf1", AccountID: "a1", Participants: []string{"peer"}}) {
		t.Fatal("EnsureConference returned false for a live conference")
	}
	c, _ := r.Conference("conf1")
	if len(c.Infos) != 1 || c.Infos[0]["uri"] != "peer" {
		t.Errorf("infos = %v, want the router-applied entry", c.Infos)
	}

	r.RemoveConference("conf1")
	if r.EnsureConference(model.Conference{ID: "conf1", AccountID: "a1"}) {
		t.Error("tombstoned conference id was resurrected")
	}
}

func TestConferenceTombstone(t *testing.T) {
	r := New()
	r.UpsertConference(model.Conference{ID: "conf1", AccountID: "a1"})
	r.RemoveConference("conf1")
	if r.UpsertConference(model.Conference{ID: "conf1", AccountID: "a1"}) {
		t.Error("tombstoned conference id was resurrected")
	}
}

func TestTransferProgressMonotone(t *testing.T) {
	r := New()
	r.UpsertTransfer(model.FileTransfer{ID: "f1", TotalSize: 100, Progress: 60})
	// A stale lower progress must not regress the cached value.
	r.UpsertTransfer(model.FileTransfer{ID: "f1", TotalSize: 100, Progress: 40})
	tr, _ := r.Transfer("f1")
	if tr.Progress != 60 {
		t.Errorf("progress = %d, want 60", tr.Progress)
	}
}

func TestTransferTerminalAbsorbs(t *testing.T) {
	r := New()
	r.UpsertTransfer(model.FileTransfer{ID: "f1", TotalSize: 100, Progress: 100, Flags: model.TransferFlagDone})
	if r.UpsertTransfer(model.FileTransfer{ID: "f1", TotalSize: 100, Progress: 100}) {
		t.Error("terminal transfer accepted an update")
	}
	tr, _ := r.Transfer("f1")
	if !tr.Terminal() {
		t.Error("terminal flag lost")
	}
}

func TestClearDropsTombstones(t *testing.T) {
	r := New()
	r.UpsertAccount(model.Account{ID: "a1"})
	r.RemoveAccount("a1")
	r.Clear()
	// After Clear a fresh daemon session may reuse nothing, but the registry
	// itself starts from scratch and accepts any id again.
	if !r.UpsertAccount(model.Account{ID: "a1"}) {
		t.Error("Clear did not drop account tombstones")
	}
}
