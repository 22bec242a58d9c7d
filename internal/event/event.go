// Package event defines the typed events the bridge delivers to its
// observer. Events are decoded from wire-level daemon signals by the router;
// by the time an observer sees one, the entity registry already reflects it.
package event

import (
	"github.com/leiter/jami-kmp/internal/model"
	"github.com/leiter/jami-kmp/internal/state"
)

// Event is a decoded daemon notification.
type Event interface {
	// Kind returns a stable dotted identifier for the event type.
	Kind() string
}

// Observer receives bridge events on the dispatch goroutine, in daemon
// emission order. Callbacks must not block; invoking synchronous bridge
// commands from a callback re-enters the dispatch context and is the
// caller's responsibility.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

// Account events.

type RegistrationStateChanged struct {
	AccountID string
	State     state.Registration
	Code      int
	Detail    string
}

type AccountDetailsChanged struct {
	AccountID string
	Details   map[string]string
}

type ProfileReceived struct {
	AccountID   string
	From        string
	DisplayName string
	AvatarPath  string
}

type NameRegistrationEnded struct {
	AccountID string
	State     int
	Name      string
}

type RegisteredNameFound struct {
	AccountID string
	Result    model.LookupResult
}

type KnownDevicesChanged struct {
	AccountID string
	Devices   map[string]string
}

// Call and conference events.

type IncomingCall struct {
	AccountID       string
	CallID          string
	PeerID          string
	PeerDisplayName string
	HasVideo        bool
}

type CallStateChanged struct {
	AccountID string
	CallID    string
	State     state.Call
	Code      int
}

type MediaChangeRequested struct {
	AccountID string
	CallID    string
	MediaList []map[string]string
}

type AudioMuted struct {
	CallID string
	Muted  bool
}

type VideoMuted struct {
	CallID string
	Muted  bool
}

type ConferenceCreated struct {
	AccountID      string
	ConversationID string
	ConferenceID   string
}

type ConferenceChanged struct {
	AccountID    string
	ConferenceID string
	State        string
}

type ConferenceRemoved struct {
	AccountID    string
	ConferenceID string
}

type ConferenceInfoUpdated struct {
	ConferenceID     string
	ParticipantInfos []map[string]string
}

// Conversation and message events.

type ConversationReady struct {
	AccountID      string
	ConversationID string
}

type ConversationRemoved struct {
	AccountID      string
	ConversationID string
}

type ConversationRequestReceived struct {
	AccountID string
	Request   model.ConversationRequest
}

type MessageReceived struct {
	AccountID      string
	ConversationID string
	Message        model.Message
}

type MessageUpdated struct {
	AccountID      string
	ConversationID string
	Message        model.Message
}

// MessagesLoaded delivers one page of history. RequestID matches the value
// returned by the originating LoadMessages call.
type MessagesLoaded struct {
	RequestID      int
	AccountID      string
	ConversationID string
	Messages       []model.Message
}

type ConversationMemberEvent struct {
	AccountID      string
	ConversationID string
	MemberURI      string
	Event          model.MemberEvent
}

type ComposingStatusChanged struct {
	AccountID      string
	ConversationID string
	From           string
	Composing      bool
}

type ConversationProfileUpdated struct {
	AccountID      string
	ConversationID string
	Profile        map[string]string
}

type ReactionAdded struct {
	AccountID      string
	ConversationID string
	MessageID      string
	Reaction       map[string]string
}

type ReactionRemoved struct {
	AccountID      string
	ConversationID string
	MessageID      string
	ReactionID     string
}

// Contact and presence events.

type ContactAdded struct {
	AccountID string
	URI       string
	Confirmed bool
}

type ContactRemoved struct {
	AccountID string
	URI       string
	Banned    bool
}

type IncomingTrustRequest struct {
	AccountID string
	Request   model.TrustRequest
}

type PresenceChanged struct {
	AccountID string
	URI       string
	Online    bool
}

// FileTransferUpdated carries transfer progress and terminal flags.
type FileTransferUpdated struct {
	AccountID string
	Transfer  model.FileTransfer
}

func (RegistrationStateChanged) Kind() string    { return "account.registration_state" }
func (AccountDetailsChanged) Kind() string       { return "account.details" }
func (ProfileReceived) Kind() string             { return "account.profile" }
func (NameRegistrationEnded) Kind() string       { return "account.name_registration" }
func (RegisteredNameFound) Kind() string         { return "account.name_found" }
func (KnownDevicesChanged) Kind() string         { return "account.devices" }
func (IncomingCall) Kind() string                { return "call.incoming" }
func (CallStateChanged) Kind() string            { return "call.state" }
func (MediaChangeRequested) Kind() string        { return "call.media_change" }
func (AudioMuted) Kind() string                  { return "call.audio_muted" }
func (VideoMuted) Kind() string                  { return "call.video_muted" }
func (ConferenceCreated) Kind() string           { return "conference.created" }
func (ConferenceChanged) Kind() string           { return "conference.changed" }
func (ConferenceRemoved) Kind() string           { return "conference.removed" }
func (ConferenceInfoUpdated) Kind() string       { return "conference.info" }
func (ConversationReady) Kind() string           { return "conversation.ready" }
func (ConversationRemoved) Kind() string         { return "conversation.removed" }
func (ConversationRequestReceived) Kind() string { return "conversation.request" }
func (MessageReceived) Kind() string             { return "message.received" }
func (MessageUpdated) Kind() string              { return "message.updated" }
func (MessagesLoaded) Kind() string              { return "message.page_loaded" }
func (ConversationMemberEvent) Kind() string     { return "conversation.member" }
func (ComposingStatusChanged) Kind() string      { return "conversation.composing" }
func (ConversationProfileUpdated) Kind() string  { return "conversation.profile" }
func (ReactionAdded) Kind() string               { return "message.reaction_added" }
func (ReactionRemoved) Kind() string             { return "message.reaction_removed" }
func (ContactAdded) Kind() string                { return "contact.added" }
func (ContactRemoved) Kind() string              { return "contact.removed" }
func (IncomingTrustRequest) Kind() string        { return "contact.trust_request" }
func (PresenceChanged) Kind() string             { return "contact.presence" }
func (FileTransferUpdated) Kind() string         { return "transfer.updated" }
