package daemon

// Signal is a wire-level notification emitted by the daemon. Enum-valued
// fields cross the boundary as raw integers and map-valued payloads are
// passed through verbatim; the event router owns decoding and validation.
type Signal interface {
	signal()
}

// SwarmMessage is the wire form of a swarm message.
type SwarmMessage struct {
	ID        string
	Type      string
	Author    string
	Body      map[string]string
	Reactions []map[string]string
	Timestamp int64
	ReplyTo   string
	Status    map[string]int
}

// Account signals.

type RegistrationStateChanged struct {
	AccountID string
	State     int
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
	State     int
	Address   string
	Name      string
}

type KnownDevicesChanged struct {
	AccountID string
	Devices   map[string]string
}

// Call signals.

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
	State     int
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

// Conference signals.

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

// Conversation signals.

type ConversationReady struct {
	AccountID      string
	ConversationID string
}

type ConversationRemoved struct {
	AccountID      string
	ConversationID string
}

type ConversationRequestReceived struct {
	AccountID      string
	ConversationID string
	Metadata       map[string]string
}

type MessageReceived struct {
	AccountID      string
	ConversationID string
	Message        SwarmMessage
}

type MessageUpdated struct {
	AccountID      string
	ConversationID string
	Message        SwarmMessage
}

type MessagesLoaded struct {
	RequestID      int
	AccountID      string
	ConversationID string
	Messages       []SwarmMessage
}

type ConversationMemberEvent struct {
	AccountID      string
	ConversationID string
	MemberURI      string
	Event          int
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

// Contact signals.

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
	AccountID      string
	ConversationID string
	From           string
	Payload        []byte
	Received       int64
}

type PresenceChanged struct {
	AccountID string
	URI       string
	Online    bool
}

// FileTransferEvent carries transfer progress. Terminal outcome is encoded
// in the Flags bitmask, not inferred from inactivity.
type FileTransferEvent struct {
	AccountID      string
	ConversationID string
	FileID         string
	Path           string
	DisplayName    string
	TotalSize      int64
	Progress       int64
	BytesPerSecond int64
	Author         string
	Flags          int
}

func (RegistrationStateChanged) signal()    {}
func (AccountDetailsChanged) signal()       {}
func (ProfileReceived) signal()             {}
func (NameRegistrationEnded) signal()       {}
func (RegisteredNameFound) signal()         {}
func (KnownDevicesChanged) signal()         {}
func (IncomingCall) signal()                {}
func (CallStateChanged) signal()            {}
func (MediaChangeRequested) signal()        {}
func (AudioMuted) signal()                  {}
func (VideoMuted) signal()                  {}
func (ConferenceCreated) signal()           {}
func (ConferenceChanged) signal()           {}
func (ConferenceRemoved) signal()           {}
func (ConferenceInfoUpdated) signal()       {}
func (ConversationReady) signal()           {}
func (ConversationRemoved) signal()         {}
func (ConversationRequestReceived) signal() {}
func (MessageReceived) signal()             {}
func (MessageUpdated) signal()              {}
func (MessagesLoaded) signal()              {}
func (ConversationMemberEvent) signal()     {}
func (ComposingStatusChanged) signal()      {}
func (ConversationProfileUpdated) signal()  {}
func (ReactionAdded) signal()               {}
func (ReactionRemoved) signal()             {}
func (ContactAdded) signal()                {}
func (ContactRemoved) signal()              {}
func (IncomingTrustRequest) signal()        {}
func (PresenceChanged) signal()             {}
func (FileTransferEvent) signal()           {}
