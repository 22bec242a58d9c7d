// Package model defines the daemon-visible entities cached by the bridge.
// All identifiers are opaque, daemon-issued strings, unique within their
// namespace and never reused within a daemon session.
package model

import "github.com/leiter/jami-kmp/internal/state"

// Account is a daemon account with its registration status.
type Account struct {
	ID                 string
	Details            map[string]string
	VolatileDetails    map[string]string
	RegistrationState  state.Registration
	RegistrationCode   int
	RegistrationDetail string
}

// Contact belongs to an account, keyed by URI. Banning supersedes the
// confirmed flag.
type Contact struct {
	AccountID   string
	URI         string
	DisplayName string
	AvatarPath  string
	Confirmed   bool
	Banned      bool
}

// TrustRequest is an incoming request to establish a confirmed contact.
// It exists between receipt and accept/discard.
type TrustRequest struct {
	AccountID      string
	From           string
	ConversationID string
	Payload        []byte
	Received       int64
}

// MemberRole is a conversation member's role.
type MemberRole string

const (
	RoleAdmin   MemberRole = "admin"
	RoleMember  MemberRole = "member"
	RoleInvited MemberRole = "invited"
	RoleBanned  MemberRole = "banned"
)

// memberRoleByWire maps the daemon's numeric role codes, in native enum order.
var memberRoleByWire = []MemberRole{RoleAdmin, RoleMember, RoleInvited, RoleBanned}

// MemberRoleFromWire decodes a daemon numeric role. Returns false for values
// outside the declared enum.
func MemberRoleFromWire(v int) (MemberRole, bool) {
	if v < 0 || v >= len(memberRoleByWire) {
		return "", false
	}
	return memberRoleByWire[v], true
}

// Member is a conversation member.
type Member struct {
	URI  string
	Role MemberRole
}

// MemberEvent describes a membership change.
type MemberEvent string

const (
	MemberJoin  MemberEvent = "join"
	MemberLeave MemberEvent = "leave"
	MemberBan   MemberEvent = "ban"
	MemberUnban MemberEvent = "unban"
)

var memberEventByWire = []MemberEvent{MemberJoin, MemberLeave, MemberBan, MemberUnban}

// MemberEventFromWire decodes a daemon numeric member event code.
func MemberEventFromWire(v int) (MemberEvent, bool) {
	if v < 0 || v >= len(memberEventByWire) {
		return "", false
	}
	return memberEventByWire[v], true
}

// Conversation is a swarm conversation. Message history is not fully
// cached; pages are loaded on demand.
type Conversation struct {
	ID        string
	AccountID string
	Info      map[string]string
	Members   []Member
}

// ConversationRequest is a pending invitation to join a conversation.
type ConversationRequest struct {
	AccountID      string
	ConversationID string
	From           string
	Metadata       map[string]string
	Received       int64
}

// Message is a swarm message. Immutable once created except for status and
// reactions, which merge idempotently via update events.
type Message struct {
	ID             string
	ConversationID string
	Type           string
	Author         string
	Body           map[string]string
	Reactions      []map[string]string
	Timestamp      int64
	ReplyTo        string
	Status         map[string]int
}

// Call is a point-to-point call.
type Call struct {
	ID           string
	AccountID    string
	PeerURI      string
	PeerName     string
	HasVideo     bool
	State        state.Call
	StateCode    int
	ConferenceID string
	AudioMuted   bool
	VideoMuted   bool
}

// ConferenceLayout is a conference video layout.
type ConferenceLayout string

const (
	LayoutGrid        ConferenceLayout = "grid"
	LayoutOneBig      ConferenceLayout = "one-big"
	LayoutOneBigSmall ConferenceLayout = "one-big-small"
)

// Conference is a merged multi-party call session.
type Conference struct {
	ID           string
	AccountID    string
	State        string
	Layout       ConferenceLayout
	Participants []string
	Infos        []map[string]string
	Muted        map[string]bool
}

// Transfer flag bits, matching the daemon's direction/state bitmask.
const (
	TransferFlagIncoming = 1 << 0
	TransferFlagDone     = 1 << 1
	TransferFlagCanceled = 1 << 2
	TransferFlagError    = 1 << 3
)

// FileTransfer tracks an in-flight or finished file transfer. Progress is
// monotone until a terminal flag appears.
type FileTransfer struct {
	ID             string
	AccountID      string
	ConversationID string
	Path           string
	DisplayName    string
	TotalSize      int64
	Progress       int64
	BytesPerSecond int64
	Author         string
	Flags          int
}

// Terminal reports whether the transfer reached a final state.
func (t FileTransfer) Terminal() bool {
	return t.Flags&(TransferFlagDone|TransferFlagCanceled|TransferFlagError) != 0
}

// LookupResult is the value outcome of a name or address lookup. It is
// never cached in the registry.
type LookupResult struct {
	Address string
	Name    string
	State   state.Lookup
}
