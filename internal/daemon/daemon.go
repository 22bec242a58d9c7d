// Package daemon defines the boundary to the native communications daemon.
// The daemon accepts commands and emits signals; its transport is opaque to
// the bridge, which treats any implementation of Daemon as a black box.
package daemon

import (
	"context"

	"github.com/leiter/jami-kmp/internal/model"
)

// AccountAPI covers account management commands.
type AccountAPI interface {
	CreateAccount(ctx context.Context, displayName, password string) (string, error)
	ImportAccount(ctx context.Context, archivePath, password string) (string, error)
	ExportAccount(ctx context.Context, accountID, destinationPath, password string) error
	DeleteAccount(ctx context.Context, accountID string) error
	AccountIDs(ctx context.Context) ([]string, error)
	AccountDetails(ctx context.Context, accountID string) (map[string]string, error)
	VolatileAccountDetails(ctx context.Context, accountID string) (map[string]string, error)
	SetAccountDetails(ctx context.Context, accountID string, details map[string]string) error
	SetAccountActive(ctx context.Context, accountID string, active bool) error
	UpdateProfile(ctx context.Context, accountID, displayName, avatarPath string) error
	RegisterName(ctx context.Context, accountID, name, password string) error
	LookupName(ctx context.Context, accountID, name string) (model.LookupResult, error)
	LookupAddress(ctx context.Context, accountID, address string) (model.LookupResult, error)
}

// ContactAPI covers contact and trust request commands.
type ContactAPI interface {
	Contacts(ctx context.Context, accountID string) ([]model.Contact, error)
	AddContact(ctx context.Context, accountID, uri string) error
	RemoveContact(ctx context.Context, accountID, uri string, ban bool) error
	ContactDetails(ctx context.Context, accountID, uri string) (map[string]string, error)
	AcceptTrustRequest(ctx context.Context, accountID, uri string) error
	DiscardTrustRequest(ctx context.Context, accountID, uri string) error
	TrustRequests(ctx context.Context, accountID string) ([]model.TrustRequest, error)
	SubscribeBuddy(ctx context.Context, accountID, uri string, watch bool) error
}

// ConversationAPI covers swarm conversation commands.
type ConversationAPI interface {
	Conversations(ctx context.Context, accountID string) ([]string, error)
	StartConversation(ctx context.Context, accountID string) (string, error)
	RemoveConversation(ctx context.Context, accountID, conversationID string) error
	ConversationInfo(ctx context.Context, accountID, conversationID string) (map[string]string, error)
	UpdateConversationInfo(ctx context.Context, accountID, conversationID string, info map[string]string) error
	ConversationMembers(ctx context.Context, accountID, conversationID string) ([]model.Member, error)
	AddConversationMember(ctx context.Context, accountID, conversationID, contactURI string) error
	RemoveConversationMember(ctx context.Context, accountID, conversationID, contactURI string) error
	AcceptConversationRequest(ctx context.Context, accountID, conversationID string) error
	DeclineConversationRequest(ctx context.Context, accountID, conversationID string) error
	ConversationRequests(ctx context.Context, accountID string) ([]model.ConversationRequest, error)
}

// MessagingAPI covers message commands. LoadMessages returns a request id
// used to correlate the later messages-loaded signal.
type MessagingAPI interface {
	SendMessage(ctx context.Context, accountID, conversationID, body, replyTo string) (string, error)
	LoadMessages(ctx context.Context, accountID, conversationID, fromMessage string, count int) (int, error)
	SetComposing(ctx context.Context, accountID, conversationID string, composing bool) error
	SetMessageDisplayed(ctx context.Context, accountID, conversationID, messageID string) error
}

// CallAPI covers point-to-point call commands and device toggles.
type CallAPI interface {
	PlaceCall(ctx context.Context, accountID, uri string, withVideo bool) (string, error)
	AcceptCall(ctx context.Context, accountID, callID string, withVideo bool) error
	RefuseCall(ctx context.Context, accountID, callID string) error
	HangUp(ctx context.Context, accountID, callID string) error
	HoldCall(ctx context.Context, accountID, callID string) error
	UnholdCall(ctx context.Context, accountID, callID string) error
	MuteAudio(ctx context.Context, accountID, callID string, muted bool) error
	MuteVideo(ctx context.Context, accountID, callID string, muted bool) error
	CallDetails(ctx context.Context, accountID, callID string) (map[string]string, error)
	ActiveCalls(ctx context.Context, accountID string) ([]string, error)
	SwitchCamera(ctx context.Context) error
	SwitchAudioOutput(ctx context.Context, useSpeaker bool) error
}

// ConferenceAPI covers multi-party call commands.
type ConferenceAPI interface {
	CreateConference(ctx context.Context, accountID string, participantURIs []string) (string, error)
	JoinParticipant(ctx context.Context, accountID, callID, accountID2, callID2 string) error
	AddParticipant(ctx context.Context, accountID, callID, confAccountID, conferenceID string) error
	HangUpConference(ctx context.Context, accountID, conferenceID string) error
	ConferenceDetails(ctx context.Context, accountID, conferenceID string) (map[string]string, error)
	ConferenceParticipants(ctx context.Context, accountID, conferenceID string) ([]string, error)
	ConferenceInfos(ctx context.Context, accountID, conferenceID string) ([]map[string]string, error)
	SetConferenceLayout(ctx context.Context, accountID, conferenceID string, layout model.ConferenceLayout) error
	MuteParticipant(ctx context.Context, accountID, conferenceID, participantURI string, muted bool) error
	HangUpParticipant(ctx context.Context, accountID, conferenceID, participantURI, deviceID string) error
}

// TransferAPI covers file transfer commands.
type TransferAPI interface {
	SendFile(ctx context.Context, accountID, conversationID, filePath, displayName string) (string, error)
	AcceptFileTransfer(ctx context.Context, accountID, conversationID, interactionID, fileID, destinationPath string) error
	CancelFileTransfer(ctx context.Context, accountID, conversationID, fileID string) error
	FileTransferInfo(ctx context.Context, accountID, conversationID, fileID string) (*model.FileTransfer, error)
}

// DeviceAPI covers video and audio device control.
type DeviceAPI interface {
	VideoDevices(ctx context.Context) ([]string, error)
	CurrentVideoDevice(ctx context.Context) (string, error)
	SetVideoDevice(ctx context.Context, deviceID string) error
	StartVideo(ctx context.Context) error
	StopVideo(ctx context.Context) error
	AudioOutputDevices(ctx context.Context) ([]string, error)
	AudioInputDevices(ctx context.Context) ([]string, error)
	SetAudioOutputDevice(ctx context.Context, index int) error
	SetAudioInputDevice(ctx context.Context, index int) error
}

// Daemon is the full command and signal contract of the native daemon.
// Exactly one instance runs per process; the bridge lifecycle controller
// owns its handle.
type Daemon interface {
	AccountAPI
	ContactAPI
	ConversationAPI
	MessagingAPI
	CallAPI
	ConferenceAPI
	TransferAPI
	DeviceAPI

	// Start brings up the daemon's execution context. Signals begin
	// flowing on the channel returned by Signals.
	Start(ctx context.Context) error
	// Stop tears down the running context and closes the signal channel.
	Stop(ctx context.Context) error
	// Signals returns the channel on which the daemon emits wire-level
	// signals, in emission order. Valid after Start.
	Signals() <-chan Signal
}
