package router

import (
	"github.com/leiter/jami-kmp/internal/daemon"
	"github.com/leiter/jami-kmp/internal/event"
	"github.com/leiter/jami-kmp/internal/model"
	"github.com/leiter/jami-kmp/internal/state"
	"go.uber.org/zap"
)

// apply decodes one signal, applies its registry mutation and returns the
// event to dispatch, or nil when the signal is dropped. Malformed payloads
// and protocol anomalies are logged, never propagated.
func (r *Router) apply(sig daemon.Signal) event.Event {
	switch s := sig.(type) {
	case daemon.RegistrationStateChanged:
		return r.applyRegistrationState(s)
	case daemon.AccountDetailsChanged:
		return r.applyAccountDetails(s)
	case daemon.ProfileReceived:
		return r.applyProfile(s)
	case daemon.NameRegistrationEnded:
		if s.AccountID == "" {
			return r.drop("name registration ended", "empty account id")
		}
		return event.NameRegistrationEnded{AccountID: s.AccountID, State: s.State, Name: s.Name}
	case daemon.RegisteredNameFound:
		if s.AccountID == "" {
			return r.drop("registered name found", "empty account id")
		}
		return event.RegisteredNameFound{
			AccountID: s.AccountID,
			Result: model.LookupResult{
				Address: s.Address,
				Name:    s.Name,
				State:   state.LookupFromWire(s.State),
			},
		}
	case daemon.KnownDevicesChanged:
		if s.AccountID == "" {
			return r.drop("known devices changed", "empty account id")
		}
		return event.KnownDevicesChanged{AccountID: s.AccountID, Devices: s.Devices}
	case daemon.IncomingCall:
		return r.applyIncomingCall(s)
	case daemon.CallStateChanged:
		return r.applyCallState(s)
	case daemon.MediaChangeRequested:
		if s.CallID == "" {
			return r.drop("media change requested", "empty call id")
		}
		return event.MediaChangeRequested{AccountID: s.AccountID, CallID: s.CallID, MediaList: s.MediaList}
	case daemon.AudioMuted:
		if !r.reg.SetCallAudioMuted(s.CallID, s.Muted) {
			return r.anomaly("audio muted", "unknown call id", zap.String("call_id", s.CallID))
		}
		return event.AudioMuted{CallID: s.CallID, Muted: s.Muted}
	case daemon.VideoMuted:
		if !r.reg.SetCallVideoMuted(s.CallID, s.Muted) {
			return r.anomaly("video muted", "unknown call id", zap.String("call_id", s.CallID))
		}
		return event.VideoMuted{CallID: s.CallID, Muted: s.Muted}
	case daemon.ConferenceCreated:
		return r.applyConferenceCreated(s)
	case daemon.ConferenceChanged:
		if !r.reg.SetConferenceState(s.ConferenceID, s.State) {
			return r.anomaly("conference changed", "unknown conference id", zap.String("conference_id", s.ConferenceID))
		}
		return event.ConferenceChanged{AccountID: s.AccountID, ConferenceID: s.ConferenceID, State: s.State}
	case daemon.ConferenceRemoved:
		// Eviction happens before dispatch, so an observer re-querying the
		// registry never sees the removed conference.
		r.reg.RemoveConference(s.ConferenceID)
		return event.ConferenceRemoved{AccountID: s.AccountID, ConferenceID: s.ConferenceID}
	case daemon.ConferenceInfoUpdated:
		if !r.reg.SetConferenceInfos(s.ConferenceID, s.ParticipantInfos) {
			return r.anomaly("conference info", "unknown conference id", zap.String("conference_id", s.ConferenceID))
		}
		return event.ConferenceInfoUpdated{ConferenceID: s.ConferenceID, ParticipantInfos: s.ParticipantInfos}
	case daemon.ConversationReady:
		return r.applyConversationReady(s)
	case daemon.ConversationRemoved:
		r.reg.RemoveConversation(s.AccountID, s.ConversationID)
		return event.ConversationRemoved{AccountID: s.AccountID, ConversationID: s.ConversationID}
	case daemon.ConversationRequestReceived:
		return r.applyConversationRequest(s)
	case daemon.MessageReceived:
		return r.applyMessageReceived(s)
	case daemon.MessageUpdated:
		return r.applyMessageUpdated(s)
	case daemon.MessagesLoaded:
		return r.applyMessagesLoaded(s)
	case daemon.ConversationMemberEvent:
		return r.applyMemberEvent(s)
	case daemon.ComposingStatusChanged:
		if s.ConversationID == "" {
			return r.drop("composing status", "empty conversation id")
		}
		return event.ComposingStatusChanged{
			AccountID:      s.AccountID,
			ConversationID: s.ConversationID,
			From:           s.From,
			Composing:      s.Composing,
		}
	case daemon.ConversationProfileUpdated:
		return r.applyConversationProfile(s)
	case daemon.ReactionAdded:
		return r.applyReactionAdded(s)
	case daemon.ReactionRemoved:
		if !r.reg.RemoveReaction(s.ConversationID, s.MessageID, s.ReactionID) {
			// No matching reaction: a no-op, not an error.
			r.logger.Debug("reaction removal without match",
				zap.String("message_id", s.MessageID),
				zap.String("reaction_id", s.ReactionID))
			return nil
		}
		return event.ReactionRemoved{
			AccountID:      s.AccountID,
			ConversationID: s.ConversationID,
			MessageID:      s.MessageID,
			ReactionID:     s.ReactionID,
		}
	case daemon.ContactAdded:
		return r.applyContactAdded(s)
	case daemon.ContactRemoved:
		return r.applyContactRemoved(s)
	case daemon.IncomingTrustRequest:
		return r.applyTrustRequest(s)
	case daemon.PresenceChanged:
		if s.URI == "" {
			return r.drop("presence changed", "empty uri")
		}
		return event.PresenceChanged{AccountID: s.AccountID, URI: s.URI, Online: s.Online}
	case daemon.FileTransferEvent:
		return r.applyFileTransfer(s)
	default:
		r.logger.Warn("unknown daemon signal dropped", zap.Any("signal", sig))
		return nil
	}
}

func (r *Router) drop(kind, reason string, fields ...zap.Field) event.Event {
	r.logger.Warn("malformed signal dropped",
		append([]zap.Field{zap.String("kind", kind), zap.String("reason", reason)}, fields...)...)
	return nil
}

func (r *Router) anomaly(kind, reason string, fields ...zap.Field) event.Event {
	r.logger.Warn("protocol anomaly, event dropped",
		append([]zap.Field{zap.String("kind", kind), zap.String("reason", reason)}, fields...)...)
	return nil
}

func (r *Router) applyRegistrationState(s daemon.RegistrationStateChanged) event.Event {
	if s.AccountID == "" {
		return r.drop("registration state", "empty account id")
	}
	st, ok := state.RegistrationFromWire(s.State)
	if !ok {
		return r.drop("registration state", "unknown state code",
			zap.String("account_id", s.AccountID), zap.Int("state", s.State))
	}
	if prev, known := r.reg.Account(s.AccountID); known && !prev.RegistrationState.CanTransition(st) {
		r.logger.Warn("unexpected registration transition",
			zap.String("account_id", s.AccountID),
			zap.String("from", string(prev.RegistrationState)),
			zap.String("to", string(st)))
	}
	if !r.reg.SetRegistrationState(s.AccountID, st, s.Code, s.Detail) {
		// Account not cached yet; keep the state queryable anyway. A
		// tombstoned account stays dead.
		if !r.reg.UpsertAccount(model.Account{
			ID:                 s.AccountID,
			RegistrationState:  st,
			RegistrationCode:   s.Code,
			RegistrationDetail: s.Detail,
		}) {
			return r.anomaly("registration state", "event for deleted account",
				zap.String("account_id", s.AccountID))
		}
	}
	return event.RegistrationStateChanged{AccountID: s.AccountID, State: st, Code: s.Code, Detail: s.Detail}
}

func (r *Router) applyAccountDetails(s daemon.AccountDetailsChanged) event.Event {
	if s.AccountID == "" {
		return r.drop("account details", "empty account id")
	}
	if !r.reg.SetAccountDetails(s.AccountID, s.Details) {
		if !r.reg.UpsertAccount(model.Account{ID: s.AccountID, Details: s.Details}) {
			return r.anomaly("account details", "event for deleted account",
				zap.String("account_id", s.AccountID))
		}
	}
	return event.AccountDetailsChanged{AccountID: s.AccountID, Details: s.Details}
}

func (r *Router) applyProfile(s daemon.ProfileReceived) event.Event {
	if s.AccountID == "" || s.From == "" {
		return r.drop("profile received", "empty account id or sender")
	}
	if c, ok := r.reg.Contact(s.AccountID, s.From); ok {
		c.DisplayName = s.DisplayName
		if s.AvatarPath != "" {
			c.AvatarPath = s.AvatarPath
		}
		r.reg.UpsertContact(c)
	}
	return event.ProfileReceived{
		AccountID:   s.AccountID,
		From:        s.From,
		DisplayName: s.DisplayName,
		AvatarPath:  s.AvatarPath,
	}
}

func (r *Router) applyIncomingCall(s daemon.IncomingCall) event.Event {
	if s.AccountID == "" || s.CallID == "" {
		return r.drop("incoming call", "empty account or call id")
	}
	if c, known := r.reg.Call(s.CallID); known && c.State.Terminal() {
		return r.anomaly("incoming call", "call already terminal", zap.String("call_id", s.CallID))
	}
	r.reg.UpsertCall(model.Call{
		ID:        s.CallID,
		AccountID: s.AccountID,
		PeerURI:   s.PeerID,
		PeerName:  s.PeerDisplayName,
		HasVideo:  s.HasVideo,
		State:     state.CallIncoming,
	})
	return event.IncomingCall{
		AccountID:       s.AccountID,
		CallID:          s.CallID,
		PeerID:          s.PeerID,
		PeerDisplayName: s.PeerDisplayName,
		HasVideo:        s.HasVideo,
	}
}

func (r *Router) applyCallState(s daemon.CallStateChanged) event.Event {
	if s.CallID == "" {
		return r.drop("call state", "empty call id")
	}
	st, ok := state.CallFromWire(s.State)
	if !ok {
		return r.drop("call state", "unknown state code",
			zap.String("call_id", s.CallID), zap.Int("state", s.State))
	}
	current, known := r.reg.Call(s.CallID)
	if !known {
		// State signals for a placed call can outrun the facade's cache
		// insert; synthesize a minimal entry so no transition is lost.
		r.reg.UpsertCall(model.Call{
			ID:        s.CallID,
			AccountID: s.AccountID,
			State:     st,
			StateCode: s.Code,
		})
		return event.CallStateChanged{AccountID: s.AccountID, CallID: s.CallID, State: st, Code: s.Code}
	}
	if current.State.Terminal() {
		// Events after a terminal state are ignored; the registry keeps
		// the terminal state.
		return r.anomaly("call state", "event after terminal state",
			zap.String("call_id", s.CallID),
			zap.String("terminal", string(current.State)),
			zap.String("ignored", string(st)))
	}
	if !current.State.CanTransition(st) {
		return r.anomaly("call state", "illegal transition",
			zap.String("call_id", s.CallID),
			zap.String("from", string(current.State)),
			zap.String("to", string(st)))
	}
	r.reg.SetCallState(s.CallID, st, s.Code)
	return event.CallStateChanged{AccountID: s.AccountID, CallID: s.CallID, State: st, Code: s.Code}
}

func (r *Router) applyConferenceCreated(s daemon.ConferenceCreated) event.Event {
	if s.ConferenceID == "" {
		return r.drop("conference created", "empty conference id")
	}
	if !r.reg.EnsureConference(model.Conference{
		ID:        s.ConferenceID,
		AccountID: s.AccountID,
		Layout:    model.LayoutGrid,
	}) {
		return r.anomaly("conference created", "id already removed",
			zap.String("conference_id", s.ConferenceID))
	}
	return event.ConferenceCreated{
		AccountID:      s.AccountID,
		ConversationID: s.ConversationID,
		ConferenceID:   s.ConferenceID,
	}
}

func (r *Router) applyConversationReady(s daemon.ConversationReady) event.Event {
	if s.AccountID == "" || s.ConversationID == "" {
		return r.drop("conversation ready", "empty account or conversation id")
	}
	if !r.reg.EnsureConversation(s.AccountID, s.ConversationID) {
		return r.anomaly("conversation ready", "id already removed",
			zap.String("conversation_id", s.ConversationID))
	}
	// An accepted request resolves once its conversation is ready.
	r.reg.RemoveConversationRequest(s.AccountID, s.ConversationID)
	return event.ConversationReady{AccountID: s.AccountID, ConversationID: s.ConversationID}
}

func (r *Router) applyConversationRequest(s daemon.ConversationRequestReceived) event.Event {
	if s.AccountID == "" || s.ConversationID == "" {
		return r.drop("conversation request", "empty account or conversation id")
	}
	req := model.ConversationRequest{
		AccountID:      s.AccountID,
		ConversationID: s.ConversationID,
		Metadata:       s.Metadata,
		From:           s.Metadata["from"],
	}
	r.reg.UpsertConversationRequest(req)
	return event.ConversationRequestReceived{AccountID: s.AccountID, Request: req}
}

func (r *Router) decodeMessage(conversationID string, m daemon.SwarmMessage) model.Message {
	return model.Message{
		ID:             m.ID,
		ConversationID: conversationID,
		Type:           m.Type,
		Author:         m.Author,
		Body:           m.Body,
		Reactions:      m.Reactions,
		Timestamp:      m.Timestamp,
		ReplyTo:        m.ReplyTo,
		Status:         m.Status,
	}
}

func (r *Router) ensureConversation(accountID, conversationID string) bool {
	return r.reg.EnsureConversation(accountID, conversationID)
}

func (r *Router) applyMessageReceived(s daemon.MessageReceived) event.Event {
	if s.ConversationID == "" || s.Message.ID == "" {
		return r.drop("message received", "empty conversation or message id")
	}
	if !r.ensureConversation(s.AccountID, s.ConversationID) {
		return r.anomaly("message received", "conversation already removed",
			zap.String("conversation_id", s.ConversationID))
	}
	msg := r.decodeMessage(s.ConversationID, s.Message)
	r.reg.PutMessage(msg)
	return event.MessageReceived{AccountID: s.AccountID, ConversationID: s.ConversationID, Message: msg}
}

func (r *Router) applyMessageUpdated(s daemon.MessageUpdated) event.Event {
	if s.ConversationID == "" || s.Message.ID == "" {
		return r.drop("message updated", "empty conversation or message id")
	}
	if !r.ensureConversation(s.AccountID, s.ConversationID) {
		return r.anomaly("message updated", "conversation already removed",
			zap.String("conversation_id", s.ConversationID))
	}
	// Unknown ids get a minimal synthesized entry so delivery-status
	// information is never lost.
	msg := r.decodeMessage(s.ConversationID, s.Message)
	r.reg.MergeMessageUpdate(msg)
	merged, _ := r.reg.Message(s.ConversationID, s.Message.ID)
	return event.MessageUpdated{AccountID: s.AccountID, ConversationID: s.ConversationID, Message: merged}
}

func (r *Router) applyMessagesLoaded(s daemon.MessagesLoaded) event.Event {
	if s.ConversationID == "" {
		return r.drop("messages loaded", "empty conversation id")
	}
	if !r.ensureConversation(s.AccountID, s.ConversationID) {
		return r.anomaly("messages loaded", "conversation already removed",
			zap.String("conversation_id", s.ConversationID))
	}
	msgs := make([]model.Message, 0, len(s.Messages))
	for _, wire := range s.Messages {
		if wire.ID == "" {
			continue
		}
		msg := r.decodeMessage(s.ConversationID, wire)
		r.reg.PutMessage(msg)
		msgs = append(msgs, msg)
	}
	return event.MessagesLoaded{
		RequestID:      s.RequestID,
		AccountID:      s.AccountID,
		ConversationID: s.ConversationID,
		Messages:       msgs,
	}
}

func (r *Router) applyMemberEvent(s daemon.ConversationMemberEvent) event.Event {
	if s.ConversationID == "" || s.MemberURI == "" {
		return r.drop("member event", "empty conversation id or member uri")
	}
	evt, ok := model.MemberEventFromWire(s.Event)
	if !ok {
		return r.drop("member event", "unknown event code", zap.Int("event", s.Event))
	}
	if !r.reg.ApplyMemberEvent(s.ConversationID, s.MemberURI, evt) {
		return r.anomaly("member event", "unknown conversation",
			zap.String("conversation_id", s.ConversationID))
	}
	return event.ConversationMemberEvent{
		AccountID:      s.AccountID,
		ConversationID: s.ConversationID,
		MemberURI:      s.MemberURI,
		Event:          evt,
	}
}

func (r *Router) applyConversationProfile(s daemon.ConversationProfileUpdated) event.Event {
	if s.ConversationID == "" {
		return r.drop("conversation profile", "empty conversation id")
	}
	if !r.reg.SetConversationInfo(s.ConversationID, s.Profile) {
		if !r.reg.UpsertConversation(model.Conversation{
			ID:        s.ConversationID,
			AccountID: s.AccountID,
			Info:      s.Profile,
		}) {
			return r.anomaly("conversation profile", "conversation already removed",
				zap.String("conversation_id", s.ConversationID))
		}
	}
	return event.ConversationProfileUpdated{
		AccountID:      s.AccountID,
		ConversationID: s.ConversationID,
		Profile:        s.Profile,
	}
}

func (r *Router) applyReactionAdded(s daemon.ReactionAdded) event.Event {
	if s.ConversationID == "" || s.MessageID == "" {
		return r.drop("reaction added", "empty conversation or message id")
	}
	if !r.ensureConversation(s.AccountID, s.ConversationID) {
		return r.anomaly("reaction added", "conversation already removed",
			zap.String("conversation_id", s.ConversationID))
	}
	r.reg.AddReaction(s.ConversationID, s.MessageID, s.Reaction)
	return event.ReactionAdded{
		AccountID:      s.AccountID,
		ConversationID: s.ConversationID,
		MessageID:      s.MessageID,
		Reaction:       s.Reaction,
	}
}

func (r *Router) applyContactAdded(s daemon.ContactAdded) event.Event {
	if s.AccountID == "" || s.URI == "" {
		return r.drop("contact added", "empty account id or uri")
	}
	contact := model.Contact{AccountID: s.AccountID, URI: s.URI, Confirmed: s.Confirmed}
	if existing, ok := r.reg.Contact(s.AccountID, s.URI); ok {
		contact.DisplayName = existing.DisplayName
		contact.AvatarPath = existing.AvatarPath
	}
	r.reg.UpsertContact(contact)
	// A confirmed contact resolves any pending trust request from that uri.
	if s.Confirmed {
		r.reg.RemoveTrustRequest(s.AccountID, s.URI)
	}
	return event.ContactAdded{AccountID: s.AccountID, URI: s.URI, Confirmed: s.Confirmed}
}

func (r *Router) applyContactRemoved(s daemon.ContactRemoved) event.Event {
	if s.AccountID == "" || s.URI == "" {
		return r.drop("contact removed", "empty account id or uri")
	}
	if s.Banned {
		// Banned contacts stay cached with the ban flag; banning
		// supersedes the confirmed flag.
		r.reg.UpsertContact(model.Contact{AccountID: s.AccountID, URI: s.URI, Banned: true})
	} else {
		r.reg.RemoveContact(s.AccountID, s.URI)
	}
	r.reg.RemoveTrustRequest(s.AccountID, s.URI)
	return event.ContactRemoved{AccountID: s.AccountID, URI: s.URI, Banned: s.Banned}
}

func (r *Router) applyTrustRequest(s daemon.IncomingTrustRequest) event.Event {
	if s.AccountID == "" || s.From == "" {
		return r.drop("trust request", "empty account id or sender")
	}
	req := model.TrustRequest{
		AccountID:      s.AccountID,
		From:           s.From,
		ConversationID: s.ConversationID,
		Payload:        s.Payload,
		Received:       s.Received,
	}
	r.reg.UpsertTrustRequest(req)
	return event.IncomingTrustRequest{AccountID: s.AccountID, Request: req}
}

func (r *Router) applyFileTransfer(s daemon.FileTransferEvent) event.Event {
	if s.FileID == "" {
		return r.drop("file transfer", "empty file id")
	}
	transfer := model.FileTransfer{
		ID:             s.FileID,
		AccountID:      s.AccountID,
		ConversationID: s.ConversationID,
		Path:           s.Path,
		DisplayName:    s.DisplayName,
		TotalSize:      s.TotalSize,
		Progress:       s.Progress,
		BytesPerSecond: s.BytesPerSecond,
		Author:         s.Author,
		Flags:          s.Flags,
	}
	if !r.reg.UpsertTransfer(transfer) {
		return r.anomaly("file transfer", "event after terminal state",
			zap.String("file_id", s.FileID))
	}
	updated, _ := r.reg.Transfer(s.FileID)
	return event.FileTransferUpdated{AccountID: s.AccountID, Transfer: updated}
}
