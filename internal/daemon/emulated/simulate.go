package emulated

import (
	"time"

	"github.com/google/uuid"
	"github.com/leiter/jami-kmp/internal/daemon"
	"github.com/leiter/jami-kmp/internal/model"
)

// Simulation entry points inject peer-originated traffic. The daemon has
// no real network, so inbound calls, messages and requests come from here.

// SimulateIncomingCall rings the account from peerURI and returns the
// call id.
func (d *Daemon) SimulateIncomingCall(accountID, peerURI, peerName string, withVideo bool) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return ""
	}
	id := uuid.NewString()
	d.calls[id] = &callSim{
		id:        id,
		accountID: accountID,
		peerURI:   peerURI,
		hasVideo:  withVideo,
		state:     wireCallIncoming,
	}
	d.emit(daemon.IncomingCall{
		AccountID:       accountID,
		CallID:          id,
		PeerID:          peerURI,
		PeerDisplayName: peerName,
		HasVideo:        withVideo,
	})
	return id
}

// SimulatePeerAnswer moves a ringing outgoing call to current.
func (d *Daemon) SimulatePeerAnswer(callID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, err := d.liveCall(callID)
	if err != nil || c.state != wireCallRinging {
		return
	}
	c.state = wireCallCurrent
	d.emit(daemon.CallStateChanged{AccountID: c.accountID, CallID: callID, State: wireCallCurrent})
}

// SimulatePeerHangup ends a live call from the remote side.
func (d *Daemon) SimulatePeerHangup(callID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, err := d.liveCall(callID)
	if err != nil {
		return
	}
	c.state = wireCallHungup
	d.emit(daemon.CallStateChanged{AccountID: c.accountID, CallID: callID, State: wireCallHungup})
}

// SimulateIncomingMessage delivers a peer message into a conversation and
// returns the message id.
func (d *Daemon) SimulateIncomingMessage(accountID, conversationID, author, body string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return ""
	}
	msg := daemonMessage{
		ID:        uuid.NewString(),
		Author:    author,
		Type:      "text/plain",
		Body:      map[string]string{"body": body},
		Timestamp: time.Now().UnixMilli(),
	}
	if ok, err := d.db.hasConversation(conversationID); err == nil && ok {
		_ = d.db.insertMessage(conversationID, msg)
	}
	d.emit(daemon.MessageReceived{
		AccountID:      accountID,
		ConversationID: conversationID,
		Message:        wireMessage(msg),
	})
	return msg.ID
}

// SimulateTrustRequest delivers an incoming trust request from peerURI.
func (d *Daemon) SimulateTrustRequest(accountID, peerURI string, payload []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}
	received := time.Now().Unix()
	conversationID := uuid.NewString()
	d.trustReqs[accountID] = append(d.trustReqs[accountID], model.TrustRequest{
		AccountID:      accountID,
		From:           peerURI,
		ConversationID: conversationID,
		Payload:        payload,
		Received:       received,
	})
	d.emit(daemon.IncomingTrustRequest{
		AccountID:      accountID,
		ConversationID: conversationID,
		From:           peerURI,
		Payload:        payload,
		Received:       received,
	})
}

// SimulateConversationRequest delivers a swarm invitation from peerURI and
// returns the conversation id.
func (d *Daemon) SimulateConversationRequest(accountID, peerURI string, metadata map[string]string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return ""
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadata["from"] = peerURI
	conversationID := uuid.NewString()
	d.convReqs[accountID] = append(d.convReqs[accountID], model.ConversationRequest{
		AccountID:      accountID,
		ConversationID: conversationID,
		From:           peerURI,
		Metadata:       metadata,
		Received:       time.Now().Unix(),
	})
	d.emit(daemon.ConversationRequestReceived{
		AccountID:      accountID,
		ConversationID: conversationID,
		Metadata:       metadata,
	})
	return conversationID
}

// SimulateIncomingTransfer offers a file from peerURI and returns the
// file id. Progress starts once the transfer is accepted.
func (d *Daemon) SimulateIncomingTransfer(accountID, conversationID, peerURI, displayName string, size int64) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return ""
	}
	t := &transferSim{
		info: model.FileTransfer{
			ID:             uuid.NewString(),
			AccountID:      accountID,
			ConversationID: conversationID,
			DisplayName:    displayName,
			TotalSize:      size,
			Author:         peerURI,
			Flags:          model.TransferFlagIncoming,
		},
		cancel: make(chan struct{}),
	}
	d.transfers[t.info.ID] = t
	d.emit(transferEvent(t.info))
	return t.info.ID
}

// SimulatePresence reports a peer's presence change.
func (d *Daemon) SimulatePresence(accountID, uri string, online bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}
	d.emit(daemon.PresenceChanged{AccountID: accountID, URI: uri, Online: online})
}
