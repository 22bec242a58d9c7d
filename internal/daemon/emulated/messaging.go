package emulated

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/leiter/jami-kmp/internal/daemon"
)

// Message status codes carried in swarm message status maps.
const (
	statusSent      = 2
	statusDisplayed = 3
)

// SendMessage persists the message and echoes it back as received, the way
// the daemon reports the sender's own messages.
func (d *Daemon) SendMessage(_ context.Context, accountID, conversationID, body, replyTo string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return "", err
	}
	if ok, err := d.db.hasConversation(conversationID); err != nil {
		return "", err
	} else if !ok {
		return "", fmt.Errorf("no such conversation %q", conversationID)
	}
	msg := daemonMessage{
		ID:        uuid.NewString(),
		Author:    deviceID(accountID),
		Type:      "text/plain",
		Body:      map[string]string{"body": body},
		ReplyTo:   replyTo,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := d.db.insertMessage(conversationID, msg); err != nil {
		return "", fmt.Errorf("insert message: %w", err)
	}
	d.emit(daemon.MessageReceived{
		AccountID:      accountID,
		ConversationID: conversationID,
		Message:        wireMessage(msg),
	})
	return msg.ID, nil
}

// LoadMessages schedules a history page and returns the request id carried
// by the resulting messages-loaded signal.
func (d *Daemon) LoadMessages(_ context.Context, accountID, conversationID, fromMessage string, count int) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return 0, err
	}
	if ok, err := d.db.hasConversation(conversationID); err != nil {
		return 0, err
	} else if !ok {
		return 0, fmt.Errorf("no such conversation %q", conversationID)
	}
	page, err := d.db.messagesBefore(conversationID, fromMessage, count)
	if err != nil {
		return 0, fmt.Errorf("load page: %w", err)
	}
	id := int(d.requestID.Add(1))
	wire := make([]daemon.SwarmMessage, len(page))
	for i, m := range page {
		wire[i] = wireMessage(m)
	}
	d.emit(daemon.MessagesLoaded{
		RequestID:      id,
		AccountID:      accountID,
		ConversationID: conversationID,
		Messages:       wire,
	})
	return id, nil
}

func (d *Daemon) SetComposing(_ context.Context, accountID, conversationID string, composing bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return err
	}
	d.emit(daemon.ComposingStatusChanged{
		AccountID:      accountID,
		ConversationID: conversationID,
		From:           deviceID(accountID),
		Composing:      composing,
	})
	return nil
}

// SetMessageDisplayed marks the message read by this account and reports
// the status change as a message update.
func (d *Daemon) SetMessageDisplayed(_ context.Context, accountID, conversationID, messageID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return err
	}
	d.emit(daemon.MessageUpdated{
		AccountID:      accountID,
		ConversationID: conversationID,
		Message: daemon.SwarmMessage{
			ID:     messageID,
			Status: map[string]int{deviceID(accountID): statusDisplayed},
		},
	})
	return nil
}

func wireMessage(m daemonMessage) daemon.SwarmMessage {
	return daemon.SwarmMessage{
		ID:        m.ID,
		Type:      m.Type,
		Author:    m.Author,
		Body:      m.Body,
		Timestamp: m.Timestamp,
		ReplyTo:   m.ReplyTo,
		Status:    map[string]int{m.Author: statusSent},
	}
}
