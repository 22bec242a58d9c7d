package bridge

import (
	"github.com/leiter/jami-kmp/internal/errors"
)

// SendMessage posts a message to a conversation and returns its id. The
// committed message arrives back as a message-received event.
func (b *Bridge) SendMessage(accountID, conversationID, body, replyTo string) (string, error) {
	if err := b.requireConversation(accountID, conversationID); err != nil {
		return "", err
	}
	if body == "" {
		return "", errors.New(errors.InvalidArgument, "empty message body")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	id, err := b.d.SendMessage(ctx, accountID, conversationID, body, replyTo)
	if err != nil {
		return "", daemonErr("send message", err)
	}
	return id, nil
}

// LoadMessages requests a history page starting after fromMessage (empty
// for the newest) and returns a request id. The page arrives as a
// messages-loaded event carrying the same id, which correlates concurrent
// page requests regardless of arrival order.
func (b *Bridge) LoadMessages(accountID, conversationID, fromMessage string, count int) (int, error) {
	if err := b.requireConversation(accountID, conversationID); err != nil {
		return 0, err
	}
	if count <= 0 {
		return 0, errors.New(errors.InvalidArgument, "non-positive page size")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	requestID, err := b.d.LoadMessages(ctx, accountID, conversationID, fromMessage, count)
	if err != nil {
		return 0, daemonErr("load messages", err)
	}
	return requestID, nil
}

// SetComposing publishes the local composing indicator.
func (b *Bridge) SetComposing(accountID, conversationID string, composing bool) error {
	if err := b.requireConversation(accountID, conversationID); err != nil {
		return err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("set composing", b.d.SetComposing(ctx, accountID, conversationID, composing))
}

// SetMessageDisplayed marks a message as read. Peers observe the change
// through message-update events.
func (b *Bridge) SetMessageDisplayed(accountID, conversationID, messageID string) error {
	if err := b.requireConversation(accountID, conversationID); err != nil {
		return err
	}
	if messageID == "" {
		return errors.New(errors.InvalidArgument, "empty message id")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("set message displayed", b.d.SetMessageDisplayed(ctx, accountID, conversationID, messageID))
}
