package bridge

import (
	"github.com/leiter/jami-kmp/internal/errors"
	"github.com/leiter/jami-kmp/internal/model"
)

// SendFile offers a file into a conversation and returns the transfer id.
// Progress and the terminal outcome arrive as file-transfer events.
func (b *Bridge) SendFile(accountID, conversationID, filePath, displayName string) (string, error) {
	if err := b.requireConversation(accountID, conversationID); err != nil {
		return "", err
	}
	if filePath == "" {
		return "", errors.New(errors.InvalidArgument, "empty file path")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	fileID, err := b.d.SendFile(ctx, accountID, conversationID, filePath, displayName)
	if err != nil {
		return "", daemonErr("send file", err)
	}
	b.reg.UpsertTransfer(model.FileTransfer{
		ID:             fileID,
		AccountID:      accountID,
		ConversationID: conversationID,
		Path:           filePath,
		DisplayName:    displayName,
	})
	return fileID, nil
}

// AcceptFileTransfer accepts an incoming transfer into destinationPath.
func (b *Bridge) AcceptFileTransfer(accountID, conversationID, interactionID, fileID, destinationPath string) error {
	if err := b.requireConversation(accountID, conversationID); err != nil {
		return err
	}
	if fileID == "" || destinationPath == "" {
		return errors.New(errors.InvalidArgument, "empty file id or destination")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("accept file transfer", b.d.AcceptFileTransfer(ctx, accountID, conversationID, interactionID, fileID, destinationPath))
}

// CancelFileTransfer cancels an in-flight transfer. The cancellation is
// observed via the subsequent terminal file-transfer event.
func (b *Bridge) CancelFileTransfer(accountID, conversationID, fileID string) error {
	if err := b.requireConversation(accountID, conversationID); err != nil {
		return err
	}
	if fileID == "" {
		return errors.New(errors.InvalidArgument, "empty file id")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("cancel file transfer", b.d.CancelFileTransfer(ctx, accountID, conversationID, fileID))
}

// FileTransferInfo returns the transfer's current progress snapshot, or a
// NotFound error for an unknown id.
func (b *Bridge) FileTransferInfo(accountID, conversationID, fileID string) (model.FileTransfer, error) {
	if err := b.requireConversation(accountID, conversationID); err != nil {
		return model.FileTransfer{}, err
	}
	if fileID == "" {
		return model.FileTransfer{}, errors.New(errors.InvalidArgument, "empty file id")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	info, err := b.d.FileTransferInfo(ctx, accountID, conversationID, fileID)
	if err != nil {
		return model.FileTransfer{}, daemonErr("file transfer info", err)
	}
	if info == nil {
		return model.FileTransfer{}, errors.New(errors.NotFound, "unknown file transfer %q", fileID)
	}
	b.reg.UpsertTransfer(*info)
	return *info, nil
}
