package emulated

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/leiter/jami-kmp/internal/daemon"
	"github.com/leiter/jami-kmp/internal/model"
	"go.uber.org/zap"
)

// transferChunks splits an emulated transfer into this many progress
// emissions.
const transferChunks = 5

// transferSim is a session-scoped emulated file transfer. The progress
// loop runs on its own goroutine and is stopped by cancel or daemon stop.
type transferSim struct {
	info    model.FileTransfer
	cancel  chan struct{}
	stopped bool
}

// stop halts the progress loop. Caller holds d.mu.
func (t *transferSim) stop() {
	if !t.stopped {
		t.stopped = true
		close(t.cancel)
	}
}

// SendFile starts an outgoing transfer. Progress is reported in chunks
// until the done flag, mirroring the daemon's transfer callbacks.
func (d *Daemon) SendFile(_ context.Context, accountID, conversationID, filePath, displayName string) (string, error) {
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
	fi, err := os.Stat(filePath)
	if err != nil {
		return "", fmt.Errorf("stat file: %w", err)
	}
	t := &transferSim{
		info: model.FileTransfer{
			ID:             uuid.NewString(),
			AccountID:      accountID,
			ConversationID: conversationID,
			Path:           filePath,
			DisplayName:    displayName,
			TotalSize:      fi.Size(),
			Author:         deviceID(accountID),
		},
		cancel: make(chan struct{}),
	}
	d.transfers[t.info.ID] = t
	d.logger.Info("file transfer started",
		zap.String("file_id", t.info.ID), zap.Int64("size", t.info.TotalSize))
	d.emit(transferEvent(t.info))
	go d.runTransfer(t)
	return t.info.ID, nil
}

// AcceptFileTransfer accepts an incoming transfer and begins receiving
// into destinationPath.
func (d *Daemon) AcceptFileTransfer(_ context.Context, accountID, conversationID, interactionID, fileID, destinationPath string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return err
	}
	t, ok := d.transfers[fileID]
	if !ok {
		return fmt.Errorf("no such transfer %q", fileID)
	}
	if t.info.Flags&model.TransferFlagIncoming == 0 {
		return fmt.Errorf("transfer %q is not incoming", fileID)
	}
	if t.info.Terminal() {
		return fmt.Errorf("transfer %q already finished", fileID)
	}
	t.info.Path = destinationPath
	d.emit(transferEvent(t.info))
	go d.runTransfer(t)
	return nil
}

// CancelFileTransfer aborts the transfer with the canceled flag.
func (d *Daemon) CancelFileTransfer(_ context.Context, accountID, conversationID, fileID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return err
	}
	t, ok := d.transfers[fileID]
	if !ok {
		return fmt.Errorf("no such transfer %q", fileID)
	}
	if t.info.Terminal() {
		return fmt.Errorf("transfer %q already finished", fileID)
	}
	t.stop()
	t.info.Flags |= model.TransferFlagCanceled
	t.info.BytesPerSecond = 0
	d.emit(transferEvent(t.info))
	return nil
}

func (d *Daemon) FileTransferInfo(_ context.Context, accountID, conversationID, fileID string) (*model.FileTransfer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return nil, err
	}
	t, ok := d.transfers[fileID]
	if !ok {
		return nil, fmt.Errorf("no such transfer %q", fileID)
	}
	info := t.info
	return &info, nil
}

// runTransfer drives progress to completion unless canceled or stopped.
func (d *Daemon) runTransfer(t *transferSim) {
	chunk := t.info.TotalSize/transferChunks + 1
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.mu.Lock()
			if !d.running || t.info.Terminal() {
				d.mu.Unlock()
				return
			}
			t.info.Progress += chunk
			t.info.BytesPerSecond = chunk * 50
			if t.info.Progress >= t.info.TotalSize {
				t.info.Progress = t.info.TotalSize
				t.info.Flags |= model.TransferFlagDone
				t.info.BytesPerSecond = 0
			}
			d.emit(transferEvent(t.info))
			finished := t.info.Terminal()
			if finished {
				t.stop()
			}
			d.mu.Unlock()
			if finished {
				return
			}
		case <-t.cancel:
			return
		}
	}
}

func transferEvent(info model.FileTransfer) daemon.FileTransferEvent {
	return daemon.FileTransferEvent{
		AccountID:      info.AccountID,
		ConversationID: info.ConversationID,
		FileID:         info.ID,
		Path:           info.Path,
		DisplayName:    info.DisplayName,
		TotalSize:      info.TotalSize,
		Progress:       info.Progress,
		BytesPerSecond: info.BytesPerSecond,
		Author:         info.Author,
		Flags:          info.Flags,
	}
}
