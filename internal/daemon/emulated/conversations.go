package emulated

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/leiter/jami-kmp/internal/daemon"
	"github.com/leiter/jami-kmp/internal/model"
	"go.uber.org/zap"
)

// Wire codes for member events, in native enum order.
const (
	wireMemberJoin  = 0
	wireMemberLeave = 1
)

func (d *Daemon) Conversations(_ context.Context, accountID string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return nil, err
	}
	return d.db.conversationIDs(accountID)
}

// StartConversation creates a swarm with the account as sole admin member.
func (d *Daemon) StartConversation(_ context.Context, accountID string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return "", err
	}
	if ok, err := d.db.hasAccount(accountID); err != nil {
		return "", err
	} else if !ok {
		return "", fmt.Errorf("no such account %q", accountID)
	}
	id := uuid.NewString()
	if err := d.db.insertConversation(id, accountID, map[string]string{"mode": "invites-only"}); err != nil {
		return "", fmt.Errorf("insert conversation: %w", err)
	}
	if err := d.db.upsertMember(id, deviceID(accountID), model.RoleAdmin); err != nil {
		return "", err
	}
	d.logger.Info("conversation started",
		zap.String("account_id", accountID), zap.String("conversation_id", id))
	d.emit(daemon.ConversationReady{AccountID: accountID, ConversationID: id})
	return id, nil
}

func (d *Daemon) RemoveConversation(_ context.Context, accountID, conversationID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return err
	}
	if ok, err := d.db.hasConversation(conversationID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("no such conversation %q", conversationID)
	}
	if err := d.db.deleteConversation(conversationID); err != nil {
		return err
	}
	d.emit(daemon.ConversationRemoved{AccountID: accountID, ConversationID: conversationID})
	return nil
}

func (d *Daemon) ConversationInfo(_ context.Context, accountID, conversationID string) (map[string]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return nil, err
	}
	return d.db.conversationInfo(conversationID)
}

func (d *Daemon) UpdateConversationInfo(_ context.Context, accountID, conversationID string, info map[string]string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return err
	}
	current, err := d.db.conversationInfo(conversationID)
	if err != nil {
		return err
	}
	for k, v := range info {
		current[k] = v
	}
	if err := d.db.setConversationInfo(conversationID, current); err != nil {
		return err
	}
	d.emit(daemon.ConversationProfileUpdated{
		AccountID:      accountID,
		ConversationID: conversationID,
		Profile:        current,
	})
	return nil
}

func (d *Daemon) ConversationMembers(_ context.Context, accountID, conversationID string) ([]model.Member, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return nil, err
	}
	return d.db.members(conversationID)
}

// AddConversationMember invites a peer. The emulated peer accepts at once,
// so the invite lands as a join.
func (d *Daemon) AddConversationMember(_ context.Context, accountID, conversationID, contactURI string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return err
	}
	if ok, err := d.db.hasConversation(conversationID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("no such conversation %q", conversationID)
	}
	if err := d.db.upsertMember(conversationID, contactURI, model.RoleMember); err != nil {
		return err
	}
	d.emit(daemon.ConversationMemberEvent{
		AccountID:      accountID,
		ConversationID: conversationID,
		MemberURI:      contactURI,
		Event:          wireMemberJoin,
	})
	return nil
}

func (d *Daemon) RemoveConversationMember(_ context.Context, accountID, conversationID, contactURI string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return err
	}
	if err := d.db.deleteMember(conversationID, contactURI); err != nil {
		return err
	}
	d.emit(daemon.ConversationMemberEvent{
		AccountID:      accountID,
		ConversationID: conversationID,
		MemberURI:      contactURI,
		Event:          wireMemberLeave,
	})
	return nil
}

// AcceptConversationRequest materializes the invited conversation.
func (d *Daemon) AcceptConversationRequest(_ context.Context, accountID, conversationID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return err
	}
	req, ok := d.dropConversationRequest(accountID, conversationID)
	if !ok {
		return fmt.Errorf("no pending request for conversation %q", conversationID)
	}
	if err := d.db.insertConversation(conversationID, accountID, req.Metadata); err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	if err := d.db.upsertMember(conversationID, req.From, model.RoleAdmin); err != nil {
		return err
	}
	if err := d.db.upsertMember(conversationID, deviceID(accountID), model.RoleMember); err != nil {
		return err
	}
	d.emit(daemon.ConversationReady{AccountID: accountID, ConversationID: conversationID})
	return nil
}

func (d *Daemon) DeclineConversationRequest(_ context.Context, accountID, conversationID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return err
	}
	if _, ok := d.dropConversationRequest(accountID, conversationID); !ok {
		return fmt.Errorf("no pending request for conversation %q", conversationID)
	}
	return nil
}

func (d *Daemon) ConversationRequests(_ context.Context, accountID string) ([]model.ConversationRequest, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return nil, err
	}
	reqs := d.convReqs[accountID]
	out := make([]model.ConversationRequest, len(reqs))
	copy(out, reqs)
	return out, nil
}

func (d *Daemon) dropConversationRequest(accountID, conversationID string) (model.ConversationRequest, bool) {
	reqs := d.convReqs[accountID]
	for i, r := range reqs {
		if r.ConversationID == conversationID {
			d.convReqs[accountID] = append(reqs[:i], reqs[i+1:]...)
			return r, true
		}
	}
	return model.ConversationRequest{}, false
}
