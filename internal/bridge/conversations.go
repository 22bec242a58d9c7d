package bridge

import (
	"github.com/leiter/jami-kmp/internal/errors"
	"github.com/leiter/jami-kmp/internal/model"
)

// Conversations returns the account's conversation ids.
func (b *Bridge) Conversations(accountID string) ([]string, error) {
	if err := b.requireAccount(accountID); err != nil {
		return nil, err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	ids, err := b.d.Conversations(ctx, accountID)
	if err != nil {
		return nil, daemonErr("list conversations", err)
	}
	for _, id := range ids {
		b.reg.EnsureConversation(accountID, id)
	}
	return ids, nil
}

// StartConversation creates a new swarm conversation and returns its id.
func (b *Bridge) StartConversation(accountID string) (string, error) {
	if err := b.requireAccount(accountID); err != nil {
		return "", err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	id, err := b.d.StartConversation(ctx, accountID)
	if err != nil {
		return "", daemonErr("start conversation", err)
	}
	b.reg.EnsureConversation(accountID, id)
	return id, nil
}

// RemoveConversation removes a conversation. The id is tombstoned so late
// events cannot resurrect it.
func (b *Bridge) RemoveConversation(accountID, conversationID string) error {
	if err := b.requireConversation(accountID, conversationID); err != nil {
		return err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	if err := b.d.RemoveConversation(ctx, accountID, conversationID); err != nil {
		return daemonErr("remove conversation", err)
	}
	b.reg.RemoveConversation(accountID, conversationID)
	return nil
}

// ConversationInfo returns the conversation's profile map.
func (b *Bridge) ConversationInfo(accountID, conversationID string) (map[string]string, error) {
	if err := b.requireConversation(accountID, conversationID); err != nil {
		return nil, err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	info, err := b.d.ConversationInfo(ctx, accountID, conversationID)
	if err != nil {
		return nil, daemonErr("conversation info", err)
	}
	b.reg.SetConversationInfo(conversationID, info)
	return info, nil
}

// UpdateConversationInfo publishes profile changes. The daemon confirms
// through a conversation-profile event.
func (b *Bridge) UpdateConversationInfo(accountID, conversationID string, info map[string]string) error {
	if err := b.requireConversation(accountID, conversationID); err != nil {
		return err
	}
	if len(info) == 0 {
		return errors.New(errors.InvalidArgument, "empty info")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("update conversation info", b.d.UpdateConversationInfo(ctx, accountID, conversationID, info))
}

// ConversationMembers returns the member list with roles.
func (b *Bridge) ConversationMembers(accountID, conversationID string) ([]model.Member, error) {
	if err := b.requireConversation(accountID, conversationID); err != nil {
		return nil, err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	members, err := b.d.ConversationMembers(ctx, accountID, conversationID)
	if err != nil {
		return nil, daemonErr("conversation members", err)
	}
	b.reg.SetConversationMembers(conversationID, members)
	return members, nil
}

// AddConversationMember invites a contact into the conversation. Membership
// changes arrive as member events.
func (b *Bridge) AddConversationMember(accountID, conversationID, contactURI string) error {
	if err := b.requireConversation(accountID, conversationID); err != nil {
		return err
	}
	if contactURI == "" {
		return errors.New(errors.InvalidArgument, "empty uri")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("add conversation member", b.d.AddConversationMember(ctx, accountID, conversationID, contactURI))
}

// RemoveConversationMember removes a member from the conversation.
func (b *Bridge) RemoveConversationMember(accountID, conversationID, contactURI string) error {
	if err := b.requireConversation(accountID, conversationID); err != nil {
		return err
	}
	if contactURI == "" {
		return errors.New(errors.InvalidArgument, "empty uri")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("remove conversation member", b.d.RemoveConversationMember(ctx, accountID, conversationID, contactURI))
}

// AcceptConversationRequest joins a conversation the account was invited
// to. The daemon signals readiness through a conversation-ready event,
// which also resolves the pending request.
func (b *Bridge) AcceptConversationRequest(accountID, conversationID string) error {
	if err := b.requireAccount(accountID); err != nil {
		return err
	}
	if conversationID == "" {
		return errors.New(errors.InvalidArgument, "empty conversation id")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("accept conversation request", b.d.AcceptConversationRequest(ctx, accountID, conversationID))
}

// DeclineConversationRequest declines a pending invitation.
func (b *Bridge) DeclineConversationRequest(accountID, conversationID string) error {
	if err := b.requireAccount(accountID); err != nil {
		return err
	}
	if conversationID == "" {
		return errors.New(errors.InvalidArgument, "empty conversation id")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	if err := b.d.DeclineConversationRequest(ctx, accountID, conversationID); err != nil {
		return daemonErr("decline conversation request", err)
	}
	b.reg.RemoveConversationRequest(accountID, conversationID)
	return nil
}

// ConversationRequests returns the account's pending invitations.
func (b *Bridge) ConversationRequests(accountID string) ([]model.ConversationRequest, error) {
	if err := b.requireAccount(accountID); err != nil {
		return nil, err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	reqs, err := b.d.ConversationRequests(ctx, accountID)
	if err != nil {
		return nil, daemonErr("list conversation requests", err)
	}
	for _, req := range reqs {
		req.AccountID = accountID
		b.reg.UpsertConversationRequest(req)
	}
	return reqs, nil
}

// requireConversation validates an account-scoped conversation reference
// without contacting the daemon.
func (b *Bridge) requireConversation(accountID, conversationID string) error {
	if err := b.requireAccount(accountID); err != nil {
		return err
	}
	if conversationID == "" {
		return errors.New(errors.InvalidArgument, "empty conversation id")
	}
	if _, ok := b.reg.Conversation(conversationID); !ok {
		return errors.New(errors.NotFound, "unknown conversation %q", conversationID)
	}
	return nil
}
