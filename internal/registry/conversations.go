package registry

import (
	"maps"

	"github.com/leiter/jami-kmp/internal/model"
)

// Conversation returns a snapshot of a conversation, or false if unknown.
func (r *Registry) Conversation(id string) (model.Conversation, bool) {
	r.convsMu.RLock()
	defer r.convsMu.RUnlock()
	c, ok := r.convs[id]
	if !ok {
		return model.Conversation{}, false
	}
	out := *c
	out.Info = maps.Clone(c.Info)
	out.Members = append([]model.Member(nil), c.Members...)
	return out, true
}

// Conversations returns the account's conversation ids in insertion order.
func (r *Registry) Conversations(accountID string) []string {
	r.convsMu.RLock()
	defer r.convsMu.RUnlock()
	return append([]string(nil), r.convIDs[accountID]...)
}

// UpsertConversation inserts or replaces a conversation. Returns false if
// the id is tombstoned.
func (r *Registry) UpsertConversation(c model.Conversation) bool {
	r.convsMu.Lock()
	defer r.convsMu.Unlock()
	if _, dead := r.deadConvs[c.ID]; dead {
		return false
	}
	stored := c
	stored.Info = maps.Clone(c.Info)
	stored.Members = append([]model.Member(nil), c.Members...)
	r.convs[c.ID] = &stored
	r.convIDs[c.AccountID] = appendUnique(r.convIDs[c.AccountID], c.ID)
	return true
}

// EnsureConversation caches a minimal entry if the id is unknown, leaving
// any existing entry untouched. Returns false if the id is tombstoned.
func (r *Registry) EnsureConversation(accountID, id string) bool {
	r.convsMu.Lock()
	defer r.convsMu.Unlock()
	if _, dead := r.deadConvs[id]; dead {
		return false
	}
	if _, ok := r.convs[id]; !ok {
		r.convs[id] = &model.Conversation{ID: id, AccountID: accountID}
		r.convIDs[accountID] = appendUnique(r.convIDs[accountID], id)
	}
	return true
}

// SetConversationInfo replaces the info map of a cached conversation.
func (r *Registry) SetConversationInfo(id string, info map[string]string) bool {
	r.convsMu.Lock()
	defer r.convsMu.Unlock()
	c, ok := r.convs[id]
	if !ok {
		return false
	}
	c.Info = maps.Clone(info)
	return true
}

// SetConversationMembers replaces the member list of a cached conversation.
func (r *Registry) SetConversationMembers(id string, members []model.Member) bool {
	r.convsMu.Lock()
	defer r.convsMu.Unlock()
	c, ok := r.convs[id]
	if !ok {
		return false
	}
	c.Members = append([]model.Member(nil), members...)
	return true
}

// ApplyMemberEvent mutates a conversation's member set for a join, leave,
// ban or unban. Returns false if the conversation is unknown.
func (r *Registry) ApplyMemberEvent(conversationID, uri string, evt model.MemberEvent) bool {
	r.convsMu.Lock()
	defer r.convsMu.Unlock()
	c, ok := r.convs[conversationID]
	if !ok {
		return false
	}
	idx := -1
	for i := range c.Members {
		if c.Members[i].URI == uri {
			idx = i
			break
		}
	}
	switch evt {
	case model.MemberJoin:
		if idx >= 0 {
			c.Members[idx].Role = model.RoleMember
		} else {
			c.Members = append(c.Members, model.Member{URI: uri, Role: model.RoleMember})
		}
	case model.MemberLeave:
		if idx >= 0 {
			c.Members = append(c.Members[:idx], c.Members[idx+1:]...)
		}
	case model.MemberBan:
		if idx >= 0 {
			c.Members[idx].Role = model.RoleBanned
		} else {
			c.Members = append(c.Members, model.Member{URI: uri, Role: model.RoleBanned})
		}
	case model.MemberUnban:
		if idx >= 0 {
			c.Members[idx].Role = model.RoleMember
		}
	}
	return true
}

// RemoveConversation evicts a conversation, its cached messages and its id
// (tombstoned; swarm ids are never reused).
func (r *Registry) RemoveConversation(accountID, id string) {
	r.convsMu.Lock()
	delete(r.convs, id)
	r.convIDs[accountID] = remove(r.convIDs[accountID], id)
	r.deadConvs[id] = struct{}{}
	r.convsMu.Unlock()

	r.messagesMu.Lock()
	delete(r.messages, id)
	r.messagesMu.Unlock()
}

// ConversationRequests returns the account's pending conversation requests.
func (r *Registry) ConversationRequests(accountID string) []model.ConversationRequest {
	r.convsMu.RLock()
	defer r.convsMu.RUnlock()
	byConv := r.convReqs[accountID]
	out := make([]model.ConversationRequest, 0, len(byConv))
	for _, req := range byConv {
		cp := *req
		cp.Metadata = maps.Clone(req.Metadata)
		out = append(out, cp)
	}
	return out
}

// UpsertConversationRequest records a pending conversation request.
func (r *Registry) UpsertConversationRequest(req model.ConversationRequest) {
	r.convsMu.Lock()
	defer r.convsMu.Unlock()
	byConv := r.convReqs[req.AccountID]
	if byConv == nil {
		byConv = make(map[string]*model.ConversationRequest)
		r.convReqs[req.AccountID] = byConv
	}
	stored := req
	stored.Metadata = maps.Clone(req.Metadata)
	byConv[req.ConversationID] = &stored
}

// RemoveConversationRequest evicts a pending request once resolved.
func (r *Registry) RemoveConversationRequest(accountID, conversationID string) {
	r.convsMu.Lock()
	defer r.convsMu.Unlock()
	delete(r.convReqs[accountID], conversationID)
}
