package registry

import (
	"maps"

	"github.com/leiter/jami-kmp/internal/model"
)

// Message returns a snapshot of a cached message, or false if unknown.
func (r *Registry) Message(conversationID, messageID string) (model.Message, bool) {
	r.messagesMu.RLock()
	defer r.messagesMu.RUnlock()
	m, ok := r.messages[conversationID][messageID]
	if !ok {
		return model.Message{}, false
	}
	return copyMessage(m), true
}

// Messages returns all cached messages for a conversation. The cache is a
// partial view; full history lives on the daemon and is paged in on demand.
func (r *Registry) Messages(conversationID string) []model.Message {
	r.messagesMu.RLock()
	defer r.messagesMu.RUnlock()
	byID := r.messages[conversationID]
	out := make([]model.Message, 0, len(byID))
	for _, m := range byID {
		out = append(out, copyMessage(m))
	}
	return out
}

// PutMessage caches a received or page-loaded message. If the id already
// exists the status and reactions merge instead of replacing; message
// content is immutable after creation.
func (r *Registry) PutMessage(m model.Message) {
	r.messagesMu.Lock()
	defer r.messagesMu.Unlock()
	byID := r.messages[m.ConversationID]
	if byID == nil {
		byID = make(map[string]*model.Message)
		r.messages[m.ConversationID] = byID
	}
	existing, ok := byID[m.ID]
	if !ok {
		stored := copyMessage(&m)
		byID[m.ID] = &stored
		return
	}
	mergeStatus(existing, m.Status)
	mergeReactions(existing, m.Reactions)
}

// MergeMessageUpdate applies a message-update event. An unknown id gets a
// minimal synthesized entry so delivery-status information is not lost.
// The merge is idempotent: applying the same update twice equals once.
func (r *Registry) MergeMessageUpdate(m model.Message) {
	r.messagesMu.Lock()
	defer r.messagesMu.Unlock()
	byID := r.messages[m.ConversationID]
	if byID == nil {
		byID = make(map[string]*model.Message)
		r.messages[m.ConversationID] = byID
	}
	existing, ok := byID[m.ID]
	if !ok {
		stored := copyMessage(&m)
		byID[m.ID] = &stored
		return
	}
	mergeStatus(existing, m.Status)
	mergeReactions(existing, m.Reactions)
}

// AddReaction appends a reaction to a message, deduplicated by reaction id.
// An unknown message id gets a minimal synthesized entry.
func (r *Registry) AddReaction(conversationID, messageID string, reaction map[string]string) {
	r.messagesMu.Lock()
	defer r.messagesMu.Unlock()
	byID := r.messages[conversationID]
	if byID == nil {
		byID = make(map[string]*model.Message)
		r.messages[conversationID] = byID
	}
	existing, ok := byID[messageID]
	if !ok {
		existing = &model.Message{ID: messageID, ConversationID: conversationID}
		byID[messageID] = existing
	}
	mergeReactions(existing, []map[string]string{reaction})
}

// RemoveReaction removes a reaction by its id. Returns false when no
// matching reaction exists; the caller treats that as a no-op.
func (r *Registry) RemoveReaction(conversationID, messageID, reactionID string) bool {
	r.messagesMu.Lock()
	defer r.messagesMu.Unlock()
	m, ok := r.messages[conversationID][messageID]
	if !ok {
		return false
	}
	for i, reaction := range m.Reactions {
		if reaction["id"] == reactionID {
			m.Reactions = append(m.Reactions[:i], m.Reactions[i+1:]...)
			return true
		}
	}
	return false
}

func copyMessage(m *model.Message) model.Message {
	out := *m
	out.Body = maps.Clone(m.Body)
	out.Status = maps.Clone(m.Status)
	out.Reactions = cloneReactions(m.Reactions)
	return out
}

func mergeStatus(dst *model.Message, status map[string]int) {
	if len(status) == 0 {
		return
	}
	if dst.Status == nil {
		dst.Status = make(map[string]int, len(status))
	}
	maps.Copy(dst.Status, status)
}

func mergeReactions(dst *model.Message, reactions []map[string]string) {
next:
	for _, reaction := range reactions {
		id := reaction["id"]
		for _, have := range dst.Reactions {
			if id != "" && have["id"] == id {
				continue next
			}
			if id == "" && maps.Equal(have, reaction) {
				continue next
			}
		}
		dst.Reactions = append(dst.Reactions, maps.Clone(reaction))
	}
}
