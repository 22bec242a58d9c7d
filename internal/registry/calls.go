package registry

import (
	"maps"

	"github.com/leiter/jami-kmp/internal/model"
	"github.com/leiter/jami-kmp/internal/state"
)

// Call returns a snapshot of a call, or false if unknown. Terminal calls
// stay cached with their final state for the rest of the session.
func (r *Registry) Call(id string) (model.Call, bool) {
	r.callsMu.RLock()
	defer r.callsMu.RUnlock()
	c, ok := r.calls[id]
	if !ok {
		return model.Call{}, false
	}
	return *c, true
}

// ActiveCalls returns the account's non-terminal call ids in insertion order.
func (r *Registry) ActiveCalls(accountID string) []string {
	r.callsMu.RLock()
	defer r.callsMu.RUnlock()
	var out []string
	for _, id := range r.callIDs[accountID] {
		if c, ok := r.calls[id]; ok && !c.State.Terminal() {
			out = append(out, id)
		}
	}
	return out
}

// UpsertCall inserts or replaces a call.
func (r *Registry) UpsertCall(c model.Call) {
	r.callsMu.Lock()
	defer r.callsMu.Unlock()
	stored := c
	r.calls[c.ID] = &stored
	r.callIDs[c.AccountID] = appendUnique(r.callIDs[c.AccountID], c.ID)
}

// EnsureCall caches a minimal entry for the call if none exists yet,
// leaving any existing entry untouched. Command results race with the
// daemon's own call-state signals; whichever arrives first wins the insert.
func (r *Registry) EnsureCall(c model.Call) {
	r.callsMu.Lock()
	defer r.callsMu.Unlock()
	if _, ok := r.calls[c.ID]; ok {
		return
	}
	stored := c
	r.calls[c.ID] = &stored
	r.callIDs[c.AccountID] = appendUnique(r.callIDs[c.AccountID], c.ID)
}

// SetCallState records a call state transition. The router validates the
// transition against the call graph before calling this.
func (r *Registry) SetCallState(id string, st state.Call, code int) bool {
	r.callsMu.Lock()
	defer r.callsMu.Unlock()
	c, ok := r.calls[id]
	if !ok {
		return false
	}
	c.State = st
	c.StateCode = code
	return true
}

// SetCallAudioMuted records the call's audio mute flag.
func (r *Registry) SetCallAudioMuted(id string, muted bool) bool {
	r.callsMu.Lock()
	defer r.callsMu.Unlock()
	c, ok := r.calls[id]
	if !ok {
		return false
	}
	c.AudioMuted = muted
	return true
}

// SetCallVideoMuted records the call's video mute flag.
func (r *Registry) SetCallVideoMuted(id string, muted bool) bool {
	r.callsMu.Lock()
	defer r.callsMu.Unlock()
	c, ok := r.calls[id]
	if !ok {
		return false
	}
	c.VideoMuted = muted
	return true
}

// Conference returns a snapshot of a conference, or false if unknown.
func (r *Registry) Conference(id string) (model.Conference, bool) {
	r.confsMu.RLock()
	defer r.confsMu.RUnlock()
	c, ok := r.confs[id]
	if !ok {
		return model.Conference{}, false
	}
	out := *c
	out.Participants = append([]string(nil), c.Participants...)
	out.Infos = cloneReactions(c.Infos)
	out.Muted = maps.Clone(c.Muted)
	return out, true
}

// UpsertConference inserts or replaces a conference. Returns false if the
// id is tombstoned.
func (r *Registry) UpsertConference(c model.Conference) bool {
	r.confsMu.Lock()
	defer r.confsMu.Unlock()
	if _, dead := r.deadConfs[c.ID]; dead {
		return false
	}
	stored := c
	stored.Participants = append([]string(nil), c.Participants...)
	stored.Infos = cloneReactions(c.Infos)
	stored.Muted = maps.Clone(c.Muted)
	r.confs[c.ID] = &stored
	return true
}

// EnsureConference caches a minimal entry if the id is unknown, leaving
// any existing entry, and the infos the router may already have applied,
// untouched. Returns false if the id is tombstoned.
func (r *Registry) EnsureConference(c model.Conference) bool {
	r.confsMu.Lock()
	defer r.confsMu.Unlock()
	if _, dead := r.deadConfs[c.ID]; dead {
		return false
	}
	if _, ok := r.confs[c.ID]; ok {
		return true
	}
	stored := c
	stored.Participants = append([]string(nil), c.Participants...)
	stored.Infos = cloneReactions(c.Infos)
	stored.Muted = maps.Clone(c.Muted)
	r.confs[c.ID] = &stored
	return true
}

// SetConferenceState records a daemon-signaled conference state string.
func (r *Registry) SetConferenceState(id, st string) bool {
	r.confsMu.Lock()
	defer r.confsMu.Unlock()
	c, ok := r.confs[id]
	if !ok {
		return false
	}
	c.State = st
	return true
}

// SetConferenceInfos replaces the per-participant info list.
func (r *Registry) SetConferenceInfos(id string, infos []map[string]string) bool {
	r.confsMu.Lock()
	defer r.confsMu.Unlock()
	c, ok := r.confs[id]
	if !ok {
		return false
	}
	c.Infos = cloneReactions(infos)
	return true
}

// SetConferenceLayout records the selected layout.
func (r *Registry) SetConferenceLayout(id string, layout model.ConferenceLayout) bool {
	r.confsMu.Lock()
	defer r.confsMu.Unlock()
	c, ok := r.confs[id]
	if !ok {
		return false
	}
	c.Layout = layout
	return true
}

// SetParticipantMuted records a per-participant mute flag.
func (r *Registry) SetParticipantMuted(id, participantURI string, muted bool) bool {
	r.confsMu.Lock()
	defer r.confsMu.Unlock()
	c, ok := r.confs[id]
	if !ok {
		return false
	}
	if c.Muted == nil {
		c.Muted = make(map[string]bool)
	}
	c.Muted[participantURI] = muted
	return true
}

// RemoveConference evicts a conference and tombstones its id.
func (r *Registry) RemoveConference(id string) {
	r.confsMu.Lock()
	defer r.confsMu.Unlock()
	delete(r.confs, id)
	r.deadConfs[id] = struct{}{}
}

// Transfer returns a snapshot of a file transfer, or false if unknown.
func (r *Registry) Transfer(id string) (model.FileTransfer, bool) {
	r.transfersMu.RLock()
	defer r.transfersMu.RUnlock()
	t, ok := r.transfers[id]
	if !ok {
		return model.FileTransfer{}, false
	}
	return *t, true
}

// UpsertTransfer inserts or updates a file transfer. Progress never moves
// backwards, and a terminal transfer accepts no further updates; the router
// reports those as protocol anomalies.
func (r *Registry) UpsertTransfer(t model.FileTransfer) bool {
	r.transfersMu.Lock()
	defer r.transfersMu.Unlock()
	existing, ok := r.transfers[t.ID]
	if !ok {
		stored := t
		r.transfers[t.ID] = &stored
		return true
	}
	if existing.Terminal() {
		return false
	}
	if t.Progress < existing.Progress {
		t.Progress = existing.Progress
	}
	stored := t
	r.transfers[t.ID] = &stored
	return true
}
