package registry

import (
	"maps"

	"github.com/leiter/jami-kmp/internal/model"
	"github.com/leiter/jami-kmp/internal/state"
)

// Account returns a snapshot of the account, or false if unknown.
func (r *Registry) Account(id string) (model.Account, bool) {
	r.accountsMu.RLock()
	defer r.accountsMu.RUnlock()
	a, ok := r.accounts[id]
	if !ok {
		return model.Account{}, false
	}
	out := *a
	out.Details = maps.Clone(a.Details)
	out.VolatileDetails = maps.Clone(a.VolatileDetails)
	return out, true
}

// AccountIDs returns all cached account ids in insertion order.
func (r *Registry) AccountIDs() []string {
	r.accountsMu.RLock()
	defer r.accountsMu.RUnlock()
	return append([]string(nil), r.accountIDs...)
}

// UpsertAccount inserts or replaces an account. Returns false if the id is
// tombstoned.
func (r *Registry) UpsertAccount(a model.Account) bool {
	r.accountsMu.Lock()
	defer r.accountsMu.Unlock()
	if _, dead := r.deadAccts[a.ID]; dead {
		return false
	}
	stored := a
	stored.Details = maps.Clone(a.Details)
	stored.VolatileDetails = maps.Clone(a.VolatileDetails)
	r.accounts[a.ID] = &stored
	r.accountIDs = appendUnique(r.accountIDs, a.ID)
	return true
}

// EnsureAccount caches a minimal entry for id if none exists yet, leaving
// any existing entry untouched. Command results race with the daemon's own
// registration events; whichever arrives first wins the insert. Returns
// false if the id is tombstoned.
func (r *Registry) EnsureAccount(id string, st state.Registration) bool {
	r.accountsMu.Lock()
	defer r.accountsMu.Unlock()
	if _, dead := r.deadAccts[id]; dead {
		return false
	}
	if _, ok := r.accounts[id]; !ok {
		r.accounts[id] = &model.Account{ID: id, RegistrationState: st}
		r.accountIDs = appendUnique(r.accountIDs, id)
	}
	return true
}

// SetAccountDetails replaces the details map of a cached account.
func (r *Registry) SetAccountDetails(id string, details map[string]string) bool {
	r.accountsMu.Lock()
	defer r.accountsMu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return false
	}
	a.Details = maps.Clone(details)
	return true
}

// SetRegistrationState records a registration transition for a cached
// account. Returns false if the account is unknown or tombstoned.
func (r *Registry) SetRegistrationState(id string, st state.Registration, code int, detail string) bool {
	r.accountsMu.Lock()
	defer r.accountsMu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return false
	}
	a.RegistrationState = st
	a.RegistrationCode = code
	a.RegistrationDetail = detail
	return true
}

// RemoveAccount evicts an account, tombstones its id and drops everything
// scoped to it: contacts, trust requests, conversations, requests, calls.
func (r *Registry) RemoveAccount(id string) {
	r.accountsMu.Lock()
	delete(r.accounts, id)
	r.accountIDs = remove(r.accountIDs, id)
	r.deadAccts[id] = struct{}{}
	r.accountsMu.Unlock()

	r.contactsMu.Lock()
	delete(r.contacts, id)
	delete(r.contactURIs, id)
	delete(r.trustReqs, id)
	r.contactsMu.Unlock()

	r.convsMu.Lock()
	convIDs := r.convIDs[id]
	for _, cid := range convIDs {
		delete(r.convs, cid)
		r.deadConvs[cid] = struct{}{}
	}
	delete(r.convIDs, id)
	delete(r.convReqs, id)
	r.convsMu.Unlock()

	r.messagesMu.Lock()
	for _, cid := range convIDs {
		delete(r.messages, cid)
	}
	r.messagesMu.Unlock()

	r.callsMu.Lock()
	for _, callID := range r.callIDs[id] {
		delete(r.calls, callID)
	}
	delete(r.callIDs, id)
	r.callsMu.Unlock()
}
