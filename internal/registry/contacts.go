package registry

import "github.com/leiter/jami-kmp/internal/model"

// Contact returns a snapshot of a contact by owning account and uri.
func (r *Registry) Contact(accountID, uri string) (model.Contact, bool) {
	r.contactsMu.RLock()
	defer r.contactsMu.RUnlock()
	c, ok := r.contacts[accountID][uri]
	if !ok {
		return model.Contact{}, false
	}
	return *c, true
}

// Contacts returns the account's contacts in insertion order.
func (r *Registry) Contacts(accountID string) []model.Contact {
	r.contactsMu.RLock()
	defer r.contactsMu.RUnlock()
	uris := r.contactURIs[accountID]
	out := make([]model.Contact, 0, len(uris))
	for _, uri := range uris {
		if c, ok := r.contacts[accountID][uri]; ok {
			out = append(out, *c)
		}
	}
	return out
}

// UpsertContact inserts or replaces a contact. A banned contact is never
// simultaneously confirmed: banning supersedes.
func (r *Registry) UpsertContact(c model.Contact) {
	if c.Banned {
		c.Confirmed = false
	}
	r.contactsMu.Lock()
	defer r.contactsMu.Unlock()
	byURI := r.contacts[c.AccountID]
	if byURI == nil {
		byURI = make(map[string]*model.Contact)
		r.contacts[c.AccountID] = byURI
	}
	stored := c
	byURI[c.URI] = &stored
	r.contactURIs[c.AccountID] = appendUnique(r.contactURIs[c.AccountID], c.URI)
}

// RemoveContact evicts a contact. Contact uris may legitimately be re-added
// later, so no tombstone is kept.
func (r *Registry) RemoveContact(accountID, uri string) {
	r.contactsMu.Lock()
	defer r.contactsMu.Unlock()
	delete(r.contacts[accountID], uri)
	r.contactURIs[accountID] = remove(r.contactURIs[accountID], uri)
}

// TrustRequests returns the account's pending trust requests.
func (r *Registry) TrustRequests(accountID string) []model.TrustRequest {
	r.contactsMu.RLock()
	defer r.contactsMu.RUnlock()
	byFrom := r.trustReqs[accountID]
	out := make([]model.TrustRequest, 0, len(byFrom))
	for _, tr := range byFrom {
		cp := *tr
		cp.Payload = append([]byte(nil), tr.Payload...)
		out = append(out, cp)
	}
	return out
}

// UpsertTrustRequest records an incoming trust request, keyed by sender uri.
func (r *Registry) UpsertTrustRequest(tr model.TrustRequest) {
	r.contactsMu.Lock()
	defer r.contactsMu.Unlock()
	byFrom := r.trustReqs[tr.AccountID]
	if byFrom == nil {
		byFrom = make(map[string]*model.TrustRequest)
		r.trustReqs[tr.AccountID] = byFrom
	}
	stored := tr
	stored.Payload = append([]byte(nil), tr.Payload...)
	byFrom[tr.From] = &stored
}

// RemoveTrustRequest evicts a trust request once accepted or discarded.
func (r *Registry) RemoveTrustRequest(accountID, from string) {
	r.contactsMu.Lock()
	defer r.contactsMu.Unlock()
	delete(r.trustReqs[accountID], from)
}
