package emulated

import (
	"context"
	"fmt"

	"github.com/leiter/jami-kmp/internal/daemon"
	"github.com/leiter/jami-kmp/internal/model"
)

func (d *Daemon) Contacts(_ context.Context, accountID string) ([]model.Contact, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return nil, err
	}
	return d.db.contacts(accountID)
}

// AddContact records the pending contact and emits the addition. The
// emulated peer has no say, so confirmation never arrives on its own;
// tests drive it through SimulateTrustRequest and AcceptTrustRequest.
func (d *Daemon) AddContact(_ context.Context, accountID, uri string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return err
	}
	if err := d.db.upsertContact(model.Contact{AccountID: accountID, URI: uri}); err != nil {
		return err
	}
	d.emit(daemon.ContactAdded{AccountID: accountID, URI: uri, Confirmed: false})
	return nil
}

func (d *Daemon) RemoveContact(_ context.Context, accountID, uri string, ban bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return err
	}
	if ban {
		c, err := d.db.contact(accountID, uri)
		if err != nil {
			return err
		}
		if c == nil {
			c = &model.Contact{AccountID: accountID, URI: uri}
		}
		c.Banned = true
		c.Confirmed = false
		if err := d.db.upsertContact(*c); err != nil {
			return err
		}
	} else {
		if err := d.db.deleteContact(accountID, uri); err != nil {
			return err
		}
	}
	d.emit(daemon.ContactRemoved{AccountID: accountID, URI: uri, Banned: ban})
	return nil
}

func (d *Daemon) ContactDetails(_ context.Context, accountID, uri string) (map[string]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return nil, err
	}
	c, err := d.db.contact(accountID, uri)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("no such contact %q", uri)
	}
	return map[string]string{
		"id":          c.URI,
		"displayName": c.DisplayName,
		"confirmed":   fmt.Sprintf("%t", c.Confirmed),
		"banned":      fmt.Sprintf("%t", c.Banned),
	}, nil
}

// AcceptTrustRequest confirms the requesting peer as a contact.
func (d *Daemon) AcceptTrustRequest(_ context.Context, accountID, uri string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return err
	}
	if err := d.db.upsertContact(model.Contact{AccountID: accountID, URI: uri, Confirmed: true}); err != nil {
		return err
	}
	d.dropTrustRequest(accountID, uri)
	d.emit(daemon.ContactAdded{AccountID: accountID, URI: uri, Confirmed: true})
	return nil
}

func (d *Daemon) DiscardTrustRequest(_ context.Context, accountID, uri string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return err
	}
	d.dropTrustRequest(accountID, uri)
	return nil
}

func (d *Daemon) TrustRequests(_ context.Context, accountID string) ([]model.TrustRequest, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return nil, err
	}
	reqs := d.trustReqs[accountID]
	out := make([]model.TrustRequest, len(reqs))
	copy(out, reqs)
	return out, nil
}

// SubscribeBuddy toggles presence tracking for a peer. The emulated peer
// reports online as soon as it is watched.
func (d *Daemon) SubscribeBuddy(_ context.Context, accountID, uri string, watch bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return err
	}
	if watch {
		d.emit(daemon.PresenceChanged{AccountID: accountID, URI: uri, Online: true})
	}
	return nil
}

func (d *Daemon) dropTrustRequest(accountID, uri string) {
	reqs := d.trustReqs[accountID]
	for i, r := range reqs {
		if r.From == uri {
			d.trustReqs[accountID] = append(reqs[:i], reqs[i+1:]...)
			return
		}
	}
}
