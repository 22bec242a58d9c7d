package bridge

import (
	"github.com/leiter/jami-kmp/internal/errors"
	"github.com/leiter/jami-kmp/internal/model"
)

// Contacts returns the account's contacts and refreshes the registry with
// the daemon's answer.
func (b *Bridge) Contacts(accountID string) ([]model.Contact, error) {
	if err := b.requireAccount(accountID); err != nil {
		return nil, err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	contacts, err := b.d.Contacts(ctx, accountID)
	if err != nil {
		return nil, daemonErr("list contacts", err)
	}
	for _, c := range contacts {
		c.AccountID = accountID
		b.reg.UpsertContact(c)
	}
	return contacts, nil
}

// AddContact sends a contact request. Confirmation arrives as a
// contact-added event once the peer accepts.
func (b *Bridge) AddContact(accountID, uri string) error {
	if err := b.requireAccount(accountID); err != nil {
		return err
	}
	if uri == "" {
		return errors.New(errors.InvalidArgument, "empty uri")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	if err := b.d.AddContact(ctx, accountID, uri); err != nil {
		return daemonErr("add contact", err)
	}
	if _, known := b.reg.Contact(accountID, uri); !known {
		b.reg.UpsertContact(model.Contact{AccountID: accountID, URI: uri})
	}
	return nil
}

// RemoveContact removes a contact, optionally banning the peer. Banned
// contacts stay cached with the ban flag set.
func (b *Bridge) RemoveContact(accountID, uri string, ban bool) error {
	if err := b.requireAccount(accountID); err != nil {
		return err
	}
	if uri == "" {
		return errors.New(errors.InvalidArgument, "empty uri")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	if err := b.d.RemoveContact(ctx, accountID, uri, ban); err != nil {
		return daemonErr("remove contact", err)
	}
	if ban {
		b.reg.UpsertContact(model.Contact{AccountID: accountID, URI: uri, Banned: true})
	} else {
		b.reg.RemoveContact(accountID, uri)
	}
	return nil
}

// ContactDetails returns the daemon's detail map for a contact.
func (b *Bridge) ContactDetails(accountID, uri string) (map[string]string, error) {
	if err := b.requireAccount(accountID); err != nil {
		return nil, err
	}
	if uri == "" {
		return nil, errors.New(errors.InvalidArgument, "empty uri")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	details, err := b.d.ContactDetails(ctx, accountID, uri)
	if err != nil {
		return nil, daemonErr("contact details", err)
	}
	return details, nil
}

// AcceptTrustRequest accepts a pending trust request, promoting the sender
// to a confirmed contact. The daemon signals the resulting conversation
// through a conversation-ready event.
func (b *Bridge) AcceptTrustRequest(accountID, uri string) error {
	if err := b.requireAccount(accountID); err != nil {
		return err
	}
	if uri == "" {
		return errors.New(errors.InvalidArgument, "empty uri")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	if err := b.d.AcceptTrustRequest(ctx, accountID, uri); err != nil {
		return daemonErr("accept trust request", err)
	}
	b.reg.RemoveTrustRequest(accountID, uri)
	b.reg.UpsertContact(model.Contact{AccountID: accountID, URI: uri, Confirmed: true})
	return nil
}

// DiscardTrustRequest drops a pending trust request.
func (b *Bridge) DiscardTrustRequest(accountID, uri string) error {
	if err := b.requireAccount(accountID); err != nil {
		return err
	}
	if uri == "" {
		return errors.New(errors.InvalidArgument, "empty uri")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	if err := b.d.DiscardTrustRequest(ctx, accountID, uri); err != nil {
		return daemonErr("discard trust request", err)
	}
	b.reg.RemoveTrustRequest(accountID, uri)
	return nil
}

// TrustRequests returns the account's pending trust requests.
func (b *Bridge) TrustRequests(accountID string) ([]model.TrustRequest, error) {
	if err := b.requireAccount(accountID); err != nil {
		return nil, err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	reqs, err := b.d.TrustRequests(ctx, accountID)
	if err != nil {
		return nil, daemonErr("list trust requests", err)
	}
	for _, req := range reqs {
		req.AccountID = accountID
		b.reg.UpsertTrustRequest(req)
	}
	return reqs, nil
}

// SubscribeBuddy subscribes to (or unsubscribes from) a peer's presence.
// Presence changes arrive as presence events.
func (b *Bridge) SubscribeBuddy(accountID, uri string, watch bool) error {
	if err := b.requireAccount(accountID); err != nil {
		return err
	}
	if uri == "" {
		return errors.New(errors.InvalidArgument, "empty uri")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("subscribe buddy", b.d.SubscribeBuddy(ctx, accountID, uri, watch))
}
