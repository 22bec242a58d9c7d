package emulated

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/leiter/jami-kmp/internal/daemon"
	"github.com/leiter/jami-kmp/internal/model"
	"github.com/leiter/jami-kmp/internal/state"
	"go.uber.org/zap"
)

// Wire codes for registration states, in native enum order.
const (
	wireRegUnregistered = 0
	wireRegTrying       = 1
	wireRegRegistered   = 2
	wireRegInitializing = 9
)

// Wire codes for lookup outcomes.
const (
	wireLookupSuccess  = 0
	wireLookupNotFound = 1
	wireLookupInvalid  = 2
)

// CreateAccount provisions an account and walks it through the
// initializing, trying and registered states.
func (d *Daemon) CreateAccount(_ context.Context, displayName, password string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	details := map[string]string{
		"Account.displayName": displayName,
		"Account.type":        "RING",
	}
	if password != "" {
		details["Account.archiveHasPassword"] = "true"
	}
	if err := d.db.insertAccount(id, displayName, details); err != nil {
		return "", fmt.Errorf("insert account: %w", err)
	}
	d.logger.Info("account created", zap.String("account_id", id))
	d.emit(daemon.RegistrationStateChanged{AccountID: id, State: wireRegInitializing})
	d.emit(daemon.RegistrationStateChanged{AccountID: id, State: wireRegTrying})
	d.emit(daemon.RegistrationStateChanged{AccountID: id, State: wireRegRegistered, Code: 200})
	return id, nil
}

// ImportAccount restores an account from an exported archive file.
func (d *Daemon) ImportAccount(_ context.Context, archivePath, password string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return "", err
	}
	raw, err := os.ReadFile(archivePath)
	if err != nil {
		return "", fmt.Errorf("read archive: %w", err)
	}
	var archive struct {
		DisplayName string            `json:"display_name"`
		Details     map[string]string `json:"details"`
	}
	if err := json.Unmarshal(raw, &archive); err != nil {
		return "", fmt.Errorf("parse archive: %w", err)
	}
	id := uuid.NewString()
	if archive.Details == nil {
		archive.Details = map[string]string{}
	}
	archive.Details["Account.displayName"] = archive.DisplayName
	if err := d.db.insertAccount(id, archive.DisplayName, archive.Details); err != nil {
		return "", fmt.Errorf("insert account: %w", err)
	}
	d.logger.Info("account imported", zap.String("account_id", id), zap.String("archive", archivePath))
	d.emit(daemon.RegistrationStateChanged{AccountID: id, State: wireRegInitializing})
	d.emit(daemon.RegistrationStateChanged{AccountID: id, State: wireRegTrying})
	d.emit(daemon.RegistrationStateChanged{AccountID: id, State: wireRegRegistered, Code: 200})
	return id, nil
}

// ExportAccount writes the account archive to destinationPath.
func (d *Daemon) ExportAccount(_ context.Context, accountID, destinationPath, password string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return err
	}
	details, err := d.db.accountDetails(accountID)
	if err != nil {
		return err
	}
	archive := struct {
		DisplayName string            `json:"display_name"`
		Details     map[string]string `json:"details"`
	}{
		DisplayName: details["Account.displayName"],
		Details:     details,
	}
	raw, err := json.MarshalIndent(archive, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal archive: %w", err)
	}
	if err := os.WriteFile(destinationPath, raw, 0o600); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	return nil
}

// DeleteAccount removes the account and everything under it, emitting a
// final unregistered state.
func (d *Daemon) DeleteAccount(_ context.Context, accountID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return err
	}
	ok, err := d.db.hasAccount(accountID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no such account %q", accountID)
	}
	if err := d.db.deleteAccount(accountID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	delete(d.trustReqs, accountID)
	delete(d.convReqs, accountID)
	d.logger.Info("account deleted", zap.String("account_id", accountID))
	d.emit(daemon.RegistrationStateChanged{AccountID: accountID, State: wireRegUnregistered})
	return nil
}

func (d *Daemon) AccountIDs(_ context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return nil, err
	}
	return d.db.accountIDs()
}

func (d *Daemon) AccountDetails(_ context.Context, accountID string) (map[string]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return nil, err
	}
	return d.db.accountDetails(accountID)
}

// VolatileAccountDetails reports runtime status for a registered account.
func (d *Daemon) VolatileAccountDetails(_ context.Context, accountID string) (map[string]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return nil, err
	}
	if ok, err := d.db.hasAccount(accountID); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("no such account %q", accountID)
	}
	return map[string]string{
		"Account.registrationStatus": "REGISTERED",
		"Account.deviceID":           deviceID(accountID),
	}, nil
}

func (d *Daemon) SetAccountDetails(_ context.Context, accountID string, details map[string]string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return err
	}
	current, err := d.db.accountDetails(accountID)
	if err != nil {
		return err
	}
	for k, v := range details {
		current[k] = v
	}
	if err := d.db.setAccountDetails(accountID, current); err != nil {
		return err
	}
	d.emit(daemon.AccountDetailsChanged{AccountID: accountID, Details: current})
	return nil
}

// SetAccountActive toggles registration: deactivation unregisters, and
// reactivation walks trying then registered again.
func (d *Daemon) SetAccountActive(_ context.Context, accountID string, active bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return err
	}
	if err := d.db.setAccountActive(accountID, active); err != nil {
		return err
	}
	if active {
		d.emit(daemon.RegistrationStateChanged{AccountID: accountID, State: wireRegTrying})
		d.emit(daemon.RegistrationStateChanged{AccountID: accountID, State: wireRegRegistered, Code: 200})
	} else {
		d.emit(daemon.RegistrationStateChanged{AccountID: accountID, State: wireRegUnregistered})
	}
	return nil
}

func (d *Daemon) UpdateProfile(_ context.Context, accountID, displayName, avatarPath string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return err
	}
	details, err := d.db.accountDetails(accountID)
	if err != nil {
		return err
	}
	details["Account.displayName"] = displayName
	if err := d.db.setAccountDetails(accountID, details); err != nil {
		return err
	}
	d.emit(daemon.ProfileReceived{
		AccountID:   accountID,
		From:        accountID,
		DisplayName: displayName,
		AvatarPath:  avatarPath,
	})
	return nil
}

// RegisterName claims a username on the emulated name server. Taken names
// end registration with the name-taken code.
func (d *Daemon) RegisterName(_ context.Context, accountID, name, password string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return err
	}
	if ok, err := d.db.hasAccount(accountID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("no such account %q", accountID)
	}
	if owner, taken := d.names[name]; taken && owner != accountID {
		d.emit(daemon.NameRegistrationEnded{AccountID: accountID, State: 3, Name: name})
		return nil
	}
	d.names[name] = accountID
	details, err := d.db.accountDetails(accountID)
	if err != nil {
		return err
	}
	details["Account.registeredName"] = name
	if err := d.db.setAccountDetails(accountID, details); err != nil {
		return err
	}
	d.emit(daemon.NameRegistrationEnded{AccountID: accountID, State: 0, Name: name})
	return nil
}

// LookupName resolves a username against the emulated name server.
func (d *Daemon) LookupName(_ context.Context, accountID, name string) (model.LookupResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return model.LookupResult{}, err
	}
	if name == "" {
		d.emit(daemon.RegisteredNameFound{AccountID: accountID, State: wireLookupInvalid, Name: name})
		return lookupFromWire(wireLookupInvalid, "", name), nil
	}
	owner, ok := d.names[name]
	if !ok {
		d.emit(daemon.RegisteredNameFound{AccountID: accountID, State: wireLookupNotFound, Name: name})
		return lookupFromWire(wireLookupNotFound, "", name), nil
	}
	addr := deviceID(owner)
	d.emit(daemon.RegisteredNameFound{AccountID: accountID, State: wireLookupSuccess, Address: addr, Name: name})
	return lookupFromWire(wireLookupSuccess, addr, name), nil
}

// LookupAddress reverse-resolves an address to its registered name.
func (d *Daemon) LookupAddress(_ context.Context, accountID, address string) (model.LookupResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureRunning(); err != nil {
		return model.LookupResult{}, err
	}
	if address == "" {
		return lookupFromWire(wireLookupInvalid, address, ""), nil
	}
	for name, owner := range d.names {
		if deviceID(owner) == address {
			d.emit(daemon.RegisteredNameFound{AccountID: accountID, State: wireLookupSuccess, Address: address, Name: name})
			return lookupFromWire(wireLookupSuccess, address, name), nil
		}
	}
	d.emit(daemon.RegisteredNameFound{AccountID: accountID, State: wireLookupNotFound, Address: address})
	return lookupFromWire(wireLookupNotFound, address, ""), nil
}

// deviceID derives a stable device address from the account id.
func deviceID(accountID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(accountID)).String()
}

func lookupFromWire(code int, address, name string) model.LookupResult {
	return model.LookupResult{
		Address: address,
		Name:    name,
		State:   state.LookupFromWire(code),
	}
}
