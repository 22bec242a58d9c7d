package bridge

import (
	"github.com/leiter/jami-kmp/internal/errors"
	"github.com/leiter/jami-kmp/internal/model"
	"github.com/leiter/jami-kmp/internal/state"
	"go.uber.org/zap"
)

// CreateAccount creates a new account and returns its daemon-issued id.
// Registration progress arrives later as registration-state events.
func (b *Bridge) CreateAccount(displayName, password string) (string, error) {
	if err := b.ensureRunning(); err != nil {
		return "", err
	}
	if displayName == "" {
		return "", errors.New(errors.InvalidArgument, "empty display name")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	id, err := b.d.CreateAccount(ctx, displayName, password)
	if err != nil {
		return "", daemonErr("create account", err)
	}
	b.reg.EnsureAccount(id, state.RegInitializing)
	return id, nil
}

// ImportAccount imports an account from an archive and returns its id.
func (b *Bridge) ImportAccount(archivePath, password string) (string, error) {
	if err := b.ensureRunning(); err != nil {
		return "", err
	}
	if archivePath == "" {
		return "", errors.New(errors.InvalidArgument, "empty archive path")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	id, err := b.d.ImportAccount(ctx, archivePath, password)
	if err != nil {
		return "", daemonErr("import account", err)
	}
	b.reg.EnsureAccount(id, state.RegInitializing)
	return id, nil
}

// ExportAccount writes an encrypted account archive to destinationPath.
func (b *Bridge) ExportAccount(accountID, destinationPath, password string) error {
	if err := b.requireAccount(accountID); err != nil {
		return err
	}
	if destinationPath == "" {
		return errors.New(errors.InvalidArgument, "empty destination path")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("export account", b.d.ExportAccount(ctx, accountID, destinationPath, password))
}

// DeleteAccount destroys an account. The id is tombstoned; late events for
// it are dropped.
func (b *Bridge) DeleteAccount(accountID string) error {
	if err := b.requireAccount(accountID); err != nil {
		return err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	if err := b.d.DeleteAccount(ctx, accountID); err != nil {
		return daemonErr("delete account", err)
	}
	b.reg.RemoveAccount(accountID)
	return nil
}

// AccountIDs returns all account ids known to the daemon.
func (b *Bridge) AccountIDs() ([]string, error) {
	if err := b.ensureRunning(); err != nil {
		return nil, err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	ids, err := b.d.AccountIDs(ctx)
	if err != nil {
		return nil, daemonErr("list accounts", err)
	}
	for _, id := range ids {
		b.reg.EnsureAccount(id, state.RegUnregistered)
	}
	return ids, nil
}

// AccountDetails returns the account's configuration map.
func (b *Bridge) AccountDetails(accountID string) (map[string]string, error) {
	if err := b.requireAccount(accountID); err != nil {
		return nil, err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	details, err := b.d.AccountDetails(ctx, accountID)
	if err != nil {
		return nil, daemonErr("account details", err)
	}
	b.reg.SetAccountDetails(accountID, details)
	return details, nil
}

// VolatileAccountDetails returns the account's runtime-only details.
func (b *Bridge) VolatileAccountDetails(accountID string) (map[string]string, error) {
	if err := b.requireAccount(accountID); err != nil {
		return nil, err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	details, err := b.d.VolatileAccountDetails(ctx, accountID)
	if err != nil {
		return nil, daemonErr("volatile account details", err)
	}
	return details, nil
}

// SetAccountDetails updates the account's configuration. The daemon
// confirms through an account-details event.
func (b *Bridge) SetAccountDetails(accountID string, details map[string]string) error {
	if err := b.requireAccount(accountID); err != nil {
		return err
	}
	if len(details) == 0 {
		return errors.New(errors.InvalidArgument, "empty details")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("set account details", b.d.SetAccountDetails(ctx, accountID, details))
}

// SetAccountActive enables or disables an account. Registration-state
// events report the outcome.
func (b *Bridge) SetAccountActive(accountID string, active bool) error {
	if err := b.requireAccount(accountID); err != nil {
		return err
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("set account active", b.d.SetAccountActive(ctx, accountID, active))
}

// UpdateProfile publishes the account's display name and avatar.
func (b *Bridge) UpdateProfile(accountID, displayName, avatarPath string) error {
	if err := b.requireAccount(accountID); err != nil {
		return err
	}
	if displayName == "" {
		return errors.New(errors.InvalidArgument, "empty display name")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("update profile", b.d.UpdateProfile(ctx, accountID, displayName, avatarPath))
}

// RegisterName submits a name registration. Local acceptance is
// synchronous; the remote outcome arrives as a name-registration event.
func (b *Bridge) RegisterName(accountID, name, password string) error {
	if err := b.requireAccount(accountID); err != nil {
		return err
	}
	if name == "" {
		return errors.New(errors.InvalidArgument, "empty name")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	return daemonErr("register name", b.d.RegisterName(ctx, accountID, name, password))
}

// LookupName resolves a registered name. Failures surface in the result's
// lookup state, never as a fault; nothing is cached.
func (b *Bridge) LookupName(accountID, name string) (model.LookupResult, error) {
	if err := b.requireAccount(accountID); err != nil {
		return model.LookupResult{}, err
	}
	if name == "" {
		return model.LookupResult{}, errors.New(errors.InvalidArgument, "empty name")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	res, err := b.d.LookupName(ctx, accountID, name)
	if err != nil {
		b.logger.Warn("name lookup failed", zap.String("name", name), zap.Error(err))
		return model.LookupResult{Name: name, State: state.LookupError}, nil
	}
	return res, nil
}

// LookupAddress reverse-resolves an address to its registered name.
func (b *Bridge) LookupAddress(accountID, address string) (model.LookupResult, error) {
	if err := b.requireAccount(accountID); err != nil {
		return model.LookupResult{}, err
	}
	if address == "" {
		return model.LookupResult{}, errors.New(errors.InvalidArgument, "empty address")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	res, err := b.d.LookupAddress(ctx, accountID, address)
	if err != nil {
		b.logger.Warn("address lookup failed", zap.String("address", address), zap.Error(err))
		return model.LookupResult{Address: address, State: state.LookupError}, nil
	}
	return res, nil
}

// requireAccount validates the command precondition for account-scoped
// operations without contacting the daemon.
func (b *Bridge) requireAccount(accountID string) error {
	if err := b.ensureRunning(); err != nil {
		return err
	}
	if accountID == "" {
		return errors.New(errors.InvalidArgument, "empty account id")
	}
	if _, ok := b.reg.Account(accountID); !ok {
		return errors.New(errors.NotFound, "unknown account %q", accountID)
	}
	return nil
}
