package bridge

import (
	"github.com/leiter/jami-kmp/internal/config"
	"github.com/leiter/jami-kmp/internal/errors"
	"github.com/leiter/jami-kmp/internal/lock"
	"go.uber.org/zap"
)

// phase is the lifecycle controller's state.
type phase int

const (
	phaseUninitialized phase = iota
	phaseInitialized
	phaseRunning
	phaseStopped
)

// Initialize prepares daemon storage under dataPath and takes the
// exclusive data-dir lock. Called once per process; a second call fails.
func (b *Bridge) Initialize(dataPath string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.phase != phaseUninitialized {
		return errors.New(errors.InvalidArgument, "bridge already initialized")
	}
	if dataPath == "" {
		return errors.New(errors.InvalidArgument, "empty data path")
	}
	if err := config.EnsureDirs(dataPath); err != nil {
		return errors.Wrap(errors.DaemonRejected, err, "prepare data dir")
	}
	lk, err := lock.Acquire(dataPath)
	if err != nil {
		return errors.Wrap(errors.DaemonRejected, err, "acquire data dir lock")
	}
	b.lk = lk
	b.phase = phaseInitialized
	b.logger.Info("bridge initialized", zap.String("data_dir", dataPath))
	return nil
}

// Start transitions the daemon into its running execution context and
// begins draining its signals. Fails fast if not initialized or already
// running. Restart after Stop is permitted.
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.phase {
	case phaseUninitialized:
		return errors.New(errors.NotRunning, "bridge not initialized")
	case phaseRunning:
		return errors.New(errors.InvalidArgument, "daemon already running")
	}
	ctx, cancel := b.callCtx()
	defer cancel()
	if err := b.d.Start(ctx); err != nil {
		return daemonErr("start daemon", err)
	}
	b.router.Start(b.d.Signals())
	b.phase = phaseRunning
	b.running.Store(true)
	b.logger.Info("daemon started")
	return nil
}

// Stop tears down the running daemon context. The signal channel closes,
// the router drains remaining signals, and the registry is cleared: every
// cached entity belongs to the ended daemon session.
func (b *Bridge) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.phase != phaseRunning {
		return errors.New(errors.NotRunning, "daemon is not running")
	}
	b.running.Store(false)
	ctx, cancel := b.callCtx()
	defer cancel()
	err := b.d.Stop(ctx)
	b.router.Wait()
	b.reg.Clear()
	b.phase = phaseStopped
	b.logger.Info("daemon stopped")
	return daemonErr("stop daemon", err)
}

// IsRunning reports the last observed lifecycle transition. Pure and
// non-blocking.
func (b *Bridge) IsRunning() bool {
	return b.running.Load()
}

// Close releases the data-dir lock. Call after Stop when the bridge will
// not be restarted.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	err := b.lk.Release()
	b.lk = nil
	return err
}
