// Package bridge exposes the daemon to the consumer runtime: it owns the
// daemon lifecycle, keeps the entity registry synchronized and translates
// the command/response surface into a uniform contract. Synchronous
// commands block until the daemon replies (bounded by the configured call
// timeout); asynchronous commands return after local acceptance and their
// outcome arrives through the event router.
package bridge

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"

	"github.com/leiter/jami-kmp/internal/config"
	"github.com/leiter/jami-kmp/internal/daemon"
	"github.com/leiter/jami-kmp/internal/errors"
	"github.com/leiter/jami-kmp/internal/event"
	"github.com/leiter/jami-kmp/internal/lock"
	"github.com/leiter/jami-kmp/internal/registry"
	"github.com/leiter/jami-kmp/internal/router"
	"go.uber.org/zap"
)

// Bridge is the dispatch and state synchronization core. One bridge owns
// one daemon handle; at most one bridge runs per data directory, enforced
// by a file lock taken during Initialize.
type Bridge struct {
	cfg    *config.Config
	d      daemon.Daemon
	reg    *registry.Registry
	router *router.Router
	logger *zap.Logger

	mu      sync.Mutex
	phase   phase
	lk      *lock.Lock
	running atomic.Bool
}

// New creates a bridge over the given daemon implementation. The daemon is
// injectable so tests can supply an in-process implementation of the same
// command/signal contract.
func New(cfg *config.Config, d daemon.Daemon, logger *zap.Logger) *Bridge {
	reg := registry.New()
	return &Bridge{
		cfg:    cfg,
		d:      d,
		reg:    reg,
		router: router.New(reg, logger),
		logger: logger,
	}
}

// Registry exposes read-only snapshot queries over cached entities.
func (b *Bridge) Registry() *registry.Registry {
	return b.reg
}

// SetObserver installs the single event observer. Absence of an observer
// is a valid state: events are then dropped while registry updates
// continue.
func (b *Bridge) SetObserver(o event.Observer) {
	b.router.SetObserver(o)
}

// ClearObserver empties the observer slot.
func (b *Bridge) ClearObserver() {
	b.router.ClearObserver()
}

// callCtx bounds a synchronous daemon call.
func (b *Bridge) callCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), b.cfg.CallTimeout())
}

// ensureRunning fails commands issued while the daemon is not running.
func (b *Bridge) ensureRunning() error {
	if !b.IsRunning() {
		return errors.New(errors.NotRunning, "daemon is not running")
	}
	return nil
}

// daemonErr classifies an error returned by the daemon boundary.
func daemonErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.CodeOf(err) != "" {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(errors.Timeout, err, "%s timed out", op)
	}
	return errors.Wrap(errors.DaemonRejected, err, "%s", op)
}
