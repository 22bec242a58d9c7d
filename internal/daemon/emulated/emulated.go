// Package emulated is an in-process implementation of the daemon contract.
// It stands in for the native daemon where the library is not linked (and
// in tests): commands persist to a SQLite archive under the data path and
// emit the same signal sequences a live daemon would, in emission order on
// a single buffered channel.
package emulated

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/leiter/jami-kmp/internal/daemon"
	"github.com/leiter/jami-kmp/internal/model"
	"go.uber.org/zap"
)

// Daemon emulates the native daemon. Accounts, contacts, conversations and
// messages persist across restarts; calls, conferences and transfers are
// session-scoped.
type Daemon struct {
	dataDir    string
	queueDepth int
	logger     *zap.Logger

	mu      sync.Mutex
	db      *store
	running bool
	signals chan daemon.Signal

	calls     map[string]*callSim
	confs     map[string]*confSim
	transfers map[string]*transferSim
	trustReqs map[string][]model.TrustRequest
	convReqs  map[string][]model.ConversationRequest
	names     map[string]string

	videoDevice  string
	videoRunning bool

	requestID atomic.Int64
}

// New creates an emulated daemon rooted at dataDir. queueDepth sizes the
// signal channel; non-positive values fall back to the default.
func New(dataDir string, queueDepth int, logger *zap.Logger) *Daemon {
	if queueDepth <= 0 {
		queueDepth = 256
	}
	return &Daemon{
		dataDir:    dataDir,
		queueDepth: queueDepth,
		logger:     logger,
	}
}

// Start opens the archive store and begins accepting commands.
func (d *Daemon) Start(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return fmt.Errorf("daemon already running")
	}
	db, err := openStore(d.dataDir)
	if err != nil {
		return fmt.Errorf("open archive store: %w", err)
	}
	d.db = db
	d.signals = make(chan daemon.Signal, d.queueDepth)
	d.calls = make(map[string]*callSim)
	d.confs = make(map[string]*confSim)
	d.transfers = make(map[string]*transferSim)
	d.trustReqs = make(map[string][]model.TrustRequest)
	d.convReqs = make(map[string][]model.ConversationRequest)
	d.names = make(map[string]string)
	d.videoDevice = videoDevices[0]
	d.running = true
	d.logger.Info("emulated daemon started", zap.String("data_dir", d.dataDir))
	return nil
}

// Stop closes the signal channel after in-flight emissions and releases
// the store.
func (d *Daemon) Stop(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return fmt.Errorf("daemon is not running")
	}
	for _, t := range d.transfers {
		t.stop()
	}
	d.running = false
	close(d.signals)
	err := d.db.Close()
	d.db = nil
	d.logger.Info("emulated daemon stopped")
	return err
}

// Signals returns the emission channel. Closed by Stop.
func (d *Daemon) Signals() <-chan daemon.Signal {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.signals
}

// emit pushes a signal while holding d.mu, preserving command order. A
// full queue blocks the command until the consumer drains, the way the
// native callback thread would; signals are never dropped.
func (d *Daemon) emit(sig daemon.Signal) {
	if !d.running {
		return
	}
	d.signals <- sig
}

// ensureRunning guards commands issued against a stopped daemon.
func (d *Daemon) ensureRunning() error {
	if !d.running {
		return fmt.Errorf("daemon is not running")
	}
	return nil
}
