// Package router funnels every daemon-originated signal through a single
// strictly-ordered delivery sequence: decode, validate, mutate the entity
// registry, then dispatch the typed event to the registered observer. One
// goroutine drains the intake, so observers see events in daemon emission
// order and a callback that re-queries the registry always sees the
// post-event state.
package router

import (
	"sync"

	"github.com/leiter/jami-kmp/internal/daemon"
	"github.com/leiter/jami-kmp/internal/event"
	"github.com/leiter/jami-kmp/internal/registry"
	"go.uber.org/zap"
)

// Router decodes daemon signals and drives the registry and observer.
type Router struct {
	reg    *registry.Registry
	logger *zap.Logger

	obsMu    sync.RWMutex
	observer event.Observer

	wg sync.WaitGroup
}

// New creates a router over the given registry.
func New(reg *registry.Registry, logger *zap.Logger) *Router {
	return &Router{reg: reg, logger: logger}
}

// SetObserver installs the single observer slot. Passing nil clears it.
// Events dispatched while no observer is registered are silently dropped;
// registry updates still apply.
func (r *Router) SetObserver(o event.Observer) {
	r.obsMu.Lock()
	r.observer = o
	r.obsMu.Unlock()
}

// ClearObserver empties the observer slot.
func (r *Router) ClearObserver() {
	r.SetObserver(nil)
}

// Start drains signals on a dedicated goroutine until the channel closes.
// The daemon closes its signal channel on Stop, which ends the loop after
// all buffered signals have been applied.
func (r *Router) Start(signals <-chan daemon.Signal) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for sig := range signals {
			r.Process(sig)
		}
	}()
}

// Wait blocks until the drain loop has exited.
func (r *Router) Wait() {
	r.wg.Wait()
}

// Process handles one signal synchronously: decode, registry mutation, then
// observer dispatch. Exported so tests can drive the router directly.
func (r *Router) Process(sig daemon.Signal) {
	evt := r.apply(sig)
	if evt == nil {
		return
	}
	r.dispatch(evt)
}

func (r *Router) dispatch(evt event.Event) {
	r.obsMu.RLock()
	o := r.observer
	r.obsMu.RUnlock()
	if o == nil {
		return
	}
	o.OnEvent(evt)
}
