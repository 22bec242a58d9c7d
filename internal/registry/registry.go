// Package registry is the bridge's in-memory cache of daemon-visible
// entities. It is purely reactive: entries appear only from synchronous
// command results or decoded daemon events, and it never calls the daemon.
//
// Each entity kind is its own partition guarded by an RWMutex, so readers
// take snapshots without blocking writers of other kinds. Listings preserve
// insertion order. Removed ids are tombstoned for kinds whose identifiers
// the daemon never reuses, so a late event cannot resurrect a dead entry.
package registry

import (
	"maps"
	"slices"
	"sync"

	"github.com/leiter/jami-kmp/internal/model"
)

// Registry caches accounts, contacts, trust requests, conversations,
// messages, calls, conferences and file transfers.
type Registry struct {
	accountsMu sync.RWMutex
	accounts   map[string]*model.Account
	accountIDs []string
	deadAccts  map[string]struct{}

	contactsMu  sync.RWMutex
	contacts    map[string]map[string]*model.Contact // account id -> uri
	contactURIs map[string][]string
	trustReqs   map[string]map[string]*model.TrustRequest // account id -> from uri

	convsMu   sync.RWMutex
	convs     map[string]*model.Conversation
	convIDs   map[string][]string // account id -> conversation ids
	convReqs  map[string]map[string]*model.ConversationRequest
	deadConvs map[string]struct{}

	messagesMu sync.RWMutex
	messages   map[string]map[string]*model.Message // conversation id -> message id

	callsMu sync.RWMutex
	calls   map[string]*model.Call
	callIDs map[string][]string // account id -> call ids

	confsMu   sync.RWMutex
	confs     map[string]*model.Conference
	deadConfs map[string]struct{}

	transfersMu sync.RWMutex
	transfers   map[string]*model.FileTransfer
}

// New creates an empty registry.
func New() *Registry {
	r := &Registry{}
	r.reset()
	return r
}

func (r *Registry) reset() {
	r.accounts = make(map[string]*model.Account)
	r.accountIDs = nil
	r.deadAccts = make(map[string]struct{})
	r.contacts = make(map[string]map[string]*model.Contact)
	r.contactURIs = make(map[string][]string)
	r.trustReqs = make(map[string]map[string]*model.TrustRequest)
	r.convs = make(map[string]*model.Conversation)
	r.convIDs = make(map[string][]string)
	r.convReqs = make(map[string]map[string]*model.ConversationRequest)
	r.deadConvs = make(map[string]struct{})
	r.messages = make(map[string]map[string]*model.Message)
	r.calls = make(map[string]*model.Call)
	r.callIDs = make(map[string][]string)
	r.confs = make(map[string]*model.Conference)
	r.deadConfs = make(map[string]struct{})
	r.transfers = make(map[string]*model.FileTransfer)
}

// Clear drops every cached entity and tombstone. Called when the daemon
// stops; a later start is a fresh daemon session with fresh identifiers.
func (r *Registry) Clear() {
	r.accountsMu.Lock()
	r.contactsMu.Lock()
	r.convsMu.Lock()
	r.messagesMu.Lock()
	r.callsMu.Lock()
	r.confsMu.Lock()
	r.transfersMu.Lock()
	r.reset()
	r.transfersMu.Unlock()
	r.confsMu.Unlock()
	r.callsMu.Unlock()
	r.messagesMu.Unlock()
	r.convsMu.Unlock()
	r.contactsMu.Unlock()
	r.accountsMu.Unlock()
}

func appendUnique(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

func remove(ids []string, id string) []string {
	if i := slices.Index(ids, id); i >= 0 {
		return slices.Delete(ids, i, i+1)
	}
	return ids
}

func cloneReactions(rs []map[string]string) []map[string]string {
	if rs == nil {
		return nil
	}
	out := make([]map[string]string, len(rs))
	for i, m := range rs {
		out[i] = maps.Clone(m)
	}
	return out
}
