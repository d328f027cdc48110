package gateway

import "sync"

// Registry tracks which users are currently reachable and through which
// connections. It is process-local cache only, never the source of truth
// for delivery history, and is rebuilt from zero on restart.
//
// All operations are mutex-guarded and do no I/O inside the critical
// section, so a push enumerating a user's handles never races a
// concurrent register/unregister into dropping or duplicating one.
type Registry struct {
	mu     sync.RWMutex
	conns  map[uint64]map[string]*Client
	owners map[string]uint64 // handle id -> user id
}

func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[uint64]map[string]*Client),
		owners: make(map[string]uint64),
	}
}

func (r *Registry) Register(userID uint64, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.conns[userID]
	if !ok {
		set = make(map[string]*Client)
		r.conns[userID] = set
	}
	set[client.ID] = client
	r.owners[client.ID] = userID
}

// Unregister removes the handle from whichever user it belongs to. The
// user entry is dropped when its handle set becomes empty. Unknown
// handles are ignored.
func (r *Registry) Unregister(handleID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	userID, ok := r.owners[handleID]
	if !ok {
		return
	}
	delete(r.owners, handleID)
	set := r.conns[userID]
	delete(set, handleID)
	if len(set) == 0 {
		delete(r.conns, userID)
	}
}

// HandlesFor returns a snapshot of the user's open connections; possibly
// empty, never nil shared state.
func (r *Registry) HandlesFor(userID uint64) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.conns[userID]
	clients := make([]*Client, 0, len(set))
	for _, client := range set {
		clients = append(clients, client)
	}
	return clients
}

// Online reports whether the user has at least one open connection.
func (r *Registry) Online(userID uint64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID]) > 0
}

// UserCount returns the number of distinct users currently connected.
func (r *Registry) UserCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// ConnectionCount returns the number of open connections across users.
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.owners)
}
