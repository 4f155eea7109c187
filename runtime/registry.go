package runtime

import (
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	errs "chat-relay/errors"
)

// Registry is the shared mapping from session id to live Session. It is the
// only shared mutable resource of the relay; all access is serialized behind
// a single lock, which is enough at the expected scale.
//
// Invariant: the key set equals the sessions whose read path has not yet
// terminated. Disconnect cleanup leaves no stale entries behind.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]*Session)}
}

// Register adds a session under its id. Ids are generated fresh per
// connection, so a collision is a programming fault: the contract forbids a
// silent overwrite and surfaces ErrDuplicateSession instead.
func (r *Registry) Register(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; ok {
		return errs.ErrDuplicateSession
	}
	r.sessions[s.ID] = s
	return nil
}

// Unregister removes a session. Unknown ids are a no-op, which keeps cleanup
// idempotent across the multiple exit paths of a connection.
func (r *Registry) Unregister(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *Registry) Contains(id uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[id]
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// SessionInfo is a read-only view of one registered session.
type SessionInfo struct {
	ID       uuid.UUID
	Username string
	Queued   int
}

// Snapshot lists the registered sessions for diagnostics. Delivery never
// iterates the registry; it goes through the Bus.
func (r *Registry) Snapshot() []SessionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Map(lo.Values(r.sessions), func(s *Session, _ int) SessionInfo {
		return SessionInfo{ID: s.ID, Username: s.Username, Queued: s.outbox.Length()}
	})
}
