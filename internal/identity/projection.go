// Package identity keeps a process-wide projection of provider-supplied
// identities. The projection is a derived cache over the users table, never
// authoritative: it is populated when a session starts, refreshed when a
// webhook syncs fresher provider data, and cleared on sign-out.
package identity

import (
	"sync"

	"taskboard/internal/model"
)

type Projection struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func NewProjection() *Projection {
	return &Projection{users: make(map[string]model.User)}
}

// Populate stores the projection for the given provider identity,
// replacing any previous entry.
func (p *Projection) Populate(user model.User) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[user.ClerkID] = user
}

// Current returns a copy of the cached projection. Consumers never get a
// reference into the cache.
func (p *Projection) Current(clerkID string) (model.User, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	user, ok := p.users[clerkID]
	return user, ok
}

// Clear drops the projection for the given provider identity. Called on
// sign-out and when a refresh fails and stale data must not be served.
func (p *Projection) Clear(clerkID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.users, clerkID)
}
