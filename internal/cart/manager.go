package cart

import "context"

// Manager opens session carts over one Persister. Nothing is cached:
// every Open reads the stored cart, so several processes can share a
// persister without serving each other stale carts.
type Manager struct {
	persister Persister
}

func NewManager(p Persister) *Manager {
	return &Manager{persister: p}
}

// StorageKey is where a session's cart lives.
func StorageKey(session string) string {
	return Namespace + ":" + session
}

// Open loads the session's cart.
func (m *Manager) Open(ctx context.Context, session string) (*Store, error) {
	return Open(ctx, m.persister, StorageKey(session))
}
