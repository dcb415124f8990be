package auth

import "sync"

// RevocationRegistry records session tokens invalidated before expiry.
type RevocationRegistry interface {
	Revoke(token string)
	IsRevoked(token string) bool
}

// MemoryRevocationRegistry keeps revoked tokens for the life of the process.
// Entries are never pruned; expiry is checked independently by TokenIssuer.
type MemoryRevocationRegistry struct {
	mu      sync.RWMutex
	revoked map[string]struct{}
}

func NewMemoryRevocationRegistry() *MemoryRevocationRegistry {
	return &MemoryRevocationRegistry{
		revoked: make(map[string]struct{}),
	}
}

// Revoke marks token as revoked. Revoking twice is a no-op.
func (r *MemoryRevocationRegistry) Revoke(token string) {
	if token == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[token] = struct{}{}
}

func (r *MemoryRevocationRegistry) IsRevoked(token string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.revoked[token]
	return exists
}

// Len returns the number of revoked tokens.
func (r *MemoryRevocationRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.revoked)
}
