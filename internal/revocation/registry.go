package revocation

import (
	"sync"
	"time"
)

// Registry is the process-wide set of revoked token identifiers. An
// entry is kept until the token it belongs to has expired on its own;
// past that point the signature check rejects the token anyway, so the
// entry can be dropped without reopening access.
type Registry struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	done    chan struct{}
}

func New(sweepEvery time.Duration) *Registry {
	r := &Registry{
		revoked: make(map[string]time.Time),
		done:    make(chan struct{}),
	}
	go r.janitor(sweepEvery)
	return r
}

// Revoke is idempotent. expiresAt is the expiry of the revoked token.
func (r *Registry) Revoke(jti string, expiresAt time.Time) {
	if jti == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[jti] = expiresAt
}

func (r *Registry) IsRevoked(jti string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[jti]
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.revoked)
}

func (r *Registry) Close() {
	close(r.done)
}

func (r *Registry) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-r.done:
			return
		case now := <-ticker.C:
			r.sweep(now)
		}
	}
}

func (r *Registry) sweep(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for jti, exp := range r.revoked {
		if now.After(exp) {
			delete(r.revoked, jti)
		}
	}
}
