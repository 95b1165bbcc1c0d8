package token

import (
	"context"
	"sync"
	"time"
)

// Entry is the registry record kept per outstanding refresh token.
type Entry struct {
	AdminID   string    `json:"adminId"`
	CreatedAt time.Time `json:"createdAt"`
	UserAgent string    `json:"userAgent"`
}

// Registry tracks outstanding refresh tokens. A refresh token is valid
// only while its entry is present; deleting the entry is revocation.
// Implementations must make Consume atomic so that two concurrent
// rotations of the same token admit exactly one winner.
type Registry interface {
	Put(ctx context.Context, token string, e Entry) error
	// Consume atomically removes and returns the entry for a token.
	Consume(ctx context.Context, token string) (Entry, bool, error)
	Delete(ctx context.Context, token string) error
	// Sweep drops entries created before the cutoff.
	Sweep(ctx context.Context, cutoff time.Time) error
}

// MemoryRegistry is the single-process default.
type MemoryRegistry struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{entries: make(map[string]Entry)}
}

func (r *MemoryRegistry) Put(_ context.Context, token string, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[token] = e
	return nil
}

func (r *MemoryRegistry) Consume(_ context.Context, token string) (Entry, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[token]
	if !ok {
		return Entry{}, false, nil
	}
	delete(r.entries, token)
	return e, true, nil
}

func (r *MemoryRegistry) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, token)
	return nil
}

func (r *MemoryRegistry) Sweep(_ context.Context, cutoff time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for token, e := range r.entries {
		if e.CreatedAt.Before(cutoff) {
			delete(r.entries, token)
		}
	}
	return nil
}

// Len is exposed for tests.
func (r *MemoryRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
