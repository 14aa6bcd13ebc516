package auth

import (
	"context"
	"sync"
	"time"
)

// RefreshRegistry tracks which refresh tokens are still honored. A
// signed refresh token that is absent from the registry is dead, which
// is what makes logout and rotation effective before expiry.
type RefreshRegistry interface {
	Store(ctx context.Context, subjectID int64, token string, expiresAt time.Time) error
	IsValid(ctx context.Context, token string) (bool, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForSubject(ctx context.Context, subjectID int64) error
}

type registryEntry struct {
	subjectID int64
	expiresAt time.Time
}

// MemoryRegistry is the single-instance default. Expired entries are
// evicted lazily when IsValid touches them; there is no background
// sweep.
type MemoryRegistry struct {
	mu     sync.Mutex
	tokens map[string]registryEntry
	bySubj map[int64]map[string]struct{}
	now    func() time.Time
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		tokens: make(map[string]registryEntry),
		bySubj: make(map[int64]map[string]struct{}),
		now:    time.Now,
	}
}

func (r *MemoryRegistry) Store(_ context.Context, subjectID int64, token string, expiresAt time.Time) error {
	if subjectID <= 0 || token == "" {
		return ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.tokens[token]; ok && prev.subjectID != subjectID {
		r.removeLocked(token, prev.subjectID)
	}

	r.tokens[token] = registryEntry{subjectID: subjectID, expiresAt: expiresAt}
	if r.bySubj[subjectID] == nil {
		r.bySubj[subjectID] = make(map[string]struct{})
	}
	r.bySubj[subjectID][token] = struct{}{}

	return nil
}

func (r *MemoryRegistry) IsValid(_ context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.tokens[token]
	if !ok {
		return false, nil
	}
	if !r.now().Before(entry.expiresAt) {
		r.removeLocked(token, entry.subjectID)
		return false, nil
	}

	return true, nil
}

func (r *MemoryRegistry) Revoke(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.tokens[token]; ok {
		r.removeLocked(token, entry.subjectID)
	}

	return nil
}

func (r *MemoryRegistry) RevokeAllForSubject(_ context.Context, subjectID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for token := range r.bySubj[subjectID] {
		delete(r.tokens, token)
	}
	delete(r.bySubj, subjectID)

	return nil
}

func (r *MemoryRegistry) removeLocked(token string, subjectID int64) {
	delete(r.tokens, token)
	if set, ok := r.bySubj[subjectID]; ok {
		delete(set, token)
		if len(set) == 0 {
			delete(r.bySubj, subjectID)
		}
	}
}
