package auth

import (
	"sync/atomic"
	"time"
)

// ExpiryBuffer is subtracted from a token's expiry before it is trusted.
const ExpiryBuffer = 60 * time.Second

// CachedToken is the bearer token most recently issued by the token endpoint.
type CachedToken struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Valid reports whether the token can still be used at now.
func (t CachedToken) Valid(now time.Time) bool {
	return t.AccessToken != "" && now.Before(t.ExpiresAt.Add(-ExpiryBuffer))
}

// TokenStore holds the single process-wide [CachedToken].
type TokenStore interface {
	Load() (CachedToken, bool)
	Save(CachedToken)
}

// MemoryStore is an in-memory [TokenStore]. Loads and saves swap a pointer atomically.
type MemoryStore struct {
	current atomic.Pointer[CachedToken]
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored token, or false if nothing has been saved yet.
func (s *MemoryStore) Load() (CachedToken, bool) {
	t := s.current.Load()
	if t == nil {
		return CachedToken{}, false
	}
	return *t, true
}

// Save overwrites the stored token.
func (s *MemoryStore) Save(t CachedToken) {
	s.current.Store(&t)
}
