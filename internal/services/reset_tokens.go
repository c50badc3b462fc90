package services

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// ResetTokenStore issues and redeems single-use password reset tokens.
// Implementations own expiry; a consumed or expired token is never valid
// again. The store is injected into the auth handler so tests and future
// backends (e.g. Redis) can replace it.
type ResetTokenStore interface {
	Issue(email string) (string, error)
	Consume(token string) (string, bool)
}

type resetEntry struct {
	email     string
	expiresAt time.Time
}

// memoryResetTokenStore keeps reset tokens in memory with a TTL.
type memoryResetTokenStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	tokens map[string]resetEntry
	now    func() time.Time
}

// NewMemoryResetTokenStore creates an in-memory ResetTokenStore with the
// given token lifetime.
func NewMemoryResetTokenStore(ttl time.Duration) ResetTokenStore {
	return &memoryResetTokenStore{
		ttl:    ttl,
		tokens: make(map[string]resetEntry),
		now:    time.Now,
	}
}

// Issue creates a new random token bound to the given email.
func (s *memoryResetTokenStore) Issue(email string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpiredLocked()
	s.tokens[token] = resetEntry{email: email, expiresAt: s.now().Add(s.ttl)}
	return token, nil
}

// Consume redeems a token, returning the bound email. The token is removed
// whether or not it had expired.
func (s *memoryResetTokenStore) Consume(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.tokens[token]
	if !ok {
		return "", false
	}
	delete(s.tokens, token)

	if s.now().After(entry.expiresAt) {
		return "", false
	}
	return entry.email, true
}

func (s *memoryResetTokenStore) purgeExpiredLocked() {
	now := s.now()
	for token, entry := range s.tokens {
		if now.After(entry.expiresAt) {
			delete(s.tokens, token)
		}
	}
}
