package authbroker

import "sync"

// A TokenStore holds the current SessionToken for the process.
//
// The store lives in memory only and must never be persisted; its contents do
// not outlive the process. The exchanger is the only writer of new tokens.
// The dispatcher and the identity-session-end handling clear it.
//
// Reads always observe either the prior token or the new one, never a
// partially written value.
type TokenStore struct {
	mu  sync.RWMutex
	tok SessionToken
}

func NewTokenStore() *TokenStore { return new(TokenStore) }

// Current returns the held SessionToken and whether one is held.
func (s *TokenStore) Current() (SessionToken, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tok, !s.tok.IsZero()
}

// Set swaps in tok as the current SessionToken in a single atomic update.
// Setting the zero SessionToken is equivalent to Clear.
func (s *TokenStore) Set(tok SessionToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tok = tok
}

// Clear unsets the current SessionToken.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tok = SessionToken{}
}
