package session

import (
	"context"
	"sync"

	"golang.org/x/oauth2"
)

// Durable storage keys.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
)

// Store persists the token pair across runs.
type Store interface {
	// Load returns the stored tokens. Missing keys leave the matching field empty.
	Load(ctx context.Context) (*oauth2.Token, error)
	// Save writes each non-empty token in one transaction.
	Save(ctx context.Context, tok *oauth2.Token) error
	// Clear removes both tokens in one transaction.
	Clear(ctx context.Context) error
}

// MemoryStore is an in-process [Store].
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore creates a [MemoryStore] seeded with the given tokens.
func NewMemoryStore(access, refresh string) *MemoryStore {
	s := &MemoryStore{values: map[string]string{}}
	s.Save(context.Background(), &oauth2.Token{AccessToken: access, RefreshToken: refresh})
	return s
}

func (s *MemoryStore) Load(context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &oauth2.Token{AccessToken: s.values[KeyAccessToken], RefreshToken: s.values[KeyRefreshToken]}, nil
}

func (s *MemoryStore) Save(_ context.Context, tok *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != "" {
		s.values[KeyAccessToken] = tok.AccessToken
	}
	if tok.RefreshToken != "" {
		s.values[KeyRefreshToken] = tok.RefreshToken
	}
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.values)
	return nil
}

// Get returns the raw value stored under key.
func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Len is the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}
