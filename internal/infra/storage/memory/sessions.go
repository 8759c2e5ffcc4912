package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"staybook/internal/app/policies"
	"staybook/internal/infra/security"
)

var ErrInvalidCredentials = errors.New("memory: invalid credentials")

type userRecord struct {
	principal    policies.Principal
	passwordHash string
}

// SessionStore is an in-memory identity backend: users with bcrypt
// password hashes, bearer tokens resolved to principals. Stands in for
// the external identity service in development and tests.
type SessionStore struct {
	mu     sync.RWMutex
	users  map[string]userRecord
	tokens map[string]policies.Principal
	hasher security.PasswordHasher
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		users:  make(map[string]userRecord),
		tokens: make(map[string]policies.Principal),
		hasher: security.BcryptHasher{},
	}
}

func (s *SessionStore) AddUser(principal policies.Principal, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.ToLower(principal.Email)] = userRecord{principal: principal, passwordHash: hash}
	return nil
}

// Login verifies credentials and issues a bearer token.
func (s *SessionStore) Login(ctx context.Context, email, password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[strings.ToLower(email)]
	if !ok {
		return "", ErrInvalidCredentials
	}
	if err := s.hasher.Compare(rec.passwordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}
	token, err := security.NewToken()
	if err != nil {
		return "", err
	}
	s.tokens[token] = rec.principal
	return token, nil
}

func (s *SessionStore) Resolve(ctx context.Context, token string) (policies.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	principal, ok := s.tokens[token]
	if !ok {
		return policies.Principal{}, policies.ErrSessionNotFound
	}
	return principal, nil
}

func (s *SessionStore) Revoke(ctx context.Context, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}
