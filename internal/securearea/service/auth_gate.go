package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/allisson/go-pwdhash"

	secureAreaDomain "github.com/allisson/credstore/internal/securearea/domain"
)

// AuthGate enforces user authentication for keys created with
// AuthenticationRequired.
//
// The passphrase is stored only as an Argon2id hash in the key record. A
// successful unlock of a key with a positive AuthenticationTimeout opens a
// session for that alias; sessions live in memory only and end on restart.
type AuthGate struct {
	hasher *pwdhash.PasswordHasher
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]time.Time
}

// NewAuthGate creates an AuthGate using the interactive Argon2id policy.
func NewAuthGate() (*AuthGate, error) {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		return nil, fmt.Errorf("failed to create passphrase hasher: %w", err)
	}

	return &AuthGate{
		hasher:   hasher,
		now:      time.Now,
		sessions: make(map[string]time.Time),
	}, nil
}

// Protect copies the authentication policy of settings into record.
func (g *AuthGate) Protect(record *secureAreaDomain.KeyRecord, settings secureAreaDomain.KeySettings) error {
	record.AuthenticationRequired = settings.AuthenticationRequired
	record.AuthenticationTimeout = settings.AuthenticationTimeout
	if !settings.AuthenticationRequired {
		return nil
	}

	hash, err := g.hasher.Hash([]byte(settings.Passphrase))
	if err != nil {
		return fmt.Errorf("failed to hash passphrase: %w", err)
	}
	record.PassphraseHash = hash
	return nil
}

// Authorize admits the operation or returns ErrAuthenticationRequired.
func (g *AuthGate) Authorize(record *secureAreaDomain.KeyRecord, unlock *secureAreaDomain.KeyUnlockData) error {
	if !record.AuthenticationRequired {
		return nil
	}

	if unlock != nil && unlock.Passphrase != "" {
		ok, err := g.hasher.Verify([]byte(unlock.Passphrase), record.PassphraseHash)
		if err != nil || !ok {
			return fmt.Errorf("%w: passphrase rejected", secureAreaDomain.ErrAuthenticationRequired)
		}
		if record.AuthenticationTimeout > 0 {
			g.mu.Lock()
			g.sessions[record.Alias] = g.now().Add(record.AuthenticationTimeout)
			g.mu.Unlock()
		}
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	expiry, ok := g.sessions[record.Alias]
	if ok && g.now().Before(expiry) {
		return nil
	}
	delete(g.sessions, record.Alias)
	return secureAreaDomain.ErrAuthenticationRequired
}

// Revoke ends the session of alias, if any.
func (g *AuthGate) Revoke(alias string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.sessions, alias)
}
