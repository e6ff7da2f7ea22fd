package domain

import (
	"context"
	"encoding/base64"
	"fmt"
	"slices"
	"strings"
	"sync"
)

const masterKeySize = 32

// MasterKey wraps the private keys of the software secure area. It never
// reaches storage: configuration carries it KMS-encrypted and it is
// decrypted at startup.
type MasterKey struct {
	ID  string
	Key []byte
}

// KMSKeeper is the subset of *secrets.Keeper (gocloud.dev/secrets) used here.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// MasterKeyChain holds every configured master key. Wraps use the active
// one; the rest stay loaded so keys sealed before a rotation still open.
type MasterKeyChain struct {
	mu       sync.RWMutex
	activeID string
	keys     map[string]*MasterKey
}

// NewMasterKeyChain copies keys into a new chain.
func NewMasterKeyChain(activeID string, keys ...*MasterKey) (*MasterKeyChain, error) {
	if activeID == "" {
		return nil, ErrActiveMasterKeyIDNotSet
	}

	chain := &MasterKeyChain{activeID: activeID, keys: make(map[string]*MasterKey, len(keys))}
	for _, mk := range keys {
		if len(mk.Key) != masterKeySize {
			chain.Close()
			return nil, fmt.Errorf("%w: master key %s must be %d bytes, got %d",
				ErrInvalidKeySize, mk.ID, masterKeySize, len(mk.Key))
		}
		chain.keys[mk.ID] = &MasterKey{ID: mk.ID, Key: slices.Clone(mk.Key)}
	}

	if _, ok := chain.keys[activeID]; !ok {
		chain.Close()
		return nil, fmt.Errorf("%w: ACTIVE_MASTER_KEY_ID=%s", ErrActiveMasterKeyNotFound, activeID)
	}
	return chain, nil
}

func (m *MasterKeyChain) ActiveMasterKeyID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeID
}

func (m *MasterKeyChain) Active() (*MasterKey, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mk, ok := m.keys[m.activeID]
	return mk, ok
}

// Get looks a master key up by the ID recorded in a WrappedKey.
func (m *MasterKeyChain) Get(id string) (*MasterKey, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mk, ok := m.keys[id]
	return mk, ok
}

// Close zeroes every key. The chain is unusable afterwards.
func (m *MasterKeyChain) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mk := range m.keys {
		Zero(mk.Key)
	}
	clear(m.keys)
	m.activeID = ""
}

type masterKeyEntry struct {
	id         string
	ciphertext []byte
}

// parseMasterKeys splits "id1:base64ciphertext,id2:base64ciphertext".
func parseMasterKeys(rawKeys string) ([]masterKeyEntry, error) {
	if rawKeys == "" {
		return nil, ErrMasterKeysNotSet
	}

	var entries []masterKeyEntry
	seen := make(map[string]bool)
	for part := range strings.SplitSeq(rawKeys, ",") {
		id, encoded, found := strings.Cut(strings.TrimSpace(part), ":")
		if !found || id == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidMasterKeysFormat, part)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidMasterKeysFormat, id)
		}
		seen[id] = true

		ciphertext, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("%w for %s: %v", ErrInvalidMasterKeyBase64, id, err)
		}
		entries = append(entries, masterKeyEntry{id: id, ciphertext: ciphertext})
	}
	return entries, nil
}

// MasterKeyIDs lists the IDs in a MASTER_KEYS value without decrypting anything.
func MasterKeyIDs(rawKeys string) ([]string, error) {
	entries, err := parseMasterKeys(rawKeys)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	return ids, nil
}

// LoadMasterKeyChain decrypts every entry of rawKeys with keeper. The
// decrypted plaintexts are zeroed once the chain holds its own copies.
func LoadMasterKeyChain(ctx context.Context, keeper KMSKeeper, rawKeys, activeID string) (*MasterKeyChain, error) {
	entries, err := parseMasterKeys(rawKeys)
	if err != nil {
		return nil, err
	}
	if activeID == "" {
		return nil, ErrActiveMasterKeyIDNotSet
	}

	keys := make([]*MasterKey, 0, len(entries))
	defer func() {
		for _, mk := range keys {
			Zero(mk.Key)
		}
	}()

	for _, e := range entries {
		key, err := keeper.Decrypt(ctx, e.ciphertext)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt master key %s: %w", e.id, err)
		}
		keys = append(keys, &MasterKey{ID: e.id, Key: key})
	}

	return NewMasterKeyChain(activeID, keys...)
}
