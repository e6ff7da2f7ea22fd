package service

import (
	"fmt"
	"slices"

	secureAreaDomain "github.com/allisson/credstore/internal/securearea/domain"
)

// Repository maps secure area identifiers to instances. It is immutable once
// built, so concurrent Resolve calls need no locking.
type Repository struct {
	areas map[string]SecureArea
	ids   []string
}

// Builder collects secure areas before freezing them into a Repository.
// A Builder is not safe for concurrent use.
type Builder struct {
	entries []registration
}

type registration struct {
	identifier string
	area       SecureArea
}

// NewRepositoryBuilder returns an empty Builder.
func NewRepositoryBuilder() *Builder {
	return &Builder{}
}

// Add registers sa under its own Identifier.
func (b *Builder) Add(sa SecureArea) *Builder {
	if sa == nil {
		return b.Register("", nil)
	}
	return b.Register(sa.Identifier(), sa)
}

// Register registers sa under identifier.
func (b *Builder) Register(identifier string, sa SecureArea) *Builder {
	b.entries = append(b.entries, registration{identifier: identifier, area: sa})
	return b
}

// Build validates the registrations and returns the frozen Repository.
// Empty and duplicate identifiers are configuration errors.
func (b *Builder) Build() (*Repository, error) {
	repo := &Repository{areas: make(map[string]SecureArea, len(b.entries))}

	for _, entry := range b.entries {
		if entry.identifier == "" || entry.area == nil {
			return nil, secureAreaDomain.ErrInvalidRegistration
		}
		if _, exists := repo.areas[entry.identifier]; exists {
			return nil, fmt.Errorf("%w: %s", secureAreaDomain.ErrDuplicateBackend, entry.identifier)
		}
		repo.areas[entry.identifier] = entry.area
		repo.ids = append(repo.ids, entry.identifier)
	}

	slices.Sort(repo.ids)
	return repo, nil
}

// Resolve returns the secure area registered under identifier.
func (r *Repository) Resolve(identifier string) (SecureArea, error) {
	sa, ok := r.areas[identifier]
	if !ok {
		return nil, fmt.Errorf("%w: %s", secureAreaDomain.ErrUnknownBackend, identifier)
	}
	return sa, nil
}

// Identifiers returns the registered identifiers in ascending order.
func (r *Repository) Identifiers() []string {
	return slices.Clone(r.ids)
}
