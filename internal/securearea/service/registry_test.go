package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	secureAreaDomain "github.com/allisson/credstore/internal/securearea/domain"
	"github.com/allisson/credstore/internal/securearea/service/mocks"
)

func newMockArea(id string) *mocks.MockSecureArea {
	m := &mocks.MockSecureArea{}
	m.On("Identifier").Return(id).Maybe()
	return m
}

func TestRepository_Resolve(t *testing.T) {
	software := newMockArea("software")
	cloud := newMockArea("cloud")

	repo, err := NewRepositoryBuilder().
		Add(software).
		Add(cloud).
		Build()
	require.NoError(t, err)

	got, err := repo.Resolve("software")
	require.NoError(t, err)
	assert.Same(t, software, got)

	got, err = repo.Resolve("cloud")
	require.NoError(t, err)
	assert.Same(t, cloud, got)

	_, err = repo.Resolve("hsm")
	assert.ErrorIs(t, err, secureAreaDomain.ErrUnknownBackend)

	assert.Equal(t, []string{"cloud", "software"}, repo.Identifiers())
}

func TestRepository_RegisterUnderCustomIdentifier(t *testing.T) {
	area := newMockArea("software")

	repo, err := NewRepositoryBuilder().Register("software-eu", area).Build()
	require.NoError(t, err)

	got, err := repo.Resolve("software-eu")
	require.NoError(t, err)
	assert.Same(t, area, got)

	_, err = repo.Resolve("software")
	assert.ErrorIs(t, err, secureAreaDomain.ErrUnknownBackend)
}

func TestBuilder_Build(t *testing.T) {
	tests := []struct {
		name    string
		build   func(b *Builder) *Builder
		wantErr error
	}{
		{
			name:  "Empty",
			build: func(b *Builder) *Builder { return b },
		},
		{
			name: "DuplicateIdentifier",
			build: func(b *Builder) *Builder {
				return b.Add(newMockArea("software")).Add(newMockArea("software"))
			},
			wantErr: secureAreaDomain.ErrDuplicateBackend,
		},
		{
			name: "EmptyIdentifier",
			build: func(b *Builder) *Builder {
				return b.Register("", newMockArea("software"))
			},
			wantErr: secureAreaDomain.ErrInvalidRegistration,
		},
		{
			name: "NilArea",
			build: func(b *Builder) *Builder {
				return b.Add(nil)
			},
			wantErr: secureAreaDomain.ErrInvalidRegistration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, err := tt.build(NewRepositoryBuilder()).Build()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, repo)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, repo.Identifiers())
		})
	}
}

func TestRepository_IdentifiersReturnsCopy(t *testing.T) {
	repo, err := NewRepositoryBuilder().Add(newMockArea("a")).Add(newMockArea("b")).Build()
	require.NoError(t, err)

	ids := repo.Identifiers()
	ids[0] = "mutated"

	assert.Equal(t, []string{"a", "b"}, repo.Identifiers())
}
