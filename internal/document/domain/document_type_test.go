package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/credstore/internal/errors"
)

func TestDocumentTypeRepository(t *testing.T) {
	residence := DocumentType{
		DocType:     "org.example.residence-permit",
		DisplayName: "Residence Permit",
		Domains:     []string{"mdoc", "sd-jwt"},
	}
	types, err := NewDocumentTypeBuilder().Add(residence).Add(DrivingLicense).Build()
	require.NoError(t, err)

	t.Run("Resolve", func(t *testing.T) {
		mdl, err := types.Resolve("org.iso.18013.5.1.mDL")
		require.NoError(t, err)
		assert.Equal(t, "Driving License", mdl.DisplayName)
		assert.True(t, mdl.AllowsDomain("mdoc"))
		assert.False(t, mdl.AllowsDomain("sd-jwt"))
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := types.Resolve("org.example.passport")
		assert.ErrorIs(t, err, ErrUnknownDocumentType)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Equal(t, "unknown_document_type", apperrors.Code(err))
	})

	t.Run("AllIsOrderedAndDetached", func(t *testing.T) {
		all := types.All()
		require.Len(t, all, 2)
		assert.Equal(t, DrivingLicenseDocType, all[0].DocType)
		assert.Equal(t, residence.DocType, all[1].DocType)

		all[0].Domains[0] = "tampered"
		mdl, err := types.Resolve(DrivingLicenseDocType)
		require.NoError(t, err)
		assert.Equal(t, []string{"mdoc"}, mdl.Domains)
	})
}

func TestDocumentTypeBuilder_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		types []DocumentType
	}{
		{name: "BlankDocType", types: []DocumentType{{DocType: " ", Domains: []string{"mdoc"}}}},
		{name: "NoDomains", types: []DocumentType{{DocType: "org.example.empty"}}},
		{name: "Duplicate", types: []DocumentType{DrivingLicense, DrivingLicense}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := NewDocumentTypeBuilder()
			for _, dt := range tt.types {
				builder.Add(dt)
			}
			_, err := builder.Build()
			assert.ErrorIs(t, err, ErrInvalidDocumentType)
			assert.ErrorIs(t, err, apperrors.ErrMisconfigured)
		})
	}
}
