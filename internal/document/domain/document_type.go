package domain

import (
	"fmt"
	"slices"
	"strings"

	"github.com/allisson/credstore/internal/errors"
)

// DrivingLicenseDocType is the ISO/IEC 18013-5 mobile driving licence doc type.
const DrivingLicenseDocType = "org.iso.18013.5.1.mDL"

// DocumentType describes a kind of document and the credential domains it holds.
type DocumentType struct {
	// DocType is the namespaced type identifier, e.g. "org.iso.18013.5.1.mDL".
	DocType     string
	DisplayName string
	// Domains lists the credential domains a document of this type accepts.
	Domains []string
}

// AllowsDomain reports whether credentials of domain may be added.
func (t DocumentType) AllowsDomain(domain string) bool {
	return slices.Contains(t.Domains, domain)
}

// DrivingLicense is the mobile driving licence type.
var DrivingLicense = DocumentType{
	DocType:     DrivingLicenseDocType,
	DisplayName: "Driving License",
	Domains:     []string{"mdoc"},
}

var (
	// ErrUnknownDocumentType indicates a doc type that is not registered.
	ErrUnknownDocumentType = errors.Coded(errors.ErrInvalidInput, "unknown_document_type", "unknown document type")

	// ErrDomainNotAllowed indicates a credential domain the document type does not accept.
	ErrDomainNotAllowed = errors.Coded(
		errors.ErrInvalidInput,
		"credential_domain_not_allowed",
		"credential domain not allowed for document type",
	)

	// ErrDocumentTypeChange indicates a doc type change on a document that already has credentials.
	ErrDocumentTypeChange = errors.Coded(
		errors.ErrConflict,
		"document_type_change",
		"document type cannot change while credentials exist",
	)

	// ErrInvalidDocumentType indicates a malformed or duplicate registration.
	ErrInvalidDocumentType = errors.Wrap(errors.ErrMisconfigured, "invalid document type registration")
)

// DocumentTypeRepository maps doc types to their description. It is immutable
// once built.
type DocumentTypeRepository struct {
	types map[string]DocumentType
	order []string
}

// DocumentTypeBuilder collects document types before freezing them.
// A DocumentTypeBuilder is not safe for concurrent use.
type DocumentTypeBuilder struct {
	types []DocumentType
}

// NewDocumentTypeBuilder returns an empty builder.
func NewDocumentTypeBuilder() *DocumentTypeBuilder {
	return &DocumentTypeBuilder{}
}

// Add registers t.
func (b *DocumentTypeBuilder) Add(t DocumentType) *DocumentTypeBuilder {
	b.types = append(b.types, t)
	return b
}

// Build returns the frozen repository. Blank doc types, types without domains
// and duplicates are configuration errors.
func (b *DocumentTypeBuilder) Build() (*DocumentTypeRepository, error) {
	repo := &DocumentTypeRepository{types: make(map[string]DocumentType, len(b.types))}

	for _, t := range b.types {
		if strings.TrimSpace(t.DocType) == "" || len(t.Domains) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDocumentType, t.DocType)
		}
		if _, exists := repo.types[t.DocType]; exists {
			return nil, fmt.Errorf("%w: duplicate %s", ErrInvalidDocumentType, t.DocType)
		}
		t.Domains = slices.Clone(t.Domains)
		repo.types[t.DocType] = t
		repo.order = append(repo.order, t.DocType)
	}

	slices.Sort(repo.order)
	return repo, nil
}

// Resolve returns the type registered as docType or ErrUnknownDocumentType.
func (r *DocumentTypeRepository) Resolve(docType string) (DocumentType, error) {
	t, ok := r.types[docType]
	if !ok {
		return DocumentType{}, fmt.Errorf("%w: %s", ErrUnknownDocumentType, docType)
	}
	t.Domains = slices.Clone(t.Domains)
	return t, nil
}

// All returns the registered types ordered by doc type.
func (r *DocumentTypeRepository) All() []DocumentType {
	all := make([]DocumentType, 0, len(r.order))
	for _, docType := range r.order {
		t := r.types[docType]
		t.Domains = slices.Clone(t.Domains)
		all = append(all, t)
	}
	return all
}
