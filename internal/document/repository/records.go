package repository

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	documentDomain "github.com/allisson/credstore/internal/document/domain"
	"github.com/allisson/credstore/internal/storage"
)

// documentRecord is the persisted form of a Document in table Documents.
type documentRecord struct {
	DisplayName     string    `cbor:"displayName"`
	TypeDisplayName string    `cbor:"typeDisplayName"`
	DocType         string    `cbor:"docType,omitempty"`
	CardArt         []byte    `cbor:"cardArt,omitempty"`
	CredentialIDs   []string  `cbor:"credentialIds"`
	CreatedAt       time.Time `cbor:"createdAt"`
}

// credentialRecord is the persisted form of a Credential in table Credentials.
type credentialRecord struct {
	DocumentID       string    `cbor:"documentId"`
	Domain           string    `cbor:"domain"`
	SecureAreaID     string    `cbor:"secureAreaId"`
	KeyAlias         string    `cbor:"keyAlias"`
	ValidFrom        time.Time `cbor:"validFrom"`
	ValidUntil       time.Time `cbor:"validUntil"`
	CertificateChain [][]byte  `cbor:"certificateChain"`
	SignedData       []byte    `cbor:"signedData"`
	UsageCount       int64     `cbor:"usageCount"`
	CreatedAt        time.Time `cbor:"createdAt"`
}

func toDocumentRecord(doc *documentDomain.Document) *documentRecord {
	ids := make([]string, 0, len(doc.CredentialIDs))
	for _, id := range doc.CredentialIDs {
		ids = append(ids, id.String())
	}
	return &documentRecord{
		DisplayName:     doc.Metadata.DisplayName,
		TypeDisplayName: doc.Metadata.TypeDisplayName,
		DocType:         doc.Metadata.DocType,
		CardArt:         doc.Metadata.CardArt,
		CredentialIDs:   ids,
		CreatedAt:       doc.CreatedAt,
	}
}

func (r *documentRecord) toDomain(id uuid.UUID) (*documentDomain.Document, error) {
	ids := make([]uuid.UUID, 0, len(r.CredentialIDs))
	for _, raw := range r.CredentialIDs {
		credentialID, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: credential id %q: %w", storage.ErrCorruptRecord, raw, err)
		}
		ids = append(ids, credentialID)
	}
	return &documentDomain.Document{
		ID: id,
		Metadata: documentDomain.Metadata{
			DisplayName:     r.DisplayName,
			TypeDisplayName: r.TypeDisplayName,
			DocType:         r.DocType,
			CardArt:         r.CardArt,
		},
		CredentialIDs: ids,
		CreatedAt:     r.CreatedAt,
	}, nil
}

func toCredentialRecord(c *documentDomain.Credential) *credentialRecord {
	return &credentialRecord{
		DocumentID:       c.DocumentID.String(),
		Domain:           c.Domain,
		SecureAreaID:     c.SecureAreaID,
		KeyAlias:         c.KeyAlias,
		ValidFrom:        c.ValidFrom,
		ValidUntil:       c.ValidUntil,
		CertificateChain: c.IssuerData.CertificateChain,
		SignedData:       c.IssuerData.SignedData,
		UsageCount:       c.UsageCount,
		CreatedAt:        c.CreatedAt,
	}
}

func (r *credentialRecord) toDomain(id uuid.UUID) (*documentDomain.Credential, error) {
	documentID, err := uuid.Parse(r.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("%w: document id %q: %w", storage.ErrCorruptRecord, r.DocumentID, err)
	}
	return &documentDomain.Credential{
		ID:           id,
		DocumentID:   documentID,
		Domain:       r.Domain,
		SecureAreaID: r.SecureAreaID,
		KeyAlias:     r.KeyAlias,
		ValidFrom:    r.ValidFrom,
		ValidUntil:   r.ValidUntil,
		IssuerData: documentDomain.IssuerData{
			CertificateChain: r.CertificateChain,
			SignedData:       r.SignedData,
		},
		UsageCount: r.UsageCount,
		CreatedAt:  r.CreatedAt,
	}, nil
}
