package dto

import (
	"time"

	"github.com/google/uuid"

	documentDomain "github.com/allisson/credstore/internal/document/domain"
	"github.com/allisson/credstore/internal/httputil"
)

// DocumentResponse represents a document in API responses.
type DocumentResponse struct {
	ID              string    `json:"id"`
	DisplayName     string    `json:"display_name"`
	TypeDisplayName string    `json:"type_display_name"`
	DocType         string    `json:"doc_type,omitempty"`
	CardArt         []byte    `json:"card_art,omitempty"`
	CredentialIDs   []string  `json:"credential_ids"`
	CreatedAt       time.Time `json:"created_at"`
}

// MapDocumentToResponse converts a domain document to an API response.
func MapDocumentToResponse(doc *documentDomain.Document) DocumentResponse {
	return DocumentResponse{
		ID:              doc.ID.String(),
		DisplayName:     doc.Metadata.DisplayName,
		TypeDisplayName: doc.Metadata.TypeDisplayName,
		DocType:         doc.Metadata.DocType,
		CardArt:         doc.Metadata.CardArt,
		CredentialIDs:   uuidStrings(doc.CredentialIDs),
		CreatedAt:       doc.CreatedAt,
	}
}

// ListDocumentsResponse is a page of document ids.
type ListDocumentsResponse struct {
	Data []string          `json:"data"`
	Page httputil.PageInfo `json:"page"`
}

// MapDocumentIDsToListResponse converts one page of document ids to a list response.
func MapDocumentIDsToListResponse(ids []uuid.UUID, page httputil.PageInfo) ListDocumentsResponse {
	return ListDocumentsResponse{Data: uuidStrings(ids), Page: page}
}

// CredentialResponse represents a credential in API responses.
type CredentialResponse struct {
	ID               string     `json:"id"`
	DocumentID       string     `json:"document_id"`
	Domain           string     `json:"domain"`
	SecureArea       string     `json:"secure_area"`
	KeyAlias         string     `json:"key_alias"`
	ValidFrom        *time.Time `json:"valid_from,omitempty"`
	ValidUntil       *time.Time `json:"valid_until,omitempty"`
	CertificateChain [][]byte   `json:"certificate_chain,omitempty"`
	SignedData       []byte     `json:"signed_data,omitempty"`
	UsageCount       int64      `json:"usage_count"`
	CreatedAt        time.Time  `json:"created_at"`
}

// MapCredentialToResponse converts a domain credential to an API response.
func MapCredentialToResponse(credential *documentDomain.Credential) CredentialResponse {
	return CredentialResponse{
		ID:               credential.ID.String(),
		DocumentID:       credential.DocumentID.String(),
		Domain:           credential.Domain,
		SecureArea:       credential.SecureAreaID,
		KeyAlias:         credential.KeyAlias,
		ValidFrom:        optionalTime(credential.ValidFrom),
		ValidUntil:       optionalTime(credential.ValidUntil),
		CertificateChain: credential.IssuerData.CertificateChain,
		SignedData:       credential.IssuerData.SignedData,
		UsageCount:       credential.UsageCount,
		CreatedAt:        credential.CreatedAt,
	}
}

// ListCredentialsResponse lists the credentials of a document.
type ListCredentialsResponse struct {
	Data []CredentialResponse `json:"data"`
}

// MapCredentialsToListResponse converts domain credentials to a list response.
func MapCredentialsToListResponse(credentials []*documentDomain.Credential) ListCredentialsResponse {
	data := make([]CredentialResponse, 0, len(credentials))
	for _, credential := range credentials {
		data = append(data, MapCredentialToResponse(credential))
	}
	return ListCredentialsResponse{Data: data}
}

// DocumentTypeResponse describes a registered document type.
type DocumentTypeResponse struct {
	DocType     string   `json:"doc_type"`
	DisplayName string   `json:"display_name"`
	Domains     []string `json:"domains"`
}

// ListDocumentTypesResponse lists the registered document types.
type ListDocumentTypesResponse struct {
	Data []DocumentTypeResponse `json:"data"`
}

// MapDocumentTypesToResponse converts document types to a list response.
func MapDocumentTypesToResponse(types []documentDomain.DocumentType) ListDocumentTypesResponse {
	data := make([]DocumentTypeResponse, 0, len(types))
	for _, t := range types {
		data = append(data, DocumentTypeResponse{
			DocType:     t.DocType,
			DisplayName: t.DisplayName,
			Domains:     t.Domains,
		})
	}
	return ListDocumentTypesResponse{Data: data}
}

// SignResponse carries a raw signature (r||s for ECDSA).
type SignResponse struct {
	Signature []byte `json:"signature"`
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
