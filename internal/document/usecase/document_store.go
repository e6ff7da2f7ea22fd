package usecase

import (
	"context"
	"crypto/rand"
	"crypto/x509/pkix"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"slices"
	"time"

	"github.com/google/uuid"

	documentDomain "github.com/allisson/credstore/internal/document/domain"
	apperrors "github.com/allisson/credstore/internal/errors"
	secureAreaDomain "github.com/allisson/credstore/internal/securearea/domain"
	secureAreaService "github.com/allisson/credstore/internal/securearea/service"
)

// documentStore implements the DocumentStore interface.
type documentStore struct {
	documents   DocumentRepository
	credentials CredentialRepository
	secureAreas SecureAreaResolver
	types       *documentDomain.DocumentTypeRepository
	issuer      documentDomain.CertificateIssuer
	logger      *slog.Logger
	locks       *keyedMutex
	now         func() time.Time
}

// NewDocumentStore creates a DocumentStore. issuer may be nil, in which case
// credentials keep only the issuer data supplied by the caller.
func NewDocumentStore(
	documents DocumentRepository,
	credentials CredentialRepository,
	secureAreas SecureAreaResolver,
	types *documentDomain.DocumentTypeRepository,
	issuer documentDomain.CertificateIssuer,
	logger *slog.Logger,
) DocumentStore {
	return &documentStore{
		documents:   documents,
		credentials: credentials,
		secureAreas: secureAreas,
		types:       types,
		issuer:      issuer,
		logger:      logger,
		locks:       newKeyedMutex(),
		now:         time.Now,
	}
}

// CreateDocument persists a new document without credentials.
func (s *documentStore) CreateDocument(
	ctx context.Context,
	metadata documentDomain.Metadata,
) (*documentDomain.Document, error) {
	metadata, err := s.resolveMetadata(metadata)
	if err != nil {
		return nil, err
	}

	doc := &documentDomain.Document{
		ID:            uuid.Must(uuid.NewV7()),
		Metadata:      metadata,
		CredentialIDs: []uuid.UUID{},
		CreatedAt:     s.now().UTC(),
	}
	if err := s.documents.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// resolveMetadata validates metadata and fills TypeDisplayName from the
// registered DocType when it is left empty.
func (s *documentStore) resolveMetadata(metadata documentDomain.Metadata) (documentDomain.Metadata, error) {
	if err := metadata.Validate(); err != nil {
		return metadata, err
	}
	if metadata.DocType == "" {
		return metadata, nil
	}

	docType, err := s.types.Resolve(metadata.DocType)
	if err != nil {
		return metadata, err
	}
	if metadata.TypeDisplayName == "" {
		metadata.TypeDisplayName = docType.DisplayName
	}
	return metadata, nil
}

// LookupDocument returns the document or ErrDocumentNotFound.
func (s *documentStore) LookupDocument(ctx context.Context, id uuid.UUID) (*documentDomain.Document, error) {
	return s.documents.Get(ctx, id)
}

// ListDocuments returns every document id.
func (s *documentStore) ListDocuments(ctx context.Context) ([]uuid.UUID, error) {
	return s.documents.List(ctx)
}

// UpdateMetadata replaces the display metadata of a document.
func (s *documentStore) UpdateMetadata(
	ctx context.Context,
	id uuid.UUID,
	metadata documentDomain.Metadata,
) (*documentDomain.Document, error) {
	metadata, err := s.resolveMetadata(metadata)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	doc, err := s.documents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Metadata.DocType != metadata.DocType && len(doc.CredentialIDs) > 0 {
		return nil, fmt.Errorf("%w: %q to %q",
			documentDomain.ErrDocumentTypeChange, doc.Metadata.DocType, metadata.DocType)
	}
	doc.Metadata = metadata
	if err := s.documents.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// DeleteDocument deletes every credential key, then every credential record,
// then the document record.
//
// Missing keys and unregistered secure areas are logged and skipped so a
// partially completed deletion can be retried.
func (s *documentStore) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	doc, err := s.documents.Get(ctx, id)
	if err != nil {
		return err
	}

	credentials := make([]*documentDomain.Credential, 0, len(doc.CredentialIDs))
	for _, credentialID := range doc.CredentialIDs {
		credential, err := s.credentials.Get(ctx, credentialID)
		if errors.Is(err, documentDomain.ErrCredentialNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		credentials = append(credentials, credential)
	}

	for _, credential := range credentials {
		if err := s.deleteCredentialKey(ctx, credential); err != nil {
			return err
		}
	}

	for _, credential := range credentials {
		if err := s.credentials.Delete(ctx, credential.ID); err != nil {
			return err
		}
	}

	if err := s.documents.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("document deleted",
		slog.String("document_id", id.String()),
		slog.Int("credentials", len(credentials)),
	)
	return nil
}

// AddCredential creates the credential key, optionally certifies it, and
// persists the credential record followed by the document credential list.
func (s *documentStore) AddCredential(
	ctx context.Context,
	documentID uuid.UUID,
	input documentDomain.AddCredentialInput,
) (*documentDomain.Credential, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(documentID)
	defer unlock()

	doc, err := s.documents.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Metadata.DocType != "" {
		docType, err := s.types.Resolve(doc.Metadata.DocType)
		if err != nil {
			return nil, err
		}
		if !docType.AllowsDomain(input.Domain) {
			return nil, fmt.Errorf("%w: %s does not accept %q",
				documentDomain.ErrDomainNotAllowed, docType.DocType, input.Domain)
		}
	}

	secureArea, err := s.secureAreas.Resolve(input.SecureAreaID)
	if err != nil {
		return nil, err
	}

	credentialID := uuid.Must(uuid.NewV7())
	keyAlias := credentialID.String()

	info, err := secureArea.CreateKey(ctx, keyAlias, input.EffectiveKeySettings())
	if err != nil {
		if info != nil {
			s.rollbackKey(ctx, secureArea, info.Alias, err)
		}
		return nil, err
	}

	// Without an issuer the caller's data is stored as given. The attestation
	// chain stays on the key record.
	issuerData := input.IssuerData
	if s.issuer != nil {
		chain, err := s.issueCertificate(ctx, doc, info, input)
		if err != nil {
			s.rollbackKey(ctx, secureArea, info.Alias, err)
			return nil, err
		}
		issuerData.CertificateChain = chain
	}

	credential := &documentDomain.Credential{
		ID:           credentialID,
		DocumentID:   documentID,
		Domain:       input.Domain,
		SecureAreaID: input.SecureAreaID,
		KeyAlias:     info.Alias,
		ValidFrom:    input.ValidFrom,
		ValidUntil:   input.ValidUntil,
		IssuerData:   issuerData,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.credentials.Save(ctx, credential); err != nil {
		s.rollbackKey(ctx, secureArea, info.Alias, err)
		return nil, err
	}

	doc.CredentialIDs = append(doc.CredentialIDs, credentialID)
	if err := s.documents.Save(ctx, doc); err != nil {
		s.rollbackKey(ctx, secureArea, info.Alias, err)
		if deleteErr := s.credentials.Delete(context.WithoutCancel(ctx), credentialID); deleteErr != nil {
			s.logger.Error("failed to roll back credential record",
				slog.String("credential_id", credentialID.String()),
				slog.Any("error", deleteErr),
			)
		}
		return nil, err
	}

	s.logger.Info("credential added",
		slog.String("document_id", documentID.String()),
		slog.String("credential_id", credentialID.String()),
		slog.String("secure_area", input.SecureAreaID),
	)
	return credential, nil
}

// LookupCredential returns the credential or ErrCredentialNotFound.
func (s *documentStore) LookupCredential(ctx context.Context, id uuid.UUID) (*documentDomain.Credential, error) {
	return s.credentials.Get(ctx, id)
}

// ListCredentials returns the credentials of a document in insertion order.
func (s *documentStore) ListCredentials(
	ctx context.Context,
	documentID uuid.UUID,
) ([]*documentDomain.Credential, error) {
	doc, err := s.documents.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	credentials := make([]*documentDomain.Credential, 0, len(doc.CredentialIDs))
	for _, id := range doc.CredentialIDs {
		credential, err := s.credentials.Get(ctx, id)
		if errors.Is(err, documentDomain.ErrCredentialNotFound) {
			// Listed but never committed or already swept.
			continue
		}
		if err != nil {
			return nil, err
		}
		credentials = append(credentials, credential)
	}
	return credentials, nil
}

// DeleteCredential deletes the key, then the credential record, then removes
// the credential from its document.
func (s *documentStore) DeleteCredential(ctx context.Context, documentID, credentialID uuid.UUID) error {
	unlock := s.locks.Lock(documentID)
	defer unlock()

	doc, err := s.documents.Get(ctx, documentID)
	if err != nil {
		return err
	}
	if !doc.HasCredential(credentialID) {
		return documentDomain.ErrCredentialNotFound
	}

	credential, err := s.credentials.Get(ctx, credentialID)
	switch {
	case errors.Is(err, documentDomain.ErrCredentialNotFound):
	case err != nil:
		return err
	default:
		if err := s.deleteCredentialKey(ctx, credential); err != nil {
			return err
		}
		if err := s.credentials.Delete(ctx, credentialID); err != nil {
			return err
		}
	}

	doc.RemoveCredential(credentialID)
	return s.documents.Save(ctx, doc)
}

// FindCredential picks the credential of domain valid at at with the lowest
// usage count. Ties go to the earliest added credential.
func (s *documentStore) FindCredential(
	ctx context.Context,
	documentID uuid.UUID,
	domain string,
	at time.Time,
) (*documentDomain.Credential, error) {
	credentials, err := s.ListCredentials(ctx, documentID)
	if err != nil {
		return nil, err
	}

	var best *documentDomain.Credential
	for _, credential := range credentials {
		if credential.Domain != domain || !credential.IsValidAt(at) {
			continue
		}
		if best == nil || credential.UsageCount < best.UsageCount {
			best = credential
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: no usable credential in domain %q", documentDomain.ErrCredentialNotFound, domain)
	}
	return best, nil
}

// Sign signs data with the credential key and records the use.
func (s *documentStore) Sign(
	ctx context.Context,
	credentialID uuid.UUID,
	data []byte,
	unlock *secureAreaDomain.KeyUnlockData,
) ([]byte, error) {
	credential, err := s.credentials.Get(ctx, credentialID)
	if err != nil {
		return nil, err
	}

	release := s.locks.Lock(credential.DocumentID)
	defer release()

	// Re-read under the lock; the credential may have been deleted meanwhile.
	credential, err = s.credentials.Get(ctx, credentialID)
	if err != nil {
		return nil, err
	}
	if !credential.IsValidAt(s.now()) {
		return nil, secureAreaDomain.ErrKeyNotValid
	}

	secureArea, err := s.secureAreas.Resolve(credential.SecureAreaID)
	if err != nil {
		return nil, err
	}

	signature, err := secureArea.Sign(ctx, credential.KeyAlias, data, unlock)
	if err != nil {
		return nil, err
	}

	credential.UsageCount++
	if err := s.credentials.Save(ctx, credential); err != nil {
		return nil, err
	}
	return signature, nil
}

// orphanKeyGrace keeps Sweep away from keys whose AddCredential may still be
// running. The credential record is written after the key.
const orphanKeyGrace = 10 * time.Minute

// Sweep deletes credential records that lost their document, are no longer
// listed by it, or whose key is gone. Keys of orphaned records are deleted too,
// as are keys older than orphanKeyGrace that no credential record claims.
func (s *documentStore) Sweep(ctx context.Context) (*SweepResult, error) {
	ids, err := s.credentials.List(ctx)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{
		RemovedCredentialIDs: []uuid.UUID{},
		SkippedCredentialIDs: []uuid.UUID{},
		RemovedKeys:          []KeyRef{},
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		removed, skipped, err := s.sweepCredential(ctx, id)
		if err != nil {
			return result, err
		}
		if removed {
			result.RemovedCredentialIDs = append(result.RemovedCredentialIDs, id)
		}
		if skipped {
			result.SkippedCredentialIDs = append(result.SkippedCredentialIDs, id)
		}
	}

	documentIDs, err := s.documents.List(ctx)
	if err != nil {
		return result, err
	}
	for _, documentID := range documentIDs {
		pruned, err := s.pruneDanglingReferences(ctx, documentID)
		if err != nil {
			return result, err
		}
		result.PrunedReferences += pruned
	}

	for _, secureAreaID := range s.secureAreas.Identifiers() {
		secureArea, err := s.secureAreas.Resolve(secureAreaID)
		if err != nil {
			return result, err
		}
		if err := s.sweepKeys(ctx, secureArea, result); err != nil {
			return result, err
		}
	}

	s.logger.Info("credential sweep finished",
		slog.Int("scanned", len(ids)),
		slog.Int("removed", len(result.RemovedCredentialIDs)),
		slog.Int("skipped", len(result.SkippedCredentialIDs)),
		slog.Int("pruned_references", result.PrunedReferences),
		slog.Int("removed_keys", len(result.RemovedKeys)),
	)
	return result, nil
}

// sweepKeys deletes keys whose alias is a credential id with no matching
// record. Aliases that are not credential ids were not created by this store
// and are left alone.
func (s *documentStore) sweepKeys(
	ctx context.Context,
	secureArea secureAreaService.SecureArea,
	result *SweepResult,
) error {
	aliases, err := secureArea.ListKeys(ctx)
	if err != nil {
		return err
	}

	for _, alias := range aliases {
		if err := ctx.Err(); err != nil {
			return err
		}

		credentialID, err := uuid.Parse(alias)
		if err != nil {
			continue
		}
		credential, err := s.credentials.Get(ctx, credentialID)
		switch {
		case err == nil:
			if credential.SecureAreaID == secureArea.Identifier() && credential.KeyAlias == alias {
				continue
			}
		case !errors.Is(err, documentDomain.ErrCredentialNotFound):
			return err
		}

		info, err := secureArea.GetKeyInfo(ctx, alias)
		if errors.Is(err, secureAreaDomain.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if s.now().Sub(info.CreatedAt) < orphanKeyGrace {
			continue
		}

		if err := secureArea.DeleteKey(ctx, alias); err != nil {
			return err
		}
		result.RemovedKeys = append(result.RemovedKeys, KeyRef{SecureAreaID: secureArea.Identifier(), Alias: alias})
		s.logger.Info("unclaimed credential key removed",
			slog.String("secure_area", secureArea.Identifier()),
			slog.String("key_alias", alias),
		)
	}
	return nil
}

// pruneDanglingReferences drops credential ids whose record no longer exists.
func (s *documentStore) pruneDanglingReferences(ctx context.Context, documentID uuid.UUID) (int, error) {
	unlock := s.locks.Lock(documentID)
	defer unlock()

	doc, err := s.documents.Get(ctx, documentID)
	if errors.Is(err, documentDomain.ErrDocumentNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	kept := make([]uuid.UUID, 0, len(doc.CredentialIDs))
	for _, id := range doc.CredentialIDs {
		_, err := s.credentials.Get(ctx, id)
		if errors.Is(err, documentDomain.ErrCredentialNotFound) {
			continue
		}
		if err != nil {
			return 0, err
		}
		kept = append(kept, id)
	}

	pruned := len(doc.CredentialIDs) - len(kept)
	if pruned == 0 {
		return 0, nil
	}
	doc.CredentialIDs = kept
	if err := s.documents.Save(ctx, doc); err != nil {
		return 0, err
	}
	return pruned, nil
}

func (s *documentStore) sweepCredential(ctx context.Context, id uuid.UUID) (removed, skipped bool, err error) {
	credential, err := s.credentials.Get(ctx, id)
	if errors.Is(err, documentDomain.ErrCredentialNotFound) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}

	unlock := s.locks.Lock(credential.DocumentID)
	defer unlock()

	doc, err := s.documents.Get(ctx, credential.DocumentID)
	if err != nil && !errors.Is(err, documentDomain.ErrDocumentNotFound) {
		return false, false, err
	}
	orphan := doc == nil || !doc.HasCredential(id)

	secureArea, err := s.secureAreas.Resolve(credential.SecureAreaID)
	if err != nil {
		s.logger.Warn("credential references unregistered secure area",
			slog.String("credential_id", id.String()),
			slog.String("secure_area", credential.SecureAreaID),
		)
		return false, true, nil
	}

	if orphan {
		if err := secureArea.DeleteKey(ctx, credential.KeyAlias); err != nil {
			return false, false, err
		}
	} else {
		_, err := secureArea.GetKeyInfo(ctx, credential.KeyAlias)
		if err == nil {
			return false, false, nil
		}
		if !errors.Is(err, secureAreaDomain.ErrKeyNotFound) {
			return false, false, err
		}
	}

	if err := s.credentials.Delete(ctx, id); err != nil {
		return false, false, err
	}
	if doc != nil && doc.RemoveCredential(id) {
		if err := s.documents.Save(ctx, doc); err != nil {
			return false, false, err
		}
	}

	s.logger.Info("orphaned credential removed",
		slog.String("credential_id", id.String()),
		slog.String("document_id", credential.DocumentID.String()),
	)
	return true, false, nil
}

// deleteCredentialKey deletes the credential key. A missing key or an
// unregistered secure area is logged and tolerated.
func (s *documentStore) deleteCredentialKey(ctx context.Context, credential *documentDomain.Credential) error {
	secureArea, err := s.secureAreas.Resolve(credential.SecureAreaID)
	if err == nil {
		err = secureArea.DeleteKey(ctx, credential.KeyAlias)
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, secureAreaDomain.ErrUnknownBackend), errors.Is(err, secureAreaDomain.ErrKeyNotFound):
		s.logger.Warn("skipping credential key deletion",
			slog.String("credential_id", credential.ID.String()),
			slog.String("secure_area", credential.SecureAreaID),
			slog.Any("error", err),
		)
		return nil
	default:
		return err
	}
}

// rollbackKey deletes a key created by a failed AddCredential. The outcome is
// logged only; cause is what the caller sees.
func (s *documentStore) rollbackKey(
	ctx context.Context,
	secureArea secureAreaService.SecureArea,
	alias string,
	cause error,
) {
	err := secureArea.DeleteKey(context.WithoutCancel(ctx), alias)
	if err != nil {
		s.logger.Error("failed to roll back credential key",
			slog.String("secure_area", secureArea.Identifier()),
			slog.String("key_alias", alias),
			slog.Any("cause", cause),
			slog.Any("error", err),
		)
		return
	}
	s.logger.Warn("credential key rolled back",
		slog.String("secure_area", secureArea.Identifier()),
		slog.String("key_alias", alias),
		slog.Any("cause", cause),
	)
}

func (s *documentStore) issueCertificate(
	ctx context.Context,
	doc *documentDomain.Document,
	info *secureAreaDomain.KeyInfo,
	input documentDomain.AddCredentialInput,
) ([][]byte, error) {
	pub, err := info.ParsePublicKey()
	if err != nil {
		return nil, err
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("failed to generate certificate serial: %w", err)
	}

	subject := input.CertificateSubject
	if subject == "" {
		subject = doc.Metadata.DisplayName
	}

	cert, err := s.issuer.IssueCertificate(ctx, documentDomain.CertificateRequest{
		PublicKey:   pub,
		Subject:     pkix.Name{CommonName: subject},
		Serial:      serial,
		ValidFrom:   input.ValidFrom,
		ValidUntil:  input.ValidUntil,
		Constraints: input.Constraints,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to issue credential certificate")
	}

	return append([][]byte{cert}, slices.Clone(input.IssuerData.CertificateChain)...), nil
}
