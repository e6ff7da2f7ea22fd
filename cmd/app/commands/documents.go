package commands

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	documentDomain "github.com/allisson/credstore/internal/document/domain"
	documentUseCase "github.com/allisson/credstore/internal/document/usecase"
	secureAreaDomain "github.com/allisson/credstore/internal/securearea/domain"
)

// RunCreateDocument creates an empty document. cardArtPath, when set, names
// a file whose bytes become the card art. docType, when set, must be a
// registered document type.
func RunCreateDocument(
	ctx context.Context,
	store documentUseCase.DocumentStore,
	logger *slog.Logger,
	io IOTuple,
	displayName, typeDisplayName, docType, cardArtPath, format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	metadata := documentDomain.Metadata{
		DisplayName:     displayName,
		TypeDisplayName: typeDisplayName,
		DocType:         docType,
	}
	if cardArtPath != "" {
		cardArt, err := os.ReadFile(cardArtPath)
		if err != nil {
			return fmt.Errorf("failed to read card art: %w", err)
		}
		metadata.CardArt = cardArt
	}

	doc, err := store.CreateDocument(ctx, metadata)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	if format == "json" {
		if err := writeJSON(io.Writer, map[string]string{
			"id":           doc.ID.String(),
			"display_name": doc.Metadata.DisplayName,
		}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintln(io.Writer, "Document created successfully!")
		_, _ = fmt.Fprintf(io.Writer, "Document ID: %s\n", doc.ID)
	}

	logger.Info("document created", slog.String("document_id", doc.ID.String()))
	return nil
}

// RunListDocuments prints every document with its credential count.
func RunListDocuments(
	ctx context.Context,
	store documentUseCase.DocumentStore,
	logger *slog.Logger,
	io IOTuple,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	ids, err := store.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	type documentSummary struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
		Credentials int    `json:"credentials"`
	}
	summaries := make([]documentSummary, 0, len(ids))
	for _, id := range ids {
		doc, err := store.LookupDocument(ctx, id)
		if err != nil {
			// Deleted between listing and lookup.
			logger.Warn("skipping document", slog.String("document_id", id.String()), slog.Any("error", err))
			continue
		}
		summaries = append(summaries, documentSummary{
			ID:          doc.ID.String(),
			DisplayName: doc.Metadata.DisplayName,
			Credentials: len(doc.CredentialIDs),
		})
	}

	if format == "json" {
		return writeJSON(io.Writer, summaries)
	}

	if len(summaries) == 0 {
		_, _ = fmt.Fprintln(io.Writer, "No documents found")
		return nil
	}
	for _, s := range summaries {
		_, _ = fmt.Fprintf(io.Writer, "%s  %-32s  %d credential(s)\n", s.ID, s.DisplayName, s.Credentials)
	}
	return nil
}

// RunDeleteDocument deletes a document with its credentials and keys.
func RunDeleteDocument(
	ctx context.Context,
	store documentUseCase.DocumentStore,
	logger *slog.Logger,
	io IOTuple,
	documentID string,
) error {
	id, err := uuid.Parse(documentID)
	if err != nil {
		return fmt.Errorf("invalid document id: %w", err)
	}

	if err := store.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	_, _ = fmt.Fprintf(io.Writer, "Document %s deleted\n", id)
	logger.Info("document deleted", slog.String("document_id", id.String()))
	return nil
}

// AddCredentialOptions carries the add-credential flags.
type AddCredentialOptions struct {
	DocumentID             string
	SecureArea             string
	Domain                 string
	Algorithm              string
	AuthenticationRequired bool
	Passphrase             string
	AuthenticationTimeout  time.Duration
	// ValidFor bounds the credential to [now, now+ValidFor]. Zero leaves it open.
	ValidFor         time.Duration
	IssuerAltNameURL string
	CRLURL           string
	Format           string
}

// RunAddCredential creates a key in the selected secure area and binds it to
// a new credential. A passphrase is prompted for when authentication is
// required and none was given.
func RunAddCredential(
	ctx context.Context,
	store documentUseCase.DocumentStore,
	logger *slog.Logger,
	io IOTuple,
	opts AddCredentialOptions,
) error {
	if err := validateFormat(opts.Format); err != nil {
		return err
	}

	documentID, err := uuid.Parse(opts.DocumentID)
	if err != nil {
		return fmt.Errorf("invalid document id: %w", err)
	}

	passphrase := opts.Passphrase
	if opts.AuthenticationRequired && passphrase == "" {
		passphrase, err = promptForPassphrase(io)
		if err != nil {
			return err
		}
	}

	input := documentDomain.AddCredentialInput{
		SecureAreaID: opts.SecureArea,
		Domain:       opts.Domain,
		KeySettings: secureAreaDomain.KeySettings{
			Algorithm:              secureAreaDomain.Algorithm(opts.Algorithm),
			AuthenticationRequired: opts.AuthenticationRequired,
			Passphrase:             passphrase,
			AuthenticationTimeout:  opts.AuthenticationTimeout,
		},
		Constraints: documentDomain.CertificateConstraints{
			IssuerAltNameURL: opts.IssuerAltNameURL,
			CRLURL:           opts.CRLURL,
		},
	}
	if opts.ValidFor > 0 {
		now := time.Now().UTC()
		input.ValidFrom = now
		input.ValidUntil = now.Add(opts.ValidFor)
	}

	credential, err := store.AddCredential(ctx, documentID, input)
	if err != nil {
		return fmt.Errorf("failed to add credential: %w", err)
	}

	if opts.Format == "json" {
		if err := writeJSON(io.Writer, map[string]string{
			"id":          credential.ID.String(),
			"document_id": credential.DocumentID.String(),
			"secure_area": credential.SecureAreaID,
			"key_alias":   credential.KeyAlias,
		}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintln(io.Writer, "Credential added successfully!")
		_, _ = fmt.Fprintf(io.Writer, "Credential ID: %s\n", credential.ID)
		_, _ = fmt.Fprintf(io.Writer, "Secure area: %s\n", credential.SecureAreaID)
	}

	logger.Info("credential added",
		slog.String("document_id", documentID.String()),
		slog.String("credential_id", credential.ID.String()),
		slog.String("secure_area", credential.SecureAreaID),
	)
	return nil
}

func promptForPassphrase(io IOTuple) (string, error) {
	_, _ = fmt.Fprint(io.Writer, "Enter key passphrase: ")
	line, err := bufio.NewReader(io.Reader).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	passphrase := strings.TrimRight(line, "\r\n")
	if passphrase == "" {
		return "", fmt.Errorf("passphrase cannot be empty")
	}
	return passphrase, nil
}

// RunSweep removes orphaned credentials and dangling document references.
func RunSweep(
	ctx context.Context,
	store documentUseCase.DocumentStore,
	logger *slog.Logger,
	io IOTuple,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	result, err := store.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("failed to sweep: %w", err)
	}

	if format == "json" {
		if err := writeJSON(io.Writer, map[string]any{
			"removed_credentials": len(result.RemovedCredentialIDs),
			"skipped_credentials": len(result.SkippedCredentialIDs),
			"pruned_references":   result.PrunedReferences,
			"removed_keys":        len(result.RemovedKeys),
		}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(io.Writer, "Removed %d orphaned credential(s)\n", len(result.RemovedCredentialIDs))
		_, _ = fmt.Fprintf(io.Writer, "Pruned %d dangling reference(s)\n", result.PrunedReferences)
		_, _ = fmt.Fprintf(io.Writer, "Removed %d unclaimed key(s)\n", len(result.RemovedKeys))
		if len(result.SkippedCredentialIDs) > 0 {
			_, _ = fmt.Fprintf(io.Writer,
				"Skipped %d credential(s) whose secure area is not registered\n",
				len(result.SkippedCredentialIDs),
			)
		}
	}

	logger.Info("sweep completed",
		slog.Int("removed", len(result.RemovedCredentialIDs)),
		slog.Int("skipped", len(result.SkippedCredentialIDs)),
		slog.Int("pruned", result.PrunedReferences),
		slog.Int("removed_keys", len(result.RemovedKeys)),
	)
	return nil
}
