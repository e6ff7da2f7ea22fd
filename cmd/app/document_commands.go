package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/credstore/cmd/app/commands"
	"github.com/allisson/credstore/internal/app"
)

func getDocumentCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-document",
			Usage: "Create an empty document",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Display name, e.g. \"Erika's Driving License\"",
				},
				&cli.StringFlag{
					Name:  "type-name",
					Usage: "Document type display name (defaults to the doc type's name)",
				},
				&cli.StringFlag{
					Name:  "doc-type",
					Usage: "Registered document type, e.g. org.iso.18013.5.1.mDL",
				},
				&cli.StringFlag{
					Name:  "card-art",
					Usage: "Path to a card art image",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					store, err := container.DocumentStore()
					if err != nil {
						return err
					}
					return commands.RunCreateDocument(
						ctx,
						store,
						container.Logger(),
						commands.DefaultIO(),
						cmd.String("name"),
						cmd.String("type-name"),
						cmd.String("doc-type"),
						cmd.String("card-art"),
						cmd.String("format"),
					)
				})
			},
		},
		{
			Name:  "list-documents",
			Usage: "List every document",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					store, err := container.DocumentStore()
					if err != nil {
						return err
					}
					return commands.RunListDocuments(ctx, store, container.Logger(), commands.DefaultIO(), cmd.String("format"))
				})
			},
		},
		{
			Name:  "delete-document",
			Usage: "Delete a document with its credentials and keys",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Document ID (UUID)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					store, err := container.DocumentStore()
					if err != nil {
						return err
					}
					return commands.RunDeleteDocument(ctx, store, container.Logger(), commands.DefaultIO(), cmd.String("id"))
				})
			},
		},
		{
			Name:  "add-credential",
			Usage: "Create a key in a secure area and bind it to a new credential",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "document-id",
					Aliases:  []string{"d"},
					Required: true,
					Usage:    "Document ID (UUID)",
				},
				&cli.StringFlag{
					Name:    "secure-area",
					Aliases: []string{"s"},
					Usage:   "Secure area identifier (defaults to DEFAULT_SECURE_AREA)",
				},
				&cli.StringFlag{
					Name:  "domain",
					Value: "mdoc",
					Usage: "Credential domain",
				},
				&cli.StringFlag{
					Name:    "algorithm",
					Aliases: []string{"alg"},
					Value:   "ES256",
					Usage:   "Key algorithm (ES256, ES384, ES512, EdDSA, ECDH-P256, ECDH-P384, X25519)",
				},
				&cli.BoolFlag{
					Name:  "auth-required",
					Usage: "Require a passphrase to use the key",
				},
				&cli.StringFlag{
					Name:  "passphrase",
					Usage: "Key passphrase (prompted when --auth-required is set and this is empty)",
				},
				&cli.DurationFlag{
					Name:  "auth-timeout",
					Usage: "How long a successful unlock stays valid (0 means every use)",
				},
				&cli.DurationFlag{
					Name:  "valid-for",
					Usage: "Credential validity starting now, e.g. 720h (0 leaves it open)",
				},
				&cli.StringFlag{
					Name:  "issuer-alt-name-url",
					Usage: "Issuer alternative name URL for the credential certificate",
				},
				&cli.StringFlag{
					Name:  "crl-url",
					Usage: "CRL distribution point for the credential certificate",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					store, err := container.DocumentStore()
					if err != nil {
						return err
					}
					secureArea := cmd.String("secure-area")
					if secureArea == "" {
						secureArea = container.Config().DefaultSecureArea
					}
					return commands.RunAddCredential(ctx, store, container.Logger(), commands.DefaultIO(),
						commands.AddCredentialOptions{
							DocumentID:             cmd.String("document-id"),
							SecureArea:             secureArea,
							Domain:                 cmd.String("domain"),
							Algorithm:              cmd.String("algorithm"),
							AuthenticationRequired: cmd.Bool("auth-required"),
							Passphrase:             cmd.String("passphrase"),
							AuthenticationTimeout:  cmd.Duration("auth-timeout"),
							ValidFor:               cmd.Duration("valid-for"),
							IssuerAltNameURL:       cmd.String("issuer-alt-name-url"),
							CRLURL:                 cmd.String("crl-url"),
							Format:                 cmd.String("format"),
						},
					)
				})
			},
		},
	}
}
