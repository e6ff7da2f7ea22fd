package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/credstore/cmd/app/commands"
	"github.com/allisson/credstore/internal/app"
)

func masterKeyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "id",
			Aliases: []string{"i"},
			Value:   "",
			Usage:   "Master key ID (e.g., prod-master-key-2025)",
		},
		&cli.StringFlag{
			Name:    "kms-provider",
			Sources: cli.EnvVars("KMS_PROVIDER"),
			Usage:   "KMS provider (localsecrets, awskms, gcpkms, azurekeyvault, hashivault)",
		},
		&cli.StringFlag{
			Name:    "kms-key-uri",
			Sources: cli.EnvVars("KMS_KEY_URI"),
			Usage:   "KMS key URI used to encrypt the master key",
		},
	}
}

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-master-key",
			Usage: "Generate a KMS-encrypted master key for wrapping software keys",
			Flags: masterKeyFlags(),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					return commands.RunCreateMasterKey(
						ctx,
						container.KMSService(),
						container.Logger(),
						commands.DefaultIO().Writer,
						cmd.String("id"),
						cmd.String("kms-provider"),
						cmd.String("kms-key-uri"),
					)
				})
			},
		},
		{
			Name:  "rotate-master-key",
			Usage: "Append a new master key to MASTER_KEYS and make it active",
			Flags: masterKeyFlags(),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					cfg := container.Config()
					return commands.RunRotateMasterKey(
						ctx,
						container.KMSService(),
						container.Logger(),
						commands.DefaultIO().Writer,
						cmd.String("id"),
						cmd.String("kms-provider"),
						cmd.String("kms-key-uri"),
						cfg.MasterKeys,
						cfg.ActiveMasterKeyID,
					)
				})
			},
		},
	}
}
