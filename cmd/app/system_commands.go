package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/credstore/cmd/app/commands"
	"github.com/allisson/credstore/internal/app"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					return commands.RunServer(ctx, container, version)
				})
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations for the SQL storage drivers",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					cfg := container.Config()
					return commands.RunMigrations(container.Logger(), cfg.StorageDriver, cfg.DBConnectionString)
				})
			},
		},
		{
			Name:  "sweep",
			Usage: "Remove orphaned credentials and dangling document references",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					store, err := container.DocumentStore()
					if err != nil {
						return err
					}
					return commands.RunSweep(ctx, store, container.Logger(), commands.DefaultIO(), cmd.String("format"))
				})
			},
		},
	}
}
