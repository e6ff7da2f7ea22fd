package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/credstore/internal/app"
	"github.com/allisson/credstore/internal/config"
)

func getCommands(version string) []*cli.Command {
	cmds := []*cli.Command{}
	cmds = append(cmds, getSystemCommands(version)...)
	cmds = append(cmds, getKeyCommands()...)
	cmds = append(cmds, getDocumentCommands()...)
	return cmds
}

// withContainer loads and validates the configuration, builds a container
// and shuts it down once fn returns.
func withContainer(ctx context.Context, fn func(container *app.Container) error) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	container := app.NewContainer(cfg)
	defer func() {
		if err := container.Shutdown(context.WithoutCancel(ctx)); err != nil {
			container.Logger().Error("failed to shutdown container", "error", err)
		}
	}()
	return fn(container)
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}
