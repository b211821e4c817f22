// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/walletguard/cmd/app/commands"
	"github.com/allisson/walletguard/internal/app"
	"github.com/allisson/walletguard/internal/config"
)

func main() {
	container := app.NewContainer(config.Load())

	cmd := &cli.Command{
		Name:    "walletguard",
		Usage:   "Permission mediation layer for wallet applications",
		Version: "1.0.0",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Print the effective permission enforcement configuration",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunShowConfig(container.Config(), cmd.String("format"), commands.DefaultIO())
				},
			},
			{
				Name:  "fetch-manifest",
				Usage: "Fetch and print the grouped permissions an originator publishes",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "originator",
						Aliases:  []string{"o"},
						Required: true,
						Usage:    "Originator domain (e.g., app.example.com)",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunFetchManifest(ctx, container.ManifestFetcher(), cmd.String("originator"), cmd.String("format"), commands.DefaultIO())
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		container.Logger().Error("command failed", "error", err)
		os.Exit(1)
	}
}
