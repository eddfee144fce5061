// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"codeberg.org/oliverandrich/shortlink/internal/config"
	"codeberg.org/oliverandrich/shortlink/internal/server"
	"codeberg.org/oliverandrich/shortlink/internal/worker"
)

func main() {
	cmd := &cli.Command{
		Name:  "shortlink",
		Usage: "URL shortener with user accounts",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the web application",
				Flags:  config.Flags(),
				Action: server.Run,
			},
			{
				Name:   "worker",
				Usage:  "Process background jobs such as activation mails",
				Flags:  config.Flags(),
				Action: worker.Run,
			},
			migrateCommand(),
		},
		DefaultCommand: "serve",
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
