package main

import (
	"context"
	"embed"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cliApp := &cli.App{
		Name:  "networth",
		Usage: "track personal net worth, asset allocation and rebalancing",
		Commands: []*cli.Command{
			serveCommand(),
			valueCommand(),
			allocationCommand(),
			rebalanceCommand(),
			refreshCommand(),
			targetsCommand(),
			snapshotCommand(),
			assetCommand(),
			rateCommand(),
			exportCommand(),
		},
	}

	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
