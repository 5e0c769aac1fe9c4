package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"

	"fintrack/internal/cli"
	"fintrack/internal/log"
)

var verbose = flag.Bool("v", false, "Log storage and change events to stderr")

func main() {
	// Exits when invoked by the shell for completion.
	cli.Completion().Complete("fintrack")

	cli.LoadEnvFile()

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	flag.Parse()

	logger := cli.SetupLogger(nil, log.ComponentCLI, os.Stderr)
	cfg := cli.LoadAndValidateConfig(logger)
	if !*verbose && os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}
	logger = cli.SetupLogger(cfg, log.ComponentCLI, os.Stderr)

	ctx := context.Background()
	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open storage backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(int(subcommands.ExitFailure))
	}
	cli.Register(subcommands.DefaultCommander, app)

	status := subcommands.Execute(ctx)
	if err := app.Close(); err != nil {
		logger.Warn("Failed to close storage backend", log.FieldError, err)
	}
	os.Exit(int(status))
}
