package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/mrlokans/librarian/internal/cli"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/entrypoint"
	"github.com/mrlokans/librarian/internal/logging"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	cfg, err := config.Load(config.DefaultEnvFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load %s: %v\n", config.DefaultEnvFile, err)
	}

	logger, flush, err := logging.New(cfg.Log, Version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer flush()

	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		if err := entrypoint.Run(cfg, Version, logger); err != nil {
			logger.Error("server stopped", zap.Error(err), zap.String("commit", Commit))
			flush()
			os.Exit(1)
		}
		return
	}

	command := os.Args[1]
	args := os.Args[2:]

	var cmd cli.Command
	switch command {
	case "import-books":
		cmd = cli.NewImportBooksCommand(cfg, logger)
	case "remove-author":
		cmd = cli.NewRemoveAuthorCommand(cfg, logger)
	case "create-user":
		cmd = cli.NewCreateUserCommand(cfg, logger)

	case "-h", "--help", "help":
		printUsage()
		return

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err := cmd.ParseFlags(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flush()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve          Start the HTTP server (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  import-books   Import books and authors from Gutendex\n")
	fmt.Fprintf(os.Stderr, "  remove-author  Remove authors by id\n")
	fmt.Fprintf(os.Stderr, "  create-user    Create a user account\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nSet AUTH_SECURE_COOKIES=true when serving over HTTPS. Session cookies are\n")
	fmt.Fprintf(os.Stderr, "then sent over HTTPS only, and HSTS is enabled.\n")
}
