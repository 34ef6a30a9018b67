package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/mrlokans/librarian/internal/config"
)

// ImportBooksCommand fetches books from Gutendex and adds them to the catalog.
type ImportBooksCommand struct {
	env

	Term         string
	Limit        int
	DatabasePath string
	BaseURL      string
	Verbose      bool
}

func NewImportBooksCommand(cfg *config.Config, logger *zap.Logger) *ImportBooksCommand {
	return &ImportBooksCommand{env: newEnv(cfg, logger)}
}

func (cmd *ImportBooksCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import-books", flag.ContinueOnError)

	fs.IntVar(&cmd.Limit, "limit", cmd.cfg.Import.DefaultLimit, "Number of books to import")
	fs.StringVar(&cmd.DatabasePath, "db", cmd.cfg.Database.Path, "Path to the catalog database")
	fs.StringVar(&cmd.BaseURL, "base-url", cmd.cfg.Import.BaseURL, "Gutendex base URL")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "List imported and skipped titles")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import-books [options] [search term]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Fetch books and authors from Gutendex and add them to the catalog.\n")
		fmt.Fprintf(os.Stderr, "Books whose title already exists are skipped.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import-books dickens\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import-books -limit 25 \"pride and prejudice\"\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd.Term = strings.TrimSpace(strings.Join(fs.Args(), " "))
	if cmd.Term == "" {
		cmd.Term = cmd.cfg.Import.DefaultTerm
	}
	if cmd.Limit <= 0 {
		return fmt.Errorf("-limit must be positive, got %d", cmd.Limit)
	}
	return nil
}

func (cmd *ImportBooksCommand) Run() error {
	cfg := *cmd.cfg
	cfg.Import.BaseURL = cmd.BaseURL
	cmd.cfg = &cfg

	db, services, err := cmd.openServices(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	cmd.printf("Importing up to %d books matching %q from %s\n", cmd.Limit, cmd.Term, cmd.BaseURL)

	result, err := services.Importer.Import(context.Background(), cmd.Term, cmd.Limit)
	services.Audit.LogImport(0, fmt.Sprintf("CLI import %q", cmd.Term), err)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if cmd.Verbose {
		for _, title := range result.Imported {
			cmd.printf("  [OK] %s\n", title)
		}
		for _, title := range result.Skipped {
			cmd.printf("  [SKIP] %s\n", title)
		}
	}

	cmd.printf("Successfully imported %d books and %d authors\n", result.BooksCreated, result.AuthorsCreated)
	return nil
}
