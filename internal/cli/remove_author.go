package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/entities"
)

// RemoveAuthorCommand deletes authors by id. Their books stay in the catalog.
type RemoveAuthorCommand struct {
	env

	AuthorIDs    []uint
	DatabasePath string
}

func NewRemoveAuthorCommand(cfg *config.Config, logger *zap.Logger) *RemoveAuthorCommand {
	return &RemoveAuthorCommand{env: newEnv(cfg, logger)}
}

func (cmd *RemoveAuthorCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("remove-author", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", cmd.cfg.Database.Path, "Path to the catalog database")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s remove-author [options] <author id>...\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Remove the authors with the given ids.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() == 0 {
		return fmt.Errorf("at least one author id is required")
	}

	cmd.AuthorIDs = cmd.AuthorIDs[:0]
	for _, arg := range fs.Args() {
		id, err := strconv.ParseUint(arg, 10, 32)
		if err != nil || id == 0 {
			return fmt.Errorf("invalid author id %q", arg)
		}
		cmd.AuthorIDs = append(cmd.AuthorIDs, uint(id))
	}
	return nil
}

// Run removes each author in turn. Missing ids are reported and skipped.
func (cmd *RemoveAuthorCommand) Run() error {
	db, services, err := cmd.openServices(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, id := range cmd.AuthorIDs {
		author, err := services.Authors.GetByID(id)
		if err == nil {
			err = services.Authors.Delete(id)
		}

		switch {
		case errors.Is(err, database.ErrNotFound):
			cmd.printf("Author with id %d does not exist\n", id)
		case err != nil:
			return fmt.Errorf("remove author %d: %w", id, err)
		default:
			services.Audit.LogMutation(0, entities.AuditEventDelete, "author", id, author.FullName())
			cmd.printf("Successfully removed author with id %d\n", id)
		}
	}
	return nil
}
