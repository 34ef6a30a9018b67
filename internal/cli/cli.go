// Package cli implements the librarian subcommands other than serve.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/entrypoint"
)

// Command is a parsed, runnable subcommand.
type Command interface {
	ParseFlags(args []string) error
	Run() error
}

// env is what every command shares: the loaded config, an output stream
// and a logger.
type env struct {
	cfg    *config.Config
	out    io.Writer
	logger *zap.Logger
}

func newEnv(cfg *config.Config, logger *zap.Logger) env {
	if logger == nil {
		logger = zap.NewNop()
	}
	return env{cfg: cfg, out: os.Stdout, logger: logger}
}

// SetOutput redirects command output, mainly for tests.
func (e *env) SetOutput(w io.Writer) {
	e.out = w
}

func (e *env) printf(format string, args ...any) {
	fmt.Fprintf(e.out, format, args...)
}

// openServices opens the database at dbPath and builds the domain services
// over it. The caller closes the database.
func (e *env) openServices(dbPath string) (*database.Database, *entrypoint.Services, error) {
	absDBPath, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	db, err := database.NewDatabase(absDBPath, e.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, entrypoint.NewServices(db, e.cfg, e.logger), nil
}
