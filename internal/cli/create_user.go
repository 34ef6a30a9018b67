package cli

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/mrlokans/librarian/internal/config"
)

// CreateUserCommand adds an account without going through the web forms.
type CreateUserCommand struct {
	env

	Username     string
	Email        string
	Password     string
	Admin        bool
	DatabasePath string
}

func NewCreateUserCommand(cfg *config.Config, logger *zap.Logger) *CreateUserCommand {
	return &CreateUserCommand{env: newEnv(cfg, logger)}
}

func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)

	fs.StringVar(&cmd.Username, "username", "", "Username (required)")
	fs.StringVar(&cmd.Email, "email", "", "Email address")
	fs.StringVar(&cmd.Password, "password", "", "Password (required)")
	fs.BoolVar(&cmd.Admin, "admin", false, "Grant administrator rights")
	fs.StringVar(&cmd.DatabasePath, "db", cmd.cfg.Database.Path, "Path to the catalog database")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user -username <name> -password <password> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" {
		return fmt.Errorf("required flag -username not provided")
	}
	if cmd.Password == "" {
		return fmt.Errorf("required flag -password not provided")
	}
	return nil
}

func (cmd *CreateUserCommand) Run() error {
	db, services, err := cmd.openServices(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := services.Auth.CreateUser(cmd.Username, cmd.Email, cmd.Password, cmd.Admin)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	role := "user"
	if user.IsAdmin {
		role = "admin"
	}
	cmd.printf("Created %s %q (id %d)\n", role, user.Username, user.ID)
	return nil
}
