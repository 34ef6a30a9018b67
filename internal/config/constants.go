package config

const (
	// DefaultDatabasePath is the default path for the catalog database
	DefaultDatabasePath = "./librarian.db"

	// DefaultEnvFile is loaded before reading the environment, when present
	DefaultEnvFile = ".env"

	// DefaultImportBaseURL is the Gutendex books endpoint
	DefaultImportBaseURL = "https://gutendex.com"
)
