package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeLocal AuthMode = "local" // Local user database with sessions
)

type (
	Config struct {
		HTTP
		Global
		Database
		UI
		Tasks
		Auth
		Audit
		Log
		Import
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	UI struct {
		TemplatesPath string // Empty or missing directory renders JSON
		StaticPath    string
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Auth struct {
		Mode            AuthMode
		SessionSecret   string
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool // HTTPS-only cookies and HSTS; off by default so plain-HTTP runs keep their session

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
		// Failed attempts from one client IP before it is locked out,
		// across all usernames (default: 4x MaxLoginAttempts)
		MaxAttemptsPerIP int
	}
	Audit struct {
		RetentionDays int // Days to keep audit events (default: 90)
	}
	Log struct {
		Level       string
		Development bool
	}
	Import struct {
		BaseURL      string
		DefaultTerm  string
		DefaultLimit int
		Enabled      bool   // Run the scheduled import
		Schedule     string // Cron format: "0 3 * * *" = daily at 03:00
	}
)

// Load reads envFile into the process environment and builds the Config.
// A missing envFile is not an error.
func Load(envFile string) (*Config, error) {
	var loadErr error
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			loadErr = err
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8080)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("templates_path", "./templates")
	v.SetDefault("static_path", "./static")

	// Auth defaults
	v.SetDefault("auth_session_secret", "")       // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h")  // 24 hours
	v.SetDefault("auth_bcrypt_cost", 12)          // bcrypt cost factor
	v.SetDefault("auth_secure_cookies", false)    // Enable behind HTTPS
	v.SetDefault("auth_max_login_attempts", 5)    // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "15m") // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")  // Lockout duration
	v.SetDefault("auth_max_attempts_per_ip", 0)   // 0 = 4x max login attempts

	v.SetDefault("audit_retention_days", 90)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_development", false)

	// Import defaults
	v.SetDefault("import_base_url", DefaultImportBaseURL)
	v.SetDefault("import_default_term", "")
	v.SetDefault("import_default_limit", 10)
	v.SetDefault("import_schedule_enabled", false)
	v.SetDefault("import_schedule", "0 3 * * *")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		UI: UI{
			TemplatesPath: v.GetString("TEMPLATES_PATH"),
			StaticPath:    v.GetString("STATIC_PATH"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Auth: Auth{
			Mode:             AuthModeLocal,
			SessionSecret:    v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
			MaxAttemptsPerIP: v.GetInt("AUTH_MAX_ATTEMPTS_PER_IP"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Log: Log{
			Level:       v.GetString("LOG_LEVEL"),
			Development: v.GetBool("LOG_DEVELOPMENT"),
		},
		Import: Import{
			BaseURL:      v.GetString("IMPORT_BASE_URL"),
			DefaultTerm:  v.GetString("IMPORT_DEFAULT_TERM"),
			DefaultLimit: v.GetInt("IMPORT_DEFAULT_LIMIT"),
			Enabled:      v.GetBool("IMPORT_SCHEDULE_ENABLED"),
			Schedule:     v.GetString("IMPORT_SCHEDULE"),
		},
	}, loadErr
}
