package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/librarian/internal/entities"
)

// DriverName is the SQLite driver registered for the catalog database. Its
// connections carry a unicode_lower() function that folds case beyond ASCII,
// which SQLite's own LOWER() and LIKE do not.
const DriverName = "sqlite3_librarian"

// connParams switch on foreign key enforcement and let concurrent writers
// queue up instead of failing with "database is locked". Write transactions
// take the lock at BEGIN so a read inside them never goes stale.
const connParams = "_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate"

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("unicode_lower", strings.ToLower, true)
		},
	})
}

// DSN appends the catalog connection parameters to a database file path.
func DSN(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + connParams
}

// Open connects to the SQLite file at dbPath through the catalog driver.
func Open(dbPath string, cfg *gorm.Config) (*gorm.DB, error) {
	return gorm.Open(sqlite.New(sqlite.Config{
		DriverName: DriverName,
		DSN:        DSN(dbPath),
	}), cfg)
}

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string, log *zap.Logger) (*Database, error) {
	db, err := Open(dbPath, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("database initialized", zap.String("path", dbPath))

	return &Database{DB: db}, nil
}

// Migrate creates or updates every catalog, account and audit table.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entities.Classification{},
		&entities.Publisher{},
		&entities.Author{},
		&entities.Book{},
		&entities.BookAuthor{},
		&entities.User{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the underlying connection is usable.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
