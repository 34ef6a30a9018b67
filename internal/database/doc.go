// Package database provides the data access layer for the catalog.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go        # Connection setup and migrations
//	├── errors.go          # ErrNotFound, ErrReferenceConflict, LIKE helpers
//	├── books/             # Books and their author links
//	├── authors/           # Authors and name search
//	├── publishers/        # Publishers, name search, cascading delete
//	├── classifications/   # Classifications, protected delete
//	├── users/             # Accounts used by the auth package
//	└── audit/             # Audit trail
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./librarian.db", logger)
//
//	booksRepo := books.NewRepository(db.DB)
//	publishersRepo := publishers.NewRepository(db.DB)
//
//	book, err := booksRepo.GetByID(123)
//	matches, err := publishersRepo.Filter("penguin random")
//
// # Errors
//
// Every repository reports a missing row as ErrNotFound. Deletes that would
// leave a dangling reference fail with ErrReferenceConflict and change
// nothing. Multi-row mutations run in a single transaction.
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Register the entity in Migrate
package database
