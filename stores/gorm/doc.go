// Package gorm provides a GORM-backed credential store for botauth.
//
// The store works with any database GORM supports (PostgreSQL, MySQL,
// SQLite). Credential payloads are stored as JSON documents; the updated_at
// column drives most-recently-updated resolution.
//
// Usage:
//
//	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := gormstore.AutoMigrate(db); err != nil {
//	    log.Fatal(err)
//	}
//
//	store := gormstore.NewCredentialStore(db)
//	svc := botauth.NewService(store, registry)
package gorm
