// Package database provides SQLite persistence for Auric Core.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Inline, additive-only schema migrations
//   - Last-known track state per zone (warm start after restart)
//
// Security Considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	store := database.NewTrackStore(db)
package database
