// Package store provides the correspondence persistence backends: postgres
// for production, sqlite for local and dev use, and an in-memory store for
// tests. All three implement correspondence.Store with identical filter,
// sort, and folding semantics.
package store

import (
	"database/sql"
	"fmt"

	"github.com/oficiohq/oficio/internal/correspondence"
	"github.com/oficiohq/oficio/pkg/database"
)

// Open selects a store implementation for the configured database driver.
func Open(driver string, db *sql.DB) (correspondence.Store, error) {
	switch driver {
	case database.DriverPostgres:
		return NewPostgres(db), nil
	case database.DriverSQLite:
		return NewSQLite(db)
	default:
		return nil, fmt.Errorf("unknown store driver %s", driver)
	}
}
