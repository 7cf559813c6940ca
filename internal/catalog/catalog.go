// Package catalog is the embedded SQLite store: connection/pragmas,
// migrations, and the typed data access layer over the tables in
// SPEC_FULL.md §6. Grounded on the teacher's util/library.go
// (CreateLibrary/OpenLibrary, transaction-per-batch writes) and
// original_source/.../media_scanner/database.py (the pragma list).
package catalog

import (
	"database/sql"
	"fmt"

	_ "github.com/glebarez/go-sqlite"
)

// Catalog wraps the single *sql.DB connection this process holds. The
// writer is the only goroutine that ever begins a write transaction on
// it; the rest of the engine issues read-only queries (rescan
// predicate, post-scan validation reads).
type Catalog struct {
	db *sql.DB
}

// pragmas mirror SPEC_FULL.md §6's "Required configuration at open":
// WAL journaling, NORMAL synchronous, a 5 s busy timeout, a 64 MiB page
// cache, in-memory temp storage, and a 1000-page WAL autocheckpoint.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA cache_size=-65536",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA wal_autocheckpoint=1000",
}

// Open opens (creating if necessary) the catalog at path, applies the
// required pragmas, and brings the schema up to date.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	// Single writer discipline (SPEC_FULL.md §5): at most one
	// connection ever does a write, so cap the pool rather than let
	// database/sql hand out concurrent connections that would each
	// serialize on SQLite's file lock anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping catalog %s: %w", path, err)
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", p, err)
		}
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{db: db}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// DB exposes the underlying connection. The package-level DAL functions
// take it as their handle, and the pipeline, coordinator and edgecases
// packages pass it to them or query it directly.
func (c *Catalog) DB() *sql.DB { return c.db }
