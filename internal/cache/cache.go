package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/zippuff/zippuff/internal/model"
)

// LookupCache provides SQLite-based storage for lookup results.
//
// Design decision: We use a single database file keyed by normalized
// query string rather than separate tables per lookup direction. Both
// directions produce the same result shape, and a single table keeps
// purging and statistics trivial.
type LookupCache struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string

	// ttl is how long a cached row stays servable.
	ttl time.Duration
}

// Options configures LookupCache behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool

	// TTL is how long a cached result stays servable. Zero or negative
	// falls back to 24 hours.
	TTL time.Duration
}

// DefaultOptions returns the default cache options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
		TTL:               24 * time.Hour,
	}
}

// Open opens or creates a LookupCache at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*LookupCache, error) {
	dbPath := filepath.Join(dbDir, "zippuff.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("cache database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check cache path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to prevent creating new files and
	// mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultOptions().TTL
	}

	lc := &LookupCache{
		db:     db,
		dbPath: dbPath,
		ttl:    ttl,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := lc.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return lc, nil
}

// Close closes the database connection.
func (lc *LookupCache) Close() error {
	return lc.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (lc *LookupCache) createTables() error {
	schema := `
	-- One row per normalized query key; repeats overwrite.
	CREATE TABLE IF NOT EXISTS lookups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL UNIQUE,
		zipcode TEXT NOT NULL,
		city TEXT NOT NULL,
		state TEXT NOT NULL,
		created DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_lookups_created ON lookups(created);
	`

	_, err := lc.db.ExecContext(context.Background(), schema)
	return err
}

// Get returns the cached result for a query key, or nil when no row
// exists or the row is older than the TTL. Returned results carry
// SourceCache so output can show where the answer came from.
func (lc *LookupCache) Get(ctx context.Context, query string) (*model.LookupResult, error) {
	sqlQuery := `
	SELECT zipcode, city, state, created FROM lookups
	WHERE query = ? AND created > datetime('now', ?)
	`

	// SQLite datetime modifier format
	modifier := fmt.Sprintf("-%d seconds", int(lc.ttl.Seconds()))

	var res model.LookupResult
	var created string

	err := lc.db.QueryRowContext(ctx, sqlQuery, query, modifier).Scan(
		&res.ZIPCode,
		&res.City,
		&res.State,
		&created,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached lookup: %w", err)
	}

	res.Query = query
	res.Source = model.SourceCache
	res.QueriedAt = parseTimestamp(created)

	return &res, nil
}

// Put stores a lookup result under its query key. An existing row for
// the same key is overwritten and its age reset.
func (lc *LookupCache) Put(ctx context.Context, res *model.LookupResult) error {
	query := `
	INSERT INTO lookups (query, zipcode, city, state)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(query) DO UPDATE SET
		zipcode = excluded.zipcode,
		city = excluded.city,
		state = excluded.state,
		created = CURRENT_TIMESTAMP
	`

	_, err := lc.db.ExecContext(ctx, query, res.Query, res.ZIPCode, res.City, res.State)
	if err != nil {
		return fmt.Errorf("failed to store lookup: %w", err)
	}

	return nil
}

// PurgeExpired deletes rows older than the TTL and returns how many
// were removed.
func (lc *LookupCache) PurgeExpired(ctx context.Context) (int64, error) {
	query := `
	DELETE FROM lookups
	WHERE created <= datetime('now', ?)
	`

	modifier := fmt.Sprintf("-%d seconds", int(lc.ttl.Seconds()))

	result, err := lc.db.ExecContext(ctx, query, modifier)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired lookups: %w", err)
	}

	return result.RowsAffected()
}

// Stats describes the current cache contents.
type Stats struct {
	// Entries is the total number of cached rows, expired or not.
	Entries int64 `json:"entries"`

	// Fresh is the number of rows still within the TTL.
	Fresh int64 `json:"fresh"`

	// Path is the database file location.
	Path string `json:"path"`
}

// Stats reports the current cache contents.
func (lc *LookupCache) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Path: lc.dbPath}

	if err := lc.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM lookups").Scan(&stats.Entries); err != nil {
		return stats, fmt.Errorf("failed to count lookups: %w", err)
	}

	modifier := fmt.Sprintf("-%d seconds", int(lc.ttl.Seconds()))
	query := "SELECT COUNT(*) FROM lookups WHERE created > datetime('now', ?)"
	if err := lc.db.QueryRowContext(ctx, query, modifier).Scan(&stats.Fresh); err != nil {
		return stats, fmt.Errorf("failed to count fresh lookups: %w", err)
	}

	return stats, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
