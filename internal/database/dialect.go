package database

import (
	"database/sql"
	"regexp"
	"strconv"
	"strings"
)

// Dialect defines the interface for database-specific operations
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (e.g., ? to $1 for postgres)
	RewriteQuery(query string) string

	// ConfigureConnection applies any database-specific connection settings
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir returns the subdirectory name for migrations (e.g., "sqlite", "postgres")
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the SQL to create the migrations tracking table
	CreateMigrationsTableQuery() string

	// ForUpdate returns the row-locking suffix for SELECTs inside a transaction.
	// SQLite serializes writers with BEGIN IMMEDIATE and returns "".
	ForUpdate() string

	// InsertIgnore rewrites an "INSERT INTO" statement so that unique-key
	// collisions insert nothing instead of failing
	InsertIgnore(query string) string

	// IsRetryable reports whether err is a transient lock or serialization failure
	IsRetryable(err error) bool
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// placeholderRegexp matches ? placeholders
var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}

// replaceInsertVerb swaps the leading INSERT INTO of query for verb
func replaceInsertVerb(query, verb string) string {
	trimmed := strings.TrimSpace(query)
	if len(trimmed) < len("INSERT INTO") || !strings.EqualFold(trimmed[:len("INSERT INTO")], "INSERT INTO") {
		return query
	}
	return verb + trimmed[len("INSERT INTO"):]
}
