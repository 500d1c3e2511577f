// Package inventory provides read-only access to the product inventory
// database in Postgres. The LLM generates SELECT statements against the
// product_inventory table for precise lookups (price of a named product,
// counts per category); this package executes them behind a guard that
// rejects anything but a single SELECT.
package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/lib/pq" // register "postgres" driver
)

// Store executes read-only queries against the product inventory.
// Implementations must be safe for concurrent use.
type Store interface {
	// Query runs a single SELECT statement and returns the result rows as
	// column-name-keyed maps. Non-SELECT statements are rejected.
	Query(ctx context.Context, query string) ([]map[string]any, error)
	// Ping verifies the database connection.
	Ping(ctx context.Context) error
	// Close releases the connection pool.
	Close() error
}

// PostgresStore is a Store backed by a Postgres connection pool.
type PostgresStore struct {
	db *sql.DB
}

// Open connects to Postgres using the given DSN and verifies the connection.
func Open(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("inventory: open: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("inventory: ping: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// forbiddenWords are SQL keywords that must not appear anywhere in a query,
// even inside subqueries or CTEs. Matched on word boundaries so column names
// like "created_at" are not false positives.
var forbiddenWords = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|create|truncate|grant|revoke|copy|execute|call|merge)\b`)

// ValidateReadOnly rejects any query that is not a single SELECT statement.
// The guard runs before the statement reaches the driver: LLM-generated SQL
// is untrusted input even when the prompt asks for SELECT only.
func ValidateReadOnly(query string) error {
	q := strings.TrimSpace(query)
	if q == "" {
		return fmt.Errorf("inventory: empty query")
	}

	// A single trailing semicolon is tolerated; any other semicolon means
	// multiple statements.
	q = strings.TrimSuffix(q, ";")
	if strings.Contains(q, ";") {
		return fmt.Errorf("inventory: multiple statements are not allowed")
	}

	upper := strings.ToUpper(q)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return fmt.Errorf("inventory: only SELECT statements are allowed")
	}

	if m := forbiddenWords.FindString(q); m != "" {
		return fmt.Errorf("inventory: forbidden keyword %q in query", strings.ToUpper(m))
	}
	return nil
}

// Query runs a single SELECT statement and returns the rows as maps keyed by
// column name. Byte slices are converted to strings so the result serializes
// cleanly to JSON for prompt injection.
func (s *PostgresStore) Query(ctx context.Context, query string) ([]map[string]any, error) {
	if err := ValidateReadOnly(query); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("inventory: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("inventory: columns: %w", err)
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("inventory: scan: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("inventory: rows: %w", err)
	}
	return out, nil
}

// normalizeValue converts driver-specific value types into JSON-friendly ones.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return v
	}
}

// Ping verifies the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("inventory: ping: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("inventory: close: %w", err)
	}
	return nil
}
