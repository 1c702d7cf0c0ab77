package database

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/nakagami/firebirdsql"
	"golang.org/x/time/rate"

	"github.com/rzpsarthak13/orius/internal/core"
)

// ErrClosed is returned by a facade after Close.
var ErrClosed = errors.New("database is closed")

const (
	defaultPoolSize          = 10
	defaultConnectionTimeout = 10 * time.Second
)

// SQLFacade implements core.Facade and core.RowsAffecter on a sqlx pool.
// Every call borrows one pooled connection for its own duration.
type SQLFacade struct {
	db      *sqlx.DB
	driver  string
	limiter *rate.Limiter

	mu     sync.RWMutex
	closed bool
}

// Open connects to the database described by cfg and verifies the
// connection with a ping.
func Open(cfg Config) (*SQLFacade, error) {
	driver, dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}
	db.SetMaxOpenConns(poolSize)
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	timeout := cfg.ConnectionTimeout
	if timeout <= 0 {
		timeout = defaultConnectionTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("[DB] Connected to %s database %s (pool size: %d)", driver, cfg.Database, poolSize)
	return NewSQLFacade(db, limiterFor(cfg)), nil
}

// NewSQLFacade wraps an existing pool. limiter may be nil.
func NewSQLFacade(db *sqlx.DB, limiter *rate.Limiter) *SQLFacade {
	return &SQLFacade{
		db:      db,
		driver:  db.DriverName(),
		limiter: limiter,
	}
}

func limiterFor(cfg Config) *rate.Limiter {
	if cfg.QueryRate <= 0 {
		return nil
	}
	burst := cfg.QueryBurst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.QueryRate), burst)
}

// Driver returns the registered driver name.
func (f *SQLFacade) Driver() string {
	return f.driver
}

// DB returns the underlying pool.
func (f *SQLFacade) DB() *sqlx.DB {
	return f.db
}

// Execute runs a statement and returns its rows. Keys are upper-cased and
// byte values are handed out as core.LazyBlob.
func (f *SQLFacade) Execute(ctx context.Context, query string, args ...interface{}) ([]core.Row, error) {
	bound, err := f.prepare(ctx, query)
	if err != nil {
		return nil, err
	}

	log.Printf("[DB] Executing query: %s (%d arg(s))", bound, len(args))
	start := time.Now()
	rows, err := f.db.QueryxContext(ctx, bound, args...)
	if err != nil {
		log.Printf("[DB] ERROR: Query failed: %v", err)
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var out []core.Row
	for rows.Next() {
		raw := make(map[string]interface{})
		if err := rows.MapScan(raw); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, toRow(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	log.Printf("[DB] Query returned %d row(s) in %v", len(out), time.Since(start))
	return out, nil
}

// ExecAffected runs a statement that returns no rows and reports how many
// rows it changed.
func (f *SQLFacade) ExecAffected(ctx context.Context, query string, args ...interface{}) (int64, error) {
	bound, err := f.prepare(ctx, query)
	if err != nil {
		return 0, err
	}

	log.Printf("[DB] Executing statement: %s (%d arg(s))", bound, len(args))
	result, err := f.db.ExecContext(ctx, bound, args...)
	if err != nil {
		log.Printf("[DB] ERROR: Exec failed: %v", err)
		return 0, fmt.Errorf("failed to execute statement: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	log.Printf("[DB] Statement executed successfully (rows affected: %d)", affected)
	return affected, nil
}

// prepare checks the facade is open, waits for the rate limiter and
// rebinds placeholders for the driver.
func (f *SQLFacade) prepare(ctx context.Context, query string) (string, error) {
	f.mu.RLock()
	closed := f.closed
	f.mu.RUnlock()
	if closed {
		return "", ErrClosed
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}
	return f.db.Rebind(query), nil
}

// Close closes the pool. Closing twice is a no-op.
func (f *SQLFacade) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	log.Printf("[DB] Closing %s connection pool", f.driver)
	return f.db.Close()
}

func toRow(raw map[string]interface{}) core.Row {
	row := make(core.Row, len(raw))
	for name, value := range raw {
		if b, ok := value.([]byte); ok {
			value = bytesBlob(b)
		}
		row[strings.ToUpper(name)] = value
	}
	return row
}

// bytesBlob is a blob whose content the driver already transferred.
type bytesBlob []byte

func (b bytesBlob) Open(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b)), nil
}
