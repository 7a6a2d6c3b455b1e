package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/imgajeed76/tabula/internal/util"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB holds the database connection pool
type DB struct {
	pool        *pgxpool.Pool
	url         string
	mu          sync.RWMutex
	sessionGUCs []string // settings applied to every new connection
}

// Options tune a connection
type Options struct {
	// StatementTimeout is enforced server-side on every statement. Zero
	// leaves the server default.
	StatementTimeout time.Duration
	// ApplicationName shows up in pg_stat_activity.
	ApplicationName string
}

// Connect establishes a lightweight pool for interactive queries. tabula
// runs one query at a time, so a couple of connections is plenty.
func Connect(ctx context.Context, url string, opts Options) (*DB, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("invalid connection URL: %w", err)
	}

	config.MaxConns = 2
	config.MinConns = 0
	config.MaxConnLifetime = 10 * time.Minute
	config.MaxConnIdleTime = time.Minute

	db := &DB{
		url:         url,
		sessionGUCs: sessionGUCs(opts),
	}

	// Every new connection gets the session settings
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		db.mu.RLock()
		gucs := db.sessionGUCs
		db.mu.RUnlock()

		for _, guc := range gucs {
			if _, err := conn.Exec(ctx, guc); err != nil {
				return fmt.Errorf("failed to set GUC %q on new connection: %w", guc, err)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.pool = pool
	return db, nil
}

// sessionGUCs renders opts as SET statements.
func sessionGUCs(opts Options) []string {
	var gucs []string
	if opts.ApplicationName != "" {
		gucs = append(gucs, fmt.Sprintf("SET application_name = %s", quoteLiteral(opts.ApplicationName)))
	}
	if opts.StatementTimeout > 0 {
		gucs = append(gucs, fmt.Sprintf("SET statement_timeout = %d", opts.StatementTimeout.Milliseconds()))
	}
	return gucs
}

// quoteLiteral quotes s as a SQL string literal.
func quoteLiteral(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '\'')
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'')
		}
		out = append(out, s[i])
	}
	return string(append(out, '\''))
}

// Close closes the database connection
func (db *DB) Close() {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.pool != nil {
		db.pool.Close()
		db.pool = nil
	}
}

// Pool returns the underlying connection pool
func (db *DB) Pool() *pgxpool.Pool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.pool
}

// URL returns the connection URL
func (db *DB) URL() string {
	return db.url
}

// IsConnected returns true if the database is connected
func (db *DB) IsConnected() bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.pool != nil
}

// Ping tests the database connection
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// WithReadOnlyTx runs fn inside a read-only transaction that is always
// rolled back.
func (db *DB) WithReadOnlyTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	pool := db.Pool()
	if pool == nil {
		return util.ErrNotConnected
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	err = fn(tx)
	_ = tx.Rollback(ctx)
	return err
}
