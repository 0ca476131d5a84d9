package hefestos

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	// drivers reachable through address templates
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// pingTimeout bounds the connectivity check performed by Open
const pingTimeout = 5 * time.Second

// DB is a wrapper around sqlx.DB (which is a wrapper around sql.DB)
type DB struct {
	*sqlx.DB

	// ErrHandlers are copied into every builder created from this
	// connection
	ErrHandlers []func(err error)

	logger *slog.Logger
}

// New creates a new DB instance from an underlying sql.DB object.
// It requires the name of the SQL driver in order to use the correct
// placeholders when generating SQL
func New(db *sql.DB, driverName string) *DB {
	return Newx(sqlx.NewDb(db, driverName))
}

// Newx creates a new DB instance from an underlying sqlx.DB object
func Newx(db *sqlx.DB) *DB {
	return &DB{
		DB:     db,
		logger: slog.New(discardHandler{}),
	}
}

// Open connects to the database described by cfg and verifies the
// connection with a ping. The returned DB is not shared; use Connection for
// the process-wide handle.
func Open(cfg ConnConfig) (*DB, error) {
	driver, dsn, err := driverDSN(cfg)
	if err != nil {
		return nil, &ConnectionError{Address: cfg.Address, Err: err}
	}

	dbx, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, &ConnectionError{Driver: driver, Address: cfg.Address, Err: err}
	}

	if driver == DriverSQLite {
		// SQLite only supports one writer
		dbx.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := dbx.PingContext(ctx); err != nil {
		dbx.Close() //nolint:errcheck // best effort cleanup on error path
		return nil, &ConnectionError{
			Driver:  driver,
			Address: cfg.Address,
			Err:     fmt.Errorf("verifying database connection: %w", err),
		}
	}

	return Newx(dbx), nil
}

// Driver returns the name of the driver the connection was opened with.
func (db *DB) Driver() string {
	if db == nil || db.DB == nil {
		return ""
	}
	return db.DriverName()
}

// SetLogger sets the logger inherited by builders created from this
// connection.
func (db *DB) SetLogger(logger *slog.Logger) {
	if logger != nil {
		db.logger = logger
	}
}

// HealthCheck verifies the database is accessible by running a trivial
// query.
func (db *DB) HealthCheck(ctx context.Context) error {
	if db == nil || db.DB == nil {
		return ErrConnectionClosed
	}
	var result int
	if err := db.QueryRowxContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Close closes the database connection. Closing an already closed DB is a
// no-op.
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	err := db.DB.Close()
	db.DB = nil
	if err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Resolver supplies the connection settings used when Connection is called
// without explicit ones. It defaults to loading the YAML configuration file.
var Resolver func() (ConnConfig, error) = resolveFromConfigFile

var (
	sharedMu sync.Mutex
	shared   *DB
)

// Connection returns the process-wide connection, creating it on first use.
// The first call opens it with cfg, or with the settings returned by
// Resolver when cfg is nil. Subsequent calls return the same connection and
// ignore cfg until CloseConnection is called.
func Connection(cfg *ConnConfig) (*DB, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if shared != nil && shared.DB != nil {
		return shared, nil
	}

	var settings ConnConfig
	if cfg != nil {
		settings = *cfg
	} else {
		var err error
		if settings, err = Resolver(); err != nil {
			return nil, &ConnectionError{Err: fmt.Errorf("resolving connection settings: %w", err)}
		}
	}

	db, err := Open(settings)
	if err != nil {
		return nil, err
	}

	shared = db
	return shared, nil
}

// CloseConnection closes the process-wide connection, if any. The next call
// to Connection opens a new one.
func CloseConnection() error {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if shared == nil {
		return nil
	}
	err := shared.Close()
	shared = nil
	return err
}

// Default returns a new builder on the process-wide connection, resolving
// the connection settings on first use.
func Default() (*Database, error) {
	db, err := Connection(nil)
	if err != nil {
		return nil, err
	}
	return db.Database(), nil
}
