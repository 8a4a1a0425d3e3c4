// Package database owns the process-wide database handle.
package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samsalgado/DECENTMED-SERVER/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotOpen is returned when the gateway is used before Open.
var ErrNotOpen = errors.New("database not open")

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
	LogLevel        logger.LogLevel
}

// DefaultOptions returns pool settings suitable for a small API instance.
func DefaultOptions() Options {
	return Options{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		PingTimeout:     5 * time.Second,
		LogLevel:        logger.Warn,
	}
}

// Gateway establishes a single *gorm.DB at most once and hands the same
// handle to every caller until Close.
type Gateway struct {
	dialector gorm.Dialector
	opts      Options

	mu sync.Mutex
	db *gorm.DB
}

// NewGateway creates a gateway for the given dialector.
func NewGateway(dialector gorm.Dialector, opts Options) *Gateway {
	return &Gateway{dialector: dialector, opts: opts}
}

// Postgres returns a PostgreSQL dialector for dsn.
func Postgres(dsn string) gorm.Dialector {
	return postgres.Open(dsn)
}

// Open connects, verifies the connection and runs migrations. Calling it
// again returns the existing handle. A failed attempt leaves the gateway
// closed so that Open may be retried.
func (g *Gateway) Open(ctx context.Context) (*gorm.DB, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.db != nil {
		return g.db, nil
	}

	db, err := gorm.Open(g.dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(g.opts.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if g.opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(g.opts.MaxOpenConns)
	}
	if g.opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(g.opts.MaxIdleConns)
	}
	if g.opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(g.opts.ConnMaxLifetime)
	}

	if err := pingWithTimeout(ctx, sqlDB.PingContext, g.opts.PingTimeout); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(db.WithContext(ctx)); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	g.db = db
	return db, nil
}

// DB returns the open handle or ErrNotOpen.
func (g *Gateway) DB() (*gorm.DB, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.db == nil {
		return nil, ErrNotOpen
	}
	return g.db, nil
}

// Ping checks the connection with a bounded timeout.
func (g *Gateway) Ping(ctx context.Context) error {
	db, err := g.DB()
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return pingWithTimeout(ctx, sqlDB.PingContext, g.opts.PingTimeout)
}

// Close releases the connection pool. It is safe to call more than once.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	g.db = nil
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

func pingWithTimeout(ctx context.Context, ping func(context.Context) error, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return ping(ctx)
}
