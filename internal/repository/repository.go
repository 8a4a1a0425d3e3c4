// Package repository provides the data access layer for the booking server.
package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a uniqueness rule.
	ErrDuplicate = errors.New("duplicate record")
	// ErrNoOpenSlot is returned when a claim finds no unbooked matching slot.
	ErrNoOpenSlot = errors.New("no open slot")
	// ErrUnavailable is returned when the database cannot be reached or a
	// call runs out of time.
	ErrUnavailable = errors.New("database unavailable")
)

// DefaultTimeout bounds a single repository call when none is configured.
const DefaultTimeout = 5 * time.Second

type store struct {
	db      *gorm.DB
	timeout time.Duration
}

func newStore(db *gorm.DB, timeout time.Duration) store {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return store{db: db, timeout: timeout}
}

// session returns a handle bound to ctx with the store timeout applied.
func (s store) session(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return s.db.WithContext(ctx), cancel
}

// translate maps driver errors onto repository sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case unavailable(err):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

func unavailable(err error) bool {
	if errors.Is(err, ErrUnavailable) {
		return false
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone):
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
