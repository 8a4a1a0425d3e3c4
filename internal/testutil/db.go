// Package testutil provides shared helpers for package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/samsalgado/DECENTMED-SERVER/internal/database"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewGateway returns an unopened gateway backed by a private in-memory
// SQLite database. The pool is limited to one connection so every test
// goroutine shares the same memory database.
func NewGateway(t *testing.T) *database.Gateway {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	gw := database.NewGateway(sqlite.Open(dsn), database.Options{
		MaxOpenConns: 1,
		LogLevel:     logger.Silent,
	})
	t.Cleanup(func() {
		_ = gw.Close()
	})
	return gw
}

// NewDB opens and migrates a fresh in-memory database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := NewGateway(t).Open(context.Background())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return db
}
