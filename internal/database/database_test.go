package database_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/samsalgado/DECENTMED-SERVER/internal/database"
	"github.com/samsalgado/DECENTMED-SERVER/internal/models"
	"github.com/samsalgado/DECENTMED-SERVER/internal/testutil"
)

func TestGateway_DBBeforeOpen(t *testing.T) {
	gw := testutil.NewGateway(t)

	if _, err := gw.DB(); !errors.Is(err, database.ErrNotOpen) {
		t.Errorf("DB() error = %v, want ErrNotOpen", err)
	}
	if err := gw.Ping(context.Background()); !errors.Is(err, database.ErrNotOpen) {
		t.Errorf("Ping() error = %v, want ErrNotOpen", err)
	}
}

func TestGateway_OpenIsIdempotent(t *testing.T) {
	gw := testutil.NewGateway(t)
	ctx := context.Background()

	first, err := gw.Open(ctx)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	second, err := gw.Open(ctx)
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	if first != second {
		t.Error("Open() should return the memoized handle")
	}
}

func TestGateway_ConcurrentOpen(t *testing.T) {
	gw := testutil.NewGateway(t)

	const workers = 10
	handles := make(chan interface{}, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			db, err := gw.Open(context.Background())
			if err != nil {
				t.Errorf("Open() error = %v", err)
				return
			}
			handles <- db
		}()
	}
	wg.Wait()
	close(handles)

	var first interface{}
	for h := range handles {
		if first == nil {
			first = h
			continue
		}
		if h != first {
			t.Fatal("concurrent Open() calls returned different handles")
		}
	}
}

func TestGateway_MigratesTables(t *testing.T) {
	db := testutil.NewDB(t)

	for _, model := range models.All() {
		if !db.Migrator().HasTable(model) {
			t.Errorf("table for %T not created", model)
		}
	}
}

func TestGateway_PingAndClose(t *testing.T) {
	gw := testutil.NewGateway(t)
	ctx := context.Background()

	if _, err := gw.Open(ctx); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := gw.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := gw.DB(); !errors.Is(err, database.ErrNotOpen) {
		t.Errorf("DB() after Close error = %v, want ErrNotOpen", err)
	}
}
