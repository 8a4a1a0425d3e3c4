package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/samsalgado/DECENTMED-SERVER/internal/database"
	"github.com/samsalgado/DECENTMED-SERVER/internal/models"
	"github.com/samsalgado/DECENTMED-SERVER/internal/repository"
	"github.com/samsalgado/DECENTMED-SERVER/internal/service"
	"github.com/samsalgado/DECENTMED-SERVER/internal/testutil"
)

// seededOpener opens a fresh in-memory database holding one user.
func seededOpener(t *testing.T) opener {
	return func(ctx context.Context) (*database.Gateway, error) {
		gw := testutil.NewGateway(t)
		db, err := gw.Open(ctx)
		if err != nil {
			return nil, err
		}
		users := repository.NewUserRepository(db, time.Second)
		if err := users.Create(ctx, &models.User{ID: "u1", Name: "Ops", Email: "ops@example.com", Role: models.RoleUser}); err != nil {
			return nil, err
		}
		return gw, nil
	}
}

func execute(open opener, args ...string) (string, error) {
	cmd := newRootCmd(open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	out, err := execute(seededOpener(t), "migrate")
	if err != nil {
		t.Fatalf("migrate error = %v", err)
	}
	if !strings.Contains(out, "migrations applied") {
		t.Errorf("output = %q", out)
	}
}

func TestGrantRole(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"grant admin", []string{"grant-role", "OPS@example.com", "admin"}, nil},
		{"unknown role", []string{"grant-role", "ops@example.com", "root"}, service.ErrValidation},
		{"unknown user", []string{"grant-role", "nobody@example.com", "admin"}, service.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(seededOpener(t), tt.args...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("grant-role error = %v", err)
			}
			if !strings.Contains(out, "granted admin") {
				t.Errorf("output = %q", out)
			}
		})
	}
}

func TestGrantRole_WrongArgCount(t *testing.T) {
	if _, err := execute(seededOpener(t), "grant-role", "ops@example.com"); err == nil {
		t.Error("grant-role with one argument should fail")
	}
}

func TestUsers(t *testing.T) {
	out, err := execute(seededOpener(t), "users")
	if err != nil {
		t.Fatalf("users error = %v", err)
	}
	if !strings.Contains(out, "EMAIL") || !strings.Contains(out, "ops@example.com") {
		t.Errorf("output = %q", out)
	}
}

func TestOpenFailure(t *testing.T) {
	failing := func(context.Context) (*database.Gateway, error) { return nil, errors.New("no database") }
	if _, err := execute(failing, "migrate"); err == nil || !strings.Contains(err.Error(), "no database") {
		t.Errorf("error = %v", err)
	}
}
