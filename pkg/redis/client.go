// Package redis provides Redis client utilities.
package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options describes the session store connection.
type Options struct {
	Addr     string
	Password string
	// TLS is enabled when a password is set unless DisableTLS is true.
	DisableTLS  bool
	DialTimeout time.Duration
	IOTimeout   time.Duration
}

// NewClient creates a Redis client and verifies it with a ping.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	options := &redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           0,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.IOTimeout,
		WriteTimeout: opts.IOTimeout,
	}

	// Enable TLS for production environments when password is set
	if opts.Password != "" && !opts.DisableTLS {
		options.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	client := redis.NewClient(options)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
