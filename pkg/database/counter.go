// Copyright 2025 Certen Protocol

package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/lib/pq"
)

// CounterService is the durable, linearizable monotonic register spec.md
// section 4.5 calls for: a single Postgres row per counter name, advanced
// with an atomic UPDATE ... RETURNING, retried with exponential backoff
// (base factor >= 2) on transient throttling and left to fail fast on
// anything else.
type CounterService struct {
	client *Client
	logger *log.Logger

	maxRetries int
	backoffBase time.Duration
}

// CounterServiceOption configures a CounterService.
type CounterServiceOption func(*CounterService)

// WithCounterLogger overrides the default logger.
func WithCounterLogger(logger *log.Logger) CounterServiceOption {
	return func(s *CounterService) { s.logger = logger }
}

// WithCounterRetries overrides the retry policy.
func WithCounterRetries(maxRetries int, base time.Duration) CounterServiceOption {
	return func(s *CounterService) {
		s.maxRetries = maxRetries
		s.backoffBase = base
	}
}

// NewCounterService wraps an already-connected database Client.
func NewCounterService(client *Client, opts ...CounterServiceOption) *CounterService {
	s := &CounterService{
		client:      client,
		logger:      log.New(log.Writer(), "[CounterService] ", log.LstdFlags),
		maxRetries:  5,
		backoffBase: 250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureFloor inserts the counter's floor value if it does not already
// exist. Safe to call on every invocation: it never lowers an existing
// value.
func (s *CounterService) EnsureFloor(ctx context.Context, name string, floor uint64) error {
	_, err := s.client.ExecContext(ctx,
		`INSERT INTO route_counters (name, value) VALUES ($1, $2)
		 ON CONFLICT (name) DO NOTHING`,
		name, int64(floor))
	if err != nil {
		return fmt.Errorf("counter: failed to ensure floor for %s: %w", name, err)
	}
	return nil
}

// isThrottling reports whether a Postgres error represents transient
// resource exhaustion that is worth retrying, rather than a structural bug.
func isThrottling(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "too_many_connections", "admin_shutdown", "crash_shutdown", "cannot_connect_now", "disk_full", "out_of_memory":
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "too many connections") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "deadline exceeded")
}

// Next atomically increments and returns the post-increment value of the
// named counter. Non-throttling errors are fatal and returned immediately;
// throttling errors are retried with exponential backoff (factor 2) up to
// maxRetries times after the first attempt.
func (s *CounterService) Next(ctx context.Context, name string) (uint64, error) {
	var value int64

	op := func() error {
		row := s.client.QueryRowContext(ctx,
			`UPDATE route_counters SET value = value + 1 WHERE name = $1 RETURNING value`, name)
		if err := row.Scan(&value); err != nil {
			if !isThrottling(err) {
				return backoff.Permanent(fmt.Errorf("counter: failed to increment %s: %w", name, err))
			}
			return fmt.Errorf("counter: transient failure incrementing %s: %w", name, err)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.backoffBase
	b.Multiplier = 2
	bounded := backoff.WithMaxRetries(b, uint64(s.maxRetries))

	if err := backoff.Retry(op, backoff.WithContext(bounded, ctx)); err != nil {
		return 0, err
	}
	if value < 0 {
		return 0, fmt.Errorf("counter: %s overflowed into negative range", name)
	}
	return uint64(value), nil
}
