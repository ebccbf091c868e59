package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"log/slog"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	maxRetries   = 2
	retryBackoff = time.Second
)

// Runner wraps a *gorm.DB and re-runs calls that fail with a transient
// connectivity error: up to maxRetries extra attempts with linear backoff.
// Everything else (not-found, constraint violations, business errors)
// propagates unchanged on the first failure.
type Runner struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewRunner(db *gorm.DB, log *slog.Logger) *Runner {
	return &Runner{db: db, log: log}
}

// DB exposes the wrapped handle for callers that compose their own queries.
func (r *Runner) DB() *gorm.DB {
	return r.db
}

// Do runs fn against the wrapped handle, retrying transient failures.
// Backoff waits honor ctx cancellation.
func (r *Runner) Do(ctx context.Context, fn func(db *gorm.DB) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn(r.db.WithContext(ctx))
		if err == nil || !IsTransient(err) || attempt >= maxRetries {
			return err
		}

		wait := time.Duration(attempt+1) * retryBackoff
		r.log.Warn("transient store failure, retrying",
			"attempt", attempt+1,
			"backoff", wait.String(),
			"error", err,
		)

		select {
		case <-ctx.Done():
			return err
		case <-time.After(wait):
		}
	}
}

// Transaction runs fn inside a gorm transaction with the same retry contract.
// The whole transaction is retried, never a partial one.
func (r *Runner) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.Do(ctx, func(db *gorm.DB) error {
		return db.Transaction(fn)
	})
}

// Postgres SQLSTATEs that signal connectivity trouble rather than a bad query:
// class 08 (connection exceptions), 53300/53400 (pool/configuration limits),
// 57P03 (cannot connect now, e.g. during startup or failover).
func transientSQLState(code string) bool {
	if strings.HasPrefix(code, "08") {
		return true
	}
	switch code {
	case "53300", "53400", "57P03":
		return true
	}
	return false
}

// IsTransient classifies a storage error as retryable. Record-not-found and
// constraint violations are business outcomes and never qualify.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return transientSQLState(pgErr.Code)
	}
	if pgconn.Timeout(err) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}
