package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"log/slog"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testRunner(t *testing.T) *Runner {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewRunner(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"record not found", gorm.ErrRecordNotFound, false},
		{"duplicated key", gorm.ErrDuplicatedKey, false},
		{"wrapped not found", errors.Join(errors.New("load user"), gorm.ErrRecordNotFound), false},
		{"bad conn", driver.ErrBadConn, true},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"connection reset", syscall.ECONNRESET, true},
		{"net op error", &net.OpError{Op: "dial", Err: errors.New("no route")}, true},
		{"pg connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"pg too many connections", &pgconn.PgError{Code: "53300"}, true},
		{"pg cannot connect now", &pgconn.PgError{Code: "57P03"}, true},
		{"pg unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"pg syntax error", &pgconn.PgError{Code: "42601"}, false},
		{"plain business error", errors.New("invalid state"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestTransientSQLState(t *testing.T) {
	assert.True(t, transientSQLState("08000"))
	assert.True(t, transientSQLState("08P01"))
	assert.True(t, transientSQLState("53400"))
	assert.False(t, transientSQLState("23505"))
	assert.False(t, transientSQLState("57014"))
}

func TestDo_RetriesTransientThenSucceeds(t *testing.T) {
	r := testRunner(t)

	attempts := 0
	err := r.Do(context.Background(), func(db *gorm.DB) error {
		attempts++
		if attempts == 1 {
			return driver.ErrBadConn
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestDo_GivesUpAfterMaxRetries(t *testing.T) {
	r := testRunner(t)

	attempts := 0
	err := r.Do(context.Background(), func(db *gorm.DB) error {
		attempts++
		return driver.ErrBadConn
	})
	assert.ErrorIs(t, err, driver.ErrBadConn)
	assert.Equal(t, maxRetries+1, attempts)
}

func TestDo_NonTransientFailsImmediately(t *testing.T) {
	r := testRunner(t)

	attempts := 0
	err := r.Do(context.Background(), func(db *gorm.DB) error {
		attempts++
		return gorm.ErrRecordNotFound
	})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Equal(t, 1, attempts, "business errors never retry")
}

func TestDo_CancelledContextAbortsBackoff(t *testing.T) {
	r := testRunner(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	start := time.Now()
	err := r.Do(ctx, func(db *gorm.DB) error {
		attempts++
		return driver.ErrBadConn
	})
	assert.ErrorIs(t, err, driver.ErrBadConn)
	assert.Equal(t, 1, attempts)
	assert.Less(t, time.Since(start), retryBackoff, "cancellation skips the backoff wait")
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	r := testRunner(t)
	require.NoError(t, r.DB().AutoMigrate(&retryProbe{}))

	boom := errors.New("boom")
	err := r.Transaction(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Create(&retryProbe{Name: "ghost"}).Error; err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, r.DB().Model(&retryProbe{}).Count(&count).Error)
	assert.Zero(t, count, "failed transactions leave nothing behind")
}

type retryProbe struct {
	ID   uint `gorm:"primarykey"`
	Name string
}
