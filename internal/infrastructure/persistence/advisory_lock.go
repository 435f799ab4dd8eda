package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// PgAdvisoryLocker takes Postgres session-level advisory locks. Each
// acquisition pins a dedicated connection so the lock lives until the
// returned release function runs, independent of the pool's recycling.
type PgAdvisoryLocker struct {
	db *gorm.DB
}

// NewPgAdvisoryLocker creates an advisory locker over the shared pool
func NewPgAdvisoryLocker(db *gorm.DB) *PgAdvisoryLocker {
	return &PgAdvisoryLocker{db: db}
}

// TryAcquire attempts to take the lock without blocking. When acquired
// is true the caller must invoke release exactly once.
func (l *PgAdvisoryLocker) TryAcquire(ctx context.Context, key int64) (release func(), acquired bool, err error) {
	sqlDB, err := l.db.DB()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to pin connection for advisory lock: %w", err)
	}

	var got bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&got); err != nil {
		_ = conn.Close()
		return nil, false, fmt.Errorf("failed to acquire advisory lock %d: %w", key, err)
	}
	if !got {
		_ = conn.Close()
		return nil, false, nil
	}

	release = func() {
		// unlock on the same session, then return the connection
		_, _ = conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", key)
		_ = conn.Close()
	}
	return release, true, nil
}
