// Package ratelimit counts requests per key inside fixed windows. The
// Postgres counter is shared between API replicas; the memory counter serves
// single-process deployments.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Window is the state of a key after one increment
type Window struct {
	Count   int
	ResetAt time.Time
}

// Counter increments the request count for a key
type Counter interface {
	Increment(ctx context.Context, key string) (Window, error)
}

// DB interface for database operations
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

const sweepInterval = 10 * time.Minute

// PostgresCounter stores counters in rate_limit_counters
type PostgresCounter struct {
	db     DB
	window time.Duration
	now    func() time.Time
	sweep  time.Duration
	logger *slog.Logger
}

func NewPostgresCounter(db DB, window time.Duration) *PostgresCounter {
	return &PostgresCounter{
		db:     db,
		window: window,
		now:    time.Now,
		sweep:  sweepInterval,
		logger: slog.Default(),
	}
}

// WithLogger sets the logger used by the expiry sweeper
func (r *PostgresCounter) WithLogger(logger *slog.Logger) *PostgresCounter {
	r.logger = logger
	return r
}

// Increment atomically bumps the counter, starting a new window when the
// previous one has ended
func (r *PostgresCounter) Increment(ctx context.Context, key string) (Window, error) {
	now := r.now().UTC()

	query := `
		INSERT INTO rate_limit_counters (key, count, window_end)
		VALUES ($1, 1, $2)
		ON CONFLICT (key)
		DO UPDATE SET
			count = CASE
				WHEN rate_limit_counters.window_end <= $3 THEN 1
				ELSE rate_limit_counters.count + 1
			END,
			window_end = CASE
				WHEN rate_limit_counters.window_end <= $3 THEN $2
				ELSE rate_limit_counters.window_end
			END
		RETURNING count, window_end
	`

	var w Window
	err := r.db.QueryRow(ctx, query, key, now.Add(r.window), now).Scan(&w.Count, &w.ResetAt)
	if err != nil {
		return Window{}, fmt.Errorf("increment rate limit counter: %w", err)
	}

	return w, nil
}

// CleanupExpired removes counters whose window ended over an hour ago
func (r *PostgresCounter) CleanupExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM rate_limit_counters WHERE window_end < NOW() - INTERVAL '1 hour'`
	result, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// Run deletes expired counters periodically until ctx is done
func (r *PostgresCounter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := r.CleanupExpired(ctx)
			if err != nil {
				if ctx.Err() == nil {
					r.logger.Warn("rate limit sweep failed", "error", err)
				}
				continue
			}
			if deleted > 0 {
				r.logger.Debug("rate limit counters expired", "deleted", deleted)
			}
		}
	}
}

type memoryEntry struct {
	count      int
	windowEnd  time.Time
	lastAccess time.Time
}

// MemoryCounter keeps counters in process memory
type MemoryCounter struct {
	window  time.Duration
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

func NewMemoryCounter(window time.Duration) *MemoryCounter {
	return &MemoryCounter{
		window:  window,
		now:     time.Now,
		entries: make(map[string]*memoryEntry),
	}
}

func (m *MemoryCounter) Increment(_ context.Context, key string) (Window, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok || !now.Before(entry.windowEnd) {
		entry = &memoryEntry{windowEnd: now.Add(m.window)}
		m.entries[key] = entry
	}
	entry.count++
	entry.lastAccess = now

	return Window{Count: entry.count, ResetAt: entry.windowEnd}, nil
}

// Run evicts idle entries until ctx is done
func (m *MemoryCounter) Run(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

// evictIdle drops entries not touched in two windows
func (m *MemoryCounter) evictIdle() {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, entry := range m.entries {
		if now.Sub(entry.lastAccess) > 2*m.window {
			delete(m.entries, key)
		}
	}
}

var (
	_ Counter = (*PostgresCounter)(nil)
	_ Counter = (*MemoryCounter)(nil)
)
