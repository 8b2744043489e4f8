package postgres

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LockManager provides cross-process locks using PostgreSQL advisory locks
type LockManager struct {
	pool *pgxpool.Pool
}

func NewLockManager(pool *pgxpool.Pool) *LockManager { return &LockManager{pool: pool} }

// hashKey converts a string key to a uint32 for advisory locks
func hashKey(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32()
}

// WithLock runs fn while holding the advisory lock of key. The lock is session scoped, so
// it is taken and released on one dedicated pool connection.
func (l *LockManager) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection for lock %s: %w", key, err)
	}
	defer conn.Release()

	k := int64(hashKey(key))
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", k); err != nil {
		return fmt.Errorf("acquire lock %s: %w", key, err)
	}
	defer func() {
		_, _ = conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", k)
	}()

	return fn(ctx)
}
