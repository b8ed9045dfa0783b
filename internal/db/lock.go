package db

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CycleLock holds a Postgres advisory lock for the duration of one cycle.
// Advisory locks are connection-scoped, so the lock pins a pool connection
// until released.
type CycleLock struct {
	conn *pgxpool.Conn
	key  int64
}

// AcquireCycleLock takes a per-tenant advisory lock. Returns (nil, nil) when
// another cycle already holds the lock for this tenant.
func (c *Client) AcquireCycleLock(ctx context.Context, tenantID string) (*CycleLock, error) {
	key := cycleLockKey(tenantID)

	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	var locked bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&locked); err != nil {
		conn.Release()
		return nil, fmt.Errorf("try advisory lock: %w", err)
	}
	if !locked {
		conn.Release()
		return nil, nil
	}
	return &CycleLock{conn: conn, key: key}, nil
}

// Release unlocks and returns the connection to the pool.
func (l *CycleLock) Release(ctx context.Context) {
	if l == nil || l.conn == nil {
		return
	}
	_, _ = l.conn.Exec(ctx, `SELECT pg_advisory_unlock($1)`, l.key)
	l.conn.Release()
	l.conn = nil
}

// TryLockCycle is the Store-shaped wrapper around AcquireCycleLock.
func (c *Client) TryLockCycle(ctx context.Context, tenantID string) (func(context.Context), bool, error) {
	lock, err := c.AcquireCycleLock(ctx, tenantID)
	if err != nil {
		return nil, false, err
	}
	if lock == nil {
		return nil, false, nil
	}
	return lock.Release, true, nil
}

func cycleLockKey(tenantID string) int64 {
	h := fnv.New64a()
	h.Write([]byte("prospector-cycle:" + tenantID))
	return int64(h.Sum64())
}
