package db

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"time"

	_ "github.com/lib/pq" // Import postgres driver
)

func Connect(dsn string, timeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database handle: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			fmt.Printf("failed to close database handle after ping error: %v\n", closeErr)
		}
		return nil, fmt.Errorf("failed to ping database within %v: %w", timeout, err)
	}

	return db, nil
}

// StageLockID derives a stable advisory lock key for a stage. The engine
// has no internal lock, so writers serialize per stage at this level.
func StageLockID(stageID int) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "stage:%d", stageID)
	return int64(h.Sum64())
}

// AcquireStageLock takes a session-level advisory lock for the stage and
// returns a release function. Engine write operations on the same stage
// must not run concurrently; the lock enforces that across processes.
func AcquireStageLock(ctx context.Context, db *sql.DB, stageID int) (release func() error, err error) {
	lockID := StageLockID(stageID)
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection for advisory lock: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", lockID); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to acquire advisory lock %d: %w", lockID, err)
	}
	return func() error {
		_, unlockErr := conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", lockID)
		closeErr := conn.Close()
		if unlockErr != nil {
			return unlockErr
		}
		return closeErr
	}, nil
}
