// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	clocks "github.com/vimeo/go-clocks"
	retry "github.com/vimeo/go-retry"
)

// Connect opens the database and pings it until it answers, backing off
// between at most attempts tries.
func Connect(ctx context.Context, clock clocks.Clock, dbType, url string, attempts int) (*sqlx.DB, error) {
	conn, err := Open(dbType, url)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = clocks.DefaultClock()
	}

	b := retry.DefaultBackoff()
	for i := 1; ; i++ {
		err = conn.PingContext(ctx)
		if err == nil {
			return conn, nil
		}
		if i >= attempts {
			break
		}
		wait := b.Next()
		slog.Warn("database ping failed, retrying",
			"attempt", i,
			"wait", wait,
			"error", err,
		)
		if !clock.SleepFor(ctx, wait) {
			err = ctx.Err()
			break
		}
	}

	conn.Close()
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", attempts, err)
}
