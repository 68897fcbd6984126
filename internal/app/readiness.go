package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Pinger is the minimal interface for a database pool capable of Ping.
type Pinger interface{ Ping(ctx context.Context) error }

// BuildReadinessChecks returns the db and redis readiness probes. The redis
// check reports unconfigured when no client was built.
func BuildReadinessChecks(pool Pinger, rdb *redis.Client) (func(ctx context.Context) error, func(ctx context.Context) error) {
	dbCheck := func(ctx context.Context) error {
		if pool == nil {
			return fmt.Errorf("db not configured")
		}
		return pool.Ping(ctx)
	}
	var redisCheck func(ctx context.Context) error
	if rdb != nil {
		redisCheck = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}
	return dbCheck, redisCheck
}
