package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/wellbeam/burnout-backend/internal/logger"
)

const dashboardCacheTTL = 60 * time.Second

// DashboardCache memoizes dashboard projections in redis. All methods
// are safe on a nil receiver or nil client, so the cache is strictly
// optional wiring.
type DashboardCache struct {
	rdb *redis.Client
	log *logger.Logger
}

func NewDashboardCache(rdb *redis.Client, log *logger.Logger) *DashboardCache {
	if rdb == nil {
		return nil
	}
	return &DashboardCache{rdb: rdb, log: log.With("cache", "DashboardCache")}
}

func dashboardCacheKey(userID uuid.UUID, day time.Time) string {
	return fmt.Sprintf("dashboard:%s:%s", userID, day.Format("2006-01-02"))
}

func (c *DashboardCache) Get(ctx context.Context, userID uuid.UUID, day time.Time) *DashboardView {
	if c == nil {
		return nil
	}
	raw, err := c.rdb.Get(ctx, dashboardCacheKey(userID, day)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("dashboard cache read failed", "error", err)
		}
		return nil
	}
	var view DashboardView
	if err := json.Unmarshal(raw, &view); err != nil {
		c.log.Warn("dashboard cache entry corrupt, ignoring", "error", err)
		return nil
	}
	return &view
}

func (c *DashboardCache) Set(ctx context.Context, userID uuid.UUID, day time.Time, view *DashboardView) {
	if c == nil || view == nil {
		return
	}
	raw, err := json.Marshal(view)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, dashboardCacheKey(userID, day), raw, dashboardCacheTTL).Err(); err != nil {
		c.log.Warn("dashboard cache write failed", "error", err)
	}
}

// Invalidate drops the user's entry for the given day. Called after a
// submission commits so the dashboard reflects the new prediction.
func (c *DashboardCache) Invalidate(ctx context.Context, userID uuid.UUID, day time.Time) {
	if c == nil {
		return
	}
	if err := c.rdb.Del(ctx, dashboardCacheKey(userID, day)).Err(); err != nil {
		c.log.Warn("dashboard cache invalidation failed", "error", err)
	}
}
