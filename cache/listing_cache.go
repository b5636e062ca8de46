package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mashrabu/db"
	"mashrabu/model"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when the key is absent or caching is disabled.
var ErrMiss = errors.New("cache miss")

const listingTTL = 10 * time.Minute

// dayTracksKey builds the Redis key for one day's track listing.
func dayTracksKey(dayID int64) string {
	return fmt.Sprintf("day:%d:tracks", dayID)
}

// GetDayTracks returns the cached track listing for a day.
func GetDayTracks(ctx context.Context, dayID int64) ([]*model.Track, error) {
	if db.RedisClient == nil {
		return nil, ErrMiss
	}

	raw, err := db.RedisClient.Get(ctx, dayTracksKey(dayID)).Result()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read track listing cache: %w", err)
	}

	var tracks []*model.Track
	if err := json.Unmarshal([]byte(raw), &tracks); err != nil {
		// A corrupt entry is treated as a miss; the caller will refill it.
		return nil, ErrMiss
	}
	return tracks, nil
}

// SetDayTracks stores a day's track listing.
func SetDayTracks(ctx context.Context, dayID int64, tracks []*model.Track) error {
	if db.RedisClient == nil {
		return nil
	}

	raw, err := json.Marshal(tracks)
	if err != nil {
		return fmt.Errorf("failed to marshal track listing: %w", err)
	}

	if err := db.RedisClient.Set(ctx, dayTracksKey(dayID), raw, listingTTL).Err(); err != nil {
		return fmt.Errorf("failed to write track listing cache: %w", err)
	}
	return nil
}

// InvalidateDayTracks drops a day's cached listing after an upload or delete.
func InvalidateDayTracks(ctx context.Context, dayID int64) error {
	if db.RedisClient == nil {
		return nil
	}

	if err := db.RedisClient.Del(ctx, dayTracksKey(dayID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate track listing cache: %w", err)
	}
	return nil
}
