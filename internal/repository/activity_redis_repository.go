package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"student-inout-api/internal/domain"
)

// redisActivityRepository keeps the feed in one sorted set scored by the
// entry timestamp in unix milliseconds. An entry is live while its score is
// greater than now minus ttl.
type redisActivityRepository struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisActivityRepository creates the redis-backed feed
func NewRedisActivityRepository(client *redis.Client, key string, ttl time.Duration) ActivityRepository {
	return &redisActivityRepository{client: client, key: key, ttl: ttl}
}

func (r *redisActivityRepository) WithTx(*gorm.DB) (ActivityRepository, bool) {
	return r, false
}

func score(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func (r *redisActivityRepository) liveMin(now time.Time) string {
	return "(" + score(now.Add(-r.ttl))
}

func (r *redisActivityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	member, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("failed to encode activity: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, r.key, &redis.Z{
			Score:  float64(activity.Timestamp.UnixMilli()),
			Member: member,
		})
		// an idle feed disappears on its own
		pipe.Expire(ctx, r.key, r.ttl)
		return nil
	})
	return err
}

// rangeDesc returns members with score above min, newest first. count 0 means all.
func (r *redisActivityRepository) rangeDesc(ctx context.Context, min string, count int64) ([]*domain.Activity, error) {
	members, err := r.client.ZRevRangeByScore(ctx, r.key, &redis.ZRangeBy{
		Min:   min,
		Max:   "+inf",
		Count: count,
	}).Result()
	if err != nil {
		return nil, err
	}

	activities := make([]*domain.Activity, 0, len(members))
	for _, m := range members {
		var a domain.Activity
		if err := json.Unmarshal([]byte(m), &a); err != nil {
			return nil, fmt.Errorf("failed to decode activity: %w", err)
		}
		activities = append(activities, &a)
	}
	return activities, nil
}

func (r *redisActivityRepository) ListRecent(ctx context.Context, now time.Time, limit int) ([]*domain.Activity, error) {
	return r.rangeDesc(ctx, r.liveMin(now), int64(limit))
}

func (r *redisActivityRepository) CountSince(ctx context.Context, now, since time.Time) (ActivityCounts, error) {
	var counts ActivityCounts

	total, err := r.client.ZCount(ctx, r.key, r.liveMin(now), "+inf").Result()
	if err != nil {
		return counts, err
	}
	counts.Total = total

	min := r.liveMin(now)
	if s := now.Add(-r.ttl); since.After(s) {
		min = score(since)
	}
	activities, err := r.rangeDesc(ctx, min, 0)
	if err != nil {
		return counts, err
	}
	for _, a := range activities {
		switch a.Action {
		case domain.StatusIn:
			counts.In++
		case domain.StatusOut:
			counts.Out++
		}
	}
	return counts, nil
}

func (r *redisActivityRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.client.ZRemRangeByScore(ctx, r.key, "-inf", "("+score(cutoff)).Result()
}

func (r *redisActivityRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.client.ZRemRangeByScore(ctx, r.key, "-inf", score(now.Add(-r.ttl))).Result()
}

func (r *redisActivityRepository) DeleteAll(ctx context.Context) (int64, error) {
	var card *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		card = pipe.ZCard(ctx, r.key)
		pipe.Del(ctx, r.key)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return card.Val(), nil
}
