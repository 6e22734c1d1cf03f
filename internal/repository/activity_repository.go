package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"student-inout-api/internal/domain"
)

// ActivityCounts summarizes live feed entries
type ActivityCounts struct {
	In    int64
	Out   int64
	Total int64
}

// ActivityRepository is the ephemeral activity feed. Entries whose
// expires_at is not after now are never returned.
type ActivityRepository interface {
	// WithTx binds the repository to tx. The bool is false when the backend
	// cannot join a database transaction, in which case the receiver is
	// returned unchanged.
	WithTx(tx *gorm.DB) (ActivityRepository, bool)
	Create(ctx context.Context, activity *domain.Activity) error
	ListRecent(ctx context.Context, now time.Time, limit int) ([]*domain.Activity, error)
	// CountSince counts live entries, split by action for those at or after since
	CountSince(ctx context.Context, now, since time.Time) (ActivityCounts, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type activityRepositoryImpl struct {
	db *gorm.DB
}

// NewActivityRepository creates the database-backed feed
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepositoryImpl{db: db}
}

func (r *activityRepositoryImpl) WithTx(tx *gorm.DB) (ActivityRepository, bool) {
	return &activityRepositoryImpl{db: tx}, true
}

func (r *activityRepositoryImpl) Create(ctx context.Context, activity *domain.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *activityRepositoryImpl) ListRecent(ctx context.Context, now time.Time, limit int) ([]*domain.Activity, error) {
	var activities []*domain.Activity
	if err := r.db.WithContext(ctx).
		Where("expires_at > ?", now).
		Order("timestamp DESC").
		Limit(limit).
		Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *activityRepositoryImpl) CountSince(ctx context.Context, now, since time.Time) (ActivityCounts, error) {
	var counts ActivityCounts

	if err := r.db.WithContext(ctx).
		Model(&domain.Activity{}).
		Where("expires_at > ?", now).
		Count(&counts.Total).Error; err != nil {
		return counts, err
	}

	var rows []struct {
		Action domain.Status
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&domain.Activity{}).
		Select("action, COUNT(*) AS count").
		Where("expires_at > ? AND timestamp >= ?", now, since).
		Group("action").
		Scan(&rows).Error; err != nil {
		return counts, err
	}
	for _, row := range rows {
		switch row.Action {
		case domain.StatusIn:
			counts.In = row.Count
		case domain.StatusOut:
			counts.Out = row.Count
		}
	}
	return counts, nil
}

func (r *activityRepositoryImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&domain.Activity{})
	return result.RowsAffected, result.Error
}

func (r *activityRepositoryImpl) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Activity{})
	return result.RowsAffected, result.Error
}

func (r *activityRepositoryImpl) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&domain.Activity{})
	return result.RowsAffected, result.Error
}
