package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"student-inout-api/internal/broadcast"
	"student-inout-api/internal/domain"
	"student-inout-api/internal/dto"
	"student-inout-api/internal/repository"
	"student-inout-api/internal/response"
)

const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 100
	DefaultClearHours  = 24
	MaxClearHours      = 168
)

// ActivityService reads and evicts the activity feed
type ActivityService interface {
	ListRecent(ctx context.Context, limit int) ([]*dto.ActivityResponse, error)
	// ClearOlderThan is the operator endpoint, bounded to one week
	ClearOlderThan(ctx context.Context, hours int) (int64, error)
	// EvictOlderThan is used by scheduled jobs and has no bound
	EvictOlderThan(ctx context.Context, age time.Duration) (int64, error)
	ClearAll(ctx context.Context) (int64, error)
	SweepExpired(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (*dto.ActivityStats, error)
}

type activityServiceImpl struct {
	activities repository.ActivityRepository
	notifier   broadcast.Notifier
	logger     *zap.Logger
	loc        *time.Location
	now        func() time.Time
}

// NewActivityService creates a new instance of ActivityService. loc defines
// calendar days for Stats.
func NewActivityService(activities repository.ActivityRepository, notifier broadcast.Notifier, logger *zap.Logger, loc *time.Location) ActivityService {
	if notifier == nil {
		notifier = broadcast.NopNotifier{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &activityServiceImpl{
		activities: activities,
		notifier:   notifier,
		logger:     logger,
		loc:        loc,
		now:        domain.Now,
	}
}

func (s *activityServiceImpl) ListRecent(ctx context.Context, limit int) ([]*dto.ActivityResponse, error) {
	if limit < 1 || limit > MaxRecentLimit {
		return nil, response.NewValidationError("Limit must be between 1 and 100", "")
	}

	activities, err := s.activities.ListRecent(ctx, s.now(), limit)
	if err != nil {
		return nil, internalError("Failed to fetch recent activities", err)
	}

	out := make([]*dto.ActivityResponse, 0, len(activities))
	for _, a := range activities {
		resp, err := dto.NewActivityResponse(a)
		if err != nil {
			s.logger.Warn("Skipping feed entry with unreadable snapshot", zap.String("id", a.ID.String()), zap.Error(err))
			continue
		}
		out = append(out, resp)
	}
	return out, nil
}

func (s *activityServiceImpl) ClearOlderThan(ctx context.Context, hours int) (int64, error) {
	if hours < 1 || hours > MaxClearHours {
		return 0, response.NewValidationError("Hours must be between 1 and 168 (1 week)", "")
	}
	return s.EvictOlderThan(ctx, time.Duration(hours)*time.Hour)
}

func (s *activityServiceImpl) EvictOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	deleted, err := s.activities.DeleteOlderThan(ctx, s.now().Add(-age))
	if err != nil {
		return 0, internalError("Failed to clear old activities", err)
	}
	if deleted > 0 {
		s.notifyCleared(ctx, deleted)
	}
	return deleted, nil
}

func (s *activityServiceImpl) ClearAll(ctx context.Context) (int64, error) {
	deleted, err := s.activities.DeleteAll(ctx)
	if err != nil {
		return 0, internalError("Failed to clear activities", err)
	}
	s.notifyCleared(ctx, deleted)
	return deleted, nil
}

func (s *activityServiceImpl) SweepExpired(ctx context.Context) (int64, error) {
	deleted, err := s.activities.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, internalError("Failed to sweep expired activities", err)
	}
	return deleted, nil
}

func (s *activityServiceImpl) Stats(ctx context.Context) (*dto.ActivityStats, error) {
	now := s.now()
	counts, err := s.activities.CountSince(ctx, now, startOfDay(now, s.loc))
	if err != nil {
		return nil, internalError("Failed to fetch activity stats", err)
	}
	return &dto.ActivityStats{
		TodayCheckIns:  counts.In,
		TodayCheckOuts: counts.Out,
		TodayTotal:     counts.In + counts.Out,
		FeedSize:       counts.Total,
	}, nil
}

func (s *activityServiceImpl) notifyCleared(ctx context.Context, deleted int64) {
	s.notifier.Notify(ctx, broadcast.Event{Type: broadcast.EventFeedCleared, Deleted: deleted})
}

// startOfDay returns local midnight of t's calendar day in loc, as UTC
func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).UTC()
}
