package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"student-inout-api/internal/domain"
	"student-inout-api/internal/dto"
	"student-inout-api/internal/repository"
	"student-inout-api/internal/response"
)

const (
	DefaultLogLimit        = 100
	DefaultStudentLogLimit = 50
	MaxLogLimit            = 500
	DefaultRecentLogHours  = 24
	MaxRecentLogHours      = 720
	DefaultLogRetention    = 30
)

// LogService reads and purges the audit log
type LogService interface {
	List(ctx context.Context, limit, offset int) ([]*domain.Log, error)
	ListByStudent(ctx context.Context, studentID string, limit int) ([]*domain.Log, error)
	Recent(ctx context.Context, hours int) ([]*domain.Log, error)
	TodayStats(ctx context.Context) (*dto.DailyStats, error)
	StatsByDate(ctx context.Context, date string) (*dto.DailyStats, error)
	ClearOld(ctx context.Context, days int) (int64, error)
}

type logServiceImpl struct {
	logs   repository.LogRepository
	logger *zap.Logger
	loc    *time.Location
	now    func() time.Time
}

// NewLogService creates a new instance of LogService
func NewLogService(logs repository.LogRepository, logger *zap.Logger, loc *time.Location) LogService {
	if loc == nil {
		loc = time.UTC
	}
	return &logServiceImpl{logs: logs, logger: logger, loc: loc, now: domain.Now}
}

func (s *logServiceImpl) List(ctx context.Context, limit, offset int) ([]*domain.Log, error) {
	if limit < 1 || limit > MaxLogLimit {
		return nil, response.NewValidationError("Limit must be between 1 and 500", "")
	}
	if offset < 0 {
		return nil, response.NewValidationError("Offset must not be negative", "")
	}
	logs, err := s.logs.List(ctx, limit, offset)
	if err != nil {
		return nil, internalError("Failed to fetch logs", err)
	}
	return logs, nil
}

func (s *logServiceImpl) ListByStudent(ctx context.Context, studentID string, limit int) ([]*domain.Log, error) {
	id := domain.NormalizeStudentID(studentID)
	if id == "" {
		return nil, response.NewValidationError("Student ID is required", "")
	}
	if limit < 1 || limit > MaxLogLimit {
		return nil, response.NewValidationError("Limit must be between 1 and 500", "")
	}
	logs, err := s.logs.FindByStudentID(ctx, id, limit)
	if err != nil {
		return nil, internalError("Failed to fetch student logs", err)
	}
	return logs, nil
}

func (s *logServiceImpl) Recent(ctx context.Context, hours int) ([]*domain.Log, error) {
	if hours < 1 || hours > MaxRecentLogHours {
		return nil, response.NewValidationError("Hours must be between 1 and 720", "")
	}
	logs, err := s.logs.FindSince(ctx, s.now().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		return nil, internalError("Failed to fetch recent logs", err)
	}
	return logs, nil
}

func (s *logServiceImpl) TodayStats(ctx context.Context) (*dto.DailyStats, error) {
	local := s.now().In(s.loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	return s.statsFor(ctx, day)
}

func (s *logServiceImpl) StatsByDate(ctx context.Context, date string) (*dto.DailyStats, error) {
	day, err := time.ParseInLocation("2006-01-02", date, s.loc)
	if err != nil {
		return nil, response.NewValidationError("Date must be formatted as YYYY-MM-DD", date)
	}
	return s.statsFor(ctx, day)
}

func (s *logServiceImpl) statsFor(ctx context.Context, day time.Time) (*dto.DailyStats, error) {
	counts, err := s.logs.CountByActionBetween(ctx, day.UTC(), day.AddDate(0, 0, 1).UTC())
	if err != nil {
		return nil, internalError("Failed to fetch log stats", err)
	}
	in, out := counts[domain.StatusIn], counts[domain.StatusOut]
	return &dto.DailyStats{
		Date:  day.Format("2006-01-02"),
		In:    in,
		Out:   out,
		Total: in + out,
	}, nil
}

func (s *logServiceImpl) ClearOld(ctx context.Context, days int) (int64, error) {
	if days < 1 {
		return 0, response.NewValidationError("Days must be at least 1", "")
	}
	cutoff := s.now().AddDate(0, 0, -days)
	deleted, err := s.logs.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, internalError("Failed to clear old logs", err)
	}
	s.logger.Info("Old audit entries removed",
		zap.Int("days", days),
		zap.Int64("deleted", deleted),
	)
	return deleted, nil
}
