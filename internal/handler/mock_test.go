package handler

import (
	"context"
	"time"

	"student-inout-api/internal/domain"
	"student-inout-api/internal/dto"
)

// MockPresenceService is a mock implementation of PresenceService
type MockPresenceService struct {
	ToggleFunc          func(ctx context.Context, studentID string) (*dto.ToggleResult, error)
	AddActivityFunc     func(ctx context.Context, req *dto.AddActivityRequest) (*dto.ActivityAddResult, error)
	RegisterStudentFunc func(ctx context.Context, req *dto.RegisterStudentRequest) (*dto.StudentResponse, error)
	GetStudentFunc      func(ctx context.Context, studentID string) (*dto.StudentResponse, error)
	ListByStatusFunc    func(ctx context.Context, status string) ([]*dto.StudentResponse, error)
	SummaryFunc         func(ctx context.Context) (*dto.PresenceSummary, error)
	ReconcileFunc       func(ctx context.Context) (int, error)
}

func (m *MockPresenceService) Toggle(ctx context.Context, studentID string) (*dto.ToggleResult, error) {
	if m.ToggleFunc != nil {
		return m.ToggleFunc(ctx, studentID)
	}
	return &dto.ToggleResult{}, nil
}

func (m *MockPresenceService) AddActivity(ctx context.Context, req *dto.AddActivityRequest) (*dto.ActivityAddResult, error) {
	if m.AddActivityFunc != nil {
		return m.AddActivityFunc(ctx, req)
	}
	return &dto.ActivityAddResult{}, nil
}

func (m *MockPresenceService) RegisterStudent(ctx context.Context, req *dto.RegisterStudentRequest) (*dto.StudentResponse, error) {
	if m.RegisterStudentFunc != nil {
		return m.RegisterStudentFunc(ctx, req)
	}
	return &dto.StudentResponse{}, nil
}

func (m *MockPresenceService) GetStudent(ctx context.Context, studentID string) (*dto.StudentResponse, error) {
	if m.GetStudentFunc != nil {
		return m.GetStudentFunc(ctx, studentID)
	}
	return &dto.StudentResponse{}, nil
}

func (m *MockPresenceService) ListByStatus(ctx context.Context, status string) ([]*dto.StudentResponse, error) {
	if m.ListByStatusFunc != nil {
		return m.ListByStatusFunc(ctx, status)
	}
	return nil, nil
}

func (m *MockPresenceService) Summary(ctx context.Context) (*dto.PresenceSummary, error) {
	if m.SummaryFunc != nil {
		return m.SummaryFunc(ctx)
	}
	return &dto.PresenceSummary{}, nil
}

func (m *MockPresenceService) Reconcile(ctx context.Context) (int, error) {
	if m.ReconcileFunc != nil {
		return m.ReconcileFunc(ctx)
	}
	return 0, nil
}

// MockActivityService is a mock implementation of ActivityService
type MockActivityService struct {
	ListRecentFunc     func(ctx context.Context, limit int) ([]*dto.ActivityResponse, error)
	ClearOlderThanFunc func(ctx context.Context, hours int) (int64, error)
	EvictOlderThanFunc func(ctx context.Context, age time.Duration) (int64, error)
	ClearAllFunc       func(ctx context.Context) (int64, error)
	SweepExpiredFunc   func(ctx context.Context) (int64, error)
	StatsFunc          func(ctx context.Context) (*dto.ActivityStats, error)
}

func (m *MockActivityService) ListRecent(ctx context.Context, limit int) ([]*dto.ActivityResponse, error) {
	if m.ListRecentFunc != nil {
		return m.ListRecentFunc(ctx, limit)
	}
	return nil, nil
}

func (m *MockActivityService) ClearOlderThan(ctx context.Context, hours int) (int64, error) {
	if m.ClearOlderThanFunc != nil {
		return m.ClearOlderThanFunc(ctx, hours)
	}
	return 0, nil
}

func (m *MockActivityService) EvictOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	if m.EvictOlderThanFunc != nil {
		return m.EvictOlderThanFunc(ctx, age)
	}
	return 0, nil
}

func (m *MockActivityService) ClearAll(ctx context.Context) (int64, error) {
	if m.ClearAllFunc != nil {
		return m.ClearAllFunc(ctx)
	}
	return 0, nil
}

func (m *MockActivityService) SweepExpired(ctx context.Context) (int64, error) {
	if m.SweepExpiredFunc != nil {
		return m.SweepExpiredFunc(ctx)
	}
	return 0, nil
}

func (m *MockActivityService) Stats(ctx context.Context) (*dto.ActivityStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &dto.ActivityStats{}, nil
}

// MockLogService is a mock implementation of LogService
type MockLogService struct {
	ListFunc          func(ctx context.Context, limit, offset int) ([]*domain.Log, error)
	ListByStudentFunc func(ctx context.Context, studentID string, limit int) ([]*domain.Log, error)
	RecentFunc        func(ctx context.Context, hours int) ([]*domain.Log, error)
	TodayStatsFunc    func(ctx context.Context) (*dto.DailyStats, error)
	StatsByDateFunc   func(ctx context.Context, date string) (*dto.DailyStats, error)
	ClearOldFunc      func(ctx context.Context, days int) (int64, error)
}

func (m *MockLogService) List(ctx context.Context, limit, offset int) ([]*domain.Log, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *MockLogService) ListByStudent(ctx context.Context, studentID string, limit int) ([]*domain.Log, error) {
	if m.ListByStudentFunc != nil {
		return m.ListByStudentFunc(ctx, studentID, limit)
	}
	return nil, nil
}

func (m *MockLogService) Recent(ctx context.Context, hours int) ([]*domain.Log, error) {
	if m.RecentFunc != nil {
		return m.RecentFunc(ctx, hours)
	}
	return nil, nil
}

func (m *MockLogService) TodayStats(ctx context.Context) (*dto.DailyStats, error) {
	if m.TodayStatsFunc != nil {
		return m.TodayStatsFunc(ctx)
	}
	return &dto.DailyStats{}, nil
}

func (m *MockLogService) StatsByDate(ctx context.Context, date string) (*dto.DailyStats, error) {
	if m.StatsByDateFunc != nil {
		return m.StatsByDateFunc(ctx, date)
	}
	return &dto.DailyStats{}, nil
}

func (m *MockLogService) ClearOld(ctx context.Context, days int) (int64, error) {
	if m.ClearOldFunc != nil {
		return m.ClearOldFunc(ctx, days)
	}
	return 0, nil
}

// MockCleanupScheduler is a mock implementation of CleanupScheduler
type MockCleanupScheduler struct {
	RunDailyCleanupFunc  func(ctx context.Context) (int64, error)
	RunWeeklyCleanupFunc func(ctx context.Context) (int64, error)
	StatusFunc           func() *dto.SchedulerStatus
}

func (m *MockCleanupScheduler) RunDailyCleanup(ctx context.Context) (int64, error) {
	if m.RunDailyCleanupFunc != nil {
		return m.RunDailyCleanupFunc(ctx)
	}
	return 0, nil
}

func (m *MockCleanupScheduler) RunWeeklyCleanup(ctx context.Context) (int64, error) {
	if m.RunWeeklyCleanupFunc != nil {
		return m.RunWeeklyCleanupFunc(ctx)
	}
	return 0, nil
}

func (m *MockCleanupScheduler) Status() *dto.SchedulerStatus {
	if m.StatusFunc != nil {
		return m.StatusFunc()
	}
	return &dto.SchedulerStatus{}
}
