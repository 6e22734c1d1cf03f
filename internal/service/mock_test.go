package service

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"student-inout-api/internal/broadcast"
	"student-inout-api/internal/domain"
	"student-inout-api/internal/repository"
)

// MockActivityRepository is a mock implementation of ActivityRepository that
// never joins a database transaction
type MockActivityRepository struct {
	CreateFunc          func(ctx context.Context, activity *domain.Activity) error
	ListRecentFunc      func(ctx context.Context, now time.Time, limit int) ([]*domain.Activity, error)
	CountSinceFunc      func(ctx context.Context, now, since time.Time) (repository.ActivityCounts, error)
	DeleteOlderThanFunc func(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteExpiredFunc   func(ctx context.Context, now time.Time) (int64, error)
	DeleteAllFunc       func(ctx context.Context) (int64, error)
}

func (m *MockActivityRepository) WithTx(tx *gorm.DB) (repository.ActivityRepository, bool) {
	return m, false
}

func (m *MockActivityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, activity)
	}
	return nil
}

func (m *MockActivityRepository) ListRecent(ctx context.Context, now time.Time, limit int) ([]*domain.Activity, error) {
	if m.ListRecentFunc != nil {
		return m.ListRecentFunc(ctx, now, limit)
	}
	return nil, nil
}

func (m *MockActivityRepository) CountSince(ctx context.Context, now, since time.Time) (repository.ActivityCounts, error) {
	if m.CountSinceFunc != nil {
		return m.CountSinceFunc(ctx, now, since)
	}
	return repository.ActivityCounts{}, nil
}

func (m *MockActivityRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.DeleteOlderThanFunc != nil {
		return m.DeleteOlderThanFunc(ctx, cutoff)
	}
	return 0, nil
}

func (m *MockActivityRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx, now)
	}
	return 0, nil
}

func (m *MockActivityRepository) DeleteAll(ctx context.Context) (int64, error) {
	if m.DeleteAllFunc != nil {
		return m.DeleteAllFunc(ctx)
	}
	return 0, nil
}

// recordingNotifier captures every event it is handed
type recordingNotifier struct {
	mu     sync.Mutex
	events []broadcast.Event
}

func (n *recordingNotifier) Notify(ctx context.Context, ev broadcast.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) Events() []broadcast.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]broadcast.Event(nil), n.events...)
}

// fakeClock is a settable time source
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
