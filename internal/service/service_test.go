package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"student-inout-api/internal/domain"
	"student-inout-api/internal/repository"
)

const testFeedTTL = 24 * time.Hour

var testStart = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	db       *gorm.DB
	repos    Repositories
	notifier *recordingNotifier
	clock    *fakeClock
	presence *presenceServiceImpl
	activity *activityServiceImpl
	logs     *logServiceImpl
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc:        domain.Now,
		TranslateError: true,
	})
	require.NoError(t, err, "failed to open database")

	// every pooled connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.AutoMigrate(&domain.Student{}, &domain.Log{}, &domain.Activity{}))
	return db
}

// newTestEnv wires the services over sqlite. activities replaces the
// database-backed feed when non-nil.
func newTestEnv(t *testing.T, activities repository.ActivityRepository) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	if activities == nil {
		activities = repository.NewActivityRepository(db)
	}
	repos := Repositories{
		Students:   repository.NewStudentRepository(db),
		Logs:       repository.NewLogRepository(db),
		Activities: activities,
	}
	notifier := &recordingNotifier{}
	clock := newFakeClock(testStart)
	logger := zap.NewNop()

	presence := NewPresenceService(db, repos, nil, notifier, nil, logger, testFeedTTL).(*presenceServiceImpl)
	presence.now = clock.Now

	activity := NewActivityService(activities, notifier, logger, time.UTC).(*activityServiceImpl)
	activity.now = clock.Now

	logs := NewLogService(repos.Logs, logger, time.UTC).(*logServiceImpl)
	logs.now = clock.Now

	return &testEnv{
		db:       db,
		repos:    repos,
		notifier: notifier,
		clock:    clock,
		presence: presence,
		activity: activity,
		logs:     logs,
	}
}

func (e *testEnv) seedStudent(t *testing.T, id string) *domain.Student {
	t.Helper()
	s := &domain.Student{
		StudentID:  id,
		Name:       "Student " + id,
		Department: "Computer Science",
		Status:     domain.StatusOut,
	}
	require.NoError(t, e.repos.Students.Create(context.Background(), s))
	return s
}
