package job

import (
	"context"
	"sync"
	"time"

	"student-inout-api/internal/dto"
)

// Job names as reported by status and metrics
const (
	DailyCleanup   = "daily-activity-cleanup"
	WeeklyCleanup  = "weekly-activity-cleanup"
	TTLSweep       = "activity-ttl-sweep"
	AuditRetention = "audit-retention"
)

// FeedEvictor is the feed surface the cleanup jobs need
type FeedEvictor interface {
	ClearAll(ctx context.Context) (int64, error)
	EvictOlderThan(ctx context.Context, age time.Duration) (int64, error)
	SweepExpired(ctx context.Context) (int64, error)
}

// AuditPurger removes audit entries older than a number of days
type AuditPurger interface {
	ClearOld(ctx context.Context, days int) (int64, error)
}

// CleanupJob is one named eviction task and its run history. It implements
// cron.Job through its scheduler.
type CleanupJob struct {
	name string
	spec string
	// feed jobs report evictions to the feed metrics
	feed bool
	run  func(ctx context.Context) (int64, error)

	scheduler *Scheduler

	mu          sync.Mutex
	scheduled   bool
	running     int
	lastRun     time.Time
	lastDeleted int64
	lastErr     string
	runs        int64
	failures    int64
}

func newCleanupJob(name, spec string, feed bool, run func(ctx context.Context) (int64, error)) *CleanupJob {
	return &CleanupJob{name: name, spec: spec, feed: feed, run: run}
}

// Run is invoked by cron
func (j *CleanupJob) Run() {
	_, _ = j.scheduler.execute(context.Background(), j)
}

func (j *CleanupJob) begin(at time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.running++
	j.lastRun = at
}

func (j *CleanupJob) finish(deleted int64, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.running--
	j.runs++
	j.lastDeleted = deleted
	if err != nil {
		j.failures++
		j.lastErr = err.Error()
		return
	}
	j.lastErr = ""
}

func (j *CleanupJob) status(next time.Time) dto.JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()

	st := dto.JobStatus{
		Name:        j.name,
		Spec:        j.spec,
		Scheduled:   j.scheduled,
		Running:     j.running > 0,
		LastDeleted: j.lastDeleted,
		LastError:   j.lastErr,
		Runs:        j.runs,
		Failures:    j.failures,
	}
	if !j.lastRun.IsZero() {
		last := j.lastRun
		st.LastRun = &last
	}
	if !next.IsZero() {
		st.NextRun = &next
	}
	return st
}
