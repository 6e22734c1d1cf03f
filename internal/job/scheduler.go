package job

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"student-inout-api/internal/config"
	"student-inout-api/internal/dto"
	"student-inout-api/internal/metrics"
	"student-inout-api/internal/response"
)

// Scheduler runs the feed and audit cleanup jobs on cron schedules and
// exposes manual triggers for the operator endpoints.
type Scheduler struct {
	cron    *cron.Cron
	loc     *time.Location
	enabled bool
	timeout time.Duration
	jobs    []*CleanupJob
	byName  map[string]*CleanupJob
	entries map[string]cron.EntryID
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	started bool
	stopped bool
	// inflight tracks every run, scheduled or manual
	inflight sync.WaitGroup
}

// NewScheduler registers the cleanup jobs. audit may be nil when audit
// retention is disabled.
func NewScheduler(
	cfg config.SchedulerConfig,
	feedCfg config.FeedConfig,
	auditCfg config.AuditConfig,
	feed FeedEvictor,
	audit AuditPurger,
	logger *zap.Logger,
	m *metrics.Metrics,
) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone %q: %w", cfg.Timezone, err)
	}

	cronLogger := newCronLogger(logger)
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		loc:     loc,
		enabled: cfg.Enabled,
		timeout: cfg.JobTimeout,
		byName:  make(map[string]*CleanupJob),
		entries: make(map[string]cron.EntryID),
		logger:  logger,
		metrics: m,
	}

	weeklyAge := feedCfg.WeeklySweepAge()
	s.add(newCleanupJob(DailyCleanup, cfg.DailySpec, true, feed.ClearAll))
	s.add(newCleanupJob(WeeklyCleanup, cfg.WeeklySpec, true, func(ctx context.Context) (int64, error) {
		return feed.EvictOlderThan(ctx, weeklyAge)
	}))
	s.add(newCleanupJob(TTLSweep, cfg.TTLSweepSpec, true, feed.SweepExpired))
	if audit != nil && auditCfg.RetentionDays > 0 {
		days := auditCfg.RetentionDays
		s.add(newCleanupJob(AuditRetention, cfg.AuditSpec, false, func(ctx context.Context) (int64, error) {
			return audit.ClearOld(ctx, days)
		}))
	}

	if !cfg.Enabled {
		return s, nil
	}
	for _, j := range s.jobs {
		if j.spec == "" {
			continue
		}
		id, err := s.cron.AddJob(j.spec, j)
		if err != nil {
			return nil, fmt.Errorf("invalid schedule %q for job %s: %w", j.spec, j.name, err)
		}
		s.entries[j.name] = id
		j.scheduled = true
	}
	return s, nil
}

func (s *Scheduler) add(j *CleanupJob) {
	j.scheduler = s
	s.jobs = append(s.jobs, j)
	s.byName[j.name] = j
}

// Start begins firing scheduled jobs. It is a no-op when scheduling is
// disabled or after StopAll.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled || s.started || s.stopped {
		return
	}
	s.cron.Start()
	s.started = true

	names := make([]string, 0, len(s.entries))
	for _, j := range s.jobs {
		if j.scheduled {
			names = append(names, j.name)
		}
	}
	s.logger.Info("Cleanup scheduler started",
		zap.String("timezone", s.loc.String()),
		zap.Strings("jobs", names),
	)
}

// RunDailyCleanup runs the daily wipe now and returns how many feed entries
// were removed
func (s *Scheduler) RunDailyCleanup(ctx context.Context) (int64, error) {
	return s.execute(ctx, s.byName[DailyCleanup])
}

// RunWeeklyCleanup runs the weekly age sweep now
func (s *Scheduler) RunWeeklyCleanup(ctx context.Context) (int64, error) {
	return s.execute(ctx, s.byName[WeeklyCleanup])
}

func (s *Scheduler) execute(ctx context.Context, j *CleanupJob) (int64, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return 0, response.NewAppError(response.ErrCodeSchedulerStopped, "Cleanup scheduler has been stopped", j.name)
	}
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	j.begin(start.UTC())
	deleted, err := j.run(ctx)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = response.NewAppError(response.ErrCodeTimeout, "Cleanup job timed out", j.name)
	}
	j.finish(deleted, err)

	if err != nil {
		s.metrics.RecordCleanupFailure(j.name)
		s.logger.Error("Cleanup job failed",
			zap.String("job", j.name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return deleted, err
	}

	if j.feed {
		s.metrics.RecordFeedEviction(j.name, deleted)
	}
	s.logger.Info("Cleanup job completed",
		zap.String("job", j.name),
		zap.Int64("deleted", deleted),
		zap.Duration("duration", time.Since(start)),
	)
	return deleted, nil
}

// Status reports every registered job
func (s *Scheduler) Status() *dto.SchedulerStatus {
	s.mu.Lock()
	running := s.started && !s.stopped
	s.mu.Unlock()

	out := &dto.SchedulerStatus{
		Running:  running,
		Timezone: s.loc.String(),
		Jobs:     make([]dto.JobStatus, 0, len(s.jobs)),
	}
	for _, j := range s.jobs {
		var next time.Time
		if id, ok := s.entries[j.name]; ok && running {
			next = s.cron.Entry(id).Next
		}
		out.Jobs = append(out.Jobs, j.status(next))
	}
	return out
}

// StopAll stops scheduling, refuses further manual runs, and waits for
// in-flight runs until ctx is done. Later calls only wait.
func (s *Scheduler) StopAll(ctx context.Context) error {
	s.mu.Lock()
	first := !s.stopped
	s.stopped = true
	wasStarted := s.started
	s.mu.Unlock()

	if first && wasStarted {
		// running cron jobs are tracked by inflight
		s.cron.Stop()
	}

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Cleanup scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Cleanup scheduler stop timed out with jobs still running")
		return ctx.Err()
	}
}
