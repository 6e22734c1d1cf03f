package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"student-inout-api/internal/broadcast"
	"student-inout-api/internal/client"
	"student-inout-api/internal/domain"
	"student-inout-api/internal/dto"
	"student-inout-api/internal/metrics"
	"student-inout-api/internal/repository"
	"student-inout-api/internal/response"
)

const maxToggleAttempts = 3

// PresenceService is the only writer of presence state and its logs
type PresenceService interface {
	Toggle(ctx context.Context, studentID string) (*dto.ToggleResult, error)
	AddActivity(ctx context.Context, req *dto.AddActivityRequest) (*dto.ActivityAddResult, error)
	RegisterStudent(ctx context.Context, req *dto.RegisterStudentRequest) (*dto.StudentResponse, error)
	GetStudent(ctx context.Context, studentID string) (*dto.StudentResponse, error)
	ListByStatus(ctx context.Context, status string) ([]*dto.StudentResponse, error)
	Summary(ctx context.Context) (*dto.PresenceSummary, error)
	// Reconcile repairs presence records that disagree with their latest
	// audit transition and returns how many were changed
	Reconcile(ctx context.Context) (int, error)
}

// Repositories groups the stores a PresenceService writes to
type Repositories struct {
	Students   repository.StudentRepository
	Logs       repository.LogRepository
	Activities repository.ActivityRepository
}

type presenceServiceImpl struct {
	db       *gorm.DB
	repos    Repositories
	photos   client.PhotoResolver
	notifier broadcast.Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
	feedTTL  time.Duration
	locks    *keyedMutex
	now      func() time.Time
}

// NewPresenceService creates a new instance of PresenceService. photos may be
// nil when no object storage is configured.
func NewPresenceService(
	db *gorm.DB,
	repos Repositories,
	photos client.PhotoResolver,
	notifier broadcast.Notifier,
	m *metrics.Metrics,
	logger *zap.Logger,
	feedTTL time.Duration,
) PresenceService {
	if notifier == nil {
		notifier = broadcast.NopNotifier{}
	}
	return &presenceServiceImpl{
		db:       db,
		repos:    repos,
		photos:   photos,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		feedTTL:  feedTTL,
		locks:    newKeyedMutex(),
		now:      domain.Now,
	}
}

func transitionMessage(next domain.Status) string {
	if next == domain.StatusIn {
		return "Student checked in successfully"
	}
	return "Student checked out successfully"
}

// Toggle flips a student's presence. The audit entry and the presence update
// commit together; the feed entry joins the same transaction when the feed
// backend allows it.
func (s *presenceServiceImpl) Toggle(ctx context.Context, rawID string) (*dto.ToggleResult, error) {
	id := domain.NormalizeStudentID(rawID)
	if id == "" {
		return nil, response.NewValidationError("Student ID is required", "")
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	var (
		student  *domain.Student
		entry    *domain.Log
		activity *domain.Activity
		previous domain.Status
		feedInTx bool
	)

	attempt := 1
	for ; attempt <= maxToggleAttempts; attempt++ {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			students := s.repos.Students.WithTx(tx)

			current, err := students.FindByStudentIDForUpdate(ctx, id)
			if err != nil {
				return err
			}

			now := s.now()
			next := current.Status.Opposite()

			entry = &domain.Log{
				StudentID:   current.StudentID,
				StudentName: current.Name,
				Department:  current.Department,
				Action:      next,
				Timestamp:   now,
				Version:     current.Version + 1,
			}
			if err := s.repos.Logs.WithTx(tx).Create(ctx, entry); err != nil {
				return fmt.Errorf("failed to write audit entry: %w", err)
			}

			ok, err := students.UpdateStatusIfVersion(ctx, id, current.Version, next, now)
			if err != nil {
				return fmt.Errorf("failed to update presence: %w", err)
			}
			if !ok {
				return errVersionConflict
			}

			activity, err = domain.NewActivity(current.Snapshot(), next, now, s.feedTTL)
			if err != nil {
				return err
			}
			if feed, joined := s.repos.Activities.WithTx(tx); joined {
				if err := feed.Create(ctx, activity); err != nil {
					return fmt.Errorf("failed to write feed entry: %w", err)
				}
				feedInTx = true
			}

			previous = current.Status
			current.Status = next
			current.Version++
			current.UpdatedAt = now
			student = current
			return nil
		})
		if err == nil {
			break
		}
		if errors.Is(err, errVersionConflict) {
			s.logger.Debug("Toggle lost version race, retrying",
				zap.String("student_id", id),
				zap.Int("attempt", attempt),
			)
			continue
		}
		return nil, mapStudentError(err, "Failed to toggle student status")
	}
	if attempt > maxToggleAttempts {
		return nil, response.NewAppError(response.ErrCodeConflict, "Student status changed concurrently, please retry", id)
	}

	partial := false
	if !feedInTx {
		partial = !s.writeFeed(ctx, activity, entry)
	}

	s.metrics.RecordTransition(string(student.Status))
	s.notifier.Notify(ctx, broadcast.Event{
		Type:      broadcast.EventPresenceChanged,
		StudentID: id,
		Status:    string(student.Status),
		Action:    string(entry.Action),
		Timestamp: entry.Timestamp,
	})

	s.logger.Info("Student status toggled",
		zap.String("student_id", id),
		zap.String("from", string(previous)),
		zap.String("to", string(student.Status)),
		zap.Int64("version", student.Version),
	)

	return &dto.ToggleResult{
		Student:        dto.NewStudentResponse(student, s.photoURL(ctx, student.PhotoKey)),
		Log:            entry,
		PreviousStatus: previous,
		Message:        transitionMessage(student.Status),
		PartialWrite:   partial,
	}, nil
}

// writeFeed stores a feed entry outside the audit transaction. It retries
// once and reports whether the entry was stored.
func (s *presenceServiceImpl) writeFeed(ctx context.Context, activity *domain.Activity, entry *domain.Log) bool {
	err := s.repos.Activities.Create(ctx, activity)
	if err == nil {
		return true
	}
	s.logger.Warn("Feed write failed, retrying once", zap.String("student_id", activity.StudentID), zap.Error(err))

	if err = s.repos.Activities.Create(ctx, activity); err == nil {
		return true
	}

	s.metrics.RecordPartialWrite()
	s.logger.Error("PARTIAL_WRITE: audit entry committed without feed entry",
		zap.String("code", response.ErrCodePartialWrite),
		zap.String("student_id", activity.StudentID),
		zap.String("log_id", entry.ID.String()),
		zap.String("action", string(activity.Action)),
		zap.Time("timestamp", activity.Timestamp),
		zap.Error(err),
	)
	return false
}

// AddActivity records a kiosk-reported transition in the audit log and the
// feed without touching presence state
func (s *presenceServiceImpl) AddActivity(ctx context.Context, req *dto.AddActivityRequest) (*dto.ActivityAddResult, error) {
	if req == nil || req.Student == nil {
		return nil, response.NewValidationError("Student ID, student data, and action are required", "")
	}
	id := domain.NormalizeStudentID(req.StudentID)
	if id == "" {
		return nil, response.NewValidationError("Student ID, student data, and action are required", "")
	}
	if !req.Action.Valid() {
		return nil, response.NewValidationError(`Action must be either "in" or "out"`, string(req.Action))
	}

	snap := *req.Student
	snap.StudentID = id
	now := s.now()

	entry := &domain.Log{
		StudentID:   id,
		StudentName: snap.Name,
		Department:  snap.Department,
		Action:      req.Action,
		Timestamp:   now,
	}
	activity, err := domain.NewActivity(snap, req.Action, now, s.feedTTL)
	if err != nil {
		return nil, response.NewValidationError("Invalid student data", err.Error())
	}

	feedInTx := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repos.Logs.WithTx(tx).Create(ctx, entry); err != nil {
			return fmt.Errorf("failed to write audit entry: %w", err)
		}
		if feed, joined := s.repos.Activities.WithTx(tx); joined {
			if err := feed.Create(ctx, activity); err != nil {
				return fmt.Errorf("failed to write feed entry: %w", err)
			}
			feedInTx = true
		}
		return nil
	})
	if err != nil {
		return nil, internalError("Failed to record activity", err)
	}

	partial := false
	if !feedInTx {
		partial = !s.writeFeed(ctx, activity, entry)
	}

	s.notifier.Notify(ctx, broadcast.Event{
		Type:      broadcast.EventActivityAdded,
		StudentID: id,
		Action:    string(req.Action),
		Timestamp: now,
	})

	resp, err := dto.NewActivityResponse(activity)
	if err != nil {
		return nil, internalError("Failed to encode activity", err)
	}
	return &dto.ActivityAddResult{Activity: resp, PartialWrite: partial}, nil
}

func (s *presenceServiceImpl) RegisterStudent(ctx context.Context, req *dto.RegisterStudentRequest) (*dto.StudentResponse, error) {
	id := domain.NormalizeStudentID(req.StudentID)
	name := strings.TrimSpace(req.Name)
	if id == "" || name == "" {
		return nil, response.NewValidationError("Student ID and name are required", "")
	}

	_, err := s.repos.Students.FindByStudentID(ctx, id)
	if err == nil {
		return nil, response.NewAppError(response.ErrCodeAlreadyExists, "Student already exists", id)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, internalError("Failed to check student", err)
	}

	student := &domain.Student{
		StudentID:  id,
		Name:       name,
		Department: strings.TrimSpace(req.Department),
		PhotoKey:   strings.TrimSpace(req.PhotoKey),
		Status:     domain.StatusOut,
	}
	if err := s.repos.Students.Create(ctx, student); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, response.NewAppError(response.ErrCodeAlreadyExists, "Student already exists", id)
		}
		return nil, internalError("Failed to register student", err)
	}

	s.logger.Info("Student registered", zap.String("student_id", id))
	return dto.NewStudentResponse(student, s.photoURL(ctx, student.PhotoKey)), nil
}

func (s *presenceServiceImpl) GetStudent(ctx context.Context, rawID string) (*dto.StudentResponse, error) {
	id := domain.NormalizeStudentID(rawID)
	if id == "" {
		return nil, response.NewValidationError("Student ID is required", "")
	}

	student, err := s.repos.Students.FindByStudentID(ctx, id)
	if err != nil {
		return nil, mapStudentError(err, "Failed to fetch student")
	}
	return dto.NewStudentResponse(student, s.photoURL(ctx, student.PhotoKey)), nil
}

func (s *presenceServiceImpl) ListByStatus(ctx context.Context, status string) ([]*dto.StudentResponse, error) {
	st := domain.Status(strings.ToLower(status))
	if !st.Valid() {
		return nil, response.NewValidationError(`Status must be either "in" or "out"`, status)
	}

	students, err := s.repos.Students.FindByStatus(ctx, st)
	if err != nil {
		return nil, internalError("Failed to fetch students", err)
	}

	out := make([]*dto.StudentResponse, 0, len(students))
	for _, student := range students {
		out = append(out, dto.NewStudentResponse(student, s.photoURL(ctx, student.PhotoKey)))
	}
	return out, nil
}

func (s *presenceServiceImpl) Summary(ctx context.Context) (*dto.PresenceSummary, error) {
	counts, err := s.repos.Students.CountByStatus(ctx)
	if err != nil {
		return nil, internalError("Failed to count students", err)
	}
	in, out := counts[domain.StatusIn], counts[domain.StatusOut]
	return &dto.PresenceSummary{In: in, Out: out, Total: in + out}, nil
}

func (s *presenceServiceImpl) Reconcile(ctx context.Context) (int, error) {
	students, err := s.repos.Students.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load students: %w", err)
	}

	repaired := 0
	for _, student := range students {
		unlock := s.locks.Lock(student.StudentID)
		latest, err := s.repos.Logs.LatestTransition(ctx, student.StudentID)
		if err != nil {
			unlock()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return repaired, fmt.Errorf("failed to load audit history for %s: %w", student.StudentID, err)
		}

		if latest.Action != student.Status {
			err = s.repos.Students.SetStatus(ctx, student.StudentID, latest.Action)
			unlock()
			if err != nil {
				return repaired, fmt.Errorf("failed to repair %s: %w", student.StudentID, err)
			}
			repaired++
			s.logger.Warn("Presence repaired from audit log",
				zap.String("student_id", student.StudentID),
				zap.String("was", string(student.Status)),
				zap.String("now", string(latest.Action)),
				zap.Int64("audit_version", latest.Version),
			)
			continue
		}
		unlock()
	}
	return repaired, nil
}

// photoURL resolves a photo key, degrading to no URL on failure
func (s *presenceServiceImpl) photoURL(ctx context.Context, key string) string {
	if s.photos == nil || key == "" {
		return ""
	}
	url, err := s.photos.PhotoURL(ctx, key)
	if err != nil {
		s.logger.Warn("Failed to resolve photo URL", zap.String("photo_key", key), zap.Error(err))
		return ""
	}
	return url
}
