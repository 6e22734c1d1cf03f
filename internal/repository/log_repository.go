package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"student-inout-api/internal/domain"
)

// LogRepository is the durable audit log. Entries are never updated.
type LogRepository interface {
	WithTx(tx *gorm.DB) LogRepository
	Create(ctx context.Context, entry *domain.Log) error
	List(ctx context.Context, limit, offset int) ([]*domain.Log, error)
	FindByStudentID(ctx context.Context, studentID string, limit int) ([]*domain.Log, error)
	FindSince(ctx context.Context, since time.Time) ([]*domain.Log, error)
	// LatestTransition returns the newest entry produced by a toggle
	LatestTransition(ctx context.Context, studentID string) (*domain.Log, error)
	CountByActionBetween(ctx context.Context, from, to time.Time) (map[domain.Status]int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type logRepositoryImpl struct {
	db *gorm.DB
}

// NewLogRepository creates a new instance of LogRepository
func NewLogRepository(db *gorm.DB) LogRepository {
	return &logRepositoryImpl{db: db}
}

func (r *logRepositoryImpl) WithTx(tx *gorm.DB) LogRepository {
	return &logRepositoryImpl{db: tx}
}

func (r *logRepositoryImpl) Create(ctx context.Context, entry *domain.Log) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *logRepositoryImpl) newestFirst(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Order("timestamp DESC").Order("version DESC")
}

func (r *logRepositoryImpl) List(ctx context.Context, limit, offset int) ([]*domain.Log, error) {
	var logs []*domain.Log
	if err := r.newestFirst(ctx).Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *logRepositoryImpl) FindByStudentID(ctx context.Context, studentID string, limit int) ([]*domain.Log, error) {
	var logs []*domain.Log
	if err := r.newestFirst(ctx).
		Where("student_id = ?", studentID).
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *logRepositoryImpl) FindSince(ctx context.Context, since time.Time) ([]*domain.Log, error) {
	var logs []*domain.Log
	if err := r.newestFirst(ctx).Where("timestamp >= ?", since).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *logRepositoryImpl) LatestTransition(ctx context.Context, studentID string) (*domain.Log, error) {
	var entry domain.Log
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND version > 0", studentID).
		Order("version DESC").
		First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *logRepositoryImpl) CountByActionBetween(ctx context.Context, from, to time.Time) (map[domain.Status]int64, error) {
	var rows []struct {
		Action domain.Status
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&domain.Log{}).
		Select("action, COUNT(*) AS count").
		Where("timestamp >= ? AND timestamp < ?", from, to).
		Group("action").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := map[domain.Status]int64{domain.StatusIn: 0, domain.StatusOut: 0}
	for _, row := range rows {
		counts[row.Action] = row.Count
	}
	return counts, nil
}

func (r *logRepositoryImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&domain.Log{})
	return result.RowsAffected, result.Error
}
