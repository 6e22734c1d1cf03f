package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"student-inout-api/internal/domain"
)

// StudentRepository is the presence store
type StudentRepository interface {
	// WithTx binds the repository to an open transaction
	WithTx(tx *gorm.DB) StudentRepository
	Create(ctx context.Context, student *domain.Student) error
	FindByStudentID(ctx context.Context, studentID string) (*domain.Student, error)
	// FindByStudentIDForUpdate locks the row until the surrounding transaction ends
	FindByStudentIDForUpdate(ctx context.Context, studentID string) (*domain.Student, error)
	// UpdateStatusIfVersion moves the student to status only when its version
	// still equals expected. It reports whether the row changed.
	UpdateStatusIfVersion(ctx context.Context, studentID string, expected int64, status domain.Status, at time.Time) (bool, error)
	// SetStatus overwrites status without touching version
	SetStatus(ctx context.Context, studentID string, status domain.Status) error
	FindByStatus(ctx context.Context, status domain.Status) ([]*domain.Student, error)
	FindAll(ctx context.Context) ([]*domain.Student, error)
	CountByStatus(ctx context.Context) (map[domain.Status]int64, error)
}

type studentRepositoryImpl struct {
	db *gorm.DB
}

// NewStudentRepository creates a new instance of StudentRepository
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepositoryImpl{db: db}
}

func (r *studentRepositoryImpl) WithTx(tx *gorm.DB) StudentRepository {
	return &studentRepositoryImpl{db: tx}
}

func (r *studentRepositoryImpl) Create(ctx context.Context, student *domain.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepositoryImpl) FindByStudentID(ctx context.Context, studentID string) (*domain.Student, error) {
	var student domain.Student
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		First(&student).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepositoryImpl) FindByStudentIDForUpdate(ctx context.Context, studentID string) (*domain.Student, error) {
	var student domain.Student
	// sqlite ignores the locking clause; its writer lock serializes instead
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("student_id = ?", studentID).
		First(&student).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepositoryImpl) UpdateStatusIfVersion(ctx context.Context, studentID string, expected int64, status domain.Status, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Student{}).
		Where("student_id = ? AND version = ?", studentID, expected).
		Updates(map[string]interface{}{
			"status":     status,
			"version":    expected + 1,
			"updated_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *studentRepositoryImpl) SetStatus(ctx context.Context, studentID string, status domain.Status) error {
	return r.db.WithContext(ctx).
		Model(&domain.Student{}).
		Where("student_id = ?", studentID).
		Update("status", status).Error
}

func (r *studentRepositoryImpl) FindByStatus(ctx context.Context, status domain.Status) ([]*domain.Student, error) {
	var students []*domain.Student
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("student_id ASC").
		Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (r *studentRepositoryImpl) FindAll(ctx context.Context) ([]*domain.Student, error) {
	var students []*domain.Student
	if err := r.db.WithContext(ctx).Order("student_id ASC").Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (r *studentRepositoryImpl) CountByStatus(ctx context.Context) (map[domain.Status]int64, error) {
	var rows []struct {
		Status domain.Status
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&domain.Student{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := map[domain.Status]int64{domain.StatusIn: 0, domain.StatusOut: 0}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
