package dto

import (
	"time"

	"student-inout-api/internal/domain"
)

// RegisterStudentRequest creates a presence record in state out
type RegisterStudentRequest struct {
	StudentID  string `json:"student_id" binding:"required,max=50"`
	Name       string `json:"name" binding:"required,max=255"`
	Department string `json:"department" binding:"max=255"`
	PhotoKey   string `json:"photo_key" binding:"max=1024"`
}

// StudentResponse is the display view of a student
type StudentResponse struct {
	StudentID  string        `json:"student_id"`
	Name       string        `json:"name"`
	Department string        `json:"department"`
	PhotoURL   string        `json:"photo_url,omitempty"`
	Status     domain.Status `json:"status"`
	Version    int64         `json:"version"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// NewStudentResponse maps a student; photoURL is resolved by the caller
func NewStudentResponse(s *domain.Student, photoURL string) *StudentResponse {
	return &StudentResponse{
		StudentID:  s.StudentID,
		Name:       s.Name,
		Department: s.Department,
		PhotoURL:   photoURL,
		Status:     s.Status,
		Version:    s.Version,
		UpdatedAt:  s.UpdatedAt,
	}
}

// ToggleResult is the outcome of one presence transition
type ToggleResult struct {
	Student        *StudentResponse `json:"student"`
	Log            *domain.Log      `json:"log"`
	PreviousStatus domain.Status    `json:"previous_status"`
	Message        string           `json:"message"`
	// PartialWrite is true when the audit entry committed but the feed entry
	// could not be written
	PartialWrite bool `json:"partial_write,omitempty"`
}

// PresenceSummary counts students by state
type PresenceSummary struct {
	In    int64 `json:"in"`
	Out   int64 `json:"out"`
	Total int64 `json:"total"`
}
