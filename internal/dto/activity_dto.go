package dto

import (
	"time"

	"github.com/google/uuid"

	"student-inout-api/internal/domain"
)

// AddActivityRequest records a feed entry from a kiosk snapshot
type AddActivityRequest struct {
	StudentID string                  `json:"student_id" binding:"required"`
	Student   *domain.StudentSnapshot `json:"student" binding:"required"`
	Action    domain.Status           `json:"action" binding:"required,oneof=in out"`
}

// ActivityResponse is one feed entry as shown on displays
type ActivityResponse struct {
	ID        uuid.UUID              `json:"id"`
	StudentID string                 `json:"student_id"`
	Student   domain.StudentSnapshot `json:"student"`
	Action    domain.Status          `json:"action"`
	Timestamp time.Time              `json:"timestamp"`
	ExpiresAt time.Time              `json:"expires_at"`
}

// NewActivityResponse decodes the stored snapshot
func NewActivityResponse(a *domain.Activity) (*ActivityResponse, error) {
	snap, err := a.Snapshot()
	if err != nil {
		return nil, err
	}
	return &ActivityResponse{
		ID:        a.ID,
		StudentID: a.StudentID,
		Student:   snap,
		Action:    a.Action,
		Timestamp: a.Timestamp,
		ExpiresAt: a.ExpiresAt,
	}, nil
}

// ActivityAddResult reports the entry written by AddActivity
type ActivityAddResult struct {
	Activity     *ActivityResponse `json:"activity"`
	PartialWrite bool              `json:"partial_write,omitempty"`
}

// ClearOldRequest is the body of DELETE /activities/clear-old. A missing
// hours field means the default window.
type ClearOldRequest struct {
	Hours *int `json:"hours"`
}

// DeletedCount is returned by every eviction operation
type DeletedCount struct {
	DeletedCount int64 `json:"deleted_count"`
}

// ActivityStats summarizes the live feed
type ActivityStats struct {
	TodayCheckIns  int64 `json:"today_check_ins"`
	TodayCheckOuts int64 `json:"today_check_outs"`
	TodayTotal     int64 `json:"today_total"`
	FeedSize       int64 `json:"feed_size"`
}
