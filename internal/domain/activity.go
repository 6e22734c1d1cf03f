package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StudentSnapshot is the display copy of a student embedded in feed entries
type StudentSnapshot struct {
	StudentID  string `json:"student_id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	PhotoKey   string `json:"photo_key,omitempty"`
}

// Activity is an ephemeral feed entry shown on display screens
type Activity struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID string         `gorm:"type:varchar(50);not null;index:idx_activities_student_id" json:"student_id"`
	Student   datatypes.JSON `gorm:"type:jsonb" json:"student"`
	Action    Status         `gorm:"type:varchar(3);not null" json:"action"`
	Timestamp time.Time      `gorm:"not null;index:idx_activities_timestamp" json:"timestamp"`
	ExpiresAt time.Time      `gorm:"not null;index:idx_activities_expires_at" json:"expires_at"`
}

// TableName specifies the table name for Activity
func (Activity) TableName() string {
	return "activities"
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// NewActivity builds a feed entry that expires ttl after ts
func NewActivity(snap StudentSnapshot, action Status, ts time.Time, ttl time.Duration) (*Activity, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode student snapshot: %w", err)
	}
	return &Activity{
		ID:        uuid.New(),
		StudentID: snap.StudentID,
		Student:   datatypes.JSON(raw),
		Action:    action,
		Timestamp: ts,
		ExpiresAt: ts.Add(ttl),
	}, nil
}

// Snapshot decodes the embedded student snapshot
func (a *Activity) Snapshot() (StudentSnapshot, error) {
	var snap StudentSnapshot
	if len(a.Student) == 0 {
		return snap, nil
	}
	if err := json.Unmarshal(a.Student, &snap); err != nil {
		return snap, fmt.Errorf("failed to decode student snapshot: %w", err)
	}
	return snap, nil
}
