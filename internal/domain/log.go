package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Log is one immutable audit entry. Name and department are copied at write
// time so history survives profile edits.
type Log struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID   string    `gorm:"type:varchar(50);not null;index:idx_logs_student_ts,priority:1" json:"student_id"`
	StudentName string    `gorm:"type:varchar(255)" json:"student_name"`
	Department  string    `gorm:"type:varchar(255)" json:"department"`
	Action      Status    `gorm:"type:varchar(3);not null;index:idx_logs_action" json:"action"`
	Timestamp   time.Time `gorm:"not null;index:idx_logs_student_ts,priority:2;index:idx_logs_timestamp" json:"timestamp"`
	// Version is the student version this entry produced, 0 when the entry did
	// not come from a toggle
	Version int64 `gorm:"not null;default:0" json:"version"`
}

// TableName specifies the table name for Log
func (Log) TableName() string {
	return "logs"
}

func (l *Log) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
