package domain

import "strings"

// Status is the presence state of a student and doubles as the action
// recorded by a transition
type Status string

const (
	StatusIn  Status = "in"
	StatusOut Status = "out"
)

// Valid reports whether s is one of the two presence states
func (s Status) Valid() bool {
	return s == StatusIn || s == StatusOut
}

// Opposite returns the state a toggle moves to
func (s Status) Opposite() Status {
	if s == StatusIn {
		return StatusOut
	}
	return StatusIn
}

// Student is the presence record of one tracked person
type Student struct {
	BaseModel
	StudentID  string `gorm:"type:varchar(50);not null;uniqueIndex:idx_students_student_id" json:"student_id"`
	Name       string `gorm:"type:varchar(255);not null" json:"name"`
	Department string `gorm:"type:varchar(255)" json:"department"`
	PhotoKey   string `gorm:"type:varchar(1024)" json:"photo_key"`
	Status     Status `gorm:"type:varchar(3);not null;default:out;index:idx_students_status" json:"status"`
	// Version increments on every transition
	Version int64 `gorm:"not null;default:0" json:"version"`
}

// TableName specifies the table name for Student
func (Student) TableName() string {
	return "students"
}

// Snapshot copies the display fields into a feed snapshot
func (s *Student) Snapshot() StudentSnapshot {
	return StudentSnapshot{
		StudentID:  s.StudentID,
		Name:       s.Name,
		Department: s.Department,
		PhotoKey:   s.PhotoKey,
	}
}

// NormalizeStudentID trims and upper-cases an id so lookups are case-insensitive
func NormalizeStudentID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
