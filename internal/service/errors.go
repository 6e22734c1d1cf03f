package service

import (
	"errors"

	"gorm.io/gorm"

	"student-inout-api/internal/response"
)

var errVersionConflict = errors.New("student version changed during transition")

func studentNotFound() *response.AppError {
	return response.NewAppError(response.ErrCodeNotFound, "Student not found", "")
}

func internalError(message string, err error) *response.AppError {
	return response.NewAppError(response.ErrCodeInternal, message, err.Error())
}

// mapStudentError translates repository lookups of a single student
func mapStudentError(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return studentNotFound()
	}
	return internalError(message, err)
}
