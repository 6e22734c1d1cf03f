package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"student-inout-api/internal/response"
)

// handleServiceError maps service layer errors to appropriate HTTP responses
func handleServiceError(c *gin.Context, logger *zap.Logger, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.SendError(c, http.StatusNotFound, response.ErrCodeNotFound, "Resource not found")
		return
	}

	var appErr *response.AppError
	if errors.As(err, &appErr) {
		status := mapErrorCodeToHTTPStatus(appErr.Code)
		if status >= http.StatusInternalServerError {
			logger.Error("Service error",
				zap.String("code", appErr.Code),
				zap.String("message", appErr.Message),
				zap.String("details", appErr.Details),
				zap.String("path", c.FullPath()),
			)
		}
		response.SendError(c, status, appErr.Code, appErr.Message)
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		response.SendError(c, http.StatusGatewayTimeout, response.ErrCodeTimeout, "Request timed out")
		return
	}

	logger.Error("Unhandled service error", zap.Error(err), zap.String("path", c.FullPath()))
	response.SendError(c, http.StatusInternalServerError, response.ErrCodeInternal, "Internal server error")
}

// mapErrorCodeToHTTPStatus maps error codes to HTTP status codes
func mapErrorCodeToHTTPStatus(code string) int {
	switch code {
	case response.ErrCodeNotFound:
		return http.StatusNotFound
	case response.ErrCodeAlreadyExists, response.ErrCodeConflict:
		return http.StatusConflict
	case response.ErrCodeValidation:
		return http.StatusBadRequest
	case response.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case response.ErrCodeForbidden:
		return http.StatusForbidden
	case response.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case response.ErrCodeSchedulerStopped:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// bindingError is the 400 sent when a request body cannot be decoded
func bindingError(c *gin.Context, message string) {
	response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, message)
}
