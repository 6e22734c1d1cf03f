package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"student-inout-api/internal/dto"
	"student-inout-api/internal/response"
	"student-inout-api/internal/service"
	"student-inout-api/internal/util"
)

type LogHandler struct {
	logService service.LogService
	logger     *zap.Logger
}

func NewLogHandler(logService service.LogService, logger *zap.Logger) *LogHandler {
	return &LogHandler{logService: logService, logger: logger}
}

// List godoc
// @Summary      Audit log, newest first
// @Tags         logs
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "1-500, default 100"
// @Param        offset query int false "default 0"
// @Success      200 {object} response.SuccessResponse{data=[]domain.Log}
// @Router       /logs [get]
func (h *LogHandler) List(c *gin.Context) {
	limit, err := queryInt(c, "limit", service.DefaultLogLimit)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	logs, err := h.logService.List(c.Request.Context(), limit, offset)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, logs)
}

// Recent godoc
// @Summary      Audit entries within the last N hours
// @Tags         logs
// @Produce      json
// @Security     BearerAuth
// @Param        hours query int false "1-720, default 24"
// @Success      200 {object} response.SuccessResponse{data=[]domain.Log}
// @Router       /logs/recent [get]
func (h *LogHandler) Recent(c *gin.Context) {
	hours, err := queryInt(c, "hours", service.DefaultRecentLogHours)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	logs, err := h.logService.Recent(c.Request.Context(), hours)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, logs)
}

// TodayStats godoc
// @Summary      Transition counts for today
// @Tags         logs
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.SuccessResponse{data=dto.DailyStats}
// @Router       /logs/stats/today [get]
func (h *LogHandler) TodayStats(c *gin.Context) {
	stats, err := h.logService.TodayStats(c.Request.Context())
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, stats)
}

// StatsByDate godoc
// @Summary      Transition counts for a date
// @Tags         logs
// @Produce      json
// @Security     BearerAuth
// @Param        date path string true "YYYY-MM-DD"
// @Success      200 {object} response.SuccessResponse{data=dto.DailyStats}
// @Failure      400 {object} response.ErrorResponse
// @Router       /logs/stats/{date} [get]
func (h *LogHandler) StatsByDate(c *gin.Context) {
	stats, err := h.logService.StatsByDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, stats)
}

// ListByStudent godoc
// @Summary      Audit history of one student
// @Tags         logs
// @Produce      json
// @Security     BearerAuth
// @Param        studentId path string true "Student ID"
// @Param        limit query int false "1-500, default 50"
// @Success      200 {object} response.SuccessResponse{data=[]domain.Log}
// @Router       /logs/student/{studentId} [get]
func (h *LogHandler) ListByStudent(c *gin.Context) {
	limit, err := queryInt(c, "limit", service.DefaultStudentLogLimit)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	logs, err := h.logService.ListByStudent(c.Request.Context(), c.Param("studentId"), limit)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, logs)
}

// ClearOld godoc
// @Summary      Purge audit entries older than N days
// @Tags         logs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.ClearLogsRequest false "days, default 30"
// @Success      200 {object} response.SuccessResponse{data=dto.DeletedCount}
// @Failure      400 {object} response.ErrorResponse
// @Router       /logs/cleanup [delete]
func (h *LogHandler) ClearOld(c *gin.Context) {
	var req dto.ClearLogsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindingError(c, "Invalid request body")
		return
	}
	days := service.DefaultLogRetention
	if req.Days != nil {
		days = *req.Days
	}

	deleted, err := h.logService.ClearOld(c.Request.Context(), days)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	h.logger.Info("Audit entries purged by operator",
		zap.String("operator_id", util.OperatorID(c)),
		zap.Int("days", days),
		zap.Int64("deleted", deleted),
	)
	response.SendSuccessWithMessage(c, http.StatusOK,
		fmt.Sprintf("Cleared %d logs older than %d days", deleted, days),
		dto.DeletedCount{DeletedCount: deleted},
	)
}
