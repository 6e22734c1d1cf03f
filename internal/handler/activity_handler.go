package handler

import (
	"context"
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

// CleanupScheduler is the scheduler surface exposed to operators
type CleanupScheduler interface {
	RunDailyCleanup(ctx context.Context) (int64, error)
	RunWeeklyCleanup(ctx context.Context) (int64, error)
	Status() *dto.SchedulerStatus
}

type ActivityHandler struct {
	presenceService service.PresenceService
	activityService service.ActivityService
	scheduler       CleanupScheduler
	logger          *zap.Logger
}

func NewActivityHandler(
	presenceService service.PresenceService,
	activityService service.ActivityService,
	scheduler CleanupScheduler,
	logger *zap.Logger,
) *ActivityHandler {
	return &ActivityHandler{
		presenceService: presenceService,
		activityService: activityService,
		scheduler:       scheduler,
		logger:          logger,
	}
}

// AddActivity godoc
// @Summary      Record a kiosk activity
// @Description  Writes an audit entry and a feed entry without changing presence
// @Tags         activities
// @Accept       json
// @Produce      json
// @Param        request body dto.AddActivityRequest true "Activity"
// @Success      201 {object} response.SuccessResponse{data=dto.ActivityAddResult}
// @Failure      400 {object} response.ErrorResponse
// @Router       /activities [post]
func (h *ActivityHandler) AddActivity(c *gin.Context) {
	var req dto.AddActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, "Student ID, student data, and action are required")
		return
	}

	result, err := h.presenceService.AddActivity(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccessWithMessage(c, http.StatusCreated, "Activity added successfully", result)
}

// ListRecent godoc
// @Summary      Recent feed entries
// @Tags         activities
// @Produce      json
// @Param        limit query int false "1-100, default 10"
// @Success      200 {object} response.SuccessResponse{data=[]dto.ActivityResponse}
// @Failure      400 {object} response.ErrorResponse
// @Router       /activities/recent [get]
func (h *ActivityHandler) ListRecent(c *gin.Context) {
	limit, err := queryInt(c, "limit", service.DefaultRecentLimit)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	activities, err := h.activityService.ListRecent(c.Request.Context(), limit)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, activities)
}

// Stats godoc
// @Summary      Feed statistics for today
// @Tags         activities
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.SuccessResponse{data=dto.ActivityStats}
// @Router       /activities/stats [get]
func (h *ActivityHandler) Stats(c *gin.Context) {
	stats, err := h.activityService.Stats(c.Request.Context())
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, stats)
}

// ClearOld godoc
// @Summary      Remove feed entries older than N hours
// @Tags         activities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.ClearOldRequest false "hours, 1-168, default 24"
// @Success      200 {object} response.SuccessResponse{data=dto.DeletedCount}
// @Failure      400 {object} response.ErrorResponse
// @Router       /activities/clear-old [delete]
func (h *ActivityHandler) ClearOld(c *gin.Context) {
	var req dto.ClearOldRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindingError(c, "Invalid request body")
		return
	}
	hours := service.DefaultClearHours
	if req.Hours != nil {
		hours = *req.Hours
	}

	deleted, err := h.activityService.ClearOlderThan(c.Request.Context(), hours)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	h.logger.Info("Old activities cleared by operator",
		zap.String("operator_id", util.OperatorID(c)),
		zap.Int("hours", hours),
		zap.Int64("deleted", deleted),
	)
	response.SendSuccessWithMessage(c, http.StatusOK,
		fmt.Sprintf("Cleared %d activities older than %d hours", deleted, hours),
		dto.DeletedCount{DeletedCount: deleted},
	)
}

// ClearAll godoc
// @Summary      Remove every feed entry
// @Tags         activities
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.SuccessResponse{data=dto.DeletedCount}
// @Router       /activities/clear-all [delete]
func (h *ActivityHandler) ClearAll(c *gin.Context) {
	deleted, err := h.activityService.ClearAll(c.Request.Context())
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	h.logger.Info("Feed cleared by operator",
		zap.String("operator_id", util.OperatorID(c)),
		zap.Int64("deleted", deleted),
	)
	response.SendSuccessWithMessage(c, http.StatusOK,
		fmt.Sprintf("Cleared %d activities", deleted),
		dto.DeletedCount{DeletedCount: deleted},
	)
}

// RunDailyCleanup godoc
// @Summary      Run the daily feed wipe now
// @Tags         scheduler
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.SuccessResponse{data=dto.DeletedCount}
// @Failure      503 {object} response.ErrorResponse "Scheduler stopped"
// @Failure      504 {object} response.ErrorResponse
// @Router       /activities/cleanup/daily [post]
func (h *ActivityHandler) RunDailyCleanup(c *gin.Context) {
	h.runCleanup(c, "daily", h.scheduler.RunDailyCleanup)
}

// RunWeeklyCleanup godoc
// @Summary      Run the weekly feed sweep now
// @Tags         scheduler
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.SuccessResponse{data=dto.DeletedCount}
// @Failure      503 {object} response.ErrorResponse "Scheduler stopped"
// @Failure      504 {object} response.ErrorResponse
// @Router       /activities/cleanup/weekly [post]
func (h *ActivityHandler) RunWeeklyCleanup(c *gin.Context) {
	h.runCleanup(c, "weekly", h.scheduler.RunWeeklyCleanup)
}

func (h *ActivityHandler) runCleanup(c *gin.Context, kind string, run func(context.Context) (int64, error)) {
	deleted, err := run(c.Request.Context())
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	h.logger.Info("Manual cleanup completed",
		zap.String("operator_id", util.OperatorID(c)),
		zap.String("kind", kind),
		zap.Int64("deleted", deleted),
	)
	response.SendSuccessWithMessage(c, http.StatusOK,
		fmt.Sprintf("Manual %s cleanup completed", kind),
		dto.DeletedCount{DeletedCount: deleted},
	)
}

// SchedulerStatus godoc
// @Summary      Cleanup scheduler status
// @Tags         scheduler
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.SuccessResponse{data=dto.SchedulerStatus}
// @Router       /activities/scheduler/status [get]
func (h *ActivityHandler) SchedulerStatus(c *gin.Context) {
	response.SendSuccess(c, http.StatusOK, h.scheduler.Status())
}
