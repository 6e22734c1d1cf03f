package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"student-inout-api/internal/dto"
	"student-inout-api/internal/response"
	"student-inout-api/internal/service"
)

type StudentHandler struct {
	presenceService service.PresenceService
	logger          *zap.Logger
}

func NewStudentHandler(presenceService service.PresenceService, logger *zap.Logger) *StudentHandler {
	return &StudentHandler{
		presenceService: presenceService,
		logger:          logger,
	}
}

// Toggle godoc
// @Summary      Toggle student presence
// @Description  Flips a student between in and out, writing the audit entry and the feed entry
// @Tags         students
// @Produce      json
// @Param        studentId path string true "Student ID"
// @Success      200 {object} response.SuccessResponse{data=dto.ToggleResult}
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse "Student not found"
// @Failure      409 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /students/{studentId}/toggle [patch]
func (h *StudentHandler) Toggle(c *gin.Context) {
	result, err := h.presenceService.Toggle(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccessWithMessage(c, http.StatusOK, result.Message, result)
}

// GetStudent godoc
// @Summary      Get a student
// @Tags         students
// @Produce      json
// @Security     BearerAuth
// @Param        studentId path string true "Student ID"
// @Success      200 {object} response.SuccessResponse{data=dto.StudentResponse}
// @Failure      404 {object} response.ErrorResponse "Student not found"
// @Router       /students/{studentId} [get]
func (h *StudentHandler) GetStudent(c *gin.Context) {
	student, err := h.presenceService.GetStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, student)
}

// ListByStatus godoc
// @Summary      List students by presence state
// @Tags         students
// @Produce      json
// @Security     BearerAuth
// @Param        status path string true "in or out"
// @Success      200 {object} response.SuccessResponse{data=[]dto.StudentResponse}
// @Failure      400 {object} response.ErrorResponse
// @Router       /students/status/{status} [get]
func (h *StudentHandler) ListByStatus(c *gin.Context) {
	students, err := h.presenceService.ListByStatus(c.Request.Context(), c.Param("status"))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, students)
}

// RegisterStudent godoc
// @Summary      Register a student
// @Description  Creates a presence record in state out
// @Tags         students
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.RegisterStudentRequest true "Student"
// @Success      201 {object} response.SuccessResponse{data=dto.StudentResponse}
// @Failure      400 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse "Student already exists"
// @Router       /students [post]
func (h *StudentHandler) RegisterStudent(c *gin.Context) {
	var req dto.RegisterStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, "Invalid request body")
		return
	}

	student, err := h.presenceService.RegisterStudent(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusCreated, student)
}

// Summary godoc
// @Summary      Presence summary
// @Tags         presence
// @Produce      json
// @Success      200 {object} response.SuccessResponse{data=dto.PresenceSummary}
// @Router       /presence/summary [get]
func (h *StudentHandler) Summary(c *gin.Context) {
	summary, err := h.presenceService.Summary(c.Request.Context())
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, summary)
}
