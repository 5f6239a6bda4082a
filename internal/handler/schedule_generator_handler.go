package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mfg-academy/training-scheduler-api/internal/dto"
	"github.com/mfg-academy/training-scheduler-api/internal/models"
	"github.com/mfg-academy/training-scheduler-api/internal/service"
	appErrors "github.com/mfg-academy/training-scheduler-api/pkg/errors"
	"github.com/mfg-academy/training-scheduler-api/pkg/response"
)

type scheduleGenerator interface {
	Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error)
	GetProposal(ctx context.Context, proposalID string) (*dto.ProposalResponse, error)
	UpdateSession(ctx context.Context, proposalID, sessionID string, req dto.UpdateSessionRequest) (*dto.ProposalResponse, error)
	AddSession(ctx context.Context, proposalID string, req dto.AddSessionRequest) (*dto.ProposalResponse, error)
	RemoveSession(ctx context.Context, proposalID, sessionID string) (*dto.ProposalResponse, error)
	Save(ctx context.Context, req dto.SaveScheduleRequest) (string, error)
	List(ctx context.Context, query dto.ScheduleListQuery) ([]models.MonthlyScheduleMeta, error)
	GetSessions(ctx context.Context, id string) ([]models.MonthlyScheduleSession, error)
	Delete(ctx context.Context, id string) error
	Catalog(ctx context.Context) *models.Catalog
}

type timetableExporter interface {
	ExportProposal(ctx context.Context, proposalID, shift, format string) (data []byte, name, contentType string, err error)
}

// ScheduleGeneratorHandler exposes the schedule generation endpoints.
type ScheduleGeneratorHandler struct {
	service  scheduleGenerator
	exporter timetableExporter
}

// NewScheduleGeneratorHandler constructs the handler.
func NewScheduleGeneratorHandler(svc *service.ScheduleGeneratorService, exporter *service.TimetableExportService) *ScheduleGeneratorHandler {
	return &ScheduleGeneratorHandler{service: svc, exporter: exporter}
}

// Generate godoc
// @Summary Generate a monthly schedule proposal
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.GenerateScheduleRequest true "Generate schedule payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/generate [post]
func (h *ScheduleGeneratorHandler) Generate(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Proposal godoc
// @Summary Fetch a cached schedule proposal
// @Tags Scheduler
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/proposals/{id} [get]
func (h *ScheduleGeneratorHandler) Proposal(c *gin.Context) {
	result, err := h.service.GetProposal(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// UpdateSession godoc
// @Summary Edit a session inside a proposal
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param id path string true "Proposal ID"
// @Param sessionId path string true "Session ID"
// @Param payload body dto.UpdateSessionRequest true "Session update payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/proposals/{id}/sessions/{sessionId} [put]
func (h *ScheduleGeneratorHandler) UpdateSession(c *gin.Context) {
	var req dto.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}
	result, err := h.service.UpdateSession(c.Request.Context(), c.Param("id"), c.Param("sessionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// AddSession godoc
// @Summary Append a manual session to a proposal
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param id path string true "Proposal ID"
// @Param payload body dto.AddSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Router /schedules/proposals/{id}/sessions [post]
func (h *ScheduleGeneratorHandler) AddSession(c *gin.Context) {
	var req dto.AddSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}
	result, err := h.service.AddSession(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// RemoveSession godoc
// @Summary Remove a session from a proposal
// @Tags Scheduler
// @Produce json
// @Param id path string true "Proposal ID"
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/proposals/{id}/sessions/{sessionId} [delete]
func (h *ScheduleGeneratorHandler) RemoveSession(c *gin.Context) {
	result, err := h.service.RemoveSession(c.Request.Context(), c.Param("id"), c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Export one shift of a proposal as CSV or PDF
// @Tags Scheduler
// @Produce octet-stream
// @Param id path string true "Proposal ID"
// @Param shift query string true "Shift key"
// @Param format query string false "csv or pdf"
// @Success 200
// @Router /schedules/proposals/{id}/export [get]
func (h *ScheduleGeneratorHandler) Export(c *gin.Context) {
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	if query.Shift == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "shift is required"))
		return
	}
	data, name, contentType, err := h.exporter.ExportProposal(c.Request.Context(), c.Param("id"), query.Shift, query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, contentType, data)
}

// Save godoc
// @Summary Persist a proposal as a versioned monthly schedule
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.SaveScheduleRequest true "Save schedule payload"
// @Success 201 {object} response.Envelope
// @Router /schedules/save [post]
func (h *ScheduleGeneratorHandler) Save(c *gin.Context) {
	var req dto.SaveScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
		return
	}
	id, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"scheduleId": id})
}

// List godoc
// @Summary List saved monthly schedules
// @Tags Scheduler
// @Produce json
// @Param year query int false "Year"
// @Param month query int false "Month"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleGeneratorHandler) List(c *gin.Context) {
	year, _ := strconv.Atoi(c.Query("year"))
	month, _ := strconv.Atoi(c.Query("month"))
	result, err := h.service.List(c.Request.Context(), dto.ScheduleListQuery{Year: year, Month: month})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Sessions godoc
// @Summary Get sessions of a saved schedule
// @Tags Scheduler
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/sessions [get]
func (h *ScheduleGeneratorHandler) Sessions(c *gin.Context) {
	sessions, err := h.service.GetSessions(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}

// Delete godoc
// @Summary Delete a saved schedule version
// @Tags Scheduler
// @Param id path string true "Schedule ID"
// @Success 204
// @Router /schedules/{id} [delete]
func (h *ScheduleGeneratorHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Catalog godoc
// @Summary Return the standing course, shift, room, and staff catalog
// @Tags Scheduler
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog [get]
func (h *ScheduleGeneratorHandler) Catalog(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Catalog(c.Request.Context()), nil)
}
