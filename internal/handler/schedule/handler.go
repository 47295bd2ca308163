package schedule

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medly/medly-api/internal/model"
	"github.com/medly/medly-api/internal/service/schedule"
	apperrors "github.com/medly/medly-api/pkg/errors"
	"github.com/medly/medly-api/pkg/httputil"
)

type Handler struct {
	service *schedule.Service
}

func NewHandler(service *schedule.Service) *Handler {
	return &Handler{service: service}
}

// GetSchedule returns the hospital→department→doctor tree for a day or a
// Monday-led week.
func (h *Handler) GetSchedule(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		httputil.RespondWithError(c, apperrors.Validation("date is required"))
		return
	}
	span := model.Span(c.DefaultQuery("range", string(model.SpanDay)))

	var hospitalID *int64
	if raw := c.Query("hospital_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httputil.RespondWithError(c, apperrors.Validation("invalid hospital ID"))
			return
		}
		hospitalID = &id
	}

	tree, err := h.service.GetSchedule(c.Request.Context(), date, span, hospitalID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, tree)
}

func (h *Handler) UpsertWindow(c *gin.Context) {
	var req model.UpsertWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	result, err := h.service.UpsertWindow(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) DeleteWindow(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid window ID"))
		return
	}

	if err := h.service.DeleteWindow(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": id})
}

// BulkAdjust rewrites a doctor set's windows over a date range from daily
// HH:MM rules.
func (h *Handler) BulkAdjust(c *gin.Context) {
	var req model.BulkAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	result, err := h.service.BulkAdjust(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	dev := r.Group("/dev")
	dev.GET("/schedule", h.GetSchedule)
	dev.PUT("/windows", h.UpsertWindow)
	dev.DELETE("/windows/:id", h.DeleteWindow)
	dev.POST("/windows/bulk-adjust", h.BulkAdjust)
}
