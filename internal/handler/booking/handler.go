package booking

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medly/medly-api/internal/model"
	"github.com/medly/medly-api/internal/service/booking"
	apperrors "github.com/medly/medly-api/pkg/errors"
	"github.com/medly/medly-api/pkg/httputil"
)

type Handler struct {
	service *booking.Service
}

func NewHandler(service *booking.Service) *Handler {
	return &Handler{service: service}
}

// Book validates the slot and creates the appointment in one transaction.
func (h *Handler) Book(c *gin.Context) {
	var req model.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	appt, err := h.service.CheckAndBook(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, appt)
}

// Ingest accepts a partner-system booking, creating unknown org entities by
// name, and returns the normalized booking summary.
func (h *Handler) Ingest(c *gin.Context) {
	var req model.ExternalBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	summary, err := h.service.Ingest(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, summary)
}

func (h *Handler) ListBookings(c *gin.Context) {
	userID, err := optionalIDQuery(c, "user_id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	records, err := h.service.ListBookings(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, records)
}

func (h *Handler) GetBooking(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid booking ID"))
		return
	}

	record, err := h.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, record)
}

// Lookup finds the appointment occupying the 15-minute slot at start, if any.
func (h *Handler) Lookup(c *gin.Context) {
	doctorID, err := strconv.ParseInt(c.Query("doctor_id"), 10, 64)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid doctor ID"))
		return
	}
	start := c.Query("start")
	if start == "" {
		httputil.RespondWithError(c, apperrors.Validation("start is required"))
		return
	}

	detail, err := h.service.Lookup(c.Request.Context(), doctorID, start)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"appointment": detail})
}

func (h *Handler) Upcoming(c *gin.Context) {
	userID, err := optionalIDQuery(c, "user_id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appts, err := h.service.Upcoming(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appts)
}

func (h *Handler) UpcomingByHospital(c *gin.Context) {
	groups, err := h.service.UpcomingByHospital(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, groups)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/book", h.Book)
	r.POST("/bookings", h.Ingest)
	r.GET("/bookings", h.ListBookings)
	r.GET("/bookings/:id", h.GetBooking)
	r.GET("/appointments/lookup", h.Lookup)
	r.GET("/upcoming", h.Upcoming)
	r.GET("/hospitals/upcoming", h.UpcomingByHospital)
}

func optionalIDQuery(c *gin.Context, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperrors.Validationf("invalid %s", name)
	}
	return &id, nil
}
