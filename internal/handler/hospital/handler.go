package hospital

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medly/medly-api/internal/model"
	"github.com/medly/medly-api/internal/service/hospital"
	apperrors "github.com/medly/medly-api/pkg/errors"
	"github.com/medly/medly-api/pkg/httputil"
)

type Handler struct {
	service *hospital.Service
}

func NewHandler(service *hospital.Service) *Handler {
	return &Handler{service: service}
}

// HospitalUsers returns the per-hospital patient roster, optionally narrowed
// to one hospital.
func (h *Handler) HospitalUsers(c *gin.Context) {
	var hospitalID *int64
	if raw := c.Query("hospital_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httputil.RespondWithError(c, apperrors.Validation("invalid hospital ID"))
			return
		}
		hospitalID = &id
	}

	groups, err := h.service.HospitalUsers(c.Request.Context(), hospitalID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, groups)
}

func (h *Handler) UserProfile(c *gin.Context) {
	hospitalID, err := strconv.ParseInt(c.Query("hospital_id"), 10, 64)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid hospital ID"))
		return
	}
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid user ID"))
		return
	}

	profile, err := h.service.UserProfile(c.Request.Context(), hospitalID, userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, profile)
}

func (h *Handler) ListRooms(c *gin.Context) {
	var filter model.RoomFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	rooms, err := h.service.ListRooms(c.Request.Context(), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, rooms)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/hospital-users", h.HospitalUsers)
	r.GET("/hospital-user-profile", h.UserProfile)
	r.GET("/rooms", h.ListRooms)
}
