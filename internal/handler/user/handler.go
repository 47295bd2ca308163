package user

import (
	"github.com/gin-gonic/gin"

	"github.com/medly/medly-api/internal/model"
	"github.com/medly/medly-api/internal/service/user"
	apperrors "github.com/medly/medly-api/pkg/errors"
	"github.com/medly/medly-api/pkg/httputil"
)

type Handler struct {
	service *user.Service
}

func NewHandler(service *user.Service) *Handler {
	return &Handler{service: service}
}

// Upsert logs a patient in by phone, creating the account on first contact.
func (h *Handler) Upsert(c *gin.Context) {
	var req model.UpsertUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	u, err := h.service.UpsertByPhone(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/users", h.Upsert)
}
