package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medly/medly-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithCreated sends a 201 response
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError sends an error response mapped from the error taxonomy:
// validation -> 400, not found -> 404, conflict -> 409, anything else -> 500.
func RespondWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	if appErr, ok := err.(*errors.AppError); ok {
		switch appErr.Code {
		case errors.ErrValidation:
			status = http.StatusBadRequest
		case errors.ErrNotFound:
			status = http.StatusNotFound
		case errors.ErrConflict:
			status = http.StatusConflict
		default:
			status = http.StatusInternalServerError
		}
		if appErr.Code != errors.ErrInternal {
			message = appErr.Message
		}
	}

	_ = c.Error(err)
	c.JSON(status, Response{
		Success: false,
		Error: &Error{
			Code:    status,
			Message: message,
		},
	})
}
