package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/openclinic/ehr-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Code       int      `json:"code"`
	Message    string   `json:"message"`
	Violations []string `json:"violations,omitempty"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithCreated sends a success response for a newly created resource
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError sends an error response. Validation failures carry the
// full list of violated rules; anything unrecognized becomes a generic 500.
func RespondWithError(c *gin.Context, err error) {
	if ve, ok := apperrors.AsValidation(err); ok {
		c.JSON(http.StatusUnprocessableEntity, Response{
			Success: false,
			Error: &Error{
				Code:       http.StatusUnprocessableEntity,
				Message:    "validation failed",
				Violations: ve.Violations,
			},
		})
		return
	}

	statusCode := http.StatusInternalServerError
	message := "internal server error"
	if appErr, ok := apperrors.AsApp(err); ok {
		statusCode = statusFromCode(appErr.Code)
		message = appErr.Message
	}

	c.JSON(statusCode, Response{
		Success: false,
		Error: &Error{
			Code:    statusCode,
			Message: message,
		},
	})
}

func statusFromCode(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrNotFound:
		return http.StatusNotFound
	case apperrors.ErrBadRequest:
		return http.StatusBadRequest
	case apperrors.ErrUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrForbidden:
		return http.StatusForbidden
	case apperrors.ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
