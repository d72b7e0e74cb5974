package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/openclinic/ehr-api/internal/middleware"
	"github.com/openclinic/ehr-api/internal/service/access"
	apperrors "github.com/openclinic/ehr-api/pkg/errors"
	"github.com/openclinic/ehr-api/pkg/httputil"
)

// RespondError translates service errors into HTTP responses. Both
// access-denial variants become the same not-found response so a record's
// existence never leaks across doctors.
func RespondError(c *gin.Context, err error) {
	if access.Denied(err) {
		httputil.RespondWithError(c, apperrors.NotFound("resource", nil))
		return
	}
	httputil.RespondWithError(c, err)
}

// DoctorID pulls the authenticated doctor from the request context set by
// the auth middleware.
func DoctorID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.DoctorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httputil.Response{
			Success: false,
			Error:   &httputil.Error{Code: http.StatusUnauthorized, Message: "not authenticated"},
		})
	}
	return id, ok
}

// ParseID parses a uuid path parameter, responding with not-found on
// malformed input so unguessable ids and malformed ones look alike.
func ParseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NotFound("resource", err))
		return uuid.Nil, false
	}
	return id, true
}

// BindJSON binds the request body. Tag-level validation failures are reported
// as violations the same way service-level validation is; anything else is a
// plain bad request.
func BindJSON(c *gin.Context, target interface{}) bool {
	err := c.ShouldBindJSON(target)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		violations := &apperrors.ValidationErrors{
			Violations: middleware.ViolationMessages(verrs),
		}
		httputil.RespondWithError(c, violations)
		return false
	}
	httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
	return false
}
