package doctor

import (
	"github.com/gin-gonic/gin"

	"github.com/openclinic/ehr-api/internal/handler"
	"github.com/openclinic/ehr-api/internal/model"
	"github.com/openclinic/ehr-api/internal/service/doctor"
	"github.com/openclinic/ehr-api/pkg/httputil"
)

type Handler struct {
	service doctor.DoctorService
}

func NewHandler(service doctor.DoctorService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/profile", h.GetProfile)
	r.PUT("/profile", h.UpdateProfile)
	r.GET("/specialties", h.ListSpecialties)
}

func (h *Handler) GetProfile(c *gin.Context) {
	doctorID, ok := handler.DoctorID(c)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(c.Request.Context(), doctorID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, profile)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	doctorID, ok := handler.DoctorID(c)
	if !ok {
		return
	}

	var req model.UpdateDoctorProfileRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	profile, err := h.service.UpdateProfile(c.Request.Context(), doctorID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, profile)
}

func (h *Handler) ListSpecialties(c *gin.Context) {
	specialties, err := h.service.ListSpecialties(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, specialties)
}
