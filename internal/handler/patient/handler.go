package patient

import (
	"github.com/gin-gonic/gin"

	"github.com/openclinic/ehr-api/internal/handler"
	"github.com/openclinic/ehr-api/internal/model"
	"github.com/openclinic/ehr-api/internal/service/patient"
	"github.com/openclinic/ehr-api/pkg/httputil"
)

type Handler struct {
	service patient.PatientService
}

func NewHandler(service patient.PatientService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.POST("", h.CreatePatient)
		patients.GET("", h.ListPatients)
		patients.GET("/:id", h.GetPatient)
		patients.PUT("/:id", h.UpdatePatient)
		patients.DELETE("/:id", h.DeletePatient)
	}
}

func (h *Handler) CreatePatient(c *gin.Context) {
	doctorID, ok := handler.DoctorID(c)
	if !ok {
		return
	}

	var req model.CreatePatientRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	created, err := h.service.CreatePatient(c.Request.Context(), doctorID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

func (h *Handler) ListPatients(c *gin.Context) {
	doctorID, ok := handler.DoctorID(c)
	if !ok {
		return
	}

	filters := &model.PatientFilters{Search: c.Query("search")}
	patients, err := h.service.ListPatients(c.Request.Context(), doctorID, filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patients)
}

func (h *Handler) GetPatient(c *gin.Context) {
	doctorID, ok := handler.DoctorID(c)
	if !ok {
		return
	}
	patientID, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	detail, err := h.service.GetPatient(c.Request.Context(), doctorID, patientID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, detail)
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	doctorID, ok := handler.DoctorID(c)
	if !ok {
		return
	}
	patientID, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	var req model.UpdatePatientRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	detail, err := h.service.UpdatePatient(c.Request.Context(), doctorID, patientID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, detail)
}

func (h *Handler) DeletePatient(c *gin.Context) {
	doctorID, ok := handler.DoctorID(c)
	if !ok {
		return
	}
	patientID, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeletePatient(c.Request.Context(), doctorID, patientID); err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "patient deleted"})
}
