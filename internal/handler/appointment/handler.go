package appointment

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openclinic/ehr-api/internal/handler"
	"github.com/openclinic/ehr-api/internal/model"
	"github.com/openclinic/ehr-api/internal/service/appointment"
	apperrors "github.com/openclinic/ehr-api/pkg/errors"
	"github.com/openclinic/ehr-api/pkg/httputil"
)

type Handler struct {
	service appointment.AppointmentService
}

func NewHandler(service appointment.AppointmentService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.Schedule)
		appointments.GET("", h.List)
		appointments.GET("/:id", h.Get)
		appointments.PUT("/:id", h.Update)
		appointments.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) Schedule(c *gin.Context) {
	doctorID, ok := handler.DoctorID(c)
	if !ok {
		return
	}

	var req model.ScheduleAppointmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	created, err := h.service.Schedule(c.Request.Context(), doctorID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

func (h *Handler) List(c *gin.Context) {
	doctorID, ok := handler.DoctorID(c)
	if !ok {
		return
	}

	filters, err := parseFilters(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	appointments, err := h.service.List(c.Request.Context(), doctorID, filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) Get(c *gin.Context) {
	doctorID, ok := handler.DoctorID(c)
	if !ok {
		return
	}
	appointmentID, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	found, err := h.service.Get(c.Request.Context(), doctorID, appointmentID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, found)
}

func (h *Handler) Update(c *gin.Context) {
	doctorID, ok := handler.DoctorID(c)
	if !ok {
		return
	}
	appointmentID, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateAppointmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	updated, err := h.service.Update(c.Request.Context(), doctorID, appointmentID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) Delete(c *gin.Context) {
	doctorID, ok := handler.DoctorID(c)
	if !ok {
		return
	}
	appointmentID, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), doctorID, appointmentID); err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "appointment deleted"})
}

func parseFilters(c *gin.Context) (*model.AppointmentFilters, error) {
	filters := &model.AppointmentFilters{}

	if raw := c.Query("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperrors.BadRequest("invalid patient_id filter", err)
		}
		filters.PatientID = id
	}
	if raw := c.Query("status"); raw != "" {
		status, err := model.ParseAppointmentStatus(raw)
		if err != nil {
			return nil, apperrors.BadRequest("invalid status filter", err)
		}
		filters.Status = status
	}
	if raw := c.Query("from"); raw != "" {
		from, err := model.ParseDateTime(raw)
		if err != nil {
			return nil, apperrors.BadRequest("invalid from filter", err)
		}
		filters.From = from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := model.ParseDateTime(raw)
		if err != nil {
			return nil, apperrors.BadRequest("invalid to filter", err)
		}
		filters.To = to
	}
	return filters, nil
}
