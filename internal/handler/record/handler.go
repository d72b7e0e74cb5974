package record

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openclinic/ehr-api/internal/handler"
	"github.com/openclinic/ehr-api/internal/model"
	"github.com/openclinic/ehr-api/internal/service/record"
	"github.com/openclinic/ehr-api/pkg/httputil"
)

type Handler struct {
	service record.RecordService
}

func NewHandler(service record.RecordService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients/:id")
	{
		patients.POST("/labresults", h.CreateLabResult)
		patients.GET("/labresults", h.ListLabResults)
		patients.GET("/labresults/:resultID", h.GetLabResult)
		patients.PUT("/labresults/:resultID", h.UpdateLabResult)
		patients.DELETE("/labresults/:resultID", h.DeleteLabResult)

		patients.POST("/history", h.CreateMedicalHistory)
		patients.GET("/history", h.ListMedicalHistory)
		patients.GET("/history/:entryID", h.GetMedicalHistory)
		patients.PUT("/history/:entryID", h.UpdateMedicalHistory)
		patients.DELETE("/history/:entryID", h.DeleteMedicalHistory)
	}
}

func (h *Handler) CreateLabResult(c *gin.Context) {
	doctorID, patientID, ok := ids(c)
	if !ok {
		return
	}

	var req model.CreateLabResultRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	created, err := h.service.CreateLabResult(c.Request.Context(), doctorID, patientID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

func (h *Handler) ListLabResults(c *gin.Context) {
	doctorID, patientID, ok := ids(c)
	if !ok {
		return
	}

	results, err := h.service.ListLabResults(c.Request.Context(), doctorID, patientID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, results)
}

func (h *Handler) GetLabResult(c *gin.Context) {
	doctorID, patientID, ok := ids(c)
	if !ok {
		return
	}
	resultID, ok := handler.ParseID(c, "resultID")
	if !ok {
		return
	}

	result, err := h.service.GetLabResult(c.Request.Context(), doctorID, patientID, resultID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) UpdateLabResult(c *gin.Context) {
	doctorID, patientID, ok := ids(c)
	if !ok {
		return
	}
	resultID, ok := handler.ParseID(c, "resultID")
	if !ok {
		return
	}

	var req model.UpdateLabResultRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.service.UpdateLabResult(c.Request.Context(), doctorID, patientID, resultID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) DeleteLabResult(c *gin.Context) {
	doctorID, patientID, ok := ids(c)
	if !ok {
		return
	}
	resultID, ok := handler.ParseID(c, "resultID")
	if !ok {
		return
	}

	if err := h.service.DeleteLabResult(c.Request.Context(), doctorID, patientID, resultID); err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "lab result deleted"})
}

func (h *Handler) CreateMedicalHistory(c *gin.Context) {
	doctorID, patientID, ok := ids(c)
	if !ok {
		return
	}

	var req model.CreateMedicalHistoryRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	created, err := h.service.CreateMedicalHistory(c.Request.Context(), doctorID, patientID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

func (h *Handler) ListMedicalHistory(c *gin.Context) {
	doctorID, patientID, ok := ids(c)
	if !ok {
		return
	}

	entries, err := h.service.ListMedicalHistory(c.Request.Context(), doctorID, patientID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, entries)
}

func (h *Handler) GetMedicalHistory(c *gin.Context) {
	doctorID, patientID, ok := ids(c)
	if !ok {
		return
	}
	entryID, ok := handler.ParseID(c, "entryID")
	if !ok {
		return
	}

	entry, err := h.service.GetMedicalHistory(c.Request.Context(), doctorID, patientID, entryID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, entry)
}

func (h *Handler) UpdateMedicalHistory(c *gin.Context) {
	doctorID, patientID, ok := ids(c)
	if !ok {
		return
	}
	entryID, ok := handler.ParseID(c, "entryID")
	if !ok {
		return
	}

	var req model.UpdateMedicalHistoryRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	entry, err := h.service.UpdateMedicalHistory(c.Request.Context(), doctorID, patientID, entryID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, entry)
}

func (h *Handler) DeleteMedicalHistory(c *gin.Context) {
	doctorID, patientID, ok := ids(c)
	if !ok {
		return
	}
	entryID, ok := handler.ParseID(c, "entryID")
	if !ok {
		return
	}

	if err := h.service.DeleteMedicalHistory(c.Request.Context(), doctorID, patientID, entryID); err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "medical history entry deleted"})
}

func ids(c *gin.Context) (doctorID, patientID uuid.UUID, ok bool) {
	d, ok := handler.DoctorID(c)
	if !ok {
		return
	}
	p, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	return d, p, true
}
