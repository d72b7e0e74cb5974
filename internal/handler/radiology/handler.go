package radiology

import (
	"mime"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openclinic/ehr-api/internal/handler"
	"github.com/openclinic/ehr-api/internal/model"
	"github.com/openclinic/ehr-api/internal/service/radiology"
	apperrors "github.com/openclinic/ehr-api/pkg/errors"
	"github.com/openclinic/ehr-api/pkg/httputil"
	"github.com/openclinic/ehr-api/pkg/metrics"
)

type Handler struct {
	service radiology.RadiologyService
	metrics *metrics.Metrics
}

func NewHandler(service radiology.RadiologyService, m *metrics.Metrics) *Handler {
	return &Handler{service: service, metrics: m}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	records := r.Group("/patients/:id/radiology")
	{
		records.POST("", h.Create)
		records.GET("", h.List)
		records.GET("/:imagingID", h.Get)
		records.PUT("/:imagingID", h.Update)
		records.DELETE("/:imagingID", h.Delete)
		records.GET("/:imagingID/image", h.Image)
	}
}

func (h *Handler) Create(c *gin.Context) {
	doctorID, patientID, ok := ids(c)
	if !ok {
		return
	}

	var req model.CreateRadiologyImagingRequest
	if err := c.ShouldBind(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request form", err))
		return
	}

	upload, cleanup, err := h.upload(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	defer cleanup()

	created, err := h.service.Create(c.Request.Context(), doctorID, patientID, &req, upload)
	if err != nil {
		h.countUpload(upload, false)
		handler.RespondError(c, err)
		return
	}

	h.countUpload(upload, true)
	httputil.RespondWithCreated(c, created)
}

func (h *Handler) List(c *gin.Context) {
	doctorID, patientID, ok := ids(c)
	if !ok {
		return
	}

	records, err := h.service.List(c.Request.Context(), doctorID, patientID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, records)
}

func (h *Handler) Get(c *gin.Context) {
	doctorID, patientID, ok := ids(c)
	if !ok {
		return
	}
	imagingID, ok := handler.ParseID(c, "imagingID")
	if !ok {
		return
	}

	imaging, err := h.service.Get(c.Request.Context(), doctorID, patientID, imagingID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, imaging)
}

func (h *Handler) Update(c *gin.Context) {
	doctorID, patientID, ok := ids(c)
	if !ok {
		return
	}
	imagingID, ok := handler.ParseID(c, "imagingID")
	if !ok {
		return
	}

	var req model.UpdateRadiologyImagingRequest
	if err := c.ShouldBind(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request form", err))
		return
	}

	upload, cleanup, err := h.upload(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	defer cleanup()

	updated, err := h.service.Update(c.Request.Context(), doctorID, patientID, imagingID, &req, upload)
	if err != nil {
		h.countUpload(upload, false)
		handler.RespondError(c, err)
		return
	}

	h.countUpload(upload, true)
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) Delete(c *gin.Context) {
	doctorID, patientID, ok := ids(c)
	if !ok {
		return
	}
	imagingID, ok := handler.ParseID(c, "imagingID")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), doctorID, patientID, imagingID); err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "radiology record deleted"})
}

func (h *Handler) Image(c *gin.Context) {
	doctorID, patientID, ok := ids(c)
	if !ok {
		return
	}
	imagingID, ok := handler.ParseID(c, "imagingID")
	if !ok {
		return
	}

	rc, filename, err := h.service.OpenImage(c.Request.Context(), doctorID, patientID, imagingID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}

// upload extracts the optional multipart file. A request without a file is
// valid; metadata-only updates leave the stored image alone.
func (h *Handler) upload(c *gin.Context) (*radiology.Upload, func(), error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, func() {}, nil
		}
		return nil, func() {}, apperrors.BadRequest("invalid image upload", err)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, func() {}, apperrors.BadRequest("failed to read image upload", err)
	}

	upload := &radiology.Upload{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		Content:  file,
	}
	return upload, func() { file.Close() }, nil
}

func (h *Handler) countUpload(upload *radiology.Upload, ok bool) {
	if upload == nil || h.metrics == nil {
		return
	}
	if ok {
		h.metrics.UploadsTotal.WithLabelValues("stored").Inc()
		h.metrics.UploadBytes.Add(float64(upload.Size))
	} else {
		h.metrics.UploadsFailed.Inc()
		h.metrics.UploadsTotal.WithLabelValues("rejected").Inc()
	}
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
