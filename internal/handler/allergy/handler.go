package allergy

import (
	"github.com/gin-gonic/gin"

	"github.com/openclinic/ehr-api/internal/handler"
	"github.com/openclinic/ehr-api/internal/model"
	"github.com/openclinic/ehr-api/internal/service/allergy"
	"github.com/openclinic/ehr-api/pkg/httputil"
)

type Handler struct {
	service allergy.AllergyService
}

func NewHandler(service allergy.AllergyService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	allergies := r.Group("/allergies")
	{
		allergies.GET("", h.List)
		allergies.POST("", h.Create)
		allergies.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) List(c *gin.Context) {
	allergies, err := h.service.List(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, allergies)
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateAllergyRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	created, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

func (h *Handler) Delete(c *gin.Context) {
	allergyID, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), allergyID); err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "allergy deleted"})
}
