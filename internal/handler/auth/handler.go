package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/openclinic/ehr-api/internal/handler"
	"github.com/openclinic/ehr-api/internal/model"
	"github.com/openclinic/ehr-api/internal/service/auth"
	apperrors "github.com/openclinic/ehr-api/pkg/errors"
	"github.com/openclinic/ehr-api/pkg/httputil"
)

type Handler struct {
	service auth.AuthService
}

func NewHandler(service auth.AuthService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.GET("/confirm-email", h.ConfirmEmail)
		authGroup.POST("/forgot-password", h.ForgotPassword)
		authGroup.POST("/reset-password", h.ResetPassword)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterDoctorRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	doctor, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithCreated(c, doctor)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	tokens, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, tokens)
}

func (h *Handler) ConfirmEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		httputil.RespondWithError(c, apperrors.BadRequest("missing token", nil))
		return
	}

	if err := h.service.ConfirmEmail(c.Request.Context(), token); err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "email confirmed"})
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	if err := h.service.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		handler.RespondError(c, err)
		return
	}
	// Always the same answer, registered or not.
	httputil.RespondWithSuccess(c, gin.H{"message": "if the address is registered, a reset link has been sent"})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), &req); err != nil {
		handler.RespondError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "password updated"})
}
