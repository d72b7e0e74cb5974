package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	db      *sqlx.DB
	started time.Time
}

func NewHandler(db *sqlx.DB) *Handler {
	return &Handler{db: db, started: time.Now()}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
}

func (h *Handler) Health(c *gin.Context) {
	status := http.StatusOK
	overall := "ok"
	dbStatus := "up"
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		status = http.StatusServiceUnavailable
		overall = "degraded"
		dbStatus = "down"
	}

	c.JSON(status, gin.H{
		"status":   overall,
		"uptime":   time.Since(h.started).String(),
		"database": dbStatus,
	})
}
