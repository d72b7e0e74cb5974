package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openclinic/ehr-api/internal/handler/health"
	"github.com/openclinic/ehr-api/internal/middleware"
	"github.com/openclinic/ehr-api/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimitRPS     float64
	RateLimitBurst   int
	CORSAllowOrigins []string
}

type Router struct {
	engine  *gin.Engine
	auth    *middleware.AuthMiddleware
	healthH *health.Handler

	authH        Handler
	doctorH      Handler
	patientH     Handler
	appointmentH Handler
	recordH      Handler
	radiologyH   Handler
	allergyH     Handler
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	healthH *health.Handler,
	authH Handler,
	doctorH Handler,
	patientH Handler,
	appointmentH Handler,
	recordH Handler,
	radiologyH Handler,
	allergyH Handler,
	m *metrics.Metrics,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	middleware.RegisterValidation()

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.Metrics(m),
		middleware.CORS(config.CORSAllowOrigins),
	)

	rateLimiter := middleware.NewRateLimiter(config.RateLimitRPS, config.RateLimitBurst)
	engine.Use(rateLimiter.RateLimit())

	return &Router{
		engine:       engine,
		auth:         auth,
		healthH:      healthH,
		authH:        authH,
		doctorH:      doctorH,
		patientH:     patientH,
		appointmentH: appointmentH,
		recordH:      recordH,
		radiologyH:   radiologyH,
		allergyH:     allergyH,
	}
}

func (r *Router) Setup() {
	r.healthH.RegisterRoutes(r.engine)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")

	// Public routes
	r.authH.RegisterRoutes(api)

	// Protected routes
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.doctorH.RegisterRoutes(protected)
	r.patientH.RegisterRoutes(protected)
	r.appointmentH.RegisterRoutes(protected)
	r.recordH.RegisterRoutes(protected)
	r.radiologyH.RegisterRoutes(protected)
	r.allergyH.RegisterRoutes(protected)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
