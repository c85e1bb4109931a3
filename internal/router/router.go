package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aleisley/ta-backend/internal/config"
	"github.com/aleisley/ta-backend/internal/handler"
	appointmenthandler "github.com/aleisley/ta-backend/internal/handler/appointment"
	doctorhandler "github.com/aleisley/ta-backend/internal/handler/doctor"
	"github.com/aleisley/ta-backend/internal/handler/health"
	prometheushandler "github.com/aleisley/ta-backend/internal/handler/prometheus"
	"github.com/aleisley/ta-backend/internal/middleware"
	"github.com/aleisley/ta-backend/internal/repository"
	"github.com/aleisley/ta-backend/internal/service/appointment"
	"github.com/aleisley/ta-backend/internal/service/doctor"
	"github.com/aleisley/ta-backend/pkg/logger"
	"github.com/aleisley/ta-backend/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// Dependencies are the already-built collaborators the HTTP layer serves.
type Dependencies struct {
	Store        repository.Store
	Doctors      *doctor.Service
	Appointments *appointment.Service
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	Logger       *logger.Logger
}

type Router struct {
	engine   *gin.Engine
	handlers []Handler
}

func NewRouter(cfg *config.Config, deps Dependencies) *Router {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	middleware.ConfigureValidator()

	engine := gin.New()

	// Add core middlewares
	engine.Use(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Metrics(deps.Metrics),
		middleware.Timeout(cfg.Server.RequestTimeout),
		middleware.SizeLimit(cfg.Server.MaxBodyBytes),
		middleware.CORS(cfg.CORS),
	)

	if cfg.RateLimit.Enabled {
		engine.Use(middleware.NewRateLimiter(cfg.RateLimit).RateLimit())
	}

	engine.Use(middleware.ErrorHandler(log))

	base := handler.BaseHandler{Pagination: cfg.Pagination}
	r := &Router{
		engine: engine,
		handlers: []Handler{
			health.NewHandler(deps.Store, log),
			prometheushandler.New(deps.Gatherer),
			doctorhandler.NewHandler(deps.Doctors, base),
			appointmenthandler.NewHandler(deps.Appointments, base),
		},
	}
	r.setup()
	return r
}

func (r *Router) setup() {
	root := r.engine.Group("")
	for _, h := range r.handlers {
		h.RegisterRoutes(root)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
