package handlers

import (
	"net/http"

	_ "fermenstation/docs" // registers the swagger spec
	"fermenstation/internal/logger"
	"fermenstation/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	metrics  http.Handler
	restart  func()
}

// NewHandler constructs the HTTP handler. metrics and restart may be nil; the
// /metrics and /api/restart routes then answer 404 and 501.
func NewHandler(services *service.Service, log *logger.Logger, metrics http.Handler, restart func()) *Handler {
	return &Handler{services: services, log: log, metrics: metrics, restart: restart}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLog)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics))
	}

	h.registerAPIRoutes(router)

	router.GET("/ws", h.wsConnect)
	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/config", h.getConfig)
		api.POST("/config", requireJSON, h.saveConfig)
		api.POST("/reset", h.resetConfig)
		api.POST("/restart", h.restartDevice)

		api.GET("/readings", h.getReadings)
		api.GET("/logs", h.getLogs)
		api.GET("/events", h.getEvents)

		api.POST("/network/reconnect", h.reconnect)
	}
}
