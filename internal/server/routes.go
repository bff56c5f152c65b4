package server

import (
	"github.com/gin-gonic/gin"
	"github.com/kodiview/kodiview/internal/server/handlers"
)

// setupRoutes configures the routes that do not belong to a module
func setupRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		// Health and diagnostics
		api.GET("/health", handlers.HandleHealthCheck)
		api.GET("/health/db", handlers.HandleDBStatus)
		api.GET("/health/system", handlers.HandleSystemInfo)
		api.GET("/health/db/pool", handlers.HandleConnectionPoolStats)

		// Event history and live streams
		eventsHandler := handlers.NewEventsHandler(systemEventBus)
		api.GET("/events", eventsHandler.GetEvents)
		api.GET("/events/stats", eventsHandler.GetEventStats)
		api.GET("/events/health", eventsHandler.GetEventHealth)
		api.GET("/events/stream", eventsHandler.EventStream)
		api.GET("/events/ws", eventsHandler.EventSocket)
	}
}
