package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kodiview/kodiview/internal/events"
)

// EventsHandler handles system event endpoints
type EventsHandler struct {
	eventBus events.EventBus
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(eventBus events.EventBus) *EventsHandler {
	return &EventsHandler{
		eventBus: eventBus,
	}
}

// GetEvents returns system events with filtering and pagination
func (h *EventsHandler) GetEvents(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	filter := events.EventFilter{}
	if eventType := c.Query("type"); eventType != "" {
		filter.Types = []events.EventType{events.EventType(eventType)}
	}
	if source := c.Query("source"); source != "" {
		filter.Sources = []string{source}
	}
	if priority := c.Query("priority"); priority != "" {
		if p, err := strconv.Atoi(priority); err == nil {
			prio := events.EventPriority(p)
			filter.Priority = &prio
		}
	}

	eventList, total, err := h.eventBus.GetEvents(filter, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve events",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": eventList,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetEventStats returns event bus statistics
func (h *EventsHandler) GetEventStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.eventBus.GetStats())
}

// GetEventHealth reports whether the event bus is keeping up
func (h *EventsHandler) GetEventHealth(c *gin.Context) {
	if err := h.eventBus.Health(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "degraded",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
