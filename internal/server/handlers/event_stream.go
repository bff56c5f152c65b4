package handlers

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kodiview/kodiview/internal/events"
)

// EventStream handles server-sent events streaming for real-time event updates
func (h *EventsHandler) EventStream(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")

	eventChan := make(chan events.Event, 10)
	filter := filterFromQuery(c)

	subscription, err := h.eventBus.Subscribe(c.Request.Context(), filter, func(e events.Event) error {
		select {
		case eventChan <- e:
		default:
			// Channel buffer full, discard event
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to subscribe to event stream",
		})
		return
	}

	// Send connection confirmation
	c.SSEvent("", gin.H{
		"type":    "connected",
		"message": "Connected to event stream",
		"time":    time.Now(),
	})
	c.Writer.Flush()

	// Close subscription when client disconnects
	go func() {
		<-c.Request.Context().Done()
		h.eventBus.Unsubscribe(subscription.ID)
		close(eventChan)
	}()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return false
			}
			c.SSEvent("", gin.H{
				"type": "event",
				"data": event,
				"time": time.Now(),
			})
			return true

		case <-time.After(30 * time.Second):
			// Heartbeat keeps intermediaries from closing the connection
			c.SSEvent("", gin.H{
				"type":    "heartbeat",
				"message": "keepalive",
				"time":    time.Now(),
			})
			return true
		}
	})
}

// filterFromQuery builds an event filter from stream query parameters.
func filterFromQuery(c *gin.Context) events.EventFilter {
	filter := events.EventFilter{}

	if eventTypes := c.Query("types"); eventTypes != "" {
		for _, t := range parseCSVParam(eventTypes) {
			filter.Types = append(filter.Types, events.EventType(t))
		}
	}
	if sources := c.Query("sources"); sources != "" {
		filter.Sources = parseCSVParam(sources)
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		var priority events.EventPriority
		switch priorityStr {
		case "low":
			priority = events.PriorityLow
		case "normal":
			priority = events.PriorityNormal
		case "high":
			priority = events.PriorityHigh
		case "critical":
			priority = events.PriorityCritical
		}
		if priority > 0 {
			filter.Priority = &priority
		}
	}
	return filter
}

// Helper function to parse comma-separated values
func parseCSVParam(param string) []string {
	var result []string
	for _, v := range strings.Split(param, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
