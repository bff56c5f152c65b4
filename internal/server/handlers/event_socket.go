package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kodiview/kodiview/internal/events"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // same trust model as the CORS middleware
	},
}

// socketMessage is the envelope written to websocket clients.
type socketMessage struct {
	Type      string        `json:"type"`
	Event     *events.Event `json:"event,omitempty"`
	Timestamp int64         `json:"timestamp"`
}

// EventSocket streams bus events to a websocket client. The same query
// filters as the SSE stream apply.
func (h *EventsHandler) EventSocket(c *gin.Context) {
	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response
		return
	}
	defer conn.Close()

	eventChan := make(chan events.Event, 32)
	filter := filterFromQuery(c)

	subscription, err := h.eventBus.Subscribe(c.Request.Context(), filter, func(e events.Event) error {
		select {
		case eventChan <- e:
		default:
			// Slow client, drop rather than block the bus
		}
		return nil
	})
	if err != nil {
		conn.WriteJSON(socketMessage{Type: "error", Timestamp: time.Now().Unix()})
		return
	}
	defer h.eventBus.Unsubscribe(subscription.ID)

	conn.WriteJSON(socketMessage{Type: "connected", Timestamp: time.Now().Unix()})

	// Reader goroutine: the client sends nothing meaningful, but reading
	// is what detects a dropped connection.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case event := <-eventChan:
			if err := conn.WriteJSON(socketMessage{Type: "event", Event: &event, Timestamp: time.Now().Unix()}); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}
