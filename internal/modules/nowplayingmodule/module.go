// Package nowplayingmodule serves the composed now-playing view: the
// normalized playback snapshot, resolved artwork, connection status and
// the current presentation preferences in one response.
package nowplayingmodule

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kodiview/kodiview/internal/logger"
	"github.com/kodiview/kodiview/internal/modules/modulemanager"
	"github.com/kodiview/kodiview/internal/modules/prefsmodule"
	"github.com/kodiview/kodiview/internal/modules/sessionmodule"
	"gorm.io/gorm"
)

// Auto-register the module when imported
func init() {
	Register()
}

// Register registers the now-playing module with the module system
func Register() {
	modulemanager.Register(&Module{})
}

// Module exposes the now-playing HTTP surface.
type Module struct{}

// ID returns the module identifier
func (m *Module) ID() string {
	return "nowplaying"
}

// Name returns the human-readable module name
func (m *Module) Name() string {
	return "Now Playing Module"
}

// Core returns whether this is a core module
func (m *Module) Core() bool {
	return true
}

// Migrate performs database migrations for the module
func (m *Module) Migrate(db *gorm.DB) error {
	// Stateless; composes other modules.
	return nil
}

// Init initializes the module
func (m *Module) Init() error {
	logger.New("nowplaying-module").Info("now playing module initialized")
	return nil
}

// RegisterRoutes registers the now-playing endpoints.
func (m *Module) RegisterRoutes(router *gin.Engine) {
	nowplaying := router.Group("/api/nowplaying")
	{
		nowplaying.GET("", m.handleNowPlaying)
		nowplaying.GET("/progress", m.handleProgress)
	}
}

func (m *Module) handleNowPlaying(c *gin.Context) {
	manager := sessionmodule.GetManager()
	if manager == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session manager not ready"})
		return
	}

	key := sessionmodule.SessionKey(c)
	view, err := manager.Snapshot(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	response := gin.H{
		"device_id":         view.DeviceID,
		"snapshot":          view.Snapshot,
		"artwork":           view.Artwork,
		"connection_status": view.Connection,
	}
	if store := prefsmodule.GetStore(); store != nil {
		response["preferences"] = store.Get()
	}
	c.JSON(http.StatusOK, response)
}

func (m *Module) handleProgress(c *gin.Context) {
	manager := sessionmodule.GetManager()
	if manager == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session manager not ready"})
		return
	}

	key := sessionmodule.SessionKey(c)
	progress, err := manager.Progress(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, progress)
}
