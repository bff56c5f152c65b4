// Package prefsmodule persists the UI presentation preferences in a JSON
// file with atomic replacement and exposes them over /api/preferences.
package prefsmodule

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/kodiview/kodiview/internal/config"
	"github.com/kodiview/kodiview/internal/events"
	"github.com/kodiview/kodiview/internal/logger"
	"github.com/kodiview/kodiview/internal/modules/modulemanager"
	"github.com/kodiview/kodiview/internal/utils"
	"gorm.io/gorm"
)

var (
	globalMu    sync.RWMutex
	globalStore *Store
)

// GetStore returns the preference store created during module
// initialization. Nil before the module system has loaded.
func GetStore() *Store {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalStore
}

// SetStore replaces the global preference store. Exposed for wiring and
// tests.
func SetStore(s *Store) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalStore = s
}

// Auto-register the module when imported
func init() {
	Register()
}

// Register registers the preferences module with the module system
func Register() {
	modulemanager.Register(&Module{})
}

// Module wires the preference store into the module system.
type Module struct {
	store   *Store
	watcher *Watcher
}

// ID returns the module identifier
func (m *Module) ID() string {
	return "preferences"
}

// Name returns the human-readable module name
func (m *Module) Name() string {
	return "Preferences Module"
}

// Core returns whether this is a core module
func (m *Module) Core() bool {
	return true
}

// Migrate performs database migrations for the module
func (m *Module) Migrate(db *gorm.DB) error {
	// File-backed; nothing to migrate.
	return nil
}

// Init initializes the module
func (m *Module) Init() error {
	cfg := config.Get()
	log := logger.New("prefs-module")

	if err := utils.EnsureDir(filepath.Dir(cfg.Preferences.Path)); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}

	m.store = NewStore(cfg.Preferences.Path, log)
	SetStore(m.store)

	if cfg.Preferences.WatchChanges {
		watcher, err := NewWatcher(m.store, events.GetGlobalEventBus(), log)
		if err != nil {
			log.Warn("preferences watcher unavailable", "error", err)
		} else {
			m.watcher = watcher
		}
	}

	log.Info("preferences module initialized", "path", m.store.Path())
	return nil
}

// Shutdown stops the file watcher.
func (m *Module) Shutdown() error {
	if m.watcher != nil {
		return m.watcher.Close()
	}
	return nil
}

// RegisterRoutes registers the preferences endpoints.
func (m *Module) RegisterRoutes(router *gin.Engine) {
	prefs := router.Group("/api/preferences")
	{
		prefs.GET("", m.handleGet)
		prefs.POST("", m.handleSave)
	}
}

func (m *Module) handleGet(c *gin.Context) {
	c.JSON(http.StatusOK, m.store.Get())
}

func (m *Module) handleSave(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<16))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	merged, err := m.store.Save(body)
	if err != nil {
		if errors.Is(err, ErrInvalidPayload) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// The merged set is active in memory even when persisting failed.
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":       err.Error(),
			"preferences": merged,
		})
		return
	}

	if bus := events.GetGlobalEventBus(); bus != nil {
		bus.PublishAsync(events.NewModuleEvent(events.EventPreferencesUpdated, "preferences", "Preferences updated", ""))
	}
	c.JSON(http.StatusOK, merged)
}
