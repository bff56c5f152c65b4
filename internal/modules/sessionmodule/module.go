// Package sessionmodule binds UI sessions to Kodi devices and composes
// the now-playing view for a session's active device.
package sessionmodule

import (
	"sync"

	"github.com/kodiview/kodiview/internal/config"
	"github.com/kodiview/kodiview/internal/database"
	"github.com/kodiview/kodiview/internal/events"
	"github.com/kodiview/kodiview/internal/kodi"
	"github.com/kodiview/kodiview/internal/logger"
	"github.com/kodiview/kodiview/internal/modules/modulemanager"
	"gorm.io/gorm"
)

var (
	globalMu      sync.RWMutex
	globalManager *Manager
)

// GetManager returns the session manager created during module
// initialization. Nil before the module system has loaded.
func GetManager() *Manager {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalManager
}

// SetManager replaces the global session manager. Exposed for wiring and
// tests.
func SetManager(m *Manager) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalManager = m
}

// Auto-register the module when imported
func init() {
	Register()
}

// Register registers the session module with the module system
func Register() {
	modulemanager.Register(&Module{})
}

// Module wires the session manager into the module system.
type Module struct {
	manager *Manager
}

// ID returns the module identifier
func (m *Module) ID() string {
	return "session"
}

// Name returns the human-readable module name
func (m *Module) Name() string {
	return "Session Module"
}

// Core returns whether this is a core module
func (m *Module) Core() bool {
	return true
}

// Migrate performs database migrations for the module
func (m *Module) Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&database.SessionRecord{})
}

// Init initializes the module
func (m *Module) Init() error {
	cfg := config.Get()
	log := logger.New("session-module")

	status := kodi.NewStatusRegistry(cfg.Devices)
	client := kodi.NewClient(status, logger.New("kodi"))

	var store SessionStore
	if db := database.GetDB(); db != nil {
		store = NewGormStore(db)
	} else {
		log.Warn("database unavailable, session bindings will not survive restarts")
		store = NewMemoryStore()
	}

	m.manager = NewManager(cfg.Devices, client, status, store, events.GetGlobalEventBus(), log)
	SetManager(m.manager)

	log.Info("session module initialized", "devices", len(cfg.Devices))
	return nil
}
