// Package modulemanager holds the registry the application modules join
// through their package init. The server loads them in one pass: migrate
// schemas, initialize, then mount routes.
package modulemanager

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/kodiview/kodiview/internal/logger"
	"gorm.io/gorm"
)

// Module is one self-registering unit: the session layer, the preference
// store, and the now-playing surface each implement this.
type Module interface {
	ID() string
	Name() string
	Core() bool // core modules cannot be disabled
	Migrate(db *gorm.DB) error
	Init() error
}

// RouteRegistrar is implemented by modules that expose HTTP endpoints.
type RouteRegistrar interface {
	RegisterRoutes(router *gin.Engine)
}

// Shutdowner is implemented by modules holding resources that outlive a
// request, like the preference file watcher.
type Shutdowner interface {
	Shutdown() error
}

// ModuleRegistry tracks registered modules and their disabled state.
type ModuleRegistry struct {
	mu          sync.RWMutex
	modules     map[string]Module
	disabled    map[string]bool
	initialized bool
}

// Registry is the global module registry
var Registry = &ModuleRegistry{
	modules:  make(map[string]Module),
	disabled: make(map[string]bool),
}

// Register adds a module to the registry
func Register(m Module) {
	Registry.Register(m)
}

// Register adds a module to the registry
func (r *ModuleRegistry) Register(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		logger.Warn("Module %s (%s) registered after initialization", m.Name(), m.ID())
	}

	r.modules[m.ID()] = m
	logger.Info("📦 Module registered: %s (%s)", m.Name(), m.ID())
}

// ordered returns the registered modules sorted by ID so migration,
// initialization, and shutdown run in a stable order.
func (r *ModuleRegistry) ordered() []Module {
	ids := make([]string, 0, len(r.modules))
	for id := range r.modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	modules := make([]Module, 0, len(ids))
	for _, id := range ids {
		modules = append(modules, r.modules[id])
	}
	return modules
}

// LoadAll initializes all registered modules
func LoadAll(db *gorm.DB) error {
	return Registry.LoadAll(db)
}

// LoadAll migrates and initializes every registered module that is not
// disabled by configuration.
func (r *ModuleRegistry) LoadAll(db *gorm.DB) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		logger.Warn("Module system already initialized")
		return nil
	}

	config, err := LoadConfig(GetDefaultConfigPath())
	if err != nil {
		logger.Warn("Failed to load module config, using defaults: %v", err)
		config = &ModuleConfig{}
	}

	for _, id := range config.Modules.Disabled {
		if m, ok := r.modules[id]; ok && m.Core() {
			return fmt.Errorf("attempted to disable core module: %s", id)
		}
		r.disabled[id] = true
		logger.Info("Module disabled via configuration: %s", id)
	}

	logger.Info("🔄 Loading %d modules...", len(r.modules))

	for _, module := range r.ordered() {
		if r.disabled[module.ID()] {
			logger.Warn("⚠️ Skipping module %s (disabled)", module.Name())
			continue
		}

		if err := module.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", module.Name(), err)
		}
		if err := module.Init(); err != nil {
			return fmt.Errorf("failed to initialize %s: %w", module.Name(), err)
		}

		logger.Info("✅ Module loaded: %s", module.Name())
	}

	r.initialized = true
	return nil
}

// DisableModule marks a module as disabled (for development/testing only)
func DisableModule(id string) {
	Registry.DisableModule(id)
}

// DisableModule marks a module as disabled
func (r *ModuleRegistry) DisableModule(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	module, exists := r.modules[id]
	if !exists {
		logger.Warn("Attempted to disable non-existent module: %s", id)
		return
	}

	if module.Core() {
		logger.Error("Cannot disable core module: %s", id)
		return
	}

	r.disabled[id] = true
	logger.Info("Module disabled: %s", id)
}

// ListModules returns all registered modules in ID order
func ListModules() []Module {
	return Registry.ListModules()
}

// ListModules returns all registered modules in ID order
func (r *ModuleRegistry) ListModules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ordered()
}

// ShutdownAll stops every loaded module that holds long-lived resources.
// Errors are collected so one failing module does not skip the rest.
func ShutdownAll() error {
	return Registry.ShutdownAll()
}

// ShutdownAll stops every loaded module that implements Shutdowner
func (r *ModuleRegistry) ShutdownAll() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var firstErr error
	for _, module := range r.ordered() {
		if r.disabled[module.ID()] {
			continue
		}
		s, ok := module.(Shutdowner)
		if !ok {
			continue
		}
		if err := s.Shutdown(); err != nil {
			logger.Error("Failed to shut down module %s: %v", module.Name(), err)
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to shut down %s: %w", module.Name(), err)
			}
		}
	}
	return firstErr
}

// RegisterRoutes registers routes for all modules that implement RouteRegistrar
func RegisterRoutes(router *gin.Engine) {
	Registry.RegisterRoutes(router)
}

// RegisterRoutes registers routes for all modules that implement RouteRegistrar
func (r *ModuleRegistry) RegisterRoutes(router *gin.Engine) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, module := range r.ordered() {
		if r.disabled[module.ID()] {
			continue
		}
		if registrar, ok := module.(RouteRegistrar); ok {
			logger.Info("Registering routes for module: " + module.Name())
			registrar.RegisterRoutes(router)
		}
	}
}
