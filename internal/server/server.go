package server

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/kodiview/kodiview/internal/database"
	"github.com/kodiview/kodiview/internal/events"
	"github.com/kodiview/kodiview/internal/logger"
	"github.com/kodiview/kodiview/internal/modules/modulemanager"

	// Import all modules to trigger their registration
	_ "github.com/kodiview/kodiview/internal/modules/nowplayingmodule"
	_ "github.com/kodiview/kodiview/internal/modules/prefsmodule"
	_ "github.com/kodiview/kodiview/internal/modules/sessionmodule"
)

var systemEventBus events.EventBus
var moduleInitialized bool

// SetupRouter configures and returns the main router
func SetupRouter() *gin.Engine {
	r := gin.Default()

	// CORS middleware; the backend is meant to sit behind the same
	// origin as the presentation layer, so this is permissive
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	if err := initializeEventBus(); err != nil {
		logger.Error("Failed to initialize event bus: %v", err)
	}

	if err := initializeModules(); err != nil {
		logger.Error("Failed to initialize modules: %v", err)
	}

	setupRoutes(r)
	modulemanager.RegisterRoutes(r)

	return r
}

// DisableModule disables a specific module (for development/testing only)
func DisableModule(moduleID string) {
	if moduleInitialized {
		logger.Warn("Attempting to disable module %s after modules have been initialized", moduleID)
		return
	}
	modulemanager.DisableModule(moduleID)
}

// initializeModules sets up the module system and loads all modules
func initializeModules() error {
	if moduleInitialized {
		return nil
	}

	db := database.GetDB()

	// Register the event bus globally so modules can access it
	events.SetGlobalEventBus(systemEventBus)

	if err := modulemanager.LoadAll(db); err != nil {
		return err
	}

	moduleInitialized = true
	logger.Info("Module system initialized with %d modules", len(modulemanager.ListModules()))
	return nil
}

// GetEventBus returns the global event bus instance
func GetEventBus() events.EventBus {
	return systemEventBus
}

// Shutdown stops the modules and then the event bus. Called after the
// HTTP server has drained.
func Shutdown() error {
	if err := modulemanager.ShutdownAll(); err != nil {
		logger.Error("Module shutdown reported an error: %v", err)
	}
	return ShutdownEventBus()
}

// ShutdownEventBus gracefully shuts down the event bus
func ShutdownEventBus() error {
	if systemEventBus == nil {
		return nil
	}

	shutdownEvent := events.NewSystemEvent(
		events.EventSystemStopped,
		"System Stopped",
		"kodiview backend is shutting down",
	)
	systemEventBus.PublishAsync(shutdownEvent)

	return systemEventBus.Stop(context.Background())
}

// initializeEventBus sets up the system-wide event bus
func initializeEventBus() error {
	config := events.DefaultEventBusConfig()

	var storage events.EventStorage
	if db := database.GetDB(); db != nil {
		storage = events.NewDatabaseEventStorage(db)
	} else {
		config.EnablePersistence = false
	}

	systemEventBus = events.NewEventBus(config, logger.New("events"), storage, events.NewBasicEventMetrics())

	if err := systemEventBus.Start(context.Background()); err != nil {
		return err
	}

	startupEvent := events.NewSystemEvent(
		events.EventSystemStarted,
		"System Started",
		"kodiview backend has started",
	)
	if err := systemEventBus.PublishAsync(startupEvent); err != nil {
		logger.Warn("Failed to publish startup event: %v", err)
	}

	return nil
}
