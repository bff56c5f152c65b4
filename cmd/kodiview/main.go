package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kodiview/kodiview/internal/config"
	"github.com/kodiview/kodiview/internal/database"
	"github.com/kodiview/kodiview/internal/logger"
	"github.com/kodiview/kodiview/internal/server"
)

func main() {
	if err := config.Load(os.Getenv("KODIVIEW_CONFIG")); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	logger.Configure(cfg.Logging.Level, cfg.Logging.Format)

	if err := database.Initialize(); err != nil {
		logger.Error("Database initialization failed: %v", err)
		os.Exit(1)
	}

	r := server.SetupRouter()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logger.Info("Starting kodiview server on %s (%d devices configured)", addr, len(cfg.Devices))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("Forced shutdown: %v", err)
	}

	if err := server.Shutdown(); err != nil {
		logger.Warn("Shutdown: %v", err)
	}
}
