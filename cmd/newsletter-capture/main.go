package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/newsletter-funnels/internal/di"
	"github.com/mikey/newsletter-funnels/internal/ports"
	"go.uber.org/zap"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	captureServer ports.CaptureServer,
	store ports.Store,
) error {
	defer logger.Sync()
	defer store.Stop()

	if err := captureServer.Start(); err != nil {
		logger.Error("Failed to start capture server", zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	if err := captureServer.Stop(); err != nil {
		logger.Error("Failed to stop capture server", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return nil
}
