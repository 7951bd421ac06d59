package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/newsletter-funnels/internal/competitors"
	"github.com/mikey/newsletter-funnels/internal/config"
	"github.com/mikey/newsletter-funnels/internal/core"
	"github.com/mikey/newsletter-funnels/internal/factory"
	"github.com/mikey/newsletter-funnels/internal/logging"
	"github.com/mikey/newsletter-funnels/internal/ports"
	"github.com/mikey/newsletter-funnels/internal/utils"
)

// BuildContainer creates and configures the dependency injection container for the capture daemon
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideStore(container); err != nil {
		return nil, err
	}

	// Register tracked competitor domains
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *competitors.Tracker {
		return competitors.NewTracker(cfg.GetStringSlice("capture.tracked_domains"), logger)
	}); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}

	// Register capture server
	if err := container.Provide(factory.NewCaptureFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.CaptureFactory) (ports.CaptureServer, error) {
		return f.CreateCaptureServer()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideStore registers the store and exposes it under both repository interfaces
func provideStore(container *dig.Container) error {
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.StoreFactory) (ports.Store, error) {
		return f.CreateStore()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(s ports.Store) core.CatalogRepository { return s }); err != nil {
		return err
	}
	return container.Provide(func(s ports.Store) core.FunnelRepository { return s })
}
