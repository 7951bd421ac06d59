package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/newsletter-funnels/internal/adapters/store"
	"github.com/mikey/newsletter-funnels/internal/config"
	"github.com/mikey/newsletter-funnels/internal/ports"
	"go.uber.org/zap"
)

// StoreFactory creates stores based on configuration
type StoreFactory struct {
	cfg    config.StoreConfig
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg.GetStore(),
		logger: logger,
	}
}

// CreateStore creates a store based on the configuration
func (f *StoreFactory) CreateStore() (ports.Store, error) {
	f.logger.Debug("Opening store", zap.String("type", f.cfg.Type))

	switch f.cfg.Type {
	case "memory":
		return store.NewMemoryStore(f.logger), nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(f.cfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return store.NewSQLiteStore(f.cfg.SQLitePath, f.logger)
	case "mysql":
		return store.NewMySQLStore(f.cfg.MySQLDSN, f.logger)
	case "disk":
		if f.cfg.DiskCacheSize < 0 {
			return nil, fmt.Errorf("invalid disk cache size: %d", f.cfg.DiskCacheSize)
		}
		return store.NewDiskStore(f.cfg.DiskPath, uint64(f.cfg.DiskCacheSize), f.logger)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", f.cfg.Type)
	}
}
