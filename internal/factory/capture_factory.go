package factory

import (
	"github.com/mikey/newsletter-funnels/internal/adapters/capture"
	"github.com/mikey/newsletter-funnels/internal/competitors"
	"github.com/mikey/newsletter-funnels/internal/config"
	"github.com/mikey/newsletter-funnels/internal/core"
	"github.com/mikey/newsletter-funnels/internal/ports"
	"github.com/mikey/newsletter-funnels/internal/utils"
	"go.uber.org/zap"
)

// CaptureFactory creates capture servers based on configuration
type CaptureFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	catalog core.CatalogRepository
	tracker *competitors.Tracker
	text    *utils.TextProcessor
}

// NewCaptureFactory creates a new capture factory
func NewCaptureFactory(
	cfg *config.Config,
	logger *zap.Logger,
	catalog core.CatalogRepository,
	tracker *competitors.Tracker,
	text *utils.TextProcessor,
) *CaptureFactory {
	return &CaptureFactory{
		cfg:     cfg,
		logger:  logger,
		catalog: catalog,
		tracker: tracker,
		text:    text,
	}
}

// CreateCaptureServer creates the SMTP capture server
func (f *CaptureFactory) CreateCaptureServer() (ports.CaptureServer, error) {
	captureCfg, err := f.cfg.GetCapture()
	if err != nil {
		return nil, err
	}

	return capture.NewSMTPServer(f.catalog, f.tracker, f.text, f.logger, captureCfg), nil
}
