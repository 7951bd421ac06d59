package ports

import (
	"context"

	"github.com/mikey/newsletter-funnels/internal/core"
)

// CaptureServer defines the interface for services feeding newsletters into the catalog
type CaptureServer interface {
	// ProcessMessage parses a raw RFC 5322 message and stores it as a catalog item
	ProcessMessage(ctx context.Context, raw []byte) (*core.Item, error)

	// Start starts the capture service
	Start() error

	// Stop stops the capture service
	Stop() error
}
