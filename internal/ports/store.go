package ports

import (
	"github.com/mikey/newsletter-funnels/internal/core"
)

// Store defines a backend holding both the captured catalog and saved funnels
type Store interface {
	core.CatalogRepository
	core.FunnelRepository

	// Stop releases any resources held by the store
	Stop()
}
