package core

import (
	"context"
)

// CatalogRepository defines the interface for the captured newsletter catalog
type CatalogRepository interface {
	// ListItems returns every captured item, newest first
	ListItems(ctx context.Context) ([]Item, error)

	// GetItem retrieves a single item by id
	GetItem(ctx context.Context, id string) (*Item, error)

	// SaveItem stores a captured item
	SaveItem(ctx context.Context, item *Item) error
}

// FunnelRepository defines the interface for persisted funnels
type FunnelRepository interface {
	// SaveFunnel creates or updates a funnel by ID
	SaveFunnel(ctx context.Context, funnel *Funnel) error

	// GetFunnel retrieves a funnel by ID
	GetFunnel(ctx context.Context, id string) (*Funnel, error)

	// ListFunnels returns every funnel, most recently updated first
	ListFunnels(ctx context.Context) ([]Funnel, error)
}
