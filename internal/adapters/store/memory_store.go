package store

import (
	"context"
	"sync"

	"github.com/mikey/newsletter-funnels/internal/core"
	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of the catalog and funnel repositories
type MemoryStore struct {
	items   map[string]core.Item
	funnels map[string]core.Funnel
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		items:   make(map[string]core.Item),
		funnels: make(map[string]core.Funnel),
		logger:  logger,
	}
}

// ListItems returns every captured item, newest first
func (s *MemoryStore) ListItems(ctx context.Context) ([]core.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]core.Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	sortNewestFirst(items)

	return items, nil
}

// GetItem retrieves a single item by id
func (s *MemoryStore) GetItem(ctx context.Context, id string) (*core.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &item, nil
}

// SaveItem stores a captured item
func (s *MemoryStore) SaveItem(ctx context.Context, item *core.Item) error {
	if err := validateItem(item); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[item.ID] = *item
	s.logger.Debug("Stored item", zap.String("id", item.ID))
	return nil
}

// SaveFunnel creates or updates a funnel by ID
func (s *MemoryStore) SaveFunnel(ctx context.Context, funnel *core.Funnel) error {
	if err := validateFunnel(funnel); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *funnel
	stored.SelectedIDs = append([]string{}, funnel.SelectedIDs...)
	s.funnels[funnel.ID] = stored
	return nil
}

// GetFunnel retrieves a funnel by ID
func (s *MemoryStore) GetFunnel(ctx context.Context, id string) (*core.Funnel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	funnel, ok := s.funnels[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	funnel.SelectedIDs = append([]string{}, funnel.SelectedIDs...)
	return &funnel, nil
}

// ListFunnels returns every funnel, most recently updated first
func (s *MemoryStore) ListFunnels(ctx context.Context) ([]core.Funnel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	funnels := make([]core.Funnel, 0, len(s.funnels))
	for _, funnel := range s.funnels {
		funnel.SelectedIDs = append([]string{}, funnel.SelectedIDs...)
		funnels = append(funnels, funnel)
	}
	sortRecentlyUpdated(funnels)

	return funnels, nil
}

// Stop is a no-op for the memory store
func (s *MemoryStore) Stop() {}
