package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/mikey/newsletter-funnels/internal/core"
)

var (
	// ErrMissingID is returned when a record without an id is saved
	ErrMissingID = errors.New("record id is required")
)

func validateItem(item *core.Item) error {
	if item == nil || item.ID == "" {
		return ErrMissingID
	}
	return nil
}

func validateFunnel(funnel *core.Funnel) error {
	if funnel == nil || funnel.ID == "" {
		return ErrMissingID
	}
	return nil
}

func sortNewestFirst(items []core.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Timestamp.Equal(items[j].Timestamp) {
			return items[i].Timestamp.After(items[j].Timestamp)
		}
		return items[i].ID < items[j].ID
	})
}

func sortRecentlyUpdated(funnels []core.Funnel) {
	sort.SliceStable(funnels, func(i, j int) bool {
		if !funnels[i].UpdatedAt.Equal(funnels[j].UpdatedAt) {
			return funnels[i].UpdatedAt.After(funnels[j].UpdatedAt)
		}
		return funnels[i].ID < funnels[j].ID
	})
}

func encodeIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("failed to encode selected ids: %w", err)
	}
	return string(data), nil
}

func decodeIDs(data string) ([]string, error) {
	ids := []string{}
	if data == "" {
		return ids, nil
	}
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil, fmt.Errorf("failed to decode selected ids: %w", err)
	}
	return ids, nil
}
