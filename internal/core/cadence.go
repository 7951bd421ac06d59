package core

import (
	"math"
	"sort"
	"time"
)

// ResolveItems maps selected ids to catalog items in selection order.
// Ids the catalog does not know are skipped.
func ResolveItems(selected Sequence, catalog []Item) []Item {
	byID := make(map[string]Item, len(catalog))
	for _, item := range catalog {
		byID[item.ID] = item
	}

	items := make([]Item, 0, len(selected))
	for _, id := range selected {
		if item, ok := byID[id]; ok {
			items = append(items, item)
		}
	}
	return items
}

// ComputeStats derives cadence figures from items already in selection order.
// It returns nil when there are fewer than two items.
func ComputeStats(orderedItems []Item) *CadenceStats {
	if len(orderedItems) < 2 {
		return nil
	}

	// Duration spans the chronological extremes, whatever the selection order
	chronological := make([]Item, len(orderedItems))
	copy(chronological, orderedItems)
	sort.SliceStable(chronological, func(i, j int) bool {
		return chronological[i].Timestamp.Before(chronological[j].Timestamp)
	})
	earliest := chronological[0].Timestamp
	latest := chronological[len(chronological)-1].Timestamp

	// Gaps follow selection order; out-of-order placements count by magnitude
	totalGap := 0
	for i := 1; i < len(orderedItems); i++ {
		gap := wholeHours(orderedItems[i].Timestamp.Sub(orderedItems[i-1].Timestamp))
		if gap < 0 {
			gap = -gap
		}
		totalGap += gap
	}
	average := math.Round(float64(totalGap) / float64(len(orderedItems)-1))

	emails := make([]Item, len(orderedItems))
	copy(emails, orderedItems)

	return &CadenceStats{
		TotalDurationDays: wholeDays(latest.Sub(earliest)),
		AverageGapHours:   int(average),
		OrderedEmails:     emails,
	}
}

// DayOffset returns the whole number of days between first and item
func DayOffset(item, first Item) int {
	return wholeDays(item.Timestamp.Sub(first.Timestamp))
}

// DayOffsets computes DayOffset for every item relative to the first one
func DayOffsets(orderedItems []Item) []int {
	offsets := make([]int, len(orderedItems))
	if len(orderedItems) == 0 {
		return offsets
	}
	for i, item := range orderedItems {
		offsets[i] = DayOffset(item, orderedItems[0])
	}
	return offsets
}

// wholeHours truncates toward zero
func wholeHours(d time.Duration) int {
	return int(d / time.Hour)
}

// wholeDays truncates toward zero
func wholeDays(d time.Duration) int {
	return int(d / (24 * time.Hour))
}
