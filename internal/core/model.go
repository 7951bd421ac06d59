package core

import (
	"time"
)

// FilterAll is the sentinel criteria value meaning "no restriction"
const FilterAll = "all"

// TimelineDropZone is the drop target id of the empty timeline surface
const TimelineDropZone = "timeline-drop-zone"

// Item represents a captured newsletter email
type Item struct {
	ID          string
	SenderEmail string
	SenderName  string
	Subject     string
	Category    string
	Timestamp   time.Time
	BodyRef     string
	Preview     string
}

// DisplayName returns the sender name, or the sender email when no name is known
func (i Item) DisplayName() string {
	if i.SenderName != "" {
		return i.SenderName
	}
	return i.SenderEmail
}

// FilterCriteria narrows the candidate pool
type FilterCriteria struct {
	Text        string
	SenderEmail string
	Category    string
}

// Sender is one entry of the sender filter listing
type Sender struct {
	Email string
	Name  string
}

// CadenceStats holds the timing figures derived from an ordered selection
type CadenceStats struct {
	TotalDurationDays int
	AverageGapHours   int
	OrderedEmails     []Item
}

// FunnelDraft is the persistence payload produced by the composer
type FunnelDraft struct {
	Name              string
	Description       string
	Color             string
	SelectedIDs       []string
	SenderEmail       string
	SenderName        string
	TotalEmails       int
	FirstEmailAt      time.Time
	LastEmailAt       time.Time
	AvgIntervalHours  *int
	TotalDurationDays *int
}

// Funnel is a persisted funnel record
type Funnel struct {
	ID string
	FunnelDraft
	CreatedAt time.Time
	UpdatedAt time.Time
}
