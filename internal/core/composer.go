package core

import (
	"strings"

	"go.uber.org/zap"
)

// ComposerState is the read model rendered by the funnel editor
type ComposerState struct {
	SelectedIDs    Sequence
	AvailableItems []Item
	OrderedItems   []Item
	DayOffsets     []int
	Stats          *CadenceStats
	Criteria       FilterCriteria
	Drag           DragState
	ActiveID       string
}

// FunnelComposer owns the selection of one funnel being edited and keeps the
// candidate pool and cadence stats in step with it.
//
// A composer is not safe for concurrent use; it is driven by one editor.
type FunnelComposer struct {
	logger       *zap.Logger
	defaultColor string

	catalog  []Item
	selected Sequence
	criteria FilterCriteria
	drag     DragSession

	name        string
	description string
	color       string

	available []Item
	ordered   []Item
	stats     *CadenceStats
}

// NewFunnelComposer creates a composer over a catalog snapshot
func NewFunnelComposer(logger *zap.Logger, catalog []Item, defaultColor string) *FunnelComposer {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &FunnelComposer{
		logger:       logger,
		defaultColor: defaultColor,
		catalog:      catalog,
		selected:     Sequence{},
		criteria:     FilterCriteria{SenderEmail: FilterAll, Category: FilterAll},
	}
	c.recompute()
	return c
}

// Load seeds the composer from an existing funnel so it can be edited
func (c *FunnelComposer) Load(funnel *Funnel) {
	if funnel == nil {
		return
	}

	selected := Sequence{}
	for _, id := range funnel.SelectedIDs {
		selected = selected.Append(id)
	}

	c.selected = selected
	c.name = funnel.Name
	c.description = funnel.Description
	c.color = funnel.Color
	c.drag = DragSession{}

	c.logger.Debug("Loaded funnel into composer",
		zap.String("funnel_id", funnel.ID),
		zap.Int("selected", len(selected)))

	c.recompute()
}

// State returns the current read model. The returned slices are copies.
func (c *FunnelComposer) State() ComposerState {
	var stats *CadenceStats
	if c.stats != nil {
		s := *c.stats
		s.OrderedEmails = append([]Item(nil), c.stats.OrderedEmails...)
		stats = &s
	}
	return ComposerState{
		SelectedIDs:    append(Sequence{}, c.selected...),
		AvailableItems: append([]Item(nil), c.available...),
		OrderedItems:   append([]Item(nil), c.ordered...),
		DayOffsets:     DayOffsets(c.ordered),
		Stats:          stats,
		Criteria:       c.criteria,
		Drag:           c.drag.State(),
		ActiveID:       c.drag.ActiveID(),
	}
}

// Senders lists the senders present in the catalog for the sender filter
func (c *FunnelComposer) Senders() []Sender {
	return UniqueSenders(c.catalog)
}

// Categories lists the categories present in the catalog for the category filter
func (c *FunnelComposer) Categories() []string {
	return Categories(c.catalog)
}

// SetCatalog replaces the catalog snapshot.
// Selected ids missing from the new catalog stay selected; they are only skipped in stats.
func (c *FunnelComposer) SetCatalog(catalog []Item) {
	c.catalog = catalog
	c.recompute()

	if dangling := len(c.selected) - len(c.ordered); dangling > 0 {
		c.logger.Warn("Selected items missing from catalog",
			zap.Int("missing", dangling))
	}
}

// SetFilterCriteria changes the candidate pool filter
func (c *FunnelComposer) SetFilterCriteria(criteria FilterCriteria) {
	c.criteria = criteria
	c.recompute()
}

// SetDetails sets the descriptive fields of the funnel
func (c *FunnelComposer) SetDetails(name, description, color string) {
	c.name = name
	c.description = description
	c.color = color
}

// Details returns the descriptive fields as last set
func (c *FunnelComposer) Details() (name, description, color string) {
	return c.name, c.description, c.color
}

// Append adds id to the end of the timeline
func (c *FunnelComposer) Append(id string) Sequence {
	return c.apply("append", c.selected.Append(id), zap.String("id", id))
}

// InsertBefore adds id in front of anchor
func (c *FunnelComposer) InsertBefore(id, anchor string) Sequence {
	return c.apply("insert", c.selected.InsertBefore(id, anchor),
		zap.String("id", id), zap.String("anchor", anchor))
}

// Remove takes id off the timeline
func (c *FunnelComposer) Remove(id string) Sequence {
	return c.apply("remove", c.selected.Remove(id), zap.String("id", id))
}

// Move relocates id to toIndex
func (c *FunnelComposer) Move(id string, toIndex int) Sequence {
	return c.apply("move", c.selected.Move(id, toIndex),
		zap.String("id", id), zap.Int("to_index", toIndex))
}

// Clear empties the timeline
func (c *FunnelComposer) Clear() Sequence {
	return c.apply("clear", c.selected.Clear())
}

// StartDrag begins a drag gesture on id
func (c *FunnelComposer) StartDrag(id string) bool {
	next, ok := c.drag.Start(id)
	if !ok {
		c.logger.Debug("Drag start rejected",
			zap.String("id", id),
			zap.String("active_id", c.drag.ActiveID()))
		return false
	}
	c.drag = next
	return true
}

// DragOver reports which target the dragged item is hovering, for highlighting
func (c *FunnelComposer) DragOver(target string) (string, bool) {
	return c.drag.Over(target)
}

// Drop ends the current drag gesture on target
func (c *FunnelComposer) Drop(target string) DropAction {
	active := c.drag.ActiveID()
	next, selection, action := c.drag.Drop(target, c.selected)
	c.drag = next

	if action != DropNone {
		c.apply("drop_"+action.String(), selection,
			zap.String("id", active), zap.String("target", target))
	}
	return action
}

// CancelDrag abandons the current drag gesture
func (c *FunnelComposer) CancelDrag() {
	c.drag = c.drag.Cancel()
}

// Submit validates the composition and builds the persistence payload
func (c *FunnelComposer) Submit() (*FunnelDraft, error) {
	if len(c.selected) == 0 {
		return nil, &ValidationError{Field: "selected_ids", Reason: "at least one email is required"}
	}
	if len(c.ordered) == 0 {
		return nil, &ValidationError{Field: "selected_ids", Reason: "none of the selected emails are in the catalog"}
	}
	name := strings.TrimSpace(c.name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "name is required"}
	}

	color := strings.TrimSpace(c.color)
	if color == "" {
		color = c.defaultColor
	}

	first := c.ordered[0]
	last := c.ordered[len(c.ordered)-1]

	draft := &FunnelDraft{
		Name:         name,
		Description:  strings.TrimSpace(c.description),
		Color:        color,
		SelectedIDs:  append([]string{}, c.selected...),
		SenderEmail:  first.SenderEmail,
		SenderName:   first.SenderName,
		TotalEmails:  len(c.ordered),
		FirstEmailAt: first.Timestamp,
		LastEmailAt:  last.Timestamp,
	}

	if c.stats != nil {
		avg := c.stats.AverageGapHours
		days := c.stats.TotalDurationDays
		draft.AvgIntervalHours = &avg
		draft.TotalDurationDays = &days
	}

	c.logger.Info("Funnel draft ready",
		zap.String("name", draft.Name),
		zap.Int("total_emails", draft.TotalEmails))

	return draft, nil
}

// apply installs a new selection and refreshes derived state
func (c *FunnelComposer) apply(op string, next Sequence, fields ...zap.Field) Sequence {
	c.selected = next
	c.recompute()

	c.logger.Debug("Timeline updated",
		append(fields, zap.String("op", op), zap.Int("selected", len(c.selected)))...)

	return append(Sequence{}, c.selected...)
}

func (c *FunnelComposer) recompute() {
	c.available = FilterPool(c.catalog, c.selected, c.criteria)
	c.ordered = ResolveItems(c.selected, c.catalog)
	c.stats = ComputeStats(c.ordered)
}
