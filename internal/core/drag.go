package core

// DragState is the phase of a drag gesture
type DragState int

const (
	// DragIdle means no gesture is in progress
	DragIdle DragState = iota
	// DragActive means an item has been picked up
	DragActive
)

func (s DragState) String() string {
	switch s {
	case DragIdle:
		return "idle"
	case DragActive:
		return "dragging"
	default:
		return "unknown"
	}
}

// DropAction is the sequence mutation a drop resolved to
type DropAction int

const (
	// DropNone leaves the sequence unchanged
	DropNone DropAction = iota
	// DropAppend adds a pool item to the end of the timeline
	DropAppend
	// DropInsert places a pool item before a timeline item
	DropInsert
	// DropMove reorders a timeline item
	DropMove
)

func (a DropAction) String() string {
	switch a {
	case DropNone:
		return "none"
	case DropAppend:
		return "append"
	case DropInsert:
		return "insert"
	case DropMove:
		return "move"
	default:
		return "unknown"
	}
}

// DragSession tracks a single in-progress drag gesture.
// The zero value is idle.
type DragSession struct {
	state    DragState
	activeID string
}

// State returns the current phase
func (d DragSession) State() DragState {
	return d.state
}

// ActiveID returns the id being dragged, or "" when idle
func (d DragSession) ActiveID() string {
	return d.activeID
}

// Start picks up id. It is rejected while another gesture is active.
func (d DragSession) Start(id string) (DragSession, bool) {
	if d.state == DragActive || id == "" {
		return d, false
	}
	return DragSession{state: DragActive, activeID: id}, true
}

// Over reports the hovered target while dragging. It never changes the session.
func (d DragSession) Over(target string) (string, bool) {
	if d.state != DragActive || target == "" || target == d.activeID {
		return "", false
	}
	return target, true
}

// Drop ends the gesture on target and applies the resulting mutation to selection.
// An empty target means the item was released outside any drop surface.
func (d DragSession) Drop(target string, selection Sequence) (DragSession, Sequence, DropAction) {
	if d.state != DragActive {
		return d, selection, DropNone
	}

	idle := DragSession{}
	active := d.activeID

	if target == "" || target == active {
		return idle, selection, DropNone
	}

	if !selection.Contains(active) {
		switch {
		case target == TimelineDropZone:
			return idle, selection.Append(active), DropAppend
		case selection.Contains(target):
			return idle, selection.InsertBefore(active, target), DropInsert
		}
		return idle, selection, DropNone
	}

	if at := selection.IndexOf(target); at >= 0 {
		return idle, selection.Move(active, at), DropMove
	}
	return idle, selection, DropNone
}

// Cancel abandons the gesture without touching the selection
func (d DragSession) Cancel() DragSession {
	return DragSession{}
}
