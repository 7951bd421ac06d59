package core

// Sequence is the ordered list of selected item ids that forms a funnel timeline.
//
// Every operation returns a new Sequence and leaves the receiver untouched, so a
// caller can keep earlier values around as snapshots. Invalid input never fails,
// it just returns the sequence unchanged.
type Sequence []string

// IndexOf returns the position of id, or -1
func (s Sequence) IndexOf(id string) int {
	for i, v := range s {
		if v == id {
			return i
		}
	}
	return -1
}

// Contains reports whether id is part of the sequence
func (s Sequence) Contains(id string) bool {
	return s.IndexOf(id) >= 0
}

// Append adds id at the end unless it is already present
func (s Sequence) Append(id string) Sequence {
	if id == "" || s.Contains(id) {
		return s
	}
	out := make(Sequence, len(s), len(s)+1)
	copy(out, s)
	return append(out, id)
}

// InsertBefore places id immediately before anchor.
// When anchor is not in the sequence it behaves like Append.
func (s Sequence) InsertBefore(id, anchor string) Sequence {
	if id == "" || s.Contains(id) {
		return s
	}
	at := s.IndexOf(anchor)
	if at < 0 {
		return s.Append(id)
	}

	out := make(Sequence, 0, len(s)+1)
	out = append(out, s[:at]...)
	out = append(out, id)
	return append(out, s[at:]...)
}

// Remove drops id from the sequence
func (s Sequence) Remove(id string) Sequence {
	at := s.IndexOf(id)
	if at < 0 {
		return s
	}

	out := make(Sequence, 0, len(s)-1)
	out = append(out, s[:at]...)
	return append(out, s[at+1:]...)
}

// Move relocates an existing id to toIndex, clamped to the sequence bounds
func (s Sequence) Move(id string, toIndex int) Sequence {
	from := s.IndexOf(id)
	if from < 0 {
		return s
	}

	if toIndex < 0 {
		toIndex = 0
	}
	if toIndex > len(s)-1 {
		toIndex = len(s) - 1
	}
	if toIndex == from {
		return s
	}

	out := make(Sequence, 0, len(s))
	out = append(out, s[:from]...)
	out = append(out, s[from+1:]...)

	out = append(out, "")
	copy(out[toIndex+1:], out[toIndex:])
	out[toIndex] = id
	return out
}

// Clear returns an empty sequence
func (s Sequence) Clear() Sequence {
	return Sequence{}
}
