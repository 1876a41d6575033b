package homework

// History remembers the last notified verdict per homework.
//
// It is owned by a single poll loop and is not safe for concurrent use.
// Entries are never removed.
type History struct {
	last map[string]string
}

func NewHistory() *History {
	return &History{last: map[string]string{}}
}

// Last returns the verdict last recorded for id.
func (h *History) Last(id string) (string, bool) {
	v, ok := h.last[id]
	return v, ok
}

// Record stores verdict as the last notified value for id.
func (h *History) Record(id, verdict string) {
	h.last[id] = verdict
}

func (h *History) Len() int { return len(h.last) }
