package client

// PhaseStatus is the display state of one tracked phase name.
type PhaseStatus string

const (
	PhaseActive PhaseStatus = "active"
	PhaseDone   PhaseStatus = "done"
)

// PhaseItem is one entry of a PhaseTracker.
type PhaseItem struct {
	Name   string      `json:"name"`
	Status PhaseStatus `json:"status"`
}

// PhaseTracker derives a progress list from the sheet or table names seen
// in a progress stream. Names keep the order they were first seen in; the
// most recently seen name is active and every other name is done.
type PhaseTracker struct {
	names    []string
	index    map[string]int
	active   int
	finished bool
}

// NewPhaseTracker creates an empty tracker.
func NewPhaseTracker() *PhaseTracker {
	t := &PhaseTracker{}
	t.Reset()
	return t
}

// Observe records name as the current phase. Empty names are ignored.
func (t *PhaseTracker) Observe(name string) {
	if name == "" {
		return
	}
	i, ok := t.index[name]
	if !ok {
		i = len(t.names)
		t.names = append(t.names, name)
		t.index[name] = i
	}
	t.active = i
	t.finished = false
}

// Finish marks every phase done.
func (t *PhaseTracker) Finish() {
	t.finished = true
}

// Reset forgets every phase.
func (t *PhaseTracker) Reset() {
	t.names = nil
	t.index = make(map[string]int)
	t.active = -1
	t.finished = false
}

// Items returns the phases in first-seen order.
func (t *PhaseTracker) Items() []PhaseItem {
	items := make([]PhaseItem, len(t.names))
	for i, name := range t.names {
		status := PhaseDone
		if i == t.active && !t.finished {
			status = PhaseActive
		}
		items[i] = PhaseItem{Name: name, Status: status}
	}
	return items
}

// Active returns the active phase name, or "" when none is active.
func (t *PhaseTracker) Active() string {
	if t.active < 0 || t.finished {
		return ""
	}
	return t.names[t.active]
}
