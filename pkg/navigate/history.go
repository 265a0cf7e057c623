package navigate

import "sync"

// History records the session's navigation entries.
type History interface {
	Push(href string)
	Replace(href string)
	// Back moves to the previous entry and returns it.
	Back() (string, bool)
	Current() string
}

// MemoryHistory is an in-memory History.
type MemoryHistory struct {
	mu      sync.Mutex
	entries []string
}

// NewMemoryHistory creates a history whose first entry is start, if set.
func NewMemoryHistory(start string) *MemoryHistory {
	h := &MemoryHistory{}
	if start != "" {
		h.entries = append(h.entries, start)
	}
	return h
}

// Push appends an entry.
func (h *MemoryHistory) Push(href string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, href)
}

// Replace overwrites the current entry.
func (h *MemoryHistory) Replace(href string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		h.entries = append(h.entries, href)
		return
	}
	h.entries[len(h.entries)-1] = href
}

// Back drops the current entry and returns the previous one.
func (h *MemoryHistory) Back() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) < 2 {
		return "", false
	}
	h.entries = h.entries[:len(h.entries)-1]
	return h.entries[len(h.entries)-1], true
}

// Current returns the current entry.
func (h *MemoryHistory) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		return ""
	}
	return h.entries[len(h.entries)-1]
}

// Entries returns a copy of all entries, oldest first.
func (h *MemoryHistory) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...)
}
