package devicechannel

import (
	"fmt"
	"io"
	"sync"
)

// Fixed element identifiers the channel writes to.
const (
	UptimeElementID = "uptime"
	LEDElementID    = "led"
)

// Element is a single text field on the control surface.
type Element interface {
	SetText(text string)
}

// Display looks up elements by id. A missing element is reported with
// ok == false and the channel skips the update.
type Display interface {
	Element(id string) (Element, bool)
}

// MemoryDisplay keeps element text in memory. It is safe for concurrent use,
// so a reader can poll Text while the channel writes.
type MemoryDisplay struct {
	mu       sync.RWMutex
	elements map[string]*memoryEntry
}

type memoryEntry struct {
	text   string
	writes int
}

// NewMemoryDisplay creates a display containing exactly the given element ids.
func NewMemoryDisplay(ids ...string) *MemoryDisplay {
	d := &MemoryDisplay{elements: make(map[string]*memoryEntry, len(ids))}
	for _, id := range ids {
		d.elements[id] = &memoryEntry{}
	}
	return d
}

func (d *MemoryDisplay) Element(id string) (Element, bool) {
	d.mu.RLock()
	_, ok := d.elements[id]
	d.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return memoryElement{display: d, id: id}, true
}

// Text returns the current text of an element.
func (d *MemoryDisplay) Text(id string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.elements[id]
	if !ok {
		return "", false
	}
	return e.text, true
}

// Writes returns how many times an element's text has been set.
func (d *MemoryDisplay) Writes(id string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if e, ok := d.elements[id]; ok {
		return e.writes
	}
	return 0
}

type memoryElement struct {
	display *MemoryDisplay
	id      string
}

func (e memoryElement) SetText(text string) {
	e.display.mu.Lock()
	defer e.display.mu.Unlock()
	if entry, ok := e.display.elements[e.id]; ok {
		entry.text = text
		entry.writes++
	}
}

// WriterDisplay renders every update as an "<id>: <text>" line.
type WriterDisplay struct {
	mu  sync.Mutex
	w   io.Writer
	ids map[string]struct{}
}

// NewWriterDisplay creates a display that writes to w. Only the listed ids
// exist.
func NewWriterDisplay(w io.Writer, ids ...string) *WriterDisplay {
	d := &WriterDisplay{w: w, ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		d.ids[id] = struct{}{}
	}
	return d
}

func (d *WriterDisplay) Element(id string) (Element, bool) {
	if _, ok := d.ids[id]; !ok {
		return nil, false
	}
	return writerElement{display: d, id: id}, true
}

type writerElement struct {
	display *WriterDisplay
	id      string
}

func (e writerElement) SetText(text string) {
	e.display.mu.Lock()
	defer e.display.mu.Unlock()
	fmt.Fprintf(e.display.w, "%s: %s\n", e.id, text) //nolint:errcheck
}
