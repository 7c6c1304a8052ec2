package winsys

import (
	"fmt"
	"sync"
)

// WindowState is the headless system's view of a single window.
type WindowState struct {
	Rect    Rect
	Mapped  bool
	Focused bool
}

// Headless is an in-memory WindowSystem. It records every call so tests can
// assert on the window system's view of the world, and it lets callers
// synthesize lifecycle events as if a display server had produced them.
type Headless struct {
	mu      sync.RWMutex
	windows map[WindowID]*WindowState
	stack   []WindowID // raise order, topmost last
	focused WindowID
	events  chan Event

	// FailNext, when set, makes the next call against that window fail.
	// Used to exercise the adapter-failure path.
	failNext map[WindowID]bool
}

// NewHeadless creates an empty headless window system.
func NewHeadless() *Headless {
	return &Headless{
		windows:  make(map[WindowID]*WindowState),
		events:   make(chan Event, 64),
		failNext: make(map[WindowID]bool),
	}
}

// AppearWindow registers a window and emits WindowAppeared, the way a map
// request would surface from a display server.
func (h *Headless) AppearWindow(id WindowID) {
	h.mu.Lock()
	if _, ok := h.windows[id]; !ok {
		h.windows[id] = &WindowState{}
	}
	h.mu.Unlock()
	h.events <- WindowAppeared{Window: id}
}

// DestroyWindow forgets a window and emits WindowDisappeared.
func (h *Headless) DestroyWindow(id WindowID) {
	h.mu.Lock()
	delete(h.windows, id)
	h.mu.Unlock()
	h.events <- WindowDisappeared{Window: id}
}

// RequestResize emits WindowRequestedResize for the window.
func (h *Headless) RequestResize(id WindowID, r Rect) {
	h.events <- WindowRequestedResize{Window: id, Rect: r}
}

// FailNextCall makes the next WindowSystem call targeting id return an
// error.
func (h *Headless) FailNextCall(id WindowID) {
	h.mu.Lock()
	h.failNext[id] = true
	h.mu.Unlock()
}

// State returns a copy of the recorded state for a window.
func (h *Headless) State(id WindowID) (WindowState, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	w, ok := h.windows[id]
	if !ok {
		return WindowState{}, false
	}
	return *w, true
}

// Focused returns the window currently holding input focus.
func (h *Headless) Focused() WindowID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.focused
}

func (h *Headless) check(id WindowID) (*WindowState, error) {
	if h.failNext[id] {
		delete(h.failNext, id)
		return nil, fmt.Errorf("window 0x%x: injected failure", uint32(id))
	}
	w, ok := h.windows[id]
	if !ok {
		return nil, fmt.Errorf("window 0x%x: no such window", uint32(id))
	}
	return w, nil
}

// Map implements WindowSystem.
func (h *Headless) Map(id WindowID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, err := h.check(id)
	if err != nil {
		return err
	}
	w.Mapped = true
	return nil
}

// Unmap implements WindowSystem.
func (h *Headless) Unmap(id WindowID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, err := h.check(id)
	if err != nil {
		return err
	}
	w.Mapped = false
	return nil
}

// MoveResize implements WindowSystem.
func (h *Headless) MoveResize(id WindowID, r Rect) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, err := h.check(id)
	if err != nil {
		return err
	}
	w.Rect = r
	return nil
}

// Raise implements WindowSystem.
func (h *Headless) Raise(id WindowID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.check(id); err != nil {
		return err
	}
	for i, existing := range h.stack {
		if existing == id {
			h.stack = append(h.stack[:i], h.stack[i+1:]...)
			break
		}
	}
	h.stack = append(h.stack, id)
	return nil
}

// SetInputFocus implements WindowSystem.
func (h *Headless) SetInputFocus(id WindowID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, err := h.check(id)
	if err != nil {
		return err
	}
	if prev, ok := h.windows[h.focused]; ok {
		prev.Focused = false
	}
	w.Focused = true
	h.focused = id
	return nil
}

// Close implements WindowSystem. The headless system treats a close request
// as an immediate destroy, which also emits WindowDisappeared.
func (h *Headless) Close(id WindowID) error {
	h.mu.Lock()
	if _, err := h.check(id); err != nil {
		h.mu.Unlock()
		return err
	}
	delete(h.windows, id)
	h.mu.Unlock()
	h.events <- WindowDisappeared{Window: id}
	return nil
}

// Kill implements WindowSystem. Headless has no client to sever, so the
// effect matches Close: the window is dropped and WindowDisappeared fires.
func (h *Headless) Kill(id WindowID) error {
	h.mu.Lock()
	if _, err := h.check(id); err != nil {
		h.mu.Unlock()
		return err
	}
	delete(h.windows, id)
	h.mu.Unlock()
	h.events <- WindowDisappeared{Window: id}
	return nil
}

// Events implements WindowSystem.
func (h *Headless) Events() <-chan Event {
	return h.events
}

// RecordingPublisher is a Publisher that keeps the most recent snapshot and
// a count of publishes, for tests and for the headless daemon run.
type RecordingPublisher struct {
	mu        sync.Mutex
	last      Snapshot
	publishes int
}

// NewRecordingPublisher creates an empty RecordingPublisher.
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

// Publish implements Publisher.
func (p *RecordingPublisher) Publish(s Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = s
	p.publishes++
}

// Last returns the most recently published snapshot.
func (p *RecordingPublisher) Last() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Publishes returns how many snapshots have been published.
func (p *RecordingPublisher) Publishes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.publishes
}
