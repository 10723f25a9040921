package session

import "sync"

// Accumulator composes the displayed input of a recording session from the
// text present when it started and the latest cumulative transcript.
type Accumulator struct {
	mu     sync.Mutex
	base   string
	live   string
	active bool
}

func (a *Accumulator) Begin(base string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.base = base
	a.live = ""
	a.active = true
}

// Update replaces the live transcript and returns the new display. Empty
// snapshots and snapshots outside a session change nothing and report false.
func (a *Accumulator) Update(snapshot string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.active || snapshot == "" {
		return Compose(a.base, a.live), false
	}
	a.live = snapshot
	return Compose(a.base, a.live), true
}

func (a *Accumulator) Display() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Compose(a.base, a.live)
}

// End closes the session and returns the final display.
func (a *Accumulator) End() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.active = false
	return Compose(a.base, a.live)
}

// Compose joins base and live with a single space, omitting it when either
// side is empty.
func Compose(base, live string) string {
	switch {
	case live == "":
		return base
	case base == "":
		return live
	default:
		return base + " " + live
	}
}
