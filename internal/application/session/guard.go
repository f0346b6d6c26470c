// Package session tracks per-session edit state so clients can be warned
// before navigating away from a form with unsaved changes. The registry is
// advisory: it never blocks a navigation by itself, it only reports whether
// a confirmation is needed.
package session

import (
	"sync"
	"time"
)

// NavigationCheck is the guard's answer to "may this session leave its
// current path".
type NavigationCheck struct {
	// Prompt is true when the session has unsaved changes on a different
	// path than the one it wants to go to
	Prompt bool `json:"prompt"`
	// DirtyPath is the path holding the unsaved changes, empty when clean
	DirtyPath string `json:"dirty_path,omitempty"`
}

type editState struct {
	path    string
	dirty   bool
	touched time.Time
}

// EditGuard is a registry of dirty edit state keyed by session ID. Each
// session has at most one tracked form at a time; starting an edit on a new
// path replaces the previous entry.
type EditGuard struct {
	mu       sync.RWMutex
	sessions map[string]*editState
	ttl      time.Duration
}

// DefaultEditTTL bounds how long an abandoned dirty flag survives
const DefaultEditTTL = 2 * time.Hour

// NewEditGuard creates a new edit guard
func NewEditGuard() *EditGuard {
	return &EditGuard{
		sessions: make(map[string]*editState),
		ttl:      DefaultEditTTL,
	}
}

// SetTTL overrides how long a dirty flag is honored
func (g *EditGuard) SetTTL(ttl time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ttl = ttl
}

// MarkDirty records that the session has unsaved changes on the given path
func (g *EditGuard) MarkDirty(sessionID, path string) {
	if sessionID == "" || path == "" {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[sessionID] = &editState{
		path:    path,
		dirty:   true,
		touched: time.Now(),
	}
}

// MarkClean clears the session's unsaved changes. Called when the form is
// saved, discarded, or the edit otherwise resolved.
func (g *EditGuard) MarkClean(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.sessions, sessionID)
}

// CheckNavigation reports whether moving the session to targetPath needs a
// confirmation. Staying on the dirty path never prompts.
func (g *EditGuard) CheckNavigation(sessionID, targetPath string) NavigationCheck {
	g.mu.RLock()
	state, ok := g.sessions[sessionID]
	ttl := g.ttl
	g.mu.RUnlock()

	if !ok || !state.dirty {
		return NavigationCheck{}
	}
	if time.Since(state.touched) > ttl {
		g.MarkClean(sessionID)
		return NavigationCheck{}
	}
	if state.path == targetPath {
		return NavigationCheck{}
	}
	return NavigationCheck{Prompt: true, DirtyPath: state.path}
}

// Resolve applies the user's answer to a navigation prompt. Leaving discards
// the dirty flag; staying keeps it untouched.
func (g *EditGuard) Resolve(sessionID string, leave bool) {
	if leave {
		g.MarkClean(sessionID)
	}
}

// Sweep drops expired entries. Intended for a periodic background call; the
// guard stays correct without it since CheckNavigation also expires lazily.
func (g *EditGuard) Sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-g.ttl)
	for id, state := range g.sessions {
		if state.touched.Before(cutoff) {
			delete(g.sessions, id)
			removed++
		}
	}
	return removed
}
