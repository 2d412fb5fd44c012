package executor

import (
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Session is the handle for one running desktop process. It owns the child
// process and its scratch directory.
type Session struct {
	ID  string
	Dir string

	cmd  *exec.Cmd
	done chan struct{} // closed once Wait returns
}

func (s *Session) exited() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// EventType classifies desktop session lifecycle events.
type EventType string

const (
	EventStarted EventType = "started"
	EventExited  EventType = "exited"
	EventStopped EventType = "stopped"
)

// Event is a desktop session lifecycle notification.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StopResult reports the outcome of a stop request.
type StopResult struct {
	Stopped bool   `json:"stopped"`
	Message string `json:"message"`
}

// Registry tracks the single desktop session allowed system-wide. The slot
// holds zero or one Session and every transition happens under the mutex.
type Registry struct {
	mu     sync.Mutex
	active *Session
	grace  time.Duration

	subMu sync.Mutex
	subs  map[chan Event]struct{}
}

// NewRegistry creates a registry. grace is how long Stop waits after SIGTERM
// before escalating to SIGKILL.
func NewRegistry(grace time.Duration) *Registry {
	if grace <= 0 {
		grace = 3 * time.Second
	}
	return &Registry{
		grace: grace,
		subs:  make(map[chan Event]struct{}),
	}
}

// put registers a freshly launched session as the active one.
func (r *Registry) put(s *Session) {
	r.mu.Lock()
	r.active = s
	r.mu.Unlock()
	r.publish(Event{Type: EventStarted, SessionID: s.ID})
}

// clearIf empties the slot only if it still refers to the given session,
// guarding against a subsequent launch having already replaced it.
func (r *Registry) clearIf(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != s {
		return false
	}
	r.active = nil
	return true
}

// ActiveID returns the ID of the current session, if any.
func (r *Registry) ActiveID() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return "", false
	}
	return r.active.ID, true
}

// Stop terminates the active desktop session: SIGTERM, a grace period, then
// SIGKILL if the process refuses to die. Safe to call with nothing running.
func (r *Registry) Stop() StopResult {
	r.mu.Lock()
	sess := r.active
	r.active = nil
	r.mu.Unlock()

	if sess == nil || sess.exited() {
		return StopResult{Stopped: false, Message: "No desktop process was running."}
	}

	sess.cmd.Process.Signal(syscall.SIGTERM)
	select {
	case <-sess.done:
	case <-time.After(r.grace):
		sess.cmd.Process.Kill()
		<-sess.done
	}

	r.publish(Event{Type: EventStopped, SessionID: sess.ID})
	return StopResult{Stopped: true, Message: "Desktop process stopped."}
}

// Subscribe returns a channel of lifecycle events and a cancel func that must
// be called when the subscriber goes away. Slow subscribers drop events rather
// than block the executor.
func (r *Registry) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)
	r.subMu.Lock()
	r.subs[ch] = struct{}{}
	r.subMu.Unlock()

	cancel := func() {
		r.subMu.Lock()
		delete(r.subs, ch)
		r.subMu.Unlock()
	}
	return ch, cancel
}

func (r *Registry) publish(ev Event) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for ch := range r.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
