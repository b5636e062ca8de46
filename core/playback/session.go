package playback

import (
	"errors"
	"sync"
	"time"
)

// Transport is the three-state lifecycle of a playback session.
type Transport string

const (
	TransportIdle    Transport = "idle"
	TransportPlaying Transport = "playing"
	TransportPaused  Transport = "paused"
)

var (
	// ErrSessionClosed is returned by operations on a torn-down session.
	ErrSessionClosed = errors.New("playback session closed")
	// ErrNoActiveTrack is returned when an operation needs an active track.
	ErrNoActiveTrack = errors.New("no active track")
)

// TrackRef identifies one playable track within a session.
type TrackRef struct {
	ID        int64  `json:"id"`
	SourceURL string `json:"sourceUrl"`
}

// Handle is the media resource backing one track. Handles are created
// lazily on first toggle and kept for the session's lifetime.
type Handle interface {
	Play() error
	Pause()
	SetPosition(seconds float64)
	Release()
}

// Opener creates the media handle for a track on first use.
type Opener func(TrackRef) (Handle, error)

// State is the observable playback session state returned by every
// operation. ActiveTrackID is 0 when no track is active.
type State struct {
	ActiveTrackID int64     `json:"activeTrackId"`
	Transport     Transport `json:"transport"`
	Position      float64   `json:"position"`
	Duration      float64   `json:"duration"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Session owns "which track, if any, is currently active" for one rendered
// view. At most one track is playing at any moment: selecting a new track
// stops the previous one inside the same transition.
type Session struct {
	mu        sync.Mutex
	open      Opener
	handles   map[int64]Handle
	durations map[int64]float64
	state     State
	seeking   bool
	closed    bool
	listeners []chan State
}

// NewSession creates a session. No media handles exist until the first
// toggle asks for one.
func NewSession(open Opener) *Session {
	return &Session{
		open:      open,
		handles:   make(map[int64]Handle),
		durations: make(map[int64]float64),
		state: State{
			Transport: TransportIdle,
			UpdatedAt: time.Now(),
		},
	}
}

// Snapshot returns the current observable state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Toggle is the single entry point driving all transitions: pause the
// active-and-playing track, resume the active-and-paused track, or stop
// whatever is active and start the given track.
func (s *Session) Toggle(track TrackRef) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.state, ErrSessionClosed
	}

	switch {
	case track.ID == s.state.ActiveTrackID && s.state.Transport == TransportPlaying:
		// Pause. The handle and position are retained so the session can resume.
		if h := s.handles[track.ID]; h != nil {
			h.Pause()
		}
		s.state.Transport = TransportPaused
		s.touchLocked()
		return s.state, nil

	case track.ID == s.state.ActiveTrackID && s.state.Transport == TransportPaused:
		h := s.handles[track.ID]
		if h == nil {
			// Handle vanished; treat as a fresh start below.
			break
		}
		if err := h.Play(); err != nil {
			// Resume failed: the session stays paused, caller may retry.
			return s.state, err
		}
		s.state.Transport = TransportPlaying
		s.touchLocked()
		return s.state, nil
	}

	return s.startLocked(track)
}

// startLocked stops the currently active track, then starts the given one.
// Exactly one stop happens before the new start.
func (s *Session) startLocked(track TrackRef) (State, error) {
	if prevID := s.state.ActiveTrackID; prevID != 0 && prevID != track.ID {
		if prev := s.handles[prevID]; prev != nil {
			prev.Pause()
			prev.SetPosition(0)
		}
	}

	h, ok := s.handles[track.ID]
	if !ok {
		created, err := s.open(track)
		if err != nil {
			s.resetLocked()
			return s.state, err
		}
		s.handles[track.ID] = created
		h = created
	}

	if err := h.Play(); err != nil {
		// The previous track is already stopped; fail atomically back to idle
		// rather than leaving the transport claiming playback.
		s.resetLocked()
		return s.state, err
	}

	s.state.ActiveTrackID = track.ID
	s.state.Transport = TransportPlaying
	s.state.Position = 0
	s.state.Duration = s.durations[track.ID]
	s.touchLocked()
	return s.state, nil
}

// StopAll unconditionally stops the active track and returns the session to
// idle. Calling it on an idle session is a no-op.
func (s *Session) StopAll() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.ActiveTrackID == 0 {
		return s.state
	}

	if h := s.handles[s.state.ActiveTrackID]; h != nil {
		h.Pause()
		h.SetPosition(0)
	}
	s.resetLocked()
	s.touchLocked()
	return s.state
}

// resetLocked clears the observable state back to idle.
func (s *Session) resetLocked() {
	s.state.ActiveTrackID = 0
	s.state.Transport = TransportIdle
	s.state.Position = 0
	s.state.Duration = 0
}

// Seek moves the active track to the given position, clamped to
// [0, duration]. Meaningless without an active track.
func (s *Session) Seek(seconds float64) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.state, ErrSessionClosed
	}
	if s.state.ActiveTrackID == 0 {
		return s.state, ErrNoActiveTrack
	}

	if seconds < 0 {
		seconds = 0
	}
	if s.state.Duration > 0 && seconds > s.state.Duration {
		seconds = s.state.Duration
	}

	if h := s.handles[s.state.ActiveTrackID]; h != nil {
		h.SetPosition(seconds)
	}
	s.state.Position = seconds
	s.touchLocked()
	return s.state, nil
}

// BeginSeek marks a user seek gesture in progress. Periodic position
// updates are dropped until EndSeek, so they cannot fight the drag.
func (s *Session) BeginSeek() {
	s.mu.Lock()
	s.seeking = true
	s.mu.Unlock()
}

// EndSeek ends the seek gesture.
func (s *Session) EndSeek() {
	s.mu.Lock()
	s.seeking = false
	s.mu.Unlock()
}

// PositionChanged records a periodic position notification from the media
// handle. Updates for non-active tracks and updates during a seek gesture
// are ignored.
func (s *Session) PositionChanged(trackID int64, seconds float64) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || trackID != s.state.ActiveTrackID || s.seeking {
		return s.state
	}
	s.state.Position = seconds
	s.touchLocked()
	return s.state
}

// DurationKnown records a track's total duration once the media handle has
// loaded its metadata.
func (s *Session) DurationKnown(trackID int64, seconds float64) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.state
	}
	s.durations[trackID] = seconds
	if trackID == s.state.ActiveTrackID {
		s.state.Duration = seconds
		s.touchLocked()
	}
	return s.state
}

// TrackEnded handles the natural end of a track. The ended handle's owning
// track is compared against the current active track first, so a stale
// completion from an already-replaced track has no effect.
func (s *Session) TrackEnded(trackID int64) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || trackID != s.state.ActiveTrackID {
		return s.state
	}

	if h := s.handles[trackID]; h != nil {
		h.Pause()
		h.SetPosition(0)
	}
	s.resetLocked()
	s.touchLocked()
	return s.state
}

// StartFailed handles an asynchronous playback-start failure reported after
// Toggle returned. Non-fatal: the transport must not stay in playing. A
// session that had progressed falls back to paused, otherwise to idle.
// Failures for tracks that are no longer active are ignored.
func (s *Session) StartFailed(trackID int64) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || trackID != s.state.ActiveTrackID {
		return s.state
	}
	if s.state.Transport != TransportPlaying {
		return s.state
	}

	if s.state.Position > 0 {
		s.state.Transport = TransportPaused
	} else {
		s.resetLocked()
	}
	s.touchLocked()
	return s.state
}

// Close tears the session down: every media handle is released and further
// operations fail with ErrSessionClosed. Safe to call twice.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	for id, h := range s.handles {
		h.Release()
		delete(s.handles, id)
	}
	s.resetLocked()

	for _, ch := range s.listeners {
		close(ch)
	}
	s.listeners = nil
}

// Subscribe returns a channel receiving a state snapshot after every
// transition. The channel is buffered; slow consumers miss intermediate
// snapshots instead of blocking transitions.
func (s *Session) Subscribe() <-chan State {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan State, 16)
	s.listeners = append(s.listeners, ch)
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (s *Session) Unsubscribe(ch <-chan State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, listener := range s.listeners {
		if listener == ch {
			close(listener)
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			break
		}
	}
}

// touchLocked stamps the state and fans it out to subscribers.
func (s *Session) touchLocked() {
	s.state.UpdatedAt = time.Now()
	for _, ch := range s.listeners {
		select {
		case ch <- s.state:
		default:
		}
	}
}
