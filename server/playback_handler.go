package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"mashrabu/core/download"
	"mashrabu/core/playback"
	"mashrabu/logger"
	"mashrabu/metrics"
	"mashrabu/repository"

	"github.com/gorilla/mux"
)

// remoteHandle is the media handle for a track whose audio lives on the media
// host. The renderer owns the actual element; the server side only validates
// the source and tracks lifecycle.
type remoteHandle struct {
	ref playback.TrackRef
}

func (h *remoteHandle) Play() error             { return nil }
func (h *remoteHandle) Pause()                  {}
func (h *remoteHandle) SetPosition(sec float64) {}
func (h *remoteHandle) Release()                {}

func openRemoteTrack(ref playback.TrackRef) (playback.Handle, error) {
	if ref.SourceURL == "" {
		return nil, errors.New("track has no source url")
	}
	return &remoteHandle{ref: ref}, nil
}

// CreateSessionRequest mounts a playback session over one day's track set.
type CreateSessionRequest struct {
	DayID int64 `json:"dayId"`
}

// CreateSessionResponse returns the session handle and its initial state.
type CreateSessionResponse struct {
	SessionID string         `json:"sessionId"`
	State     playback.State `json:"state"`
}

// CreateSessionHandler mounts a playback session for a day. The session
// resolves toggle requests by track id against the day's current track set.
func (h *APIHandler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	day, err := h.days.GetByID(r.Context(), req.DayID)
	if errors.Is(err, repository.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Day not found")
		return
	}
	if err != nil {
		logger.Error("Failed to get day", logger.Int64("dayId", req.DayID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to get day")
		return
	}

	tracks, err := h.dayTracks(r.Context(), day.ID)
	if err != nil {
		logger.Error("Failed to list tracks", logger.Int64("dayId", day.ID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to list tracks")
		return
	}

	refs := make(map[int64]playback.TrackRef, len(tracks))
	for _, t := range tracks {
		refs[t.ID] = playback.TrackRef{ID: t.ID, SourceURL: t.URL}
	}

	id, session := h.sessions.Create(openRemoteTrack)

	h.mu.Lock()
	h.views[id] = &playbackView{dayNumber: day.Number, session: session, tracks: refs}
	h.mu.Unlock()

	logger.Info("Playback session mounted",
		logger.String("sessionId", id),
		logger.Int64("dayId", day.ID),
		logger.Int("tracks", len(refs)),
	)
	respondJSON(w, http.StatusCreated, CreateSessionResponse{SessionID: id, State: session.Snapshot()})
}

// DeleteSessionHandler unmounts a playback session, stopping playback and
// releasing every media handle it opened.
func (h *APIHandler) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	h.mu.Lock()
	_, ok := h.views[id]
	delete(h.views, id)
	h.mu.Unlock()

	if !ok {
		respondError(w, http.StatusNotFound, "Session not found")
		return
	}

	h.sessions.Close(id)
	logger.Info("Playback session unmounted", logger.String("sessionId", id))
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// view looks up the mounted view for a session id.
func (h *APIHandler) view(id string) (*playbackView, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.views[id]
	return v, ok
}

// ToggleRequest names the track a play/pause gesture targets.
type ToggleRequest struct {
	TrackID int64 `json:"trackId"`
}

// ToggleHandler is the single play/pause entry point. Toggling the active
// track pauses or resumes it; toggling any other track stops the active one
// and starts the new one from zero.
func (h *APIHandler) ToggleHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(mux.Vars(r)["id"])
	if !ok {
		respondError(w, http.StatusNotFound, "Session not found")
		return
	}

	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ref, ok := v.tracks[req.TrackID]
	if !ok {
		respondError(w, http.StatusNotFound, "Track not in session")
		return
	}

	state, err := v.session.Toggle(ref)
	if errors.Is(err, playback.ErrSessionClosed) {
		respondError(w, http.StatusGone, "Session closed")
		return
	}
	if err != nil {
		logger.Warn("Toggle failed",
			logger.Int64("trackId", req.TrackID),
			logger.ErrorField(err),
		)
		respondError(w, http.StatusBadGateway, "Failed to start playback")
		return
	}

	metrics.PlaybackToggles.WithLabelValues(string(state.Transport)).Inc()
	respondJSON(w, http.StatusOK, state)
}

// StopAllHandler stops whatever is active and resets the session to idle.
func (h *APIHandler) StopAllHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(mux.Vars(r)["id"])
	if !ok {
		respondError(w, http.StatusNotFound, "Session not found")
		return
	}
	respondJSON(w, http.StatusOK, v.session.StopAll())
}

// SeekRequest carries an absolute seek target in seconds.
type SeekRequest struct {
	Seconds float64 `json:"seconds"`
}

// SeekHandler repositions the active track. The target is clamped to the
// known duration inside the session.
func (h *APIHandler) SeekHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(mux.Vars(r)["id"])
	if !ok {
		respondError(w, http.StatusNotFound, "Session not found")
		return
	}

	var req SeekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	state, err := v.session.Seek(req.Seconds)
	if errors.Is(err, playback.ErrNoActiveTrack) {
		respondError(w, http.StatusConflict, "No active track")
		return
	}
	if errors.Is(err, playback.ErrSessionClosed) {
		respondError(w, http.StatusGone, "Session closed")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Seek failed")
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// SessionEventRequest reports a renderer-side media event back to the
// session. trackId names the track the event belongs to; stale events for a
// track that is no longer active are ignored.
type SessionEventRequest struct {
	Type    string  `json:"type"`
	TrackID int64   `json:"trackId"`
	Seconds float64 `json:"seconds"`
}

// SessionEventHandler folds renderer media events into the session state:
// ended, timeupdate, loadedmetadata, error, plus the seek gesture brackets.
func (h *APIHandler) SessionEventHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(mux.Vars(r)["id"])
	if !ok {
		respondError(w, http.StatusNotFound, "Session not found")
		return
	}

	var req SessionEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s := v.session
	var state playback.State
	switch req.Type {
	case "ended":
		state = s.TrackEnded(req.TrackID)
	case "timeupdate":
		state = s.PositionChanged(req.TrackID, req.Seconds)
	case "loadedmetadata":
		state = s.DurationKnown(req.TrackID, req.Seconds)
	case "error":
		state = s.StartFailed(req.TrackID)
	case "seekstart":
		s.BeginSeek()
		state = s.Snapshot()
	case "seekend":
		s.EndSeek()
		state = s.Snapshot()
	default:
		respondError(w, http.StatusBadRequest, "Unknown event type: "+req.Type)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// GetSessionStateHandler returns the current state snapshot.
func (h *APIHandler) GetSessionStateHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(mux.Vars(r)["id"])
	if !ok {
		respondError(w, http.StatusNotFound, "Session not found")
		return
	}
	respondJSON(w, http.StatusOK, v.session.Snapshot())
}

// DownloadNameHandler resolves the client-facing download filename for a
// track within the mounted day.
func (h *APIHandler) DownloadNameHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	v, ok := h.view(vars["id"])
	if !ok {
		respondError(w, http.StatusNotFound, "Session not found")
		return
	}

	trackID, err := strconv.ParseInt(vars["trackId"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid track id")
		return
	}
	if _, ok := v.tracks[trackID]; !ok {
		respondError(w, http.StatusNotFound, "Track not in session")
		return
	}

	track, err := h.tracks.GetByID(r.Context(), trackID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Track not found")
		return
	}

	title := track.Name
	if title == "" {
		title = fmt.Sprintf("Son %d", track.Position)
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"filename": download.BuildName(v.dayNumber, track.ID, title),
		"url":      track.URL,
	})
}
