package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"mashrabu/config"
	"mashrabu/core/playback"
	"mashrabu/repository"
	"mashrabu/storage"
)

// APIHandler bundles the dependencies of every HTTP handler.
type APIHandler struct {
	cfg      *config.Config
	editions repository.EditionRepository
	days     repository.DayRepository
	tracks   repository.TrackRepository
	store    *storage.Store
	sessions *playback.Manager

	mu    sync.Mutex
	views map[string]*playbackView // session id -> mounted view
}

// playbackView couples a playback session with the track set of the rendered
// day, so toggle requests can be resolved by track id.
type playbackView struct {
	dayNumber int
	session   *playback.Session
	tracks    map[int64]playback.TrackRef
}

// NewAPIHandler creates the handler set.
func NewAPIHandler(
	cfg *config.Config,
	editions repository.EditionRepository,
	days repository.DayRepository,
	tracks repository.TrackRepository,
	store *storage.Store,
	sessions *playback.Manager,
) *APIHandler {
	return &APIHandler{
		cfg:      cfg,
		editions: editions,
		days:     days,
		tracks:   tracks,
		store:    store,
		sessions: sessions,
		views:    make(map[string]*playbackView),
	}
}

// respondJSON writes a JSON response body.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// respondError writes a JSON error body.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
