package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"mashrabu/cache"
	"mashrabu/core/catalog"
	"mashrabu/core/download"
	"mashrabu/logger"
	"mashrabu/metrics"
	"mashrabu/model"
	"mashrabu/repository"

	"github.com/gorilla/mux"
)

// GetDayHandler returns one day's metadata.
func (h *APIHandler) GetDayHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid day id")
		return
	}

	day, err := h.days.GetByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Day not found")
		return
	}
	if err != nil {
		logger.Error("Failed to get day", logger.Int64("dayId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to get day")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"day": day})
}

// UpdateDayRequest is the admin day-edit body.
type UpdateDayRequest struct {
	Title   string `json:"title"`
	TitleAr string `json:"titleAr"`
}

// UpdateDayHandler updates a day's display titles.
func (h *APIHandler) UpdateDayHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid day id")
		return
	}

	var req UpdateDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err = h.days.UpdateTitles(r.Context(), id, req.Title, req.TitleAr)
	if errors.Is(err, repository.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Day not found")
		return
	}
	if err != nil {
		logger.Error("Failed to update day", logger.Int64("dayId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to update day")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// dayTracks loads a day's track listing through the cache.
func (h *APIHandler) dayTracks(ctx context.Context, dayID int64) ([]*model.Track, error) {
	if tracks, err := cache.GetDayTracks(ctx, dayID); err == nil {
		metrics.ListingCacheHits.WithLabelValues("hit").Inc()
		return tracks, nil
	}
	metrics.ListingCacheHits.WithLabelValues("miss").Inc()

	tracks, err := h.tracks.ListByDay(ctx, dayID)
	if err != nil {
		return nil, err
	}

	if err := cache.SetDayTracks(ctx, dayID, tracks); err != nil {
		logger.Warn("Failed to cache track listing", logger.Int64("dayId", dayID), logger.ErrorField(err))
	}
	return tracks, nil
}

// ListDayTracksHandler returns a day's raw track records in curation order.
func (h *APIHandler) ListDayTracksHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid day id")
		return
	}

	tracks, err := h.dayTracks(r.Context(), id)
	if err != nil {
		logger.Error("Failed to list tracks", logger.Int64("dayId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to list tracks")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"tracks": tracks})
}

// TrackViewModel is one renderable row of the day page, a presenter track
// plus its deterministic download name.
type TrackViewModel struct {
	catalog.TrackView
	DownloadName string `json:"downloadName"`
}

// DayViewResponse is everything the day page renders.
type DayViewResponse struct {
	Day         *model.Day       `json:"day"`
	Tracks      []TrackViewModel `json:"tracks"`
	Placeholder string           `json:"placeholder,omitempty"`
}

// DayViewHandler returns the presenter output for a day: ordered track view
// models with badge numbers, duration text and download names. A day with
// no tracks returns the explicit placeholder message instead of a bare
// empty list.
func (h *APIHandler) DayViewHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid day id")
		return
	}

	day, err := h.days.GetByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Day not found")
		return
	}
	if err != nil {
		logger.Error("Failed to get day", logger.Int64("dayId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to get day")
		return
	}

	tracks, err := h.dayTracks(r.Context(), id)
	if err != nil {
		logger.Error("Failed to list tracks", logger.Int64("dayId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to list tracks")
		return
	}

	records := make([]catalog.Record, 0, len(tracks))
	for _, t := range tracks {
		records = append(records, catalog.Record{
			ID:           t.ID,
			Name:         t.Name,
			Kind:         t.Kind,
			DurationText: t.DurationText,
			URL:          t.URL,
			Position:     t.Position,
		})
	}

	views := catalog.BuildTracks(records)
	rows := make([]TrackViewModel, 0, len(views))
	for _, v := range views {
		rows = append(rows, TrackViewModel{
			TrackView:    v,
			DownloadName: download.BuildName(day.Number, v.ID, v.Title),
		})
	}

	resp := DayViewResponse{Day: day, Tracks: rows}
	if len(rows) == 0 {
		resp.Placeholder = "Aucune piste audio disponible pour ce jour."
	}
	respondJSON(w, http.StatusOK, resp)
}
