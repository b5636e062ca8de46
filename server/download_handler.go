package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"mashrabu/core/download"
	"mashrabu/logger"
	"mashrabu/repository"

	"github.com/gorilla/mux"
)

// responseSaver writes the fetched blob to the HTTP response as a named
// attachment.
type responseSaver struct {
	w http.ResponseWriter
}

func (s *responseSaver) Save(filename string, data []byte) error {
	s.w.Header().Set("Content-Type", "audio/mpeg")
	s.w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	s.w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, err := s.w.Write(data)
	return err
}

// redirectOpener degrades to a plain redirect at the original media URL when
// the blob path fails. The browser then names the file itself.
type redirectOpener struct {
	w http.ResponseWriter
	r *http.Request
}

func (o *redirectOpener) Open(url string) error {
	http.Redirect(o.w, o.r, url, http.StatusFound)
	return nil
}

// DownloadTrackHandler serves a track as an attachment under its
// deterministic name, fetching the blob from the media host. If the fetch
// fails the client is redirected to the media URL directly.
func (h *APIHandler) DownloadTrackHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	dayID, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid day id")
		return
	}
	trackID, err := strconv.ParseInt(vars["trackId"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid track id")
		return
	}

	day, err := h.days.GetByID(r.Context(), dayID)
	if errors.Is(err, repository.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Day not found")
		return
	}
	if err != nil {
		logger.Error("Failed to get day", logger.Int64("dayId", dayID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to get day")
		return
	}

	track, err := h.tracks.GetByID(r.Context(), trackID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && track.DayID != dayID) {
		respondError(w, http.StatusNotFound, "Track not found")
		return
	}
	if err != nil {
		logger.Error("Failed to get track", logger.Int64("trackId", trackID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to get track")
		return
	}

	title := track.Name
	if title == "" {
		title = fmt.Sprintf("Son %d", track.Position)
	}
	filename := download.BuildName(day.Number, track.ID, title)

	dispatcher := &download.Dispatcher{
		Saver:  &responseSaver{w: w},
		Opener: &redirectOpener{w: w, r: r},
	}

	outcome, err := dispatcher.Dispatch(r.Context(), track.URL, filename)
	if err != nil {
		logger.Error("Download dispatch failed", logger.Int64("trackId", trackID), logger.ErrorField(err))
		respondError(w, http.StatusBadGateway, "Failed to download track")
		return
	}
	if outcome.Fallback {
		logger.Warn("Download fell back to direct link",
			logger.Int64("trackId", trackID),
			logger.String("filename", outcome.Filename),
		)
	}
}
