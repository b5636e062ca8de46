package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"mashrabu/cache"
	"mashrabu/core/catalog"
	"mashrabu/core/media"
	"mashrabu/logger"
	"mashrabu/metrics"
	"mashrabu/model"
	"mashrabu/repository"

	"github.com/gorilla/mux"
)

// maxUploadBytes bounds relayed audio payloads (200 MiB).
const maxUploadBytes = 200 << 20

// PresignUploadHandler issues a short-lived direct-upload authorization: a
// presigned PUT URL into the media store plus the object's future public URL.
func (h *APIHandler) PresignUploadHandler(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = "audio.mp3"
	}

	authz, err := h.store.PresignUpload(r.Context(), h.cfg.MediaFolder, filename)
	if err != nil {
		logger.Error("Failed to presign upload", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to authorize upload")
		return
	}

	respondJSON(w, http.StatusOK, authz)
}

// SaveUploadRequest records a completed direct upload.
type SaveUploadRequest struct {
	DayID     int64  `json:"dayId"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Position  int    `json:"position"`
	URL       string `json:"url"`
	ObjectKey string `json:"objectKey"`
	Duration  int    `json:"duration"` // seconds, 0 = unknown
}

// SaveUploadHandler persists the track record after a successful direct
// upload. The measured duration is formatted for display here, once.
func (h *APIHandler) SaveUploadHandler(w http.ResponseWriter, r *http.Request) {
	var req SaveUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.DayID == 0 || req.URL == "" {
		respondError(w, http.StatusBadRequest, "dayId and url are required")
		return
	}

	if _, err := h.days.GetByID(r.Context(), req.DayID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Day not found")
			return
		}
		logger.Error("Failed to get day", logger.Int64("dayId", req.DayID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to get day")
		return
	}

	position := req.Position
	if position == 0 {
		count, err := h.tracks.CountByDay(r.Context(), req.DayID)
		if err != nil {
			logger.Error("Failed to count tracks", logger.Int64("dayId", req.DayID), logger.ErrorField(err))
			respondError(w, http.StatusInternalServerError, "Failed to save track")
			return
		}
		position = int(count) + 1
	}

	track := &model.Track{
		DayID:        req.DayID,
		Name:         req.Name,
		Kind:         req.Kind,
		DurationText: catalog.FormatDuration(req.Duration),
		URL:          req.URL,
		ObjectKey:    req.ObjectKey,
		Position:     position,
	}

	if err := h.tracks.Create(r.Context(), track); err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		logger.Error("Failed to save track", logger.Int64("dayId", req.DayID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to save track")
		return
	}

	if err := cache.InvalidateDayTracks(r.Context(), req.DayID); err != nil {
		logger.Warn("Failed to invalidate track listing", logger.Int64("dayId", req.DayID), logger.ErrorField(err))
	}

	metrics.UploadsTotal.WithLabelValues("saved").Inc()
	logger.Info("Track saved",
		logger.Int64("trackId", track.ID),
		logger.Int64("dayId", track.DayID),
		logger.String("name", track.Name),
	)
	respondJSON(w, http.StatusCreated, map[string]interface{}{"track": track})
}

// RelayUploadHandler streams a multipart audio payload through the service
// into the media store, probes its duration server-side, and creates the
// track record. No record is written unless the store write fully succeeded;
// failures are reported verbatim so the admin can retry.
func (h *APIHandler) RelayUploadHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	dayID, err := strconv.ParseInt(r.FormValue("dayId"), 10, 64)
	if err != nil || dayID == 0 {
		respondError(w, http.StatusBadRequest, "dayId is required")
		return
	}

	if _, err := h.days.GetByID(r.Context(), dayID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Day not found")
			return
		}
		logger.Error("Failed to get day", logger.Int64("dayId", dayID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to get day")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		respondError(w, http.StatusBadRequest, "Failed to read payload: "+err.Error())
		return
	}

	durationSec := media.ProbeMP3Duration(bytes.NewReader(payload))

	url, key, err := h.store.Upload(r.Context(), h.cfg.MediaFolder, header.Filename,
		bytes.NewReader(payload), int64(len(payload)), header.Header.Get("Content-Type"))
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		logger.Error("Relay upload failed", logger.Int64("dayId", dayID), logger.ErrorField(err))
		respondError(w, http.StatusBadGateway, "Upload failed: "+err.Error())
		return
	}

	count, err := h.tracks.CountByDay(r.Context(), dayID)
	if err != nil {
		count = 0
	}

	track := &model.Track{
		DayID:        dayID,
		Name:         r.FormValue("name"),
		Kind:         r.FormValue("kind"),
		DurationText: catalog.FormatDuration(durationSec),
		URL:          url,
		ObjectKey:    key,
		Position:     int(count) + 1,
	}

	if err := h.tracks.Create(r.Context(), track); err != nil {
		// The object is already stored; remove it so the failed upload leaves
		// nothing behind.
		if rmErr := h.store.Remove(r.Context(), key); rmErr != nil {
			logger.Warn("Failed to remove orphaned object", logger.String("key", key), logger.ErrorField(rmErr))
		}
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		logger.Error("Failed to save relayed track", logger.Int64("dayId", dayID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to save track")
		return
	}

	if err := cache.InvalidateDayTracks(r.Context(), dayID); err != nil {
		logger.Warn("Failed to invalidate track listing", logger.Int64("dayId", dayID), logger.ErrorField(err))
	}

	metrics.UploadsTotal.WithLabelValues("relayed").Inc()
	logger.Info("Track relayed",
		logger.Int64("trackId", track.ID),
		logger.Int64("dayId", dayID),
		logger.Int("durationSec", durationSec),
	)
	respondJSON(w, http.StatusCreated, map[string]interface{}{"track": track})
}

// DeleteTrackHandler removes a track record, then best-effort removes its
// object from the media store. Store errors are logged and ignored, matching
// the record-first deletion order.
func (h *APIHandler) DeleteTrackHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid track id")
		return
	}

	track, err := h.tracks.GetByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Track not found")
		return
	}
	if err != nil {
		logger.Error("Failed to get track", logger.Int64("trackId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to get track")
		return
	}

	if err := h.tracks.Delete(r.Context(), id); err != nil {
		logger.Error("Failed to delete track", logger.Int64("trackId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete track")
		return
	}

	key := track.ObjectKey
	if key == "" {
		key = h.store.KeyFromURL(track.URL)
	}
	if err := h.store.Remove(r.Context(), key); err != nil {
		logger.Warn("Failed to remove media object", logger.String("key", key), logger.ErrorField(err))
	}

	if err := cache.InvalidateDayTracks(r.Context(), track.DayID); err != nil {
		logger.Warn("Failed to invalidate track listing", logger.Int64("dayId", track.DayID), logger.ErrorField(err))
	}

	logger.Info("Track deleted", logger.Int64("trackId", id), logger.Int64("dayId", track.DayID))
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
