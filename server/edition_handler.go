package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"mashrabu/logger"
	"mashrabu/model"
	"mashrabu/repository"

	"github.com/gorilla/mux"
)

// daysPerEdition is the fixed number of programme days generated for every
// edition.
const daysPerEdition = 30

// ListEditionsHandler returns active editions, newest year first.
func (h *APIHandler) ListEditionsHandler(w http.ResponseWriter, r *http.Request) {
	editions, err := h.editions.ListActive(r.Context())
	if err != nil {
		logger.Error("Failed to list editions", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to list editions")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"editions": editions})
}

// GetEditionHandler returns one edition with its days and per-day track
// counts. An unknown year is a terminal not-found, never retried.
func (h *APIHandler) GetEditionHandler(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(mux.Vars(r)["year"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid year")
		return
	}

	edition, err := h.editions.GetByYear(r.Context(), year)
	if errors.Is(err, repository.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Edition not found")
		return
	}
	if err != nil {
		logger.Error("Failed to get edition", logger.Int("year", year), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to get edition")
		return
	}

	days, err := h.days.ListByEdition(r.Context(), edition.ID)
	if err != nil {
		logger.Error("Failed to list days", logger.Int64("editionId", edition.ID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to list days")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"edition": edition,
		"days":    days,
	})
}

// CreateEditionRequest is the admin create-edition body.
type CreateEditionRequest struct {
	Year         int    `json:"year"`
	Title        string `json:"title"`
	TitleAr      string `json:"titleAr"`
	FirstDayDate string `json:"firstDayDate"` // YYYY-MM-DD
}

// CreateEditionHandler creates an edition and generates its 30 days dated
// from the first-day date.
func (h *APIHandler) CreateEditionHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateEditionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Year == 0 || req.FirstDayDate == "" {
		respondError(w, http.StatusBadRequest, "year and firstDayDate are required")
		return
	}

	startDate, err := time.Parse("2006-01-02", req.FirstDayDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "firstDayDate must be YYYY-MM-DD")
		return
	}

	title := req.Title
	if title == "" {
		title = fmt.Sprintf("Mashrabuç Çâfî %d", req.Year)
	}

	edition := &model.Edition{
		Year:    req.Year,
		Title:   title,
		TitleAr: req.TitleAr,
		Active:  true,
	}

	days := make([]*model.Day, 0, daysPerEdition)
	for i := 0; i < daysPerEdition; i++ {
		days = append(days, &model.Day{
			Number:      i + 1,
			Title:       fmt.Sprintf("Kourel Jour %d", i+1),
			ProgramDate: startDate.AddDate(0, 0, i).Format("2006-01-02"),
		})
	}

	if err := h.editions.CreateWithDays(r.Context(), edition, days); err != nil {
		logger.Error("Failed to create edition", logger.Int("year", req.Year), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to create edition")
		return
	}

	logger.Info("Edition created",
		logger.Int64("editionId", edition.ID),
		logger.Int("year", edition.Year),
	)
	respondJSON(w, http.StatusCreated, map[string]interface{}{"edition": edition})
}

// DeleteEditionHandler removes an edition with all its days and tracks.
func (h *APIHandler) DeleteEditionHandler(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(mux.Vars(r)["year"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid year")
		return
	}

	edition, err := h.editions.GetByYear(r.Context(), year)
	if errors.Is(err, repository.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Edition not found")
		return
	}
	if err != nil {
		logger.Error("Failed to get edition", logger.Int("year", year), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to get edition")
		return
	}

	if err := h.editions.DeleteCascade(r.Context(), edition.ID); err != nil {
		logger.Error("Failed to delete edition", logger.Int64("editionId", edition.ID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete edition")
		return
	}

	logger.Info("Edition deleted", logger.Int64("editionId", edition.ID), logger.Int("year", year))
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
