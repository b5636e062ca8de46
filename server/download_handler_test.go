package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"mashrabu/model"

	"github.com/gorilla/mux"
)

func downloadRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/api/days/{id}/tracks/{trackId}/download", h.DownloadTrackHandler).Methods(http.MethodGet)
	return router
}

func TestDownloadTrackHandler_ServesAttachment(t *testing.T) {
	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The media host suggests its own name; the proxy must override it.
		w.Header().Set("Content-Disposition", `attachment; filename="remote-name.bin"`)
		w.Write([]byte("mp3-bytes"))
	}))
	defer media.Close()

	days := &fakeDayRepo{days: map[int64]*model.Day{
		7: {ID: 7, EditionID: 1, Number: 3},
	}}
	tracks := &fakeTrackRepo{tracks: []*model.Track{
		{ID: 2, DayID: 7, Name: "Yakhyra  Dayfi", URL: media.URL + "/a.mp3", Position: 1},
	}}
	router := downloadRouter(newTestHandler(days, tracks))

	req := httptest.NewRequest(http.MethodGet, "/api/days/7/tracks/2/download", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	want := `attachment; filename="Jour3_Son2_Yakhyra_Dayfi.mp3"`
	if got := rr.Header().Get("Content-Disposition"); got != want {
		t.Fatalf("expected disposition %s, got %s", want, got)
	}
	if rr.Body.String() != "mp3-bytes" {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
}

func TestDownloadTrackHandler_FallsBackToRedirect(t *testing.T) {
	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer media.Close()

	days := &fakeDayRepo{days: map[int64]*model.Day{
		7: {ID: 7, EditionID: 1, Number: 3},
	}}
	tracks := &fakeTrackRepo{tracks: []*model.Track{
		{ID: 2, DayID: 7, Name: "Yakhyra Dayfi", URL: media.URL + "/a.mp3", Position: 1},
	}}
	router := downloadRouter(newTestHandler(days, tracks))

	req := httptest.NewRequest(http.MethodGet, "/api/days/7/tracks/2/download", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusFound {
		t.Fatalf("expected 302 fallback, got %d", rr.Code)
	}
	if got := rr.Header().Get("Location"); got != media.URL+"/a.mp3" {
		t.Fatalf("expected redirect to media URL, got %s", got)
	}
}

func TestDownloadTrackHandler_TrackFromAnotherDayIs404(t *testing.T) {
	days := &fakeDayRepo{days: map[int64]*model.Day{
		7: {ID: 7, EditionID: 1, Number: 3},
		8: {ID: 8, EditionID: 1, Number: 4},
	}}
	tracks := &fakeTrackRepo{tracks: []*model.Track{
		{ID: 2, DayID: 8, Name: "Ailleurs", URL: "https://media.test/a.mp3", Position: 1},
	}}
	router := downloadRouter(newTestHandler(days, tracks))

	req := httptest.NewRequest(http.MethodGet, "/api/days/7/tracks/2/download", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
