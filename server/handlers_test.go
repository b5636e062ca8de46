package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mashrabu/config"
	"mashrabu/core/playback"
	"mashrabu/model"
	"mashrabu/repository"

	"github.com/gorilla/mux"
)

type fakeEditionRepo struct {
	editions []*model.Edition
}

func (f *fakeEditionRepo) ListActive(ctx context.Context) ([]*model.Edition, error) {
	out := []*model.Edition{}
	for _, e := range f.editions {
		if e.Active {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEditionRepo) ListAll(ctx context.Context) ([]*model.Edition, error) {
	return f.editions, nil
}

func (f *fakeEditionRepo) GetByYear(ctx context.Context, year int) (*model.Edition, error) {
	for _, e := range f.editions {
		if e.Year == year {
			return e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeEditionRepo) CreateWithDays(ctx context.Context, edition *model.Edition, days []*model.Day) error {
	edition.ID = int64(len(f.editions) + 1)
	f.editions = append(f.editions, edition)
	return nil
}

func (f *fakeEditionRepo) DeleteCascade(ctx context.Context, editionID int64) error {
	for i, e := range f.editions {
		if e.ID == editionID {
			f.editions = append(f.editions[:i], f.editions[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeDayRepo struct {
	days map[int64]*model.Day
}

func (f *fakeDayRepo) GetByID(ctx context.Context, id int64) (*model.Day, error) {
	if d, ok := f.days[id]; ok {
		return d, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeDayRepo) ListByEdition(ctx context.Context, editionID int64) ([]*model.DayWithCount, error) {
	out := []*model.DayWithCount{}
	for _, d := range f.days {
		if d.EditionID == editionID {
			out = append(out, &model.DayWithCount{Day: *d})
		}
	}
	return out, nil
}

func (f *fakeDayRepo) UpdateTitles(ctx context.Context, id int64, title, titleAr string) error {
	d, ok := f.days[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.Title = title
	d.TitleAr = titleAr
	return nil
}

type fakeTrackRepo struct {
	tracks []*model.Track
	nextID int64
}

func (f *fakeTrackRepo) Create(ctx context.Context, track *model.Track) error {
	f.nextID++
	track.ID = f.nextID
	f.tracks = append(f.tracks, track)
	return nil
}

func (f *fakeTrackRepo) GetByID(ctx context.Context, id int64) (*model.Track, error) {
	for _, t := range f.tracks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeTrackRepo) ListByDay(ctx context.Context, dayID int64) ([]*model.Track, error) {
	out := []*model.Track{}
	for _, t := range f.tracks {
		if t.DayID == dayID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTrackRepo) CountByDay(ctx context.Context, dayID int64) (int64, error) {
	var n int64
	for _, t := range f.tracks {
		if t.DayID == dayID {
			n++
		}
	}
	return n, nil
}

func (f *fakeTrackRepo) Delete(ctx context.Context, id int64) error {
	for i, t := range f.tracks {
		if t.ID == id {
			f.tracks = append(f.tracks[:i], f.tracks[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func newTestHandler(days *fakeDayRepo, tracks *fakeTrackRepo) *APIHandler {
	cfg := &config.Config{
		Env:           "development",
		JWTSecret:     "test-secret",
		AdminPassword: "sekrit",
	}
	return NewAPIHandler(cfg, &fakeEditionRepo{}, days, tracks, nil, playback.NewManager())
}

func testRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/api/days/{id}/view", h.DayViewHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/days/{id}/tracks", h.ListDayTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/days/{id}", h.GetDayHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/playback/sessions", h.CreateSessionHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/playback/sessions/{id}/toggle", h.ToggleHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/playback/sessions/{id}/stop", h.StopAllHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/playback/sessions/{id}/seek", h.SeekHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/playback/sessions/{id}/events", h.SessionEventHandler).Methods(http.MethodPost)
	return router
}

func TestDayViewHandler_AppliesFallbacks(t *testing.T) {
	days := &fakeDayRepo{days: map[int64]*model.Day{
		7: {ID: 7, EditionID: 1, Number: 3, Title: "Kourel Jour 3"},
	}}
	tracks := &fakeTrackRepo{tracks: []*model.Track{
		{ID: 2, DayID: 7, Name: "Yakhyra  Dayfi", Kind: "Khassida", DurationText: "5:32", URL: "https://media.test/a.mp3", Position: 1},
		{DayID: 7, Position: 0}, // incomplete record, second row
	}}
	h := newTestHandler(days, tracks)

	req := httptest.NewRequest(http.MethodGet, "/api/days/7/view", nil)
	rr := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp DayViewResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Tracks) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(resp.Tracks))
	}

	first := resp.Tracks[0]
	if first.Title != "Yakhyra  Dayfi" || first.OrderIndex != 1 || first.Kind != "Khassida" {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if first.DownloadName != "Jour3_Son2_Yakhyra_Dayfi.mp3" {
		t.Fatalf("expected download name Jour3_Son2_Yakhyra_Dayfi.mp3, got %q", first.DownloadName)
	}

	second := resp.Tracks[1]
	if second.ID != 2 {
		t.Fatalf("expected fallback id 2 for second row, got %d", second.ID)
	}
	if second.Title != "Son 2" || second.Kind != "Audio" || second.DurationText != "--:--" {
		t.Fatalf("unexpected fallback row: %+v", second)
	}
	if second.DownloadName != "Jour3_Son2_Son_2.mp3" {
		t.Fatalf("unexpected fallback download name %q", second.DownloadName)
	}
	if resp.Placeholder != "" {
		t.Fatalf("expected no placeholder for a day with tracks, got %q", resp.Placeholder)
	}
}

func TestDayViewHandler_EmptyDayReturnsPlaceholder(t *testing.T) {
	days := &fakeDayRepo{days: map[int64]*model.Day{
		1: {ID: 1, EditionID: 1, Number: 1, Title: "Kourel Jour 1"},
	}}
	h := newTestHandler(days, &fakeTrackRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/days/1/view", nil)
	rr := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp DayViewResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Tracks) != 0 {
		t.Fatalf("expected no rows, got %d", len(resp.Tracks))
	}
	if resp.Placeholder != "Aucune piste audio disponible pour ce jour." {
		t.Fatalf("unexpected placeholder %q", resp.Placeholder)
	}
}

func TestDayViewHandler_UnknownDayIs404(t *testing.T) {
	h := newTestHandler(&fakeDayRepo{days: map[int64]*model.Day{}}, &fakeTrackRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/days/99/view", nil)
	rr := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func createSession(t *testing.T, router *mux.Router, dayID int64) string {
	t.Helper()
	body := strings.NewReader(`{"dayId":` + jsonInt(dayID) + `}`)
	req := httptest.NewRequest(http.MethodPost, "/api/playback/sessions", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating session, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp CreateSessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode session response: %v", err)
	}
	if resp.State.Transport != playback.TransportIdle {
		t.Fatalf("expected a fresh session to be idle, got %s", resp.State.Transport)
	}
	return resp.SessionID
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func postState(t *testing.T, router *mux.Router, path, body string) playback.State {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("POST %s: expected 200, got %d: %s", path, rr.Code, rr.Body.String())
	}
	var state playback.State
	if err := json.Unmarshal(rr.Body.Bytes(), &state); err != nil {
		t.Fatalf("failed to decode state: %v", err)
	}
	return state
}

func TestPlaybackSession_ToggleSeekStop(t *testing.T) {
	days := &fakeDayRepo{days: map[int64]*model.Day{
		4: {ID: 4, EditionID: 1, Number: 4, Title: "Kourel Jour 4"},
	}}
	tracks := &fakeTrackRepo{tracks: []*model.Track{
		{ID: 1, DayID: 4, Name: "Premier", URL: "https://media.test/1.mp3", Position: 1},
		{ID: 2, DayID: 4, Name: "Second", URL: "https://media.test/2.mp3", Position: 2},
	}}
	router := testRouter(newTestHandler(days, tracks))

	id := createSession(t, router, 4)
	base := "/api/playback/sessions/" + id

	state := postState(t, router, base+"/toggle", `{"trackId":1}`)
	if state.ActiveTrackID != 1 || state.Transport != playback.TransportPlaying {
		t.Fatalf("expected track 1 playing, got %+v", state)
	}

	// The renderer reports the duration, then a seek becomes clampable.
	state = postState(t, router, base+"/events", `{"type":"loadedmetadata","trackId":1,"seconds":300}`)
	if state.Duration != 300 {
		t.Fatalf("expected duration 300, got %v", state.Duration)
	}

	state = postState(t, router, base+"/seek", `{"seconds":500}`)
	if state.Position != 300 {
		t.Fatalf("expected seek clamped to 300, got %v", state.Position)
	}

	// Toggling another track stops the first.
	state = postState(t, router, base+"/toggle", `{"trackId":2}`)
	if state.ActiveTrackID != 2 || state.Transport != playback.TransportPlaying || state.Position != 0 {
		t.Fatalf("expected track 2 playing from zero, got %+v", state)
	}

	// Toggling the active track pauses it.
	state = postState(t, router, base+"/toggle", `{"trackId":2}`)
	if state.Transport != playback.TransportPaused {
		t.Fatalf("expected paused, got %+v", state)
	}

	state = postState(t, router, base+"/stop", ``)
	if state.ActiveTrackID != 0 || state.Transport != playback.TransportIdle {
		t.Fatalf("expected idle after stop, got %+v", state)
	}
}

func TestPlaybackSession_UnknownTrackAndSession(t *testing.T) {
	days := &fakeDayRepo{days: map[int64]*model.Day{
		4: {ID: 4, EditionID: 1, Number: 4},
	}}
	tracks := &fakeTrackRepo{tracks: []*model.Track{
		{ID: 1, DayID: 4, Name: "Premier", URL: "https://media.test/1.mp3", Position: 1},
	}}
	router := testRouter(newTestHandler(days, tracks))

	id := createSession(t, router, 4)

	req := httptest.NewRequest(http.MethodPost, "/api/playback/sessions/"+id+"/toggle", strings.NewReader(`{"trackId":42}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a track outside the session, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/playback/sessions/nope/toggle", strings.NewReader(`{"trackId":1}`))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown session, got %d", rr.Code)
	}
}

func TestPlaybackSession_SeekWithoutActiveTrackConflicts(t *testing.T) {
	days := &fakeDayRepo{days: map[int64]*model.Day{
		4: {ID: 4, EditionID: 1, Number: 4},
	}}
	router := testRouter(newTestHandler(days, &fakeTrackRepo{}))

	id := createSession(t, router, 4)

	req := httptest.NewRequest(http.MethodPost, "/api/playback/sessions/"+id+"/seek", strings.NewReader(`{"seconds":10}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 seeking with no active track, got %d", rr.Code)
	}
}

func TestPlaybackSession_StaleEventIgnored(t *testing.T) {
	days := &fakeDayRepo{days: map[int64]*model.Day{
		4: {ID: 4, EditionID: 1, Number: 4},
	}}
	tracks := &fakeTrackRepo{tracks: []*model.Track{
		{ID: 1, DayID: 4, URL: "https://media.test/1.mp3", Position: 1},
		{ID: 2, DayID: 4, URL: "https://media.test/2.mp3", Position: 2},
	}}
	router := testRouter(newTestHandler(days, tracks))

	id := createSession(t, router, 4)
	base := "/api/playback/sessions/" + id

	postState(t, router, base+"/toggle", `{"trackId":1}`)
	postState(t, router, base+"/toggle", `{"trackId":2}`)

	// An "ended" event from the no-longer-active track must not disturb the
	// current one.
	state := postState(t, router, base+"/events", `{"type":"ended","trackId":1}`)
	if state.ActiveTrackID != 2 || state.Transport != playback.TransportPlaying {
		t.Fatalf("expected track 2 still playing after stale event, got %+v", state)
	}
}
