package catalog

import (
	"reflect"
	"testing"
)

func TestBuildTracks_EmptyInput(t *testing.T) {
	tracks := BuildTracks(nil)
	if tracks == nil {
		t.Fatalf("expected empty slice, got nil")
	}
	if len(tracks) != 0 {
		t.Fatalf("expected no tracks, got %d", len(tracks))
	}
}

func TestBuildTracks_FallbacksAtPositionZero(t *testing.T) {
	tracks := BuildTracks([]Record{{}})
	if len(tracks) != 1 {
		t.Fatalf("expected one track, got %d", len(tracks))
	}

	got := tracks[0]
	if got.ID != 1 {
		t.Fatalf("expected fallback id 1, got %d", got.ID)
	}
	if got.Title != "Son 1" {
		t.Fatalf("expected fallback title \"Son 1\", got %q", got.Title)
	}
	if got.DurationText != UnknownDuration {
		t.Fatalf("expected duration sentinel, got %q", got.DurationText)
	}
	if got.Kind != DefaultKind {
		t.Fatalf("expected default kind, got %q", got.Kind)
	}
	if got.OrderIndex != 1 {
		t.Fatalf("expected order index 1, got %d", got.OrderIndex)
	}
}

func TestBuildTracks_CopiesFieldsVerbatim(t *testing.T) {
	records := []Record{
		{ID: 7, Name: "Yakhyra Dayfi", Kind: "Khassida", DurationText: "5:32", URL: "https://media.example/a.mp3", Position: 3},
		{Name: "Matlabul Fawzeyni", DurationText: "12:04", URL: "https://media.example/b.mp3"},
	}

	tracks := BuildTracks(records)
	if len(tracks) != 2 {
		t.Fatalf("expected two tracks, got %d", len(tracks))
	}

	if tracks[0].ID != 7 || tracks[0].Title != "Yakhyra Dayfi" || tracks[0].DurationText != "5:32" {
		t.Fatalf("expected verbatim copy, got %+v", tracks[0])
	}
	if tracks[0].OrderIndex != 3 {
		t.Fatalf("expected stored position used as order index, got %d", tracks[0].OrderIndex)
	}
	if tracks[1].ID != 2 {
		t.Fatalf("expected fallback id from sequence position, got %d", tracks[1].ID)
	}
	if tracks[1].Kind != DefaultKind {
		t.Fatalf("expected default kind, got %q", tracks[1].Kind)
	}
	if tracks[1].OrderIndex != 2 {
		t.Fatalf("expected fallback order index 2, got %d", tracks[1].OrderIndex)
	}
}

func TestBuildTracks_Deterministic(t *testing.T) {
	records := []Record{
		{ID: 1, Name: "A"},
		{ID: 2, Name: "B", DurationText: "3:10"},
		{Name: "C"},
	}

	first := BuildTracks(records)
	second := BuildTracks(records)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical output for identical input")
	}
	for i := range first {
		if i > 0 && first[i].OrderIndex <= first[i-1].OrderIndex {
			t.Fatalf("expected input order preserved")
		}
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{0, UnknownDuration},
		{-5, UnknownDuration},
		{7, "0:07"},
		{60, "1:00"},
		{332, "5:32"},
		{3671, "61:11"},
	}

	for _, c := range cases {
		if got := FormatDuration(c.seconds); got != c.want {
			t.Fatalf("FormatDuration(%d) = %q, want %q", c.seconds, got, c.want)
		}
	}
}
