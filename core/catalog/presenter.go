// Package catalog turns raw catalogue records into renderable track view
// models. It is the single place where absent fields are resolved to
// defaults, so downstream code never re-checks for absence.
package catalog

import "fmt"

// Record is one raw track record as the data source returns it. Fields may
// be zero/absent; the builder resolves every default.
type Record struct {
	ID           int64
	Name         string
	Kind         string
	DurationText string
	URL          string
	Position     int
}

// UnknownDuration is the sentinel shown when a track's duration was never
// measured.
const UnknownDuration = "--:--"

// DefaultKind labels tracks whose category is absent.
const DefaultKind = "Audio"

// TrackView is the renderable track model. OrderIndex is the 1-based badge
// number; it reflects curation order and is never a lookup key.
type TrackView struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	DurationText string `json:"durationText"`
	Kind         string `json:"kind"`
	OrderIndex   int    `json:"orderIndex"`
	SourceURL    string `json:"sourceUrl"`
}

// BuildTracks maps raw records to track view models, in input order. An
// empty input yields an empty (non-nil) slice, never an error; callers
// render a "no tracks" placeholder for it.
func BuildTracks(records []Record) []TrackView {
	tracks := make([]TrackView, 0, len(records))
	for i, rec := range records {
		track := TrackView{
			ID:           rec.ID,
			Title:        rec.Name,
			DurationText: rec.DurationText,
			Kind:         rec.Kind,
			OrderIndex:   i + 1,
			SourceURL:    rec.URL,
		}
		if rec.Position > 0 {
			track.OrderIndex = rec.Position
		}
		if track.ID == 0 {
			track.ID = int64(i + 1)
		}
		if track.Title == "" {
			track.Title = fmt.Sprintf("Son %d", i+1)
		}
		if track.DurationText == "" {
			track.DurationText = UnknownDuration
		}
		if track.Kind == "" {
			track.Kind = DefaultKind
		}
		tracks = append(tracks, track)
	}
	return tracks
}

// FormatDuration renders whole seconds as "m:ss", or the unknown sentinel
// for non-positive input.
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return UnknownDuration
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
