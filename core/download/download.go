// Package download builds deterministic file names for track downloads and
// dispatches the save, degrading to a direct link when the blob fetch is
// refused.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"
)

// AckWindow is how long the triggering control shows its success indicator
// before reverting to the resting icon.
const AckWindow = 2 * time.Second

var whitespaceRuns = regexp.MustCompile(`\s+`)

// BuildName derives the download file name for a track:
// "Jour{day}_Son{id}_{title}.mp3" with every whitespace run in the title
// collapsed to a single underscore. Unique track ids within a day make the
// scheme collision-free.
func BuildName(dayNumber int, trackID int64, title string) string {
	safe := whitespaceRuns.ReplaceAllString(title, "_")
	return fmt.Sprintf("Jour%d_Son%d_%s.mp3", dayNumber, trackID, safe)
}

// Saver persists a fetched blob under the chosen file name. The web
// rendering layer implements it with an object URL + anchor click.
type Saver interface {
	Save(filename string, data []byte) error
}

// DirectOpener opens the original resource URL in a new browsing context,
// the degraded path used when the blob fetch is rejected.
type DirectOpener interface {
	Open(url string) error
}

// Outcome reports which path served the download.
type Outcome struct {
	Filename string
	Fallback bool // true when the direct-link path was used
}

// Dispatcher fetches a track as an opaque blob and saves it under the
// deterministic name, so the saved file is named correctly regardless of the
// remote resource's own name or disposition headers.
type Dispatcher struct {
	Client *http.Client
	Saver  Saver
	Opener DirectOpener
}

// Dispatch runs the preferred blob path and falls back to the direct link on
// failure. The fallback's file name is best-effort; the outcome says so
// instead of failing silently.
func (d *Dispatcher) Dispatch(ctx context.Context, url, filename string) (Outcome, error) {
	if err := d.fetchAndSave(ctx, url, filename); err != nil {
		if openErr := d.Opener.Open(url); openErr != nil {
			return Outcome{}, fmt.Errorf("blob fetch failed (%v) and direct open failed: %w", err, openErr)
		}
		return Outcome{Filename: filename, Fallback: true}, nil
	}
	return Outcome{Filename: filename}, nil
}

func (d *Dispatcher) fetchAndSave(ctx context.Context, url, filename string) error {
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch blob: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d fetching blob", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read blob: %w", err)
	}

	if err := d.Saver.Save(filename, data); err != nil {
		return fmt.Errorf("failed to save blob: %w", err)
	}
	return nil
}
