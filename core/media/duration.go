// Package media probes audio payloads relayed through the upload path.
package media

import (
	"errors"
	"io"

	"github.com/tcolgate/mp3"
)

// ProbeMP3Duration walks the MP3 frames of r and returns the total duration
// in whole seconds. Returns 0 when no frame decodes; the caller then falls
// back to the unknown-duration sentinel rather than failing the upload.
func ProbeMP3Duration(r io.Reader) int {
	dec := mp3.NewDecoder(r)

	var total float64
	var skipped int
	frames := 0
	for {
		var fr mp3.Frame
		if err := dec.Decode(&fr, &skipped); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			// Partial decode; keep what we have.
			break
		}
		total += fr.Duration().Seconds()
		frames++
	}

	if frames == 0 {
		return 0
	}
	return int(total + 0.5)
}
