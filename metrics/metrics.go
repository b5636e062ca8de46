package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PlaybackToggles counts playback toggle operations by resulting transport.
	PlaybackToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mashrabu_playback_toggles_total",
		Help: "Playback toggle operations by resulting transport state.",
	}, []string{"transport"})

	// UploadsTotal counts track uploads by outcome.
	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mashrabu_uploads_total",
		Help: "Track uploads by outcome.",
	}, []string{"outcome"})

	// ListingCacheHits counts track-listing cache lookups by result.
	ListingCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mashrabu_listing_cache_lookups_total",
		Help: "Track listing cache lookups by result.",
	}, []string{"result"})
)
