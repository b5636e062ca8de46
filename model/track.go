package model

import "time"

// Track is one audio recording attached to a day. DurationText is the
// preformatted "m:ss" display string, or "--:--" when the duration could not
// be measured. Position is the 1-based curation order inside the day; it is
// display order only, never a lookup key.
type Track struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	DayID        int64     `json:"dayId" gorm:"index;not null"`
	Name         string    `json:"name" gorm:"size:255"`
	Kind         string    `json:"kind" gorm:"size:64"` // e.g. "Kourel", "Khassida"
	DurationText string    `json:"durationText" gorm:"size:16"`
	URL          string    `json:"url" gorm:"size:1024"`
	ObjectKey    string    `json:"-" gorm:"size:512"` // media store key, not exposed
	Position     int       `json:"position"`
	CreatedAt    time.Time `json:"createdAt"`
}
