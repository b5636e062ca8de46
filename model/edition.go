package model

import "time"

// Edition groups the 30 days of one year's programme.
type Edition struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Year      int       `json:"year" gorm:"uniqueIndex;not null"`
	Title     string    `json:"title" gorm:"size:255"`
	TitleAr   string    `json:"titleAr" gorm:"size:255"`
	Active    bool      `json:"active" gorm:"default:true"`
	CreatedAt time.Time `json:"createdAt"`
}

// Day is one scheduled programme unit inside an edition.
type Day struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	EditionID   int64     `json:"editionId" gorm:"index;not null"`
	Number      int       `json:"number" gorm:"not null"` // 1..30
	Title       string    `json:"title" gorm:"size:255"`
	TitleAr     string    `json:"titleAr" gorm:"size:255"`
	ProgramDate string    `json:"programDate" gorm:"size:10"` // YYYY-MM-DD
	CreatedAt   time.Time `json:"createdAt"`
}

// DayWithCount is a Day annotated with its number of tracks, used by
// edition listings.
type DayWithCount struct {
	Day
	TrackCount int64 `json:"trackCount"`
}
