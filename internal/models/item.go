package models

import (
	"fmt"
	"time"
)

// MusicCategoryID is the YouTube video category for music.
const MusicCategoryID = "10"

// Item is the catalog-independent representation of a playlist entry or search hit.
//
// Source catalog items carry Artist; target catalog items carry Channel. Optional
// fields are left at their zero value when a catalog does not report them.
type Item struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Artist     string    `json:"artist,omitempty"`
	Channel    string    `json:"channel,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	AddedAt    time.Time `json:"added_at,omitzero"`

	// Spotify popularity, 0-100.
	Popularity int `json:"popularity,omitempty"`

	// YouTube video metadata.
	ViewCount   int64     `json:"view_count,omitempty"`
	CategoryID  string    `json:"category_id,omitempty"`
	PublishedAt time.Time `json:"published_at,omitzero"`
	Description string    `json:"description,omitempty"`
}

// Duration returns the item length as a [time.Duration].
func (i Item) Duration() time.Duration {
	return time.Duration(i.DurationMs) * time.Millisecond
}

// Label renders the item as "artist - title" for logs and reports.
func (i Item) Label() string {
	who := i.Artist
	if who == "" {
		who = i.Channel
	}
	if who == "" {
		return i.Title
	}
	return fmt.Sprintf("%s - %s", who, i.Title)
}

// Direction names the catalog that plays the source role in a leg.
type Direction string

const (
	Forward Direction = "forward" // Spotify → YouTube
	Reverse Direction = "reverse" // YouTube → Spotify
)

func (d Direction) String() string {
	return string(d)
}

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	return d == Forward || d == Reverse
}
