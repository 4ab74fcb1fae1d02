package models

import "time"

// Artist is a performer imported from the festival program feed.
type Artist struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"` // Stable external key
	Title       string    `json:"title"`
	Nationality string    `json:"nationality,omitempty"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	SpotifyLink string    `json:"spotify_link,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ArtistDetail bundles an artist with its schedule and assessment.
type ArtistDetail struct {
	Artist
	Assessment *RiskAssessment `json:"assessment,omitempty"`
	Events     []EventDetail   `json:"events"`
}

// ArtistAssessment pairs an artist with its (possibly missing) assessment.
type ArtistAssessment struct {
	Artist     Artist          `json:"artist"`
	Assessment *RiskAssessment `json:"assessment"`
}
