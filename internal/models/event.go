package models

import "time"

// DefaultEventDuration is assumed for events published without an end time.
const DefaultEventDuration = time.Hour

// Stage is a venue area on the festival site.
type Stage struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Event is one scheduled performance.
type Event struct {
	ID         int64      `json:"id"`
	ArtistSlug string     `json:"artist_slug"`
	StageID    int64      `json:"stage_id"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time,omitempty"`
}

// EffectiveEnd returns the end time, or start plus one hour when no end is known.
func (e Event) EffectiveEnd() time.Time {
	if e.EndTime != nil {
		return *e.EndTime
	}
	return e.StartTime.Add(DefaultEventDuration)
}

// EventDetail is an event with its artist and stage resolved.
type EventDetail struct {
	Event
	ArtistTitle string `json:"artist_title"`
	StageName   string `json:"stage_name"`
}
