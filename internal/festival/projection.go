package festival

import (
	"sort"
	"time"

	"festivalrisk/internal/models"
)

// EventView is the flat record handed to templates and client scripts:
// one event with its artist, stage and assessment fields inlined.
type EventView struct {
	ID             int64        `json:"id"`
	ArtistTitle    string       `json:"artist_title"`
	ArtistSlug     string       `json:"artist_slug"`
	StageName      string       `json:"stage_name"`
	StartTime      time.Time    `json:"start_time"`
	EndTime        *time.Time   `json:"end_time"`
	RiskLevel      models.Level `json:"risk_level"`
	IntensityLevel models.Level `json:"intensity_level"`
	DensityLevel   models.Level `json:"density_level"`
	Remarks        string       `json:"remarks"`
	CrowdProfile   string       `json:"crowd_profile"`
	Notes          string       `json:"notes"`
}

// EffectiveEnd mirrors models.Event.EffectiveEnd.
func (v EventView) EffectiveEnd() time.Time {
	if v.EndTime != nil {
		return *v.EndTime
	}
	return v.StartTime.Add(models.DefaultEventDuration)
}

// Project flattens events and joins the assessment for each artist.
// The result is ordered by start time, then artist slug.
func Project(events []models.EventDetail, assessments map[string]models.RiskAssessment) []EventView {
	views := make([]EventView, 0, len(events))
	for _, e := range events {
		v := EventView{
			ID:          e.ID,
			ArtistTitle: e.ArtistTitle,
			ArtistSlug:  e.ArtistSlug,
			StageName:   e.StageName,
			StartTime:   e.StartTime,
		}
		if e.EndTime != nil {
			end := *e.EndTime
			v.EndTime = &end
		}
		if a, ok := assessments[e.ArtistSlug]; ok {
			v.RiskLevel = a.RiskLevel
			v.IntensityLevel = a.IntensityLevel
			v.DensityLevel = a.DensityLevel
			v.Remarks = a.Remarks
			v.CrowdProfile = a.CrowdProfile
			v.Notes = a.Notes
		}
		views = append(views, v)
	}
	sortViews(views)
	return views
}

func sortViews(views []EventView) {
	sort.SliceStable(views, func(i, j int) bool {
		if !views[i].StartTime.Equal(views[j].StartTime) {
			return views[i].StartTime.Before(views[j].StartTime)
		}
		if views[i].ArtistSlug != views[j].ArtistSlug {
			return views[i].ArtistSlug < views[j].ArtistSlug
		}
		return views[i].ID < views[j].ID
	})
}
