package festival

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
)

// WriteICS exports a day's events as an iCalendar feed. UIDs are derived
// from the artist slug and start time because event ids change on every
// sync.
func WriteICS(w io.Writer, name string, events []EventView, stamp time.Time) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//festivalrisk//calendar//EN")
	cal.SetName(name)

	for _, e := range events {
		uid := fmt.Sprintf("%s-%d@festivalrisk", e.ArtistSlug, e.StartTime.Unix())
		ev := cal.AddEvent(uid)
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(e.StartTime)
		ev.SetEndAt(e.EffectiveEnd())
		ev.SetSummary(e.ArtistTitle)
		if e.StageName != "" {
			ev.SetLocation(e.StageName)
		}
		if desc := describe(e); desc != "" {
			ev.SetDescription(desc)
		}
	}

	_, err := io.WriteString(w, cal.Serialize())
	return err
}

func describe(e EventView) string {
	var parts []string
	if e.RiskLevel != "" {
		parts = append(parts, "Risk: "+string(e.RiskLevel))
	}
	if e.CrowdProfile != "" {
		parts = append(parts, "Crowd: "+e.CrowdProfile)
	}
	if e.Remarks != "" {
		parts = append(parts, e.Remarks)
	}
	return strings.Join(parts, "\n")
}
