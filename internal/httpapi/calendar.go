package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"festivalrisk/internal/festival"
	"festivalrisk/internal/logging"
)

func (s *Server) dayFromPath(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	day, err := festival.ParseDate(r.PathValue("date"), s.calendar.Location())
	if err != nil {
		if isAPI(r) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown date"})
		} else {
			s.views.render(w, http.StatusNotFound, "error", s.page(r, "Not found", "Dates look like 2025-07-03."))
		}
		return time.Time{}, false
	}
	return day, true
}

func (s *Server) handleCalendarRedirect(w http.ResponseWriter, r *http.Request) {
	day := s.calendar.DefaultDay(r.Context())
	http.Redirect(w, r, "/calendar/"+day.Format(festival.DateLayout), http.StatusFound)
}

func (s *Server) handleCalendarPage(w http.ResponseWriter, r *http.Request) {
	day, ok := s.dayFromPath(w, r)
	if !ok {
		return
	}
	p := s.calendar.Page(r.Context(), day)
	s.views.render(w, http.StatusOK, "calendar", s.page(r, p.Day.Label, p))
}

func (s *Server) handleCalendarJSON(w http.ResponseWriter, r *http.Request) {
	day, ok := s.dayFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.calendar.Page(r.Context(), day))
}

func (s *Server) handleCalendarPrint(w http.ResponseWriter, r *http.Request) {
	day, ok := s.dayFromPath(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	opts := festival.PrintOptions{
		Width:  positiveFloat(q.Get("width")),
		Height: positiveFloat(q.Get("height")),
	}
	layout := s.calendar.PrintLayout(r.Context(), day, opts)

	var buf bytes.Buffer
	if err := layout.WriteSVG(&buf); err != nil {
		logging.WithContext(r.Context()).Error().Err(err).Msg("render print view")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleCalendarICS(w http.ResponseWriter, r *http.Request) {
	day, ok := s.dayFromPath(w, r)
	if !ok {
		return
	}

	events := s.calendar.Events(r.Context(), day)
	var buf bytes.Buffer
	if err := festival.WriteICS(&buf, s.calendar.Label(day), events, s.now()); err != nil {
		logging.WithContext(r.Context()).Error().Err(err).Msg("render ics")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="festival-%s.ics"`, day.Format(festival.DateLayout)))
	_, _ = buf.WriteTo(w)
}

// positiveFloat returns 0 for missing or invalid values so the print
// defaults apply.
func positiveFloat(v string) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 || f > 10000 {
		return 0
	}
	return f
}
