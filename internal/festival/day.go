// Package festival holds the calendar logic for festival days: the 06:00
// day boundary, the 15-minute timetable grid and the print layout.
package festival

import (
	"fmt"
	"strings"
	"time"
)

// DayStartHour is the wall-clock hour at which a festival day begins.
// Anything earlier belongs to the previous day's program.
const DayStartHour = 6

// DateLayout is the URL and display layout for a festival day.
const DateLayout = "2006-01-02"

// Day returns the festival day that t belongs to, as midnight in t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	if t.Hour() < DayStartHour {
		d--
	}
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Window returns the half-open interval [day 06:00, day+1 06:00) covering
// every event of the given festival day.
func Window(day time.Time) (start, end time.Time) {
	y, m, d := day.Date()
	loc := day.Location()
	start = time.Date(y, m, d, DayStartHour, 0, 0, 0, loc)
	end = time.Date(y, m, d+1, DayStartHour, 0, 0, 0, loc)
	return start, end
}

// Contains reports whether t starts within the festival day.
func Contains(day, t time.Time) bool {
	start, end := Window(day)
	return !t.Before(start) && t.Before(end)
}

// ParseDate parses a YYYY-MM-DD festival day in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse festival day %q: %w", value, err)
	}
	return day, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTimestamp accepts the timestamp formats seen in the program feed.
// Values without an offset are read as wall-clock time in loc; values with
// one are converted to loc.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, value, loc)
		if err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}

// WeekdayNames holds display names indexed by time.Weekday.
type WeekdayNames [7]string

var (
	DanishWeekdays  = WeekdayNames{"Søndag", "Mandag", "Tirsdag", "Onsdag", "Torsdag", "Fredag", "Lørdag"}
	EnglishWeekdays = WeekdayNames{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
)

// WeekdaysFor returns the names for a locale code, defaulting to Danish.
func WeekdaysFor(locale string) WeekdayNames {
	switch strings.ToLower(strings.TrimSpace(locale)) {
	case "en", "en_gb", "en_us", "english":
		return EnglishWeekdays
	default:
		return DanishWeekdays
	}
}

// For names the festival day of t, so 02:15 on a Sunday reads as Saturday.
func (n WeekdayNames) For(t time.Time) string {
	return n[Day(t).Weekday()]
}

// Label formats a festival day (as returned by Day) as "Lørdag 2025-08-09".
func (n WeekdayNames) Label(day time.Time) string {
	return n[day.Weekday()] + " " + day.Format(DateLayout)
}
