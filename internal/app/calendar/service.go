// Package calendar assembles the festival-day views: the stage grid, the
// print layout and the iCalendar export. Storage failures never surface to
// the caller; they are logged and an empty day is rendered instead.
package calendar

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"festivalrisk/internal/festival"
	"festivalrisk/internal/models"
)

// Store exposes the schedule queries the calendar needs.
type Store interface {
	ListStages(ctx context.Context, exclude string) ([]models.Stage, error)
	EventsBetween(ctx context.Context, start, end time.Time) ([]models.EventDetail, error)
	EventStartTimes(ctx context.Context) ([]time.Time, error)
	Assessments(ctx context.Context) (map[string]models.RiskAssessment, error)
}

// Options configures a Service.
type Options struct {
	Location      *time.Location
	SentinelStage string
	Weekdays      festival.WeekdayNames
	Logger        zerolog.Logger
	Now           func() time.Time
}

// DayLink is one entry of the day navigation.
type DayLink struct {
	Date  string    `json:"date"`
	Label string    `json:"label"`
	Day   time.Time `json:"day"`
}

// Page is everything the day view renders.
type Page struct {
	Day        DayLink              `json:"day"`
	Days       []DayLink            `json:"days"`
	Prev       *DayLink             `json:"prev,omitempty"`
	Next       *DayLink             `json:"next,omitempty"`
	Grid       festival.Grid        `json:"grid"`
	Unassigned []festival.EventView `json:"unassigned"`
}

// Service builds festival-day views.
type Service interface {
	Days(ctx context.Context) []DayLink
	DefaultDay(ctx context.Context) time.Time
	Page(ctx context.Context, day time.Time) Page
	Events(ctx context.Context, day time.Time) []festival.EventView
	PrintLayout(ctx context.Context, day time.Time, opts festival.PrintOptions) festival.Layout
	Location() *time.Location
	Label(day time.Time) string
}

type service struct {
	store    Store
	loc      *time.Location
	sentinel string
	weekdays festival.WeekdayNames
	logger   zerolog.Logger
	now      func() time.Time
}

// New constructs a calendar Service.
func New(store Store, opts Options) Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.SentinelStage == "" {
		opts.SentinelStage = "TBA"
	}
	if opts.Weekdays == (festival.WeekdayNames{}) {
		opts.Weekdays = festival.DanishWeekdays
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &service{
		store:    store,
		loc:      opts.Location,
		sentinel: opts.SentinelStage,
		weekdays: opts.Weekdays,
		logger:   opts.Logger,
		now:      opts.Now,
	}
}

func (s *service) Location() *time.Location { return s.loc }

func (s *service) Label(day time.Time) string { return s.weekdays.Label(day) }

// Days lists every festival day that has at least one event, in order.
func (s *service) Days(ctx context.Context) []DayLink {
	starts, err := s.store.EventStartTimes(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("list event start times")
		return nil
	}

	seen := make(map[string]struct{})
	var days []DayLink
	for _, t := range starts {
		d := festival.Day(t.In(s.loc))
		key := d.Format(festival.DateLayout)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		days = append(days, s.link(d))
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Day.Before(days[j].Day) })
	return days
}

// DefaultDay is the festival day of the earliest event, or the current
// festival day when there are none.
func (s *service) DefaultDay(ctx context.Context) time.Time {
	if days := s.Days(ctx); len(days) > 0 {
		return days[0].Day
	}
	return festival.Day(s.now().In(s.loc))
}

func (s *service) Events(ctx context.Context, day time.Time) []festival.EventView {
	start, end := festival.Window(day)
	events, err := s.store.EventsBetween(ctx, start, end)
	if err != nil {
		s.logger.Error().Err(err).Str("day", day.Format(festival.DateLayout)).Msg("load events for day")
		return []festival.EventView{}
	}
	assessments, err := s.store.Assessments(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("load assessments")
		assessments = nil
	}

	views := festival.Project(events, assessments)
	for i := range views {
		views[i].StartTime = views[i].StartTime.In(s.loc)
		if views[i].EndTime != nil {
			end := views[i].EndTime.In(s.loc)
			views[i].EndTime = &end
		}
	}
	return views
}

func (s *service) stages(ctx context.Context) []models.Stage {
	stages, err := s.store.ListStages(ctx, s.sentinel)
	if err != nil {
		s.logger.Error().Err(err).Msg("list stages")
		return nil
	}
	return stages
}

func (s *service) Page(ctx context.Context, day time.Time) Page {
	events := s.Events(ctx, day)
	p := Page{
		Day:        s.link(day),
		Days:       s.Days(ctx),
		Grid:       festival.BuildGrid(day, s.stages(ctx), events, s.sentinel),
		Unassigned: []festival.EventView{},
	}
	for _, e := range events {
		if e.StageName == s.sentinel {
			p.Unassigned = append(p.Unassigned, e)
		}
	}
	for _, c := range p.Grid.Conflicts {
		s.logger.Warn().
			Str("stage", c.Stage).
			Time("slot", c.Slot).
			Int64("event_id", c.EventID).
			Int64("kept_event_id", c.KeptID).
			Msg("overlapping events on one stage")
	}

	for i, d := range p.Days {
		switch {
		case d.Day.Before(day):
			prev := p.Days[i]
			p.Prev = &prev
		case d.Day.After(day) && p.Next == nil:
			next := p.Days[i]
			p.Next = &next
		}
	}
	return p
}

func (s *service) PrintLayout(ctx context.Context, day time.Time, opts festival.PrintOptions) festival.Layout {
	events := s.Events(ctx, day)
	return festival.BuildPrintLayout(s.Label(day), day, s.stages(ctx), events, s.sentinel, opts)
}

func (s *service) link(day time.Time) DayLink {
	return DayLink{Date: day.Format(festival.DateLayout), Label: s.weekdays.Label(day), Day: day}
}
