package festival

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"festivalrisk/internal/models"
)

// RiskClass is the colour category of a printed event block.
type RiskClass string

const (
	RiskHigh    RiskClass = "high"
	RiskMedium  RiskClass = "medium"
	RiskLow     RiskClass = "low"
	RiskUnknown RiskClass = "unknown"
)

// RiskClassFor maps an assessment level onto a colour category.
func RiskClassFor(level models.Level) RiskClass {
	switch level {
	case models.LevelHigh:
		return RiskHigh
	case models.LevelMedium:
		return RiskMedium
	case models.LevelLow:
		return RiskLow
	default:
		return RiskUnknown
	}
}

var riskFill = map[RiskClass]string{
	RiskHigh:    "#ef4444",
	RiskMedium:  "#facc15",
	RiskLow:     "#22c55e",
	RiskUnknown: "#94a3b8",
}

// LabelMode says how much text fits inside a block.
type LabelMode int

const (
	LabelNone LabelMode = iota
	LabelTitle
	LabelFull
)

// PrintOptions sizes the printed page. Zero fields take defaults.
type PrintOptions struct {
	Width          float64
	Height         float64 // height of the time axis
	HeaderHeight   float64
	AxisWidth      float64
	MinBlockHeight float64
}

func (o PrintOptions) withDefaults() PrintOptions {
	if o.Width <= 0 {
		o.Width = 1123
	}
	if o.Height <= 0 {
		o.Height = 1500
	}
	if o.HeaderHeight <= 0 {
		o.HeaderHeight = 48
	}
	if o.AxisWidth <= 0 {
		o.AxisWidth = 56
	}
	if o.MinBlockHeight <= 0 {
		o.MinBlockHeight = 14
	}
	return o
}

const (
	fullLabelHeight  = 30
	fullLabelWidth   = 70
	titleLabelHeight = 12
	titleLabelWidth  = 28
)

// Block is one event rectangle on the printed page.
type Block struct {
	EventID int64
	Title   string
	Stage   string
	Start   time.Time
	End     time.Time
	X, Y    float64
	Width   float64
	Height  float64
	Risk    RiskClass
	Label   LabelMode
}

// Column is a stage lane.
type Column struct {
	Stage string
	X     float64
	Width float64
}

// HourMark is a labelled horizontal rule.
type HourMark struct {
	At time.Time
	Y  float64
}

// Layout is the vector rendering of one festival day.
type Layout struct {
	Title   string
	Start   time.Time
	End     time.Time
	Width   float64
	Height  float64
	Columns []Column
	Hours   []HourMark
	Blocks  []Block
	opts    PrintOptions
}

// PrintBounds rounds the day's events out to whole hours, falling back to
// the default window when there is nothing to show.
func PrintBounds(day time.Time, events []EventView) (time.Time, time.Time) {
	var first, last time.Time
	for _, e := range events {
		if e.StartTime.IsZero() {
			continue
		}
		if first.IsZero() || e.StartTime.Before(first) {
			first = e.StartTime
		}
		if end := e.EffectiveEnd(); last.IsZero() || end.After(last) {
			last = end
		}
	}
	if first.IsZero() {
		r := DefaultRange(day)
		return r.Start, r.End
	}
	start := floorHour(first)
	end := floorHour(last)
	if end.Before(last) || !end.After(start) {
		end = end.Add(time.Hour)
	}
	return start, end
}

func floorHour(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), 0, 0, 0, t.Location())
}

// BuildPrintLayout places events proportionally to their times. Blocks on
// the sentinel stage are left out, as are events on stages that are not
// listed.
func BuildPrintLayout(title string, day time.Time, stages []models.Stage, events []EventView, sentinel string, opts PrintOptions) Layout {
	opts = opts.withDefaults()
	start, end := PrintBounds(day, events)
	l := Layout{
		Title:  title,
		Start:  start,
		End:    end,
		Width:  opts.Width,
		Height: opts.HeaderHeight + opts.Height,
		opts:   opts,
	}

	var names []string
	for _, s := range stages {
		if s.Name != sentinel {
			names = append(names, s.Name)
		}
	}
	lane := make(map[string]Column, len(names))
	if len(names) > 0 {
		w := (opts.Width - opts.AxisWidth) / float64(len(names))
		for i, name := range names {
			c := Column{Stage: name, X: opts.AxisWidth + float64(i)*w, Width: w}
			l.Columns = append(l.Columns, c)
			lane[name] = c
		}
	}

	for t := start; !t.After(end); t = t.Add(time.Hour) {
		l.Hours = append(l.Hours, HourMark{At: t, Y: l.y(t)})
	}

	for _, e := range events {
		col, ok := lane[e.StageName]
		if !ok {
			continue
		}
		from, to := clip(e.StartTime, e.EffectiveEnd(), start, end)
		top := l.y(from)
		h := l.y(to) - top
		if h < opts.MinBlockHeight {
			h = opts.MinBlockHeight
		}
		b := Block{
			EventID: e.ID,
			Title:   e.ArtistTitle,
			Stage:   e.StageName,
			Start:   e.StartTime,
			End:     e.EffectiveEnd(),
			X:       col.X + 1,
			Y:       top,
			Width:   math.Max(col.Width-2, 1),
			Height:  h,
			Risk:    RiskClassFor(e.RiskLevel),
		}
		b.Label = labelFor(b.Width, b.Height)
		l.Blocks = append(l.Blocks, b)
	}
	return l
}

func labelFor(w, h float64) LabelMode {
	switch {
	case h >= fullLabelHeight && w >= fullLabelWidth:
		return LabelFull
	case h >= titleLabelHeight && w >= titleLabelWidth:
		return LabelTitle
	default:
		return LabelNone
	}
}

func clip(from, to, lo, hi time.Time) (time.Time, time.Time) {
	if from.Before(lo) {
		from = lo
	}
	if from.After(hi) {
		from = hi
	}
	if to.After(hi) {
		to = hi
	}
	if to.Before(from) {
		to = from
	}
	return from, to
}

func (l Layout) y(t time.Time) float64 {
	total := l.End.Sub(l.Start)
	if total <= 0 {
		return l.opts.HeaderHeight
	}
	frac := float64(t.Sub(l.Start)) / float64(total)
	return l.opts.HeaderHeight + frac*l.opts.Height
}

// WriteSVG renders the layout as a standalone SVG document.
func (l Layout) WriteSVG(w io.Writer) error {
	bw := bufio.NewWriter(w)
	p := func(format string, args ...any) {
		fmt.Fprintf(bw, format, args...)
	}

	p(`<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f" font-family="sans-serif">`+"\n",
		l.Width, l.Height, l.Width, l.Height)
	p(`<rect width="100%%" height="100%%" fill="#ffffff"/>` + "\n")
	p(`<text x="8" y="20" font-size="16" font-weight="bold">%s</text>`+"\n", escape(l.Title))

	for _, c := range l.Columns {
		p(`<text x="%.1f" y="%.1f" font-size="11" text-anchor="middle">%s</text>`+"\n",
			c.X+c.Width/2, l.opts.HeaderHeight-8, escape(c.Stage))
		p(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#e2e8f0"/>`+"\n",
			c.X, l.opts.HeaderHeight, c.X, l.Height)
	}
	for _, h := range l.Hours {
		p(`<line x1="0" y1="%.1f" x2="%.0f" y2="%.1f" stroke="#cbd5e1"/>`+"\n", h.Y, l.Width, h.Y)
		p(`<text x="4" y="%.1f" font-size="10">%s</text>`+"\n", h.Y+11, h.At.Format("15:04"))
	}
	for _, b := range l.Blocks {
		p(`<g class="event risk-%s" data-event-id="%d">`+"\n", b.Risk, b.EventID)
		p(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="2" fill="%s" stroke="#334155" stroke-width="0.5"/>`+"\n",
			b.X, b.Y, b.Width, b.Height, riskFill[b.Risk])
		switch b.Label {
		case LabelFull:
			p(`<text x="%.1f" y="%.1f" font-size="10" font-weight="bold">%s</text>`+"\n", b.X+3, b.Y+11, escape(b.Title))
			p(`<text x="%.1f" y="%.1f" font-size="9">%s-%s</text>`+"\n", b.X+3, b.Y+22,
				b.Start.Format("15:04"), b.End.Format("15:04"))
		case LabelTitle:
			p(`<text x="%.1f" y="%.1f" font-size="8">%s</text>`+"\n", b.X+2, b.Y+9, escape(b.Title))
		}
		p("</g>\n")
	}
	p("</svg>\n")
	return bw.Flush()
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
