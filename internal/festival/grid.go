package festival

import (
	"time"

	"festivalrisk/internal/models"
)

const (
	// SlotDuration is the grid resolution.
	SlotDuration = 15 * time.Minute
	// AnchorSpan is the number of slots every event block covers, whatever
	// its real duration.
	AnchorSpan = 4
)

// Range is a closed display interval.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DefaultRange is the window shown for a day without events: 08:00 until
// 03:00 the next morning.
func DefaultRange(day time.Time) Range {
	y, m, d := day.Date()
	loc := day.Location()
	return Range{
		Start: time.Date(y, m, d, 8, 0, 0, 0, loc),
		End:   time.Date(y, m, d+1, 3, 0, 0, 0, loc),
	}
}

// FloorSlot rounds t down to a quarter hour of wall-clock time.
func FloorSlot(t time.Time) time.Time {
	y, m, d := t.Date()
	minutes := t.Hour()*60 + t.Minute()
	minutes -= minutes % int(SlotDuration/time.Minute)
	return time.Date(y, m, d, 0, minutes, 0, 0, t.Location())
}

// CeilSlot rounds t up to the next quarter hour. Values already on a
// boundary are returned unchanged.
func CeilSlot(t time.Time) time.Time {
	floor := FloorSlot(t)
	if floor.Equal(t) {
		return floor
	}
	return floor.Add(SlotDuration)
}

// DisplayRange tightens the default window to the events of the day.
func DisplayRange(day time.Time, events []EventView) Range {
	if len(events) == 0 {
		return DefaultRange(day)
	}
	first := events[0].StartTime
	last := events[0].EffectiveEnd()
	for _, e := range events[1:] {
		if e.StartTime.Before(first) {
			first = e.StartTime
		}
		if end := e.EffectiveEnd(); end.After(last) {
			last = end
		}
	}
	return Range{Start: FloorSlot(first), End: CeilSlot(last)}
}

// Slots lists every slot boundary from r.Start to r.End inclusive.
func Slots(r Range) []time.Time {
	var slots []time.Time
	for t := r.Start; !t.After(r.End); t = t.Add(SlotDuration) {
		slots = append(slots, t)
	}
	return slots
}

// CellKind tells anchors apart from the placeholders they cover.
type CellKind string

const (
	CellAnchor      CellKind = "anchor"
	CellPlaceholder CellKind = "placeholder"
)

// Cell is one occupied stage/slot position. Anchors carry the event and
// its span; placeholders only reference the anchoring event.
type Cell struct {
	Kind    CellKind   `json:"kind"`
	EventID int64      `json:"event_id"`
	Span    int        `json:"span,omitempty"`
	Event   *EventView `json:"event,omitempty"`
}

// Conflict records an event that could not be placed because another
// event on the same stage already anchors at the same slot.
type Conflict struct {
	Stage   string    `json:"stage"`
	Slot    time.Time `json:"slot"`
	EventID int64     `json:"event_id"`
	KeptID  int64     `json:"kept_event_id"`
}

// Grid is the stage by slot timetable for one festival day.
type Grid struct {
	Day       time.Time                     `json:"day"`
	Range     Range                         `json:"range"`
	Slots     []time.Time                   `json:"slots"`
	Stages    []string                      `json:"stages"`
	Cells     map[string]map[time.Time]Cell `json:"cells"`
	Events    []EventView                   `json:"events"`
	Unplaced  []int64                       `json:"unplaced,omitempty"`
	Conflicts []Conflict                    `json:"conflicts,omitempty"`
}

// BuildGrid lays the day's events out on the stage columns, leaving out the
// sentinel stage. Events are placed in start order. When a later event
// anchors inside an earlier event's block on the same stage, the earlier
// block is cut short at that slot. When two events anchor at the very same
// slot the first one stays and the second is reported in Conflicts. Every
// event remains in Events either way.
func BuildGrid(day time.Time, stages []models.Stage, events []EventView, sentinel string) Grid {
	ordered := make([]EventView, len(events))
	copy(ordered, events)
	sortViews(ordered)

	r := DisplayRange(day, ordered)
	g := Grid{
		Day:    day,
		Range:  r,
		Slots:  Slots(r),
		Stages: make([]string, 0, len(stages)),
		Cells:  make(map[string]map[time.Time]Cell),
		Events: ordered,
	}

	columns := make(map[string][]Cell)
	for _, s := range stages {
		if s.Name == sentinel {
			continue
		}
		if _, dup := columns[s.Name]; dup {
			continue
		}
		g.Stages = append(g.Stages, s.Name)
		columns[s.Name] = make([]Cell, len(g.Slots))
	}

	for i := range g.Events {
		ev := &g.Events[i]
		col, ok := columns[ev.StageName]
		idx := slotIndex(g.Slots, ev.StartTime)
		if !ok || idx < 0 {
			g.Unplaced = append(g.Unplaced, ev.ID)
			continue
		}

		switch existing := col[idx]; existing.Kind {
		case CellAnchor:
			g.Conflicts = append(g.Conflicts, Conflict{
				Stage:   ev.StageName,
				Slot:    g.Slots[idx],
				EventID: ev.ID,
				KeptID:  existing.EventID,
			})
			continue
		case CellPlaceholder:
			truncate(col, idx, existing.EventID)
		}

		// The anchor keeps its full span near the window end; only the
		// placeholders stop at the last slot.
		col[idx] = Cell{Kind: CellAnchor, EventID: ev.ID, Span: AnchorSpan, Event: ev}
		for j := idx + 1; j < idx+AnchorSpan && j < len(col); j++ {
			col[j] = Cell{Kind: CellPlaceholder, EventID: ev.ID}
		}
	}

	for name, col := range columns {
		cells := make(map[time.Time]Cell)
		for i, c := range col {
			if c.Kind != "" {
				cells[g.Slots[i]] = c
			}
		}
		g.Cells[name] = cells
	}
	return g
}

// truncate ends the block of eventID just before slot idx.
func truncate(col []Cell, idx int, eventID int64) {
	for j := idx; j < len(col) && col[j].Kind == CellPlaceholder && col[j].EventID == eventID; j++ {
		col[j] = Cell{}
	}
	for j := idx - 1; j >= 0; j-- {
		if col[j].Kind == CellAnchor && col[j].EventID == eventID {
			col[j].Span = idx - j
			return
		}
	}
}

// slotIndex finds the slot whose [slot, slot+15m) interval contains t.
func slotIndex(slots []time.Time, t time.Time) int {
	for i, s := range slots {
		if !t.Before(s) && t.Before(s.Add(SlotDuration)) {
			return i
		}
	}
	return -1
}

// Cell returns the cell for a stage at slot, if any.
func (g Grid) Cell(stage string, slot time.Time) (Cell, bool) {
	c, ok := g.Cells[stage][slot]
	return c, ok
}

// RowCell is one table cell in Rows. Skip is set for slots covered by an
// anchor above it.
type RowCell struct {
	Stage string
	Cell  Cell
	Empty bool
	Skip  bool
}

// Row is one slot line of the timetable.
type Row struct {
	Slot  time.Time
	Cells []RowCell
}

// Rows turns the grid into table rows ready for an HTML template.
func (g Grid) Rows() []Row {
	rows := make([]Row, 0, len(g.Slots))
	for _, slot := range g.Slots {
		row := Row{Slot: slot, Cells: make([]RowCell, 0, len(g.Stages))}
		for _, stage := range g.Stages {
			c, ok := g.Cell(stage, slot)
			rc := RowCell{Stage: stage, Cell: c}
			switch {
			case !ok:
				rc.Empty = true
			case c.Kind == CellPlaceholder:
				rc.Skip = true
			}
			row.Cells = append(row.Cells, rc)
		}
		rows = append(rows, row)
	}
	return rows
}
