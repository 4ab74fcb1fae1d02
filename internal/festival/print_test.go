package festival

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"festivalrisk/internal/models"
)

func TestPrintBounds(t *testing.T) {
	loc := copenhagen(t)
	day := at(loc, 9, 0, 0)

	start, end := PrintBounds(day, nil)
	assert.Equal(t, at(loc, 9, 8, 0), start)
	assert.Equal(t, at(loc, 10, 3, 0), end)

	events := []EventView{
		view(1, "a", "Main", at(loc, 9, 14, 20), ptr(at(loc, 9, 15, 10))),
		view(2, "b", "Main", at(loc, 10, 0, 30), nil),
	}
	start, end = PrintBounds(day, events)
	assert.Equal(t, at(loc, 9, 14, 0), start)
	assert.Equal(t, at(loc, 10, 2, 0), end)

	exact := []EventView{view(1, "a", "Main", at(loc, 9, 14, 0), ptr(at(loc, 9, 16, 0)))}
	start, end = PrintBounds(day, exact)
	assert.Equal(t, at(loc, 9, 14, 0), start)
	assert.Equal(t, at(loc, 9, 16, 0), end)
}

func TestBuildPrintLayoutProportions(t *testing.T) {
	loc := copenhagen(t)
	day := at(loc, 9, 0, 0)
	stages := []models.Stage{{ID: 1, Name: "Main"}, {ID: 2, Name: "TBA"}, {ID: 3, Name: "Side"}}
	events := []EventView{
		view(1, "a", "Main", at(loc, 9, 12, 0), ptr(at(loc, 9, 14, 0))),
		view(2, "b", "Side", at(loc, 9, 14, 0), ptr(at(loc, 9, 16, 0))),
		view(3, "c", "TBA", at(loc, 9, 13, 0), nil),
	}
	events[0].RiskLevel = models.LevelHigh

	opts := PrintOptions{Width: 1056, Height: 1000, HeaderHeight: 50, AxisWidth: 56}
	l := BuildPrintLayout("Lørdag", day, stages, events, "TBA", opts)

	require.Len(t, l.Columns, 2)
	assert.InDelta(t, 500, l.Columns[0].Width, 0.001)
	assert.InDelta(t, 556, l.Columns[1].X, 0.001)
	require.Len(t, l.Blocks, 2, "sentinel stage events are not drawn")
	require.Len(t, l.Hours, 5)

	a, b := l.Blocks[0], l.Blocks[1]
	assert.InDelta(t, 50, a.Y, 0.001)
	assert.InDelta(t, 500, a.Height, 0.001)
	assert.InDelta(t, 550, b.Y, 0.001)
	assert.Equal(t, RiskHigh, a.Risk)
	assert.Equal(t, RiskUnknown, b.Risk)
	assert.Equal(t, LabelFull, a.Label)
}

func TestBuildPrintLayoutMinimumHeight(t *testing.T) {
	loc := copenhagen(t)
	day := at(loc, 9, 0, 0)
	stages := []models.Stage{{ID: 1, Name: "Main"}}
	events := []EventView{
		view(1, "a", "Main", at(loc, 9, 10, 0), ptr(at(loc, 9, 22, 0))),
		view(2, "b", "Main", at(loc, 9, 12, 0), ptr(at(loc, 9, 12, 0))),
		view(3, "c", "Main", at(loc, 9, 13, 0), ptr(at(loc, 9, 12, 30))),
	}

	l := BuildPrintLayout("", day, stages, events, "TBA", PrintOptions{Height: 600, MinBlockHeight: 10})
	require.Len(t, l.Blocks, 3)
	assert.InDelta(t, 10, l.Blocks[1].Height, 0.001)
	assert.InDelta(t, 10, l.Blocks[2].Height, 0.001)
	assert.Equal(t, LabelNone, l.Blocks[1].Label)
}

func TestLabelDegradation(t *testing.T) {
	assert.Equal(t, LabelFull, labelFor(120, 40))
	assert.Equal(t, LabelTitle, labelFor(120, 20))
	assert.Equal(t, LabelTitle, labelFor(40, 40))
	assert.Equal(t, LabelNone, labelFor(20, 40))
	assert.Equal(t, LabelNone, labelFor(120, 8))
}

func TestRiskClassFallback(t *testing.T) {
	assert.Equal(t, RiskUnknown, RiskClassFor(models.LevelUnset))
	assert.Equal(t, RiskUnknown, RiskClassFor(models.Level("extreme")))
	assert.Equal(t, RiskMedium, RiskClassFor(models.LevelMedium))
	assert.Equal(t, RiskLow, RiskClassFor(models.LevelLow))
}

func TestWriteSVG(t *testing.T) {
	loc := copenhagen(t)
	day := at(loc, 9, 0, 0)
	events := []EventView{view(1, "a", "Main", at(loc, 9, 20, 0), nil)}
	events[0].ArtistTitle = "Salt & Pepper <live>"

	l := BuildPrintLayout("Lørdag 2025-08-09", day, []models.Stage{{ID: 1, Name: "Main"}}, events, "TBA", PrintOptions{})

	var buf bytes.Buffer
	require.NoError(t, l.WriteSVG(&buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<svg "))
	assert.Contains(t, out, "Salt &amp; Pepper &lt;live&gt;")
	assert.Contains(t, out, `class="event risk-unknown"`)
	assert.Contains(t, out, riskFill[RiskUnknown])
	assert.Contains(t, out, "20:00-21:00")
	assert.True(t, strings.HasSuffix(out, "</svg>\n"))
}

func TestWriteICS(t *testing.T) {
	loc := copenhagen(t)
	events := []EventView{
		view(1, "band-x", "Main", at(loc, 9, 23, 30), nil),
		view(2, "band-y", "Side", at(loc, 10, 1, 0), ptr(at(loc, 10, 2, 0))),
	}
	events[0].ArtistTitle = "Band X"
	events[0].RiskLevel = models.LevelMedium

	var buf bytes.Buffer
	require.NoError(t, WriteICS(&buf, "Lørdag 2025-08-09", events, at(loc, 1, 12, 0)))
	out := buf.String()

	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "SUMMARY:Band X")
	assert.Contains(t, out, "LOCATION:Main")
	assert.Contains(t, out, "band-x-")
}
