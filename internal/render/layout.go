package render

import (
	"sort"
	"strconv"
	"strings"

	"github.com/enzomtp/edtbot/internal/model"
)

// Visible time window and sizing defaults. Courses outside the window
// are not rendered.
const (
	DefaultStartHour = 9
	DefaultEndHour   = 18

	MinColumnWidth = 300
	MinGridHeight  = 200

	columnPadding = 20
	textPadding   = 40
	gutterWidth   = 56
	bottomMargin  = 20
)

// Block is the geometry of one course on the grid. Recomputed on
// every render, never persisted.
type Block struct {
	X, Y, W, H float64
	Course     model.Course
}

// Column is one day's vertical lane.
type Column struct {
	Date   string // YYYY-MM-DD
	X      float64
	Width  float64
	Blocks []Block
}

// Layout is the full grid geometry for a render. The title strip sits
// above the optional header-band row; the grid starts below both.
type Layout struct {
	Columns      []Column
	Width        float64
	Height       float64
	StartHour    int
	EndHour      int
	TitleHeight  float64
	HeaderHeight float64
	GridTop      float64
	GridHeight   float64
	GutterX      float64
	Placeholder  bool // no renderable courses; draw the "no data" surface
}

// Config controls the layout computation. Zero values fall back to
// defaults; Measure defaults to an approximate per-rune width so the
// engine works without a font. HeaderHeight zero means no header-band
// row is reserved.
type Config struct {
	StartHour    int
	EndHour      int
	GridHeight   float64
	TitleHeight  float64
	HeaderHeight float64
	Measure      func(string) float64
}

func (c *Config) fillDefaults() {
	if c.StartHour == 0 && c.EndHour == 0 {
		c.StartHour = DefaultStartHour
		c.EndHour = DefaultEndHour
	}
	if c.GridHeight == 0 {
		c.GridHeight = float64(c.EndHour-c.StartHour) * 60
	}
	if c.TitleHeight == 0 {
		c.TitleHeight = 44
	}
	if c.Measure == nil {
		c.Measure = func(s string) float64 { return float64(len([]rune(s))) * 7 }
	}
}

// Compute lays out the named courses on a time-proportional grid, one
// column per distinct date in ascending order.
func Compute(courses []model.Course, cfg Config) Layout {
	cfg.fillDefaults()

	windowStart := cfg.StartHour * 60
	windowEnd := cfg.EndHour * 60

	byDate := make(map[string][]model.Course)
	var dates []string
	colWidth := float64(MinColumnWidth)

	for _, c := range courses {
		if !c.Named() {
			continue
		}
		start, ok := clockMinutes(c.StartTime)
		if !ok {
			continue
		}
		end, ok := clockMinutes(c.EndTime)
		if !ok || end <= start {
			continue
		}
		// Courses with any part outside the visible window are dropped.
		if start < windowStart || end > windowEnd {
			continue
		}
		if _, seen := byDate[c.Date]; !seen {
			dates = append(dates, c.Date)
		}
		byDate[c.Date] = append(byDate[c.Date], c)

		for _, line := range []string{c.Name, c.TimeRange(), c.RoomLabel(), c.TeacherLabel()} {
			if w := cfg.Measure(line) + textPadding; w > colWidth {
				colWidth = w
			}
		}
	}

	layout := Layout{
		StartHour:    cfg.StartHour,
		EndHour:      cfg.EndHour,
		TitleHeight:  cfg.TitleHeight,
		HeaderHeight: cfg.HeaderHeight,
		GridTop:      cfg.TitleHeight + cfg.HeaderHeight,
		GridHeight:   cfg.GridHeight,
		GutterX:      gutterWidth,
	}

	if len(dates) == 0 {
		layout.Placeholder = true
		layout.Width = MinColumnWidth
		layout.Height = MinGridHeight
		return layout
	}

	sort.Strings(dates)
	window := float64(windowEnd - windowStart)

	for i, date := range dates {
		day := byDate[date]
		sort.Slice(day, func(a, b int) bool { return day[a].StartTime < day[b].StartTime })

		col := Column{
			Date:  date,
			X:     gutterWidth + float64(i)*(colWidth+columnPadding),
			Width: colWidth,
		}
		for _, c := range day {
			start, _ := clockMinutes(c.StartTime)
			end, _ := clockMinutes(c.EndTime)
			col.Blocks = append(col.Blocks, Block{
				X:      col.X,
				Y:      layout.GridTop + float64(start-windowStart)/window*cfg.GridHeight,
				W:      colWidth,
				H:      float64(end-start) / window * cfg.GridHeight,
				Course: c,
			})
		}
		layout.Columns = append(layout.Columns, col)
	}

	n := float64(len(dates))
	layout.Width = gutterWidth + n*colWidth + (n-1)*columnPadding + columnPadding
	layout.Height = layout.GridTop + cfg.GridHeight + bottomMargin
	if layout.Width < MinColumnWidth {
		layout.Width = MinColumnWidth
	}
	if layout.Height < MinGridHeight {
		layout.Height = MinGridHeight
	}
	return layout
}

// clockMinutes parses "HH:MM" into minutes since midnight.
func clockMinutes(s string) (int, bool) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, false
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
