// Package render turns course lists into schedule images: a
// deterministic pastel per course on a time-proportional grid, one
// column per day.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/enzomtp/edtbot/internal/model"
)

// ErrNoData is returned when there is nothing to draw. Callers send a
// text reply instead of an image.
var ErrNoData = errors.New("no courses to render")

const (
	backgroundHex = "#1a1a1a"
	gridlineHex   = "#333333"
	labelHex      = "#9099a6"
	accentHex     = "#4a9eff"

	textSize  = 14.0
	titleSize = 18.0

	lineHeight = 17.0
	blockInset = 2.0
	blockPad   = 8.0

	// Week mode reserves a header-band row between the title strip and
	// the grid, one band per column.
	headerBandRow = 34.0

	// Block height gates for the optional text lines.
	shortBlock  = 38.0
	mediumBlock = 58.0
	tallBlock   = 78.0
)

// accentColor matches accentHex; used where a color.Color is needed.
var accentColor = color.RGBA{R: 0x4a, G: 0x9e, B: 0xff, A: 255}

// Renderer draws day and week schedule images.
type Renderer struct {
	palette    *Palette
	regular    font.Face
	bold       font.Face
	avgCharW   float64
	measureCtx *gg.Context
}

// NewRenderer loads the embedded fonts and prepares a renderer.
func NewRenderer() (*Renderer, error) {
	reg, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bld, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}

	r := &Renderer{
		palette: NewPalette(),
		regular: truetype.NewFace(reg, &truetype.Options{Size: textSize}),
		bold:    truetype.NewFace(bld, &truetype.Options{Size: titleSize}),
	}

	r.measureCtx = gg.NewContext(1, 1)
	r.measureCtx.SetFontFace(r.regular)
	w, _ := r.measureCtx.MeasureString("abcdefghijklmnopqrstuvwxyz")
	r.avgCharW = w / 26

	return r, nil
}

// RenderDay renders a single-day schedule as PNG bytes.
func (r *Renderer) RenderDay(courses []model.Course) ([]byte, error) {
	return r.render(courses, false)
}

// RenderWeek renders a multi-day schedule as PNG bytes, one column per
// distinct date.
func (r *Renderer) RenderWeek(courses []model.Course) ([]byte, error) {
	return r.render(courses, true)
}

// render is the shared column renderer; day view is the week view
// with the column count pinned at one.
func (r *Renderer) render(courses []model.Course, week bool) ([]byte, error) {
	cfg := Config{Measure: r.measure}
	if week {
		cfg.HeaderHeight = headerBandRow
	}
	layout := Compute(courses, cfg)
	if layout.Placeholder {
		return nil, ErrNoData
	}

	dc := gg.NewContext(int(math.Ceil(layout.Width)), int(math.Ceil(layout.Height)))
	dc.SetHexColor(backgroundHex)
	dc.Clear()

	r.drawTitle(dc, layout, week)
	r.drawGrid(dc, layout)
	for _, col := range layout.Columns {
		if week {
			r.drawHeader(dc, col, layout)
		}
		for _, b := range col.Blocks {
			r.drawBlock(dc, b)
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawTitle(dc *gg.Context, layout Layout, week bool) {
	title := "Emploi du temps EPSI"
	if !week && len(layout.Columns) == 1 {
		if d, err := time.Parse("2006-01-02", layout.Columns[0].Date); err == nil {
			title += " — " + LongDate(d)
		}
	}
	dc.SetFontFace(r.bold)
	dc.SetHexColor(accentHex)
	dc.DrawStringAnchored(title, layout.GutterX, layout.TitleHeight/2, 0, 0.35)
}

func (r *Renderer) drawGrid(dc *gg.Context, layout Layout) {
	dc.SetFontFace(r.regular)
	hours := layout.EndHour - layout.StartHour
	for h := 0; h <= hours; h++ {
		y := layout.GridTop + float64(h)/float64(hours)*layout.GridHeight
		dc.SetHexColor(gridlineHex)
		dc.SetLineWidth(1)
		dc.DrawLine(layout.GutterX, y, layout.Width-columnPadding, y)
		dc.Stroke()
		dc.SetHexColor(labelHex)
		dc.DrawStringAnchored(fmt.Sprintf("%02d:00", layout.StartHour+h), layout.GutterX-8, y, 1, 0.35)
	}
}

func (r *Renderer) drawHeader(dc *gg.Context, col Column, layout Layout) {
	bandY := layout.TitleHeight + 2
	bandH := layout.HeaderHeight - 6
	dc.SetHexColor(accentHex)
	dc.DrawRoundedRectangle(col.X, bandY, col.Width, bandH, 6)
	dc.Fill()

	label := col.Date
	if d, err := time.Parse("2006-01-02", col.Date); err == nil {
		label = HeaderDate(d)
	}
	dc.SetFontFace(r.regular)
	dc.SetColor(TextColorFor(accentColor))
	dc.DrawStringAnchored(label, col.X+col.Width/2, bandY+bandH/2, 0.5, 0.35)
}

func (r *Renderer) drawBlock(dc *gg.Context, b Block) {
	fill := ColorFor(b.Course.Name)
	if !b.Course.Named() {
		fill = r.palette.RandomPastel()
	}
	x := b.X + blockInset
	y := b.Y + blockInset
	w := b.W - 2*blockInset
	h := b.H - 2*blockInset

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x, y, w, h, 6)
	dc.Fill()

	lines := []string{b.Course.Name}
	if b.H > shortBlock {
		lines = append(lines, b.Course.TimeRange())
	}
	if b.H > mediumBlock {
		lines = append(lines, b.Course.RoomLabel())
	}
	if b.H > tallBlock {
		lines = append(lines, b.Course.TeacherLabel())
	}

	dc.SetFontFace(r.regular)
	dc.SetColor(TextColorFor(fill))
	ty := y + lineHeight
	for _, line := range lines {
		if ty > y+h-2 {
			break
		}
		dc.DrawString(r.Truncate(line, w-2*blockPad), x+blockPad, ty)
		ty += lineHeight
	}
}

// Truncate shortens a line with an ellipsis so it fits the given
// width, using the average glyph width of the text face.
func (r *Renderer) Truncate(s string, maxWidth float64) string {
	maxChars := int(maxWidth / r.avgCharW)
	if maxChars < 1 {
		maxChars = 1
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	if maxChars == 1 {
		return "…"
	}
	return string(runes[:maxChars-1]) + "…"
}

func (r *Renderer) measure(s string) float64 {
	w, _ := r.measureCtx.MeasureString(s)
	return w
}
