package render

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/enzomtp/edtbot/internal/model"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return r
}

func TestRenderDayProducesPNG(t *testing.T) {
	r := newTestRenderer(t)

	data, err := r.RenderDay([]model.Course{
		{Date: "2025-03-10", StartTime: "09:00", EndTime: "12:00", Name: "Algèbre", Room: "B204", Teacher: "Durand"},
		{Date: "2025-03-10", StartTime: "13:00", EndTime: "17:00", Name: "Réseaux"},
	})
	if err != nil {
		t.Fatalf("render day: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a valid PNG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() < MinColumnWidth || bounds.Dy() < MinGridHeight {
		t.Errorf("image %dx%d smaller than the minimum surface", bounds.Dx(), bounds.Dy())
	}
}

func TestRenderWeekOneColumnPerDate(t *testing.T) {
	r := newTestRenderer(t)

	day := func(date string) model.Course {
		return model.Course{Date: date, StartTime: "09:00", EndTime: "12:00", Name: "Cours"}
	}
	narrow, err := r.RenderWeek([]model.Course{day("2025-03-10")})
	if err != nil {
		t.Fatalf("render one day: %v", err)
	}
	wide, err := r.RenderWeek([]model.Course{day("2025-03-10"), day("2025-03-11"), day("2025-03-12")})
	if err != nil {
		t.Fatalf("render three days: %v", err)
	}

	n, err := png.Decode(bytes.NewReader(narrow))
	if err != nil {
		t.Fatalf("decode narrow: %v", err)
	}
	w, err := png.Decode(bytes.NewReader(wide))
	if err != nil {
		t.Fatalf("decode wide: %v", err)
	}
	if w.Bounds().Dx() <= n.Bounds().Dx() {
		t.Errorf("three-day image (%dpx) not wider than one-day image (%dpx)", w.Bounds().Dx(), n.Bounds().Dx())
	}
}

func TestRenderWeekTitleAboveHeaderBand(t *testing.T) {
	r := newTestRenderer(t)

	data, err := r.RenderWeek([]model.Course{
		{Date: "2025-03-10", StartTime: "09:00", EndTime: "12:00", Name: "Algèbre"},
	})
	if err != nil {
		t.Fatalf("render week: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	// The title strip must sit on the dark background with its own
	// glyphs, not be overpainted by the first column's header band.
	background := color.RGBA{R: 0x1a, G: 0x1a, B: 0x1a, A: 255}
	var bgPixels, glyphPixels int
	for y := 12; y < 30; y++ {
		for x := 58; x < 240; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			if c == background {
				bgPixels++
			} else {
				glyphPixels++
			}
		}
	}
	if bgPixels == 0 {
		t.Error("title strip contains no background pixels; header band covers the title")
	}
	if glyphPixels == 0 {
		t.Error("title strip contains no drawn pixels; title missing")
	}
}

func TestRenderNoDataFails(t *testing.T) {
	r := newTestRenderer(t)

	if _, err := r.RenderDay(nil); !errors.Is(err, ErrNoData) {
		t.Errorf("RenderDay(nil) err = %v, want ErrNoData", err)
	}

	// Placeholder-only input is equivalent to no input.
	_, err := r.RenderDay([]model.Course{{Date: "2025-03-10", StartTime: "09:00", EndTime: "10:00"}})
	if !errors.Is(err, ErrNoData) {
		t.Errorf("placeholder-only render err = %v, want ErrNoData", err)
	}
}

func TestTruncate(t *testing.T) {
	r := newTestRenderer(t)

	long := strings.Repeat("a", 200)
	got := r.Truncate(long, 100)
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncated string %q does not end with an ellipsis", got)
	}
	if len([]rune(got)) >= len([]rune(long)) {
		t.Error("truncation did not shorten the string")
	}

	if got := r.Truncate("ok", 100); got != "ok" {
		t.Errorf("short string altered: %q", got)
	}
}
