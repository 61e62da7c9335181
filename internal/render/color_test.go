package render

import (
	"image/color"
	"testing"
)

func TestColorForDeterministic(t *testing.T) {
	first := ColorFor("Algebra")
	for i := 0; i < 100; i++ {
		if got := ColorFor("Algebra"); got != first {
			t.Fatalf("call %d: ColorFor changed from %v to %v", i, first, got)
		}
	}
}

func TestColorForDistinguishesNames(t *testing.T) {
	if ColorFor("Algèbre") == ColorFor("Réseaux") {
		t.Error("different names produced the same color; hash collapse")
	}
}

func TestColorForIsPastel(t *testing.T) {
	c := ColorFor("Algebra")
	// L=0.75 keeps every channel comfortably off the extremes.
	for name, v := range map[string]uint8{"r": c.R, "g": c.G, "b": c.B} {
		if v < 100 {
			t.Errorf("channel %s = %d, too dark for a pastel", name, v)
		}
	}
}

func TestTextColorForExtremes(t *testing.T) {
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black := color.RGBA{A: 255}

	if got := TextColorFor(white); got != black {
		t.Errorf("TextColorFor(white) = %v, want black", got)
	}
	if got := TextColorFor(black); got != white {
		t.Errorf("TextColorFor(black) = %v, want white", got)
	}
}

func TestTextColorForThreshold(t *testing.T) {
	// Luminance just above 0.6 flips to black text.
	bright := color.RGBA{R: 160, G: 160, B: 160, A: 255} // lum ≈ 0.627
	dim := color.RGBA{R: 140, G: 140, B: 140, A: 255}    // lum ≈ 0.549

	if got := TextColorFor(bright); got.R != 0 {
		t.Errorf("TextColorFor(bright gray) = %v, want black", got)
	}
	if got := TextColorFor(dim); got.R != 255 {
		t.Errorf("TextColorFor(dim gray) = %v, want white", got)
	}
}

func TestRandomPastelIndependentStreams(t *testing.T) {
	// Two palettes must not share state; deterministic colors must not
	// be disturbed by random draws.
	before := ColorFor("Algebra")
	p := NewPalette()
	for i := 0; i < 10; i++ {
		p.RandomPastel()
	}
	if after := ColorFor("Algebra"); after != before {
		t.Error("RandomPastel draws changed ColorFor output")
	}
}
