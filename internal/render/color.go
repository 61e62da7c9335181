package render

import (
	"hash/fnv"
	"image/color"
	"math"
	"math/rand/v2"
	"time"
)

// Pastel tuning shared by deterministic and random colors.
const (
	pastelSaturation = 0.5
	pastelLightness  = 0.75
)

// luminanceThreshold splits backgrounds needing black text from those
// needing white.
const luminanceThreshold = 0.6

// ColorFor derives a stable pastel color from a course name. Same
// name, same color, across calls and processes.
func ColorFor(name string) color.RGBA {
	h := fnv.New32a()
	h.Write([]byte(name))
	hue := float64(h.Sum32()%360) / 360.0
	r, g, b := hslToRGB(hue, pastelSaturation, pastelLightness)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Palette owns a dedicated pseudo-random stream for placeholder
// colors, so nothing here ever touches shared random state.
type Palette struct {
	rng *rand.Rand
}

func NewPalette() *Palette {
	now := uint64(time.Now().UnixNano())
	return &Palette{rng: rand.New(rand.NewPCG(now, now>>32))}
}

// RandomPastel returns a non-deterministic pastel, for records with no
// name to hash.
func (p *Palette) RandomPastel() color.RGBA {
	r, g, b := hslToRGB(p.rng.Float64(), pastelSaturation, pastelLightness)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// TextColorFor picks black or white text for the given background,
// whichever contrasts more by relative luminance.
func TextColorFor(bg color.Color) color.RGBA {
	r, g, b, _ := bg.RGBA()
	lum := 0.2126*float64(r)/65535 + 0.7152*float64(g)/65535 + 0.0722*float64(b)/65535
	if lum > luminanceThreshold {
		return color.RGBA{A: 255} // black
	}
	return color.RGBA{R: 255, G: 255, B: 255, A: 255}
}

func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	if s == 0 {
		v := channel(l)
		return v, v, v
	}
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	return channel(hueToChannel(p, q, h+1.0/3.0)),
		channel(hueToChannel(p, q, h)),
		channel(hueToChannel(p, q, h-1.0/3.0))
}

func hueToChannel(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}

func channel(v float64) uint8 {
	return uint8(math.Round(v * 255))
}
