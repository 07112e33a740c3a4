package taxonomy

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"strconv"
	"strings"
)

const (
	colorMaxAttempts = 16
	colorCacheLimit  = 1024

	// Tolerance window under which a candidate is considered perceptually
	// too close to a reserved taxonomy color.
	hueTolerance        = 18.0
	saturationTolerance = 0.18
	lightnessTolerance  = 0.14
)

type hsl struct {
	h, s, l float64
}

// ColorGenerator assigns deterministic colors to unknown entity type keys.
// The same key always yields the same color (the RNG is seeded from an FNV
// hash of the key), so unknown-type colors are stable across sessions.
// Candidates perceptually close to a reserved taxonomy color are rejected
// and regenerated, up to a bounded attempt count.
type ColorGenerator struct {
	reserved []hsl
	cache    map[string]string
	limit    int
}

// NewColorGenerator builds a generator that avoids the given reserved hex
// colors. Unparseable colors are ignored.
func NewColorGenerator(reservedHex []string) *ColorGenerator {
	g := &ColorGenerator{
		cache: make(map[string]string),
		limit: colorCacheLimit,
	}
	for _, hex := range reservedHex {
		if c, ok := parseHex(hex); ok {
			g.reserved = append(g.reserved, rgbToHSL(c))
		}
	}
	return g
}

// ColorFor returns the hex color assigned to key. Results are cached; the
// cache is cleared wholesale once it crosses its size limit, which is safe
// because regeneration is deterministic.
func (g *ColorGenerator) ColorFor(key string) string {
	if color, ok := g.cache[key]; ok {
		return color
	}

	rng := rand.New(rand.NewSource(int64(hashKey(key))))
	var candidate hsl
	for attempt := 0; attempt < colorMaxAttempts; attempt++ {
		candidate = hsl{
			h: rng.Float64() * 360,
			s: 0.55 + rng.Float64()*0.30,
			l: 0.45 + rng.Float64()*0.20,
		}
		if !g.tooClose(candidate) {
			break
		}
		// Last attempt falls through with an unchecked color.
	}

	color := hslToHex(candidate)
	if len(g.cache) >= g.limit {
		g.cache = make(map[string]string)
	}
	g.cache[key] = color
	return color
}

// Reset clears the cache. Tests use this to get deterministic state.
func (g *ColorGenerator) Reset() {
	g.cache = make(map[string]string)
}

func (g *ColorGenerator) tooClose(c hsl) bool {
	for _, r := range g.reserved {
		dh := math.Abs(c.h - r.h)
		if dh > 180 {
			dh = 360 - dh
		}
		if dh < hueTolerance &&
			math.Abs(c.s-r.s) < saturationTolerance &&
			math.Abs(c.l-r.l) < lightnessTolerance {
			return true
		}
	}
	return false
}

func hashKey(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32()
}

type rgb struct {
	r, g, b float64 // 0..1
}

func parseHex(s string) (rgb, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return rgb{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return rgb{}, false
	}
	return rgb{
		r: float64(v>>16&0xFF) / 255,
		g: float64(v>>8&0xFF) / 255,
		b: float64(v&0xFF) / 255,
	}, true
}

func rgbToHSL(c rgb) hsl {
	max := math.Max(c.r, math.Max(c.g, c.b))
	min := math.Min(c.r, math.Min(c.g, c.b))
	l := (max + min) / 2

	if max == min {
		return hsl{h: 0, s: 0, l: l}
	}

	d := max - min
	var s float64
	if l > 0.5 {
		s = d / (2 - max - min)
	} else {
		s = d / (max + min)
	}

	var h float64
	switch max {
	case c.r:
		h = (c.g - c.b) / d
		if c.g < c.b {
			h += 6
		}
	case c.g:
		h = (c.b-c.r)/d + 2
	default:
		h = (c.r-c.g)/d + 4
	}
	return hsl{h: h * 60, s: s, l: l}
}

func hslToHex(c hsl) string {
	h := c.h / 360
	var r, g, b float64
	if c.s == 0 {
		r, g, b = c.l, c.l, c.l
	} else {
		var q float64
		if c.l < 0.5 {
			q = c.l * (1 + c.s)
		} else {
			q = c.l + c.s - c.l*c.s
		}
		p := 2*c.l - q
		r = hueToRGB(p, q, h+1.0/3.0)
		g = hueToRGB(p, q, h)
		b = hueToRGB(p, q, h-1.0/3.0)
	}
	return fmt.Sprintf("#%02x%02x%02x",
		int(math.Round(r*255)),
		int(math.Round(g*255)),
		int(math.Round(b*255)))
}

func hueToRGB(p, q, t float64) float64 {
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
	default:
		return p
	}
}
