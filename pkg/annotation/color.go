package annotation

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Default colours for new annotations.
var (
	DefaultHighlightColor = color.NRGBA{R: 255, G: 235, B: 59, A: 128}
	DefaultTextColor      = color.NRGBA{R: 0x11, G: 0x11, B: 0x11, A: 255}
)

// ParseColor parses a CSS-style colour: #rgb, #rrggbb, #rrggbbaa,
// rgb(r,g,b), rgba(r,g,b,a) or a colour name such as "yellow".
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return color.NRGBA{}, fmt.Errorf("empty colour")
	case strings.HasPrefix(s, "#"):
		return parseHex(s[1:])
	case strings.HasPrefix(s, "rgba(") || strings.HasPrefix(s, "rgb("):
		return parseFunc(s)
	}
	if c, ok := colornames.Map[s]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, nil
	}
	return color.NRGBA{}, fmt.Errorf("unknown colour %q", s)
}

// FormatColor renders c in the form accepted by ParseColor.
func FormatColor(c color.NRGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("rgba(%d,%d,%d,%s)", c.R, c.G, c.B,
		strconv.FormatFloat(float64(c.A)/255, 'f', -1, 32))
}

func parseHex(s string) (color.NRGBA, error) {
	if len(s) == 3 || len(s) == 4 {
		var b strings.Builder
		for _, r := range s {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		s = b.String()
	}
	if len(s) != 6 && len(s) != 8 {
		return color.NRGBA{}, fmt.Errorf("bad hex colour #%s", s)
	}
	v, err := hex.DecodeString(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("bad hex colour #%s: %w", s, err)
	}
	c := color.NRGBA{R: v[0], G: v[1], B: v[2], A: 255}
	if len(v) == 4 {
		c.A = v[3]
	}
	return c, nil
}

func parseFunc(s string) (color.NRGBA, error) {
	open := strings.IndexByte(s, '(')
	if !strings.HasSuffix(s, ")") {
		return color.NRGBA{}, fmt.Errorf("bad colour %q", s)
	}
	parts := strings.Split(s[open+1:len(s)-1], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return color.NRGBA{}, fmt.Errorf("bad colour %q", s)
	}
	var ch [3]uint8
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("bad colour %q: %w", s, err)
		}
		ch[i] = uint8(math.Round(clamp(v, 0, 255)))
	}
	c := color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: 255}
	if len(parts) == 4 {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("bad colour %q: %w", s, err)
		}
		c.A = uint8(math.Round(clamp(a, 0, 1) * 255))
	}
	return c, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
