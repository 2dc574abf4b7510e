package shared

import (
	"fmt"
	"math"
)

// RGB represents an RGB color with values 0-255
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// ToRGB converts a linear color to 8-bit channels, clamping out-of-range components.
// Alpha is dropped.
func (c Color) ToRGB() RGB {
	return RGB{R: toByte(c.R), G: toByte(c.G), B: toByte(c.B)}
}

// Hex renders the color as #RRGGBB
func (c Color) Hex() string {
	rgb := c.ToRGB()
	return fmt.Sprintf("#%02X%02X%02X", rgb.R, rgb.G, rgb.B)
}

// Brightness returns the HSB brightness (0-1) of the clamped color
func (c Color) Brightness() float64 {
	return math.Max(clamp01(c.R), math.Max(clamp01(c.G), clamp01(c.B)))
}

func clamp01(f float64) float64 {
	return math.Min(1, math.Max(0, f))
}

func toByte(f float64) uint8 {
	return uint8(math.Round(clamp01(f) * 255))
}
