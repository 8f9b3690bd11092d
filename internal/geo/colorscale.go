package geo

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Map colours.
const (
	ColorDeficit = "#dc3545"
	ColorNoData  = "#d4edda"
	ColorSurplus = "#008000"
)

// ColorScale interpolates linearly in RGB between three stops. Values past
// either end keep extrapolating and each channel is clamped.
type ColorScale struct {
	stops  [3]float64
	colors [3]colorful.Color
}

// DefaultColorScale maps -5000 MT to deficit red, 0 to the neutral green and
// +5000 MT to surplus green.
func DefaultColorScale() ColorScale {
	s, err := NewColorScale([3]float64{-5000, 0, 5000}, [3]string{ColorDeficit, ColorNoData, ColorSurplus})
	if err != nil {
		panic(err)
	}
	return s
}

// NewColorScale builds a scale from increasing stops and hex colours.
func NewColorScale(stops [3]float64, hexes [3]string) (ColorScale, error) {
	if !(stops[0] < stops[1] && stops[1] < stops[2]) {
		return ColorScale{}, fmt.Errorf("color scale stops must increase: %v", stops)
	}
	s := ColorScale{stops: stops}
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return ColorScale{}, fmt.Errorf("color scale stop %d: %w", i, err)
		}
		s.colors[i] = c
	}
	return s, nil
}

// Color returns the hex colour for a net balance.
func (s ColorScale) Color(v float64) string {
	seg := 0
	if v > s.stops[1] {
		seg = 1
	}
	lo, hi := s.stops[seg], s.stops[seg+1]
	t := (v - lo) / (hi - lo)
	return s.colors[seg].BlendRgb(s.colors[seg+1], t).Clamped().Hex()
}

// LegendEntry is one swatch of the map legend.
type LegendEntry struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// Legend lists the map swatches, surplus first.
func Legend() []LegendEntry {
	return []LegendEntry{
		{Label: "Surplus", Color: ColorSurplus},
		{Label: "Balanced / No Data", Color: ColorNoData},
		{Label: "Deficit", Color: ColorDeficit},
	}
}
