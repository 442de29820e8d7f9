// Package aqi converts PM2.5 concentrations to the US EPA air quality index.
package aqi

import (
	"math"
	"strconv"

	"github.com/huangsam/airseries/schema"
)

// MaxConcentration is the largest concentration that is converted.
const MaxConcentration = 1000.0

// Breakpoint is one linear segment of the conversion table.
type Breakpoint struct {
	ConcLow, ConcHigh   float64
	IndexLow, IndexHigh float64
}

// Breakpoints is the PM2.5 table ordered from the highest threshold down.
var Breakpoints = []Breakpoint{
	{350.5, 500.4, 401, 500},
	{250.5, 350.4, 301, 400},
	{150.5, 250.4, 201, 300},
	{55.5, 150.4, 151, 200},
	{35.5, 55.4, 101, 150},
	{12.1, 35.4, 51, 100},
	{0, 12, 0, 50},
}

// Index returns the AQI for a concentration and whether it could be converted.
// Concentrations above MaxConcentration or NaN cannot. Values beyond the top
// segment extrapolate along it.
func Index(c float64) (int, bool) {
	if math.IsNaN(c) || c > MaxConcentration || c < 0 {
		return 0, false
	}
	for _, bp := range Breakpoints {
		if c >= bp.ConcLow {
			v := (bp.IndexHigh-bp.IndexLow)/(bp.ConcHigh-bp.ConcLow)*(c-bp.ConcLow) + bp.IndexLow
			return int(math.Floor(v + 0.5)), true
		}
	}
	return 0, false
}

// FromConcentration renders the report cell for an averaged concentration.
// Negative values are physically invalid but kept visible, so they pass through.
func FromConcentration(c float64) string {
	switch {
	case math.IsNaN(c) || c > MaxConcentration:
		return schema.MissingCell
	case c < 0:
		return strconv.FormatFloat(c, 'f', -1, 64)
	}
	v, _ := Index(c)
	return strconv.Itoa(v)
}
