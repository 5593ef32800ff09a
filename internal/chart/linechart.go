package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxRating is the top of the fixed vertical scale.
const MaxRating = 5.0

type RatingPoint struct {
	Day           int      `json:"day"`
	AverageRating *float64 `json:"averageRating"`
	ReviewCount   int      `json:"reviewCount"`
}

type LinePoint struct {
	Day         int     `json:"day"`
	Value       float64 `json:"value"`
	ReviewCount int     `json:"reviewCount"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

type LineChart struct {
	Width    float64     `json:"width"`
	Height   float64     `json:"height"`
	Step     float64     `json:"step"`
	Points   []LinePoint `json:"points"`
	Polyline string      `json:"polyline"`
}

type Tooltip struct {
	Day     int     `json:"day"`
	Value   string  `json:"value"`
	Reviews string  `json:"reviews"`
	Text    string  `json:"text"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// NewLineChart maps the series onto a width x height SVG box. A missing
// average is drawn as 0; values are never rescaled past MaxRating.
func NewLineChart(data []RatingPoint, width, height float64) LineChart {
	c := LineChart{Width: width, Height: height, Points: make([]LinePoint, len(data))}
	if len(data) > 1 {
		c.Step = width / float64(len(data)-1)
	}

	coords := make([]string, len(data))
	for i, d := range data {
		v := 0.0
		if d.AverageRating != nil {
			v = *d.AverageRating
		}
		p := LinePoint{
			Day:         d.Day,
			Value:       v,
			ReviewCount: d.ReviewCount,
			X:           float64(i) * c.Step,
			Y:           height - v/MaxRating*height,
		}
		c.Points[i] = p
		coords[i] = coord(p.X) + "," + coord(p.Y)
	}
	c.Polyline = strings.Join(coords, " ")
	return c
}

// NearestIndex returns the index of the point closest to a horizontal
// pointer offset, or -1 when the chart is empty. Offsets outside the chart,
// infinite ones included, clamp to the first or last point.
func (c LineChart) NearestIndex(offset float64) int {
	n := len(c.Points)
	if n == 0 {
		return -1
	}
	if c.Step == 0 {
		return 0
	}
	pos := math.Round(offset / c.Step)
	switch {
	case math.IsNaN(pos), pos < 0:
		return 0
	case pos > float64(n-1):
		return n - 1
	}
	return int(pos)
}

// Probe builds the tooltip for the point nearest to offset.
func (c LineChart) Probe(offset float64) (Tooltip, bool) {
	idx := c.NearestIndex(offset)
	if idx < 0 {
		return Tooltip{}, false
	}
	p := c.Points[idx]
	t := Tooltip{
		Day:     p.Day,
		Value:   fmt.Sprintf("%.1f", p.Value),
		Reviews: Pluralize(p.ReviewCount, "review", "reviews"),
		X:       p.X,
		Y:       p.Y,
	}
	t.Text = fmt.Sprintf("Day %d: %s ★ from %s", t.Day, t.Value, t.Reviews)
	return t, true
}

func Pluralize(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}

func coord(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
