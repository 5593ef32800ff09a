// Package chart turns pre-aggregated analytics numbers into render models:
// heatmap buckets, outcome pie arcs and rating line coordinates. Everything
// here is pure and recomputed on every call.
package chart

import (
	"errors"
	"math"
	"sort"
)

const (
	HeatmapDays  = 7
	HeatmapHours = 24
)

// DayLabels are the heatmap row labels, Monday first.
var DayLabels = [HeatmapDays]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

var ErrInvalidMatrix = errors.New("heatmap matrix must be 7x24 with non-negative counts")

type Bucket string

const (
	BucketNoData Bucket = "none"
	BucketLow    Bucket = "low"
	BucketMedium Bucket = "medium"
	BucketHigh   Bucket = "high"
	BucketPeak   Bucket = "peak"
)

var bucketStyles = map[Bucket]struct{ label, color string }{
	BucketNoData: {"No data", "#f3f4f6"},
	BucketLow:    {"Low", "#dbeafe"},
	BucketMedium: {"Medium", "#93c5fd"},
	BucketHigh:   {"High", "#3b82f6"},
	BucketPeak:   {"Peak", "#1e3a8a"},
}

func (b Bucket) Label() string { return bucketStyles[b].label }
func (b Bucket) Color() string { return bucketStyles[b].color }

// Thresholds are the 25th/50th/75th percentile values of the non-zero cells.
// Single is set when exactly one cell is non-zero; that cell is Peak.
type Thresholds struct {
	P25    int  `json:"p25"`
	P50    int  `json:"p50"`
	P75    int  `json:"p75"`
	Single bool `json:"single"`
}

type HeatmapCell struct {
	Hour   int    `json:"hour"`
	Value  int    `json:"value"`
	Bucket Bucket `json:"bucket"`
	Label  string `json:"label"`
	Color  string `json:"color"`
}

type HeatmapRow struct {
	Day   string        `json:"day"`
	Cells []HeatmapCell `json:"cells"`
}

type LegendEntry struct {
	Bucket Bucket `json:"bucket"`
	Label  string `json:"label"`
	Color  string `json:"color"`
}

type Heatmap struct {
	Rows       []HeatmapRow  `json:"rows"`
	Thresholds *Thresholds   `json:"thresholds"`
	Legend     []LegendEntry `json:"legend"`
}

// Percentile returns the value at percentile p (0..1] of an ascending slice:
// index ceil(len*p)-1, clamped at 0. It returns 0 for an empty slice.
func Percentile(sorted []int, p float64) int {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// ComputeThresholds collects the non-zero cells of the whole matrix into a
// fresh sorted slice and derives the bucket thresholds from it. ok is false
// when every cell is zero.
func ComputeThresholds(matrix [][]int) (t Thresholds, ok bool) {
	var values []int
	for _, row := range matrix {
		for _, v := range row {
			if v > 0 {
				values = append(values, v)
			}
		}
	}
	if len(values) == 0 {
		return Thresholds{}, false
	}
	sort.Ints(values)
	return Thresholds{
		P25:    Percentile(values, 0.25),
		P50:    Percentile(values, 0.50),
		P75:    Percentile(values, 0.75),
		Single: len(values) == 1,
	}, true
}

// BucketFor assigns v to the first bucket whose threshold it does not exceed.
func BucketFor(v int, t Thresholds) Bucket {
	switch {
	case v <= 0:
		return BucketNoData
	case t.Single:
		return BucketPeak
	case v <= t.P25:
		return BucketLow
	case v <= t.P50:
		return BucketMedium
	case v <= t.P75:
		return BucketHigh
	default:
		return BucketPeak
	}
}

func ValidateMatrix(matrix [][]int) error {
	if len(matrix) != HeatmapDays {
		return ErrInvalidMatrix
	}
	for _, row := range matrix {
		if len(row) != HeatmapHours {
			return ErrInvalidMatrix
		}
		for _, v := range row {
			if v < 0 {
				return ErrInvalidMatrix
			}
		}
	}
	return nil
}

func BuildHeatmap(matrix [][]int) (Heatmap, error) {
	if err := ValidateMatrix(matrix); err != nil {
		return Heatmap{}, err
	}

	hm := Heatmap{Rows: make([]HeatmapRow, HeatmapDays), Legend: Legend()}
	t, ok := ComputeThresholds(matrix)
	if ok {
		hm.Thresholds = &t
	}
	for d, row := range matrix {
		cells := make([]HeatmapCell, HeatmapHours)
		for h, v := range row {
			b := BucketNoData
			if ok {
				b = BucketFor(v, t)
			}
			cells[h] = HeatmapCell{Hour: h, Value: v, Bucket: b, Label: b.Label(), Color: b.Color()}
		}
		hm.Rows[d] = HeatmapRow{Day: DayLabels[d], Cells: cells}
	}
	return hm, nil
}

func Legend() []LegendEntry {
	order := []Bucket{BucketNoData, BucketLow, BucketMedium, BucketHigh, BucketPeak}
	out := make([]LegendEntry, len(order))
	for i, b := range order {
		out[i] = LegendEntry{Bucket: b, Label: b.Label(), Color: b.Color()}
	}
	return out
}

// EmptyMatrix returns a zeroed 7x24 matrix.
func EmptyMatrix() [][]int {
	m := make([][]int, HeatmapDays)
	for i := range m {
		m[i] = make([]int, HeatmapHours)
	}
	return m
}
