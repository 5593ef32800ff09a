package chart

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rating(v float64) *float64 { return &v }

func TestNewLineChart(t *testing.T) {
	c := NewLineChart([]RatingPoint{
		{Day: 1, AverageRating: nil, ReviewCount: 0},
		{Day: 2, AverageRating: rating(4.5), ReviewCount: 3},
	}, 600, 200)

	require.Len(t, c.Points, 2)
	assert.Equal(t, 600.0, c.Step)

	assert.Equal(t, 0.0, c.Points[0].Value)
	assert.Equal(t, 0.0, c.Points[0].X)
	assert.Equal(t, 200.0, c.Points[0].Y)

	assert.Equal(t, 4.5, c.Points[1].Value)
	assert.Equal(t, 600.0, c.Points[1].X)
	// 4.5/5 of the height above the baseline
	assert.InDelta(t, 20.0, c.Points[1].Y, 1e-9)
	assert.Equal(t, "0,200 600,20", c.Polyline)
}

func TestNewLineChart_SinglePoint(t *testing.T) {
	c := NewLineChart([]RatingPoint{{Day: 7, AverageRating: rating(5), ReviewCount: 1}}, 400, 100)

	assert.Equal(t, 0.0, c.Step)
	assert.Equal(t, 0.0, c.Points[0].X)
	assert.Equal(t, 0.0, c.Points[0].Y)

	tip, ok := c.Probe(350)
	require.True(t, ok)
	assert.Equal(t, "Day 7: 5.0 ★ from 1 review", tip.Text)
}

func TestNewLineChart_Empty(t *testing.T) {
	c := NewLineChart(nil, 400, 100)

	assert.Empty(t, c.Points)
	assert.Equal(t, "", c.Polyline)
	_, ok := c.Probe(10)
	assert.False(t, ok)
}

func TestLineChart_Probe(t *testing.T) {
	c := NewLineChart([]RatingPoint{
		{Day: 1, AverageRating: nil, ReviewCount: 0},
		{Day: 2, AverageRating: rating(4.5), ReviewCount: 3},
	}, 600, 200)

	tip, ok := c.Probe(590)
	require.True(t, ok)
	assert.Equal(t, 2, tip.Day)
	assert.Equal(t, "4.5", tip.Value)
	assert.Equal(t, "3 reviews", tip.Reviews)
	assert.Equal(t, "Day 2: 4.5 ★ from 3 reviews", tip.Text)

	tip, _ = c.Probe(-40)
	assert.Equal(t, "Day 1: 0.0 ★ from 0 reviews", tip.Text)

	tip, _ = c.Probe(10_000)
	assert.Equal(t, 2, tip.Day)
}

func TestLineChart_NearestIndex(t *testing.T) {
	data := make([]RatingPoint, 5)
	for i := range data {
		data[i] = RatingPoint{Day: i + 1}
	}
	c := NewLineChart(data, 100, 50)

	assert.Equal(t, 25.0, c.Step)
	assert.Equal(t, 0, c.NearestIndex(12))
	assert.Equal(t, 1, c.NearestIndex(13))
	assert.Equal(t, 2, c.NearestIndex(50))
	assert.Equal(t, 4, c.NearestIndex(99))
	assert.Equal(t, 4, c.NearestIndex(1000))
	assert.Equal(t, 0, c.NearestIndex(-3))
}

func TestLineChart_NearestIndexNonFinite(t *testing.T) {
	c := NewLineChart([]RatingPoint{
		{Day: 1, AverageRating: rating(3), ReviewCount: 2},
		{Day: 2, AverageRating: rating(4), ReviewCount: 1},
	}, 600, 200)

	assert.Equal(t, 1, c.NearestIndex(math.Inf(1)))
	assert.Equal(t, 0, c.NearestIndex(math.Inf(-1)))
	assert.Equal(t, 0, c.NearestIndex(math.NaN()))

	tip, ok := c.Probe(math.Inf(1))
	require.True(t, ok)
	assert.Equal(t, 2, tip.Day)
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "1 review", Pluralize(1, "review", "reviews"))
	assert.Equal(t, "0 reviews", Pluralize(0, "review", "reviews"))
	assert.Equal(t, "12 reviews", Pluralize(12, "review", "reviews"))
}
