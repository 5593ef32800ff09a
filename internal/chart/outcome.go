package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Arc struct {
	Outcome string  `json:"outcome"`
	Label   string  `json:"label"`
	Percent float64 `json:"percent"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Color   string  `json:"color"`
}

type OutcomePie struct {
	Arcs     []Arc  `json:"arcs"`
	Gradient string `json:"gradient"`
}

// OutcomeArcs splits the circle into completed, no-show and cancelled arcs
// using cumulative percentage boundaries. The last arc always ends at 100.
// Inputs are used as given; they are not normalized or checked to sum to 100.
func OutcomeArcs(completedPct, noShowPct, cancelledPct float64) []Arc {
	b1 := completedPct
	b2 := completedPct + noShowPct
	return []Arc{
		{Outcome: "completed", Label: "Completed", Percent: completedPct, Start: 0, End: b1, Color: "#22c55e"},
		{Outcome: "no_show", Label: "No-show", Percent: noShowPct, Start: b1, End: b2, Color: "#f59e0b"},
		{Outcome: "cancelled", Label: "Cancelled", Percent: cancelledPct, Start: b2, End: 100, Color: "#ef4444"},
	}
}

// ConicGradient renders arcs as a CSS conic-gradient value.
func ConicGradient(arcs []Arc) string {
	stops := make([]string, len(arcs))
	for i, a := range arcs {
		stops[i] = fmt.Sprintf("%s %s%% %s%%", a.Color, pct(a.Start), pct(a.End))
	}
	return "conic-gradient(" + strings.Join(stops, ", ") + ")"
}

func BuildOutcomePie(completedPct, noShowPct, cancelledPct float64) OutcomePie {
	arcs := OutcomeArcs(completedPct, noShowPct, cancelledPct)
	return OutcomePie{Arcs: arcs, Gradient: ConicGradient(arcs)}
}

func pct(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
