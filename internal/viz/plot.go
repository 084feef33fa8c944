package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/modelspace/internal/optim"
)

// ScanPlot draws the objective of a one-axis scan against the point index.
// Failed samples are left out of the line.
func ScanPlot(r *optim.Result, width, height int) string {
	if len(r.Axes) != 1 {
		return Subtle.Render(fmt.Sprintf("cannot plot a %d-axis scan", len(r.Axes)))
	}

	series := make([]float64, 0, len(r.Samples))
	for _, s := range r.Samples {
		if s.Err != nil || math.IsInf(s.Objective, 0) {
			continue
		}
		series = append(series, s.Objective)
	}
	if len(series) == 0 {
		return Subtle.Render("no successful samples")
	}

	first, last := r.Samples[0].Point[0], r.Samples[len(r.Samples)-1].Point[0]
	caption := fmt.Sprintf("objective vs %s [%s, %s]", r.Axes[0], formatValue(first), formatValue(last))
	graph := asciigraph.Plot(series,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Caption(caption),
	)

	var b strings.Builder
	b.WriteString(graph)
	b.WriteString("\n")
	if best, ok := r.BestSample(); ok {
		b.WriteString(MetricLabel.Render("best "+r.Axes[0]+" = ") + MetricValue.Render(formatValue(best.Point[0])))
		b.WriteString(MetricLabel.Render("  objective = ") + MetricValue.Render(formatValue(best.Objective)))
		b.WriteString("\n")
	}
	return b.String()
}
