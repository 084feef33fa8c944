// Package optim scans model parameters over a grid and reports the point
// with the smallest objective.
package optim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"

	"github.com/san-kum/modelspace/internal/experiment"
	"github.com/san-kum/modelspace/internal/model"
	"github.com/san-kum/modelspace/internal/numeric"
)

var (
	ErrEmptyAxis     = errors.New("optim: axis has no values")
	ErrNoValidSample = errors.New("optim: no sample produced a finite objective")
)

// Builder returns a fresh, fully configured model. Each worker owns one.
type Builder func() (*model.Model, error)

// Objective scores a model. Lower is better.
type Objective func(ctx context.Context, m *model.Model) (float64, error)

// Axis is one scanned working parameter.
type Axis struct {
	Param  string
	Values []float64
}

// Linspace returns n evenly spaced values from from to to inclusive.
func Linspace(from, to float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{from}
	}
	out := make([]float64, n)
	step := (to - from) / float64(n-1)
	for i := range out {
		out[i] = from + float64(i)*step
	}
	out[n-1] = to
	return out
}

type Sample struct {
	// Point holds the axis values actually applied, after clamping.
	Point     []float64
	Params    *numeric.Vector
	Objective float64
	Err       error
}

type Result struct {
	Axes    []string
	Samples []Sample
	// Best indexes Samples, or is -1 when no sample succeeded.
	Best int
}

func (r *Result) BestSample() (Sample, bool) {
	if r.Best < 0 {
		return Sample{}, false
	}
	return r.Samples[r.Best], true
}

type GridSearch struct {
	axes    []Axis
	workers int
	logger  *slog.Logger
}

func NewGridSearch(axes ...Axis) *GridSearch {
	return &GridSearch{axes: axes, workers: runtime.NumCPU(), logger: slog.Default()}
}

func (g *GridSearch) SetWorkers(n int) {
	if n > 0 {
		g.workers = n
	}
}

func (g *GridSearch) SetLogger(l *slog.Logger) { g.logger = l }

// Points is the size of the grid.
func (g *GridSearch) Points() int {
	n := 1
	for _, a := range g.axes {
		n *= len(a.Values)
	}
	return n
}

// point decodes a flat grid index, last axis fastest.
func (g *GridSearch) point(k int) []float64 {
	p := make([]float64, len(g.axes))
	for i := len(g.axes) - 1; i >= 0; i-- {
		n := len(g.axes[i].Values)
		p[i] = g.axes[i].Values[k%n]
		k /= n
	}
	return p
}

// Search evaluates obj at every grid point. Values are clamped into the
// working bounds of their parameter. Failing samples are recorded, not
// returned; Search itself fails only when a model cannot be built, an axis
// names no working parameter, or ctx is cancelled.
func (g *GridSearch) Search(ctx context.Context, build Builder, obj Objective) (*Result, error) {
	for _, a := range g.axes {
		if len(a.Values) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyAxis, a.Param)
		}
	}

	probe, err := build()
	if err != nil {
		return nil, err
	}
	idx := make([]int, len(g.axes))
	names := make([]string, len(g.axes))
	for i, a := range g.axes {
		if idx[i], err = probe.ParamIndexFromName(a.Param); err != nil {
			return nil, err
		}
		names[i] = a.Param
	}

	total := g.Points()
	result := &Result{Axes: names, Samples: make([]Sample, total), Best: -1}

	workers := g.workers
	if workers > total {
		workers = total
	}
	models := make([]*model.Model, workers)
	models[0] = probe
	for w := 1; w < workers; w++ {
		if models[w], err = build(); err != nil {
			return nil, err
		}
	}

	g.logger.Debug("grid search", "points", total, "workers", workers, "axes", names)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(m *model.Model) {
			defer wg.Done()
			for k := range jobs {
				result.Samples[k] = g.evaluate(ctx, m, idx, g.point(k), obj)
			}
		}(models[w])
	}

feed:
	for k := 0; k < total; k++ {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- k:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return result, err
	}

	best := math.Inf(1)
	for k, s := range result.Samples {
		if s.Err == nil && s.Objective < best {
			best = s.Objective
			result.Best = k
		}
	}
	if result.Best < 0 {
		return result, ErrNoValidSample
	}
	return result, nil
}

func (g *GridSearch) evaluate(ctx context.Context, m *model.Model, idx []int, point []float64, obj Objective) Sample {
	for i, j := range idx {
		point[i] = clamp(point[i], m.ParamLowerBound(j), m.ParamUpperBound(j))
		m.ParamSet(j, point[i])
	}
	s := Sample{Point: point, Params: m.ParamsGetAll()}
	s.Objective, s.Err = obj(ctx, m)
	if s.Err == nil && math.IsNaN(s.Objective) {
		s.Err = fmt.Errorf("objective is NaN at %v", point)
	}
	return s
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// Profile scans a single parameter over points values between from and to.
func Profile(ctx context.Context, build Builder, name string, from, to float64, points int, obj Objective) (*Result, error) {
	return NewGridSearch(Axis{Param: name, Values: Linspace(from, to, points)}).Search(ctx, build, obj)
}

// ExperimentObjective simulates the model with cfg and scores it by metric.
func ExperimentObjective(cfg experiment.Config, metric string, logger *slog.Logger) Objective {
	return func(ctx context.Context, m *model.Model) (float64, error) {
		return experiment.New(m, cfg, logger).Objective(ctx, metric)
	}
}
