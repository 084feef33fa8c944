package viz

import (
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/modelspace/internal/model"
	"github.com/san-kum/modelspace/internal/optim"
	"github.com/san-kum/modelspace/internal/physics"
	"github.com/san-kum/modelspace/internal/reparam"
)

func pendulum(t *testing.T) *model.Model {
	t.Helper()
	reg := model.NewRegistry()
	if err := physics.Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}
	m, err := reg.New(physics.TypePendulum)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestParamRows(t *testing.T) {
	m := pendulum(t)
	rows := ParamRows(m)
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	want := []string{"3", "length", "L", "1", "0.001", "100", "free"}
	for i, cell := range want {
		if rows[physics.PendulumLength][i] != cell {
			t.Errorf("column %d: expected %q, got %q", i, cell, rows[physics.PendulumLength][i])
		}
	}
}

func TestParamTableReparam(t *testing.T) {
	m := pendulum(t)
	r, err := reparam.NewLog(m, "length")
	if err != nil {
		t.Fatalf("NewLog: %v", err)
	}
	m.SetReparam(r)

	out := ParamTable(m)
	if !strings.Contains(out, "ln_length") {
		t.Error("expected working name in table")
	}
	if !strings.Contains(out, "pendulum [log]") {
		t.Errorf("expected reparam kind in title, got:\n%s", out)
	}
}

func TestInBounds(t *testing.T) {
	m := pendulum(t)
	if !inBounds(m, physics.PendulumLength) {
		t.Error("default length should be in bounds")
	}
	m.ParamSet(physics.PendulumLength, 500)
	if inBounds(m, physics.PendulumLength) {
		t.Error("length 500 should be out of bounds")
	}
}

func TestLayoutRows(t *testing.T) {
	s := pendulum(t).Schema()
	rows := LayoutRows(s)
	if len(rows) != s.PropertyLen() {
		t.Fatalf("expected %d rows, got %d", s.PropertyLen(), len(rows))
	}
	if rows[0][1] != "damping" || rows[0][4] != physics.TypeOscillator {
		t.Errorf("expected oscillator damping first, got %v", rows[0])
	}
	if !strings.Contains(LayoutTable(s), "omega0") {
		t.Error("expected non-parameter property in layout table")
	}
}

func TestScanPlot(t *testing.T) {
	r := &optim.Result{
		Axes: []string{"length"},
		Samples: []optim.Sample{
			{Point: []float64{1}, Objective: 3},
			{Point: []float64{2}, Objective: 1},
			{Point: []float64{3}, Err: errors.New("diverged")},
			{Point: []float64{4}, Objective: 2},
		},
		Best: 1,
	}
	out := ScanPlot(r, 20, 5)
	if !strings.Contains(out, "objective vs length [1, 4]") {
		t.Errorf("expected caption, got:\n%s", out)
	}
	if !strings.Contains(out, "best length = ") {
		t.Errorf("expected best summary, got:\n%s", out)
	}

	r.Axes = []string{"length", "mass"}
	if !strings.Contains(ScanPlot(r, 20, 5), "2-axis") {
		t.Error("expected refusal for a 2-axis scan")
	}
}

func TestSparklineChart(t *testing.T) {
	if got := SparklineChart(nil, 4); got != "────" {
		t.Errorf("expected empty line, got %q", got)
	}
	if got := SparklineChart([]float64{0, 1, 2, 3}, 4); !strings.Contains(got, "█") || !strings.Contains(got, "▁") {
		t.Errorf("expected full range of blocks, got %q", got)
	}
}
