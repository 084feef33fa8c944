package reparam

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/modelspace/internal/model"
	"github.com/san-kum/modelspace/internal/numeric"
	"github.com/san-kum/modelspace/internal/param"
)

func testModel() *model.Model {
	s := model.NewSchema("test", "t", nil)
	s.Extend(2, 0, 0)
	s.SetSparam(0, param.New("k", "k", 0, 100, 1, 1e-3, 4, param.Free))
	s.SetSparam(1, param.New("c", "c", -1, 1, 0.1, 0, 0.5, param.Free))
	s.Close()
	return model.New(s)
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

func TestLogForwardBackward(t *testing.T) {
	m := testModel()
	r, err := NewLog(m, "k")
	if err != nil {
		t.Fatalf("NewLog: %v", err)
	}
	m.SetReparam(r)

	if !approx(m.ParamGet(0), math.Log(4)) {
		t.Errorf("expected ln 4, got %f", m.ParamGet(0))
	}
	if m.ParamGet(1) != 0.5 {
		t.Errorf("expected untouched slot 0.5, got %f", m.ParamGet(1))
	}

	m.ParamSet(0, math.Log(9))
	if !approx(m.OrigParamGet(0), 9) {
		t.Errorf("expected 9, got %f", m.OrigParamGet(0))
	}
}

func TestLogZeroDefault(t *testing.T) {
	s := model.NewSchema("zero", "z", nil)
	s.Extend(1, 0, 0)
	s.SetSparam(0, param.New("x", "x", 0, 10, 0.5, 0, 0, param.Free))
	s.Close()
	m := model.New(s)

	r, err := NewLog(m, "x")
	if err != nil {
		t.Fatalf("NewLog: %v", err)
	}
	m.SetReparam(r)

	if !math.IsInf(m.ParamDesc(0).Default, -1) {
		t.Errorf("expected -Inf working default, got %f", m.ParamDesc(0).Default)
	}
	if m.ParamScale(0) != 0.5 {
		t.Errorf("expected scale 0.5, got %f", m.ParamScale(0))
	}

	m.OrigParamSet(0, 3)
	m.OrigParamsUpdate()
	m.ParamsSetDefault()
	if m.OrigParamGet(0) != 0 {
		t.Errorf("expected declared default 0, got %f", m.OrigParamGet(0))
	}
	if !math.IsInf(m.ParamGet(0), -1) {
		t.Errorf("expected -Inf working value, got %f", m.ParamGet(0))
	}
}

func TestLogDescriptors(t *testing.T) {
	m := testModel()
	r, err := NewLog(m, "k", "k")
	if err != nil {
		t.Fatalf("NewLog: %v", err)
	}
	if got := r.Indices(); len(got) != 1 || got[0] != 0 {
		t.Errorf("expected indices [0], got %v", got)
	}
	m.SetReparam(r)

	if m.ParamName(0) != "ln_k" {
		t.Errorf("expected ln_k, got %s", m.ParamName(0))
	}
	if !math.IsInf(m.ParamLowerBound(0), -1) {
		t.Errorf("expected -Inf lower bound, got %f", m.ParamLowerBound(0))
	}
	if !approx(m.ParamUpperBound(0), math.Log(100)) {
		t.Errorf("expected ln 100 upper bound, got %f", m.ParamUpperBound(0))
	}
	if m.ParamScale(0) != 0.25 {
		t.Errorf("expected scale 0.25, got %f", m.ParamScale(0))
	}

	i, err := m.ParamIndexFromName("ln_k")
	if err != nil || i != 0 {
		t.Errorf("expected ln_k at 0, got %d (%v)", i, err)
	}
	if _, err := m.ParamIndexFromName("k"); !errors.Is(err, model.ErrParamRenamed) {
		t.Errorf("expected ErrParamRenamed, got %v", err)
	}
}

func TestLogErrors(t *testing.T) {
	m := testModel()
	tests := []struct {
		name  string
		names []string
		want  error
	}{
		{"none", nil, ErrNoParams},
		{"negative lower", []string{"c"}, ErrDomain},
		{"unknown", []string{"zeta"}, model.ErrParamNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLog(m, tt.names...)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLogGradient(t *testing.T) {
	m := testModel()
	r, _ := NewLog(m, "k")
	m.SetReparam(r)

	out := numeric.NewVector(2)
	m.ReparamGrad(numeric.NewVectorFrom([]float64{1, 3}), out)
	if out.Get(0) != 4 || out.Get(1) != 3 {
		t.Errorf("expected [4 3], got %v", out.Slice())
	}

	jout := mat.NewDense(1, 2, nil)
	m.ReparamJacobian(mat.NewDense(1, 2, []float64{2, 1}), jout)
	if jout.At(0, 0) != 8 || jout.At(0, 1) != 1 {
		t.Errorf("expected [8 1], got %v", numeric.Rows(jout))
	}
}

func linearModel(t *testing.T) (*model.Model, *Linear) {
	t.Helper()
	m := testModel()
	r, err := NewLinear(m, [][]float64{{2, 0}, {1, 1}}, []float64{1, 0})
	if err != nil {
		t.Fatalf("NewLinear: %v", err)
	}
	return m, r
}

func TestLinearForwardBackward(t *testing.T) {
	m, r := linearModel(t)
	m.SetReparam(r)

	if !approx(m.ParamGet(0), 1.5) || !approx(m.ParamGet(1), -1) {
		t.Errorf("expected [1.5 -1], got %v", m.ParamsGetAll().Slice())
	}

	m.ParamSet(1, 0)
	if !approx(m.OrigParamGet(0), 4) || !approx(m.OrigParamGet(1), 1.5) {
		t.Errorf("expected [4 1.5], got %v", m.OrigParamsGetAll().Slice())
	}
}

func TestLinearDescriptors(t *testing.T) {
	m, r := linearModel(t)
	m.SetReparam(r)

	if m.ParamName(1) != "lin_1" {
		t.Errorf("expected lin_1, got %s", m.ParamName(1))
	}
	if !approx(m.ParamDesc(0).Default, 1.5) {
		t.Errorf("expected default 1.5, got %f", m.ParamDesc(0).Default)
	}

	tests := []struct {
		name string
		idx  int
		ok   bool
	}{
		{"lin_0", 0, true},
		{"lin_1", 1, true},
		{"lin_2", -1, false},
		{"lin_x", -1, false},
		{"k", -1, false},
	}
	for _, tt := range tests {
		i, ok := r.IndexFromName(tt.name)
		if i != tt.idx || ok != tt.ok {
			t.Errorf("%s: expected (%d, %v), got (%d, %v)", tt.name, tt.idx, tt.ok, i, ok)
		}
	}
}

func TestLinearDerivatives(t *testing.T) {
	m, r := linearModel(t)
	m.SetReparam(r)

	out := numeric.NewVector(2)
	m.ReparamGrad(numeric.NewVectorFrom([]float64{1, 2}), out)
	if !approx(out.Get(0), 4) || !approx(out.Get(1), 2) {
		t.Errorf("expected [4 2], got %v", out.Slice())
	}

	jout := mat.NewDense(1, 2, nil)
	m.ReparamJacobian(mat.NewDense(1, 2, []float64{1, 0}), jout)
	if jout.At(0, 0) != 2 || jout.At(0, 1) != 0 {
		t.Errorf("expected [2 0], got %v", numeric.Rows(jout))
	}
}

func TestLinearErrors(t *testing.T) {
	m := testModel()
	tests := []struct {
		name   string
		matrix [][]float64
		offset []float64
		want   error
	}{
		{"singular", [][]float64{{1, 1}, {1, 1}}, nil, ErrSingular},
		{"wrong size", [][]float64{{1}}, nil, ErrShape},
		{"ragged", [][]float64{{1, 0}, {1}}, nil, ErrShape},
		{"offset", [][]float64{{1, 0}, {0, 1}}, []float64{1}, ErrShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLinear(m, tt.matrix, tt.offset)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestAttachDetachKeepsOriginal(t *testing.T) {
	for _, kind := range Kinds() {
		t.Run(kind, func(t *testing.T) {
			m := testModel()
			m.ParamsSetAll(7, -0.25)
			before := m.OrigParamsGetAll()

			r, err := Build(kind, m, Options{
				Params: []string{"k"},
				Matrix: [][]float64{{3, 1}, {0, 2}},
			})
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			m.SetReparam(r)
			m.SetReparam(nil)

			if !m.OrigParamsGetAll().Equal(before) {
				t.Errorf("expected %v, got %v", before.Slice(), m.OrigParamsGetAll().Slice())
			}
		})
	}
}

func TestBuildUnknownKind(t *testing.T) {
	if _, err := Build("spline", testModel(), Options{}); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
	if got := Kinds(); len(got) != 2 || got[0] != KindLinear || got[1] != KindLog {
		t.Errorf("expected [linear log], got %v", got)
	}
}
