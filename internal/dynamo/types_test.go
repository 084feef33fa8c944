package dynamo

import (
	"errors"
	"math"
	"testing"
)

func TestStateIsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestStateNorm(t *testing.T) {
	tests := []struct {
		state    State
		expected float64
	}{
		{State{3, 4}, 5.0},
		{State{0, 0}, 0.0},
		{State{1, 1, 1, 1}, 2.0},
	}

	for _, tt := range tests {
		if got := tt.state.Norm(); math.Abs(got-tt.expected) > 1e-10 {
			t.Errorf("Norm(%v) = %v, want %v", tt.state, got, tt.expected)
		}
	}
}

func TestStateArithmetic(t *testing.T) {
	a := State{1, 2, 3}
	b := State{1, 1, 1}

	sum := a.AddScaled(2, b)
	if sum[0] != 3 || sum[2] != 5 {
		t.Errorf("AddScaled = %v", sum)
	}
	diff := a.Sub(b)
	if diff[0] != 0 || diff[2] != 2 {
		t.Errorf("Sub = %v", diff)
	}
	if a[0] != 1 {
		t.Error("expected arithmetic to leave the receiver unchanged")
	}

	c := a.Clone()
	c[0] = 9
	if a[0] != 1 {
		t.Error("expected Clone to copy")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("expected default config to be valid, got %v", err)
	}

	cfg := DefaultConfig()
	cfg.Adaptive = true
	cfg.Tolerance = 0
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestResultFinal(t *testing.T) {
	var r Result
	if r.Final() != nil {
		t.Error("expected nil final state for an empty result")
	}
	r.States = []State{{1}, {2}}
	if r.Final()[0] != 2 {
		t.Errorf("expected last state, got %v", r.Final())
	}
}

func TestSimulationErrorUnwrap(t *testing.T) {
	err := &SimulationError{Step: 3, Time: 0.5, Wrapped: ErrInvalidState}
	if !errors.Is(err, ErrInvalidState) {
		t.Error("expected SimulationError to unwrap")
	}
	if err.Error() == "" {
		t.Error("expected a message")
	}
}
