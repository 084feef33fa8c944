// Package param defines the descriptors for model parameters: scalar slots
// ([Spec]) and vector slots ([VectorSpec]) that expand into contiguous
// scalar components.
package param

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidScale = errors.New("param: scale must be positive")
	ErrEmptyName    = errors.New("param: empty name")
	ErrUnknownFit   = errors.New("param: unknown fit type")
)

// FitType tells fitting code whether a slot is varied or held constant.
type FitType int

const (
	Fixed FitType = iota
	Free
)

func (f FitType) String() string {
	if f == Free {
		return "free"
	}
	return "fixed"
}

func ParseFitType(s string) (FitType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "free", "true", "1":
		return Free, nil
	case "fixed", "false", "0":
		return Fixed, nil
	default:
		return Fixed, fmt.Errorf("%w: %q", ErrUnknownFit, s)
	}
}

func (f FitType) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *FitType) UnmarshalText(b []byte) error {
	ft, err := ParseFitType(string(b))
	if err != nil {
		return err
	}
	*f = ft
	return nil
}

// FitTypeOf maps a boolean "to fit" flag to a FitType.
func FitTypeOf(free bool) FitType {
	if free {
		return Free
	}
	return Fixed
}

// Spec describes one scalar slot. lower <= default <= upper is the caller's
// responsibility.
type Spec struct {
	Name    string  `json:"name" yaml:"name"`
	Symbol  string  `json:"symbol" yaml:"symbol"`
	Lower   float64 `json:"lower" yaml:"lower"`
	Upper   float64 `json:"upper" yaml:"upper"`
	Scale   float64 `json:"scale" yaml:"scale"`
	AbsTol  float64 `json:"abstol" yaml:"abstol"`
	Default float64 `json:"default" yaml:"default"`
	FitType FitType `json:"fit" yaml:"fit"`
}

func New(name, symbol string, lower, upper, scale, abstol, def float64, ft FitType) *Spec {
	return &Spec{
		Name:    name,
		Symbol:  symbol,
		Lower:   lower,
		Upper:   upper,
		Scale:   scale,
		AbsTol:  abstol,
		Default: def,
		FitType: ft,
	}
}

func (s *Spec) Validate() error {
	if s.Name == "" {
		return ErrEmptyName
	}
	if !(s.Scale > 0) {
		return fmt.Errorf("%w: %s has scale %g", ErrInvalidScale, s.Name, s.Scale)
	}
	return nil
}

func (s *Spec) Copy() *Spec {
	c := *s
	return &c
}

// InBounds reports lower <= x <= upper.
func (s *Spec) InBounds(x float64) bool {
	return x >= s.Lower && x <= s.Upper
}

// Component derives the i-th component descriptor of a vector slot.
func (s *Spec) Component(i int) *Spec {
	c := s.Copy()
	c.Name = fmt.Sprintf("%s_%d", s.Name, i)
	c.Symbol = fmt.Sprintf("%s_%d", s.Symbol, i)
	return c
}

func (s *Spec) String() string {
	return fmt.Sprintf("%s[%s] in [%g, %g] default %g (%s)", s.Name, s.Symbol, s.Lower, s.Upper, s.Default, s.FitType)
}
