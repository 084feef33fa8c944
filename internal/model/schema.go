package model

import (
	"fmt"

	"github.com/san-kum/modelspace/internal/param"
)

// Schema is the per-type registry of scalar and vector parameter slots.
//
// A schema is built once, single-threaded: NewSchema, one Extend, the
// SetSparam/SetVparam/SetNonParam calls for every slot this level declares,
// then Close. A closed schema is immutable and may be shared freely. A
// derived schema starts from deep copies of its parent's slots, so edits to
// the child never reach the parent.
type Schema struct {
	name   string
	nick   string
	parent *Schema

	sparams []*param.Spec
	vparams []*param.VectorSpec

	parentSparamLen int
	parentVparamLen int
	nonparamNames   []string

	extended bool
	closed   bool

	props     []Property
	propNames map[string]int
	propSlots map[slotKey]int
}

type slotKey struct {
	kind  PropertyKind
	index int
}

// NewSchema starts a schema for a model type. parent, if non-nil, must
// already be closed.
func NewSchema(name, nick string, parent *Schema) *Schema {
	if parent != nil && !parent.closed {
		defect("NewSchema", "parent schema %q of %q is not closed", parent.name, name)
	}
	return &Schema{name: name, nick: nick, parent: parent}
}

// Extend grows the slot tables by this level's own counts. The parent's
// counts are recorded before growing and its descriptors are copied
// forward. It must be called exactly once per schema.
func (s *Schema) Extend(sparamLen, vparamLen, nonparamLen int) {
	if s.extended {
		defect("Extend", "schema %q extended twice", s.name)
	}
	if sparamLen < 0 || vparamLen < 0 || nonparamLen < 0 {
		defect("Extend", "schema %q: negative slot count (%d, %d, %d)", s.name, sparamLen, vparamLen, nonparamLen)
	}

	var inheritedS []*param.Spec
	var inheritedV []*param.VectorSpec
	if s.parent != nil {
		inheritedS = s.parent.sparams
		inheritedV = s.parent.vparams
	}

	s.parentSparamLen = len(inheritedS)
	s.parentVparamLen = len(inheritedV)

	s.sparams = make([]*param.Spec, len(inheritedS)+sparamLen)
	for i, sp := range inheritedS {
		s.sparams[i] = sp.Copy()
	}
	s.vparams = make([]*param.VectorSpec, len(inheritedV)+vparamLen)
	for i, vp := range inheritedV {
		s.vparams[i] = vp.Copy()
	}

	s.nonparamNames = make([]string, nonparamLen)
	s.extended = true
}

// SetSparam installs spec at the absolute scalar index. Each own slot is
// write-once.
func (s *Schema) SetSparam(index int, spec *param.Spec) {
	s.checkOpen("SetSparam")
	if index < s.parentSparamLen || index >= len(s.sparams) {
		defect("SetSparam", "schema %q: scalar index %d outside own range [%d, %d)", s.name, index, s.parentSparamLen, len(s.sparams))
	}
	if s.sparams[index] != nil {
		defect("SetSparam", "schema %q: scalar parameter %d is already set", s.name, index)
	}
	if err := spec.Validate(); err != nil {
		defect("SetSparam", "schema %q: %v", s.name, err)
	}
	s.sparams[index] = spec.Copy()
}

// SetVparam installs a vector slot at the absolute vector index.
func (s *Schema) SetVparam(index, defaultLen int, tmpl *param.Spec) {
	s.checkOpen("SetVparam")
	if index < s.parentVparamLen || index >= len(s.vparams) {
		defect("SetVparam", "schema %q: vector index %d outside own range [%d, %d)", s.name, index, s.parentVparamLen, len(s.vparams))
	}
	if s.vparams[index] != nil {
		defect("SetVparam", "schema %q: vector parameter %d is already set", s.name, index)
	}
	if defaultLen < 0 {
		defect("SetVparam", "schema %q: negative default length %d", s.name, defaultLen)
	}
	if err := tmpl.Validate(); err != nil {
		defect("SetVparam", "schema %q: %v", s.name, err)
	}
	s.vparams[index] = param.NewVector(defaultLen, tmpl.Copy())
}

// SetNonParam names the index-th non-parameter property of this level.
func (s *Schema) SetNonParam(index int, name string) {
	s.checkOpen("SetNonParam")
	if index < 0 || index >= len(s.nonparamNames) {
		defect("SetNonParam", "schema %q: non-parameter index %d outside [0, %d)", s.name, index, len(s.nonparamNames))
	}
	if s.nonparamNames[index] != "" {
		defect("SetNonParam", "schema %q: non-parameter property %d is already set", s.name, index)
	}
	s.nonparamNames[index] = name
}

func (s *Schema) checkOpen(op string) {
	if !s.extended {
		defect(op, "schema %q: Extend has not been called", s.name)
	}
	if s.closed {
		defect(op, "schema %q is closed", s.name)
	}
}

// Close checks that every slot has been declared and builds the property
// table. Instances can only be built from closed schemas.
func (s *Schema) Close() {
	s.checkOpen("Close")

	for i, sp := range s.sparams {
		if sp == nil {
			defect("Close", "schema %q didn't initialize scalar parameter %d/%d", s.name, i+1, len(s.sparams))
		}
	}
	for i, vp := range s.vparams {
		if vp == nil {
			defect("Close", "schema %q didn't initialize vector parameter %d/%d", s.name, i+1, len(s.vparams))
		}
	}
	for i, n := range s.nonparamNames {
		if n == "" {
			defect("Close", "schema %q didn't name non-parameter property %d/%d", s.name, i+1, len(s.nonparamNames))
		}
	}

	s.buildLayout()
	s.closed = true
}

func (s *Schema) Name() string    { return s.name }
func (s *Schema) Nick() string    { return s.nick }
func (s *Schema) Parent() *Schema { return s.parent }
func (s *Schema) Closed() bool    { return s.closed }

// SparamLen is the number of scalar slots, inherited ones included.
func (s *Schema) SparamLen() int { return len(s.sparams) }

// VparamLen is the number of vector slots, inherited ones included.
func (s *Schema) VparamLen() int { return len(s.vparams) }

// ParentSparamLen is the number of scalar slots declared by ancestors.
func (s *Schema) ParentSparamLen() int { return s.parentSparamLen }

// ParentVparamLen is the number of vector slots declared by ancestors.
func (s *Schema) ParentVparamLen() int { return s.parentVparamLen }

// NonParamLen is the number of non-parameter properties of this level only.
func (s *Schema) NonParamLen() int { return len(s.nonparamNames) }

// Sparam returns the descriptor of scalar slot i. Callers must not modify it.
func (s *Schema) Sparam(i int) *param.Spec { return s.sparams[i] }

// Vparam returns the descriptor of vector slot i. Callers must not modify it.
func (s *Schema) Vparam(i int) *param.VectorSpec { return s.vparams[i] }

// IsA reports whether s is other or derives from it.
func (s *Schema) IsA(other *Schema) bool {
	for l := s; l != nil; l = l.parent {
		if l == other {
			return true
		}
	}
	return false
}

// DefaultLen is the total parameter count of an instance built without
// vector length overrides.
func (s *Schema) DefaultLen() int {
	n := len(s.sparams)
	for _, vp := range s.vparams {
		n += vp.DefaultLen
	}
	return n
}

func (s *Schema) String() string {
	return fmt.Sprintf("%s (%s): %d scalar, %d vector", s.name, s.nick, len(s.sparams), len(s.vparams))
}
