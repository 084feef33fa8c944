package model

import "fmt"

// PropertyKind is the slot category a property id resolves to.
type PropertyKind int

const (
	NonParam PropertyKind = iota
	SparamValue
	VparamValue
	VparamLength
	SparamFit
	VparamFit
)

func (k PropertyKind) String() string {
	switch k {
	case NonParam:
		return "nonparam"
	case SparamValue:
		return "sparam"
	case VparamValue:
		return "vparam"
	case VparamLength:
		return "vparam-length"
	case SparamFit:
		return "sparam-fit"
	case VparamFit:
		return "vparam-fit"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Property is one entry of a schema's flattened property table.
//
// For parameter kinds Index is the absolute scalar or vector slot index
// across the hierarchy. For NonParam it is local to Level.
type Property struct {
	ID    int
	Kind  PropertyKind
	Index int
	Level *Schema
	Name  string
}

// walk resolves a property id local to this level. The id space of a level
// is: its non-parameter properties, own scalar values, own vector values,
// own vector lengths, own scalar fit flags, own vector fit flags. An id past
// the last region belongs to another level.
func (s *Schema) walk(local int) (PropertyKind, int, bool) {
	ownS := len(s.sparams) - s.parentSparamLen
	ownV := len(s.vparams) - s.parentVparamLen

	if local < len(s.nonparamNames) {
		return NonParam, local, true
	}
	n := local - len(s.nonparamNames)
	if n < ownS {
		return SparamValue, s.parentSparamLen + n, true
	}
	n -= ownS
	if n < ownV {
		return VparamValue, s.parentVparamLen + n, true
	}
	n -= ownV
	if n < ownV {
		return VparamLength, s.parentVparamLen + n, true
	}
	n -= ownV
	if n < ownS {
		return SparamFit, s.parentSparamLen + n, true
	}
	n -= ownS
	if n < ownV {
		return VparamFit, s.parentVparamLen + n, true
	}
	return 0, 0, false
}

// levelSize is the number of property ids owned by this level.
func (s *Schema) levelSize() int {
	ownS := len(s.sparams) - s.parentSparamLen
	ownV := len(s.vparams) - s.parentVparamLen
	return len(s.nonparamNames) + 2*ownS + 3*ownV
}

func (s *Schema) levels() []*Schema {
	var chain []*Schema
	for l := s; l != nil; l = l.parent {
		chain = append(chain, l)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// buildLayout flattens every level, root first, into one id table so
// lookups never re-derive offsets from parent and child counts.
func (s *Schema) buildLayout() {
	s.props = s.props[:0]
	s.propNames = make(map[string]int)
	s.propSlots = make(map[slotKey]int)

	for _, level := range s.levels() {
		local := 0
		for ; ; local++ {
			kind, index, ok := level.walk(local)
			if !ok {
				break
			}
			p := Property{
				ID:    len(s.props),
				Kind:  kind,
				Index: index,
				Level: level,
				Name:  s.propertyName(level, kind, index),
			}
			if prev, dup := s.propNames[p.Name]; dup {
				defect("Close", "schema %q: property name %q used by ids %d and %d", s.name, p.Name, prev, p.ID)
			}
			s.propNames[p.Name] = p.ID
			if kind != NonParam {
				s.propSlots[slotKey{kind, index}] = p.ID
			}
			s.props = append(s.props, p)
		}
		if local != level.levelSize() {
			defect("Close", "schema %q: level %q resolved %d ids, expected %d", s.name, level.name, local, level.levelSize())
		}
	}
}

func (s *Schema) propertyName(level *Schema, kind PropertyKind, index int) string {
	switch kind {
	case NonParam:
		return level.nonparamNames[index]
	case SparamValue:
		return s.sparams[index].Name
	case VparamValue:
		return s.vparams[index].Name()
	case VparamLength:
		return s.vparams[index].Name() + "-length"
	case SparamFit:
		return s.sparams[index].Name + "-fit"
	default:
		return s.vparams[index].Name() + "-fit"
	}
}

// PropertyLen is the size of the flattened property id space.
func (s *Schema) PropertyLen() int { return len(s.props) }

// Properties returns a copy of the property table in id order.
func (s *Schema) Properties() []Property {
	out := make([]Property, len(s.props))
	copy(out, s.props)
	return out
}

// Property resolves an id to its (kind, index) pair.
func (s *Schema) Property(id int) (Property, bool) {
	if id < 0 || id >= len(s.props) {
		return Property{}, false
	}
	return s.props[id], true
}

// PropertyByName resolves a property name.
func (s *Schema) PropertyByName(name string) (Property, bool) {
	id, ok := s.propNames[name]
	if !ok {
		return Property{}, false
	}
	return s.props[id], true
}

// PropertyID is the inverse of Property for parameter kinds.
func (s *Schema) PropertyID(kind PropertyKind, index int) (int, bool) {
	id, ok := s.propSlots[slotKey{kind, index}]
	return id, ok
}
