package model

import "fmt"

// OrigParamIndexFromName looks name up among the original slots.
func (m *Model) OrigParamIndexFromName(name string) (int, bool) {
	i, ok := m.nameIndex[name]
	return i, ok
}

// ParamIndexFromName looks name up among the working slots. With an active
// reparam the reparam's names are tried first, then the original names. An
// original name whose slot the reparam redefines yields a
// *RenamedParamError rather than a silent miss.
func (m *Model) ParamIndexFromName(name string) (int, error) {
	if m.reparam != nil {
		if i, ok := m.reparam.IndexFromName(name); ok {
			return i, nil
		}
	}

	i, ok := m.OrigParamIndexFromName(name)
	if !ok {
		return -1, fmt.Errorf("%w: %q in model %s", ErrParamNotFound, name, m.schema.nick)
	}
	if m.reparam != nil {
		if d, renamed := m.reparam.ParamDesc(i); renamed {
			return -1, &RenamedParamError{Name: name, NewName: d.Name, Index: i}
		}
	}
	return i, nil
}

func (m *Model) ParamGetByName(name string) (float64, error) {
	i, err := m.ParamIndexFromName(name)
	if err != nil {
		return 0, err
	}
	return m.ParamGet(i), nil
}

func (m *Model) ParamSetByName(name string, x float64) error {
	i, err := m.ParamIndexFromName(name)
	if err != nil {
		return err
	}
	m.ParamSet(i, x)
	return nil
}

func (m *Model) OrigParamGetByName(name string) (float64, error) {
	i, ok := m.OrigParamIndexFromName(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q in model %s", ErrParamNotFound, name, m.schema.nick)
	}
	return m.OrigParamGet(i), nil
}

func (m *Model) OrigParamSetByName(name string, x float64) error {
	i, ok := m.OrigParamIndexFromName(name)
	if !ok {
		return fmt.Errorf("%w: %q in model %s", ErrParamNotFound, name, m.schema.nick)
	}
	m.OrigParamSet(i, x)
	return nil
}

// ParamNames lists the working slot names in index order.
func (m *Model) ParamNames() []string {
	names := make([]string, m.p.Len())
	for i := range names {
		names[i] = m.ParamName(i)
	}
	return names
}
