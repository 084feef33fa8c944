package param

// VectorSpec is a template descriptor plus a default length. Each instance
// expands it into independent component descriptors.
type VectorSpec struct {
	Template   *Spec
	DefaultLen int
}

func NewVector(defaultLen int, tmpl *Spec) *VectorSpec {
	return &VectorSpec{Template: tmpl, DefaultLen: defaultLen}
}

func (v *VectorSpec) Name() string { return v.Template.Name }

func (v *VectorSpec) Copy() *VectorSpec {
	return &VectorSpec{Template: v.Template.Copy(), DefaultLen: v.DefaultLen}
}

// Expand returns n component descriptors named name_0 .. name_{n-1}.
func (v *VectorSpec) Expand(n int) []*Spec {
	out := make([]*Spec, n)
	for i := range out {
		out[i] = v.Template.Component(i)
	}
	return out
}
