package model

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/modelspace/internal/numeric"
	"github.com/san-kum/modelspace/internal/param"
)

// Model is one instance of a model type: a concrete parameter vector laid
// out from a closed Schema, per-slot descriptors and fit flags, and an
// optional active reparametrization.
//
// The original vector is the source of truth. The working vector is either
// the same storage (no reparam) or the active reparam's vector. Writes
// through Param* sync the original space back; writes through OrigParam*
// do not touch the working vector until OrigParamsUpdate is called.
//
// A Model has no internal locking; give each goroutine its own instance
// (see serial.Dup) or guard it externally.
type Model struct {
	schema   *Schema
	totalLen int

	params *numeric.Vector
	p      *numeric.Vector

	specs     []*param.Spec
	ftypes    []param.FitType
	vparamLen []int
	vparamPos []int
	nameIndex map[string]int

	reparam Reparam
	hooks   any
	pkey    uint64
}

type options struct {
	vectorLen map[int]int
	hooks     any
}

// Option configures construction.
type Option func(*options)

// WithVectorLen overrides the length of vector slot n.
func WithVectorLen(n, length int) Option {
	return func(o *options) {
		if o.vectorLen == nil {
			o.vectorLen = make(map[int]int)
		}
		o.vectorLen[n] = length
	}
}

// WithHooks installs the concrete type's hooks (ParamsUpdater, Validator,
// PropertyHandler).
func WithHooks(h any) Option {
	return func(o *options) { o.hooks = h }
}

// New builds an instance from a closed schema, fills every slot with its
// default value, marks every slot fixed and runs the params-updated hook.
func New(s *Schema, opts ...Option) *Model {
	if s == nil {
		defect("New", "nil schema")
	}
	if !s.closed {
		defect("New", "schema %q is not closed", s.name)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	m := &Model{
		schema:    s,
		hooks:     o.hooks,
		vparamLen: make([]int, len(s.vparams)),
		vparamPos: make([]int, len(s.vparams)),
		nameIndex: make(map[string]int),
	}

	for i, vp := range s.vparams {
		m.vparamLen[i] = vp.DefaultLen
	}
	for n, length := range o.vectorLen {
		if n < 0 || n >= len(s.vparams) {
			defect("New", "schema %q has no vector parameter %d", s.name, n)
		}
		if length < 0 {
			defect("New", "negative length %d for vector parameter %q", length, s.vparams[n].Name())
		}
		m.vparamLen[n] = length
	}

	m.totalLen = len(s.sparams)
	for i := range s.vparams {
		m.vparamPos[i] = m.totalLen
		m.totalLen += m.vparamLen[i]
	}

	m.params = numeric.NewVector(m.totalLen)
	m.p = m.params
	m.ftypes = make([]param.FitType, m.totalLen)
	m.specs = make([]*param.Spec, m.totalLen)

	for i, sp := range s.sparams {
		m.addSlot(i, sp.Copy())
	}
	for i, vp := range s.vparams {
		for j, sp := range vp.Expand(m.vparamLen[i]) {
			m.addSlot(m.vparamPos[i]+j, sp)
		}
	}

	m.ParamsSetDefault()
	return m
}

func (m *Model) addSlot(i int, sp *param.Spec) {
	if prev, dup := m.nameIndex[sp.Name]; dup {
		defect("New", "model %q: slots %d and %d share the name %q", m.schema.name, prev, i, sp.Name)
	}
	m.specs[i] = sp
	m.ftypes[i] = param.Fixed
	m.nameIndex[sp.Name] = i
}

func (m *Model) Schema() *Schema { return m.schema }

// Hooks returns the value given to WithHooks.
func (m *Model) Hooks() any { return m.hooks }

// Len is the total number of scalar slots, vector components included.
func (m *Model) Len() int { return m.totalLen }

func (m *Model) SparamLen() int { return len(m.schema.sparams) }

func (m *Model) VparamArrayLen() int { return len(m.vparamLen) }

// VparamLen is the length of vector slot n in this instance.
func (m *Model) VparamLen(n int) int { return m.vparamLen[n] }

// VparamIndex is the absolute index of component i of vector slot n.
func (m *Model) VparamIndex(n, i int) int {
	if i < 0 || i >= m.vparamLen[n] {
		defect("VparamIndex", "component %d outside vector parameter %q of length %d", i, m.schema.vparams[n].Name(), m.vparamLen[n])
	}
	return m.vparamPos[n] + i
}

// UpdateKey increases every time the parameters change.
func (m *Model) UpdateKey() uint64 { return m.pkey }

func (m *Model) touch() {
	m.pkey++
	if u, ok := m.hooks.(ParamsUpdater); ok {
		u.ParamsUpdated(m)
	}
}

// SetReparam attaches r, or detaches the active reparam when r is nil.
// Attaching replaces any active reparam and applies the forward map at once.
func (m *Model) SetReparam(r Reparam) {
	if r == nil {
		if m.reparam != nil {
			m.reparam = nil
			m.p = m.params
		}
		return
	}
	if r.Len() != m.totalLen {
		defect("SetReparam", "reparam %q has domain length %d, model %q has %d", r.Kind(), r.Len(), m.schema.name, m.totalLen)
	}

	m.SetReparam(nil)
	m.reparam = r
	m.p = r.NewParams()
	r.Forward(m, m.params, m.p)
}

// Reparam returns the active reparametrization or nil.
func (m *Model) Reparam() Reparam { return m.reparam }

// IsEqual reports whether m and other share the same schema, the same
// length and the same kind of active reparam (or none). Values are not
// compared.
func (m *Model) IsEqual(other *Model) bool {
	if other == nil || m.schema != other.schema {
		return false
	}
	if m.totalLen != other.totalLen {
		return false
	}
	if (m.reparam == nil) != (other.reparam == nil) {
		return false
	}
	if m.reparam != nil && m.reparam.Kind() != other.reparam.Kind() {
		return false
	}
	return true
}

// ParamGet reads the working vector.
func (m *Model) ParamGet(i int) float64 { return m.p.Get(i) }

// ParamSet writes the working vector and syncs the original space.
func (m *Model) ParamSet(i int, x float64) {
	m.p.Set(i, x)
	m.ParamsUpdate()
}

// ParamSetDefault resets working slot i to its descriptor default.
func (m *Model) ParamSetDefault(i int) {
	m.p.Set(i, m.ParamDesc(i).Default)
	m.ParamsUpdate()
}

// OrigParamGet reads the original vector.
func (m *Model) OrigParamGet(i int) float64 { return m.params.Get(i) }

// OrigParamSet writes the original vector. With an active reparam the
// working vector is left as is until OrigParamsUpdate.
func (m *Model) OrigParamSet(i int, x float64) {
	m.params.Set(i, x)
	m.touch()
}

func (m *Model) OrigVparamGet(n, i int) float64 {
	return m.params.Get(m.VparamIndex(n, i))
}

func (m *Model) OrigVparamSet(n, i int, x float64) {
	m.OrigParamSet(m.VparamIndex(n, i), x)
}

// OrigVparamVector returns a copy of vector slot n.
func (m *Model) OrigVparamVector(n int) *numeric.Vector {
	return m.params.Sub(m.vparamPos[n], m.vparamLen[n]).Dup()
}

// OrigVparamSetVector writes vector slot n; v must have the slot's length.
func (m *Model) OrigVparamSetVector(n int, v *numeric.Vector) {
	if v.Len() != m.vparamLen[n] {
		defect("OrigVparamSetVector", "vector parameter %q has length %d, got %d values", m.schema.vparams[n].Name(), m.vparamLen[n], v.Len())
	}
	m.params.Sub(m.vparamPos[n], m.vparamLen[n]).Memcpy(v)
	m.touch()
}

// ParamsUpdate propagates working-vector writes to the original vector and
// notifies the hooks.
func (m *Model) ParamsUpdate() {
	if m.reparam != nil {
		m.reparam.Backward(m, m.p, m.params)
	}
	m.touch()
}

// OrigParamsUpdate re-runs the forward map after original-space writes.
// It requires an active reparam.
func (m *Model) OrigParamsUpdate() {
	if m.reparam == nil {
		defect("OrigParamsUpdate", "model %q has no reparametrization", m.schema.name)
	}
	m.reparam.Forward(m, m.params, m.p)
	m.touch()
}

// ParamsSetDefault resets every working slot to its descriptor default.
func (m *Model) ParamsSetDefault() {
	for i := 0; i < m.p.Len(); i++ {
		m.p.Set(i, m.ParamDesc(i).Default)
	}
	m.ParamsUpdate()
}

// ParamsSaveAsDefault stores the current working values as defaults.
func (m *Model) ParamsSaveAsDefault() {
	for i := 0; i < m.p.Len(); i++ {
		m.ParamDesc(i).Default = m.p.Get(i)
	}
}

// ParamsSetDefaultFitTypes applies each slot's declared default fit type.
func (m *Model) ParamsSetDefaultFitTypes() {
	for i, sp := range m.specs {
		m.ftypes[i] = sp.FitType
	}
}

// ParamsSetAll writes every working slot in order.
func (m *Model) ParamsSetAll(vals ...float64) {
	if len(vals) != m.p.Len() {
		defect("ParamsSetAll", "model %q has %d parameters, got %d values", m.schema.name, m.p.Len(), len(vals))
	}
	copy(m.p.Data(), vals)
	m.ParamsUpdate()
}

// ParamsSetVector copies v into the working vector.
func (m *Model) ParamsSetVector(v *numeric.Vector) {
	if v.Len() != m.p.Len() {
		defect("ParamsSetVector", "model %q has %d parameters, got %d values", m.schema.name, m.p.Len(), v.Len())
	}
	m.p.Memcpy(v)
	m.ParamsUpdate()
}

// ParamsGetAll returns a copy of the working vector.
func (m *Model) ParamsGetAll() *numeric.Vector { return m.p.Dup() }

// OrigParamsGetAll returns a copy of the original vector.
func (m *Model) OrigParamsGetAll() *numeric.Vector { return m.params.Dup() }

// ParamsCopyTo copies m's working vector into dest.
func (m *Model) ParamsCopyTo(dest *Model) {
	if !m.IsEqual(dest) {
		defect("ParamsCopyTo", "models %q and %q are not compatible", m.schema.name, dest.schema.name)
	}
	dest.ParamsSetVector(m.p)
}

// ParamsSetModel copies src's working vector into m.
func (m *Model) ParamsSetModel(src *Model) {
	src.ParamsCopyTo(m)
}

// ParamsValid runs the type's Validator hook.
func (m *Model) ParamsValid() bool {
	if v, ok := m.hooks.(Validator); ok {
		return v.Valid(m)
	}
	return true
}

// ParamsValidBounds reports whether every original value lies within its
// descriptor's [lower, upper] interval.
func (m *Model) ParamsValidBounds() bool {
	for i := 0; i < m.totalLen; i++ {
		if !m.specs[i].InBounds(m.params.Get(i)) {
			return false
		}
	}
	return true
}

func (m *Model) ParamFinite(i int) bool {
	x := m.p.Get(i)
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func (m *Model) ParamsFinite() bool { return m.p.IsFinite() }

// OrigParamDesc is the instance's own descriptor of slot i.
func (m *Model) OrigParamDesc(i int) *param.Spec { return m.specs[i] }

// ParamDesc is the descriptor of working slot i: the reparam's when it
// redefines the slot, the original otherwise.
func (m *Model) ParamDesc(i int) *param.Spec {
	if m.reparam != nil {
		if d, ok := m.reparam.ParamDesc(i); ok {
			return d
		}
	}
	return m.specs[i]
}

func (m *Model) ParamName(i int) string        { return m.ParamDesc(i).Name }
func (m *Model) ParamSymbol(i int) string      { return m.ParamDesc(i).Symbol }
func (m *Model) ParamScale(i int) float64      { return m.ParamDesc(i).Scale }
func (m *Model) ParamLowerBound(i int) float64 { return m.ParamDesc(i).Lower }
func (m *Model) ParamUpperBound(i int) float64 { return m.ParamDesc(i).Upper }
func (m *Model) ParamAbsTol(i int) float64     { return m.ParamDesc(i).AbsTol }

func (m *Model) OrigParamName(i int) string        { return m.specs[i].Name }
func (m *Model) OrigParamSymbol(i int) string      { return m.specs[i].Symbol }
func (m *Model) OrigParamScale(i int) float64      { return m.specs[i].Scale }
func (m *Model) OrigParamLowerBound(i int) float64 { return m.specs[i].Lower }
func (m *Model) OrigParamUpperBound(i int) float64 { return m.specs[i].Upper }
func (m *Model) OrigParamAbsTol(i int) float64     { return m.specs[i].AbsTol }

func (m *Model) ParamSetScale(i int, x float64) {
	if !(x > 0) {
		defect("ParamSetScale", "scale must be positive, got %g", x)
	}
	m.ParamDesc(i).Scale = x
}

func (m *Model) ParamSetLowerBound(i int, x float64) { m.ParamDesc(i).Lower = x }
func (m *Model) ParamSetUpperBound(i int, x float64) { m.ParamDesc(i).Upper = x }
func (m *Model) ParamSetAbsTol(i int, x float64)     { m.ParamDesc(i).AbsTol = x }

// ParamFitType reports whether slot i is free or fixed. Slots beyond the
// original length (reparams with a longer working vector) are fixed.
func (m *Model) ParamFitType(i int) param.FitType {
	if i < 0 {
		defect("ParamFitType", "model %q has no slot %d", m.schema.name, i)
	}
	if i >= len(m.ftypes) {
		return param.Fixed
	}
	return m.ftypes[i]
}

func (m *Model) ParamSetFitType(i int, ft param.FitType) {
	if i < 0 || i >= len(m.ftypes) {
		defect("ParamSetFitType", "model %q has no slot %d", m.schema.name, i)
	}
	m.ftypes[i] = ft
}

// FreeParamsLen counts slots marked free.
func (m *Model) FreeParamsLen() int {
	n := 0
	for _, ft := range m.ftypes {
		if ft == param.Free {
			n++
		}
	}
	return n
}

// ParamsSetAllFitType marks every slot with ft.
func (m *Model) ParamsSetAllFitType(ft param.FitType) {
	for i := range m.ftypes {
		m.ftypes[i] = ft
	}
}

// ReparamGrad maps a gradient over the original parameters to the working
// parameters through the active reparam.
func (m *Model) ReparamGrad(grad, out *numeric.Vector) {
	if m.reparam == nil {
		defect("ReparamGrad", "model %q has no reparametrization", m.schema.name)
	}
	m.reparam.GradToWorking(m, m.params, grad, out)
}

// ReparamJacobian maps a Jacobian over the original parameters to the
// working parameters through the active reparam.
func (m *Model) ReparamJacobian(jac, out *mat.Dense) {
	if m.reparam == nil {
		defect("ReparamJacobian", "model %q has no reparametrization", m.schema.name)
	}
	m.reparam.JacobianToWorking(m, m.params, jac, out)
}

// LogParams writes every working parameter to logger.
func (m *Model) LogParams(logger *slog.Logger) {
	for i := 0; i < m.p.Len(); i++ {
		logger.Info("param",
			"model", m.schema.nick,
			"index", i,
			"name", m.ParamName(i),
			"value", m.p.Get(i),
			"fit", m.ParamFitType(i).String(),
		)
	}
}
