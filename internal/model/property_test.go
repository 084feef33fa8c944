package model_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/modelspace/internal/model"
	"github.com/san-kum/modelspace/internal/numeric"
	"github.com/san-kum/modelspace/internal/param"
)

var _ = Describe("Properties", func() {
	var (
		child *model.Schema
		m     *model.Model
		h     *recordingHooks
	)

	BeforeEach(func() {
		child = newChild(newBase())
		h = &recordingHooks{tag: "initial"}
		m = model.New(child, model.WithHooks(h))
	})

	It("reads every parameter kind", func() {
		Expect(m.GetPropertyByName("a")).To(Equal(2.0))
		Expect(m.GetPropertyByName("w")).To(Equal([]float64{1, 1, 1}))
		Expect(m.GetPropertyByName("v-length")).To(Equal(2))
		Expect(m.GetPropertyByName("b-fit")).To(Equal(false))
		Expect(m.GetPropertyByName("v-fit")).To(Equal([]bool{false, false}))
	})

	It("writes scalar and vector values to the original space", func() {
		id, _ := child.PropertyID(model.SparamValue, 1)
		Expect(m.SetProperty(id, 3.5)).To(Succeed())
		Expect(m.OrigParamGet(1)).To(Equal(3.5))

		Expect(m.SetPropertyByName("v", []float64{7, 8})).To(Succeed())
		Expect(m.OrigVparamVector(0).Slice()).To(Equal([]float64{7, 8}))

		Expect(m.SetPropertyByName("w", numeric.NewVectorFrom([]float64{1, 2, 3}))).To(Succeed())
		Expect(m.OrigParamGet(6)).To(Equal(3.0))
	})

	It("treats a vector length mismatch as a defect", func() {
		Expect(func() { _ = m.SetPropertyByName("w", []float64{1}) }).To(panicsWithDefect())
	})

	It("keeps vector lengths construct-only", func() {
		Expect(m.SetPropertyByName("w-length", 5)).To(MatchError(model.ErrConstructOnly))
		Expect(m.VparamLen(1)).To(Equal(3))
	})

	It("sets fit flags", func() {
		Expect(m.SetPropertyByName("a-fit", true)).To(Succeed())
		Expect(m.ParamFitType(0)).To(Equal(param.Free))

		Expect(m.SetPropertyByName("w-fit", []bool{true, false, true})).To(Succeed())
		Expect(m.GetPropertyByName("w-fit")).To(Equal([]bool{true, false, true}))
	})

	It("broadcasts a single vector fit flag", func() {
		Expect(m.SetPropertyByName("w-fit", []bool{true})).To(Succeed())
		Expect(m.FreeParamsLen()).To(Equal(3))
		Expect(m.SetPropertyByName("w-fit", false)).To(Succeed())
		Expect(m.FreeParamsLen()).To(Equal(0))
	})

	It("treats a wrong fit flag count as a defect", func() {
		Expect(func() { _ = m.SetPropertyByName("w-fit", []bool{true, true}) }).To(panicsWithDefect())
	})

	It("rejects values of the wrong type", func() {
		Expect(m.SetPropertyByName("a", "two")).To(MatchError(model.ErrPropertyType))
		Expect(m.SetPropertyByName("v", 1.0)).To(MatchError(model.ErrPropertyType))
		Expect(m.SetPropertyByName("a-fit", 1)).To(MatchError(model.ErrPropertyType))
		Expect(m.SetPropertyByName("v-fit", "yes")).To(MatchError(model.ErrPropertyType))
	})

	It("rejects unknown properties", func() {
		_, err := m.GetProperty(child.PropertyLen())
		Expect(err).To(MatchError(model.ErrUnknownProperty))
		Expect(m.SetProperty(-1, 1.0)).To(MatchError(model.ErrUnknownProperty))
		Expect(m.SetPropertyByName("nope", 1.0)).To(MatchError(model.ErrUnknownProperty))
	})

	It("routes non-parameter properties to the handler", func() {
		Expect(m.GetPropertyByName("tag")).To(Equal("initial"))
		Expect(m.SetPropertyByName("tag", "changed")).To(Succeed())
		Expect(h.tag).To(Equal("changed"))
	})

	It("rejects non-parameter properties without a handler", func() {
		plain := model.New(child)
		_, err := plain.GetPropertyByName("tag")
		Expect(err).To(MatchError(model.ErrUnknownProperty))
	})

	It("bumps the update key on value writes", func() {
		k := m.UpdateKey()
		Expect(m.SetPropertyByName("b", 1.0)).To(Succeed())
		Expect(m.UpdateKey()).To(Equal(k + 1))
	})
})

var _ = Describe("Registry", func() {
	var (
		reg   *model.Registry
		base  *model.Schema
		child *model.Schema
	)

	BeforeEach(func() {
		reg = model.NewRegistry()
		base = newBase()
		child = newChild(base)
		Expect(reg.Register(child, nil)).To(Succeed())
		Expect(reg.Register(base, func(opts ...model.Option) *model.Model {
			return model.New(base, append(opts, model.WithHooks(&recordingHooks{}))...)
		})).To(Succeed())
	})

	It("lists types in order", func() {
		Expect(reg.Names()).To(Equal([]string{"base", "child"}))
	})

	It("builds instances through the factory", func() {
		m, err := reg.New("base")
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Hooks()).To(BeAssignableToTypeOf(&recordingHooks{}))

		c, err := reg.New("child", model.WithVectorLen(1, 1))
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Len()).To(Equal(5))
	})

	It("resolves schemas", func() {
		s, err := reg.Schema("child")
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(BeIdenticalTo(child))
	})

	It("reports unknown and duplicate types", func() {
		_, err := reg.New("nope")
		Expect(err).To(MatchError(model.ErrUnknownType))
		_, err = reg.Schema("nope")
		Expect(err).To(MatchError(model.ErrUnknownType))
		Expect(reg.Register(child, nil)).To(MatchError(model.ErrDuplicateType))
	})

	It("refuses open schemas", func() {
		s := model.NewSchema("open", "o", nil)
		s.Extend(0, 0, 0)
		Expect(func() { _ = reg.Register(s, nil) }).To(panicsWithDefect())
	})
})
