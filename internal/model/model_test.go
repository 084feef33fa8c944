package model_test

import (
	"errors"
	"log/slog"
	"math"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/modelspace/internal/model"
	"github.com/san-kum/modelspace/internal/numeric"
	"github.com/san-kum/modelspace/internal/param"
)

var _ = Describe("Model", func() {
	var (
		base, child *model.Schema
		m           *model.Model
	)

	BeforeEach(func() {
		base = newBase()
		child = newChild(base)
		m = model.New(child)
	})

	Describe("construction", func() {
		It("fills inherited and own defaults", func() {
			Expect(m.ParamGet(0)).To(Equal(2.0))
			Expect(m.ParamGet(1)).To(Equal(5.0))
			Expect(m.OrigVparamVector(0).Slice()).To(Equal([]float64{0.5, 0.5}))
			Expect(m.OrigVparamVector(1).Slice()).To(Equal([]float64{1, 1, 1}))
		})

		It("preserves defaults across a minimal two-level hierarchy", func() {
			b := model.NewSchema("one", "1", nil)
			b.Extend(1, 0, 0)
			b.SetSparam(0, scalar("x", 2.0))
			b.Close()
			c := model.NewSchema("two", "2", b)
			c.Extend(1, 0, 0)
			c.SetSparam(1, scalar("y", 5.0))
			c.Close()

			inst := model.New(c)
			Expect(inst.ParamGet(0)).To(Equal(2.0))
			Expect(inst.ParamGet(1)).To(Equal(5.0))
		})

		It("positions vector components after the scalars", func() {
			Expect(m.SparamLen()).To(Equal(2))
			Expect(m.VparamArrayLen()).To(Equal(2))
			Expect(m.VparamIndex(0, 0)).To(Equal(2))
			Expect(m.VparamIndex(1, 0)).To(Equal(4))
			Expect(m.VparamIndex(1, 2)).To(Equal(6))
			Expect(m.OrigParamName(5)).To(Equal("w_1"))
			Expect(func() { m.VparamIndex(0, 2) }).To(panicsWithDefect())
		})

		It("honours vector length overrides", func() {
			long := model.New(child, model.WithVectorLen(0, 4))
			Expect(long.VparamLen(0)).To(Equal(4))
			Expect(long.Len()).To(Equal(9))
			Expect(long.VparamIndex(1, 0)).To(Equal(6))
		})

		It("marks every slot fixed", func() {
			for i := 0; i < m.Len(); i++ {
				Expect(m.ParamFitType(i)).To(Equal(param.Fixed))
			}
			Expect(m.FreeParamsLen()).To(Equal(0))
		})

		It("refuses unclosed schemas", func() {
			s := model.NewSchema("open", "o", nil)
			s.Extend(1, 0, 0)
			s.SetSparam(0, scalar("a", 0))
			Expect(func() { model.New(s) }).To(panicsWithDefect())
			Expect(func() { model.New(nil) }).To(panicsWithDefect())
		})

		It("refuses duplicate slot names", func() {
			s := model.NewSchema("clash", "c", nil)
			s.Extend(1, 1, 0)
			s.SetSparam(0, scalar("v_0", 0))
			s.SetVparam(0, 1, scalar("v", 0))
			s.Close()
			Expect(func() { model.New(s) }).To(panicsWithDefect())
		})

		It("refuses bad vector overrides", func() {
			Expect(func() { model.New(child, model.WithVectorLen(2, 1)) }).To(panicsWithDefect())
			Expect(func() { model.New(child, model.WithVectorLen(0, -1)) }).To(panicsWithDefect())
		})

		It("runs the update hook once", func() {
			h := &recordingHooks{}
			inst := model.New(child, model.WithHooks(h))
			Expect(h.updates).To(Equal(1))
			Expect(inst.Hooks()).To(BeIdenticalTo(h))
			Expect(inst.UpdateKey()).To(Equal(uint64(1)))
		})

		It("copies descriptors per instance", func() {
			other := model.New(child)
			m.ParamSetScale(0, 3)
			m.ParamSetUpperBound(0, 1)
			Expect(other.ParamScale(0)).To(Equal(1.0))
			Expect(child.Sparam(0).Scale).To(Equal(1.0))
			Expect(m.ParamUpperBound(0)).To(Equal(1.0))
			Expect(func() { m.ParamSetScale(0, 0) }).To(panicsWithDefect())
		})
	})

	Describe("bulk access", func() {
		It("round trips ParamsSetVector", func() {
			v := numeric.NewVectorFrom([]float64{1, 2, 3, 4, 5, 6, 7})
			m.ParamsSetVector(v)
			Expect(m.ParamsGetAll().Equal(v)).To(BeTrue())
			Expect(m.OrigParamsGetAll().Equal(v)).To(BeTrue())
			Expect(func() { m.ParamsSetVector(numeric.NewVector(3)) }).To(panicsWithDefect())
		})

		It("round trips an empty model", func() {
			s := model.NewSchema("empty", "e", nil)
			s.Extend(0, 0, 0)
			s.Close()
			e := model.New(s)
			Expect(e.Len()).To(Equal(0))
			e.ParamsSetVector(numeric.NewVector(0))
			Expect(e.ParamsGetAll().Len()).To(Equal(0))
			Expect(e.ParamsValidBounds()).To(BeTrue())
		})

		It("sets all values in order", func() {
			m.ParamsSetAll(7, 6, 5, 4, 3, 2, 1)
			Expect(m.ParamGet(0)).To(Equal(7.0))
			Expect(m.OrigVparamGet(1, 2)).To(Equal(1.0))
			Expect(func() { m.ParamsSetAll(1) }).To(panicsWithDefect())
		})

		It("resets and saves defaults", func() {
			m.ParamSet(0, 9)
			m.ParamsSetDefault()
			Expect(m.ParamGet(0)).To(Equal(2.0))

			m.ParamSet(0, 9)
			m.ParamsSaveAsDefault()
			m.ParamSet(0, 1)
			m.ParamSetDefault(0)
			Expect(m.ParamGet(0)).To(Equal(9.0))
			Expect(child.Sparam(0).Default).To(Equal(2.0))
		})

		It("copies between compatible instances", func() {
			dst := model.New(child)
			m.ParamSet(1, 8)
			m.ParamsCopyTo(dst)
			Expect(dst.ParamGet(1)).To(Equal(8.0))

			src := model.New(child)
			src.ParamSet(0, -3)
			dst.ParamsSetModel(src)
			Expect(dst.ParamGet(0)).To(Equal(-3.0))

			Expect(func() { m.ParamsCopyTo(model.New(child, model.WithVectorLen(0, 1))) }).To(panicsWithDefect())
		})

		It("writes whole vector slots", func() {
			m.OrigVparamSetVector(1, numeric.NewVectorFrom([]float64{4, 5, 6}))
			Expect(m.OrigParamGet(4)).To(Equal(4.0))
			Expect(m.OrigParamGet(6)).To(Equal(6.0))
			m.OrigVparamSet(0, 1, -1)
			Expect(m.OrigParamGet(3)).To(Equal(-1.0))
			Expect(func() { m.OrigVparamSetVector(1, numeric.NewVector(2)) }).To(panicsWithDefect())
		})

		It("counts updates", func() {
			k := m.UpdateKey()
			m.ParamSet(0, 1)
			m.OrigParamSet(0, 1)
			Expect(m.UpdateKey()).To(Equal(k + 2))
		})
	})

	Describe("IsEqual", func() {
		It("accepts two plain instances of one type", func() {
			Expect(m.IsEqual(model.New(child))).To(BeTrue())
		})

		It("rejects a different length", func() {
			Expect(m.IsEqual(model.New(child, model.WithVectorLen(1, 1)))).To(BeFalse())
		})

		It("rejects a different type", func() {
			Expect(m.IsEqual(model.New(base))).To(BeFalse())
		})

		It("rejects nil", func() {
			Expect(m.IsEqual(nil)).To(BeFalse())
		})

		It("compares reparam kinds symmetrically", func() {
			a, b := model.New(child), model.New(child)
			a.SetReparam(newDoubling(a.Len()))
			Expect(a.IsEqual(b)).To(BeFalse())
			Expect(b.IsEqual(a)).To(BeFalse())

			b.SetReparam(newDoubling(b.Len()))
			Expect(a.IsEqual(b)).To(BeTrue())

			b.SetReparam(otherKind{newDoubling(b.Len())})
			Expect(a.IsEqual(b)).To(BeFalse())
		})
	})

	Describe("names", func() {
		It("round trips every slot name", func() {
			for i, name := range m.ParamNames() {
				idx, err := m.ParamIndexFromName(name)
				Expect(err).NotTo(HaveOccurred())
				Expect(idx).To(Equal(i))

				x, err := m.ParamGetByName(name)
				Expect(err).NotTo(HaveOccurred())
				Expect(x).To(Equal(m.ParamGet(i)))

				oi, ok := m.OrigParamIndexFromName(name)
				Expect(ok).To(BeTrue())
				Expect(oi).To(Equal(i))
			}
		})

		It("reports unknown names", func() {
			_, ok := m.OrigParamIndexFromName("zeta")
			Expect(ok).To(BeFalse())
			_, err := m.ParamIndexFromName("zeta")
			Expect(errors.Is(err, model.ErrParamNotFound)).To(BeTrue())
			Expect(m.ParamSetByName("zeta", 1)).To(MatchError(model.ErrParamNotFound))
			_, err = m.OrigParamGetByName("zeta")
			Expect(err).To(MatchError(model.ErrParamNotFound))
		})

		It("sets by name in both spaces", func() {
			Expect(m.ParamSetByName("w_2", 3)).To(Succeed())
			Expect(m.OrigParamGet(6)).To(Equal(3.0))
			Expect(m.OrigParamSetByName("b", -2)).To(Succeed())
			x, err := m.OrigParamGetByName("b")
			Expect(err).NotTo(HaveOccurred())
			Expect(x).To(Equal(-2.0))
		})

		It("resolves reparam names first and rejects renamed ones", func() {
			m.SetReparam(newDoubling(m.Len()))

			idx, err := m.ParamIndexFromName("twice_a")
			Expect(err).NotTo(HaveOccurred())
			Expect(idx).To(Equal(0))

			_, err = m.ParamIndexFromName("a")
			var renamed *model.RenamedParamError
			Expect(errors.As(err, &renamed)).To(BeTrue())
			Expect(renamed.NewName).To(Equal("twice_a"))
			Expect(errors.Is(err, model.ErrParamRenamed)).To(BeTrue())

			idx, err = m.ParamIndexFromName("b")
			Expect(err).NotTo(HaveOccurred())
			Expect(idx).To(Equal(1))

			oi, ok := m.OrigParamIndexFromName("a")
			Expect(ok).To(BeTrue())
			Expect(oi).To(Equal(0))
			Expect(m.ParamName(0)).To(Equal("twice_a"))
			Expect(m.OrigParamName(0)).To(Equal("a"))
		})
	})

	Describe("reparametrization", func() {
		It("applies the forward map on attach", func() {
			m.SetReparam(newDoubling(m.Len()))
			Expect(m.ParamGet(0)).To(Equal(4.0))
			Expect(m.OrigParamGet(0)).To(Equal(2.0))
			Expect(m.ParamGet(1)).To(Equal(5.0))
		})

		It("leaves the original vector untouched across attach and detach", func() {
			m.ParamsSetAll(0.25, -1, 3, 4, 5, 6, 7)
			before := m.OrigParamsGetAll()

			m.SetReparam(newDoubling(m.Len()))
			m.SetReparam(nil)

			Expect(m.OrigParamsGetAll().Equal(before)).To(BeTrue())
			Expect(m.Reparam()).To(BeNil())
			m.ParamSet(0, 1)
			Expect(m.OrigParamGet(0)).To(Equal(1.0))
		})

		It("syncs working writes back to the original space", func() {
			m.SetReparam(newDoubling(m.Len()))
			m.ParamSet(0, 10)
			Expect(m.OrigParamGet(0)).To(Equal(5.0))
		})

		It("leaves the working vector stale until OrigParamsUpdate", func() {
			m.SetReparam(newDoubling(m.Len()))
			m.OrigParamSet(0, 3)
			Expect(m.ParamGet(0)).To(Equal(4.0))
			m.OrigParamsUpdate()
			Expect(m.ParamGet(0)).To(Equal(6.0))
		})

		It("replaces an active reparam", func() {
			first := newDoubling(m.Len())
			m.SetReparam(first)
			m.SetReparam(otherKind{newDoubling(m.Len())})
			Expect(m.Reparam().Kind()).To(Equal("other"))
			Expect(m.ParamGet(0)).To(Equal(4.0))
		})

		It("uses the reparam descriptor for working slots", func() {
			m.SetReparam(newDoubling(m.Len()))
			Expect(m.ParamUpperBound(0)).To(Equal(20.0))
			Expect(m.OrigParamUpperBound(0)).To(Equal(10.0))
			Expect(m.ParamSymbol(1)).To(Equal("b"))
		})

		It("rejects a domain length mismatch", func() {
			Expect(func() { m.SetReparam(newDoubling(m.Len() + 1)) }).To(panicsWithDefect())
		})

		It("requires a reparam for the explicit resync and derivatives", func() {
			Expect(func() { m.OrigParamsUpdate() }).To(panicsWithDefect())
			Expect(func() { m.ReparamGrad(numeric.NewVector(7), numeric.NewVector(7)) }).To(panicsWithDefect())
		})

		It("propagates gradients and Jacobians", func() {
			m.SetReparam(newDoubling(m.Len()))
			grad := numeric.NewVectorFrom([]float64{4, 1, 1, 1, 1, 1, 1})
			out := numeric.NewVector(7)
			m.ReparamGrad(grad, out)
			Expect(out.Get(0)).To(Equal(2.0))
			Expect(out.Get(1)).To(Equal(1.0))

			jac := mat.NewDense(2, 7, nil)
			jac.Set(1, 0, 6)
			jout := mat.NewDense(2, 7, nil)
			m.ReparamJacobian(jac, jout)
			Expect(jout.At(1, 0)).To(Equal(3.0))
		})
	})

	Describe("validity", func() {
		It("checks the true upper bound", func() {
			s := model.NewSchema("unit", "u", nil)
			s.Extend(1, 0, 0)
			s.SetSparam(0, param.New("x", "x", 0, 1, 1, 0, 0.5, param.Free))
			s.Close()
			u := model.New(s)

			Expect(u.ParamsValidBounds()).To(BeTrue())
			u.ParamSet(0, -1)
			Expect(u.ParamsValidBounds()).To(BeFalse())
			u.ParamSet(0, 2)
			Expect(u.ParamsValidBounds()).To(BeFalse())
			u.ParamSet(0, 1)
			Expect(u.ParamsValidBounds()).To(BeTrue())
		})

		It("is valid by default and consults the hook", func() {
			Expect(m.ParamsValid()).To(BeTrue())
			h := &recordingHooks{}
			inst := model.New(child, model.WithHooks(h))
			Expect(inst.ParamsValid()).To(BeTrue())
			inst.ParamSet(0, -1)
			Expect(inst.ParamsValid()).To(BeFalse())
		})

		It("detects non-finite values", func() {
			Expect(m.ParamsFinite()).To(BeTrue())
			m.ParamSet(3, math.NaN())
			Expect(m.ParamFinite(3)).To(BeFalse())
			Expect(m.ParamFinite(2)).To(BeTrue())
			Expect(m.ParamsFinite()).To(BeFalse())
		})
	})

	Describe("fit types", func() {
		It("stores plain flags", func() {
			m.ParamSetFitType(2, param.Free)
			Expect(m.ParamFitType(2)).To(Equal(param.Free))
			Expect(m.FreeParamsLen()).To(Equal(1))
			Expect(m.ParamFitType(100)).To(Equal(param.Fixed))
			Expect(func() { m.ParamSetFitType(100, param.Free) }).To(panicsWithDefect())
			Expect(func() { m.ParamFitType(-1) }).To(panicsWithDefect())
		})

		It("applies declared defaults and blanket settings", func() {
			m.ParamsSetDefaultFitTypes()
			Expect(m.FreeParamsLen()).To(Equal(7))
			m.ParamsSetAllFitType(param.Fixed)
			Expect(m.FreeParamsLen()).To(Equal(0))
		})
	})

	It("logs every working parameter", func() {
		var sb strings.Builder
		m.LogParams(slog.New(slog.NewTextHandler(&sb, nil)))
		Expect(strings.Count(sb.String(), "msg=param")).To(Equal(7))
		Expect(sb.String()).To(ContainSubstring("name=w_2"))
	})
})
