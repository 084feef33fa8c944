package model_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/modelspace/internal/model"
)

var _ = Describe("Schema", func() {
	var base, child *model.Schema

	BeforeEach(func() {
		base = newBase()
		child = newChild(base)
	})

	It("records the parent counts before growing", func() {
		Expect(base.ParentSparamLen()).To(Equal(0))
		Expect(child.ParentSparamLen()).To(Equal(1))
		Expect(child.ParentVparamLen()).To(Equal(1))
		Expect(child.SparamLen()).To(Equal(2))
		Expect(child.VparamLen()).To(Equal(2))
		Expect(child.NonParamLen()).To(Equal(0))
	})

	It("sums scalar counts and vector lengths across levels", func() {
		Expect(base.DefaultLen()).To(Equal(1 + 2))
		Expect(child.DefaultLen()).To(Equal(2 + 2 + 3))
		Expect(model.New(child).Len()).To(Equal(7))
	})

	It("sums across three levels", func() {
		grand := model.NewSchema("grand", "g", child)
		grand.Extend(2, 0, 0)
		grand.SetSparam(2, scalar("c", 0))
		grand.SetSparam(3, scalar("d", 0))
		grand.Close()

		Expect(grand.SparamLen()).To(Equal(4))
		Expect(model.New(grand).Len()).To(Equal(4 + 2 + 3))
		Expect(model.New(grand, model.WithVectorLen(1, 0)).Len()).To(Equal(4 + 2))
	})

	It("deep copies inherited slots", func() {
		Expect(child.Sparam(0)).NotTo(BeIdenticalTo(base.Sparam(0)))
		Expect(child.Sparam(0).Name).To(Equal("a"))
		Expect(child.Vparam(0)).NotTo(BeIdenticalTo(base.Vparam(0)))
		Expect(child.Vparam(0).Template).NotTo(BeIdenticalTo(base.Vparam(0).Template))
	})

	It("tracks its ancestry", func() {
		Expect(child.Parent()).To(BeIdenticalTo(base))
		Expect(child.IsA(base)).To(BeTrue())
		Expect(base.IsA(child)).To(BeFalse())
		Expect(child.String()).To(ContainSubstring("child (c)"))
	})

	Context("registration defects", func() {
		It("rejects a second write to the same slot", func() {
			s := model.NewSchema("dup", "d", nil)
			s.Extend(1, 0, 0)
			s.SetSparam(0, scalar("a", 0))
			Expect(func() { s.SetSparam(0, scalar("a2", 0)) }).To(panicsWithDefect())
		})

		It("rejects a second Extend", func() {
			s := model.NewSchema("twice", "t", nil)
			s.Extend(1, 0, 0)
			Expect(func() { s.Extend(1, 0, 0) }).To(panicsWithDefect())
		})

		It("rejects writes to inherited slots", func() {
			s := model.NewSchema("sub", "s", base)
			s.Extend(1, 0, 0)
			Expect(func() { s.SetSparam(0, scalar("x", 0)) }).To(panicsWithDefect())
			Expect(func() { s.SetVparam(0, 1, scalar("y", 0)) }).To(panicsWithDefect())
		})

		It("rejects closing with an empty slot", func() {
			s := model.NewSchema("open", "o", nil)
			s.Extend(2, 0, 0)
			s.SetSparam(0, scalar("a", 0))
			Expect(func() { s.Close() }).To(panicsWithDefect())
		})

		It("rejects an unnamed non-parameter property", func() {
			s := model.NewSchema("open", "o", nil)
			s.Extend(0, 0, 1)
			Expect(func() { s.Close() }).To(panicsWithDefect())
		})

		It("rejects an invalid descriptor", func() {
			s := model.NewSchema("bad", "b", nil)
			s.Extend(1, 0, 0)
			bad := scalar("a", 0)
			bad.Scale = 0
			Expect(func() { s.SetSparam(0, bad) }).To(panicsWithDefect())
		})

		It("rejects changes after Close", func() {
			Expect(func() { base.SetNonParam(0, "other") }).To(panicsWithDefect())
		})

		It("requires a closed parent", func() {
			open := model.NewSchema("open", "o", nil)
			open.Extend(0, 0, 0)
			Expect(func() { model.NewSchema("sub", "s", open) }).To(panicsWithDefect())
		})

		It("rejects a property name used twice", func() {
			s := model.NewSchema("clash", "c", nil)
			s.Extend(1, 0, 1)
			s.SetSparam(0, scalar("a", 0))
			s.SetNonParam(0, "a")
			Expect(func() { s.Close() }).To(panicsWithDefect())
		})
	})

	Describe("property layout", func() {
		type row struct {
			name  string
			kind  model.PropertyKind
			index int
			level *model.Schema
		}

		It("lays out each level root first in region order", func() {
			want := []row{
				{"tag", model.NonParam, 0, base},
				{"a", model.SparamValue, 0, base},
				{"v", model.VparamValue, 0, base},
				{"v-length", model.VparamLength, 0, base},
				{"a-fit", model.SparamFit, 0, base},
				{"v-fit", model.VparamFit, 0, base},
				{"b", model.SparamValue, 1, child},
				{"w", model.VparamValue, 1, child},
				{"w-length", model.VparamLength, 1, child},
				{"b-fit", model.SparamFit, 1, child},
				{"w-fit", model.VparamFit, 1, child},
			}

			Expect(child.PropertyLen()).To(Equal(len(want)))
			for id, w := range want {
				p, ok := child.Property(id)
				Expect(ok).To(BeTrue())
				Expect(p.ID).To(Equal(id))
				Expect(p.Name).To(Equal(w.name))
				Expect(p.Kind).To(Equal(w.kind), "id %d", id)
				Expect(p.Index).To(Equal(w.index), "id %d", id)
				Expect(p.Level).To(BeIdenticalTo(w.level), "id %d", id)
			}
		})

		It("round trips parameter kinds through PropertyID", func() {
			for _, p := range child.Properties() {
				if p.Kind == model.NonParam {
					continue
				}
				id, ok := child.PropertyID(p.Kind, p.Index)
				Expect(ok).To(BeTrue())
				Expect(id).To(Equal(p.ID))
			}
		})

		It("never maps two ids to the same slot", func() {
			seen := map[[2]int]int{}
			for _, p := range child.Properties() {
				if p.Kind == model.NonParam {
					continue
				}
				key := [2]int{int(p.Kind), p.Index}
				Expect(seen).NotTo(HaveKey(key))
				seen[key] = p.ID
			}
		})

		It("resolves names and rejects unknown ids", func() {
			p, ok := child.PropertyByName("w-length")
			Expect(ok).To(BeTrue())
			Expect(p.ID).To(Equal(8))

			_, ok = child.PropertyByName("nope")
			Expect(ok).To(BeFalse())
			_, ok = child.Property(-1)
			Expect(ok).To(BeFalse())
			_, ok = child.Property(child.PropertyLen())
			Expect(ok).To(BeFalse())
		})

		It("keeps the parent's own table unchanged", func() {
			Expect(base.PropertyLen()).To(Equal(6))
		})
	})
})
