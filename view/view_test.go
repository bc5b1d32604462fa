package view_test

import (
	"github.com/ais-ml/tensorcore/cmn/config"
	"github.com/ais-ml/tensorcore/memsys"
	"github.com/ais-ml/tensorcore/shape"
	"github.com/ais-ml/tensorcore/view"
	"github.com/ais-ml/tensorcore/xstream"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func cpuStream() *xstream.Stream {
	return xstream.NewWithAddressing(memsys.Key{ServiceID: "cpu", DeviceID: "0"}, memsys.Unified)
}

var _ = Describe("View", func() {
	It("round-trips values through FromCollection/Values", func() {
		v, err := view.FromCollection(view.F32, shape.Vector(3), []float64{1, 2, 3})
		Expect(err).NotTo(HaveOccurred())
		defer v.Close()

		seq, err := v.Values(cpuStream())
		Expect(err).NotTo(HaveOccurred())
		Expect(seq.Len()).To(Equal(int64(3)))
		for i := int64(0); i < 3; i++ {
			Expect(seq.Get(i)).To(Equal(float64(i + 1)))
		}
	})

	It("applies copy-on-write: mutating a cloned view leaves the original untouched", func() {
		s := cpuStream()
		v, err := view.FromCollection(view.F32, shape.Vector(4), []float64{1, 2, 3, 4})
		Expect(err).NotTo(HaveOccurred())
		defer v.Close()

		clone, err := v.SubView([]int64{0}, []int64{4}, false)
		Expect(err).NotTo(HaveOccurred())
		defer clone.Close()

		mv, err := clone.MutableValues(s)
		Expect(err).NotTo(HaveOccurred())
		mv.Set(0, 99)

		original, err := v.Values(s)
		Expect(err).NotTo(HaveOccurred())
		Expect(original.Get(0)).To(Equal(float64(1))) // unaffected by the clone's write
	})

	It("reports last_access_mutated_view only when MutableValues actually copy-on-wrote", func() {
		s := cpuStream()
		v, err := view.FromCollection(view.F32, shape.Vector(4), []float64{1, 2, 3, 4})
		Expect(err).NotTo(HaveOccurred())
		defer v.Close()

		clone, err := v.SubView([]int64{0}, []int64{4}, false)
		Expect(err).NotTo(HaveOccurred())
		defer clone.Close()

		mv, err := clone.MutableValues(s) // two owners: must copy-on-write
		Expect(err).NotTo(HaveOccurred())
		mv.Set(0, 99)
		Expect(clone.LastAccessMutatedView()).To(BeTrue())

		mv2, err := clone.MutableValues(s) // now uniquely owned: no further copy
		Expect(err).NotTo(HaveOccurred())
		mv2.Set(0, 100)
		Expect(clone.LastAccessMutatedView()).To(BeFalse())
	})

	It("lets a reference view mutate in place without forcing a fresh copy on every write", func() {
		s := cpuStream()
		v, err := view.FromCollection(view.F32, shape.Vector(2), []float64{1, 2})
		Expect(err).NotTo(HaveOccurred())
		defer v.Close()

		ref, err := v.Reference(s)
		Expect(err).NotTo(HaveOccurred())
		defer ref.Close()

		mv, err := ref.MutableValues(s)
		Expect(err).NotTo(HaveOccurred())
		mv.Set(0, 42)

		seq, err := ref.Values(s)
		Expect(err).NotTo(HaveOccurred())
		Expect(seq.Get(0)).To(Equal(float64(42)))
	})

	It("tiles a source across a larger extent with no data copy (repeat fidelity)", func() {
		v, err := view.FromCollection(view.F32, shape.Vector(3), []float64{10, 20, 30})
		Expect(err).NotTo(HaveOccurred())
		defer v.Close()

		r, err := v.Repeating([]int64{7}, []int64{0})
		Expect(err).NotTo(HaveOccurred())
		defer r.Close()

		seq, err := r.Values(cpuStream())
		Expect(err).NotTo(HaveOccurred())
		Expect(seq.Len()).To(Equal(int64(7)))
		for i := int64(0); i < 7; i++ {
			Expect(seq.Get(i)).To(Equal(seq.Get(i % 3)))
		}
	})

	It("synthesizes pad_value outside the inner region and drops writes there (padding fidelity)", func() {
		s := cpuStream()
		v, err := view.FromCollection(view.F32, shape.Matrix(2, 2), []float64{1, 2, 3, 4})
		Expect(err).NotTo(HaveOccurred())
		defer v.Close()

		padded, err := v.Padded([]shape.Pad{{Before: 1, After: 1}}, -1)
		Expect(err).NotTo(HaveOccurred())
		defer padded.Close()

		seq, err := padded.Values(s)
		Expect(err).NotTo(HaveOccurred())
		Expect(seq.Get(0)).To(Equal(float64(-1))) // corner: inside the before-margin

		mv, err := padded.MutableValues(s)
		Expect(err).NotTo(HaveOccurred())
		mv.Set(0, 123) // write into padding: silently dropped

		seq2, err := padded.Values(s)
		Expect(err).NotTo(HaveOccurred())
		Expect(seq2.Get(0)).To(Equal(float64(-1)))
	})

	It("rejects ReadWrite through an external read-only buffer", func() {
		data := make([]byte, 4)
		v, err := view.FromExternalReadOnly(view.F32, shape.Vector(1), data)
		Expect(err).NotTo(HaveOccurred())
		defer v.Close()

		_, err = v.MutableValues(cpuStream())
		Expect(err).To(HaveOccurred())
	})

	It("sub-views address a contiguous window of the parent", func() {
		v, err := view.FromCollection(view.I32, shape.Vector(5), []float64{0, 1, 2, 3, 4})
		Expect(err).NotTo(HaveOccurred())
		defer v.Close()

		sub, err := v.SubView([]int64{2}, []int64{2}, false)
		Expect(err).NotTo(HaveOccurred())
		defer sub.Close()

		seq, err := sub.Values(cpuStream())
		Expect(err).NotTo(HaveOccurred())
		Expect(seq.Get(0)).To(Equal(float64(2)))
		Expect(seq.Get(1)).To(Equal(float64(3)))
	})

	It("rejects a negative align on Repeating rather than silently wrapping it", func() {
		v, err := view.FromCollection(view.F32, shape.Vector(4), []float64{1, 2, 3, 4})
		Expect(err).NotTo(HaveOccurred())
		defer v.Close()

		_, err = v.Repeating([]int64{4}, []int64{-1})
		Expect(err).To(HaveOccurred())
	})

	It("imports an externally column-major-laid-out buffer and reads it back in logical order", func() {
		s := cpuStream()
		// physical layout of logical [[1,2],[3,4]] in column-major order
		buf := []byte{1, 3, 2, 4}
		v, err := view.NewFromHostColumnMajor(view.U8, []int64{2, 2}, buf, true)
		Expect(err).NotTo(HaveOccurred())
		defer v.Close()
		Expect(v.Shape().Extents).To(Equal([]int64{2, 2}))

		seq, err := v.Values(s)
		Expect(err).NotTo(HaveOccurred())
		want := []float64{1, 2, 3, 4}
		for i, w := range want {
			Expect(seq.Get(int64(i))).To(Equal(w))
		}
	})

	It("pads with config's default pad_value when none is given explicitly", func() {
		s := cpuStream()
		v, err := view.FromCollection(view.F32, shape.Vector(2), []float64{1, 2})
		Expect(err).NotTo(HaveOccurred())
		defer v.Close()

		padded, err := v.PaddedDefault([]shape.Pad{{Before: 1, After: 0}})
		Expect(err).NotTo(HaveOccurred())
		defer padded.Close()

		seq, err := padded.Values(s)
		Expect(err).NotTo(HaveOccurred())
		Expect(seq.Get(0)).To(Equal(config.GCO.Get().PadValue))
	})

	It("transposes extents and strides", func() {
		v, err := view.FromCollection(view.U8, shape.Matrix(2, 3), []float64{1, 2, 3, 4, 5, 6})
		Expect(err).NotTo(HaveOccurred())
		defer v.Close()

		tr, err := v.Transposed()
		Expect(err).NotTo(HaveOccurred())
		defer tr.Close()

		Expect(tr.Shape().Extents).To(Equal([]int64{3, 2}))
	})
})
