package shape

// Named, rank-fixed convenience constructors. Pure ergonomics over New: no
// new semantics, just the vocabulary §6 EXTERNAL INTERFACES names
// explicitly (scalar/vector/matrix/volume/NCHW/NHWC/NDn).

func Scalar() *Shape { return New() }

func Vector(n int64) *Shape { return New(n) }

func Matrix(rows, cols int64) *Shape { return New(rows, cols) }

func Volume(d0, d1, d2 int64) *Shape { return New(d0, d1, d2) }

// NCHW: batch, channel, height, width.
func NCHW(n, c, h, w int64) *Shape { return New(n, c, h, w) }

// NHWC: batch, height, width, channel.
func NHWC(n, h, w, c int64) *Shape { return New(n, h, w, c) }

// NDn is an arbitrary-rank shape, named for symmetry with NCHW/NHWC.
func NDn(extents ...int64) *Shape { return New(extents...) }

// Reinterpret reshapes a shape whose innermost extent is a count of
// fixed-size vector composites (RGB=3, RGBA=4, Stereo=2, ...) into the
// equivalent scalar-component shape by appending a component axis; it does
// not convert a component shape back into a composite one. This is a pure shape
// transform -- no data copy, no byte reinterpretation performed here; the
// caller's element-size bookkeeping (in storage/view) is what actually
// changes what the bytes mean.
func (s *Shape) Reinterpret(componentsPerElement int64) *Shape {
	out := s.Clone()
	n := out.Rank()
	out.Extents = append(out.Extents, componentsPerElement)
	out.Strides = append(out.Strides, 1)
	for i := 0; i < n; i++ {
		out.Strides[i] *= componentsPerElement
	}
	return out
}
