package starfocus

import "slices"

// Filter transforms a working copy of the sub-region in place before
// gradients are computed.
type Filter interface {
	Name() string
	Apply(m *Mat)
}

// MedianFilter removes hot pixels and shot noise with a 3x3 median.
type MedianFilter struct{}

func (MedianFilter) Name() string { return "median" }

func (MedianFilter) Apply(m *Mat) {
	medianBlur(*m, m, 3)
}

// HighContrastFilter clips everything below the mean and stretches the
// remaining range back over the original [min, max]. Flat background becomes
// exactly flat, so it produces no gradient.
type HighContrastFilter struct{}

func (HighContrastFilter) Name() string { return "high_contrast" }

func (HighContrastFilter) Apply(m *Mat) {
	n := m.Rows() * m.Cols()
	if m.Wide() {
		stretchAboveMean(m.DataFloat64()[:n])
		return
	}
	stretchAboveMean(m.DataFloat32()[:n])
}

func stretchAboveMean[F floatSample](data []F) {
	stats := statisticsOf(data)
	low, high := stats.Mean, stats.Max
	if high <= low {
		return
	}
	scale := (stats.Max - stats.Min) / (high - low)
	for i, v := range data {
		clipped := max(float64(v), low)
		data[i] = F(stats.Min + (clipped-low)*scale)
	}
}

// GaussianFilter smooths with a separable Gaussian of the given odd size.
type GaussianFilter struct {
	KernelSize int
}

func (GaussianFilter) Name() string { return "gaussian" }

func (f GaussianFilter) Apply(m *Mat) {
	ConvolveGaussian(m, m, f.KernelSize)
}

// ConvolveGaussian applies a separated Gaussian convolution.
func ConvolveGaussian(src, dst *Mat, kernelSize int) {
	if kernelSize < 3 || kernelSize%2 == 0 {
		panic("kernelSize must be a positive odd number >= 3")
	}
	sigma := 0.159758 * float64(kernelSize)
	kernel := getGaussianKernel1D(kernelSize, sigma, src.Wide())
	defer kernel.Close()
	sepFilter2DReflect(*src, dst, kernel, kernel)
}

// floatSample is the working precision of the prefilter chain.
type floatSample interface {
	float32 | float64
}

// wideKind reports whether samples of kind k can carry more significant bits
// than a float32 mantissa holds.
func wideKind(k PixelKind) bool {
	switch k {
	case KindInt32, KindUint32, KindInt64, KindFloat64:
		return true
	}
	return false
}

// matFromSamples copies a plane into a working matrix: float64 for wide
// kinds, float32 otherwise.
func matFromSamples[T Sample](p *Plane[T]) Mat {
	n := p.Width * p.Height
	if wideKind(p.Kind()) {
		m := NewWideMatWithSize(p.Height, p.Width)
		dst := m.DataFloat64()
		for i, v := range p.Pix[:n] {
			dst[i] = float64(v)
		}
		return m
	}
	m := NewMatWithSize(p.Height, p.Width)
	dst := m.DataFloat32()
	for i, v := range p.Pix[:n] {
		dst[i] = float32(v)
	}
	return m
}

// medianFilter returns the ksize x ksize median of src, replicating border
// samples.
func medianFilter[F floatSample](src []F, rows, cols, ksize int) []F {
	out := make([]F, rows*cols)
	half := ksize / 2
	window := make([]F, 0, ksize*ksize)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			window = window[:0]
			for dr := -half; dr <= half; dr++ {
				rr := clampInt(r+dr, 0, rows-1)
				for dc := -half; dc <= half; dc++ {
					window = append(window, src[rr*cols+clampInt(c+dc, 0, cols-1)])
				}
			}
			slices.Sort(window)
			out[r*cols+c] = window[len(window)/2]
		}
	}
	return out
}

// filteredGradients runs the filter chain on a copy of sub and returns the
// gradients of the result. sub itself is left untouched.
func filteredGradients[T Sample](sub *Plane[T], filters []Filter) GradientField {
	if len(filters) == 0 {
		return Sobel(sub.Pix, sub.Width, sub.Height)
	}
	work := matFromSamples(sub)
	defer work.Close()
	for _, f := range filters {
		f.Apply(&work)
	}
	if work.Wide() {
		return Sobel(work.DataFloat64(), work.Cols(), work.Rows())
	}
	return Sobel(work.DataFloat32(), work.Cols(), work.Rows())
}
