package starfocus

import (
	"testing"

	"go.viam.com/test"
)

func TestMedianFilterRemovesHotPixel(t *testing.T) {
	p := NewPlane[uint16](7, 7)
	for i := range p.Pix {
		p.Pix[i] = 100
	}
	p.Set(3, 3, 60000)

	m := matFromSamples(p)
	defer m.Close()
	MedianFilter{}.Apply(&m)

	for _, v := range m.DataFloat32()[:49] {
		test.That(t, v, test.ShouldEqual, float32(100))
	}
}

func TestHighContrastFilterFlattensBackground(t *testing.T) {
	p, err := PlaneFrom([]float32{10, 10, 10, 12, 10, 10, 10, 50}, 4, 2)
	test.That(t, err, test.ShouldBeNil)

	m := matFromSamples(p)
	defer m.Close()
	HighContrastFilter{}.Apply(&m)

	out := m.DataFloat32()[:8]
	// mean is 15.25: every sample below it collapses onto the minimum
	for i := 0; i < 7; i++ {
		test.That(t, out[i], test.ShouldEqual, float32(10))
	}
	test.That(t, out[7], test.ShouldAlmostEqual, 50, 1e-4)
}

func TestHighContrastFilterConstant(t *testing.T) {
	p, err := PlaneFrom([]float32{3, 3, 3, 3}, 2, 2)
	test.That(t, err, test.ShouldBeNil)
	m := matFromSamples(p)
	defer m.Close()
	HighContrastFilter{}.Apply(&m)
	test.That(t, m.DataFloat32()[:4], test.ShouldResemble, []float32{3, 3, 3, 3})
}

func TestGaussianFilterPreservesFlat(t *testing.T) {
	p := NewPlane[float32](9, 9)
	for i := range p.Pix {
		p.Pix[i] = 7
	}
	m := matFromSamples(p)
	defer m.Close()
	GaussianFilter{KernelSize: 5}.Apply(&m)
	for _, v := range m.DataFloat32()[:81] {
		test.That(t, v, test.ShouldAlmostEqual, 7, 1e-4)
	}
}

func TestFilteredGradientsLeavesInputUntouched(t *testing.T) {
	p := diskPlane[uint16](32, 32, 16, 16, 5, 100, 1000)
	before := append([]uint16(nil), p.Pix...)

	g := filteredGradients(p, DefaultParams().Filters())
	test.That(t, g.Width, test.ShouldEqual, 32)
	test.That(t, g.Height, test.ShouldEqual, 32)
	test.That(t, p.Pix, test.ShouldResemble, before)

	// the clipped background carries no gradient
	test.That(t, g.At(2, 2), test.ShouldEqual, float32(0))
	test.That(t, g.At(16, 12), test.ShouldBeGreaterThan, float32(0))
}

func TestMatFromSamplesPrecision(t *testing.T) {
	narrow := matFromSamples(NewPlane[uint16](4, 4))
	defer narrow.Close()
	test.That(t, narrow.Wide(), test.ShouldBeFalse)

	p := NewPlane[uint32](4, 4)
	for i := range p.Pix {
		p.Pix[i] = 1 << 31
	}
	p.Set(1, 1, 1<<31+3)
	wide := matFromSamples(p)
	defer wide.Close()
	test.That(t, wide.Wide(), test.ShouldBeTrue)
	test.That(t, wide.DataFloat64()[5]-wide.DataFloat64()[0], test.ShouldEqual, 3.0)
}

func TestWideFilterChainKeepsSmallSteps(t *testing.T) {
	p := diskPlane[float64](32, 32, 16, 16, 5, 1e9, 10)
	g := filteredGradients(p, DefaultParams().Filters())
	test.That(t, g.At(2, 2), test.ShouldEqual, float32(0))
	test.That(t, g.At(16, 12), test.ShouldBeGreaterThan, float32(0))

	m := matFromSamples(p)
	defer m.Close()
	GaussianFilter{KernelSize: 5}.Apply(&m)
	test.That(t, m.Wide(), test.ShouldBeTrue)
	test.That(t, m.DataFloat64()[0], test.ShouldAlmostEqual, 1e9, 1e-3)
}
