package starfocus

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func ringField(size int, cx, cy, radius float64) GradientField {
	return fieldFrom(size, size, func(x, y int) float32 {
		if math.Abs(math.Hypot(float64(x)-cx, float64(y)-cy)-radius) < 1 {
			return 1
		}
		return 0
	})
}

func TestEstimateDiameterRing(t *testing.T) {
	g := ringField(21, 10.5, 10.5, 4)
	test.That(t, EstimateDiameter(g, 10.5, 10.5, DefaultParams()), test.ShouldEqual, 8)
}

func TestEstimateDiameterFullField(t *testing.T) {
	g := fieldFrom(21, 21, func(x, y int) float32 { return 1 })
	test.That(t, EstimateDiameter(g, 10.5, 10.5, DefaultParams()), test.ShouldEqual, 20)
}

func TestEstimateDiameterHitThreshold(t *testing.T) {
	g := ringField(21, 10.5, 10.5, 4)
	p := DefaultParams()
	p.MinRayHits = 36
	// only 34 of 36 rays land on the ring at r=4
	test.That(t, EstimateDiameter(g, 10.5, 10.5, p), test.ShouldEqual, NotFound)
}

func TestEstimateDiameterNotFound(t *testing.T) {
	p := DefaultParams()
	test.That(t, EstimateDiameter(fieldFrom(21, 21, func(x, y int) float32 { return 0 }), 10.5, 10.5, p), test.ShouldEqual, NotFound)
	test.That(t, EstimateDiameter(GradientField{}, 0, 0, p), test.ShouldEqual, NotFound)

	// rays leave a 5x5 field at every radius above the minimum scan radius
	single := fieldFrom(5, 5, func(x, y int) float32 {
		if x == 2 && y == 2 {
			return 1
		}
		return 0
	})
	test.That(t, EstimateDiameter(single, 2.5, 2.5, p), test.ShouldEqual, NotFound)
}

func TestHalfFluxRadiusUniform(t *testing.T) {
	line := make([]uint16, 21)
	for i := range line {
		line[i] = 100
	}
	sub, err := PlaneFrom(line, 21, 1)
	test.That(t, err, test.ShouldBeNil)

	hf := HalfFluxRadius(sub, 10.5, 0.5, 10, 0.05)
	test.That(t, hf.Flux, test.ShouldAlmostEqual, 1005, 1e-6)
	test.That(t, hf.Half, test.ShouldAlmostEqual, 502.5, 1e-6)
	test.That(t, hf.Radius, test.ShouldAlmostEqual, 2.525, 1e-6)
}

func TestHalfFluxRadiusNegativeRow(t *testing.T) {
	line := make([]int16, 21)
	for i := range line {
		line[i] = -100
	}
	sub, err := PlaneFrom(line, 21, 1)
	test.That(t, err, test.ShouldBeNil)

	// the running total falls below half flux at the first step
	hf := HalfFluxRadius(sub, 10.5, 0.5, 10, 0.05)
	test.That(t, hf.Flux, test.ShouldAlmostEqual, -1005, 1e-6)
	test.That(t, hf.Half, test.ShouldAlmostEqual, -502.5, 1e-6)
	test.That(t, hf.Radius, test.ShouldAlmostEqual, 4.975, 1e-6)
}

func TestHalfFluxRadiusPeakedIsSmaller(t *testing.T) {
	flat := gaussianPlane(41, 20, 20, 4, 1000)
	sharp := gaussianPlane(41, 20, 20, 1.5, 1000)

	wide := HalfFluxRadius(flat, 20.5, 20.5, 20, 0.05)
	narrow := HalfFluxRadius(sharp, 20.5, 20.5, 20, 0.05)
	test.That(t, narrow.Radius, test.ShouldBeLessThan, wide.Radius)
	test.That(t, narrow.Radius, test.ShouldBeGreaterThan, 0)
}

func TestHalfFluxRadiusDefaults(t *testing.T) {
	dark := NewPlane[float32](16, 16)
	hf := HalfFluxRadius(dark, 8, 8, 6, 0.05)
	test.That(t, hf.Radius, test.ShouldEqual, 1.0)
	test.That(t, hf.Flux, test.ShouldEqual, 0.0)

	test.That(t, HalfFluxRadius[uint16](nil, 8, 8, 6, 0.05).Radius, test.ShouldEqual, 1.0)
	test.That(t, HalfFluxRadius(dark, 8, 8, 0, 0.05).Radius, test.ShouldEqual, 1.0)
}

func TestHalfFluxRadiusClampsColumns(t *testing.T) {
	// window runs past both edges of a 4 pixel row
	sub, err := PlaneFrom([]float64{1, 1, 1, 1}, 4, 1)
	test.That(t, err, test.ShouldBeNil)
	hf := HalfFluxRadius(sub, 2, 0, 10, 0.5)
	test.That(t, hf.Flux, test.ShouldAlmostEqual, 10.5, 1e-9)
	test.That(t, math.IsNaN(hf.Radius), test.ShouldBeFalse)
}
