package starfocus

import (
	"image"
	"math"
	"testing"

	"go.viam.com/test"
)

// diskPlane draws a flat disk of the given radius over a constant background.
func diskPlane[T Sample](width, height int, cx, cy, radius int, background, amplitude T) *Plane[T] {
	p := NewPlane[T](width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := background
			if (x-cx)*(x-cx)+(y-cy)*(y-cy) <= radius*radius {
				v += amplitude
			}
			p.Set(x, y, v)
		}
	}
	return p
}

// gaussianPlane renders a rounded circular Gaussian profile.
func gaussianPlane(size int, cx, cy, sigma, amplitude float64) *Plane[uint16] {
	p := NewPlane[uint16](size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			p.Set(x, y, uint16(math.Round(amplitude*math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma)))))
		}
	}
	return p
}

// uniformBlobGrid places twelve identical 5x5 blobs on a 96x96 frame, 4
// columns by 3 rows.
func uniformBlobGrid(amplitude uint16) *Plane[uint16] {
	p := NewPlane[uint16](96, 96)
	for row := 0; row < 3; row++ {
		for col := 0; col < 4; col++ {
			cx, cy := 12+24*col, 12+24*row
			for y := cy - 2; y <= cy+2; y++ {
				for x := cx - 2; x <= cx+2; x++ {
					p.Set(x, y, amplitude)
				}
			}
		}
	}
	return p
}

// blobGrid places twelve 5x5 blobs on a 96x96 frame, 4 columns by 3 rows,
// with amplitudes rising by 20 in row-major order. The last blob is scaled
// by lastGain.
func blobGrid(lastGain uint16) *Plane[uint16] {
	p := NewPlane[uint16](96, 96)
	idx := 0
	for row := 0; row < 3; row++ {
		for col := 0; col < 4; col++ {
			cx, cy := 12+24*col, 12+24*row
			amp := uint16(1000 + 20*idx)
			if idx == 11 {
				amp *= lastGain
			}
			for y := cy - 2; y <= cy+2; y++ {
				for x := cx - 2; x <= cx+2; x++ {
					p.Set(x, y, amp)
				}
			}
			idx++
		}
	}
	return p
}

func fieldFrom(width, height int, mag func(x, y int) float32) GradientField {
	g := GradientField{
		Magnitude: make([]float32, width*height),
		Direction: make([]EdgeDirection, width*height),
		Width:     width,
		Height:    height,
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g.Magnitude[x+y*width] = mag(x, y)
		}
	}
	return g
}

func mustDetect(t *testing.T, frame Frame, bounds image.Rectangle, p *Params) *Result {
	t.Helper()
	res, err := Detect(frame, bounds, p)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res, test.ShouldNotBeNil)
	return res
}
