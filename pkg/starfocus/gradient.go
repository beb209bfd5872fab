package starfocus

import "math"

// EdgeDirection is the orientation class of a gradient.
//
//	Horizontal  Rising  Falling  Vertical
//	  x x x     x x /   \ x x    x | x
//	  - - -     x / x   x \ x    x | x
//	  x x x     / x x   x x \    x | x
type EdgeDirection uint8

const (
	EdgeHorizontal EdgeDirection = iota
	EdgeRising
	EdgeFalling
	EdgeVertical
)

// GradientField holds per-pixel Sobel magnitude and direction, indexed by
// x + y*Width.
type GradientField struct {
	Magnitude []float32
	Direction []EdgeDirection
	Width     int
	Height    int
}

// Empty reports whether the field carries no samples.
func (g GradientField) Empty() bool {
	return len(g.Magnitude) == 0
}

func (g GradientField) At(x, y int) float32 {
	return g.Magnitude[x+y*g.Width]
}

// Sobel computes the gradient field of a width x height buffer. Rows and
// columns beyond the border replicate the edge instead of wrapping. The
// magnitude is the L1 norm |gx| + |gy|. A nil or short buffer yields an empty
// field.
func Sobel[T Sample](pix []T, width, height int) GradientField {
	if width <= 0 || height <= 0 || len(pix) < width*height {
		return GradientField{}
	}

	n := width * height
	g := GradientField{
		Magnitude: make([]float32, n),
		Direction: make([]EdgeDirection, n),
		Width:     width,
		Height:    height,
	}

	for y := 0; y < height; y++ {
		line := pix[y*width : (y+1)*width]
		above, below := line, line
		if y > 0 {
			above = pix[(y-1)*width : y*width]
		}
		if y < height-1 {
			below = pix[(y+1)*width : (y+2)*width]
		}

		magLine := g.Magnitude[y*width : (y+1)*width]
		dirLine := g.Direction[y*width : (y+1)*width]

		for x := 0; x < width; x++ {
			xm, xp := x, x
			if x > 0 {
				xm = x - 1
			}
			if x < width-1 {
				xp = x + 1
			}

			gradX := float64(above[xp]) + 2*float64(line[xp]) + float64(below[xp]) -
				float64(above[xm]) - 2*float64(line[xm]) - float64(below[xm])
			gradY := float64(above[xm]) + 2*float64(above[x]) + float64(above[xp]) -
				float64(below[xm]) - 2*float64(below[x]) - float64(below[xp])

			magLine[x] = float32(math.Abs(gradX) + math.Abs(gradY))
			dirLine[x] = classifyDirection(gradX, gradY)
		}
	}
	return g
}

func classifyDirection(gradX, gradY float64) EdgeDirection {
	if gradX == 0 && gradY == 0 {
		return EdgeHorizontal
	}
	if gradX == 0 {
		return EdgeVertical
	}

	a := 180 * math.Atan(gradY/gradX) / math.Pi
	switch {
	case a >= -22.5 && a < 22.5:
		return EdgeHorizontal
	case a >= 22.5 && a < 67.5:
		return EdgeFalling
	case a >= -67.5 && a < -22.5:
		return EdgeRising
	default:
		return EdgeVertical
	}
}
