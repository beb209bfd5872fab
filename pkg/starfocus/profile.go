package starfocus

import "math"

// NotFound is the diameter reported when no radius passes the ray test.
const NotFound = -1

// EstimateDiameter casts p.RaySamples rays from (cx, cy) at decreasing radii
// and returns 2r for the first radius where at least p.MinRayHits rays land
// on a positive gradient. A ray leaving the field ends the test for that
// radius. NotFound is returned when no radius down to p.MinScanRadius passes.
func EstimateDiameter(g GradientField, cx, cy float64, p *Params) int {
	if g.Empty() || p.RaySamples <= 0 {
		return NotFound
	}

	maxR := min(g.Width-1, g.Height-1) / 2
	step := 2 * math.Pi / float64(p.RaySamples)

	for r := maxR; r >= p.MinScanRadius; r-- {
		hits := 0
		for k := 0; k < p.RaySamples; k++ {
			theta := float64(k) * step
			testX := int(cx + math.Cos(theta)*float64(r))
			testY := int(cy + math.Sin(theta)*float64(r))

			if testX < 0 || testX >= g.Width || testY < 0 || testY >= g.Height {
				break
			}
			if g.Magnitude[testX+testY*g.Width] > 0 {
				hits++
				if hits >= p.MinRayHits {
					return 2 * r
				}
			}
		}
	}
	return NotFound
}

// HalfFlux is the result of integrating a horizontal slice through a star.
type HalfFlux struct {
	Radius float64
	Flux   float64
	Half   float64
}

// HalfFluxRadius integrates the row nearest cy of sub between cx ± diameter/2
// in slices of step pixels, then grows a window symmetrically from the centre
// slice until it holds half the flux. The crossing is interpolated linearly
// between the last two steps. Radius stays 1 when the profile never reaches
// half flux or sums to zero. Negative rows are integrated like any other.
func HalfFluxRadius[T Sample](sub *Plane[T], cx, cy float64, diameter int, step float64) HalfFlux {
	result := HalfFlux{Radius: 1}
	if !sub.valid() || diameter <= 0 || step <= 0 {
		return result
	}

	row := clampInt(int(math.Round(cy)), 0, sub.Height-1)
	line := sub.Pix[row*sub.Width : (row+1)*sub.Width]

	numSteps := int(math.Round(float64(diameter) / step))
	leftEdge := cx - float64(diameter)/2.0

	slices := make([]float64, 0, numSteps+1)
	for k := 0; k <= numSteps; k++ {
		x := leftEdge + float64(k)*step
		col := clampInt(int(math.Floor(x)), 0, sub.Width-1)
		slice := step * float64(line[col])
		result.Flux += slice
		slices = append(slices, slice)
	}
	result.Half = result.Flux / 2.0
	if result.Flux == 0 {
		return result
	}

	center := numSteps / 2
	total := slices[center]
	lastTotal := total
	for k := 1; k < center; k++ {
		total += slices[center+k]
		total += slices[center-k]

		if total >= result.Half {
			frac := 0.0
			if total != lastTotal {
				frac = (result.Half - lastTotal) / (total - lastTotal)
			}
			result.Radius = (float64(k-1) + frac*2) * step
			break
		}
		lastTotal = total
	}
	return result
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
