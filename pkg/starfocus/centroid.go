package starfocus

import "math"

// NoDisplacementRatio is the mass ratio reported when the first region is
// never displaced as the heaviest one.
const NoDisplacementRatio = 1e6

// RegionMass accumulates the gradient mass of one region and its first
// moments.
type RegionMass struct {
	Mass    float64
	MomentX float64
	MomentY float64
}

// Centroid returns the mass-weighted centre shifted by half a pixel so that
// coordinates refer to pixel centres. ok is false for a massless region.
func (m RegionMass) Centroid() (x, y float64, ok bool) {
	if m.Mass <= 0 {
		return 0, 0, false
	}
	return m.MomentX/m.Mass + 0.5, m.MomentY/m.Mass + 0.5, true
}

// AccumulateMasses sums magnitude and magnitude-weighted coordinates per
// label. Labels are added to the map as they are met.
func AccumulateMasses(g GradientField, regions RegionMap) map[int32]RegionMass {
	masses := make(map[int32]RegionMass, regions.Count)
	for y := 0; y < regions.Height; y++ {
		for x := 0; x < regions.Width; x++ {
			index := x + y*regions.Width
			label := regions.Labels[index]
			if label <= 0 {
				continue
			}
			pixel := float64(g.Magnitude[index])
			m := masses[label]
			m.Mass += pixel
			m.MomentX += float64(x) * pixel
			m.MomentY += float64(y) * pixel
			masses[label] = m
		}
	}
	return masses
}

// Dominant is the heaviest region together with the ratio by which it last
// displaced the previous heaviest one.
type Dominant struct {
	Label int32
	RegionMass
	Ratio float64
}

// SelectDominant folds over labels 1..count in ascending order. A region at
// least as heavy as the running maximum displaces it, so equal masses move the
// maximum with a ratio of 1. Ratio keeps the candidate/previous-max ratio from
// the last displacement, or NoDisplacementRatio if label 1 was never
// displaced.
func SelectDominant(masses map[int32]RegionMass, count int) Dominant {
	best := Dominant{Label: 1, RegionMass: masses[1], Ratio: NoDisplacementRatio}
	for label := int32(2); label <= int32(count); label++ {
		candidate := masses[label]
		if candidate.Mass <= 0 || candidate.Mass < best.Mass {
			continue
		}
		ratio := math.Inf(1)
		if best.Mass > 0 {
			ratio = candidate.Mass / best.Mass
		}
		best = Dominant{Label: label, RegionMass: candidate, Ratio: ratio}
	}
	return best
}

// IsNoise reports whether a field with count regions and the given dominant
// region looks like fragmented noise rather than a star.
func (p *Params) IsNoise(d Dominant, count int) bool {
	return count > p.NoiseRegionCount && d.Ratio < p.NoiseMassRatio
}
