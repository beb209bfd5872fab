package starfocus

import "image"

// RegionMap labels every pixel of a gradient field: 0 is background, 1..Count
// are connected regions numbered in row-major seed order.
type RegionMap struct {
	Labels []int32
	Count  int
	Width  int
	Height int
}

func (m RegionMap) At(x, y int) int32 {
	return m.Labels[x+y*m.Width]
}

// neighbourOffsets lists (i, j) in {-1,0,1}² with i != j. The two diagonals
// where i == j, (-1,-1) and (1,1), are not neighbours. The set is closed under
// negation so membership does not depend on traversal order.
var neighbourOffsets = [...]image.Point{
	{X: 0, Y: -1}, {X: 1, Y: -1},
	{X: -1, Y: 0}, {X: 1, Y: 0},
	{X: -1, Y: 1}, {X: 0, Y: 1},
}

// Partition groups pixels with a positive gradient magnitude into connected
// regions. Seeds are taken from the interior only (the outermost ring is never
// a seed) but regions may grow onto it.
func Partition(g GradientField) RegionMap {
	m := RegionMap{Width: g.Width, Height: g.Height}
	if g.Empty() {
		return m
	}
	m.Labels = make([]int32, g.Width*g.Height)

	var stack []image.Point
	for y := 1; y < g.Height-1; y++ {
		for x := 1; x < g.Width-1; x++ {
			index := x + y*g.Width
			if g.Magnitude[index] <= 0 || m.Labels[index] != 0 {
				continue
			}
			m.Count++
			stack = m.flood(g, int32(m.Count), image.Pt(x, y), stack[:0])
		}
	}
	return m
}

// flood labels the region containing seed with an explicit work stack; the
// stack is returned for reuse.
func (m *RegionMap) flood(g GradientField, label int32, seed image.Point, stack []image.Point) []image.Point {
	m.Labels[seed.X+seed.Y*m.Width] = label
	stack = append(stack, seed)

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, o := range neighbourOffsets {
			nx, ny := p.X+o.X, p.Y+o.Y
			if nx < 0 || ny < 0 || nx >= m.Width || ny >= m.Height {
				continue
			}
			index := nx + ny*m.Width
			if m.Labels[index] != 0 || g.Magnitude[index] <= 0 {
				continue
			}
			m.Labels[index] = label
			stack = append(stack, image.Pt(nx, ny))
		}
	}
	return stack
}
