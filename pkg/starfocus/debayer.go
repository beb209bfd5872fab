package starfocus

// DebayerRGGB performs bilinear interpolation on a raw RGGB Bayer-pattern
// plane and returns a luminance plane: (R + G + B) / 3 per pixel.
//
// RGGB layout (row-major, 0-indexed):
//
//	(even row, even col) = R
//	(even row, odd  col) = G  (Gr)
//	(odd  row, even col) = G  (Gb)
//	(odd  row, odd  col) = B
//
// Edge pixels use replicated neighbour lookups.
func DebayerRGGB[T Sample](src *Plane[T]) *Plane[float32] {
	if !src.valid() {
		return nil
	}
	width, height := src.Width, src.Height
	out := NewPlane[float32](width, height)

	px := func(x, y int) float64 {
		return float64(src.At(clampInt(x, 0, width-1), clampInt(y, 0, height-1)))
	}
	cross := func(x, y int) float64 {
		return (px(x-1, y) + px(x+1, y) + px(x, y-1) + px(x, y+1)) / 4
	}
	diagonal := func(x, y int) float64 {
		return (px(x-1, y-1) + px(x+1, y-1) + px(x-1, y+1) + px(x+1, y+1)) / 4
	}

	for y := 0; y < height; y++ {
		evenRow := y%2 == 0
		for x := 0; x < width; x++ {
			evenCol := x%2 == 0
			var r, g, b float64

			switch {
			case evenRow && evenCol:
				r, g, b = px(x, y), cross(x, y), diagonal(x, y)
			case evenRow:
				r = (px(x-1, y) + px(x+1, y)) / 2
				g = px(x, y)
				b = (px(x, y-1) + px(x, y+1)) / 2
			case evenCol:
				r = (px(x, y-1) + px(x, y+1)) / 2
				g = px(x, y)
				b = (px(x-1, y) + px(x+1, y)) / 2
			default:
				r, g, b = diagonal(x, y), cross(x, y), px(x, y)
			}

			out.Pix[y*width+x] = float32((r + g + b) / 3)
		}
	}
	return out
}

// Debayer converts any mosaic frame into a float32 luminance frame. It
// returns nil when frame holds no pixels.
func Debayer(frame Frame) Frame {
	var out *Plane[float32]
	switch f := frame.(type) {
	case *Plane[uint8]:
		out = DebayerRGGB(f)
	case *Plane[int16]:
		out = DebayerRGGB(f)
	case *Plane[uint16]:
		out = DebayerRGGB(f)
	case *Plane[int32]:
		out = DebayerRGGB(f)
	case *Plane[uint32]:
		out = DebayerRGGB(f)
	case *Plane[int64]:
		out = DebayerRGGB(f)
	case *Plane[float32]:
		out = DebayerRGGB(f)
	case *Plane[float64]:
		out = DebayerRGGB(f)
	}
	if out == nil {
		return nil
	}
	return out
}
