//go:build !purego && !js

package starfocus

import (
	"fmt"

	"gocv.io/x/gocv"
)

// loadRaster reads through OpenCV so 16-bit TIFF and PNG keep their depth.
func loadRaster(path string) (Frame, error) {
	src := gocv.IMRead(path, gocv.IMReadAnyDepth|gocv.IMReadGrayScale)
	if src.Empty() {
		return nil, fmt.Errorf("could not load image: %s", path)
	}
	defer src.Close()

	w, h := src.Cols(), src.Rows()
	switch src.Type() {
	case gocv.MatTypeCV16UC1:
		data, err := src.DataPtrUint16()
		if err != nil {
			return nil, fmt.Errorf("reading 16-bit pixels: %w", err)
		}
		p := NewPlane[uint16](w, h)
		copy(p.Pix, data)
		return p, nil
	case gocv.MatTypeCV8UC1:
		p := NewPlane[uint8](w, h)
		copy(p.Pix, src.ToBytes())
		return p, nil
	default:
		converted := gocv.NewMat()
		defer converted.Close()
		src.ConvertTo(&converted, gocv.MatTypeCV32F)
		data, err := converted.DataPtrFloat32()
		if err != nil {
			return nil, fmt.Errorf("reading pixels: %w", err)
		}
		p := NewPlane[float32](w, h)
		copy(p.Pix, data)
		return p, nil
	}
}
