//go:build !purego && !js

package starfocus

import (
	"image"

	"gocv.io/x/gocv"
)

// Mat wraps a single-channel CV_32F or CV_64F gocv.Mat for the native OpenCV
// backend.
type Mat struct {
	m gocv.Mat
}

func NewMatWithSize(rows, cols int) Mat { return Mat{m: gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV32F)} }

// NewWideMatWithSize allocates a CV_64F matrix.
func NewWideMatWithSize(rows, cols int) Mat {
	return Mat{m: gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV64F)}
}

func (mat Mat) Rows() int   { return mat.m.Rows() }
func (mat Mat) Cols() int   { return mat.m.Cols() }
func (mat Mat) Empty() bool { return mat.m.Empty() }
func (mat Mat) Wide() bool  { return mat.m.Type() == gocv.MatTypeCV64F }
func (mat *Mat) Close()     { mat.m.Close() }

func (mat Mat) DataFloat32() []float32 {
	data, _ := mat.m.DataPtrFloat32()
	return data
}

func (mat Mat) DataFloat64() []float64 {
	data, _ := mat.m.DataPtrFloat64()
	return data
}

// medianBlur uses OpenCV for CV_32F. OpenCV has no small-kernel median for
// CV_64F, so wide matrices are filtered in Go.
func medianBlur(src Mat, dst *Mat, ksize int) {
	if !src.Wide() {
		gocv.MedianBlur(src.m, &dst.m, ksize)
		return
	}
	out := medianFilter(src.DataFloat64(), src.Rows(), src.Cols(), ksize)
	if dst.Empty() || !dst.Wide() || dst.Rows() != src.Rows() || dst.Cols() != src.Cols() {
		dst.m.Close()
		*dst = NewWideMatWithSize(src.Rows(), src.Cols())
	}
	copy(dst.DataFloat64(), out)
}

func sepFilter2DReflect(src Mat, dst *Mat, kernelX, kernelY Mat) {
	gocv.SepFilter2D(src.m, &dst.m, src.m.Type(), kernelX.m, kernelY.m, image.Pt(-1, -1), 0, gocv.BorderReflect)
}

func getGaussianKernel1D(size int, sigma float64, wide bool) Mat {
	k := gocv.GetGaussianKernel(size, sigma)
	defer k.Close()
	depth := gocv.MatTypeCV32F
	if wide {
		depth = gocv.MatTypeCV64F
	}
	out := gocv.NewMat()
	k.ConvertTo(&out, depth)
	return Mat{m: out}
}
