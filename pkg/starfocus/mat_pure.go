//go:build purego || js

package starfocus

import "math"

// Mat is a pure Go single-channel matrix holding either float32 or float64
// samples.
type Mat struct {
	data   []float32
	data64 []float64
	rows   int
	cols   int
}

func NewMatWithSize(rows, cols int) Mat {
	return Mat{data: make([]float32, rows*cols), rows: rows, cols: cols}
}

// NewWideMatWithSize allocates a float64 matrix.
func NewWideMatWithSize(rows, cols int) Mat {
	return Mat{data64: make([]float64, rows*cols), rows: rows, cols: cols}
}

func (m Mat) Rows() int  { return m.rows }
func (m Mat) Cols() int  { return m.cols }
func (m Mat) Wide() bool { return m.data64 != nil }
func (m Mat) Empty() bool {
	return (m.data == nil && m.data64 == nil) || m.rows == 0 || m.cols == 0
}

func (m *Mat) Close() {
	*m = Mat{}
}

func (m Mat) DataFloat32() []float32 { return m.data }
func (m Mat) DataFloat64() []float64 { return m.data64 }

func (m *Mat) ensureSize(rows, cols int, wide bool) {
	if m.rows == rows && m.cols == cols && m.Wide() == wide && !m.Empty() {
		return
	}
	if wide {
		*m = NewWideMatWithSize(rows, cols)
	} else {
		*m = NewMatWithSize(rows, cols)
	}
}

// weights returns the kernel coefficients as float64.
func (m Mat) weights() []float64 {
	n := m.rows * m.cols
	if m.Wide() {
		return m.data64[:n]
	}
	w := make([]float64, n)
	for i, v := range m.data[:n] {
		w[i] = float64(v)
	}
	return w
}

// reflectIndex mirrors idx into [0, size) without repeating the edge sample
// (OpenCV BORDER_REFLECT_101).
func reflectIndex(idx, size int) int {
	if size == 1 {
		return 0
	}
	if idx < 0 {
		idx = -idx
	}
	for idx >= size {
		idx = 2*size - 2 - idx
		if idx < 0 {
			idx = -idx
		}
	}
	return idx
}

func sepFilter2DReflect(src Mat, dst *Mat, kernelX, kernelY Mat) {
	kx, ky := kernelX.weights(), kernelY.weights()
	rows, cols := src.rows, src.cols
	if src.Wide() {
		out := sepFilter(src.data64, rows, cols, kx, ky)
		dst.ensureSize(rows, cols, true)
		copy(dst.data64, out)
		return
	}
	out := sepFilter(src.data, rows, cols, kx, ky)
	dst.ensureSize(rows, cols, false)
	copy(dst.data, out)
}

func sepFilter[F floatSample](src []F, rows, cols int, kx, ky []float64) []F {
	kxHalf := len(kx) / 2
	kyHalf := len(ky) / 2

	temp := make([]F, rows*cols)
	for r := 0; r < rows; r++ {
		rowOff := r * cols
		for c := 0; c < cols; c++ {
			var sum F
			for k, w := range kx {
				sum += src[rowOff+reflectIndex(c+k-kxHalf, cols)] * F(w)
			}
			temp[rowOff+c] = sum
		}
	}

	out := make([]F, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			var sum F
			for k, w := range ky {
				sum += temp[reflectIndex(r+k-kyHalf, rows)*cols+c] * F(w)
			}
			out[r*cols+c] = sum
		}
	}
	return out
}

func getGaussianKernel1D(size int, sigma float64, wide bool) Mat {
	half := size / 2
	sum := 0.0
	weights := make([]float64, size)
	for i := range weights {
		x := float64(i - half)
		weights[i] = math.Exp(-x * x / (2 * sigma * sigma))
		sum += weights[i]
	}
	if wide {
		m := NewWideMatWithSize(size, 1)
		for i, w := range weights {
			m.data64[i] = w / sum
		}
		return m
	}
	m := NewMatWithSize(size, 1)
	for i, w := range weights {
		m.data[i] = float32(w / sum)
	}
	return m
}

func medianBlur(src Mat, dst *Mat, ksize int) {
	rows, cols := src.rows, src.cols
	if src.Wide() {
		out := medianFilter(src.data64, rows, cols, ksize)
		dst.ensureSize(rows, cols, true)
		copy(dst.data64, out)
		return
	}
	out := medianFilter(src.data, rows, cols, ksize)
	dst.ensureSize(rows, cols, false)
	copy(dst.data, out)
}
