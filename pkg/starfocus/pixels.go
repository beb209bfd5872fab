package starfocus

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrNoInput is returned when a pixel buffer is absent or shorter than its
// declared dimensions.
var ErrNoInput = errors.New("starfocus: no pixel data")

// PixelKind identifies the numeric encoding of one sample.
type PixelKind int

const (
	KindUint8 PixelKind = iota
	KindInt16
	KindUint16
	KindInt32
	KindUint32
	KindInt64
	KindFloat32
	KindFloat64
)

func (k PixelKind) String() string {
	switch k {
	case KindUint8:
		return "uint8"
	case KindInt16:
		return "int16"
	case KindUint16:
		return "uint16"
	case KindInt32:
		return "int32"
	case KindUint32:
		return "uint32"
	case KindInt64:
		return "int64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	default:
		return "unknown"
	}
}

// BytesPerSample returns the storage size of one sample, or 0 for an unknown kind.
func (k PixelKind) BytesPerSample() int {
	switch k {
	case KindUint8:
		return 1
	case KindInt16, KindUint16:
		return 2
	case KindInt32, KindUint32, KindFloat32:
		return 4
	case KindInt64, KindFloat64:
		return 8
	default:
		return 0
	}
}

// Sample is the set of supported sample types.
type Sample interface {
	uint8 | int16 | uint16 | int32 | uint32 | int64 | float32 | float64
}

// Frame is a grayscale pixel buffer of one of the supported kinds. The only
// implementations are the *Plane[T] instantiations.
type Frame interface {
	Kind() PixelKind
	Bounds() image.Rectangle
	Statistics() Statistics
	// Gray16 renders r linearly stretched between the region's min and max.
	Gray16(r image.Rectangle) *image.Gray16

	sealed()
}

// Statistics summarises the samples of a buffer.
type Statistics struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

func (s Statistics) String() string {
	return fmt.Sprintf("{Min=%f, Max=%f, Mean=%f, StdDev=%f}", s.Min, s.Max, s.Mean, s.StdDev)
}

// Plane is a row-major grayscale buffer indexed by x + y*Width.
type Plane[T Sample] struct {
	Pix    []T
	Width  int
	Height int
}

// NewPlane allocates a zeroed plane.
func NewPlane[T Sample](width, height int) *Plane[T] {
	return &Plane[T]{Pix: make([]T, width*height), Width: width, Height: height}
}

// PlaneFrom wraps pix without copying.
func PlaneFrom[T Sample](pix []T, width, height int) (*Plane[T], error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid plane dimensions %dx%d", width, height)
	}
	if len(pix) < width*height {
		return nil, fmt.Errorf("%w: have %d samples, need %d", ErrNoInput, len(pix), width*height)
	}
	return &Plane[T]{Pix: pix, Width: width, Height: height}, nil
}

func (p *Plane[T]) sealed() {}

func (p *Plane[T]) Kind() PixelKind {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return KindUint8
	case int16:
		return KindInt16
	case uint16:
		return KindUint16
	case int32:
		return KindInt32
	case uint32:
		return KindUint32
	case int64:
		return KindInt64
	case float32:
		return KindFloat32
	default:
		return KindFloat64
	}
}

func (p *Plane[T]) Bounds() image.Rectangle {
	if p == nil {
		return image.Rectangle{}
	}
	return image.Rect(0, 0, p.Width, p.Height)
}

// valid reports whether the plane holds at least Width*Height samples.
func (p *Plane[T]) valid() bool {
	return p != nil && p.Width > 0 && p.Height > 0 && len(p.Pix) >= p.Width*p.Height
}

func (p *Plane[T]) At(x, y int) T {
	return p.Pix[x+y*p.Width]
}

func (p *Plane[T]) Set(x, y int, v T) {
	p.Pix[x+y*p.Width] = v
}

// Crop copies the part of r inside the plane into a new plane, one row at a
// time. It returns nil when the intersection is empty.
func (p *Plane[T]) Crop(r image.Rectangle) *Plane[T] {
	if !p.valid() {
		return nil
	}
	r = r.Intersect(p.Bounds())
	if r.Empty() {
		return nil
	}
	out := NewPlane[T](r.Dx(), r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		src := p.Pix[y*p.Width+r.Min.X : y*p.Width+r.Max.X]
		copy(out.Pix[(y-r.Min.Y)*out.Width:], src)
	}
	return out
}

func (p *Plane[T]) Statistics() Statistics {
	if !p.valid() {
		return Statistics{}
	}
	return statisticsOf(p.Pix[:p.Width*p.Height])
}

func (p *Plane[T]) Gray16(r image.Rectangle) *image.Gray16 {
	sub := p.Crop(r)
	if sub == nil {
		return image.NewGray16(image.Rectangle{})
	}
	stats := sub.Statistics()
	span := stats.Max - stats.Min
	out := image.NewGray16(image.Rect(0, 0, sub.Width, sub.Height))
	for i, v := range sub.Pix {
		level := 0.0
		if span > 0 {
			level = (float64(v) - stats.Min) / span
		}
		binary.BigEndian.PutUint16(out.Pix[2*i:], uint16(math.Round(level*math.MaxUint16)))
	}
	return out
}

func statisticsOf[T Sample](pix []T) Statistics {
	if len(pix) == 0 {
		return Statistics{}
	}
	values := make([]float64, len(pix))
	for i, v := range pix {
		values[i] = float64(v)
	}
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) < 2 {
		std = 0
	}
	return Statistics{
		Min:    floats.Min(values),
		Max:    floats.Max(values),
		Mean:   mean,
		StdDev: std,
	}
}

// FrameFromBytes decodes width*height samples of the given kind from data.
func FrameFromBytes(kind PixelKind, width, height int, data []byte, order binary.ByteOrder) (Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame dimensions %dx%d", width, height)
	}
	size := kind.BytesPerSample()
	if size == 0 {
		return nil, fmt.Errorf("unsupported pixel kind %d", int(kind))
	}
	if len(data) < width*height*size {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrNoInput, len(data), width*height*size)
	}

	switch kind {
	case KindUint8:
		return decodePlane(data, width, height, size, func(b []byte) uint8 { return b[0] }), nil
	case KindInt16:
		return decodePlane(data, width, height, size, func(b []byte) int16 { return int16(order.Uint16(b)) }), nil
	case KindUint16:
		return decodePlane(data, width, height, size, order.Uint16), nil
	case KindInt32:
		return decodePlane(data, width, height, size, func(b []byte) int32 { return int32(order.Uint32(b)) }), nil
	case KindUint32:
		return decodePlane(data, width, height, size, order.Uint32), nil
	case KindInt64:
		return decodePlane(data, width, height, size, func(b []byte) int64 { return int64(order.Uint64(b)) }), nil
	case KindFloat32:
		return decodePlane(data, width, height, size, func(b []byte) float32 { return math.Float32frombits(order.Uint32(b)) }), nil
	default:
		return decodePlane(data, width, height, size, func(b []byte) float64 { return math.Float64frombits(order.Uint64(b)) }), nil
	}
}

func decodePlane[T Sample](data []byte, width, height, size int, decode func([]byte) T) *Plane[T] {
	p := NewPlane[T](width, height)
	for i := range p.Pix {
		p.Pix[i] = decode(data[i*size:])
	}
	return p
}
