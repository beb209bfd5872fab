package starfocus

import (
	"fmt"
	"image"
	"math"
)

// RatioRect represents a rectangle defined by ratios in [0, 1).
type RatioRect struct {
	StartX float64
	StartY float64
	Width  float64
	Height float64
}

// RatioRectFull is a RatioRect covering the entire image.
var RatioRectFull = RatioRect{StartX: 0, StartY: 0, Width: 1, Height: 1}

// RatioRectFromCenterROI creates a RatioRect centered on the image with the given ROI ratio.
func RatioRectFromCenterROI(roi float64) RatioRect {
	roi = math.Max(0, math.Min(roi, 1))
	return RatioRect{
		StartX: (1.0 - roi) / 2.0,
		StartY: (1.0 - roi) / 2.0,
		Width:  roi,
		Height: roi,
	}
}

func (r RatioRect) IsFull() bool {
	return r.StartX <= 0 && r.StartY <= 0 && r.Width >= 1 && r.Height >= 1
}

// Rect converts the ratios into pixel coordinates of a width x height image.
func (r RatioRect) Rect(width, height int) image.Rectangle {
	x0 := int(math.Floor(float64(width) * r.StartX))
	y0 := int(math.Floor(float64(height) * r.StartY))
	return image.Rect(x0, y0, x0+int(float64(width)*r.Width), y0+int(float64(height)*r.Height))
}

// Star is a detected point source in full-image coordinates.
type Star struct {
	X        float64
	Y        float64
	Diameter int
	HFR      float64
}

func (s Star) String() string {
	return fmt.Sprintf("{X=%f, Y=%f, Diameter=%d, HFR=%f}", s.X, s.Y, s.Diameter, s.HFR)
}

// AddOffset returns a copy of the star translated by the given offset.
func (s Star) AddOffset(xOffset, yOffset int) Star {
	s.X += float64(xOffset)
	s.Y += float64(yOffset)
	return s
}

// Rejection says why a detection call produced no star.
type Rejection int

const (
	Accepted Rejection = iota
	RejectNoInput
	RejectNoRegions
	RejectNoise
	RejectDegenerateMass
	RejectRadiusNotFound
)

func (r Rejection) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case RejectNoInput:
		return "no input"
	case RejectNoRegions:
		return "no gradient regions"
	case RejectNoise:
		return "noise field"
	case RejectDegenerateMass:
		return "degenerate mass"
	case RejectRadiusNotFound:
		return "radius not found"
	default:
		return "unknown"
	}
}

// Metrics records the intermediate values of one detection call.
type Metrics struct {
	DetectionROI  image.Rectangle
	Regions       int
	DominantLabel int32
	DominantMass  float64
	MassRatio     float64
	Flux          float64
	HalfFlux      float64
}

// Result is the output of one detection call: zero or one star.
type Result struct {
	Stars   []Star
	Reason  Rejection
	Metrics Metrics
}

// Found reports whether a star was detected.
func (r *Result) Found() bool {
	return r != nil && len(r.Stars) > 0
}

// ZonePosition identifies a zone in the 3x3 field grid.
type ZonePosition int

const (
	ZoneTopLeft ZonePosition = iota
	ZoneTop
	ZoneTopRight
	ZoneLeft
	ZoneCenter
	ZoneRight
	ZoneBottomLeft
	ZoneBottom
	ZoneBottomRight
)

// ZoneData holds per-zone statistics.
type ZoneData struct {
	Label          string
	MedianHFR      float64
	MedianDiameter float64
	StarCount      int
}

// FieldAnalysis holds the result of 3x3 field tilt analysis.
type FieldAnalysis struct {
	Zones       map[ZonePosition]ZoneData
	TiltPct     float64
	OffAxisPct  float64
	BestCorner  string
	WorstCorner string
	Reliable    bool
}
