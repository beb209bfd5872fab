package starfocus

import (
	"errors"
	"fmt"
	"image"

	"github.com/rs/zerolog"
)

// Detector finds the single dominant star in a sub-region using gradient
// regions. A Detector holds no per-call state and may be shared between
// goroutines.
type Detector struct {
	Params  *Params
	Filters []Filter
	Logger  zerolog.Logger
}

// NewDetector creates a detector with the prefilter chain derived from p. A
// nil p selects DefaultParams.
func NewDetector(p *Params, logger zerolog.Logger) (*Detector, error) {
	if p == nil {
		p = DefaultParams()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Detector{Params: p, Filters: p.Filters(), Logger: logger}, nil
}

// Detect runs a detector built from p over bounds of frame.
func Detect(frame Frame, bounds image.Rectangle, p *Params) (*Result, error) {
	d, err := NewDetector(p, zerolog.Nop())
	if err != nil {
		return nil, err
	}
	return d.FindSources(frame, bounds)
}

// FindSources looks for one star inside bounds. An empty bounds means the
// whole frame. A rejected region yields zero stars and a nil error; Reason
// records the rejection. Only invalid parameters produce an error.
func (d *Detector) FindSources(frame Frame, bounds image.Rectangle) (*Result, error) {
	if d.Params == nil {
		return nil, errors.New("starfocus: detector has no params")
	}
	if err := d.Params.Validate(); err != nil {
		return nil, fmt.Errorf("detector params: %w", err)
	}

	var res *Result
	switch f := frame.(type) {
	case *Plane[uint8]:
		res = detect(d, f, bounds)
	case *Plane[int16]:
		res = detect(d, f, bounds)
	case *Plane[uint16]:
		res = detect(d, f, bounds)
	case *Plane[int32]:
		res = detect(d, f, bounds)
	case *Plane[uint32]:
		res = detect(d, f, bounds)
	case *Plane[int64]:
		res = detect(d, f, bounds)
	case *Plane[float32]:
		res = detect(d, f, bounds)
	case *Plane[float64]:
		res = detect(d, f, bounds)
	default:
		res = &Result{Reason: RejectNoInput}
	}

	event := d.Logger.Debug().
		Stringer("reason", res.Reason).
		Int("regions", res.Metrics.Regions).
		Float64("mass_ratio", res.Metrics.MassRatio)
	if res.Found() {
		s := res.Stars[0]
		event = event.
			Float64("x", s.X).
			Float64("y", s.Y).
			Int("width", s.Diameter).
			Float64("flux", res.Metrics.Flux).
			Float64("half_flux", res.Metrics.HalfFlux).
			Float64("hfr", s.HFR)
	}
	event.Msg("gradient detection")
	return res, nil
}

// detectionROI clamps the requested origin to non-negative offsets, keeps the
// requested size and clips the result to the frame.
func detectionROI(bounds, full image.Rectangle) image.Rectangle {
	if bounds.Empty() {
		return full
	}
	x0 := max(0, bounds.Min.X)
	y0 := max(0, bounds.Min.Y)
	return image.Rect(x0, y0, x0+bounds.Dx(), y0+bounds.Dy()).Intersect(full)
}

func detect[T Sample](d *Detector, src *Plane[T], bounds image.Rectangle) *Result {
	res := &Result{}
	if !src.valid() {
		res.Reason = RejectNoInput
		return res
	}

	roi := detectionROI(bounds, src.Bounds())
	res.Metrics.DetectionROI = roi
	sub := src.Crop(roi)
	if sub == nil {
		res.Reason = RejectNoInput
		return res
	}

	gradients := filteredGradients(sub, d.Filters)
	regions := Partition(gradients)
	res.Metrics.Regions = regions.Count
	if regions.Count == 0 {
		res.Reason = RejectNoRegions
		return res
	}

	dominant := SelectDominant(AccumulateMasses(gradients, regions), regions.Count)
	res.Metrics.DominantLabel = dominant.Label
	res.Metrics.DominantMass = dominant.Mass
	res.Metrics.MassRatio = dominant.Ratio
	if d.Params.IsNoise(dominant, regions.Count) {
		res.Reason = RejectNoise
		return res
	}

	cx, cy, ok := dominant.Centroid()
	if !ok {
		res.Reason = RejectDegenerateMass
		return res
	}

	diameter := EstimateDiameter(gradients, cx, cy, d.Params)
	if diameter == NotFound {
		res.Reason = RejectRadiusNotFound
		return res
	}

	hf := HalfFluxRadius(sub, cx, cy, diameter, d.Params.HFRStep)
	res.Metrics.Flux = hf.Flux
	res.Metrics.HalfFlux = hf.Half

	star := Star{X: cx, Y: cy, Diameter: diameter, HFR: hf.Radius}
	res.Stars = []Star{star.AddOffset(roi.Min.X, roi.Min.Y)}
	res.Reason = Accepted
	return res
}
