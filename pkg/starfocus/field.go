package starfocus

import (
	"context"
	"image"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
)

const (
	fieldEdgeFraction    = 0.25
	minStarsPerZone      = 3
	minTotalStarsForTilt = 20
)

var zoneLabels = map[ZonePosition]string{
	ZoneTopLeft:     "TL",
	ZoneTop:         "T",
	ZoneTopRight:    "TR",
	ZoneLeft:        "L",
	ZoneCenter:      "Center",
	ZoneRight:       "R",
	ZoneBottomLeft:  "BL",
	ZoneBottom:      "B",
	ZoneBottomRight: "BR",
}

var cornerPositions = []ZonePosition{ZoneTopLeft, ZoneTopRight, ZoneBottomLeft, ZoneBottomRight}

// TileResult is the detection outcome for one tile of a frame.
type TileResult struct {
	Rect image.Rectangle
	*Result
}

// TileRects splits a width x height frame into an n x n grid. The last row and
// column absorb the remainder.
func TileRects(width, height, n int) []image.Rectangle {
	if n < 1 || width < n || height < n {
		return nil
	}
	tw, th := width/n, height/n
	rects := make([]image.Rectangle, 0, n*n)
	for row := 0; row < n; row++ {
		y0, y1 := row*th, (row+1)*th
		if row == n-1 {
			y1 = height
		}
		for col := 0; col < n; col++ {
			x0, x1 := col*tw, (col+1)*tw
			if col == n-1 {
				x1 = width
			}
			rects = append(rects, image.Rect(x0, y0, x1, y1))
		}
	}
	return rects
}

// DetectTiles runs one independent detection per tile of an n x n grid, at
// most workers at a time. Results are returned in row-major tile order.
func DetectTiles(ctx context.Context, d *Detector, frame Frame, n, workers int) ([]TileResult, error) {
	if frame == nil {
		return nil, ErrNoInput
	}
	bounds := frame.Bounds()
	rects := TileRects(bounds.Dx(), bounds.Dy(), n)
	results := make([]TileResult, len(rects))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, rect := range rects {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := d.FindSources(frame, rect)
			if err != nil {
				return err
			}
			results[i] = TileResult{Rect: rect, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// TileStars collects the stars found across tiles.
func TileStars(tiles []TileResult) []Star {
	var stars []Star
	for _, t := range tiles {
		if t.Result != nil {
			stars = append(stars, t.Stars...)
		}
	}
	return stars
}

// AnalyzeField divides the image into a 3x3 grid and computes per-zone
// HFR and diameter statistics, tilt metrics, and best/worst corners.
func AnalyzeField(stars []Star, width, height int) *FieldAnalysis {
	if len(stars) == 0 {
		return nil
	}

	xLo := float64(width) * fieldEdgeFraction
	xHi := float64(width) * (1.0 - fieldEdgeFraction)
	yLo := float64(height) * fieldEdgeFraction
	yHi := float64(height) * (1.0 - fieldEdgeFraction)

	zoneStars := make(map[ZonePosition][]Star)
	for _, s := range stars {
		pos := classifyZone(s.X, s.Y, xLo, xHi, yLo, yHi)
		zoneStars[pos] = append(zoneStars[pos], s)
	}

	zones := make(map[ZonePosition]ZoneData, len(zoneLabels))
	for pos := range zoneLabels {
		zones[pos] = computeZoneData(pos, zoneStars[pos])
	}

	result := &FieldAnalysis{
		Zones: zones,
	}

	centerHFR := zones[ZoneCenter].MedianHFR
	if centerHFR <= 0 {
		return result
	}

	// Tilt: compare corners to center
	var bestCorner, worstCorner ZonePosition
	bestHFR := math.MaxFloat64
	worstHFR := 0.0
	validCorners := 0

	for _, pos := range cornerPositions {
		z := zones[pos]
		if z.StarCount < minStarsPerZone {
			continue
		}
		validCorners++
		if z.MedianHFR < bestHFR {
			bestHFR = z.MedianHFR
			bestCorner = pos
		}
		if z.MedianHFR > worstHFR {
			worstHFR = z.MedianHFR
			worstCorner = pos
		}
	}

	if validCorners >= 2 && worstHFR > 0 {
		result.TiltPct = (worstHFR - bestHFR) / centerHFR * 100.0
		result.BestCorner = zoneLabels[bestCorner]
		result.WorstCorner = zoneLabels[worstCorner]
	}

	var offAxisSum float64
	offAxisCount := 0
	for pos, z := range zones {
		if pos == ZoneCenter || z.StarCount < minStarsPerZone {
			continue
		}
		offAxisSum += z.MedianHFR
		offAxisCount++
	}
	if offAxisCount > 0 {
		avgOffAxis := offAxisSum / float64(offAxisCount)
		result.OffAxisPct = (avgOffAxis - centerHFR) / centerHFR * 100.0
	}

	result.Reliable = len(stars) >= minTotalStarsForTilt && validCorners >= 4 && zones[ZoneCenter].StarCount >= minStarsPerZone

	return result
}

func classifyZone(x, y, xLo, xHi, yLo, yHi float64) ZonePosition {
	band := func(v, lo, hi float64) int {
		switch {
		case v < lo:
			return 0
		case v < hi:
			return 1
		default:
			return 2
		}
	}
	return ZonePosition(band(y, yLo, yHi)*3 + band(x, xLo, xHi))
}

func computeZoneData(pos ZonePosition, stars []Star) ZoneData {
	zd := ZoneData{
		Label:     zoneLabels[pos],
		StarCount: len(stars),
	}
	if len(stars) == 0 {
		return zd
	}

	hfrValues := make([]float64, len(stars))
	diameters := make([]float64, len(stars))
	for i, s := range stars {
		hfrValues[i] = s.HFR
		diameters[i] = float64(s.Diameter)
	}
	zd.MedianHFR = medianFloat64(hfrValues)
	zd.MedianDiameter = medianFloat64(diameters)
	return zd
}

func medianFloat64(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2.0
	}
	return sorted[n/2]
}
