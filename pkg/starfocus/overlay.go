package starfocus

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const overlayWidth = 800

var (
	sharpColor   = colorful.Color{R: 0.15, G: 0.75, B: 0.25}
	blurredColor = colorful.Color{R: 0.95, G: 0.15, B: 0.1}
	emptyZone    = color.NRGBA{40, 40, 40, 255}
)

// SaveOverlay writes img to path; the format follows the file extension.
func SaveOverlay(img image.Image, path string) error {
	if err := imaging.Save(img, path, imaging.JPEGQuality(90)); err != nil {
		return fmt.Errorf("saving overlay: %w", err)
	}
	return nil
}

// EncodeOverlay encodes img as PNG.
func EncodeOverlay(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding overlay: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderDetection draws the detection sub-region with a ring at the detected
// diameter and a text label. The ring colour moves from green to red as the
// HFR grows. Sub-regions narrower than the overlay are enlarged.
func RenderDetection(frame Frame, res *Result) (*image.NRGBA, error) {
	if frame == nil || res == nil {
		return nil, ErrNoInput
	}
	roi := res.Metrics.DetectionROI
	if roi.Empty() {
		roi = frame.Bounds()
	}
	gray := frame.Gray16(roi)
	if gray.Bounds().Empty() {
		return nil, ErrNoInput
	}

	scale := float64(overlayWidth) / float64(roi.Dx())
	view := imaging.Resize(gray, overlayWidth, int(math.Round(float64(roi.Dy())*scale)), imaging.NearestNeighbor)

	const footer = 24
	img := imaging.New(view.Bounds().Dx(), view.Bounds().Dy()+footer, color.Black)
	img = imaging.Paste(img, view, image.Pt(0, 0))

	face := basicfont.Face7x13
	textColor := color.NRGBA{220, 220, 220, 255}
	label := fmt.Sprintf("no star (%s)", res.Reason)
	if res.Found() {
		s := res.Stars[0]
		cx := int((s.X - float64(roi.Min.X)) * scale)
		cy := int((s.Y - float64(roi.Min.Y)) * scale)
		ring := detectionColor(s.HFR)
		drawCircle(img, cx, cy, max(3, int(float64(s.Diameter)*scale/2)), ring)
		drawCircle(img, cx, cy, max(1, int(s.HFR*scale)), ring)
		label = fmt.Sprintf("x=%.2f y=%.2f d=%d HFR=%.2f", s.X, s.Y, s.Diameter, s.HFR)
	}
	drawText(img, face, label, 8, view.Bounds().Dy()+16, textColor)
	return img, nil
}

// detectionColor blends from green at HFR 1 to red at HFR 5.
func detectionColor(hfr float64) color.NRGBA {
	t := math.Max(0, math.Min((hfr-1)/4, 1))
	return toNRGBA(sharpColor.BlendHcl(blurredColor, t).Clamped())
}

// RenderFieldOverlay draws the 3x3 tilt analysis, one tinted cell per zone.
func RenderFieldOverlay(field *FieldAnalysis, width, height int) (*image.NRGBA, error) {
	if field == nil {
		return nil, fmt.Errorf("no field analysis data")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid field size %dx%d", width, height)
	}

	scale := float64(overlayWidth) / float64(width)
	imgW := overlayWidth
	imgH := max(100, int(float64(height)*scale))

	// Reserve space for summary text at bottom
	summaryH := 60
	img := imaging.New(imgW, imgH+summaryH, color.Black)

	xLo := int(float64(imgW) * fieldEdgeFraction)
	xHi := int(float64(imgW) * (1.0 - fieldEdgeFraction))
	yLo := int(float64(imgH) * fieldEdgeFraction)
	yHi := int(float64(imgH) * (1.0 - fieldEdgeFraction))

	xBounds := [3][2]int{{0, xLo}, {xLo, xHi}, {xHi, imgW}}
	yBounds := [3][2]int{{0, yLo}, {yLo, yHi}, {yHi, imgH}}

	centerHFR := field.Zones[ZoneCenter].MedianHFR
	if centerHFR <= 0 {
		centerHFR = 1
	}

	face := basicfont.Face7x13
	textColor := color.NRGBA{255, 255, 255, 255}
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			zone := field.Zones[ZonePosition(row*3+col)]
			cell := image.Rect(xBounds[col][0], yBounds[row][0], xBounds[col][1], yBounds[row][1])
			draw.Draw(img, cell, image.NewUniform(zoneColor(zone.MedianHFR, centerHFR)), image.Point{}, draw.Src)

			cx := (cell.Min.X + cell.Max.X) / 2
			cy := (cell.Min.Y + cell.Max.Y) / 2
			if zone.MedianHFR > 0 {
				radius := max(3, min(int(zone.MedianHFR*scale*3), cell.Dx()/3))
				drawCircle(img, cx, cy, radius, color.NRGBA{255, 255, 255, 200})
			}

			drawCenteredText(img, face, zone.Label, cx, cy-14, textColor)
			drawCenteredText(img, face, fmt.Sprintf("HFR: %.2f", zone.MedianHFR), cx, cy+2, textColor)
			drawCenteredText(img, face, fmt.Sprintf("n=%d", zone.StarCount), cx, cy+16, textColor)
		}
	}

	gridColor := color.NRGBA{255, 255, 255, 180}
	for x := 0; x < imgW; x++ {
		img.Set(x, yLo, gridColor)
		img.Set(x, yHi, gridColor)
	}
	for y := 0; y < imgH; y++ {
		img.Set(xLo, y, gridColor)
		img.Set(xHi, y, gridColor)
	}

	// Arrow from best corner to worst corner
	if field.WorstCorner != "" && field.BestCorner != "" {
		bestX, bestY := cornerCenter(field.BestCorner, xBounds, yBounds)
		worstX, worstY := cornerCenter(field.WorstCorner, xBounds, yBounds)
		arrowColor := color.NRGBA{255, 80, 80, 255}
		drawLine(img, bestX, bestY, worstX, worstY, arrowColor)
		drawArrowHead(img, bestX, bestY, worstX, worstY, arrowColor)
	}

	summaryColor := color.NRGBA{220, 220, 220, 255}
	summaryY := imgH + 15
	reliableStr := ""
	if !field.Reliable {
		reliableStr = "  [LOW STAR COUNT - UNRELIABLE]"
	}
	drawText(img, face, fmt.Sprintf("Tilt: %.1f%%  (worst: %s, best: %s)", field.TiltPct, field.WorstCorner, field.BestCorner), 10, summaryY, summaryColor)
	drawText(img, face, fmt.Sprintf("Off-axis: %.1f%%", field.OffAxisPct)+reliableStr, 10, summaryY+18, summaryColor)

	return img, nil
}

// zoneColor tints a zone by its HFR relative to the center zone: green up to
// 10% worse, red from 60% worse.
func zoneColor(zoneHFR, centerHFR float64) color.NRGBA {
	if zoneHFR <= 0 || centerHFR <= 0 {
		return emptyZone
	}
	t := math.Max(0, math.Min((zoneHFR/centerHFR-1.1)/0.5, 1))
	c := sharpColor.BlendHcl(blurredColor, t).Clamped()
	// darken so the white labels stay readable
	h, s, v := c.Hsv()
	return toNRGBA(colorful.Hsv(h, s, v*0.6))
}

func toNRGBA(c colorful.Color) color.NRGBA {
	r, g, b := c.RGB255()
	return color.NRGBA{r, g, b, 255}
}

// cornerCenter returns the center pixel coords for a named corner.
func cornerCenter(label string, xBounds [3][2]int, yBounds [3][2]int) (int, int) {
	var col, row int
	switch label {
	case "TL":
		col, row = 0, 0
	case "TR":
		col, row = 2, 0
	case "BL":
		col, row = 0, 2
	case "BR":
		col, row = 2, 2
	default:
		return 0, 0
	}
	cx := (xBounds[col][0] + xBounds[col][1]) / 2
	cy := (yBounds[row][0] + yBounds[row][1]) / 2
	return cx, cy
}

func drawText(img draw.Image, face font.Face, s string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func drawCenteredText(img draw.Image, face font.Face, s string, cx, cy int, c color.Color) {
	advance := font.MeasureString(face, s)
	drawText(img, face, s, cx-advance.Round()/2, cy, c)
}

// drawCircle draws a circle outline using the midpoint algorithm.
func drawCircle(img draw.Image, cx, cy, radius int, c color.Color) {
	x := radius
	y := 0
	err := 0

	for x >= y {
		img.Set(cx+x, cy+y, c)
		img.Set(cx+y, cy+x, c)
		img.Set(cx-y, cy+x, c)
		img.Set(cx-x, cy+y, c)
		img.Set(cx-x, cy-y, c)
		img.Set(cx-y, cy-x, c)
		img.Set(cx+y, cy-x, c)
		img.Set(cx+x, cy-y, c)

		y++
		err += 1 + 2*y
		if 2*(err-x)+1 > 0 {
			x--
			err += 1 - 2*x
		}
	}
}

// drawLine draws a 2px line between two points (Bresenham).
func drawLine(img draw.Image, x0, y0, x1, y1 int, c color.Color) {
	dx := intAbs(x1 - x0)
	dy := -intAbs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		img.Set(x0, y0, c)
		img.Set(x0+1, y0, c)
		img.Set(x0, y0+1, c)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func drawArrowHead(img draw.Image, x0, y0, x1, y1 int, c color.Color) {
	dx := float64(x1 - x0)
	dy := float64(y1 - y0)
	length := math.Hypot(dx, dy)
	if length < 1 {
		return
	}
	dx /= length
	dy /= length

	const sz = 15.0
	px := float64(x1) - dx*sz
	py := float64(y1) - dy*sz

	drawLine(img, x1, y1, int(px+dy*sz*0.4), int(py-dx*sz*0.4), c)
	drawLine(img, x1, y1, int(px-dy*sz*0.4), int(py+dx*sz*0.4), c)
}

func intAbs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
