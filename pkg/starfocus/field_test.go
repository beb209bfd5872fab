package starfocus

import (
	"context"
	"image"
	"testing"

	"github.com/rs/zerolog"
	"go.viam.com/test"
)

func TestTileRects(t *testing.T) {
	rects := TileRects(10, 7, 3)
	test.That(t, rects, test.ShouldHaveLength, 9)
	test.That(t, rects[0], test.ShouldResemble, image.Rect(0, 0, 3, 2))
	test.That(t, rects[4], test.ShouldResemble, image.Rect(3, 2, 6, 4))
	test.That(t, rects[8], test.ShouldResemble, image.Rect(6, 4, 10, 7))

	test.That(t, TileRects(10, 10, 0), test.ShouldBeNil)
	test.That(t, TileRects(2, 2, 3), test.ShouldBeNil)
}

// fourStars places a disk at the centre of each 64x64 quadrant.
func fourStars() *Plane[uint16] {
	p := NewPlane[uint16](128, 128)
	for y := 0; y < 128; y++ {
		for x := 0; x < 128; x++ {
			v := uint16(100)
			for _, c := range []image.Point{{32, 32}, {96, 32}, {32, 96}, {96, 96}} {
				if (x-c.X)*(x-c.X)+(y-c.Y)*(y-c.Y) <= 64 {
					v += 2000
				}
			}
			p.Set(x, y, v)
		}
	}
	return p
}

func TestDetectTiles(t *testing.T) {
	d, err := NewDetector(nil, zerolog.Nop())
	test.That(t, err, test.ShouldBeNil)

	tiles, err := DetectTiles(context.Background(), d, fourStars(), 2, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tiles, test.ShouldHaveLength, 4)

	expected := []struct{ x, y float64 }{{32.5, 32.5}, {96.5, 32.5}, {32.5, 96.5}, {96.5, 96.5}}
	for i, tile := range tiles {
		test.That(t, tile.Found(), test.ShouldBeTrue)
		test.That(t, tile.Stars[0].X, test.ShouldAlmostEqual, expected[i].x, 1e-6)
		test.That(t, tile.Stars[0].Y, test.ShouldAlmostEqual, expected[i].y, 1e-6)
		test.That(t, tile.Stars[0].Diameter, test.ShouldEqual, 16)
	}
	test.That(t, TileStars(tiles), test.ShouldHaveLength, 4)
}

func TestDetectTilesErrors(t *testing.T) {
	d, err := NewDetector(nil, zerolog.Nop())
	test.That(t, err, test.ShouldBeNil)

	_, err = DetectTiles(context.Background(), d, nil, 2, 1)
	test.That(t, err, test.ShouldEqual, ErrNoInput)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = DetectTiles(ctx, d, fourStars(), 2, 1)
	test.That(t, err, test.ShouldEqual, context.Canceled)

	d.Params = &Params{}
	_, err = DetectTiles(context.Background(), d, fourStars(), 2, 0)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestAnalyzeField(t *testing.T) {
	test.That(t, AnalyzeField(nil, 100, 100), test.ShouldBeNil)

	var stars []Star
	add := func(x, y, hfr float64, n int) {
		for i := 0; i < n; i++ {
			stars = append(stars, Star{X: x, Y: y, HFR: hfr, Diameter: 8})
		}
	}
	add(50, 50, 2.0, 4) // center
	add(10, 10, 2.2, 4) // TL
	add(90, 10, 2.0, 4) // TR
	add(10, 90, 3.0, 4) // BL
	add(90, 90, 2.4, 4) // BR

	field := AnalyzeField(stars, 100, 100)
	test.That(t, field, test.ShouldNotBeNil)
	test.That(t, field.Zones[ZoneCenter].MedianHFR, test.ShouldEqual, 2.0)
	test.That(t, field.Zones[ZoneCenter].MedianDiameter, test.ShouldEqual, 8.0)
	test.That(t, field.Zones[ZoneTop].StarCount, test.ShouldEqual, 0)
	test.That(t, field.BestCorner, test.ShouldEqual, "TR")
	test.That(t, field.WorstCorner, test.ShouldEqual, "BL")
	test.That(t, field.TiltPct, test.ShouldAlmostEqual, 50, 1e-9)
	test.That(t, field.OffAxisPct, test.ShouldAlmostEqual, 20, 1e-9)
	test.That(t, field.Reliable, test.ShouldBeTrue)
}

func TestAnalyzeFieldWithoutCenter(t *testing.T) {
	field := AnalyzeField([]Star{{X: 1, Y: 1, HFR: 2}}, 100, 100)
	test.That(t, field.Reliable, test.ShouldBeFalse)
	test.That(t, field.TiltPct, test.ShouldEqual, 0.0)
	test.That(t, field.Zones[ZoneTopLeft].StarCount, test.ShouldEqual, 1)
}
