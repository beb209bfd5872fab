package starfocus

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
	"golang.org/x/image/tiff"
)

func gray16Disk() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, 64, 64))
	disk := diskPlane[uint16](64, 64, 30, 33, 8, 100, 2000)
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetGray16(x, y, color.Gray16{Y: disk.At(x, y)})
		}
	}
	return img
}

func TestFrameFromImage(t *testing.T) {
	f := FrameFromImage(gray16Disk())
	test.That(t, f.Kind(), test.ShouldEqual, KindUint16)
	test.That(t, f.(*Plane[uint16]).At(30, 33), test.ShouldEqual, uint16(2100))

	gray := image.NewGray(image.Rect(0, 0, 3, 2))
	gray.SetGray(2, 1, color.Gray{Y: 77})
	f = FrameFromImage(gray)
	test.That(t, f.Kind(), test.ShouldEqual, KindUint8)
	test.That(t, f.(*Plane[uint8]).At(2, 1), test.ShouldEqual, uint8(77))

	rgba := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	rgba.SetNRGBA(1, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	f = FrameFromImage(rgba)
	test.That(t, f.Kind(), test.ShouldEqual, KindUint8)
	test.That(t, f.(*Plane[uint8]).At(1, 0), test.ShouldEqual, uint8(255))
	test.That(t, f.(*Plane[uint8]).At(0, 1), test.ShouldEqual, uint8(0))
}

func TestLoadImageBytes(t *testing.T) {
	var buf bytes.Buffer
	test.That(t, tiff.Encode(&buf, gray16Disk(), nil), test.ShouldBeNil)

	frame, header, err := LoadImageBytes(buf.Bytes())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, header, test.ShouldBeNil)
	test.That(t, frame.Kind(), test.ShouldEqual, KindUint16)

	res := mustDetect(t, frame, image.Rectangle{}, nil)
	test.That(t, res.Stars[0].X, test.ShouldAlmostEqual, 30.5, 1e-6)

	_, _, err = LoadImageBytes([]byte("not an image"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLoadImagePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "star.png")
	f, err := os.Create(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, png.Encode(f, gray16Disk()), test.ShouldBeNil)
	test.That(t, f.Close(), test.ShouldBeNil)

	frame, header, err := LoadImage(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, header, test.ShouldBeNil)
	test.That(t, frame.Kind(), test.ShouldEqual, KindUint16)
	test.That(t, frame.Bounds(), test.ShouldResemble, image.Rect(0, 0, 64, 64))

	_, _, err = LoadImage(filepath.Join(t.TempDir(), "missing.png"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestIsFitsPath(t *testing.T) {
	test.That(t, IsFitsPath("light_001.FITS"), test.ShouldBeTrue)
	test.That(t, IsFitsPath("a/b/c.fit"), test.ShouldBeTrue)
	test.That(t, IsFitsPath("c.fts"), test.ShouldBeTrue)
	test.That(t, IsFitsPath("c.tif"), test.ShouldBeFalse)
}
