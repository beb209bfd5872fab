package main

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestParseRect(t *testing.T) {
	r, err := parseRect("10, 20,30,40")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r, test.ShouldResemble, image.Rect(10, 20, 40, 60))

	r, err = parseRect("-5,-5,10,10")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.Min, test.ShouldResemble, image.Pt(-5, -5))

	for _, bad := range []string{"", "1,2,3", "a,2,3,4", "0,0,0,5", "0,0,5,-1"} {
		_, err := parseRect(bad)
		test.That(t, err, test.ShouldNotBeNil)
	}
}

func TestMedianMAD(t *testing.T) {
	med, mad := medianMAD([]float64{1, 2, 3, 4, 100})
	test.That(t, med, test.ShouldEqual, 3.0)
	test.That(t, mad, test.ShouldAlmostEqual, 1.4826, 1e-9)

	med, _ = medianMAD([]float64{4, 1})
	test.That(t, med, test.ShouldEqual, 2.5)

	med, mad = medianMAD(nil)
	test.That(t, math.IsNaN(med), test.ShouldBeTrue)
	test.That(t, math.IsNaN(mad), test.ShouldBeTrue)
}

func writeStarPNG(t *testing.T, dir string) string {
	t.Helper()
	input := filepath.Join(dir, "star.png")
	img := image.NewGray16(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			v := uint16(100)
			if (x-30)*(x-30)+(y-33)*(y-33) <= 64 {
				v += 2000
			}
			img.SetGray16(x, y, color.Gray16{Y: v})
		}
	}
	f, err := os.Create(input)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, png.Encode(f, img), test.ShouldBeNil)
	test.That(t, f.Close(), test.ShouldBeNil)
	return input
}

func TestDetectCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeStarPNG(t, dir)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	overlay := filepath.Join(dir, "overlay.png")
	err := newApp().Run([]string{"starfocus", "--log-level", "error", "detect", "--rect", "0,0,64,64", "--overlay", overlay, input})
	test.That(t, err, test.ShouldBeNil)
	_, err = os.Stat(overlay)
	test.That(t, err, test.ShouldBeNil)

	err = newApp().Run([]string{"starfocus", "detect"})
	test.That(t, err, test.ShouldNotBeNil)

	err = newApp().Run([]string{"starfocus", "detect", "--rect", "1,2", input})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDetectCommandReadsUserConfig(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("HOME", configHome)
	userDir, err := os.UserConfigDir()
	test.That(t, err, test.ShouldBeNil)

	path := filepath.Join(userDir, "starfocus", "config.yaml")
	test.That(t, os.MkdirAll(filepath.Dir(path), 0o755), test.ShouldBeNil)
	test.That(t, os.WriteFile(path, []byte("detector:\n  ray_samples: 0\n"), 0o644), test.ShouldBeNil)

	input := writeStarPNG(t, t.TempDir())
	err = newApp().Run([]string{"starfocus", "detect", input})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "ray_samples")
}
