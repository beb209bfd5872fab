//go:build purego || js

package starfocus

import (
	"fmt"

	"github.com/disintegration/imaging"
)

func loadRaster(path string) (Frame, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	return FrameFromImage(img), nil
}
