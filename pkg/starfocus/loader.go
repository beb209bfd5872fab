package starfocus

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/tiff"
)

// IsFitsPath reports whether path names a FITS file.
func IsFitsPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".fits", ".fit", ".fts":
		return true
	}
	return false
}

// LoadImage reads a FITS, TIFF, PNG or JPEG file into a Frame. The header is
// nil for non-FITS input.
func LoadImage(path string) (Frame, FitsHeader, error) {
	if IsFitsPath(path) {
		img, err := ReadFits(path)
		if err != nil {
			return nil, nil, err
		}
		return img.Frame, img.Header, nil
	}
	frame, err := loadRaster(path)
	if err != nil {
		return nil, nil, err
	}
	return frame, nil, nil
}

// LoadImageBytes decodes an in-memory FITS or raster image.
func LoadImageBytes(data []byte) (Frame, FitsHeader, error) {
	if bytes.HasPrefix(data, []byte("SIMPLE  =")) {
		img, err := ReadFitsFromBytes(data)
		if err != nil {
			return nil, nil, err
		}
		return img.Frame, img.Header, nil
	}
	frame, err := DecodeRaster(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	return frame, nil, nil
}

// DecodeRaster decodes a TIFF, PNG or JPEG stream into a Frame.
func DecodeRaster(r io.Reader) (Frame, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return FrameFromImage(img), nil
}

// FrameFromImage keeps 8 and 16 bit grayscale samples as they are and reduces
// anything else to 8 bit luminance.
func FrameFromImage(img image.Image) Frame {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	switch src := img.(type) {
	case *image.Gray16:
		p := NewPlane[uint16](w, h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				p.Set(x, y, src.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
		return p
	case *image.Gray:
		p := NewPlane[uint8](w, h)
		for y := 0; y < h; y++ {
			copy(p.Pix[y*w:(y+1)*w], src.Pix[y*src.Stride:])
		}
		return p
	}

	gray := imaging.Grayscale(img)
	p := NewPlane[uint8](w, h)
	for i := range p.Pix {
		p.Pix[i] = gray.Pix[4*i]
	}
	return p
}
