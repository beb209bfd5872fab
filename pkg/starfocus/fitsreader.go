package starfocus

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	fitsRecordLen  = 80
	fitsBlockCards = 36
	fitsBlockLen   = fitsRecordLen * fitsBlockCards
)

// FitsHeader holds parsed FITS header key-value pairs.
type FitsHeader map[string]string

func (h FitsHeader) GetString(key string) string {
	return h[strings.ToUpper(key)]
}

func (h FitsHeader) GetDouble(key string) (float64, bool) {
	v, ok := h[strings.ToUpper(key)]
	if !ok {
		return 0, false
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return d, true
}

func (h FitsHeader) GetInt(key string) (int, bool) {
	v, ok := h[strings.ToUpper(key)]
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return i, true
}

func (h FitsHeader) ObjectName() string { return h.GetString("OBJECT") }
func (h FitsHeader) CameraName() string { return h.GetString("INSTRUME") }

func (h FitsHeader) ExposureTime() (float64, bool) {
	if v, ok := h.GetDouble("EXPTIME"); ok {
		return v, true
	}
	return h.GetDouble("EXPOSURE")
}

// BayerPattern returns the BAYERPAT keyword, empty for mono sensors.
func (h FitsHeader) BayerPattern() string { return strings.ToUpper(h.GetString("BAYERPAT")) }

// FitsImage is the primary HDU of a FITS file.
type FitsImage struct {
	Frame  Frame
	Bitpix int
	Header FitsHeader
}

// ReadFits reads FITS headers and pixel data from a file.
func ReadFits(filePath string) (*FitsImage, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening FITS file: %w", err)
	}
	defer f.Close()
	return readFitsFromReader(f)
}

// ReadFitsFromBytes reads FITS headers and pixel data from a byte slice.
func ReadFitsFromBytes(data []byte) (*FitsImage, error) {
	return readFitsFromReader(bytes.NewReader(data))
}

type fitsLayout struct {
	bitpix, naxis, width, height int
	bzero, bscale                float64
}

func readFitsHeader(r io.Reader) (fitsLayout, FitsHeader, error) {
	layout := fitsLayout{bscale: 1}
	header := make(FitsHeader)
	block := make([]byte, fitsBlockLen)

	for {
		if _, err := io.ReadFull(r, block); err != nil {
			return layout, nil, fmt.Errorf("reading FITS header block: %w", err)
		}
		for i := 0; i < fitsBlockCards; i++ {
			record := string(block[i*fitsRecordLen : (i+1)*fitsRecordLen])
			keyword := strings.TrimSpace(record[:8])
			if keyword == "END" {
				return layout, header, nil
			}
			if record[8] != '=' || record[9] != ' ' {
				continue
			}

			rawValue := strings.TrimSpace(strings.SplitN(record[10:], "/", 2)[0])
			if value := parseFitsValue(rawValue); keyword != "" && value != "" {
				header[strings.ToUpper(keyword)] = value
			}

			switch keyword {
			case "BITPIX":
				layout.bitpix, _ = strconv.Atoi(rawValue)
			case "NAXIS":
				layout.naxis, _ = strconv.Atoi(rawValue)
			case "NAXIS1":
				layout.width, _ = strconv.Atoi(rawValue)
			case "NAXIS2":
				layout.height, _ = strconv.Atoi(rawValue)
			case "BZERO":
				layout.bzero, _ = strconv.ParseFloat(rawValue, 64)
			case "BSCALE":
				layout.bscale, _ = strconv.ParseFloat(rawValue, 64)
			}
		}
	}
}

func readFitsFromReader(r io.Reader) (*FitsImage, error) {
	layout, header, err := readFitsHeader(r)
	if err != nil {
		return nil, err
	}
	if layout.naxis < 2 || layout.width <= 0 || layout.height <= 0 {
		return nil, fmt.Errorf("invalid FITS: NAXIS=%d, NAXIS1=%d, NAXIS2=%d", layout.naxis, layout.width, layout.height)
	}

	kind, err := layout.storedKind()
	if err != nil {
		return nil, err
	}
	raw := make([]byte, layout.width*layout.height*kind.BytesPerSample())
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("reading %d-bit pixel data: %w", layout.bitpix, err)
	}

	frame, err := layout.decode(kind, raw)
	if err != nil {
		return nil, err
	}
	return &FitsImage{Frame: frame, Bitpix: layout.bitpix, Header: header}, nil
}

func (l fitsLayout) storedKind() (PixelKind, error) {
	switch l.bitpix {
	case 8:
		return KindUint8, nil
	case 16:
		return KindInt16, nil
	case 32:
		return KindInt32, nil
	case 64:
		return KindInt64, nil
	case -32:
		return KindFloat32, nil
	case -64:
		return KindFloat64, nil
	default:
		return 0, fmt.Errorf("unsupported BITPIX: %d", l.bitpix)
	}
}

// decode maps the stored samples to the narrowest kind that holds the
// physical values exactly. The unsigned BZERO conventions become Uint16 and
// Uint32; any other scaling yields floating point samples.
func (l fitsLayout) decode(stored PixelKind, raw []byte) (Frame, error) {
	identity := l.bscale == 1 && l.bzero == 0
	w, h := l.width, l.height

	switch {
	case stored == KindInt16 && l.bscale == 1 && l.bzero == 32768:
		return decodePlane(raw, w, h, 2, func(b []byte) uint16 {
			return binary.BigEndian.Uint16(b) ^ 0x8000
		}), nil
	case stored == KindInt32 && l.bscale == 1 && l.bzero == 2147483648:
		return decodePlane(raw, w, h, 4, func(b []byte) uint32 {
			return binary.BigEndian.Uint32(b) ^ 0x80000000
		}), nil
	case identity:
		return FrameFromBytes(stored, w, h, raw, binary.BigEndian)
	}

	frame, err := FrameFromBytes(stored, w, h, raw, binary.BigEndian)
	if err != nil {
		return nil, err
	}
	if stored == KindUint8 || stored == KindInt16 || stored == KindFloat32 {
		return scalePlane[float32](frame, l.bscale, l.bzero), nil
	}
	return scalePlane[float64](frame, l.bscale, l.bzero), nil
}

func scalePlane[D float32 | float64](frame Frame, bscale, bzero float64) *Plane[D] {
	switch f := frame.(type) {
	case *Plane[uint8]:
		return scaleSamples[D](f, bscale, bzero)
	case *Plane[int16]:
		return scaleSamples[D](f, bscale, bzero)
	case *Plane[int32]:
		return scaleSamples[D](f, bscale, bzero)
	case *Plane[int64]:
		return scaleSamples[D](f, bscale, bzero)
	case *Plane[float32]:
		return scaleSamples[D](f, bscale, bzero)
	case *Plane[float64]:
		return scaleSamples[D](f, bscale, bzero)
	}
	return nil
}

func scaleSamples[D float32 | float64, T Sample](src *Plane[T], bscale, bzero float64) *Plane[D] {
	dst := NewPlane[D](src.Width, src.Height)
	for i, v := range src.Pix {
		dst.Pix[i] = D(float64(v)*bscale + bzero)
	}
	return dst
}

func parseFitsValue(rawValue string) string {
	if rawValue == "" {
		return ""
	}
	if rawValue == "T" {
		return "True"
	}
	if rawValue == "F" {
		return "False"
	}
	if strings.HasPrefix(rawValue, "'") {
		endQuote := strings.LastIndex(rawValue, "'")
		if endQuote > 0 {
			return strings.TrimRight(rawValue[1:endQuote], " ")
		}
		return strings.TrimLeft(strings.TrimRight(rawValue, " "), "'")
	}
	return rawValue
}
