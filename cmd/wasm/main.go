//go:build js && wasm

package main

import (
	"context"
	"image"
	"syscall/js"

	"github.com/rs/zerolog"

	sf "starfocus/pkg/starfocus"
)

var (
	lastFrame  sf.Frame
	lastResult *sf.Result
	lastField  *sf.FieldAnalysis
)

func main() {
	js.Global().Set("detectStar", js.FuncOf(detectStar))
	js.Global().Set("renderOverlay", js.FuncOf(renderOverlay))
	select {} // block forever
}

// detectStar(fileBytes, {x, y, width, height, tiles, debayer, noiseMassRatio})
func detectStar(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("usage: detectStar(fileBytes, options)")
	}

	jsBytes := args[0]
	fileBytes := make([]byte, jsBytes.Get("length").Int())
	js.CopyBytesToGo(fileBytes, jsBytes)

	var opts js.Value
	if len(args) >= 2 && args[1].Type() == js.TypeObject {
		opts = args[1]
	}

	frame, header, err := sf.LoadImageBytes(fileBytes)
	if err != nil {
		return errorResult("image parse error: " + err.Error())
	}
	if boolOption(opts, "debayer") || (header != nil && header.BayerPattern() == "RGGB") {
		if frame = sf.Debayer(frame); frame == nil {
			return errorResult("debayer error: empty frame")
		}
	}

	params := sf.DefaultParams()
	if v := numberOption(opts, "noiseMassRatio"); v > 0 {
		params.NoiseMassRatio = v
	}
	detector, err := sf.NewDetector(params, zerolog.Nop())
	if err != nil {
		return errorResult("params error: " + err.Error())
	}

	bounds := frame.Bounds()
	jsResult := map[string]interface{}{
		"width":  bounds.Dx(),
		"height": bounds.Dy(),
		"kind":   frame.Kind().String(),
	}
	lastFrame, lastResult, lastField = frame, nil, nil

	if tiles := int(numberOption(opts, "tiles")); tiles > 0 {
		results, err := sf.DetectTiles(context.Background(), detector, frame, tiles, 0)
		if err != nil {
			return errorResult("detection error: " + err.Error())
		}
		stars := sf.TileStars(results)
		jsResult["stars"] = starsToJS(stars)
		if field := sf.AnalyzeField(stars, bounds.Dx(), bounds.Dy()); field != nil {
			lastField = field
			jsResult["field"] = fieldToJS(field)
		}
		return js.ValueOf(jsResult)
	}

	rect := image.Rect(0, 0, 0, 0)
	if w, h := int(numberOption(opts, "width")), int(numberOption(opts, "height")); w > 0 && h > 0 {
		x, y := int(numberOption(opts, "x")), int(numberOption(opts, "y"))
		rect = image.Rect(x, y, x+w, y+h)
	}
	res, err := detector.FindSources(frame, rect)
	if err != nil {
		return errorResult("detection error: " + err.Error())
	}
	lastResult = res

	jsResult["stars"] = starsToJS(res.Stars)
	jsResult["reason"] = res.Reason.String()
	jsResult["regions"] = res.Metrics.Regions
	jsResult["massRatio"] = res.Metrics.MassRatio
	jsResult["flux"] = res.Metrics.Flux
	return js.ValueOf(jsResult)
}

// renderOverlay returns PNG bytes for the last detectStar call.
func renderOverlay(this js.Value, args []js.Value) interface{} {
	var (
		img image.Image
		err error
	)
	switch {
	case lastField != nil:
		b := lastFrame.Bounds()
		img, err = sf.RenderFieldOverlay(lastField, b.Dx(), b.Dy())
	case lastResult != nil:
		img, err = sf.RenderDetection(lastFrame, lastResult)
	default:
		return js.Null()
	}
	if err != nil {
		return js.Null()
	}

	pngBytes, err := sf.EncodeOverlay(img)
	if err != nil {
		return js.Null()
	}
	uint8Array := js.Global().Get("Uint8Array").New(len(pngBytes))
	js.CopyBytesToJS(uint8Array, pngBytes)
	return uint8Array
}

func starsToJS(stars []sf.Star) []interface{} {
	out := make([]interface{}, len(stars))
	for i, s := range stars {
		out[i] = map[string]interface{}{
			"x":        s.X,
			"y":        s.Y,
			"diameter": s.Diameter,
			"hfr":      s.HFR,
		}
	}
	return out
}

func fieldToJS(field *sf.FieldAnalysis) map[string]interface{} {
	jsZones := make([]interface{}, 0, 9)
	for pos := sf.ZoneTopLeft; pos <= sf.ZoneBottomRight; pos++ {
		z := field.Zones[pos]
		jsZones = append(jsZones, map[string]interface{}{
			"label":          z.Label,
			"medianHFR":      z.MedianHFR,
			"medianDiameter": z.MedianDiameter,
			"starCount":      z.StarCount,
		})
	}
	return map[string]interface{}{
		"zones":       jsZones,
		"tiltPct":     field.TiltPct,
		"offAxisPct":  field.OffAxisPct,
		"bestCorner":  field.BestCorner,
		"worstCorner": field.WorstCorner,
		"reliable":    field.Reliable,
	}
}

func boolOption(opts js.Value, key string) bool {
	if opts.Type() != js.TypeObject {
		return false
	}
	v := opts.Get(key)
	return v.Type() == js.TypeBoolean && v.Bool()
}

func numberOption(opts js.Value, key string) float64 {
	if opts.Type() != js.TypeObject {
		return 0
	}
	v := opts.Get(key)
	if v.Type() != js.TypeNumber {
		return 0
	}
	return v.Float()
}

func errorResult(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{
		"error": msg,
	})
}
