package main

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"starfocus/internal/config"
	"starfocus/internal/logger"
	sf "starfocus/pkg/starfocus"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "starfocus",
		Usage: "measure the dominant star of an image region for focusing",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file (default ./starfocus.yaml, then the user config dir)", EnvVars: []string{"STARFOCUS_CONFIG"}},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (overrides config)"},
		},
		Commands: []*cli.Command{
			{
				Name:      "detect",
				Usage:     "detect the dominant star in a sub-region or in every tile",
				ArgsUsage: "<input-file>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "rect", Usage: "sub-region as x,y,w,h in pixels"},
					&cli.Float64Flag{Name: "roi", Usage: "centered sub-region as a fraction of the frame (0, 1]"},
					&cli.IntFlag{Name: "tiles", Usage: "split the frame into an n x n grid and detect per tile"},
					&cli.IntFlag{Name: "workers", Usage: "concurrent tile detections (overrides config)"},
					&cli.StringFlag{Name: "overlay", Usage: "write a PNG or JPEG overlay to this path"},
					&cli.BoolFlag{Name: "debayer", Usage: "treat the input as an RGGB mosaic"},
				},
				Action: detectAction,
			},
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, zerolog.Logger, error) {
	path := c.String("config")
	if path == "" {
		found, err := config.Find(config.DefaultPaths()...)
		if err != nil && !errors.Is(err, config.ErrNoConfig) {
			return nil, zerolog.Nop(), err
		}
		path = found
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if w := c.Int("workers"); w > 0 {
		cfg.Workers = w
	}
	return cfg, logger.NewConsole(logger.ParseLevel(cfg.LogLevel)), nil
}

func detectAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: starfocus detect <input-file>")
	}
	inputFilePath := c.Args().First()

	cfg, log, err := loadConfig(c)
	if err != nil {
		return err
	}
	detector, err := sf.NewDetector(&cfg.Detector, log)
	if err != nil {
		return err
	}

	fmt.Printf("Loading: %s\n", inputFilePath)
	frame, header, err := sf.LoadImage(inputFilePath)
	if err != nil {
		return err
	}
	if c.Bool("debayer") || (header != nil && header.BayerPattern() == "RGGB") {
		if frame = sf.Debayer(frame); frame == nil {
			return fmt.Errorf("debayering %s: %w", inputFilePath, sf.ErrNoInput)
		}
	}
	bounds := frame.Bounds()
	fmt.Printf("Image loaded: %dx%d, %s\n", bounds.Dx(), bounds.Dy(), frame.Kind())
	log.Debug().Stringer("stats", frame.Statistics()).Msg("frame statistics")

	if n := c.Int("tiles"); n > 0 {
		return runTiles(c, detector, frame, n, cfg.Workers)
	}

	rect, err := regionFromFlags(c, bounds)
	if err != nil {
		return err
	}

	startTime := time.Now()
	res, err := detector.FindSources(frame, rect)
	if err != nil {
		return fmt.Errorf("detecting star: %w", err)
	}
	printResult(res, time.Since(startTime))

	if out := c.String("overlay"); out != "" {
		img, err := sf.RenderDetection(frame, res)
		if err != nil {
			return err
		}
		if err := sf.SaveOverlay(img, out); err != nil {
			return err
		}
		fmt.Printf("Overlay written: %s\n", out)
	}
	return nil
}

func regionFromFlags(c *cli.Context, bounds image.Rectangle) (image.Rectangle, error) {
	if s := c.String("rect"); s != "" {
		return parseRect(s)
	}
	if roi := c.Float64("roi"); roi > 0 {
		return sf.RatioRectFromCenterROI(roi).Rect(bounds.Dx(), bounds.Dy()), nil
	}
	return image.Rectangle{}, nil
}

// parseRect parses "x,y,w,h". Negative origins are allowed and clamped by the
// detector.
func parseRect(s string) (image.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("rect must be x,y,w,h, got %q", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("rect component %q: %w", p, err)
		}
		v[i] = n
	}
	if v[2] <= 0 || v[3] <= 0 {
		return image.Rectangle{}, fmt.Errorf("rect size must be positive, got %dx%d", v[2], v[3])
	}
	return image.Rect(v[0], v[1], v[0]+v[2], v[1]+v[3]), nil
}

func printResult(res *sf.Result, elapsed time.Duration) {
	m := res.Metrics
	fmt.Println()
	fmt.Printf("=== Star Detection Result (%.3fs) ===\n", elapsed.Seconds())
	fmt.Printf("  Region:          %v\n", m.DetectionROI)
	fmt.Printf("  Gradient regions: %d\n", m.Regions)
	fmt.Printf("  Mass ratio:      %.3f\n", m.MassRatio)
	if !res.Found() {
		fmt.Printf("  No star:         %s\n", res.Reason)
	} else {
		s := res.Stars[0]
		fmt.Printf("  Center:          %.2f, %.2f\n", s.X, s.Y)
		fmt.Printf("  Diameter:        %d px\n", s.Diameter)
		fmt.Printf("  Flux:            %.1f (half %.1f)\n", m.Flux, m.HalfFlux)
		fmt.Printf("  HFR:             %.3f px\n", s.HFR)
	}
	fmt.Println("==============================")
}

func runTiles(c *cli.Context, detector *sf.Detector, frame sf.Frame, n, workers int) error {
	startTime := time.Now()
	tiles, err := sf.DetectTiles(c.Context, detector, frame, n, workers)
	if err != nil {
		return fmt.Errorf("detecting tiles: %w", err)
	}
	elapsed := time.Since(startTime)

	stars := sf.TileStars(tiles)
	bounds := frame.Bounds()
	imageWidth, imageHeight := bounds.Dx(), bounds.Dy()

	fmt.Println()
	fmt.Printf("=== Tile Detection Results (%.1fs) ===\n", elapsed.Seconds())
	fmt.Printf("  Image size:      %d x %d\n", imageWidth, imageHeight)
	fmt.Printf("  Tiles:           %d\n", len(tiles))
	fmt.Printf("  Stars detected:  %d\n", len(stars))

	if len(stars) > 0 {
		hfrValues := make([]float64, len(stars))
		for i, s := range stars {
			hfrValues[i] = s.HFR
		}
		hfrMedian, hfrMAD := medianMAD(hfrValues)
		fmt.Printf("  HFR (median):    %.3f +/- %.3f px\n", hfrMedian, hfrMAD)
	}
	fmt.Println("==============================")

	field := sf.AnalyzeField(stars, imageWidth, imageHeight)
	if field != nil {
		fmt.Println()
		fmt.Println("=== Field Analysis (3x3) ===")
		for pos := sf.ZoneTopLeft; pos <= sf.ZoneBottomRight; pos++ {
			z := field.Zones[pos]
			fmt.Printf("  %-8s HFR=%.3f  D=%.1f  n=%d\n", z.Label, z.MedianHFR, z.MedianDiameter, z.StarCount)
			if pos%3 == 2 && pos < sf.ZoneBottomRight {
				fmt.Println("  ---")
			}
		}
		fmt.Printf("\n  Tilt:     %.1f%% (best: %s, worst: %s)\n", field.TiltPct, field.BestCorner, field.WorstCorner)
		fmt.Printf("  Off-axis: %.1f%%\n", field.OffAxisPct)
		if !field.Reliable {
			fmt.Println("  [LOW STAR COUNT - UNRELIABLE]")
		}
		fmt.Println("==============================")

		if out := c.String("overlay"); out != "" {
			img, err := sf.RenderFieldOverlay(field, imageWidth, imageHeight)
			if err != nil {
				return err
			}
			if err := sf.SaveOverlay(img, out); err != nil {
				return err
			}
			fmt.Printf("Overlay written: %s\n", out)
		}
	}
	return nil
}

func medianMAD(values []float64) (float64, float64) {
	if len(values) == 0 {
		return math.NaN(), math.NaN()
	}
	med := median(values)
	deviations := make([]float64, len(values))
	for i, v := range values {
		deviations[i] = math.Abs(v - med)
	}
	return med, 1.4826 * median(deviations)
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2.0
	}
	return sorted[n/2]
}
