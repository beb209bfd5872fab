package starfocus

import (
	"fmt"

	"go.uber.org/multierr"
)

// Params holds the detector tunables.
type Params struct {
	// A field with more than NoiseRegionCount regions whose heaviest region
	// displaced the previous one by less than NoiseMassRatio is noise.
	NoiseRegionCount int     `mapstructure:"noise_region_count" yaml:"noise_region_count"`
	NoiseMassRatio   float64 `mapstructure:"noise_mass_ratio" yaml:"noise_mass_ratio"`

	RaySamples    int `mapstructure:"ray_samples" yaml:"ray_samples"`
	MinRayHits    int `mapstructure:"min_ray_hits" yaml:"min_ray_hits"`
	MinScanRadius int `mapstructure:"min_scan_radius" yaml:"min_scan_radius"`

	// HFRStep is the sub-pixel slice width used for flux integration.
	HFRStep float64 `mapstructure:"hfr_step" yaml:"hfr_step"`

	// Prefilter chain applied before gradients are computed.
	MedianFilter   bool `mapstructure:"median_filter" yaml:"median_filter"`
	HighContrast   bool `mapstructure:"high_contrast" yaml:"high_contrast"`
	GaussianKernel int  `mapstructure:"gaussian_kernel" yaml:"gaussian_kernel"`
}

// DefaultParams returns the parameters the detector was tuned with.
func DefaultParams() *Params {
	return &Params{
		NoiseRegionCount: 10,
		NoiseMassRatio:   1.5,
		RaySamples:       36,
		MinRayHits:       24,
		MinScanRadius:    2,
		HFRStep:          1.0 / 20.0,
		MedianFilter:     true,
		HighContrast:     true,
		GaussianKernel:   0,
	}
}

// Validate reports every inconsistent field at once.
func (p *Params) Validate() error {
	var err error
	if p.NoiseRegionCount < 0 {
		err = multierr.Append(err, fmt.Errorf("noise_region_count must be >= 0, got %d", p.NoiseRegionCount))
	}
	if p.NoiseMassRatio < 0 {
		err = multierr.Append(err, fmt.Errorf("noise_mass_ratio must be >= 0, got %f", p.NoiseMassRatio))
	}
	if p.RaySamples <= 0 {
		err = multierr.Append(err, fmt.Errorf("ray_samples must be positive, got %d", p.RaySamples))
	}
	if p.MinRayHits <= 0 || p.MinRayHits > p.RaySamples {
		err = multierr.Append(err, fmt.Errorf("min_ray_hits must be in [1, ray_samples], got %d", p.MinRayHits))
	}
	if p.MinScanRadius < 1 {
		err = multierr.Append(err, fmt.Errorf("min_scan_radius must be >= 1, got %d", p.MinScanRadius))
	}
	if p.HFRStep <= 0 || p.HFRStep > 1 {
		err = multierr.Append(err, fmt.Errorf("hfr_step must be in (0, 1], got %f", p.HFRStep))
	}
	if p.GaussianKernel != 0 && (p.GaussianKernel < 3 || p.GaussianKernel%2 == 0) {
		err = multierr.Append(err, fmt.Errorf("gaussian_kernel must be 0 or an odd number >= 3, got %d", p.GaussianKernel))
	}
	return err
}

// Filters builds the prefilter chain in application order.
func (p *Params) Filters() []Filter {
	var chain []Filter
	if p.MedianFilter {
		chain = append(chain, MedianFilter{})
	}
	if p.GaussianKernel > 0 {
		chain = append(chain, GaussianFilter{KernelSize: p.GaussianKernel})
	}
	if p.HighContrast {
		chain = append(chain, HighContrastFilter{})
	}
	return chain
}
