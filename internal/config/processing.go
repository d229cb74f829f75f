// Package config loads processing defaults for the spectral pipeline. The
// defaults file is the single source of truth for tuning values; the same
// JSON shape serves both startup configuration and per-run overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/croningp/analyticallabware/internal/spectrum"
)

// DefaultConfigPath is the path to the canonical processing defaults file.
const DefaultConfigPath = "config/processing.defaults.json"

// ProcessingConfig holds tuning parameters for one spectrum kind. All
// fields are optional; nil means "inherit the built-in default".
type ProcessingConfig struct {
	// Baseline (asymmetric least squares)
	BaselineLambda     *float64 `json:"baseline_lambda,omitempty"`
	BaselineAsymmetry  *float64 `json:"baseline_asymmetry,omitempty"`
	BaselineIterations *int     `json:"baseline_iterations,omitempty"`

	// Smoothing (Savitzky-Golay)
	SmoothWindow    *int `json:"smooth_window,omitempty"`
	SmoothPolyorder *int `json:"smooth_polyorder,omitempty"`

	// Peak search
	PeakThreshold *float64 `json:"peak_threshold,omitempty"`
	PeakMinWidth  *float64 `json:"peak_min_width,omitempty"`
	PeakMinDist   *int     `json:"peak_min_dist,omitempty"`

	// Region pipeline
	RegionMergeDistance  *float64 `json:"region_merge_distance,omitempty"`
	RegionExpandDistance *float64 `json:"region_expand_distance,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// DefaultProcessingConfig returns the built-in defaults, chosen
// experimentally on Raman spectra.
func DefaultProcessingConfig() *ProcessingConfig {
	return &ProcessingConfig{
		BaselineLambda:       ptrFloat64(spectrum.DefaultBaselineLambda),
		BaselineAsymmetry:    ptrFloat64(spectrum.DefaultBaselineAsymmetry),
		BaselineIterations:   ptrInt(spectrum.DefaultBaselineIterations),
		SmoothWindow:         ptrInt(spectrum.DefaultSmoothWindow),
		SmoothPolyorder:      ptrInt(spectrum.DefaultSmoothPolyorder),
		PeakThreshold:        ptrFloat64(0.1),
		PeakMinWidth:         ptrFloat64(2),
		PeakMinDist:          ptrInt(0),
		RegionMergeDistance:  ptrFloat64(0),
		RegionExpandDistance: ptrFloat64(0),
	}
}

// kindOverrides adjusts the built-in defaults per spectrum kind.
var kindOverrides = map[spectrum.Kind]ProcessingConfig{
	spectrum.KindNMR: {
		// d_merge in ppm, from the Spinsolve processing chain.
		RegionMergeDistance: ptrFloat64(0.056),
	},
	spectrum.KindHPLC: {
		// Chromatograms carry slow drift; stiffer baseline.
		BaselineLambda: ptrFloat64(1e5),
	},
}

// DefaultsForKind returns the built-in defaults for a spectrum kind.
func DefaultsForKind(kind spectrum.Kind) *ProcessingConfig {
	cfg := DefaultProcessingConfig()
	if o, ok := kindOverrides[kind]; ok {
		cfg.Merge(&o)
	}
	return cfg
}

// Merge overlays non-nil fields of other onto c.
func (c *ProcessingConfig) Merge(other *ProcessingConfig) {
	if other == nil {
		return
	}
	if other.BaselineLambda != nil {
		c.BaselineLambda = other.BaselineLambda
	}
	if other.BaselineAsymmetry != nil {
		c.BaselineAsymmetry = other.BaselineAsymmetry
	}
	if other.BaselineIterations != nil {
		c.BaselineIterations = other.BaselineIterations
	}
	if other.SmoothWindow != nil {
		c.SmoothWindow = other.SmoothWindow
	}
	if other.SmoothPolyorder != nil {
		c.SmoothPolyorder = other.SmoothPolyorder
	}
	if other.PeakThreshold != nil {
		c.PeakThreshold = other.PeakThreshold
	}
	if other.PeakMinWidth != nil {
		c.PeakMinWidth = other.PeakMinWidth
	}
	if other.PeakMinDist != nil {
		c.PeakMinDist = other.PeakMinDist
	}
	if other.RegionMergeDistance != nil {
		c.RegionMergeDistance = other.RegionMergeDistance
	}
	if other.RegionExpandDistance != nil {
		c.RegionExpandDistance = other.RegionExpandDistance
	}
}

// LoadProcessingConfig reads per-kind overrides from a JSON file of the
// form {"raman": {...}, "nmr": {...}} and overlays them on the built-in
// defaults for the requested kind. A missing file is not an error: the
// defaults apply.
func LoadProcessingConfig(path string, kind spectrum.Kind) (*ProcessingConfig, error) {
	cfg := DefaultsForKind(kind)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var perKind map[string]ProcessingConfig
	if err := json.Unmarshal(data, &perKind); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if o, ok := perKind[string(kind)]; ok {
		cfg.Merge(&o)
	}
	return cfg, nil
}

// PeakOptions converts the config into peak-search options.
func (c *ProcessingConfig) PeakOptions() spectrum.PeakOptions {
	return spectrum.PeakOptions{
		Threshold: *c.PeakThreshold,
		MinWidth:  *c.PeakMinWidth,
		MinDist:   *c.PeakMinDist,
	}
}

// RegionOptions converts the config into region-pipeline options.
func (c *ProcessingConfig) RegionOptions() spectrum.RegionOptions {
	return spectrum.RegionOptions{
		Magnitude:  true,
		Derivative: true,
		Smoothed:   true,
		DMerge:     *c.RegionMergeDistance,
		DExpand:    *c.RegionExpandDistance,
	}
}
