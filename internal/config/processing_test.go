package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/croningp/analyticallabware/internal/spectrum"
)

func TestDefaultProcessingConfig(t *testing.T) {
	cfg := DefaultProcessingConfig()

	if got := *cfg.BaselineLambda; got != spectrum.DefaultBaselineLambda {
		t.Errorf("BaselineLambda = %v, want %v", got, spectrum.DefaultBaselineLambda)
	}
	if got := *cfg.SmoothWindow; got != spectrum.DefaultSmoothWindow {
		t.Errorf("SmoothWindow = %v, want %v", got, spectrum.DefaultSmoothWindow)
	}
	if got := *cfg.PeakThreshold; got != 0.1 {
		t.Errorf("PeakThreshold = %v, want 0.1", got)
	}
}

func TestDefaultsForKind(t *testing.T) {
	nmr := DefaultsForKind(spectrum.KindNMR)
	if got := *nmr.RegionMergeDistance; got != 0.056 {
		t.Errorf("nmr RegionMergeDistance = %v, want 0.056", got)
	}
	if got := *nmr.BaselineLambda; got != spectrum.DefaultBaselineLambda {
		t.Errorf("nmr BaselineLambda = %v, want the built-in default", got)
	}

	hplc := DefaultsForKind(spectrum.KindHPLC)
	if got := *hplc.BaselineLambda; got != 1e5 {
		t.Errorf("hplc BaselineLambda = %v, want 1e5", got)
	}

	generic := DefaultsForKind(spectrum.KindGeneric)
	if got := *generic.RegionMergeDistance; got != 0 {
		t.Errorf("generic RegionMergeDistance = %v, want 0", got)
	}
}

func TestMerge(t *testing.T) {
	cfg := DefaultProcessingConfig()
	base := *cfg.BaselineLambda

	cfg.Merge(&ProcessingConfig{
		PeakThreshold: ptrFloat64(0.25),
		SmoothWindow:  ptrInt(21),
	})

	if got := *cfg.PeakThreshold; got != 0.25 {
		t.Errorf("PeakThreshold = %v, want 0.25", got)
	}
	if got := *cfg.SmoothWindow; got != 21 {
		t.Errorf("SmoothWindow = %v, want 21", got)
	}
	if got := *cfg.BaselineLambda; got != base {
		t.Errorf("BaselineLambda = %v, want untouched %v", got, base)
	}

	cfg.Merge(nil) // must not panic
}

func TestLoadProcessingConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "processing.json")
	body := `{
		"raman": {"peak_threshold": 0.3, "baseline_lambda": 2000},
		"nmr": {"region_expand_distance": 0.01}
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("overrides for matching kind", func(t *testing.T) {
		cfg, err := LoadProcessingConfig(path, spectrum.KindRaman)
		if err != nil {
			t.Fatal(err)
		}
		if got := *cfg.PeakThreshold; got != 0.3 {
			t.Errorf("PeakThreshold = %v, want 0.3", got)
		}
		if got := *cfg.BaselineLambda; got != 2000 {
			t.Errorf("BaselineLambda = %v, want 2000", got)
		}
		if got := *cfg.SmoothWindow; got != spectrum.DefaultSmoothWindow {
			t.Errorf("SmoothWindow = %v, want the built-in default", got)
		}
	})

	t.Run("kind overrides survive under file overrides", func(t *testing.T) {
		cfg, err := LoadProcessingConfig(path, spectrum.KindNMR)
		if err != nil {
			t.Fatal(err)
		}
		if got := *cfg.RegionMergeDistance; got != 0.056 {
			t.Errorf("RegionMergeDistance = %v, want 0.056", got)
		}
		if got := *cfg.RegionExpandDistance; got != 0.01 {
			t.Errorf("RegionExpandDistance = %v, want 0.01", got)
		}
	})

	t.Run("missing file falls back to defaults", func(t *testing.T) {
		cfg, err := LoadProcessingConfig(filepath.Join(dir, "absent.json"), spectrum.KindRaman)
		if err != nil {
			t.Fatal(err)
		}
		if got := *cfg.PeakThreshold; got != 0.1 {
			t.Errorf("PeakThreshold = %v, want 0.1", got)
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		if err := os.WriteFile(bad, []byte("{"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadProcessingConfig(bad, spectrum.KindRaman); err == nil {
			t.Error("expected a parse error")
		}
	})
}

func TestOptionConverters(t *testing.T) {
	cfg := DefaultsForKind(spectrum.KindNMR)

	peaks := cfg.PeakOptions()
	if peaks.Threshold != 0.1 || peaks.MinWidth != 2 || peaks.MinDist != 0 {
		t.Errorf("PeakOptions = %+v, want defaults", peaks)
	}

	regions := cfg.RegionOptions()
	if !regions.Magnitude || !regions.Derivative || !regions.Smoothed {
		t.Errorf("RegionOptions transforms = %+v, want all enabled", regions)
	}
	if regions.DMerge != 0.056 {
		t.Errorf("DMerge = %v, want 0.056", regions.DMerge)
	}
}
