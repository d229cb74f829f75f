// Command specproc runs the spectral processing pipeline over a saved
// spectrum blob or a two-column CSV file: optional baseline correction and
// smoothing, peak search, region generation and integration. Results are
// printed as JSON; processed spectra can be archived into a sqlite file.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/croningp/analyticallabware/internal/config"
	"github.com/croningp/analyticallabware/internal/specstore"
	"github.com/croningp/analyticallabware/internal/spectrum"
)

// Result is the JSON document printed after processing.
type Result struct {
	Input       string            `json:"input"`
	Kind        string            `json:"kind"`
	Points      int               `json:"points"`
	Timestamp   float64           `json:"timestamp"`
	Baseline    bool              `json:"baseline_corrected"`
	Smoothed    bool              `json:"smoothed"`
	Peaks       []spectrum.Peak   `json:"peaks,omitempty"`
	Regions     []spectrum.Region `json:"regions,omitempty"`
	RegionAreas []float64         `json:"region_areas,omitempty"`
	ArchiveID   string            `json:"archive_id,omitempty"`
	ElapsedMs   int64             `json:"elapsed_ms"`
}

func main() {
	var (
		input      = flag.String("input", "", "spectrum blob (.specblob) or two-column CSV file")
		kind       = flag.String("kind", "generic", "spectrum kind: generic, nmr, raman, uv, ir, hplc")
		configPath = flag.String("config", config.DefaultConfigPath, "processing defaults JSON")
		baseline   = flag.Bool("baseline", false, "correct the baseline before peak search")
		smooth     = flag.Bool("smooth", false, "apply Savitzky-Golay smoothing")
		peaks      = flag.Bool("peaks", true, "run the peak search")
		regions    = flag.Bool("regions", false, "run the region pipeline and integrate regions")
		archive    = flag.String("archive", "", "sqlite archive to store the processed spectrum in")
		verbose    = flag.Bool("verbose", false, "log processing steps")
	)
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}
	if !*verbose {
		log.SetOutput(io.Discard)
	}

	cfg, err := config.LoadProcessingConfig(*configPath, spectrum.Kind(*kind))
	if err != nil {
		log.Fatalf("specproc: %v", err)
	}

	sp, err := loadInput(*input, spectrum.Kind(*kind))
	if err != nil {
		log.Fatalf("specproc: %v", err)
	}

	start := time.Now()
	res := Result{
		Input:     *input,
		Kind:      string(sp.Kind()),
		Points:    sp.Series.Len(),
		Timestamp: sp.Timestamp,
	}

	if *smooth {
		if _, err := sp.Smooth(*cfg.SmoothWindow, *cfg.SmoothPolyorder, true); err != nil {
			log.Fatalf("specproc: smoothing: %v", err)
		}
		res.Smoothed = true
	}
	if *baseline {
		if err := sp.CorrectBaseline(*cfg.BaselineLambda, *cfg.BaselineAsymmetry, *cfg.BaselineIterations); err != nil {
			log.Fatalf("specproc: baseline: %v", err)
		}
		res.Baseline = true
	}
	if *peaks {
		table, err := sp.FindPeaks(cfg.PeakOptions())
		if err != nil {
			log.Fatalf("specproc: peak search: %v", err)
		}
		res.Peaks = table
	}
	if *regions {
		regs, err := sp.GeneratePeakRegions(cfg.RegionOptions())
		if err != nil {
			log.Fatalf("specproc: region pipeline: %v", err)
		}
		res.Regions = regs
		if len(regs) > 0 {
			areas, err := sp.IntegrateRegions(regs)
			if err != nil {
				log.Fatalf("specproc: region integration: %v", err)
			}
			res.RegionAreas = areas
		}
	}

	if *archive != "" {
		db, err := specstore.NewArchive(*archive)
		if err != nil {
			log.Fatalf("specproc: %v", err)
		}
		defer db.Close()
		id, err := db.InsertSpectrum(spectrum.State{
			Kind:      sp.Kind(),
			Timestamp: sp.Timestamp,
			X:         sp.Series.X,
			Y:         sp.Series.Y,
			Baseline:  sp.Baseline,
			Peaks:     sp.Peaks,
		})
		if err != nil {
			log.Fatalf("specproc: archive: %v", err)
		}
		res.ArchiveID = id
	}

	res.ElapsedMs = time.Since(start).Milliseconds()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		log.Fatalf("specproc: encode result: %v", err)
	}
}

// loadInput reads either a persisted spectrum blob or a two-column x,y CSV.
func loadInput(path string, kind spectrum.Kind) (*spectrum.Spectrum, error) {
	if filepath.Ext(path) == ".csv" {
		return loadCSV(path, kind)
	}

	fs := &specstore.FileStore{Dir: filepath.Dir(path)}
	sp := spectrum.New(spectrum.Config{Kind: kind, Store: fs})
	if err := sp.LoadData(path); err != nil {
		return nil, err
	}
	return sp, nil
}

func loadCSV(path string, kind spectrum.Kind) (*spectrum.Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	var x, y []float64
	for i, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("%s: row %d has %d columns, want 2", path, i+1, len(row))
		}
		xv, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			if i == 0 {
				continue // header row
			}
			return nil, fmt.Errorf("%s: row %d: %w", path, i+1, err)
		}
		yv, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, i+1, err)
		}
		x = append(x, xv)
		y = append(y, yv)
	}

	sp := spectrum.New(spectrum.Config{Kind: kind})
	if err := sp.Load(x, y, float64(time.Now().Unix())); err != nil {
		return nil, err
	}
	return sp, nil
}
