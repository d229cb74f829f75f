package spectrum

import (
	"fmt"
	"log"
	"math"
)

// Kind identifies the spectrum type a container holds. It selects
// processing defaults and is recorded with persisted data.
type Kind string

const (
	KindGeneric Kind = "generic"
	KindNMR     Kind = "nmr"
	KindRaman   Kind = "raman"
	KindUV      Kind = "uv"
	KindIR      Kind = "ir"
	KindHPLC    Kind = "hplc"
)

// State is the snapshot of a spectrum handed to and received from a
// persistence collaborator.
type State struct {
	Kind      Kind
	Timestamp float64
	X         []float64
	Y         []float64
	YComplex  []complex128
	Baseline  []float64
	Peaks     []Peak
}

// Store persists and restores spectrum snapshots. Implemented by
// specstore.FileStore; file formats and locations are the collaborator's
// concern.
type Store interface {
	SaveSpectrum(filename string, st State) error
	LoadSpectrum(path string) (State, error)
}

// Config is the per-instance container configuration. Axis labels and
// persistence behaviour are set at construction; nothing is shared between
// container instances.
type Config struct {
	Kind   Kind
	XLabel string
	YLabel string
	// Store receives the previous spectrum when new data is loaded and
	// Autosave is set, and serves SaveData/LoadData. Optional.
	Store    Store
	Autosave bool
}

// Spectrum owns one series plus its derived state: at most one baseline and
// at most one peak table. It is the processing entry point handed to device
// drivers: they load raw (x, y, timestamp) acquisitions and read back peak
// tables and integrals.
//
// Not safe for concurrent use; use one container per spectrum.
type Spectrum struct {
	Series    *Series
	Complex   []complex128 // non-nil for frequency/time-domain NMR data
	Baseline  []float64
	Peaks     []Peak
	Timestamp float64

	cfg Config
}

// New creates an empty container.
func New(cfg Config) *Spectrum {
	if cfg.Kind == "" {
		cfg.Kind = KindGeneric
	}
	if cfg.XLabel == "" {
		cfg.XLabel = "x"
	}
	if cfg.YLabel == "" {
		cfg.YLabel = "y"
	}
	return &Spectrum{cfg: cfg}
}

// Kind returns the configured spectrum kind.
func (sp *Spectrum) Kind() Kind { return sp.cfg.Kind }

// Labels returns the configured axis labels.
func (sp *Spectrum) Labels() (x, y string) { return sp.cfg.XLabel, sp.cfg.YLabel }

// Load replaces the container content with a new real-valued acquisition.
// If data is already present and autosaving is enabled, the previous
// spectrum is persisted first. Baseline and peak table are dropped.
func (sp *Spectrum) Load(x, y []float64, timestamp float64) error {
	series, err := NewSeries(x, y)
	if err != nil {
		return err
	}
	sp.dump()
	sp.Series = series
	sp.Complex = nil
	sp.Timestamp = timestamp
	return nil
}

// LoadComplex replaces the container content with a complex-valued
// acquisition (an NMR FID or frequency-domain spectrum). The working y data
// is the magnitude; the complex samples are kept for apodization, zero
// filling and Fourier transformation.
func (sp *Spectrum) LoadComplex(x []float64, y []complex128, timestamp float64) error {
	if len(x) != len(y) {
		return fmt.Errorf("%w: len(x)=%d len(y)=%d", ErrLengthMismatch, len(x), len(y))
	}
	series, err := NewSeries(x, Magnitude(y))
	if err != nil {
		return err
	}
	sp.dump()
	sp.Series = series
	sp.Complex = append([]complex128(nil), y...)
	sp.Timestamp = timestamp
	return nil
}

// dump autosaves the current content if configured, then clears all state.
func (sp *Spectrum) dump() {
	if sp.Series == nil {
		return
	}
	if sp.cfg.Autosave && sp.cfg.Store != nil {
		if err := sp.SaveData(""); err != nil {
			log.Printf("[Spectrum] autosave failed kind=%s timestamp=%v: %v", sp.cfg.Kind, sp.Timestamp, err)
		}
	}
	sp.Series = nil
	sp.Complex = nil
	sp.Baseline = nil
	sp.Peaks = nil
	sp.Timestamp = 0
}

// Trim restricts the spectrum to xmin < x < xmax. In place, the series is
// mutated and the baseline dropped (it no longer matches the data it was
// fitted to); otherwise a trimmed copy is returned and state is untouched.
func (sp *Spectrum) Trim(xmin, xmax float64, inPlace bool) (*Series, error) {
	if sp.Series == nil {
		return nil, ErrNoData
	}
	if !inPlace {
		x, y := sp.Series.TrimCopy(xmin, xmax)
		s := &Series{X: x, Y: y, orientation: sp.Series.orientation}
		return s, nil
	}

	mask := sp.Series.trimMask(xmin, xmax)
	sp.Series.Trim(xmin, xmax)
	if sp.Complex != nil {
		n := 0
		for i, keep := range mask {
			if keep {
				sp.Complex[n] = sp.Complex[i]
				n++
			}
		}
		sp.Complex = sp.Complex[:n]
	}
	sp.Baseline = nil
	return nil, nil
}

// Smooth applies a Savitzky-Golay filter. In place, the series y data is
// replaced; otherwise the smoothed copy is returned and state is untouched.
func (sp *Spectrum) Smooth(window, polyorder int, inPlace bool) ([]float64, error) {
	if sp.Series == nil {
		return nil, ErrNoData
	}
	smoothed, err := SavGolFilter(sp.Series.Y, window, polyorder)
	if err != nil {
		return nil, err
	}
	if !inPlace {
		return smoothed, nil
	}
	sp.Series.Y = smoothed
	return nil, nil
}

// CorrectBaseline fits an asymmetric least squares baseline, stores it and
// subtracts it from the spectrum in place. On error no state changes.
func (sp *Spectrum) CorrectBaseline(lambda, p float64, nIter int) error {
	if sp.Series == nil {
		return ErrNoData
	}
	baseline, err := ALSBaseline(sp.Series.Y, lambda, p, nIter)
	if err != nil {
		return err
	}
	for i := range sp.Series.Y {
		sp.Series.Y[i] -= baseline[i]
	}
	sp.Baseline = baseline
	log.Printf("[Spectrum] baseline corrected kind=%s n=%d lambda=%g p=%g iterations=%d", sp.cfg.Kind, len(baseline), lambda, p, nIter)
	return nil
}

// FindPeaks searches for peaks and returns the table. Without an area the
// stored peak table is replaced; with an area the search runs on a trimmed
// copy and stored state stays untouched.
func (sp *Spectrum) FindPeaks(opts PeakOptions) ([]Peak, error) {
	if sp.Series == nil {
		return nil, ErrNoData
	}
	table := FindPeaks(sp.Series, opts)
	if opts.Area == nil {
		sp.Peaks = table
	}
	return table, nil
}

// FindPeaksIteratively runs the descending-threshold peak search and
// replaces the stored peak table.
func (sp *Spectrum) FindPeaksIteratively(threshold, steps int) ([]Peak, error) {
	if sp.Series == nil {
		return nil, ErrNoData
	}
	table := FindPeaksIteratively(sp.Series, threshold, steps)
	sp.Peaks = table
	return table, nil
}

// GeneratePeakRegions runs the region pipeline over the spectrum. For
// complex data the magnitude spectrum feeds the binary peak map.
func (sp *Spectrum) GeneratePeakRegions(opts RegionOptions) ([]Region, error) {
	if sp.Series == nil {
		return nil, ErrNoData
	}
	var magnitude []float64
	if sp.Complex != nil {
		magnitude = Magnitude(sp.Complex)
	}
	return GeneratePeakRegions(sp.Series, magnitude, opts), nil
}

// IntegrateArea integrates the spectrum between the samples nearest to the
// given x borders.
func (sp *Spectrum) IntegrateArea(left, right float64, rule string) (float64, error) {
	if sp.Series == nil {
		return 0, ErrNoData
	}
	return IntegrateArea(sp.Series, left, right, rule)
}

// IntegratePeak integrates the stored peak whose rounded id is nearest to
// id, between its stored borders. If no peak search has run yet, one runs
// with default options first: the operation is idempotent and cheap
// relative to failing on stale state.
func (sp *Spectrum) IntegratePeak(id float64, rule string) (float64, error) {
	if sp.Series == nil {
		return 0, ErrNoData
	}
	if sp.Peaks == nil {
		if _, err := sp.FindPeaks(PeakOptions{}); err != nil {
			return 0, err
		}
	}
	if len(sp.Peaks) == 0 {
		return 0, fmt.Errorf("spectrum: no peaks found to integrate")
	}

	ids := make([]float64, len(sp.Peaks))
	for i, p := range sp.Peaks {
		ids[i] = p.ID
	}
	nearest, idx := NearestIndex(ids, id)
	peak := sp.Peaks[idx]
	log.Printf("[Spectrum] integrating peak id=%v borders %.2f..%.2f", nearest, peak.LeftX, peak.RightX)
	return IntegrateArea(sp.Series, peak.LeftX, peak.RightX, rule)
}

// IntegrateRegions integrates each region and returns absolute areas.
func (sp *Spectrum) IntegrateRegions(regions []Region) ([]float64, error) {
	if sp.Series == nil {
		return nil, ErrNoData
	}
	return IntegrateRegions(sp.Series, regions)
}

// Reference targets for ReferenceSpectrum.
const (
	ReferenceHighest = "highest"
	ReferenceClosest = "closest"
)

// ReferenceSpectrum shifts the x axis so that a reference peak lands at
// newPosition. The reference is the highest stored peak, the stored peak
// closest to newPosition, or - if a float is parsed upstream - the caller
// can shift manually via the returned delta. Runs a default peak search if
// no table exists.
func (sp *Spectrum) ReferenceSpectrum(newPosition float64, reference string) (float64, error) {
	if sp.Series == nil {
		return 0, ErrNoData
	}
	if len(sp.Peaks) == 0 {
		if _, err := sp.FindPeaks(PeakOptions{}); err != nil {
			return 0, err
		}
		if len(sp.Peaks) == 0 {
			return 0, fmt.Errorf("spectrum: no peaks to reference against")
		}
	}

	var refX float64
	switch reference {
	case ReferenceHighest, "":
		best := sp.Peaks[0]
		for _, p := range sp.Peaks[1:] {
			if p.Y > best.Y {
				best = p
			}
		}
		refX = best.X
	case ReferenceClosest:
		best := sp.Peaks[0]
		for _, p := range sp.Peaks[1:] {
			if math.Abs(p.X-newPosition) < math.Abs(best.X-newPosition) {
				best = p
			}
		}
		refX = best.X
	default:
		return 0, fmt.Errorf("spectrum: unknown reference %q", reference)
	}

	delta := newPosition - refX
	for i := range sp.Series.X {
		sp.Series.X[i] += delta
	}
	for i := range sp.Peaks {
		sp.Peaks[i].X += delta
		sp.Peaks[i].LeftX += delta
		sp.Peaks[i].RightX += delta
		sp.Peaks[i].ID = math.Round(sp.Peaks[i].X)
	}
	log.Printf("[Spectrum] referenced axis shift=%g reference=%q", delta, reference)
	return delta, nil
}

// Apodize applies line broadening to complex data. In place, both the
// complex samples and the magnitude working data are replaced.
func (sp *Spectrum) Apodize(fn string, params map[string]float64, inPlace bool) ([]complex128, error) {
	if sp.Complex == nil {
		return nil, fmt.Errorf("spectrum: apodization requires complex data")
	}
	var out []complex128
	switch fn {
	case "em":
		out = ApodizeExponential(sp.Complex, params["lb"])
	case "gm":
		out = ApodizeGaussian(sp.Complex, params["g1"], params["g2"])
	default:
		return nil, fmt.Errorf("spectrum: unknown apodization function %q", fn)
	}
	if !inPlace {
		return out, nil
	}
	sp.Complex = out
	sp.Series.Y = Magnitude(out)
	return nil, nil
}

// SaveData persists the current content through the configured store. An
// empty filename keys the record by timestamp.
func (sp *Spectrum) SaveData(filename string) error {
	if sp.cfg.Store == nil {
		return fmt.Errorf("spectrum: no store configured")
	}
	if sp.Series == nil {
		return ErrNoData
	}
	return sp.cfg.Store.SaveSpectrum(filename, State{
		Kind:      sp.cfg.Kind,
		Timestamp: sp.Timestamp,
		X:         sp.Series.X,
		Y:         sp.Series.Y,
		YComplex:  sp.Complex,
		Baseline:  sp.Baseline,
		Peaks:     sp.Peaks,
	})
}

// LoadData restores previously persisted content, dropping what the
// container currently holds (autosaving it first when configured).
func (sp *Spectrum) LoadData(path string) error {
	if sp.cfg.Store == nil {
		return fmt.Errorf("spectrum: no store configured")
	}
	st, err := sp.cfg.Store.LoadSpectrum(path)
	if err != nil {
		return err
	}
	series, err := NewSeries(st.X, st.Y)
	if err != nil {
		return err
	}
	sp.dump()
	sp.Series = series
	sp.Complex = st.YComplex
	sp.Baseline = st.Baseline
	sp.Peaks = st.Peaks
	sp.Timestamp = st.Timestamp
	return nil
}

// Copy returns a new container with deep-copied data and the same
// configuration.
func (sp *Spectrum) Copy() *Spectrum {
	c := New(sp.cfg)
	if sp.Series != nil {
		c.Series = sp.Series.Copy()
	}
	c.Complex = append([]complex128(nil), sp.Complex...)
	c.Baseline = append([]float64(nil), sp.Baseline...)
	c.Peaks = append([]Peak(nil), sp.Peaks...)
	c.Timestamp = sp.Timestamp
	return c
}
