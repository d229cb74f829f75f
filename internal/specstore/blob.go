// Package specstore persists spectra: one gob+gzip blob per spectrum on
// disk, plus an optional sqlite archive indexing blobs by kind and
// timestamp.
package specstore

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/croningp/analyticallabware/internal/spectrum"
)

// RecordVersion is the current blob schema version. Bump it when Record
// gains or changes fields so readers can reject blobs they do not
// understand.
const RecordVersion = 1

// blobExt is the file extension for persisted spectra.
const blobExt = ".specblob"

// Record is the persisted spectrum schema: a flat mapping of named numeric
// arrays plus identifying metadata. The field list is the serialization
// contract; adding or changing fields requires a version bump.
type Record struct {
	Version   int
	Kind      string
	Timestamp float64
	X         []float64
	Y         []float64
	YComplex  []complex128
	Baseline  []float64
	Peaks     []spectrum.Peak
}

// Encode serializes the record with gob and compresses it with gzip.
func (r *Record) Encode() ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(r); err != nil {
		gz.Close()
		return nil, fmt.Errorf("specstore: encode record: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("specstore: compress record: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeRecord reads a record from its serialized form and validates the
// schema version and array lengths.
func DecodeRecord(blob []byte) (*Record, error) {
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("specstore: decompress record: %w", err)
	}
	defer gz.Close()

	var r Record
	if err := gob.NewDecoder(gz).Decode(&r); err != nil {
		return nil, fmt.Errorf("specstore: decode record: %w", err)
	}
	if r.Version != RecordVersion {
		return nil, fmt.Errorf("specstore: unsupported record version %d (want %d)", r.Version, RecordVersion)
	}
	if len(r.X) != len(r.Y) {
		return nil, fmt.Errorf("specstore: corrupt record: len(x)=%d len(y)=%d", len(r.X), len(r.Y))
	}
	return &r, nil
}

// FileStore writes one blob file per spectrum under a directory. It
// implements spectrum.Store.
type FileStore struct {
	Dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("specstore: create data dir: %w", err)
	}
	return &FileStore{Dir: dir}, nil
}

// SaveSpectrum persists the state under filename (without extension); an
// empty filename keys the blob by timestamp.
func (fs *FileStore) SaveSpectrum(filename string, st spectrum.State) error {
	if filename == "" {
		filename = fmt.Sprintf("%v", st.Timestamp)
	}
	rec := recordFromState(st)
	blob, err := rec.Encode()
	if err != nil {
		return err
	}
	path := filepath.Join(fs.Dir, filename+blobExt)
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return fmt.Errorf("specstore: write %s: %w", path, err)
	}
	return nil
}

// LoadSpectrum restores a state from a blob file. A bare name is resolved
// against the store directory.
func (fs *FileStore) LoadSpectrum(path string) (spectrum.State, error) {
	if filepath.Ext(path) == "" {
		path = filepath.Join(fs.Dir, path+blobExt)
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return spectrum.State{}, fmt.Errorf("specstore: read %s: %w", path, err)
	}
	rec, err := DecodeRecord(blob)
	if err != nil {
		return spectrum.State{}, err
	}
	return rec.State(), nil
}

func recordFromState(st spectrum.State) *Record {
	return &Record{
		Version:   RecordVersion,
		Kind:      string(st.Kind),
		Timestamp: st.Timestamp,
		X:         st.X,
		Y:         st.Y,
		YComplex:  st.YComplex,
		Baseline:  st.Baseline,
		Peaks:     st.Peaks,
	}
}

// State converts the record back into a container snapshot.
func (r *Record) State() spectrum.State {
	return spectrum.State{
		Kind:      spectrum.Kind(r.Kind),
		Timestamp: r.Timestamp,
		X:         r.X,
		Y:         r.Y,
		YComplex:  r.YComplex,
		Baseline:  r.Baseline,
		Peaks:     r.Peaks,
	}
}
