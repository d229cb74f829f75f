package specstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/croningp/analyticallabware/internal/spectrum"
)

func sampleState() spectrum.State {
	return spectrum.State{
		Kind:      spectrum.KindNMR,
		Timestamp: 1700000123.5,
		X:         []float64{3, 2, 1},
		Y:         []float64{0.1, 0.9, 0.2},
		YComplex:  []complex128{1 + 2i, 3 - 4i, 0},
		Baseline:  []float64{0.1, 0.1, 0.1},
		Peaks: []spectrum.Peak{
			{ID: 2, X: 2.0, Y: 0.9, LeftX: 2.5, RightX: 1.5},
		},
	}
}

func TestRecordRoundTrip(t *testing.T) {
	rec := recordFromState(sampleState())

	blob, err := rec.Encode()
	require.NoError(t, err)

	got, err := DecodeRecord(blob)
	require.NoError(t, err)

	if diff := cmp.Diff(rec, got); diff != "" {
		t.Errorf("record changed across encode/decode (-want +got):\n%s", diff)
	}
}

func TestDecodeRecordRejects(t *testing.T) {
	t.Run("garbage", func(t *testing.T) {
		_, err := DecodeRecord([]byte("not a gzip stream"))
		assert.Error(t, err)
	})

	t.Run("wrong version", func(t *testing.T) {
		rec := recordFromState(sampleState())
		rec.Version = RecordVersion + 1
		blob, err := rec.Encode()
		require.NoError(t, err)

		_, err = DecodeRecord(blob)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported record version")
	})

	t.Run("mismatched arrays", func(t *testing.T) {
		rec := recordFromState(sampleState())
		rec.Y = rec.Y[:2]
		blob, err := rec.Encode()
		require.NoError(t, err)

		_, err = DecodeRecord(blob)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "corrupt record")
	})
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "spectra"))
	require.NoError(t, err)

	st := sampleState()

	t.Run("named save and load", func(t *testing.T) {
		require.NoError(t, store.SaveSpectrum("run-7", st))

		got, err := store.LoadSpectrum("run-7")
		require.NoError(t, err)
		assert.Equal(t, st.Kind, got.Kind)
		assert.Equal(t, st.X, got.X)
		assert.Equal(t, st.YComplex, got.YComplex)
		assert.Equal(t, st.Peaks, got.Peaks)
	})

	t.Run("empty filename keys by timestamp", func(t *testing.T) {
		require.NoError(t, store.SaveSpectrum("", st))

		entries, err := os.ReadDir(store.Dir)
		require.NoError(t, err)
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		assert.Contains(t, names, "1.7000001235e+09.specblob")
	})

	t.Run("load by full path", func(t *testing.T) {
		path := filepath.Join(store.Dir, "run-7.specblob")
		got, err := store.LoadSpectrum(path)
		require.NoError(t, err)
		assert.Equal(t, st.Y, got.Y)
	})

	t.Run("missing blob", func(t *testing.T) {
		_, err := store.LoadSpectrum("no-such-run")
		assert.Error(t, err)
	})
}
