package specstore

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/croningp/analyticallabware/internal/spectrum"
)

// schema.sql defines the archive table for persisted spectrum blobs.
//
//go:embed schema.sql
var schemaSQL string

// Archive is a sqlite-backed index of spectrum blobs, for setups that keep
// acquisition history queryable instead of (or besides) loose blob files.
type Archive struct {
	*sql.DB
}

// ArchiveEntry is one archived spectrum.
type ArchiveEntry struct {
	ID        string
	Kind      string
	Timestamp float64
	Points    int
}

// NewArchive opens (creating if necessary) the archive database at path.
func NewArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("specstore: initialise archive schema: %w", err)
	}
	log.Println("[Archive] initialised spectrum archive schema")
	return &Archive{db}, nil
}

// InsertSpectrum archives a snapshot and returns its generated id.
func (a *Archive) InsertSpectrum(st spectrum.State) (string, error) {
	blob, err := recordFromState(st).Encode()
	if err != nil {
		return "", err
	}
	id := uuid.New().String()
	stmt := `INSERT INTO spectra (spectrum_id, kind, acquired_at, points, blob)
			 VALUES (?, ?, ?, ?, ?)`
	if _, err := a.Exec(stmt, id, string(st.Kind), st.Timestamp, len(st.X), blob); err != nil {
		return "", fmt.Errorf("specstore: insert spectrum: %w", err)
	}
	return id, nil
}

// GetSpectrum loads an archived snapshot by id.
func (a *Archive) GetSpectrum(id string) (spectrum.State, error) {
	var blob []byte
	err := a.QueryRow(`SELECT blob FROM spectra WHERE spectrum_id = ?`, id).Scan(&blob)
	if err == sql.ErrNoRows {
		return spectrum.State{}, fmt.Errorf("specstore: no spectrum with id %s", id)
	}
	if err != nil {
		return spectrum.State{}, fmt.Errorf("specstore: query spectrum %s: %w", id, err)
	}
	rec, err := DecodeRecord(blob)
	if err != nil {
		return spectrum.State{}, err
	}
	return rec.State(), nil
}

// ListSpectra returns archive entries, newest first, optionally restricted
// to one kind. limit <= 0 returns everything.
func (a *Archive) ListSpectra(kind string, limit int) ([]ArchiveEntry, error) {
	query := `SELECT spectrum_id, kind, acquired_at, points FROM spectra`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY acquired_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := a.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("specstore: list spectra: %w", err)
	}
	defer rows.Close()

	var entries []ArchiveEntry
	for rows.Next() {
		var e ArchiveEntry
		if err := rows.Scan(&e.ID, &e.Kind, &e.Timestamp, &e.Points); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteSpectrum removes an archived snapshot.
func (a *Archive) DeleteSpectrum(id string) error {
	res, err := a.Exec(`DELETE FROM spectra WHERE spectrum_id = ?`, id)
	if err != nil {
		return fmt.Errorf("specstore: delete spectrum %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("specstore: no spectrum with id %s", id)
	}
	return nil
}
