// Package sqlite persists a memory.Index as a single SQLite file per language.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/Ayutada/bluesky-analyzer/internal/domain"
	"github.com/Ayutada/bluesky-analyzer/internal/vectorstore"
	"github.com/Ayutada/bluesky-analyzer/internal/vectorstore/memory"
)

// FormatVersion is bumped whenever the on-disk layout changes.
const FormatVersion = 1

const schema = `
CREATE TABLE meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE chunks (
	position        INTEGER PRIMARY KEY,
	id              TEXT NOT NULL,
	document_id     TEXT NOT NULL,
	language        TEXT NOT NULL,
	source_label    TEXT NOT NULL,
	content         TEXT NOT NULL,
	sequence_index  INTEGER NOT NULL,
	start_offset    INTEGER NOT NULL,
	length          INTEGER NOT NULL,
	embedding       BLOB NOT NULL
);
`

// Save writes ix to path, replacing any previous file atomically.
func Save(ctx context.Context, path string, ix *memory.Index) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	tmp := path + ".tmp"
	_ = os.Remove(tmp)

	if err := write(ctx, tmp, ix); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing index file: %w", err)
	}
	return nil
}

func write(ctx context.Context, path string, ix *memory.Index) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	meta := map[string]string{
		"version":   strconv.Itoa(FormatVersion),
		"language":  string(ix.Language()),
		"dimension": strconv.Itoa(ix.Dimension()),
		"metric":    vectorstore.Metric,
		"count":     strconv.Itoa(ix.Len()),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("saving meta %s: %w", k, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (position, id, document_id, language, source_label, content,
			sequence_index, start_offset, length, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, e := range ix.Entries() {
		c := e.Chunk
		if _, err := stmt.ExecContext(ctx, i, c.ID, c.ParentDocumentID, string(c.Language), c.SourceLabel,
			c.Text, c.SequenceIndex, c.StartOffset, c.Length, float64SliceToBytes(e.Vector)); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Load reads an index written by Save. A missing or unreadable file, or one
// whose contents disagree with its metadata, yields *domain.IndexNotFoundError.
func Load(ctx context.Context, path string) (*memory.Index, error) {
	// sql.Open would create a missing file
	if _, err := os.Stat(path); err != nil {
		return nil, &domain.IndexNotFoundError{Location: path, Err: err}
	}
	ix, err := read(ctx, path)
	if err != nil {
		return nil, &domain.IndexNotFoundError{Location: path, Err: err}
	}
	return ix, nil
}

func read(ctx context.Context, path string) (*memory.Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	meta, err := readMeta(ctx, db)
	if err != nil {
		return nil, err
	}
	version, err := strconv.Atoi(meta["version"])
	if err != nil || version != FormatVersion {
		return nil, fmt.Errorf("unsupported format version %q", meta["version"])
	}
	if meta["metric"] != vectorstore.Metric {
		return nil, fmt.Errorf("unsupported metric %q", meta["metric"])
	}
	dimension, err := strconv.Atoi(meta["dimension"])
	if err != nil || dimension < 0 {
		return nil, fmt.Errorf("bad dimension %q", meta["dimension"])
	}
	count, err := strconv.Atoi(meta["count"])
	if err != nil || count < 0 {
		return nil, fmt.Errorf("bad count %q", meta["count"])
	}
	language := domain.Language(meta["language"])

	rows, err := db.QueryContext(ctx, `
		SELECT id, document_id, language, source_label, content, sequence_index, start_offset, length, embedding
		FROM chunks ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	chunks := make([]domain.Chunk, 0, count)
	vectors := make([][]float64, 0, count)
	for rows.Next() {
		var c domain.Chunk
		var lang string
		var blob []byte
		if err := rows.Scan(&c.ID, &c.ParentDocumentID, &lang, &c.SourceLabel, &c.Text,
			&c.SequenceIndex, &c.StartOffset, &c.Length, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if len(blob) != dimension*8 {
			return nil, fmt.Errorf("chunk %s: embedding has %d bytes, want %d", c.ID, len(blob), dimension*8)
		}
		c.Language = domain.Language(lang)
		chunks = append(chunks, c)
		vectors = append(vectors, bytesToFloat64Slice(blob))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	if len(chunks) != count {
		return nil, fmt.Errorf("expected %d chunks, found %d", count, len(chunks))
	}
	return memory.Build(language, chunks, vectors)
}

func readMeta(ctx context.Context, db *sql.DB) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return nil, fmt.Errorf("querying meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scanning meta: %w", err)
		}
		meta[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, k := range []string{"version", "language", "dimension", "metric", "count"} {
		if _, ok := meta[k]; !ok {
			return nil, errors.New("missing meta key " + k)
		}
	}
	return meta, nil
}

// float64SliceToBytes converts a []float64 to a little-endian byte slice.
func float64SliceToBytes(floats []float64) []byte {
	buf := make([]byte, len(floats)*8)
	for i, f := range floats {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

// bytesToFloat64Slice converts a byte slice back to []float64.
func bytesToFloat64Slice(data []byte) []float64 {
	floats := make([]float64, len(data)/8)
	for i := range floats {
		floats[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return floats
}
