// Package store keeps the server's view of every synced file: a SQLite
// metadata index and an on-disk snapshot of the file bodies.
package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/openmined/syftbox/internal/syftfile"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS files (
	path TEXT PRIMARY KEY,
	hash TEXT NOT NULL,
	signature BLOB NOT NULL,
	size INTEGER NOT NULL,
	last_modified TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_files_hash ON files(hash);
`

// fileRow is the sql representation of one file's metadata.
type fileRow struct {
	Path         string `db:"path"`
	Hash         string `db:"hash"`
	Signature    []byte `db:"signature"`
	Size         int64  `db:"size"`
	LastModified string `db:"last_modified"`
}

func (r *fileRow) toMetadata() *syftfile.FileMetadata {
	modified, _ := time.Parse(time.RFC3339Nano, r.LastModified)
	return &syftfile.FileMetadata{
		Path:         r.Path,
		Hash:         r.Hash,
		Signature:    r.Signature,
		Size:         r.Size,
		LastModified: modified,
	}
}

// Index is the file metadata table.
type Index struct {
	db *sqlx.DB
}

func NewIndex(db *sqlx.DB) (*Index, error) {
	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("initialize file index: %w", err)
	}
	return &Index{db: db}, nil
}

// Get retrieves the metadata of one path.
func (i *Index) Get(path string) (*syftfile.FileMetadata, bool) {
	var row fileRow
	err := i.db.Get(&row, "SELECT path, hash, signature, size, last_modified FROM files WHERE path = ?", path)
	if err != nil {
		return nil, false
	}
	return row.toMetadata(), true
}

// Set inserts or replaces the metadata of one path.
func (i *Index) Set(meta *syftfile.FileMetadata) error {
	_, err := i.db.Exec(
		`INSERT OR REPLACE INTO files (path, hash, signature, size, last_modified) VALUES (?, ?, ?, ?, ?)`,
		meta.Path, meta.Hash, []byte(meta.Signature), meta.Size, meta.LastModified.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Remove deletes the metadata of one path.
func (i *Index) Remove(path string) error {
	_, err := i.db.Exec("DELETE FROM files WHERE path = ?", path)
	return err
}

// List returns the metadata of every file.
func (i *Index) List() ([]*syftfile.FileMetadata, error) {
	return i.selectRows("SELECT path, hash, signature, size, last_modified FROM files ORDER BY path")
}

// FilterByPrefix returns the metadata of files whose path starts with prefix.
func (i *Index) FilterByPrefix(prefix string) ([]*syftfile.FileMetadata, error) {
	return i.selectRows("SELECT path, hash, signature, size, last_modified FROM files WHERE path GLOB ? ORDER BY path", prefix+"*")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `_`, `\_`)

// FilterLike returns the metadata of files matching an SQL LIKE pattern,
// where '%' is the wildcard. '_' is a literal underscore, not the LIKE
// single-char wildcard.
func (i *Index) FilterLike(pattern string) ([]*syftfile.FileMetadata, error) {
	return i.selectRows(
		`SELECT path, hash, signature, size, last_modified FROM files WHERE path LIKE ? ESCAPE '\' ORDER BY path`,
		likeEscaper.Replace(pattern),
	)
}

// Count returns the number of indexed files.
func (i *Index) Count() int {
	var count int
	if err := i.db.Get(&count, "SELECT COUNT(*) FROM files"); err != nil {
		return 0
	}
	return count
}

func (i *Index) selectRows(query string, args ...any) ([]*syftfile.FileMetadata, error) {
	var rows []fileRow
	if err := i.db.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("query file index: %w", err)
	}

	files := make([]*syftfile.FileMetadata, 0, len(rows))
	for idx := range rows {
		files = append(files, rows[idx].toMetadata())
	}
	return files, nil
}
