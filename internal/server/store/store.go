package store

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/openmined/syftbox/internal/syftdelta"
	"github.com/openmined/syftbox/internal/syftfile"
)

var (
	ErrExists       = errors.New("path already exists")
	ErrNotExist     = errors.New("path does not exist")
	ErrHashMismatch = errors.New("result hash does not match expected hash")
)

// Store combines the metadata index with the snapshot directory. Every write
// recomputes hash and rsync signature so the index never lags the bytes.
type Store struct {
	index    *Index
	snapshot *Snapshot
}

func New(db *sqlx.DB, snapshotRoot string) (*Store, error) {
	index, err := NewIndex(db)
	if err != nil {
		return nil, err
	}
	snapshot, err := NewSnapshot(snapshotRoot)
	if err != nil {
		return nil, err
	}
	return &Store{index: index, snapshot: snapshot}, nil
}

// SnapshotRoot returns the snapshot directory.
func (s *Store) SnapshotRoot() string {
	return s.snapshot.Root()
}

// Get returns the indexed metadata of one path.
func (s *Store) Get(path string) (*syftfile.FileMetadata, bool) {
	return s.index.Get(path)
}

// List returns the metadata of every stored file.
func (s *Store) List() ([]*syftfile.FileMetadata, error) {
	return s.index.List()
}

// ByDatasite returns the metadata of every file in one datasite.
func (s *Store) ByDatasite(email string) ([]*syftfile.FileMetadata, error) {
	return s.index.FilterByPrefix(email + "/")
}

// ByPrefix returns the metadata of files under one directory.
func (s *Store) ByPrefix(prefix string) ([]*syftfile.FileMetadata, error) {
	return s.index.FilterByPrefix(prefix)
}

// Like returns the metadata of files matching an SQL LIKE pattern.
func (s *Store) Like(pattern string) ([]*syftfile.FileMetadata, error) {
	return s.index.FilterLike(pattern)
}

// Count returns the number of stored files.
func (s *Store) Count() int {
	return s.index.Count()
}

// Read returns the current bytes of one path.
func (s *Store) Read(path string) ([]byte, error) {
	body, err := s.snapshot.Read(path)
	if os.IsNotExist(err) {
		return nil, ErrNotExist
	}
	return body, err
}

// Exists reports whether a path is stored.
func (s *Store) Exists(path string) bool {
	_, ok := s.index.Get(path)
	return ok || s.snapshot.Exists(path)
}

// Create stores a new file. It fails with ErrExists when the path is already
// present.
func (s *Store) Create(path string, body []byte) (*syftfile.FileMetadata, error) {
	if s.Exists(path) {
		return nil, ErrExists
	}
	return s.Write(path, body)
}

// Write stores body for path unconditionally and reindexes it.
func (s *Store) Write(path string, body []byte) (*syftfile.FileMetadata, error) {
	if err := s.snapshot.Write(path, body); err != nil {
		return nil, err
	}
	return s.reindex(path, body)
}

// ApplyDiff patches the stored bytes of path with an rsync delta, holding the
// path's write lock across the read-modify-write. If the patched result does
// not hash to expectedHash, nothing is written and ErrHashMismatch is
// returned.
func (s *Store) ApplyDiff(path string, diff []byte, expectedHash string) (*syftfile.FileMetadata, error) {
	var patched []byte

	err := s.snapshot.Update(path, func(current []byte, exists bool) ([]byte, error) {
		if !exists {
			return nil, ErrNotExist
		}

		result, err := syftdelta.Apply(current, diff)
		if err != nil {
			return nil, fmt.Errorf("apply diff %s: %w", path, err)
		}
		if syftfile.HashBytes(result) != expectedHash {
			return nil, ErrHashMismatch
		}

		patched = result
		return result, nil
	})
	if err != nil {
		return nil, err
	}

	return s.reindex(path, patched)
}

// Delete removes a path from the snapshot and the index. It fails with
// ErrNotExist when the path is absent.
func (s *Store) Delete(path string) error {
	err := s.snapshot.Delete(path)
	if os.IsNotExist(err) {
		// the index entry may still linger after a partial delete
		if _, ok := s.index.Get(path); !ok {
			return ErrNotExist
		}
	} else if err != nil {
		return err
	}
	return s.index.Remove(path)
}

// Reindex rebuilds the metadata of one path from the stored bytes, for
// recovery after an unclean shutdown.
func (s *Store) Reindex(path string) (*syftfile.FileMetadata, error) {
	body, err := s.Read(path)
	if err != nil {
		return nil, err
	}
	return s.reindex(path, body)
}

func (s *Store) reindex(path string, body []byte) (*syftfile.FileMetadata, error) {
	meta := &syftfile.FileMetadata{
		Path:         path,
		Hash:         syftfile.HashBytes(body),
		Signature:    syftdelta.Signature(body),
		Size:         int64(len(body)),
		LastModified: time.Now().UTC(),
	}
	if err := s.index.Set(meta); err != nil {
		return nil, fmt.Errorf("index %s: %w", path, err)
	}
	return meta, nil
}
