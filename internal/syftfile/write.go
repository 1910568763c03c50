package syftfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/openmined/syftbox/internal/utils"
)

// WriteFileVerified atomically writes body to path after checking its SHA-256
// digest against expectedHash. The temp file lives in the destination
// directory so the final rename never crosses filesystems; the destination is
// never partially written.
func WriteFileVerified(path string, body []byte, expectedHash string) error {
	computed := HashBytes(body)
	if expectedHash != "" && computed != expectedHash {
		return fmt.Errorf("integrity check failed for %s: expected %q got %q", path, expectedHash, computed)
	}
	return WriteFileAtomic(path, body)
}

// WriteFileAtomic writes body to path via temp file + fsync + rename.
func WriteFileAtomic(path string, body []byte) error {
	if err := utils.EnsureParent(path); err != nil {
		return fmt.Errorf("ensure parent: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(body); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file to %s: %w", path, err)
	}

	success = true
	return nil
}

// RemoveWithEmptyParents unlinks path and removes any ancestor directories
// that became empty, stopping at stopDir.
func RemoveWithEmptyParents(path, stopDir string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}

	dir := filepath.Dir(path)
	for dir != stopDir && len(dir) > len(stopDir) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			break
		}
		if err := os.Remove(dir); err != nil {
			break
		}
		dir = filepath.Dir(dir)
	}
	return nil
}
