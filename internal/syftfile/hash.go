package syftfile

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// HashBytes returns the hex-encoded SHA-256 digest of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashFile returns the hex-encoded SHA-256 digest of the file at path,
// reading it in chunks.
func HashFile(path string) (string, error) {
	fd, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer fd.Close()

	h := sha256.New()
	if _, err := io.Copy(h, fd); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// StatFile hashes a single file and captures its size and mtime. Returns nil
// metadata without error if the path does not exist or is not a regular file.
// Symlinks are followed; callers that must reject them should Lstat first.
func StatFile(absPath, relPath string) (*FileMetadata, error) {
	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, nil
	}

	hash, err := HashFile(absPath)
	if err != nil {
		return nil, err
	}

	return &FileMetadata{
		Path:         relPath,
		Hash:         hash,
		Size:         info.Size(),
		LastModified: info.ModTime(),
	}, nil
}
