package datasite

import (
	"archive/tar"
	"bytes"
	"fmt"
	"time"
)

// tarArchive packs the given paths into an in-memory tar stream, in order.
func tarArchive(order []string, bodies map[string][]byte) ([]byte, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	now := time.Now().UTC()
	for _, path := range order {
		body := bodies[path]
		header := &tar.Header{
			Name:    path,
			Mode:    0o644,
			Size:    int64(len(body)),
			ModTime: now,
		}
		if err := tw.WriteHeader(header); err != nil {
			return nil, fmt.Errorf("tar header %s: %w", path, err)
		}
		if _, err := tw.Write(body); err != nil {
			return nil, fmt.Errorf("tar body %s: %w", path, err)
		}
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("close tar: %w", err)
	}
	return buf.Bytes(), nil
}
