package syftfile

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/openmined/syftbox/internal/utils"
	"golang.org/x/sync/errgroup"
)

// HashDirOptions controls directory enumeration.
type HashDirOptions struct {
	IncludeHidden  bool
	FollowSymlinks bool
}

// HashDir walks root and returns metadata for every regular file, keyed by
// POSIX relative path. Hidden entries and symlinks are skipped unless enabled.
// Hashing runs on a bounded worker pool; a file that cannot be read is logged
// and omitted, it never fails the walk.
func HashDir(ctx context.Context, root string, opts HashDirOptions) (map[string]*FileMetadata, error) {
	if !utils.DirExists(root) {
		return map[string]*FileMetadata{}, nil
	}

	var mu sync.Mutex
	result := make(map[string]*FileMetadata)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			slog.Warn("hash walk", "path", path, "error", walkErr)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		name := d.Name()
		if !opts.IncludeHidden && strings.HasPrefix(name, ".") && path != root {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			if !opts.FollowSymlinks {
				return nil
			}
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			slog.Warn("hash rel path", "path", path, "error", err)
			return nil
		}
		relPath = utils.NormPath(relPath)

		g.Go(func() error {
			meta, err := StatFile(path, relPath)
			if err != nil {
				slog.Warn("hash file", "path", path, "error", err)
				return nil
			}
			if meta == nil {
				return nil
			}
			mu.Lock()
			result[relPath] = meta
			mu.Unlock()
			return nil
		})

		return nil
	})

	if gErr := g.Wait(); gErr != nil && err == nil {
		err = gErr
	}
	if err != nil {
		return nil, err
	}

	return result, nil
}
