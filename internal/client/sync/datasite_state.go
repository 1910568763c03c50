package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/openmined/syftbox/internal/permtree"
	"github.com/openmined/syftbox/internal/syftfile"
)

// deleteDebounce defers acting on a very recent local deletion. Atomic
// replaces briefly unlink the destination; without the grace window such a
// file would be deleted on the server mid-write.
const deleteDebounce = 3 * time.Second

// DatasiteState holds the three views of one datasite for a single pass.
type DatasiteState struct {
	email     string
	localDir  string
	remoteNow map[string]*syftfile.FileMetadata
	prevSync  map[string]*syftfile.FileMetadata
	ignore    *IgnoreList
}

// OutOfSync is the classified divergence of one datasite.
type OutOfSync struct {
	Permissions []*FileChangeInfo
	Files       []*FileChangeInfo
	Ignored     []string
}

// NewDatasiteState builds the pass-scoped view of one datasite. remoteNow is
// the server's current metadata keyed by sync path; prevSync is the last
// synced snapshot restricted to this datasite.
func NewDatasiteState(email, localDir string, remote []*syftfile.FileMetadata, prevSync map[string]*syftfile.FileMetadata, ignore *IgnoreList) *DatasiteState {
	remoteNow := make(map[string]*syftfile.FileMetadata, len(remote))
	for _, meta := range remote {
		remoteNow[meta.Path] = meta
	}
	return &DatasiteState{
		email:     email,
		localDir:  localDir,
		remoteNow: remoteNow,
		prevSync:  prevSync,
		ignore:    ignore,
	}
}

// Email returns the datasite owner.
func (d *DatasiteState) Email() string {
	return d.email
}

// GetOutOfSyncFiles hashes the local tree, compares it against the remote
// view and classifies each diverged path. Permission file changes are kept
// apart so the caller can enqueue them first.
func (d *DatasiteState) GetOutOfSyncFiles(ctx context.Context) (*OutOfSync, error) {
	localAll, err := syftfile.HashDir(ctx, d.localDir, syftfile.HashDirOptions{})
	if err != nil {
		return nil, fmt.Errorf("hash datasite %s: %w", d.email, err)
	}

	result := &OutOfSync{}

	// re-key to sync paths and peel off ignored entries
	localNow := make(map[string]*syftfile.FileMetadata, len(localAll))
	for rel, meta := range localAll {
		path := d.email + "/" + rel
		if d.ignore.ShouldIgnore(path) {
			result.Ignored = append(result.Ignored, path)
			continue
		}
		meta.Path = path
		localNow[path] = meta
	}

	seen := make(map[string]struct{}, len(localNow)+len(d.remoteNow))
	addChange := func(change *FileChangeInfo) {
		if permtree.IsPermFilePath(change.Path) {
			result.Permissions = append(result.Permissions, change)
		} else {
			result.Files = append(result.Files, change)
		}
	}

	for path, local := range localNow {
		seen[path] = struct{}{}
		remote := d.remoteNow[path]

		switch {
		case remote == nil:
			addChange(&FileChangeInfo{
				Path:             path,
				SideLastModified: SideLocal,
				DateLastModified: local.LastModified,
				NumBytes:         local.Size,
			})
		case local.Hash == remote.Hash:
			// in sync
		case local.LastModified.After(remote.LastModified):
			addChange(&FileChangeInfo{
				Path:             path,
				SideLastModified: SideLocal,
				DateLastModified: local.LastModified,
				NumBytes:         local.Size,
			})
		default:
			addChange(&FileChangeInfo{
				Path:             path,
				SideLastModified: SideRemote,
				DateLastModified: remote.LastModified,
				NumBytes:         remote.Size,
			})
		}
	}

	for path, remote := range d.remoteNow {
		if _, ok := seen[path]; ok {
			continue
		}
		if d.ignore.ShouldIgnore(path) {
			result.Ignored = append(result.Ignored, path)
			continue
		}
		if d.recentlyDeletedLocally(path) {
			continue
		}
		addChange(&FileChangeInfo{
			Path:             path,
			SideLastModified: SideRemote,
			DateLastModified: remote.LastModified,
			NumBytes:         remote.Size,
		})
	}

	return result, nil
}

// recentlyDeletedLocally defers a local deletion that happened within the
// grace window.
func (d *DatasiteState) recentlyDeletedLocally(path string) bool {
	prev, ok := d.prevSync[path]
	if !ok {
		return false
	}
	return time.Since(prev.LastModified) < deleteDebounce
}
