package sync

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmined/syftbox/internal/syftfile"
)

const dsOwner = "alice@example.com"

func writeLocal(t *testing.T, dir, rel, body string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func changePaths(changes []*FileChangeInfo) []string {
	paths := make([]string, 0, len(changes))
	for _, c := range changes {
		paths = append(paths, c.Path)
	}
	return paths
}

func TestOutOfSyncClassification(t *testing.T) {
	localDir := t.TempDir()
	writeLocal(t, localDir, "only-local.txt", "new here")
	writeLocal(t, localDir, "same.txt", "unchanged")
	writeLocal(t, localDir, "stale.txt", "old local copy")

	hourAgo := time.Now().Add(-time.Hour)
	remote := []*syftfile.FileMetadata{
		{Path: dsOwner + "/same.txt", Hash: syftfile.HashBytes([]byte("unchanged")), Size: 9, LastModified: hourAgo},
		{Path: dsOwner + "/stale.txt", Hash: syftfile.HashBytes([]byte("newer remote copy")), Size: 17, LastModified: time.Now().Add(time.Hour)},
		{Path: dsOwner + "/only-remote.txt", Hash: "h", Size: 5, LastModified: hourAgo},
	}

	state := NewDatasiteState(dsOwner, localDir, remote, nil, NewIgnoreList(""))
	result, err := state.GetOutOfSyncFiles(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		dsOwner + "/only-local.txt",
		dsOwner + "/stale.txt",
		dsOwner + "/only-remote.txt",
	}, changePaths(result.Files))
	assert.Empty(t, result.Permissions)

	bySide := make(map[string]ChangeSide)
	for _, c := range result.Files {
		bySide[c.Path] = c.SideLastModified
	}
	assert.Equal(t, SideLocal, bySide[dsOwner+"/only-local.txt"])
	assert.Equal(t, SideRemote, bySide[dsOwner+"/stale.txt"])
	assert.Equal(t, SideRemote, bySide[dsOwner+"/only-remote.txt"])
}

func TestOutOfSyncPermFilesKeptApart(t *testing.T) {
	localDir := t.TempDir()
	writeLocal(t, localDir, "sub/_.syftperm", `{"read":["*"]}`)
	writeLocal(t, localDir, "sub/data.csv", "1,2,3")

	state := NewDatasiteState(dsOwner, localDir, nil, nil, NewIgnoreList(""))
	result, err := state.GetOutOfSyncFiles(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{dsOwner + "/sub/_.syftperm"}, changePaths(result.Permissions))
	assert.Equal(t, []string{dsOwner + "/sub/data.csv"}, changePaths(result.Files))
}

func TestOutOfSyncIgnored(t *testing.T) {
	localDir := t.TempDir()
	writeLocal(t, localDir, "scratch.tmp", "temp")
	writeLocal(t, localDir, "keep.txt", "keep")

	remote := []*syftfile.FileMetadata{
		{Path: dsOwner + "/remote.swp", Hash: "h", Size: 3, LastModified: time.Now()},
	}

	state := NewDatasiteState(dsOwner, localDir, remote, nil, NewIgnoreList(""))
	result, err := state.GetOutOfSyncFiles(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{dsOwner + "/keep.txt"}, changePaths(result.Files))
	assert.ElementsMatch(t, []string{dsOwner + "/scratch.tmp", dsOwner + "/remote.swp"}, result.Ignored)
}

func TestOutOfSyncDeleteDebounce(t *testing.T) {
	localDir := t.TempDir()

	remote := []*syftfile.FileMetadata{
		{Path: dsOwner + "/recent.txt", Hash: "h1", Size: 5, LastModified: time.Now()},
		{Path: dsOwner + "/old.txt", Hash: "h2", Size: 5, LastModified: time.Now()},
	}
	prevSync := map[string]*syftfile.FileMetadata{
		// synced moments ago, probably an atomic replace in flight
		dsOwner + "/recent.txt": {Path: dsOwner + "/recent.txt", Hash: "h1", LastModified: time.Now()},
		// synced long ago, the local deletion is real
		dsOwner + "/old.txt": {Path: dsOwner + "/old.txt", Hash: "h2", LastModified: time.Now().Add(-time.Minute)},
	}

	state := NewDatasiteState(dsOwner, localDir, remote, prevSync, NewIgnoreList(""))
	result, err := state.GetOutOfSyncFiles(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{dsOwner + "/old.txt"}, changePaths(result.Files))
}
