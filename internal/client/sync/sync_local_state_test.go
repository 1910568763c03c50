package sync

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmined/syftbox/internal/syftfile"
)

func stateFilePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "plugins", "local_syncstate.json")
}

func TestLocalStateFirstRun(t *testing.T) {
	path := stateFilePath(t)

	ls := NewLocalState(path)
	require.NoError(t, ls.Load())

	// first load creates the file so later removal is detectable
	assert.FileExists(t, path)
	assert.Empty(t, ls.SyncedSnapshot())
}

func TestLocalStateRoundTrip(t *testing.T) {
	path := stateFilePath(t)

	ls := NewLocalState(path)
	require.NoError(t, ls.Load())

	meta := &syftfile.FileMetadata{
		Path:         "a@x.com/notes.txt",
		Hash:         "abc123",
		Size:         42,
		LastModified: time.Now().UTC().Truncate(time.Second),
	}
	ls.InsertSyncedFile(meta.Path, meta, ActionCreateRemote)
	ls.InsertStatusInfo("a@x.com/other.txt", StatusError, ActionModifyLocal, "boom")
	require.NoError(t, ls.Save())

	reloaded := NewLocalState(path)
	require.NoError(t, reloaded.Load())

	got := reloaded.GetSynced(meta.Path)
	require.NotNil(t, got)
	assert.Equal(t, meta.Hash, got.Hash)
	assert.Equal(t, meta.Size, got.Size)

	info := reloaded.GetStatus("a@x.com/other.txt")
	require.NotNil(t, info)
	assert.Equal(t, StatusError, info.Status)
	assert.Equal(t, ActionModifyLocal, info.Action)
	assert.Equal(t, "boom", info.Message)
}

func TestLocalStateDeleteEntry(t *testing.T) {
	ls := NewLocalState(stateFilePath(t))
	require.NoError(t, ls.Load())

	ls.InsertSyncedFile("a@x.com/f.txt", &syftfile.FileMetadata{Path: "a@x.com/f.txt", Hash: "h"}, ActionCreateLocal)
	require.NotNil(t, ls.GetSynced("a@x.com/f.txt"))

	// nil metadata records a deletion
	ls.InsertSyncedFile("a@x.com/f.txt", nil, ActionDeleteLocal)
	assert.Nil(t, ls.GetSynced("a@x.com/f.txt"))
	assert.Equal(t, StatusSynced, ls.GetStatus("a@x.com/f.txt").Status)
}

func TestLocalStateFailsWhenFileRemoved(t *testing.T) {
	path := stateFilePath(t)

	ls := NewLocalState(path)
	require.NoError(t, ls.Load())
	require.NoError(t, os.Remove(path))

	err := ls.Save()
	require.Error(t, err)

	var envErr *SyncEnvironmentError
	assert.ErrorAs(t, err, &envErr)
}

func TestLocalStateSnapshotIsCopy(t *testing.T) {
	ls := NewLocalState(stateFilePath(t))
	require.NoError(t, ls.Load())

	ls.InsertSyncedFile("a@x.com/f.txt", &syftfile.FileMetadata{Path: "a@x.com/f.txt", Hash: "h"}, ActionNoop)

	snapshot := ls.SyncedSnapshot()
	delete(snapshot, "a@x.com/f.txt")
	assert.NotNil(t, ls.GetSynced("a@x.com/f.txt"))
}
