package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangePriority(t *testing.T) {
	perm := &FileChangeInfo{Path: "a@x.com/dir/_.syftperm", NumBytes: 5000}
	assert.Equal(t, int64(0), perm.Priority())

	small := &FileChangeInfo{Path: "a@x.com/small.txt", NumBytes: 10}
	assert.Equal(t, int64(10), small.Priority())

	// deletions carry zero bytes but still rank behind permission files
	deleted := &FileChangeInfo{Path: "a@x.com/gone.txt", NumBytes: 0}
	assert.Equal(t, int64(1), deleted.Priority())
}

func TestSyncQueueOrdering(t *testing.T) {
	q := NewSyncQueue()

	q.Put(&FileChangeInfo{Path: "a@x.com/big.bin", SideLastModified: SideLocal, NumBytes: 1 << 20})
	q.Put(&FileChangeInfo{Path: "a@x.com/small.txt", SideLastModified: SideLocal, NumBytes: 64})
	q.Put(&FileChangeInfo{Path: "a@x.com/dir/_.syftperm", SideLastModified: SideRemote, NumBytes: 200})

	change, ok := q.TryGet()
	require.True(t, ok)
	assert.Equal(t, "a@x.com/dir/_.syftperm", change.Path)

	change, _ = q.TryGet()
	assert.Equal(t, "a@x.com/small.txt", change.Path)

	change, _ = q.TryGet()
	assert.Equal(t, "a@x.com/big.bin", change.Path)

	_, ok = q.TryGet()
	assert.False(t, ok)
}

func TestSyncQueueDedup(t *testing.T) {
	q := NewSyncQueue()

	first := &FileChangeInfo{Path: "a@x.com/f.txt", DateLastModified: time.Now(), NumBytes: 10}
	assert.True(t, q.Put(first))
	assert.False(t, q.Put(&FileChangeInfo{Path: "a@x.com/f.txt", NumBytes: 99}))
	assert.Equal(t, 1, q.Len())
	assert.True(t, q.Contains("a@x.com/f.txt"))

	got, ok := q.TryGet()
	require.True(t, ok)
	assert.Same(t, first, got)
	assert.False(t, q.Contains("a@x.com/f.txt"))
}
