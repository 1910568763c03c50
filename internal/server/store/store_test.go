package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmined/syftbox/internal/db"
	"github.com/openmined/syftbox/internal/syftdelta"
	"github.com/openmined/syftbox/internal/syftfile"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	sqldb, err := db.NewSqliteDb(db.WithMaxOpenConns(1))
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })

	store, err := New(sqldb, filepath.Join(t.TempDir(), "snapshot"))
	require.NoError(t, err)
	return store
}

func TestStoreCreate(t *testing.T) {
	s := newTestStore(t)
	body := []byte("file body")

	meta, err := s.Create("a@x.com/dir/file.txt", body)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com/dir/file.txt", meta.Path)
	assert.Equal(t, syftfile.HashBytes(body), meta.Hash)
	assert.Equal(t, int64(len(body)), meta.Size)
	assert.NotEmpty(t, meta.Signature)

	got, err := s.Read("a@x.com/dir/file.txt")
	require.NoError(t, err)
	assert.Equal(t, body, got)

	indexed, ok := s.Get("a@x.com/dir/file.txt")
	require.True(t, ok)
	assert.Equal(t, meta.Hash, indexed.Hash)
	assert.Equal(t, []byte(meta.Signature), []byte(indexed.Signature))

	_, err = s.Create("a@x.com/dir/file.txt", []byte("again"))
	assert.ErrorIs(t, err, ErrExists)
}

func TestStoreApplyDiff(t *testing.T) {
	s := newTestStore(t)
	base := []byte("the quick brown fox jumps over the lazy dog")
	target := []byte("the quick brown fox leaps over the sleepy dog")

	created, err := s.Create("a@x.com/f.txt", base)
	require.NoError(t, err)

	diff, err := syftdelta.Diff(created.Signature, target)
	require.NoError(t, err)

	meta, err := s.ApplyDiff("a@x.com/f.txt", diff, syftfile.HashBytes(target))
	require.NoError(t, err)
	assert.Equal(t, syftfile.HashBytes(target), meta.Hash)

	got, err := s.Read("a@x.com/f.txt")
	require.NoError(t, err)
	assert.Equal(t, target, got)
}

func TestStoreApplyDiffHashMismatch(t *testing.T) {
	s := newTestStore(t)
	base := []byte("original content")
	target := []byte("patched content")

	created, err := s.Create("a@x.com/f.txt", base)
	require.NoError(t, err)

	diff, err := syftdelta.Diff(created.Signature, target)
	require.NoError(t, err)

	_, err = s.ApplyDiff("a@x.com/f.txt", diff, "0000000000000000000000000000000000000000000000000000000000000000")
	assert.ErrorIs(t, err, ErrHashMismatch)

	// nothing was written
	got, err := s.Read("a@x.com/f.txt")
	require.NoError(t, err)
	assert.Equal(t, base, got)
	indexed, _ := s.Get("a@x.com/f.txt")
	assert.Equal(t, created.Hash, indexed.Hash)
}

func TestStoreApplyDiffMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.ApplyDiff("a@x.com/nope.txt", []byte{0x00}, "h")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestStoreDelete(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Create("a@x.com/sub/deep/f.txt", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, s.Delete("a@x.com/sub/deep/f.txt"))
	_, ok := s.Get("a@x.com/sub/deep/f.txt")
	assert.False(t, ok)
	_, err = s.Read("a@x.com/sub/deep/f.txt")
	assert.ErrorIs(t, err, ErrNotExist)

	// emptied parent directories are pruned from the snapshot
	_, err = os.Stat(filepath.Join(s.SnapshotRoot(), "a@x.com"))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, s.Delete("a@x.com/sub/deep/f.txt"), ErrNotExist)
}

func TestStoreFilters(t *testing.T) {
	s := newTestStore(t)
	paths := []string{
		"alice@example.com/_.syftperm",
		"alice@example.com/public/data.csv",
		"alice@example.com/public/_.syftperm",
		"alice@example.com/x.syftperm",
		"bob@example.com/notes.txt",
	}
	for _, p := range paths {
		_, err := s.Create(p, []byte(p))
		require.NoError(t, err)
	}

	assert.Equal(t, 5, s.Count())

	all, err := s.List()
	require.NoError(t, err)
	assert.Len(t, all, 5)

	alice, err := s.ByDatasite("alice@example.com")
	require.NoError(t, err)
	assert.Len(t, alice, 4)

	pub, err := s.ByPrefix("alice@example.com/public/")
	require.NoError(t, err)
	assert.Len(t, pub, 2)

	// '_' must match literally, so x.syftperm stays out
	perms, err := s.Like("alice@example.com/%_.syftperm")
	require.NoError(t, err)
	require.Len(t, perms, 2)
	for _, meta := range perms {
		assert.True(t, strings.HasSuffix(meta.Path, "/_.syftperm"), meta.Path)
	}
}

func TestStoreDottedNames(t *testing.T) {
	s := newTestStore(t)

	// ".." inside a filename is legitimate, only a ".." segment escapes
	meta, err := s.Create("a@x.com/notes..md", []byte("dots"))
	require.NoError(t, err)
	assert.Equal(t, "a@x.com/notes..md", meta.Path)

	got, err := s.Read("a@x.com/notes..md")
	require.NoError(t, err)
	assert.Equal(t, []byte("dots"), got)

	_, err = s.Create("../escape.txt", []byte("x"))
	assert.Error(t, err)
}

func TestStoreReindex(t *testing.T) {
	s := newTestStore(t)
	created, err := s.Create("a@x.com/f.txt", []byte("content"))
	require.NoError(t, err)

	// the bytes changed behind the index's back
	require.NoError(t, os.WriteFile(filepath.Join(s.SnapshotRoot(), "a@x.com/f.txt"), []byte("changed"), 0o644))

	meta, err := s.Reindex("a@x.com/f.txt")
	require.NoError(t, err)
	assert.NotEqual(t, created.Hash, meta.Hash)
	assert.Equal(t, syftfile.HashBytes([]byte("changed")), meta.Hash)
}
