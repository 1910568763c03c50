package syftfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashBytes(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		HashBytes(nil))
	assert.Equal(t, HashBytes([]byte("hello")), HashBytes([]byte("hello")))
	assert.NotEqual(t, HashBytes([]byte("hello")), HashBytes([]byte("world")))
}

func TestHashFileMatchesHashBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	body := []byte("some file content")
	require.NoError(t, os.WriteFile(path, body, 0o644))

	hash, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, HashBytes(body), hash)
}

func TestStatFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	body := []byte("0123456789")
	require.NoError(t, os.WriteFile(path, body, 0o644))

	meta, err := StatFile(path, "a@x.com/data.bin")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "a@x.com/data.bin", meta.Path)
	assert.Equal(t, HashBytes(body), meta.Hash)
	assert.Equal(t, int64(len(body)), meta.Size)
	assert.WithinDuration(t, time.Now(), meta.LastModified, time.Minute)

	// missing files and non-regular entries yield nil without error
	meta, err = StatFile(filepath.Join(dir, "nope"), "nope")
	require.NoError(t, err)
	assert.Nil(t, meta)

	meta, err = StatFile(dir, "dir")
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestHashDir(t *testing.T) {
	root := t.TempDir()
	write := func(rel, body string) {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}

	write("top.txt", "one")
	write("nested/deep/file.csv", "two")
	write(".hidden", "skip me")
	write(".hiddendir/inner.txt", "skip me too")
	require.NoError(t, os.Symlink(filepath.Join(root, "top.txt"), filepath.Join(root, "link.txt")))

	result, err := HashDir(context.Background(), root, HashDirOptions{})
	require.NoError(t, err)

	assert.Len(t, result, 2)
	require.Contains(t, result, "top.txt")
	require.Contains(t, result, "nested/deep/file.csv")
	assert.Equal(t, HashBytes([]byte("one")), result["top.txt"].Hash)
	assert.Equal(t, HashBytes([]byte("two")), result["nested/deep/file.csv"].Hash)
}

func TestHashDirFollowSymlinks(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "real.txt"), []byte("real"), 0o644))
	require.NoError(t, os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "link.txt")))

	result, err := HashDir(context.Background(), root, HashDirOptions{FollowSymlinks: true})
	require.NoError(t, err)
	assert.Len(t, result, 2)
	assert.Contains(t, result, "link.txt")
}

func TestHashDirMissingRoot(t *testing.T) {
	result, err := HashDir(context.Background(), filepath.Join(t.TempDir(), "nope"), HashDirOptions{})
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub/dir/out.txt")

	require.NoError(t, WriteFileAtomic(path, []byte("v1")))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	// overwrite in place, no temp files left behind
	require.NoError(t, WriteFileAtomic(path, []byte("v2")))
	got, _ = os.ReadFile(path)
	assert.Equal(t, []byte("v2"), got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFileVerified(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	body := []byte("payload")

	require.NoError(t, WriteFileVerified(path, body, HashBytes(body)))

	err := WriteFileVerified(path, []byte("tampered"), HashBytes(body))
	require.Error(t, err)

	// the failed write never touched the destination
	got, _ := os.ReadFile(path)
	assert.Equal(t, body, got)
}

func TestRemoveWithEmptyParents(t *testing.T) {
	root := t.TempDir()
	keep := filepath.Join(root, "a", "keep.txt")
	victim := filepath.Join(root, "a", "b", "c", "victim.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(victim), 0o755))
	require.NoError(t, os.WriteFile(keep, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(victim, []byte("y"), 0o644))

	require.NoError(t, RemoveWithEmptyParents(victim, root))

	// b and c are gone, a survives because keep.txt is in it
	_, err := os.Stat(filepath.Join(root, "a", "b"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(keep)
	assert.NoError(t, err)

	// deleting a missing file is not an error
	assert.NoError(t, RemoveWithEmptyParents(victim, root))
}

func TestB85BytesJSON(t *testing.T) {
	// the ascii85 alphabet includes '"' and '\', and runs of zeros collapse
	// to 'z', so cover bodies that hit each of those in the encoded form
	fullRange := make(B85Bytes, 256)
	for i := range fullRange {
		fullRange[i] = byte(i)
	}

	cases := map[string]B85Bytes{
		"plain":      B85Bytes("some binary \x00\x01\x02 payload"),
		"quote":      {0, 0, 0, 1},    // encodes to !!!!"
		"backslash":  {0, 0, 0, 0x3b}, // encodes to !!!!\
		"zeros":      make(B85Bytes, 64),
		"full range": fullRange,
	}

	for name, original := range cases {
		t.Run(name, func(t *testing.T) {
			data, err := json.Marshal(original)
			require.NoError(t, err)
			assert.True(t, json.Valid(data))

			var decoded B85Bytes
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, original, decoded)
		})
	}

	var empty B85Bytes
	require.NoError(t, json.Unmarshal([]byte(`""`), &empty))
	assert.Empty(t, empty)

	var decoded B85Bytes
	assert.Error(t, json.Unmarshal([]byte(`123`), &decoded))
}

func TestSameContent(t *testing.T) {
	a := &FileMetadata{Hash: "h1"}
	b := &FileMetadata{Hash: "h1"}
	c := &FileMetadata{Hash: "h2"}

	assert.True(t, SameContent(a, b))
	assert.False(t, SameContent(a, c))
	assert.False(t, SameContent(a, nil))
	assert.True(t, SameContent(nil, nil))
}

func TestNewer(t *testing.T) {
	old := &FileMetadata{LastModified: time.Now().Add(-time.Hour)}
	recent := &FileMetadata{LastModified: time.Now()}

	assert.Same(t, recent, Newer(old, recent))
	assert.Same(t, recent, Newer(recent, old))
	assert.Same(t, old, Newer(old, nil))
	assert.Same(t, old, Newer(nil, old))
}
