package permtree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	owner = "alice@example.com"
	bob   = "bob@example.com"
)

func TestOwnerAlwaysAdmin(t *testing.T) {
	tree := NewTree(owner)

	access := tree.Effective("anything/file.txt", owner)
	assert.True(t, access.Read)
	assert.True(t, access.Write)
	assert.True(t, access.Admin)
}

func TestDenyWithoutPermFile(t *testing.T) {
	tree := NewTree(owner)

	access := tree.Effective("folder/file.txt", bob)
	assert.False(t, access.Read)
	assert.False(t, access.Write)
	assert.False(t, access.Admin)
}

func TestDeepestFileWins(t *testing.T) {
	tree := NewTree(owner)
	tree.Set("", PublicRead(owner))
	tree.Set("private", OwnerOnly(owner))

	assert.True(t, tree.Effective("readme.txt", bob).Read)
	assert.False(t, tree.Effective("private/secret.txt", bob).Read)
	// nested dirs fall through to the deepest ancestor
	assert.False(t, tree.Effective("private/deep/nested.txt", bob).Read)
	assert.True(t, tree.Effective("public/data.csv", bob).Read)
}

func TestGlobalNeverGrantsAdmin(t *testing.T) {
	pf := &PermFile{
		Admin: []string{Everyone},
		Read:  []string{Everyone},
		Write: []string{Everyone},
	}

	access := pf.AccessFor(bob)
	assert.True(t, access.Read)
	assert.True(t, access.Write)
	assert.False(t, access.Admin)
}

func TestAdminImpliesAll(t *testing.T) {
	pf := &PermFile{Admin: []string{bob}}

	access := pf.AccessFor(bob)
	assert.True(t, access.Read)
	assert.True(t, access.Write)
	assert.True(t, access.Admin)
}

func TestLoadTree(t *testing.T) {
	root := t.TempDir()

	require.NoError(t, OwnerOnly(owner).Save(root))
	require.NoError(t, PublicRead(owner).Save(filepath.Join(root, "public")))

	// a corrupt perm file is skipped, its dir falls through to the parent
	badDir := filepath.Join(root, "bad")
	require.NoError(t, os.MkdirAll(badDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(badDir, PermFileName), []byte("{nope"), 0o644))

	tree, err := LoadTree(owner, root)
	require.NoError(t, err)
	assert.Equal(t, 2, tree.Len())

	assert.False(t, tree.Effective("notes.txt", bob).Read)
	assert.True(t, tree.Effective("public/data.csv", bob).Read)
	assert.False(t, tree.Effective("bad/file.txt", bob).Read)
}

func TestLoadTreeMissingDir(t *testing.T) {
	tree, err := LoadTree(owner, filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Equal(t, 0, tree.Len())
}

func TestIsPermFilePath(t *testing.T) {
	assert.True(t, IsPermFilePath("a@x.com/_.syftperm"))
	assert.True(t, IsPermFilePath("a@x.com/deep/dir/_.syftperm"))
	assert.False(t, IsPermFilePath("a@x.com/file.txt"))
}
