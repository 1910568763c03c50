package permtree

import (
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/openmined/syftbox/internal/utils"
)

// Tree is the materialized union of all permission files under one datasite.
// Keys are directory paths relative to the datasite root, "" for the root
// itself.
type Tree struct {
	owner string
	nodes map[string]*PermFile
}

// NewTree builds an empty tree for a datasite owner.
func NewTree(owner string) *Tree {
	return &Tree{
		owner: owner,
		nodes: make(map[string]*PermFile),
	}
}

// Owner returns the datasite email this tree belongs to.
func (t *Tree) Owner() string {
	return t.owner
}

// Set installs the permission file governing dir (datasite-relative, "" for
// the root).
func (t *Tree) Set(dir string, pf *PermFile) {
	t.nodes[normDir(dir)] = pf
}

// Len returns the number of permission files in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// LoadTree walks datasiteRoot for permission files and materializes the tree.
// A file that fails to parse is skipped with a warning; its directory then
// falls through to the nearest ancestor.
func LoadTree(owner, datasiteRoot string) (*Tree, error) {
	tree := NewTree(owner)
	if !utils.DirExists(datasiteRoot) {
		return tree, nil
	}

	err := filepath.WalkDir(datasiteRoot, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() || d.Name() != PermFileName {
			return nil
		}

		pf, err := Load(p)
		if err != nil {
			slog.Warn("bad permission file", "path", p, "error", err)
			return nil
		}

		rel, err := filepath.Rel(datasiteRoot, filepath.Dir(p))
		if err != nil {
			return nil
		}
		tree.Set(utils.NormPath(rel), pf)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return tree, nil
}

// Effective answers whether user may read, write or administer the
// datasite-relative path. The deepest ancestor permission file on the path
// decides; no permission file means deny. The datasite owner always holds
// admin, which is what lets a fresh datasite bootstrap its first permission
// file.
func (t *Tree) Effective(relPath string, user string) Access {
	if user == t.owner {
		return Access{Read: true, Write: true, Admin: true}
	}

	dir := normDir(path.Dir(utils.NormPath(relPath)))
	for {
		if pf, ok := t.nodes[dir]; ok {
			return pf.AccessFor(user)
		}
		if dir == "" {
			return Access{}
		}
		parent := path.Dir(dir)
		if parent == "." || parent == "/" {
			parent = ""
		}
		dir = parent
	}
}

func normDir(dir string) string {
	dir = strings.Trim(dir, "/")
	if dir == "." {
		return ""
	}
	return dir
}
