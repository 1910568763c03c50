package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/openmined/syftbox/internal/syftfile"
	"github.com/openmined/syftbox/internal/utils"
)

// Snapshot is the on-disk mirror of every datasite. Writes for one path are
// serialized by a per-path lock held across the whole read-modify-write.
type Snapshot struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

func NewSnapshot(root string) (*Snapshot, error) {
	resolved, err := utils.ResolvePath(root)
	if err != nil {
		return nil, fmt.Errorf("resolve snapshot root: %w", err)
	}
	if err := utils.EnsureDir(resolved); err != nil {
		return nil, fmt.Errorf("create snapshot root: %w", err)
	}
	return &Snapshot{
		root:  resolved,
		locks: make(map[string]*sync.RWMutex),
	}, nil
}

// Root returns the snapshot directory.
func (s *Snapshot) Root() string {
	return s.root
}

// AbsPath maps a sync path to its snapshot location. It rejects paths that
// escape the snapshot root.
func (s *Snapshot) AbsPath(relPath string) (string, error) {
	relPath = utils.NormPath(relPath)
	if relPath == "" || relPath == "." {
		return "", fmt.Errorf("invalid path %q", relPath)
	}
	for _, seg := range strings.Split(relPath, "/") {
		if seg == ".." {
			return "", fmt.Errorf("invalid path %q", relPath)
		}
	}
	abs := filepath.Join(s.root, filepath.FromSlash(relPath))
	if !strings.HasPrefix(abs, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid path %q", relPath)
	}
	return abs, nil
}

// Read returns the bytes of one path. A missing file reports os.ErrNotExist.
func (s *Snapshot) Read(relPath string) ([]byte, error) {
	abs, err := s.AbsPath(relPath)
	if err != nil {
		return nil, err
	}

	lock := s.pathLock(relPath)
	lock.RLock()
	defer lock.RUnlock()

	return os.ReadFile(abs)
}

// Exists reports whether a path is present in the snapshot.
func (s *Snapshot) Exists(relPath string) bool {
	abs, err := s.AbsPath(relPath)
	if err != nil {
		return false
	}
	return utils.FileExists(abs)
}

// Write atomically replaces the bytes of one path.
func (s *Snapshot) Write(relPath string, body []byte) error {
	abs, err := s.AbsPath(relPath)
	if err != nil {
		return err
	}

	lock := s.pathLock(relPath)
	lock.Lock()
	defer lock.Unlock()

	return syftfile.WriteFileAtomic(abs, body)
}

// Update runs fn over the current bytes of one path under its exclusive
// lock and atomically writes the result. fn receives nil, false when the path
// does not exist yet. Returning an error from fn leaves the snapshot
// untouched.
func (s *Snapshot) Update(relPath string, fn func(current []byte, exists bool) ([]byte, error)) error {
	abs, err := s.AbsPath(relPath)
	if err != nil {
		return err
	}

	lock := s.pathLock(relPath)
	lock.Lock()
	defer lock.Unlock()

	current, err := os.ReadFile(abs)
	exists := err == nil
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read snapshot %s: %w", relPath, err)
	}

	next, err := fn(current, exists)
	if err != nil {
		return err
	}

	return syftfile.WriteFileAtomic(abs, next)
}

// Delete unlinks one path and prunes empty ancestors up to the snapshot
// root.
func (s *Snapshot) Delete(relPath string) error {
	abs, err := s.AbsPath(relPath)
	if err != nil {
		return err
	}

	lock := s.pathLock(relPath)
	lock.Lock()
	defer lock.Unlock()

	if !utils.FileExists(abs) {
		return os.ErrNotExist
	}
	return syftfile.RemoveWithEmptyParents(abs, s.root)
}

func (s *Snapshot) pathLock(relPath string) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[relPath]
	if !ok {
		lock = &sync.RWMutex{}
		s.locks[relPath] = lock
	}
	return lock
}
