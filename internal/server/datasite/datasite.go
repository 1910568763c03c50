// Package datasite implements the server side of the sync protocol: listing,
// diffing, patching and deleting files under per-email datasites with
// permission enforcement.
package datasite

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/openmined/syftbox/internal/permtree"
	"github.com/openmined/syftbox/internal/server/store"
	"github.com/openmined/syftbox/internal/syftdelta"
	"github.com/openmined/syftbox/internal/syftfile"
	"github.com/openmined/syftbox/internal/utils"
)

// MaxFileSizeMB mirrors the client-side ceiling. Oversize bodies are refused
// even if a client skips its own check.
const (
	MaxFileSizeMB    = 100
	maxFileSizeBytes = MaxFileSizeMB << 20
)

var (
	ErrInvalidPath  = errors.New("invalid path")
	ErrAccessDenied = errors.New("access denied")
	ErrFileTooLarge = fmt.Errorf("file exceeds the %dMB limit", MaxFileSizeMB)
)

// Service answers the sync endpoints against the store, enforcing each
// datasite's permission tree.
type Service struct {
	store *store.Store

	mu    sync.RWMutex
	trees map[string]*permtree.Tree
}

func NewService(st *store.Store) *Service {
	return &Service{
		store: st,
		trees: make(map[string]*permtree.Tree),
	}
}

// DatasiteStates returns every stored file the user may read, grouped by
// datasite.
func (s *Service) DatasiteStates(user string) (map[string][]*syftfile.FileMetadata, error) {
	files, err := s.store.List()
	if err != nil {
		return nil, err
	}

	states := make(map[string][]*syftfile.FileMetadata)
	for _, meta := range files {
		owner := utils.PathOwner(meta.Path)
		if owner == "" {
			continue
		}
		if !s.canRead(user, meta.Path) {
			continue
		}
		states[owner] = append(states[owner], meta)
	}

	// a datasite with no readable files is still listed for its owner
	if _, ok := states[user]; !ok {
		states[user] = nil
	}
	return states, nil
}

// DirState returns the readable files under one directory.
func (s *Service) DirState(user string, dir string) ([]*syftfile.FileMetadata, error) {
	dir = utils.NormPath(dir)
	if dir == "" || hasDotDot(dir) {
		return nil, ErrInvalidPath
	}

	files, err := s.store.ByPrefix(dir + "/")
	if err != nil {
		return nil, err
	}
	return s.filterReadable(user, files), nil
}

// GetMetadata returns the readable files matching pathLike, where '%' is a
// wildcard.
func (s *Service) GetMetadata(user string, pathLike string) ([]*syftfile.FileMetadata, error) {
	if pathLike == "" || hasDotDot(pathLike) {
		return nil, ErrInvalidPath
	}

	var (
		files []*syftfile.FileMetadata
		err   error
	)
	if strings.Contains(pathLike, "%") {
		files, err = s.store.Like(pathLike)
	} else {
		if meta, ok := s.store.Get(pathLike); ok {
			files = []*syftfile.FileMetadata{meta}
		}
	}
	if err != nil {
		return nil, err
	}
	return s.filterReadable(user, files), nil
}

// GetDiff computes the delta from the client's signature to the server's
// current bytes, plus the hash the client must end up with.
func (s *Service) GetDiff(user string, path string, signature []byte) (diff []byte, hash string, err error) {
	if err := validatePath(path); err != nil {
		return nil, "", err
	}
	if !s.canRead(user, path) {
		return nil, "", ErrAccessDenied
	}

	body, err := s.store.Read(path)
	if err != nil {
		return nil, "", err
	}

	diff, err = syftdelta.Diff(signature, body)
	if err != nil {
		return nil, "", fmt.Errorf("diff %s: %w", path, err)
	}
	return diff, syftfile.HashBytes(body), nil
}

// ApplyDiff patches the stored bytes of path with the client's delta. The
// write only lands if the patched result hashes to expectedHash.
func (s *Service) ApplyDiff(user string, path string, diff []byte, expectedHash string) (*syftfile.FileMetadata, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}
	if !s.canWrite(user, path) {
		return nil, ErrAccessDenied
	}

	meta, err := s.store.ApplyDiff(path, diff, expectedHash)
	if err != nil {
		return nil, err
	}

	s.invalidateTreeFor(path)
	return meta, nil
}

// Create stores a brand new file.
func (s *Service) Create(user string, path string, body []byte) (*syftfile.FileMetadata, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}
	if len(body) > maxFileSizeBytes {
		return nil, ErrFileTooLarge
	}
	if !s.canWrite(user, path) {
		return nil, ErrAccessDenied
	}

	meta, err := s.store.Create(path, body)
	if err != nil {
		return nil, err
	}

	s.invalidateTreeFor(path)
	return meta, nil
}

// Delete removes a file.
func (s *Service) Delete(user string, path string) error {
	if err := validatePath(path); err != nil {
		return err
	}
	if !s.canWrite(user, path) {
		return ErrAccessDenied
	}

	if err := s.store.Delete(path); err != nil {
		return err
	}

	s.invalidateTreeFor(path)
	return nil
}

// Download returns the bytes of one readable file.
func (s *Service) Download(user string, path string) ([]byte, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}
	if !s.canRead(user, path) {
		return nil, ErrAccessDenied
	}
	return s.store.Read(path)
}

// DownloadBulk returns a tar archive of the requested paths. Paths the user
// cannot read or that do not exist are skipped.
func (s *Service) DownloadBulk(user string, paths []string) ([]byte, error) {
	readable := make(map[string][]byte, len(paths))
	order := make([]string, 0, len(paths))

	for _, path := range paths {
		if err := validatePath(path); err != nil {
			continue
		}
		if !s.canRead(user, path) {
			continue
		}
		body, err := s.store.Read(path)
		if err != nil {
			continue
		}
		if _, ok := readable[path]; !ok {
			order = append(order, path)
		}
		readable[path] = body
	}

	return tarArchive(order, readable)
}

// canRead evaluates the effective read permission of user on path.
func (s *Service) canRead(user string, path string) bool {
	owner := utils.PathOwner(path)
	if owner == "" {
		return false
	}
	if owner == user {
		return true
	}
	rel := strings.TrimPrefix(path, owner+"/")
	return s.tree(owner).Effective(rel, user).Read
}

// canWrite evaluates the effective write permission of user on path.
// Permission files themselves take admin.
func (s *Service) canWrite(user string, path string) bool {
	owner := utils.PathOwner(path)
	if owner == "" {
		return false
	}
	if owner == user {
		return true
	}

	rel := strings.TrimPrefix(path, owner+"/")
	access := s.tree(owner).Effective(rel, user)
	if permtree.IsPermFilePath(path) {
		return access.Admin
	}
	return access.Write
}

// tree returns the cached permission tree of one datasite, loading it from
// the snapshot on first use.
func (s *Service) tree(owner string) *permtree.Tree {
	s.mu.RLock()
	tree, ok := s.trees[owner]
	s.mu.RUnlock()
	if ok {
		return tree
	}

	loaded, err := permtree.LoadTree(owner, filepath.Join(s.store.SnapshotRoot(), owner))
	if err != nil {
		slog.Warn("load permission tree", "datasite", owner, "error", err)
		loaded = permtree.NewTree(owner)
	}

	s.mu.Lock()
	s.trees[owner] = loaded
	s.mu.Unlock()
	return loaded
}

// invalidateTreeFor drops the cached tree of path's datasite when a
// permission file changed.
func (s *Service) invalidateTreeFor(path string) {
	if !permtree.IsPermFilePath(path) {
		return
	}
	owner := utils.PathOwner(path)

	s.mu.Lock()
	delete(s.trees, owner)
	s.mu.Unlock()
}

func (s *Service) filterReadable(user string, files []*syftfile.FileMetadata) []*syftfile.FileMetadata {
	readable := make([]*syftfile.FileMetadata, 0, len(files))
	for _, meta := range files {
		if s.canRead(user, meta.Path) {
			readable = append(readable, meta)
		}
	}
	return readable
}

// validatePath requires a normalized datasite path: owner email first, at
// least one more segment, no traversal.
func validatePath(path string) error {
	if path == "" || strings.HasPrefix(path, "/") {
		return ErrInvalidPath
	}
	segments := strings.Split(path, "/")
	if len(segments) < 2 {
		return ErrInvalidPath
	}
	for _, seg := range segments {
		if seg == "" || seg == "." || seg == ".." {
			return ErrInvalidPath
		}
	}
	if !utils.IsValidEmail(segments[0]) {
		return ErrInvalidPath
	}
	return nil
}

// hasDotDot reports whether any path segment is "..". Filenames merely
// containing dots, like "notes..md", are fine.
func hasDotDot(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}
