package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"
	"github.com/openmined/syftbox/internal/permtree"
	"github.com/openmined/syftbox/internal/utils"
)

const (
	datasitesDir  = "datasites"
	pluginsDir    = "plugins"
	publicDir     = "public"
	pidFile       = "syftbox.pid"
	syncStateFile = "local_syncstate.json"

	// IgnoreFileName is the user editable ignore file at the workspace root.
	IgnoreFileName = "_.syftignore"
)

var ErrWorkspaceLocked = errors.New("workspace locked by another process")

// Workspace is the on-disk layout of one client's data directory.
type Workspace struct {
	Owner         string
	Root          string
	DatasitesDir  string
	PluginsDir    string
	UserDir       string
	UserPublicDir string
	SyncStatePath string
	IgnorePath    string

	flock *flock.Flock
}

func NewWorkspace(rootDir string, user string) (*Workspace, error) {
	root, err := utils.ResolvePath(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolve path %s: %w", rootDir, err)
	}

	return &Workspace{
		Owner:         user,
		Root:          root,
		DatasitesDir:  filepath.Join(root, datasitesDir),
		PluginsDir:    filepath.Join(root, pluginsDir),
		UserDir:       filepath.Join(root, datasitesDir, user),
		UserPublicDir: filepath.Join(root, datasitesDir, user, publicDir),
		SyncStatePath: filepath.Join(root, pluginsDir, syncStateFile),
		IgnorePath:    filepath.Join(root, IgnoreFileName),
		flock:         flock.New(filepath.Join(root, pidFile)),
	}, nil
}

// Lock takes an exclusive advisory lock on the pid file so that only one
// client syncs this workspace at a time.
func (w *Workspace) Lock() error {
	if err := utils.EnsureDir(w.Root); err != nil {
		return fmt.Errorf("create workspace root: %w", err)
	}

	locked, err := w.flock.TryLock()
	if err != nil {
		return fmt.Errorf("lock workspace: %w", err)
	}
	if !locked {
		return ErrWorkspaceLocked
	}

	// record the holder's pid for humans inspecting the workspace
	if err := os.WriteFile(w.flock.Path(), []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		slog.Warn("write pid file", "path", w.flock.Path(), "error", err)
	}
	return nil
}

func (w *Workspace) Unlock() error {
	if !w.flock.Locked() {
		return nil
	}
	if err := w.flock.Unlock(); err != nil {
		return fmt.Errorf("unlock workspace: %w", err)
	}
	return os.Remove(w.flock.Path())
}

// Setup locks the workspace, creates the directory layout and bootstraps the
// owner's datasite with its default permission files.
func (w *Workspace) Setup() error {
	if err := w.Lock(); err != nil {
		return err
	}

	slog.Info("workspace", "root", w.Root, "owner", w.Owner)

	for _, dir := range []string{w.DatasitesDir, w.PluginsDir, w.UserPublicDir} {
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return w.createDefaultPerms()
}

func (w *Workspace) createDefaultPerms() error {
	rootPerm := filepath.Join(w.UserDir, permtree.PermFileName)
	if !utils.FileExists(rootPerm) {
		if err := permtree.OwnerOnly(w.Owner).Save(w.UserDir); err != nil {
			return fmt.Errorf("create root permission file: %w", err)
		}
	}

	publicPerm := filepath.Join(w.UserPublicDir, permtree.PermFileName)
	if !utils.FileExists(publicPerm) {
		if err := permtree.PublicRead(w.Owner).Save(w.UserPublicDir); err != nil {
			return fmt.Errorf("create public permission file: %w", err)
		}
	}

	return nil
}

// AbsPath maps a sync path (datasite-relative, starting with the owner email)
// to its location on disk.
func (w *Workspace) AbsPath(relPath string) string {
	return filepath.Join(w.DatasitesDir, filepath.FromSlash(relPath))
}

// RelPath maps an absolute path under the datasites dir back to a sync path.
func (w *Workspace) RelPath(absPath string) (string, error) {
	rel, err := filepath.Rel(w.DatasitesDir, absPath)
	if err != nil {
		return "", err
	}
	return utils.NormPath(rel), nil
}

// DatasiteDir returns the absolute directory of one datasite.
func (w *Workspace) DatasiteDir(email string) string {
	return filepath.Join(w.DatasitesDir, email)
}
