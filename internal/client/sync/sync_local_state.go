package sync

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/openmined/syftbox/internal/syftfile"
	"github.com/openmined/syftbox/internal/utils"
)

// SyncEnvironmentError reports that the sync environment on disk is no
// longer intact, e.g. the local state file vanished under a running client.
// It is fatal to the sync loop: continuing would read every remote file as
// "never synced" and could mass-delete on the server.
type SyncEnvironmentError struct {
	Reason string
}

func (e *SyncEnvironmentError) Error() string {
	return fmt.Sprintf("sync environment corrupted: %s", e.Reason)
}

// localStateFile is the serialized form of LocalState.
type localStateFile struct {
	States     map[string]*syftfile.FileMetadata `json:"states"`
	StatusInfo map[string]*SyncStatusInfo        `json:"status_info"`
}

// LocalState is the client's persistent record of what was last synced per
// path and how the last attempt ended.
type LocalState struct {
	path string
	mu   sync.Mutex

	states     map[string]*syftfile.FileMetadata
	statusInfo map[string]*SyncStatusInfo
	loaded     bool
}

func NewLocalState(path string) *LocalState {
	return &LocalState{
		path:       path,
		states:     make(map[string]*syftfile.FileMetadata),
		statusInfo: make(map[string]*SyncStatusInfo),
	}
}

// Load reads the state file, starting empty if it does not exist yet.
func (l *LocalState) Load() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		if err := l.saveLocked(); err != nil {
			return err
		}
		l.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("read local state: %w", err)
	}

	var file localStateFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse local state %s: %w", l.path, err)
	}

	if file.States != nil {
		l.states = file.States
	}
	if file.StatusInfo != nil {
		l.statusInfo = file.StatusInfo
	}
	l.loaded = true
	return nil
}

// Save persists the full record atomically. If the on-disk file has been
// removed since Load, it fails with SyncEnvironmentError instead of
// recreating it.
func (l *LocalState) Save() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.saveLocked()
}

func (l *LocalState) saveLocked() error {
	if l.loaded && !utils.FileExists(l.path) {
		return &SyncEnvironmentError{Reason: fmt.Sprintf("local state file %s removed externally", l.path)}
	}

	data, err := json.Marshal(&localStateFile{
		States:     l.states,
		StatusInfo: l.statusInfo,
	})
	if err != nil {
		return fmt.Errorf("marshal local state: %w", err)
	}

	if err := utils.EnsureParent(l.path); err != nil {
		return err
	}
	return syftfile.WriteFileAtomic(l.path, data)
}

// InsertSyncedFile records a successful sync of path with its new metadata.
func (l *LocalState) InsertSyncedFile(path string, meta *syftfile.FileMetadata, action SyncAction) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if meta == nil {
		delete(l.states, path)
	} else {
		l.states[path] = meta
	}
	l.statusInfo[path] = &SyncStatusInfo{
		Path:      path,
		Timestamp: time.Now().UTC(),
		Status:    StatusSynced,
		Action:    action,
	}
}

// InsertStatusInfo records the outcome of an attempt without touching the
// synced snapshot.
func (l *LocalState) InsertStatusInfo(path string, status SyncStatus, action SyncAction, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.statusInfo[path] = &SyncStatusInfo{
		Path:      path,
		Timestamp: time.Now().UTC(),
		Status:    status,
		Action:    action,
		Message:   message,
	}
}

// GetSynced returns the last synced metadata for path, nil if never synced.
func (l *LocalState) GetSynced(path string) *syftfile.FileMetadata {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.states[path]
}

// GetStatus returns the last recorded status for path, nil if none.
func (l *LocalState) GetStatus(path string) *SyncStatusInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.statusInfo[path]
}

// SyncedSnapshot returns a copy of the synced metadata map.
func (l *LocalState) SyncedSnapshot() map[string]*syftfile.FileMetadata {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := make(map[string]*syftfile.FileMetadata, len(l.states))
	for path, meta := range l.states {
		snapshot[path] = meta
	}
	return snapshot
}

// StatusSnapshot returns a copy of the status map, for the status dashboard.
func (l *LocalState) StatusSnapshot() map[string]*SyncStatusInfo {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := make(map[string]*SyncStatusInfo, len(l.statusInfo))
	for path, info := range l.statusInfo {
		snapshot[path] = info
	}
	return snapshot
}

// Path returns the on-disk location of the state file.
func (l *LocalState) Path() string {
	return l.path
}
