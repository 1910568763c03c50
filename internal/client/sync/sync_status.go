package sync

import "time"

// SyncStatus is the lifecycle state of one path within a pass.
type SyncStatus string

const (
	StatusQueued     SyncStatus = "QUEUED"
	StatusInProgress SyncStatus = "IN_PROGRESS"
	StatusSynced     SyncStatus = "SYNCED"
	StatusError      SyncStatus = "ERROR"
	StatusRejected   SyncStatus = "REJECTED"
	StatusIgnored    SyncStatus = "IGNORED"
)

// SyncAction is the decision the consumer executed (or will execute) for a
// path.
type SyncAction string

const (
	ActionCreateLocal  SyncAction = "CREATE_LOCAL"
	ActionModifyLocal  SyncAction = "MODIFY_LOCAL"
	ActionDeleteLocal  SyncAction = "DELETE_LOCAL"
	ActionCreateRemote SyncAction = "CREATE_REMOTE"
	ActionModifyRemote SyncAction = "MODIFY_REMOTE"
	ActionDeleteRemote SyncAction = "DELETE_REMOTE"
	ActionNoop         SyncAction = "NOOP"
)

// IsLocal reports whether the action mutates the local filesystem.
func (a SyncAction) IsLocal() bool {
	switch a {
	case ActionCreateLocal, ActionModifyLocal, ActionDeleteLocal:
		return true
	}
	return false
}

// IsRemote reports whether the action mutates the server.
func (a SyncAction) IsRemote() bool {
	switch a {
	case ActionCreateRemote, ActionModifyRemote, ActionDeleteRemote:
		return true
	}
	return false
}

// SyncStatusInfo is the persisted per-path status record.
type SyncStatusInfo struct {
	Path      string     `json:"path"`
	Timestamp time.Time  `json:"timestamp"`
	Status    SyncStatus `json:"status"`
	Action    SyncAction `json:"action,omitempty"`
	Message   string     `json:"message,omitempty"`
}
