package sync

import (
	"time"

	"github.com/openmined/syftbox/internal/permtree"
	"github.com/openmined/syftbox/internal/queue"
)

// ChangeSide tells which side of the sync pair holds the newer content.
type ChangeSide string

const (
	SideLocal  ChangeSide = "LOCAL"
	SideRemote ChangeSide = "REMOTE"
)

// FileChangeInfo is one detected divergence between local and remote.
type FileChangeInfo struct {
	Path             string
	SideLastModified ChangeSide
	DateLastModified time.Time
	NumBytes         int64
}

// Priority orders changes for dispatch. Permission files go first, then data
// files from small to large.
func (c *FileChangeInfo) Priority() int64 {
	if permtree.IsPermFilePath(c.Path) {
		return 0
	}
	return max(int64(1), c.NumBytes)
}

// SyncQueue is the pending-change queue, deduplicated by path.
type SyncQueue struct {
	pq *queue.PriorityQueue[*FileChangeInfo]
}

func NewSyncQueue() *SyncQueue {
	return &SyncQueue{pq: queue.NewPriorityQueue[*FileChangeInfo]()}
}

// Put enqueues a change unless its path is already pending.
func (q *SyncQueue) Put(change *FileChangeInfo) bool {
	return q.pq.Put(change.Path, change, change.Priority())
}

// ForcePut enqueues a change, replacing any pending entry for the path.
func (q *SyncQueue) ForcePut(change *FileChangeInfo) {
	q.pq.ForcePut(change.Path, change, change.Priority())
}

// TryGet dequeues the highest-priority change without blocking.
func (q *SyncQueue) TryGet() (*FileChangeInfo, bool) {
	return q.pq.TryGet()
}

// Len returns the number of pending changes.
func (q *SyncQueue) Len() int {
	return q.pq.Len()
}

// Contains reports whether path is pending.
func (q *SyncQueue) Contains(path string) bool {
	return q.pq.Contains(path)
}
