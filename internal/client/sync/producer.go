package sync

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openmined/syftbox/internal/client/workspace"
	"github.com/openmined/syftbox/internal/syftfile"
	"github.com/openmined/syftbox/internal/syftsdk"
)

// Producer enumerates datasites, classifies divergence and feeds the queue.
type Producer struct {
	sdk        *syftsdk.SyftSDK
	workspace  *workspace.Workspace
	localState *LocalState
	queue      *SyncQueue
}

func NewProducer(sdk *syftsdk.SyftSDK, ws *workspace.Workspace, localState *LocalState, queue *SyncQueue) *Producer {
	return &Producer{
		sdk:        sdk,
		workspace:  ws,
		localState: localState,
		queue:      queue,
	}
}

// Run performs one enumeration pass. A failure in one datasite does not stop
// the others.
func (p *Producer) Run(ctx context.Context) error {
	remoteStates, err := p.sdk.Sync.DatasiteStates(ctx)
	if err != nil {
		return fmt.Errorf("list datasite states: %w", err)
	}
	if remoteStates == nil {
		remoteStates = make(map[string][]*syftfile.FileMetadata)
	}

	// the server list can lag behind a freshly initialized datasite
	if _, ok := remoteStates[p.sdk.Email()]; !ok {
		remoteStates[p.sdk.Email()] = nil
	}

	ignore := NewIgnoreList(p.workspace.IgnorePath)
	prevAll := p.localState.SyncedSnapshot()

	for email, remote := range remoteStates {
		if err := p.produceDatasite(ctx, email, remote, prevAll, ignore); err != nil {
			slog.Error("produce datasite", "datasite", email, "error", err)
		}
	}

	return nil
}

func (p *Producer) produceDatasite(ctx context.Context, email string, remote []*syftfile.FileMetadata, prevAll map[string]*syftfile.FileMetadata, ignore *IgnoreList) error {
	prevSync := make(map[string]*syftfile.FileMetadata)
	prefix := email + "/"
	for path, meta := range prevAll {
		if strings.HasPrefix(path, prefix) {
			prevSync[path] = meta
		}
	}

	state := NewDatasiteState(email, p.workspace.DatasiteDir(email), remote, prevSync, ignore)
	outOfSync, err := state.GetOutOfSyncFiles(ctx)
	if err != nil {
		return err
	}

	enqueued := 0
	for _, change := range outOfSync.Permissions {
		if p.enqueue(change) {
			enqueued++
		}
	}
	for _, change := range outOfSync.Files {
		if p.enqueue(change) {
			enqueued++
		}
	}

	for _, path := range outOfSync.Ignored {
		// record once, not every pass
		if info := p.localState.GetStatus(path); info != nil && info.Status == StatusIgnored {
			continue
		}
		p.localState.InsertStatusInfo(path, StatusIgnored, ActionNoop, "matched ignore rules")
	}

	if enqueued > 0 {
		slog.Debug("producer", "datasite", email, "queued", enqueued, "ignored", len(outOfSync.Ignored))
	}
	return nil
}

func (p *Producer) enqueue(change *FileChangeInfo) bool {
	if !p.queue.Put(change) {
		return false
	}
	p.localState.InsertStatusInfo(change.Path, StatusQueued, ActionNoop, "")
	return true
}
