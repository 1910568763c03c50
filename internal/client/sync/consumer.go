package sync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/openmined/syftbox/internal/client/workspace"
	"github.com/openmined/syftbox/internal/permtree"
	"github.com/openmined/syftbox/internal/syftdelta"
	"github.com/openmined/syftbox/internal/syftfile"
	"github.com/openmined/syftbox/internal/syftsdk"
	"github.com/openmined/syftbox/internal/utils"
)

const (
	// MaxFileSizeMB is the per-file sync ceiling. Larger files are rejected
	// before any network call.
	MaxFileSizeMB    = 100
	maxFileSizeBytes = MaxFileSizeMB << 20
)

// Consumer drains the queue and executes one decision per item.
type Consumer struct {
	sdk        *syftsdk.SyftSDK
	workspace  *workspace.Workspace
	localState *LocalState
	queue      *SyncQueue

	// remote permission trees, cached for one pass
	permTrees map[string]*permtree.Tree
}

func NewConsumer(sdk *syftsdk.SyftSDK, ws *workspace.Workspace, localState *LocalState, queue *SyncQueue) *Consumer {
	return &Consumer{
		sdk:        sdk,
		workspace:  ws,
		localState: localState,
		queue:      queue,
	}
}

// Run drains the queue. Failures are recorded per path and never abort the
// pass.
func (c *Consumer) Run(ctx context.Context) {
	c.permTrees = make(map[string]*permtree.Tree)

	for {
		if ctx.Err() != nil {
			return
		}
		change, ok := c.queue.TryGet()
		if !ok {
			return
		}
		c.processChange(ctx, change)
	}
}

func (c *Consumer) processChange(ctx context.Context, change *FileChangeInfo) {
	path := change.Path
	c.localState.InsertStatusInfo(path, StatusInProgress, ActionNoop, "")

	if change.NumBytes > maxFileSizeBytes {
		c.localState.InsertStatusInfo(path, StatusRejected, ActionNoop,
			fmt.Sprintf("file size %s exceeds the %dMB sync limit", humanize.Bytes(uint64(change.NumBytes)), MaxFileSizeMB))
		return
	}

	absPath := c.workspace.AbsPath(path)
	if isSymlink(absPath) {
		c.localState.InsertStatusInfo(path, StatusIgnored, ActionNoop, "symlinks are not synced")
		return
	}

	currentLocal, err := syftfile.StatFile(absPath, path)
	if err != nil {
		c.localState.InsertStatusInfo(path, StatusError, ActionNoop, err.Error())
		return
	}

	previousSynced := c.localState.GetSynced(path)

	currentRemote, err := c.remoteMetadata(ctx, path)
	if err != nil {
		c.localState.InsertStatusInfo(path, StatusError, ActionNoop, err.Error())
		return
	}

	localAction, remoteAction := decideActions(currentLocal, previousSynced, currentRemote)

	if localAction == ActionNoop && remoteAction == ActionNoop {
		c.recordInSync(path, currentLocal, previousSynced)
		return
	}

	action := remoteAction
	if localAction != ActionNoop {
		action = localAction
	}

	if action.IsRemote() {
		if allowed, reason := c.remoteWriteAllowed(ctx, path); !allowed {
			c.localState.InsertStatusInfo(path, StatusRejected, action, reason)
			return
		}
	}

	var execErr error
	switch action {
	case ActionCreateRemote, ActionModifyRemote:
		execErr = c.pushFile(ctx, path, absPath, action, currentLocal, currentRemote)
	case ActionDeleteRemote:
		execErr = c.deleteRemote(ctx, path)
	case ActionCreateLocal:
		execErr = c.pullCreate(ctx, path, absPath, currentRemote)
	case ActionModifyLocal:
		execErr = c.pullModify(ctx, path, absPath)
	case ActionDeleteLocal:
		execErr = c.deleteLocal(path, absPath)
	}

	if execErr != nil {
		if syftsdk.IsPermissionDenied(execErr) {
			c.localState.InsertStatusInfo(path, StatusRejected, action, execErr.Error())
		} else {
			c.localState.InsertStatusInfo(path, StatusError, action, execErr.Error())
		}
		slog.Warn("sync", "path", path, "action", action, "error", execErr)
		return
	}

	slog.Info("sync", "path", path, "action", action, "status", StatusSynced)
}

// decideActions is the three-way decision. "Modified" compares a current
// side against the previously synced snapshot; a conflict resolves by
// overwriting local with remote.
func decideActions(currentLocal, previousSynced, currentRemote *syftfile.FileMetadata) (SyncAction, SyncAction) {
	localModified := !syftfile.SameContent(currentLocal, previousSynced)
	remoteModified := !syftfile.SameContent(currentRemote, previousSynced)
	inSync := syftfile.SameContent(currentLocal, currentRemote)

	switch {
	case inSync:
		return ActionNoop, ActionNoop
	case localModified && !remoteModified:
		switch {
		case currentLocal == nil:
			return ActionNoop, ActionDeleteRemote
		case currentRemote == nil:
			return ActionNoop, ActionCreateRemote
		default:
			return ActionNoop, ActionModifyRemote
		}
	case remoteModified && !localModified:
		switch {
		case currentRemote == nil:
			return ActionDeleteLocal, ActionNoop
		case currentLocal == nil:
			return ActionCreateLocal, ActionNoop
		default:
			return ActionModifyLocal, ActionNoop
		}
	default:
		// both sides diverged from the last synced state
		switch {
		case currentRemote == nil:
			return ActionDeleteLocal, ActionNoop
		case currentLocal == nil:
			return ActionCreateLocal, ActionNoop
		default:
			return ActionModifyLocal, ActionNoop
		}
	}
}

// recordInSync settles the snapshot when both sides already agree, so the
// path is not re-enqueued next pass.
func (c *Consumer) recordInSync(path string, currentLocal, previousSynced *syftfile.FileMetadata) {
	switch {
	case currentLocal != nil && !syftfile.SameContent(currentLocal, previousSynced):
		c.localState.InsertSyncedFile(path, currentLocal, ActionNoop)
	case currentLocal == nil && previousSynced != nil:
		c.localState.InsertSyncedFile(path, nil, ActionNoop)
	default:
		c.localState.InsertStatusInfo(path, StatusSynced, ActionNoop, "")
	}
}

func (c *Consumer) pushFile(ctx context.Context, path, absPath string, action SyncAction, currentLocal, currentRemote *syftfile.FileMetadata) error {
	body, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", absPath, err)
	}
	if len(body) > maxFileSizeBytes {
		return fmt.Errorf("file size %s exceeds the %dMB sync limit", humanize.Bytes(uint64(len(body))), MaxFileSizeMB)
	}

	if action == ActionCreateRemote {
		if _, err := c.sdk.Sync.Create(ctx, path, body); err != nil {
			return err
		}
		c.localState.InsertSyncedFile(path, currentLocal, action)
		return nil
	}

	// the server's cached signature is authoritative for the remote bytes
	diff, err := syftdelta.Diff(currentRemote.Signature, body)
	if err != nil {
		return fmt.Errorf("diff %s: %w", path, err)
	}

	expectedHash := syftfile.HashBytes(body)
	resp, err := c.sdk.Sync.ApplyDiff(ctx, &syftsdk.ApplyDiffRequest{
		Path:         path,
		Diff:         diff,
		ExpectedHash: expectedHash,
	})
	if err != nil {
		return err
	}
	if resp.CurrentHash != expectedHash {
		return fmt.Errorf("apply diff %s: server hash %s does not match %s", path, resp.CurrentHash, expectedHash)
	}

	c.localState.InsertSyncedFile(path, currentLocal, action)
	return nil
}

func (c *Consumer) deleteRemote(ctx context.Context, path string) error {
	err := c.sdk.Sync.Delete(ctx, path)
	if err != nil && !syftsdk.IsNotFound(err) {
		return err
	}
	c.localState.InsertSyncedFile(path, nil, ActionDeleteRemote)
	return nil
}

func (c *Consumer) pullCreate(ctx context.Context, path, absPath string, currentRemote *syftfile.FileMetadata) error {
	body, err := c.sdk.Sync.Download(ctx, path)
	if err != nil {
		return err
	}

	if err := syftfile.WriteFileVerified(absPath, body, currentRemote.Hash); err != nil {
		return err
	}
	return c.statAndRecord(path, absPath, ActionCreateLocal)
}

func (c *Consumer) pullModify(ctx context.Context, path, absPath string) error {
	body, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", absPath, err)
	}

	resp, err := c.sdk.Sync.GetDiff(ctx, &syftsdk.GetDiffRequest{
		Path:      path,
		Signature: syftdelta.Signature(body),
	})
	if err != nil {
		return err
	}

	patched, err := syftdelta.Apply(body, resp.Diff)
	if err != nil {
		return fmt.Errorf("apply diff %s: %w", path, err)
	}

	if err := syftfile.WriteFileVerified(absPath, patched, resp.Hash); err != nil {
		return err
	}
	return c.statAndRecord(path, absPath, ActionModifyLocal)
}

func (c *Consumer) deleteLocal(path, absPath string) error {
	if err := syftfile.RemoveWithEmptyParents(absPath, c.workspace.DatasiteDir(utils.PathOwner(path))); err != nil {
		return fmt.Errorf("remove %s: %w", absPath, err)
	}
	c.localState.InsertSyncedFile(path, nil, ActionDeleteLocal)
	return nil
}

func (c *Consumer) statAndRecord(path, absPath string, action SyncAction) error {
	meta, err := syftfile.StatFile(absPath, path)
	if err != nil {
		return err
	}
	c.localState.InsertSyncedFile(path, meta, action)
	return nil
}

// remoteMetadata fetches the server's view of one path, nil if absent.
func (c *Consumer) remoteMetadata(ctx context.Context, path string) (*syftfile.FileMetadata, error) {
	files, err := c.sdk.Sync.GetMetadata(ctx, path)
	if err != nil {
		if syftsdk.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	for _, meta := range files {
		if meta.Path == path {
			return meta, nil
		}
	}
	return nil, nil
}

// remoteWriteAllowed checks the acting user against the datasite's permission
// tree as the server last published it. The server remains authoritative; a
// denial here just avoids a doomed mutation.
func (c *Consumer) remoteWriteAllowed(ctx context.Context, path string) (bool, string) {
	owner := utils.PathOwner(path)
	user := c.sdk.Email()
	if owner == user {
		return true, ""
	}

	tree, err := c.remotePermTree(ctx, owner)
	if err != nil {
		slog.Warn("load remote permissions", "datasite", owner, "error", err)
		// fall through to the server's own check
		return true, ""
	}

	relPath := strings.TrimPrefix(path, owner+"/")
	access := tree.Effective(relPath, user)
	if permtree.IsPermFilePath(path) {
		if !access.Admin {
			return false, fmt.Sprintf("user %s is not an admin of %s", user, owner)
		}
		return true, ""
	}
	if !access.Write {
		return false, fmt.Sprintf("user %s has no write access to %s", user, path)
	}
	return true, ""
}

// remotePermTree materializes a datasite's permission tree from the server's
// permission files, cached for the pass.
func (c *Consumer) remotePermTree(ctx context.Context, owner string) (*permtree.Tree, error) {
	if tree, ok := c.permTrees[owner]; ok {
		return tree, nil
	}

	metas, err := c.sdk.Sync.GetMetadata(ctx, owner+"/%"+permtree.PermFileName)
	if err != nil && !syftsdk.IsNotFound(err) {
		return nil, err
	}

	tree := permtree.NewTree(owner)
	for _, meta := range metas {
		body, err := c.sdk.Sync.Download(ctx, meta.Path)
		if err != nil {
			slog.Warn("download permission file", "path", meta.Path, "error", err)
			continue
		}
		pf, err := permtree.Parse(body)
		if err != nil {
			slog.Warn("bad permission file", "path", meta.Path, "error", err)
			continue
		}
		dir := permDir(meta.Path, owner)
		tree.Set(dir, pf)
	}

	c.permTrees[owner] = tree
	return tree, nil
}

// permDir maps a permission file sync path to its datasite-relative
// directory.
func permDir(path, owner string) string {
	rel := strings.TrimPrefix(path, owner+"/")
	if idx := strings.LastIndex(rel, "/"); idx >= 0 {
		return rel[:idx]
	}
	return ""
}

func isSymlink(absPath string) bool {
	info, err := os.Lstat(absPath)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeSymlink != 0
}
