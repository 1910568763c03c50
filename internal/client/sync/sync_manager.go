package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openmined/syftbox/internal/client/workspace"
	"github.com/openmined/syftbox/internal/syftsdk"
	"github.com/openmined/syftbox/internal/utils"
)

// syncInterval is the fixed pause between passes. A pass that runs long
// simply delays the next one; passes never overlap.
const syncInterval = 5 * time.Second

// Manager runs the periodic sync loop tying producer, consumer, queue and
// local state together.
type Manager struct {
	sdk        *syftsdk.SyftSDK
	workspace  *workspace.Workspace
	localState *LocalState
	queue      *SyncQueue
	producer   *Producer
	consumer   *Consumer
}

func NewManager(sdk *syftsdk.SyftSDK, ws *workspace.Workspace) *Manager {
	localState := NewLocalState(ws.SyncStatePath)
	queue := NewSyncQueue()

	return &Manager{
		sdk:        sdk,
		workspace:  ws,
		localState: localState,
		queue:      queue,
		producer:   NewProducer(sdk, ws, localState, queue),
		consumer:   NewConsumer(sdk, ws, localState, queue),
	}
}

// LocalState exposes the state store, for the status dashboard.
func (m *Manager) LocalState() *LocalState {
	return m.localState
}

// Start runs the sync loop until the context is cancelled or the sync
// environment turns out corrupted.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.localState.Load(); err != nil {
		return fmt.Errorf("load local state: %w", err)
	}

	slog.Info("sync manager started", "interval", syncInterval)

	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	for {
		if err := m.runPass(ctx); err != nil {
			var envErr *SyncEnvironmentError
			if errors.As(err, &envErr) {
				slog.Error("sync loop halted, operator recovery required", "error", envErr)
				return envErr
			}
			slog.Error("sync pass", "error", err)
		}

		select {
		case <-ctx.Done():
			slog.Info("sync manager stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// runPass performs one tick: verify the environment, enqueue, drain, persist.
func (m *Manager) runPass(ctx context.Context) error {
	start := time.Now()

	if err := m.checkEnvironment(); err != nil {
		return err
	}

	if err := m.producer.Run(ctx); err != nil {
		return err
	}

	queued := m.queue.Len()
	m.consumer.Run(ctx)

	if err := m.localState.Save(); err != nil {
		return err
	}

	if queued > 0 {
		slog.Info("sync pass", "processed", queued, "took", time.Since(start).Round(time.Millisecond))
	}
	return nil
}

// checkEnvironment enforces the fail-fast invariant: if the local state file
// vanished while the data directory still exists, syncing must stop, or every
// remote file would look never-synced and local deletions would cascade to
// the server.
func (m *Manager) checkEnvironment() error {
	if !utils.DirExists(m.workspace.DatasitesDir) {
		return &SyncEnvironmentError{Reason: fmt.Sprintf("datasites directory %s missing", m.workspace.DatasitesDir)}
	}
	if !utils.FileExists(m.localState.Path()) {
		return &SyncEnvironmentError{Reason: fmt.Sprintf("local state file %s missing", m.localState.Path())}
	}
	return nil
}
