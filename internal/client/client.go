// Package client assembles the pieces of a running SyftBox client: the
// workspace on disk, the server SDK and the sync manager.
package client

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openmined/syftbox/internal/client/config"
	"github.com/openmined/syftbox/internal/client/sync"
	"github.com/openmined/syftbox/internal/client/workspace"
	"github.com/openmined/syftbox/internal/syftsdk"
)

type Client struct {
	config    *config.Config
	workspace *workspace.Workspace
	sdk       *syftsdk.SyftSDK
	sync      *sync.Manager
}

func New(cfg *config.Config) (*Client, error) {
	ws, err := workspace.NewWorkspace(cfg.DataDir, cfg.Email)
	if err != nil {
		return nil, err
	}

	sdk, err := syftsdk.New(&syftsdk.Config{
		BaseURL:     cfg.ServerURL,
		Email:       cfg.Email,
		AccessToken: cfg.AccessToken,
	})
	if err != nil {
		return nil, fmt.Errorf("init sdk: %w", err)
	}

	return &Client{
		config:    cfg,
		workspace: ws,
		sdk:       sdk,
		sync:      sync.NewManager(sdk, ws),
	}, nil
}

// Start sets up the workspace and runs the sync loop until ctx is cancelled.
func (c *Client) Start(ctx context.Context) error {
	if err := c.workspace.Setup(); err != nil {
		return fmt.Errorf("setup workspace: %w", err)
	}
	defer c.Close()

	slog.Info("client started", "user", c.config.Email, "server", c.config.ServerURL)
	return c.sync.Start(ctx)
}

// SyncStatus exposes the per-path status records, for the dashboard.
func (c *Client) SyncStatus() map[string]*sync.SyncStatusInfo {
	return c.sync.LocalState().StatusSnapshot()
}

func (c *Client) Close() {
	c.sdk.Close()
	if err := c.workspace.Unlock(); err != nil {
		slog.Warn("unlock workspace", "error", err)
	}
}
