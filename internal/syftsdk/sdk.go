package syftsdk

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/imroc/req/v3"
	"github.com/openmined/syftbox/internal/utils"
	"github.com/openmined/syftbox/internal/version"
)

const (
	HeaderSyftVersion = "X-Syft-Version"
	HeaderSyftEmail   = "X-Syft-Email"
)

var syftBoxUserAgent = fmt.Sprintf("SyftBox/%s (%s; %s/%s)", version.Version, version.Revision, runtime.GOOS, runtime.GOARCH)

// SyftSDK is the typed client for the SyftBox server.
type SyftSDK struct {
	client *req.Client
	config *Config
	Sync   *SyncAPI
}

// New creates an SDK client from a validated config.
func New(config *Config) (*SyftSDK, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client := req.C().
		SetBaseURL(config.BaseURL).
		SetTimeout(config.Timeout).
		SetCommonRetryCount(2).
		SetCommonRetryFixedInterval(1*time.Second).
		SetUserAgent(syftBoxUserAgent).
		SetCommonHeader(HeaderSyftVersion, version.Version).
		SetCommonHeader(HeaderSyftEmail, config.Email).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)

	if config.AccessToken != "" {
		client.SetCommonBearerAuthToken(config.AccessToken)
	}

	slog.Debug("sdk init",
		"server", config.BaseURL,
		"email", config.Email,
		"token", utils.MaskSecret(config.AccessToken),
	)

	return &SyftSDK{
		client: client,
		config: config,
		Sync:   newSyncAPI(client),
	}, nil
}

// Email returns the authenticated user.
func (s *SyftSDK) Email() string {
	return s.config.Email
}

// Close releases idle connections.
func (s *SyftSDK) Close() {
	s.client.GetTransport().CloseIdleConnections()
}
