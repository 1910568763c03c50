package syftsdk

import (
	"bytes"
	"context"
	"path/filepath"

	"github.com/imroc/req/v3"
	"github.com/openmined/syftbox/internal/syftfile"
)

const (
	datasiteStatesEndpoint = "/sync/datasite_states"
	dirStateEndpoint       = "/sync/dir_state"
	getMetadataEndpoint    = "/sync/get_metadata"
	getDiffEndpoint        = "/sync/get_diff"
	applyDiffEndpoint      = "/sync/apply_diff"
	createEndpoint         = "/sync/create"
	deleteEndpoint         = "/sync/delete"
	downloadEndpoint       = "/sync/download"
	downloadBulkEndpoint   = "/sync/download_bulk"
)

// SyncAPI groups the file sync operations of the server.
type SyncAPI struct {
	client *req.Client
}

func newSyncAPI(client *req.Client) *SyncAPI {
	return &SyncAPI{client: client}
}

// DatasiteStates returns the metadata of every datasite the caller can read.
func (s *SyncAPI) DatasiteStates(ctx context.Context) (map[string][]*syftfile.FileMetadata, error) {
	var result DatasiteStatesResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetSuccessResult(&result).
		SetErrorResult(&SyftServerError{}).
		Post(datasiteStatesEndpoint)

	if err := handleAPIError(resp, err, "datasite states"); err != nil {
		return nil, err
	}
	return result.Datasites, nil
}

// DirState returns the metadata of files under one directory.
func (s *SyncAPI) DirState(ctx context.Context, dir string) ([]*syftfile.FileMetadata, error) {
	var result DirStateResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(&DirStateRequest{Dir: dir}).
		SetSuccessResult(&result).
		SetErrorResult(&SyftServerError{}).
		Post(dirStateEndpoint)

	if err := handleAPIError(resp, err, "dir state"); err != nil {
		return nil, err
	}
	return result.Files, nil
}

// GetMetadata fetches metadata for one path pattern. A '%' in the pattern
// acts as a wildcard on the server side.
func (s *SyncAPI) GetMetadata(ctx context.Context, pathLike string) ([]*syftfile.FileMetadata, error) {
	var result GetMetadataResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(&GetMetadataRequest{Path: pathLike}).
		SetSuccessResult(&result).
		SetErrorResult(&SyftServerError{}).
		Post(getMetadataEndpoint)

	if err := handleAPIError(resp, err, "get metadata"); err != nil {
		return nil, err
	}
	return result.Files, nil
}

// GetDiff asks the server for the delta from the client's signature to the
// server's current copy of the path.
func (s *SyncAPI) GetDiff(ctx context.Context, request *GetDiffRequest) (*GetDiffResponse, error) {
	var result GetDiffResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(request).
		SetSuccessResult(&result).
		SetErrorResult(&SyftServerError{}).
		Post(getDiffEndpoint)

	if err := handleAPIError(resp, err, "get diff"); err != nil {
		return nil, err
	}
	return &result, nil
}

// ApplyDiff pushes a delta to the server. The server rejects the apply with a
// conflict if the patched result does not hash to ExpectedHash.
func (s *SyncAPI) ApplyDiff(ctx context.Context, request *ApplyDiffRequest) (*ApplyDiffResponse, error) {
	var result ApplyDiffResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(request).
		SetSuccessResult(&result).
		SetErrorResult(&SyftServerError{}).
		Post(applyDiffEndpoint)

	if err := handleAPIError(resp, err, "apply diff"); err != nil {
		return nil, err
	}
	return &result, nil
}

// Create uploads a full file body for a path the server does not yet hold.
func (s *SyncAPI) Create(ctx context.Context, path string, body []byte) (*syftfile.FileMetadata, error) {
	var result syftfile.FileMetadata
	resp, err := s.client.R().
		SetContext(ctx).
		SetFileReader("file", filepath.Base(path), bytes.NewReader(body)).
		SetFormData(map[string]string{"path": path}).
		SetSuccessResult(&result).
		SetErrorResult(&SyftServerError{}).
		Post(createEndpoint)

	if err := handleAPIError(resp, err, "create"); err != nil {
		return nil, err
	}
	return &result, nil
}

// Delete removes a file from the server.
func (s *SyncAPI) Delete(ctx context.Context, path string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(&DeleteRequest{Path: path}).
		SetErrorResult(&SyftServerError{}).
		Post(deleteEndpoint)

	return handleAPIError(resp, err, "delete")
}

// Download fetches the full body of one file.
func (s *SyncAPI) Download(ctx context.Context, path string) ([]byte, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(&DownloadRequest{Path: path}).
		SetErrorResult(&SyftServerError{}).
		Post(downloadEndpoint)

	if err := handleAPIError(resp, err, "download"); err != nil {
		return nil, err
	}
	return resp.Bytes(), nil
}

// DownloadBulk fetches many files as a single tar stream.
func (s *SyncAPI) DownloadBulk(ctx context.Context, paths []string) ([]byte, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(&DownloadBulkRequest{Paths: paths}).
		SetErrorResult(&SyftServerError{}).
		Post(downloadBulkEndpoint)

	if err := handleAPIError(resp, err, "download bulk"); err != nil {
		return nil, err
	}
	return resp.Bytes(), nil
}
