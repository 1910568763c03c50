package sync

import "github.com/openmined/syftbox/internal/syftfile"

type DatasiteStatesResponse struct {
	Datasites map[string][]*syftfile.FileMetadata `json:"datasites"`
}

type DirStateRequest struct {
	Dir string `json:"dir" binding:"required"`
}

type DirStateResponse struct {
	Files []*syftfile.FileMetadata `json:"files"`
}

type GetMetadataRequest struct {
	Path string `json:"path" binding:"required"`
}

type GetMetadataResponse struct {
	Files []*syftfile.FileMetadata `json:"files"`
}

type GetDiffRequest struct {
	Path      string            `json:"path" binding:"required"`
	Signature syftfile.B85Bytes `json:"signature" binding:"required"`
}

type GetDiffResponse struct {
	Path string            `json:"path"`
	Diff syftfile.B85Bytes `json:"diff"`
	Hash string            `json:"hash"`
}

type ApplyDiffRequest struct {
	Path         string            `json:"path" binding:"required"`
	Diff         syftfile.B85Bytes `json:"diff" binding:"required"`
	ExpectedHash string            `json:"expected_hash" binding:"required"`
}

type ApplyDiffResponse struct {
	Path        string `json:"path"`
	CurrentHash string `json:"current_hash"`
}

type DeleteRequest struct {
	Path string `json:"path" binding:"required"`
}

type DownloadRequest struct {
	Path string `json:"path" binding:"required"`
}

type DownloadBulkRequest struct {
	Paths []string `json:"paths" binding:"required"`
}
