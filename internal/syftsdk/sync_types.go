package syftsdk

import "github.com/openmined/syftbox/internal/syftfile"

// DatasiteStatesResponse maps each visible datasite to its file metadata.
type DatasiteStatesResponse struct {
	Datasites map[string][]*syftfile.FileMetadata `json:"datasites"`
}

// DirStateRequest asks for the state of one directory subtree.
type DirStateRequest struct {
	Dir string `json:"dir"`
}

// DirStateResponse lists the files under the requested directory.
type DirStateResponse struct {
	Files []*syftfile.FileMetadata `json:"files"`
}

// GetMetadataRequest fetches metadata for one path pattern. A '%' in the
// pattern is treated as a wildcard.
type GetMetadataRequest struct {
	Path string `json:"path"`
}

// GetMetadataResponse carries the matched file metadata.
type GetMetadataResponse struct {
	Files []*syftfile.FileMetadata `json:"files"`
}

// GetDiffRequest asks the server to diff its copy of path against the
// client's signature.
type GetDiffRequest struct {
	Path      string            `json:"path"`
	Signature syftfile.B85Bytes `json:"signature"`
}

// GetDiffResponse carries the delta that patches the client's copy into the
// server's, plus the hash the patched result must have.
type GetDiffResponse struct {
	Path string            `json:"path"`
	Diff syftfile.B85Bytes `json:"diff"`
	Hash string            `json:"hash"`
}

// ApplyDiffRequest pushes a delta for the server to apply to its copy of
// path. ExpectedHash is the hash the patched file must have; a mismatch is a
// conflict.
type ApplyDiffRequest struct {
	Path         string            `json:"path"`
	Diff         syftfile.B85Bytes `json:"diff"`
	ExpectedHash string            `json:"expected_hash"`
}

// ApplyDiffResponse reports the server's hash after applying the delta.
type ApplyDiffResponse struct {
	Path        string `json:"path"`
	CurrentHash string `json:"current_hash"`
}

// DeleteRequest removes one file from the server.
type DeleteRequest struct {
	Path string `json:"path"`
}

// DownloadRequest fetches the raw body of one file.
type DownloadRequest struct {
	Path string `json:"path"`
}

// DownloadBulkRequest fetches many files in one tar stream.
type DownloadBulkRequest struct {
	Paths []string `json:"paths"`
}
