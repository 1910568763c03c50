package syftfile

import (
	"encoding/ascii85"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// FileMetadata describes one synced file. Path is always a POSIX relative
// path rooted at the datasites directory, so its first segment is the owning
// datasite email.
type FileMetadata struct {
	Path         string    `json:"path"`
	Hash         string    `json:"hash"`
	Signature    B85Bytes  `json:"signature,omitempty"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// SameContent reports whether two metadata records describe identical bytes.
// Either side may be nil (file absent).
func SameContent(a, b *FileMetadata) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.Hash == b.Hash
}

// Newer returns the record with the later modification time.
func Newer(a, b *FileMetadata) *FileMetadata {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if b.LastModified.After(a.LastModified) {
		return b
	}
	return a
}

// B85Bytes is a byte slice carried in JSON as an ascii85 string. The ascii85
// alphabet contains '"' and '\', so the encoded text goes through the json
// codec for escaping rather than being quoted by hand.
type B85Bytes []byte

func (b B85Bytes) MarshalJSON() ([]byte, error) {
	encoded := make([]byte, ascii85.MaxEncodedLen(len(b)))
	n := ascii85.Encode(encoded, b)
	return json.Marshal(string(encoded[:n]))
}

func (b *B85Bytes) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("b85: %w", err)
	}
	if text == "" {
		*b = nil
		return nil
	}

	// 'z' collapses a zero group into one char, so output can be 4x the input
	decoded := make([]byte, 4*len(text))
	n, _, err := ascii85.Decode(decoded, []byte(text), true)
	if err != nil {
		return fmt.Errorf("b85 decode: %w", err)
	}
	*b = decoded[:n]
	return nil
}
