// Package syftdelta wraps the rsync engine used for differential transfer.
// Signatures and deltas cross the wire as opaque byte blobs; the encoding is
// private to this package.
package syftdelta

import (
	"fmt"

	"github.com/mutagen-io/mutagen/pkg/synchronization/rsync"
)

// Signature computes the rsync block signature of base.
func Signature(base []byte) []byte {
	// engines keep internal buffers, so one per call instead of sharing
	sig := rsync.NewEngine().BytesSignature(base, 0)
	return mustEncodeSignature(sig)
}

// Diff computes the delta that transforms the bytes described by signature
// into target.
func Diff(signature []byte, target []byte) ([]byte, error) {
	sig, err := decodeSignature(signature)
	if err != nil {
		return nil, fmt.Errorf("decode signature: %w", err)
	}

	ops := rsync.NewEngine().DeltafyBytes(target, sig, 0)
	return encodeDelta(ops)
}

// Apply patches base with delta and returns the resulting bytes. The
// signature the delta was computed against is re-derived from base, so
// applying a delta to bytes that changed since the signature was taken yields
// garbage that the caller's hash check must reject.
func Apply(base []byte, delta []byte) ([]byte, error) {
	ops, err := decodeDelta(delta)
	if err != nil {
		return nil, fmt.Errorf("decode delta: %w", err)
	}

	engine := rsync.NewEngine()
	sig := engine.BytesSignature(base, 0)

	result, err := engine.PatchBytes(base, sig, ops)
	if err != nil {
		return nil, fmt.Errorf("patch: %w", err)
	}
	return result, nil
}
