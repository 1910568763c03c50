package syftdelta

import (
	"encoding/binary"
	"fmt"

	"github.com/mutagen-io/mutagen/pkg/synchronization/rsync"
	"google.golang.org/protobuf/proto"
)

// Wire framing: a signature is a single protobuf message; a delta is a
// sequence of uvarint-length-prefixed protobuf operations.

func mustEncodeSignature(sig *rsync.Signature) []byte {
	data, err := proto.Marshal(sig)
	if err != nil {
		panic(fmt.Errorf("marshal signature: %w", err))
	}
	return data
}

func decodeSignature(data []byte) (*rsync.Signature, error) {
	sig := &rsync.Signature{}
	if err := proto.Unmarshal(data, sig); err != nil {
		return nil, err
	}
	// signatures arrive over the network, validate before feeding the engine
	if err := sig.EnsureValid(); err != nil {
		return nil, err
	}
	return sig, nil
}

func encodeDelta(ops []*rsync.Operation) ([]byte, error) {
	var out []byte
	var size [binary.MaxVarintLen64]byte
	for _, op := range ops {
		data, err := proto.Marshal(op)
		if err != nil {
			return nil, fmt.Errorf("marshal operation: %w", err)
		}
		n := binary.PutUvarint(size[:], uint64(len(data)))
		out = append(out, size[:n]...)
		out = append(out, data...)
	}
	return out, nil
}

func decodeDelta(data []byte) ([]*rsync.Operation, error) {
	var ops []*rsync.Operation
	for len(data) > 0 {
		size, n := binary.Uvarint(data)
		if n <= 0 || size > uint64(len(data)-n) {
			return nil, fmt.Errorf("truncated delta frame")
		}
		data = data[n:]

		op := &rsync.Operation{}
		if err := proto.Unmarshal(data[:size], op); err != nil {
			return nil, fmt.Errorf("unmarshal operation: %w", err)
		}
		if err := op.EnsureValid(); err != nil {
			return nil, fmt.Errorf("invalid operation: %w", err)
		}
		ops = append(ops, op)
		data = data[size:]
	}
	return ops, nil
}
