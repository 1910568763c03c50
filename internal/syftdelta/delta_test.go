package syftdelta

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmined/syftbox/internal/syftfile"
)

func TestRoundTrip(t *testing.T) {
	base := []byte("the quick brown fox jumps over the lazy dog")
	target := []byte("the quick brown fox leaps over the sleepy dog")

	sig := Signature(base)
	require.NotEmpty(t, sig)

	diff, err := Diff(sig, target)
	require.NoError(t, err)

	patched, err := Apply(base, diff)
	require.NoError(t, err)
	assert.Equal(t, target, patched)
}

func TestRoundTripEmptyBase(t *testing.T) {
	target := []byte("brand new content")

	sig := Signature(nil)
	diff, err := Diff(sig, target)
	require.NoError(t, err)

	patched, err := Apply(nil, diff)
	require.NoError(t, err)
	assert.Equal(t, target, patched)
}

func TestRoundTripLarge(t *testing.T) {
	base := bytes.Repeat([]byte("0123456789abcdef"), 64*1024)
	target := append(append([]byte("prefix-"), base...), []byte("-suffix")...)
	target[len(target)/2] ^= 0xff

	sig := Signature(base)
	diff, err := Diff(sig, target)
	require.NoError(t, err)

	patched, err := Apply(base, diff)
	require.NoError(t, err)
	assert.Equal(t, syftfile.HashBytes(target), syftfile.HashBytes(patched))
}

func TestStaleBaseFailsHashCheck(t *testing.T) {
	base := bytes.Repeat([]byte("stable block content "), 1024)
	target := append(bytes.Repeat([]byte("stable block content "), 1024), []byte("tail")...)

	sig := Signature(base)
	diff, err := Diff(sig, target)
	require.NoError(t, err)

	// the base changed after the signature was taken
	stale := bytes.Repeat([]byte("different block data!"), 1024)
	patched, err := Apply(stale, diff)
	if err == nil {
		assert.NotEqual(t, syftfile.HashBytes(target), syftfile.HashBytes(patched))
	}
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Diff([]byte{0xff}, []byte("target"))
	assert.Error(t, err)

	_, err = Apply([]byte("base"), []byte{0xff, 0xff, 0xff})
	assert.Error(t, err)
}
