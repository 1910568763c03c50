package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openmined/syftbox/internal/syftfile"
)

func meta(hash string) *syftfile.FileMetadata {
	return &syftfile.FileMetadata{Path: "a@x.com/f.txt", Hash: hash}
}

func TestDecideActions(t *testing.T) {
	cases := []struct {
		name       string
		local      *syftfile.FileMetadata
		prev       *syftfile.FileMetadata
		remote     *syftfile.FileMetadata
		wantLocal  SyncAction
		wantRemote SyncAction
	}{
		{"all absent", nil, nil, nil, ActionNoop, ActionNoop},
		{"in sync", meta("h1"), meta("h1"), meta("h1"), ActionNoop, ActionNoop},
		{"in sync, stale snapshot", meta("h2"), meta("h1"), meta("h2"), ActionNoop, ActionNoop},

		{"new local file", meta("h1"), nil, nil, ActionNoop, ActionCreateRemote},
		{"local edit", meta("h2"), meta("h1"), meta("h1"), ActionNoop, ActionModifyRemote},
		{"local delete", nil, meta("h1"), meta("h1"), ActionNoop, ActionDeleteRemote},

		{"new remote file", nil, nil, meta("h1"), ActionCreateLocal, ActionNoop},
		{"remote edit", meta("h1"), meta("h1"), meta("h2"), ActionModifyLocal, ActionNoop},
		{"remote delete", meta("h1"), meta("h1"), nil, ActionDeleteLocal, ActionNoop},

		// both sides diverged: remote wins
		{"conflict, both edited", meta("h2"), meta("h1"), meta("h3"), ActionModifyLocal, ActionNoop},
		{"conflict, local deleted remote edited", nil, meta("h1"), meta("h3"), ActionCreateLocal, ActionNoop},
		{"conflict, local edited remote deleted", meta("h2"), meta("h1"), nil, ActionDeleteLocal, ActionNoop},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotLocal, gotRemote := decideActions(tc.local, tc.prev, tc.remote)
			assert.Equal(t, tc.wantLocal, gotLocal, "local action")
			assert.Equal(t, tc.wantRemote, gotRemote, "remote action")
		})
	}
}

func TestPermDir(t *testing.T) {
	assert.Equal(t, "", permDir("a@x.com/_.syftperm", "a@x.com"))
	assert.Equal(t, "sub", permDir("a@x.com/sub/_.syftperm", "a@x.com"))
	assert.Equal(t, "sub/deep", permDir("a@x.com/sub/deep/_.syftperm", "a@x.com"))
}
