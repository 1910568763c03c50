package sync

import (
	"bufio"
	"log/slog"
	"os"
	"strings"

	"github.com/openmined/syftbox/internal/utils"
	gitignore "github.com/sabhiram/go-gitignore"
)

var defaultIgnoreLines = []string{
	// syft
	"_.syftignore",
	"*.syftconflict",
	"*.syftrejected",
	// python
	".ipynb_checkpoints/",
	"__pycache__/",
	"*.py[cod]",
	".venv/",
	"venv/",
	// editors
	".vscode/",
	".idea/",
	// general
	".git/",
	"*.tmp",
	"*.swp",
	// OS
	".DS_Store",
	"Thumbs.db",
}

// IgnoreList decides which paths are excluded from syncing. Rules come from
// the built-in defaults plus the user's ignore file at the sync root. A path
// matches if either its full sync path or its datasite-relative remainder
// matches, so "/large/*" excludes "a@x.com/large/huge.bin".
type IgnoreList struct {
	ignore *gitignore.GitIgnore
}

// NewIgnoreList compiles the defaults plus the rules in ignorePath, if any.
func NewIgnoreList(ignorePath string) *IgnoreList {
	lines := make([]string, 0, len(defaultIgnoreLines))
	lines = append(lines, defaultIgnoreLines...)

	if utils.FileExists(ignorePath) {
		file, err := os.Open(ignorePath)
		if err != nil {
			slog.Warn("open ignore file", "path", ignorePath, "error", err)
		} else {
			defer file.Close()
			rules := 0
			scanner := bufio.NewScanner(file)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line != "" {
					lines = append(lines, line)
					rules++
				}
			}
			if err := scanner.Err(); err != nil {
				slog.Warn("read ignore file", "path", ignorePath, "error", err)
			} else {
				slog.Debug("loaded ignore file", "path", ignorePath, "rules", rules)
			}
		}
	}

	return &IgnoreList{ignore: gitignore.CompileIgnoreLines(lines...)}
}

// ShouldIgnore tests a sync path (datasite-relative, first segment an email).
func (l *IgnoreList) ShouldIgnore(relPath string) bool {
	relPath = utils.NormPath(relPath)
	if l.ignore.MatchesPath(relPath) {
		return true
	}

	// test again with the datasite prefix stripped so anchored rules like
	// "/large/*" apply inside every datasite
	if _, rest, found := strings.Cut(relPath, "/"); found {
		return l.ignore.MatchesPath(rest)
	}
	return false
}
