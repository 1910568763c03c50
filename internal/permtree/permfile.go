// Package permtree loads and evaluates the permission files that govern
// access inside a datasite. A permission file is a flat JSON record naming
// admin, read and write principals; the deepest file on a path wins.
package permtree

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/goccy/go-json"
	"github.com/openmined/syftbox/internal/syftfile"
	"github.com/openmined/syftbox/internal/utils"
)

const (
	// PermFileName is the fixed basename of permission files.
	PermFileName = "_.syftperm"

	// Everyone grants a right to all users when present in the read or
	// write lists. It is ignored in the admin list.
	Everyone = "GLOBAL"
)

// PermFile is the parsed form of one permission file.
type PermFile struct {
	Admin []string `json:"admin"`
	Read  []string `json:"read"`
	Write []string `json:"write"`
}

// Access is the effective permission of one user at one path.
type Access struct {
	Read  bool
	Write bool
	Admin bool
}

// IsPermFilePath reports whether relPath names a permission file.
func IsPermFilePath(relPath string) bool {
	return filepath.Base(relPath) == PermFileName
}

// OwnerOnly returns a permission file granting all rights to owner alone.
func OwnerOnly(owner string) *PermFile {
	return &PermFile{
		Admin: []string{owner},
		Read:  []string{owner},
		Write: []string{owner},
	}
}

// PublicRead returns a permission file with world read and owner write.
func PublicRead(owner string) *PermFile {
	return &PermFile{
		Admin: []string{owner},
		Read:  []string{Everyone},
		Write: []string{owner},
	}
}

// Parse decodes a permission file body.
func Parse(data []byte) (*PermFile, error) {
	var pf PermFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse permission file: %w", err)
	}
	return &pf, nil
}

// Load reads and parses the permission file at absPath.
func Load(absPath string) (*PermFile, error) {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read permission file: %w", err)
	}
	return Parse(data)
}

// Bytes serializes the permission file.
func (p *PermFile) Bytes() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// Save writes the permission file into dir under its fixed name.
func (p *PermFile) Save(dir string) error {
	data, err := p.Bytes()
	if err != nil {
		return fmt.Errorf("marshal permission file: %w", err)
	}
	if err := utils.EnsureDir(dir); err != nil {
		return err
	}
	return syftfile.WriteFileAtomic(filepath.Join(dir, PermFileName), data)
}

// AccessFor evaluates this record for one user. Admins hold every right in
// their scope; Everyone never grants admin.
func (p *PermFile) AccessFor(user string) Access {
	admin := slices.Contains(p.Admin, user)
	if admin {
		return Access{Read: true, Write: true, Admin: true}
	}
	return Access{
		Read:  slices.Contains(p.Read, user) || slices.Contains(p.Read, Everyone),
		Write: slices.Contains(p.Write, user) || slices.Contains(p.Write, Everyone),
	}
}
