// Package lookup resolves import module names to candidate files on disk.
package lookup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FindByPrefix scans dir for a regular file whose base name starts with
// prefix, compared case-insensitively. It returns the full path of the
// first match in directory order, or ok=false when nothing matches.
// Import tables frequently record module names without an extension
// ("KERNEL32" for kernel32.dll), which is why this is a prefix match
// rather than an exact one.
func FindByPrefix(dir, prefix string) (string, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false, fmt.Errorf("reading resource folder: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if hasFoldPrefix(entry.Name(), prefix) {
			return filepath.Join(dir, entry.Name()), true, nil
		}
	}
	return "", false, nil
}

func hasFoldPrefix(name, prefix string) bool {
	if len(name) < len(prefix) {
		return false
	}
	return strings.EqualFold(name[:len(prefix)], prefix)
}
