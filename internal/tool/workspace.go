package tool

import (
	"fmt"
	"path/filepath"
	"strings"
)

// PathOutsideWorkspaceError is returned when a tool's target path, once
// canonicalised, is not a descendant of the gateway's repo root.
type PathOutsideWorkspaceError struct {
	Path string
}

func (e *PathOutsideWorkspaceError) Error() string {
	return fmt.Sprintf("path is outside workspace: %s", e.Path)
}

// ResolveInWorkspace canonicalises rel against root (resolving ".." purely
// lexically, without touching the filesystem) and rejects empty paths and
// paths that escape root.
func ResolveInWorkspace(root, rel string) (string, error) {
	if strings.TrimSpace(rel) == "" {
		return "", &PathOutsideWorkspaceError{Path: rel}
	}

	var abs string
	if filepath.IsAbs(rel) {
		abs = filepath.Clean(rel)
	} else {
		abs = filepath.Clean(filepath.Join(root, rel))
	}

	cleanRoot := filepath.Clean(root)
	if abs != cleanRoot && !strings.HasPrefix(abs, cleanRoot+string(filepath.Separator)) {
		return "", &PathOutsideWorkspaceError{Path: rel}
	}
	return abs, nil
}
