package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	einotool "github.com/cloudwego/eino/components/tool"
)

const globDescription = `Matches file paths against a glob pattern within the working copy.

Supports doublestar patterns like "**/*.go" or "src/**/*.ts". Returns
matching paths relative to the repository root, most recently modified
first, capped at 100 results.`

const maxGlobResults = 100

// GlobTool implements the glob contract.
type GlobTool struct {
	workDir string
}

// GlobInput is the glob tool's argument shape.
type GlobInput struct {
	Pattern string `json:"pattern"`
	Path    string `json:"path,omitempty"`
}

// GlobOutput is the glob tool's JSON result shape.
type GlobOutput struct {
	Files     []string `json:"files"`
	Count     int      `json:"count"`
	Truncated bool     `json:"truncated"`
}

// NewGlobTool creates a new glob tool rooted at workDir.
func NewGlobTool(workDir string) *GlobTool {
	return &GlobTool{workDir: workDir}
}

func (t *GlobTool) ID() string          { return "glob" }
func (t *GlobTool) Description() string { return globDescription }

func (t *GlobTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"pattern": {"type": "string", "description": "Doublestar glob pattern, e.g. **/*.go"},
			"path": {"type": "string", "description": "Directory to search in, relative to the repository root"}
		},
		"required": ["pattern"]
	}`)
}

type globMatch struct {
	rel     string
	modTime int64
}

func (t *GlobTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params GlobInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	root := t.workDir
	if toolCtx != nil && toolCtx.WorkDir != "" {
		root = toolCtx.WorkDir
	}

	searchDir := root
	if params.Path != "" {
		abs, err := ResolveInWorkspace(root, params.Path)
		if err != nil {
			return nil, err
		}
		searchDir = abs
	}

	var matches []globMatch
	err := filepath.WalkDir(searchDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		relToSearch, err := filepath.Rel(searchDir, path)
		if err != nil {
			return nil
		}
		ok, err := doublestar.Match(params.Pattern, filepath.ToSlash(relToSearch))
		if err != nil || !ok {
			return nil
		}
		relToRoot, err := filepath.Rel(root, path)
		if err != nil {
			relToRoot = relToSearch
		}
		info, err := d.Info()
		var modTime int64
		if err == nil {
			modTime = info.ModTime().Unix()
		}
		matches = append(matches, globMatch{rel: filepath.ToSlash(relToRoot), modTime: modTime})
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("walk %s: %w", params.Path, err)
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].modTime > matches[j].modTime })

	truncated := false
	if len(matches) > maxGlobResults {
		matches = matches[:maxGlobResults]
		truncated = true
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		files = append(files, m.rel)
	}

	out := GlobOutput{Files: files, Count: len(files), Truncated: truncated}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}

	return &Result{
		Title:  fmt.Sprintf("Found %d files", out.Count),
		Output: string(raw),
		Metadata: map[string]any{
			"pattern":   params.Pattern,
			"count":     out.Count,
			"truncated": out.Truncated,
		},
	}, nil
}

func (t *GlobTool) EinoTool() einotool.InvokableTool {
	return &einoToolWrapper{tool: t}
}
