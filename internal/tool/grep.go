package tool

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
	einotool "github.com/cloudwego/eino/components/tool"
)

const grepDescription = `Searches file contents in the working copy by regular expression.

Supports full Go regex syntax. Filter files with a doublestar include
pattern (e.g. "*.go", "**/*.{ts,tsx}"). Returns matching lines with file
path and line number, capped at 100 matches.`

const maxGrepMatches = 100

// GrepTool implements the grep contract.
type GrepTool struct {
	workDir string
}

// GrepInput is the grep tool's argument shape.
type GrepInput struct {
	Pattern string `json:"pattern"`
	Path    string `json:"path,omitempty"`
	Include string `json:"include,omitempty"`
}

// GrepMatch is one matched line.
type GrepMatch struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Content string `json:"content"`
}

// GrepOutput is the grep tool's JSON result shape.
type GrepOutput struct {
	Matches   []GrepMatch `json:"matches"`
	Count     int         `json:"count"`
	Truncated bool        `json:"truncated"`
}

// NewGrepTool creates a new grep tool rooted at workDir.
func NewGrepTool(workDir string) *GrepTool {
	return &GrepTool{workDir: workDir}
}

func (t *GrepTool) ID() string          { return "grep" }
func (t *GrepTool) Description() string { return grepDescription }

func (t *GrepTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"pattern": {"type": "string", "description": "Regular expression to search for in file contents"},
			"path": {"type": "string", "description": "Directory to search in, relative to the repository root"},
			"include": {"type": "string", "description": "Doublestar glob to filter which files are searched, e.g. \"**/*.go\""}
		},
		"required": ["pattern"]
	}`)
}

func (t *GrepTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params GrepInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	re, err := regexp.Compile(params.Pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
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

	var matches []GrepMatch
	truncated := false

	err = filepath.WalkDir(searchDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || truncated {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		if params.Include != "" {
			rel, relErr := filepath.Rel(searchDir, path)
			if relErr != nil {
				return nil
			}
			ok, matchErr := doublestar.Match(params.Include, filepath.ToSlash(rel))
			if matchErr != nil || !ok {
				return nil
			}
		}

		f, openErr := os.Open(path)
		if openErr != nil {
			return nil
		}
		defer f.Close()

		relToRoot, relErr := filepath.Rel(root, path)
		if relErr != nil {
			relToRoot = path
		}

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		lineNum := 0
		for scanner.Scan() {
			lineNum++
			if re.MatchString(scanner.Text()) {
				matches = append(matches, GrepMatch{File: filepath.ToSlash(relToRoot), Line: lineNum, Content: scanner.Text()})
				if len(matches) >= maxGrepMatches {
					truncated = true
					return nil
				}
			}
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("search %s: %w", params.Path, err)
	}

	out := GrepOutput{Matches: matches, Count: len(matches), Truncated: truncated}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}

	return &Result{
		Title:  fmt.Sprintf("Found %d matches", out.Count),
		Output: string(raw),
		Metadata: map[string]any{
			"pattern":   params.Pattern,
			"count":     out.Count,
			"truncated": out.Truncated,
		},
	}, nil
}

func (t *GrepTool) EinoTool() einotool.InvokableTool {
	return &einoToolWrapper{tool: t}
}
