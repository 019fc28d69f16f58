package tool

import (
	"context"
	"encoding/json"
	"fmt"

	einotool "github.com/cloudwego/eino/components/tool"
)

const finderDescription = `Finds files by name pattern, optionally filtered by content.

Composes glob (name_pattern against the repository) with grep
(content_pattern within the matched files) in a single call, for the common
"find files named X that contain Y" search.`

// FinderTool implements the finder contract by composing GlobTool and GrepTool.
type FinderTool struct {
	glob *GlobTool
	grep *GrepTool
}

// FinderInput is the finder tool's argument shape.
type FinderInput struct {
	NamePattern    string `json:"name_pattern"`
	ContentPattern string `json:"content_pattern,omitempty"`
	Path           string `json:"path,omitempty"`
}

// FinderOutput is the finder tool's JSON result shape.
type FinderOutput struct {
	Files     []string    `json:"files"`
	Matches   []GrepMatch `json:"matches,omitempty"`
	Count     int         `json:"count"`
	Truncated bool        `json:"truncated"`
}

// NewFinderTool creates a new finder tool rooted at workDir.
func NewFinderTool(workDir string) *FinderTool {
	return &FinderTool{glob: NewGlobTool(workDir), grep: NewGrepTool(workDir)}
}

func (t *FinderTool) ID() string          { return "finder" }
func (t *FinderTool) Description() string { return finderDescription }

func (t *FinderTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"name_pattern": {"type": "string", "description": "Doublestar glob to match file names, e.g. \"**/*.go\""},
			"content_pattern": {"type": "string", "description": "Optional regex the matched files' contents must satisfy"},
			"path": {"type": "string", "description": "Directory to search in, relative to the repository root"}
		},
		"required": ["name_pattern"]
	}`)
}

func (t *FinderTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params FinderInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	globInput, err := json.Marshal(GlobInput{Pattern: params.NamePattern, Path: params.Path})
	if err != nil {
		return nil, err
	}
	globResult, err := t.glob.Execute(ctx, globInput, toolCtx)
	if err != nil {
		return nil, err
	}
	var globOut GlobOutput
	if err := json.Unmarshal([]byte(globResult.Output), &globOut); err != nil {
		return nil, err
	}

	out := FinderOutput{Files: globOut.Files, Count: globOut.Count, Truncated: globOut.Truncated}

	if params.ContentPattern != "" {
		var filtered []GrepMatch
		for _, f := range globOut.Files {
			grepInput, err := json.Marshal(GrepInput{Pattern: params.ContentPattern, Path: f})
			if err != nil {
				return nil, err
			}
			grepResult, err := t.grep.Execute(ctx, grepInput, toolCtx)
			if err != nil {
				continue
			}
			var grepOut GrepOutput
			if err := json.Unmarshal([]byte(grepResult.Output), &grepOut); err != nil {
				continue
			}
			filtered = append(filtered, grepOut.Matches...)
		}
		out.Matches = filtered
		out.Files = nil
		out.Count = len(filtered)
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}

	return &Result{
		Title:  fmt.Sprintf("Found %d results", out.Count),
		Output: string(raw),
		Metadata: map[string]any{
			"count":     out.Count,
			"truncated": out.Truncated,
		},
	}, nil
}

func (t *FinderTool) EinoTool() einotool.InvokableTool {
	return &einoToolWrapper{tool: t}
}
