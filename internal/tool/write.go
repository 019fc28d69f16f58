package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	einotool "github.com/cloudwego/eino/components/tool"

	"github.com/locuscode/locus/internal/edithistory"
)

const writeDescription = `Creates or overwrites a file in the working copy.

Any existing content is recorded in the undo history before being replaced,
so undo_edit can restore it. Refuses any path outside the repository root.`

// WriteTool implements the create_file / file_write contract.
type WriteTool struct {
	workDir string
	history *edithistory.History
}

// WriteInput is the write tool's argument shape.
type WriteInput struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// WriteOutput is the write tool's JSON result shape.
type WriteOutput struct {
	Path    string `json:"path"`
	Bytes   int    `json:"bytes_written"`
	Created bool   `json:"created"`
}

// NewWriteTool creates a new create_file tool rooted at workDir, recording
// every overwrite into history so it can be undone.
func NewWriteTool(workDir string, history *edithistory.History) *WriteTool {
	return &WriteTool{workDir: workDir, history: history}
}

func (t *WriteTool) ID() string          { return "create_file" }
func (t *WriteTool) Description() string { return writeDescription }

func (t *WriteTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string", "description": "Path relative to the repository root"},
			"content": {"type": "string", "description": "Full file content to write"}
		},
		"required": ["path", "content"]
	}`)
}

func (t *WriteTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params WriteInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	root := t.workDir
	if toolCtx != nil && toolCtx.WorkDir != "" {
		root = toolCtx.WorkDir
	}

	abs, err := ResolveInWorkspace(root, params.Path)
	if err != nil {
		return nil, err
	}

	var oldContent string
	created := true
	if existing, err := os.ReadFile(abs); err == nil {
		oldContent = string(existing)
		created = false
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat %s: %w", params.Path, err)
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir for %s: %w", params.Path, err)
	}
	if err := os.WriteFile(abs, []byte(params.Content), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", params.Path, err)
	}

	if t.history != nil {
		rel, relErr := filepath.Rel(root, abs)
		if relErr != nil {
			rel = params.Path
		}
		if err := t.history.Record(rel, oldContent, params.Content); err != nil {
			return nil, fmt.Errorf("record edit history for %s: %w", params.Path, err)
		}
	}

	out := WriteOutput{Path: params.Path, Bytes: len(params.Content), Created: created}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}

	metadata := map[string]any{
		"path":    params.Path,
		"created": created,
	}
	if !created {
		diffText, additions, deletions := buildDiffMetadata(abs, oldContent, params.Content, root)
		metadata["diff"] = diffText
		metadata["additions"] = additions
		metadata["deletions"] = deletions
	}

	return &Result{
		Title:    fmt.Sprintf("Wrote %s", filepath.Base(params.Path)),
		Output:   string(raw),
		Metadata: metadata,
	}, nil
}

func (t *WriteTool) EinoTool() einotool.InvokableTool {
	return &einoToolWrapper{tool: t}
}
