package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	einotool "github.com/cloudwego/eino/components/tool"

	"github.com/locuscode/locus/internal/edithistory"
)

const undoDescription = `Reverts the most recent edit_file or create_file change to a path.

Pops one entry off that path's undo stack and writes the prior content back
to disk. Fails with no effect if the path has no recorded history.`

// UndoTool implements the undo_edit contract.
type UndoTool struct {
	workDir string
	history *edithistory.History
}

// UndoInput is the undo_edit tool's argument shape.
type UndoInput struct {
	Path string `json:"path"`
}

// UndoOutput is the undo_edit tool's JSON result shape.
type UndoOutput struct {
	Path           string `json:"path"`
	RestoredBytes  int    `json:"restored_bytes"`
	RemainingDepth int    `json:"remaining_depth"`
}

// NewUndoTool creates a new undo_edit tool rooted at workDir.
func NewUndoTool(workDir string, history *edithistory.History) *UndoTool {
	return &UndoTool{workDir: workDir, history: history}
}

func (t *UndoTool) ID() string          { return "undo_edit" }
func (t *UndoTool) Description() string { return undoDescription }

func (t *UndoTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string", "description": "Path relative to the repository root whose last edit should be undone"}
		},
		"required": ["path"]
	}`)
}

func (t *UndoTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params UndoInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if t.history == nil {
		return nil, fmt.Errorf("undo_edit: no edit history configured")
	}

	root := t.workDir
	if toolCtx != nil && toolCtx.WorkDir != "" {
		root = toolCtx.WorkDir
	}

	abs, err := ResolveInWorkspace(root, params.Path)
	if err != nil {
		return nil, err
	}
	rel, relErr := filepath.Rel(root, abs)
	if relErr != nil {
		rel = params.Path
	}

	entry, err := t.history.Pop(rel)
	if err != nil {
		if errors.Is(err, edithistory.ErrNothingToUndo) {
			return nil, fmt.Errorf("nothing to undo for %s", params.Path)
		}
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir for %s: %w", params.Path, err)
	}
	if err := os.WriteFile(abs, []byte(entry.Old), 0o644); err != nil {
		return nil, fmt.Errorf("restore %s: %w", params.Path, err)
	}

	out := UndoOutput{Path: params.Path, RestoredBytes: len(entry.Old), RemainingDepth: t.history.Depth(rel)}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}

	return &Result{
		Title:  fmt.Sprintf("Undid edit to %s", filepath.Base(params.Path)),
		Output: string(raw),
		Metadata: map[string]any{
			"path":            params.Path,
			"remaining_depth": out.RemainingDepth,
		},
	}, nil
}

func (t *UndoTool) EinoTool() einotool.InvokableTool {
	return &einoToolWrapper{tool: t}
}
