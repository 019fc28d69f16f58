package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	einotool "github.com/cloudwego/eino/components/tool"
)

const readDescription = `Reads a file or lists a directory from the working copy.

Returns {type: "file"|"directory", content?, entries?, truncated, size_bytes}.
Refuses any path outside the repository root.`

const defaultReadByteCap = 256 * 1024

// ReadTool implements the file_read / read contract.
type ReadTool struct {
	workDir string
}

// ReadInput is the read tool's argument shape.
type ReadInput struct {
	Path    string `json:"path"`
	ByteCap int    `json:"byte_cap,omitempty"`
}

// ReadOutput is the read tool's JSON result shape.
type ReadOutput struct {
	Type      string   `json:"type"`
	Content   string   `json:"content,omitempty"`
	Entries   []string `json:"entries,omitempty"`
	Truncated bool     `json:"truncated"`
	SizeBytes int64    `json:"size_bytes"`
}

// NewReadTool creates a new read tool rooted at workDir.
func NewReadTool(workDir string) *ReadTool {
	return &ReadTool{workDir: workDir}
}

func (t *ReadTool) ID() string          { return "read" }
func (t *ReadTool) Description() string { return readDescription }

func (t *ReadTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string", "description": "Path relative to the repository root"},
			"byte_cap": {"type": "integer", "description": "Maximum bytes of file content to return (default 262144)"}
		},
		"required": ["path"]
	}`)
}

func (t *ReadTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params ReadInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if params.ByteCap <= 0 {
		params.ByteCap = defaultReadByteCap
	}

	root := t.workDir
	if toolCtx != nil && toolCtx.WorkDir != "" {
		root = toolCtx.WorkDir
	}

	abs, err := ResolveInWorkspace(root, params.Path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", params.Path, err)
	}

	var out ReadOutput
	if info.IsDir() {
		entries, err := os.ReadDir(abs)
		if err != nil {
			return nil, fmt.Errorf("readdir %s: %w", params.Path, err)
		}
		out.Type = "directory"
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() {
				name += "/"
			}
			out.Entries = append(out.Entries, name)
		}
		out.SizeBytes = int64(len(entries))
	} else {
		data, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", params.Path, err)
		}
		out.Type = "file"
		out.SizeBytes = info.Size()
		if len(data) > params.ByteCap {
			out.Content = string(data[:params.ByteCap])
			out.Truncated = true
		} else {
			out.Content = string(data)
		}
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}

	return &Result{
		Title:  fmt.Sprintf("Read %s", filepath.Base(params.Path)),
		Output: string(raw),
		Metadata: map[string]any{
			"path": params.Path,
			"type": out.Type,
		},
	}, nil
}

func (t *ReadTool) EinoTool() einotool.InvokableTool {
	return &einoToolWrapper{tool: t}
}
