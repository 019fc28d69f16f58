package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"syscall"

	einotool "github.com/cloudwego/eino/components/tool"
)

const handoffDescription = `Starts a long-running command as a detached background process.

Unlike bash, handoff does not wait for completion: the command is started
in its own process group and session so it keeps running after the tool
call returns, and returns the spawned pid immediately.`

// HandoffTool implements the handoff contract.
type HandoffTool struct {
	workDir string
}

// HandoffInput is the handoff tool's argument shape.
type HandoffInput struct {
	Command string `json:"command"`
}

// HandoffOutput is the handoff tool's JSON result shape.
type HandoffOutput struct {
	PID int `json:"pid"`
}

// NewHandoffTool creates a new handoff tool rooted at workDir.
func NewHandoffTool(workDir string) *HandoffTool {
	return &HandoffTool{workDir: workDir}
}

func (t *HandoffTool) ID() string          { return "handoff" }
func (t *HandoffTool) Description() string { return handoffDescription }

func (t *HandoffTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"command": {"type": "string", "description": "The shell command to start in the background"}
		},
		"required": ["command"]
	}`)
}

func (t *HandoffTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params HandoffInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	shell := detectShell()
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command(shell, "/c", params.Command)
	} else {
		cmd = exec.Command(shell, "-c", params.Command)
	}

	root := t.workDir
	if toolCtx != nil && toolCtx.WorkDir != "" {
		root = toolCtx.WorkDir
	}
	cmd.Dir = root
	cmd.Env = os.Environ()
	if runtime.GOOS != "windows" {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open devnull: %w", err)
	}
	defer devNull.Close()
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %q: %w", params.Command, err)
	}
	go cmd.Wait()

	out := HandoffOutput{PID: cmd.Process.Pid}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}

	return &Result{
		Title:  fmt.Sprintf("Started %q in background", params.Command),
		Output: string(raw),
		Metadata: map[string]any{
			"pid": out.PID,
		},
	}, nil
}

func (t *HandoffTool) EinoTool() einotool.InvokableTool {
	return &einoToolWrapper{tool: t}
}
