package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"syscall"
	"time"

	einotool "github.com/cloudwego/eino/components/tool"

	"github.com/locuscode/locus/internal/permission"
)

// DefaultBashTimeout is used when the caller does not specify one.
const DefaultBashTimeout = 60 * time.Second

// MaxBashTimeout caps the timeout a caller may request.
const MaxBashTimeout = 10 * time.Minute

// MaxOutputLength caps captured stdout/stderr before truncation.
const MaxOutputLength = 30000

const sigkillGrace = 200 * time.Millisecond

const bashDescription = `Runs a shell command in the working copy and returns its output.

Returns {stdout, stderr, exit_code, duration_ms, success}. The working
directory defaults to the repository root. A timeout (default 60s, max 10m)
kills the whole process group on expiry.`

// BashTool implements the bash / run_cmd contract.
type BashTool struct {
	workDir     string
	shell       string
	permChecker *permission.Checker
}

// BashInput is the bash tool's argument shape.
type BashInput struct {
	Command string `json:"command"`
	Timeout int    `json:"timeout_ms,omitempty"`
}

// BashOutput is the bash tool's JSON result shape.
type BashOutput struct {
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ExitCode   int    `json:"exit_code"`
	DurationMS int64  `json:"duration_ms"`
	Success    bool   `json:"success"`
	TimedOut   bool   `json:"timed_out"`
}

// BashToolOption configures the bash tool.
type BashToolOption func(*BashTool)

// WithPermissionChecker wires a permission checker into the tool; bash is
// execute-class, so the checker asks for confirmation in interactive mode.
func WithPermissionChecker(checker *permission.Checker) BashToolOption {
	return func(t *BashTool) { t.permChecker = checker }
}

// NewBashTool creates a new bash tool.
func NewBashTool(workDir string, opts ...BashToolOption) *BashTool {
	t := &BashTool{workDir: workDir, shell: detectShell()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func detectShell() string {
	if s := os.Getenv("SHELL"); s != "" {
		return s
	}
	if runtime.GOOS == "windows" {
		if comspec := os.Getenv("COMSPEC"); comspec != "" {
			return comspec
		}
		return "cmd.exe"
	}
	if bash, err := exec.LookPath("bash"); err == nil {
		return bash
	}
	return "/bin/sh"
}

func (t *BashTool) ID() string          { return "bash" }
func (t *BashTool) Description() string { return bashDescription }

func (t *BashTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"command": {"type": "string", "description": "The shell command to execute"},
			"timeout_ms": {"type": "integer", "description": "Optional timeout in milliseconds (default 60000, max 600000)"}
		},
		"required": ["command"]
	}`)
}

func (t *BashTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params BashInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	if t.permChecker != nil && toolCtx != nil {
		req := permission.Request{SessionID: toolCtx.SessionID, ToolName: t.ID(), Class: permission.ClassExecute, Title: params.Command}
		if err := t.permChecker.Check(ctx, req, toolCtx.SandboxPolicy); err != nil {
			return nil, err
		}
	}

	timeout := DefaultBashTimeout
	if params.Timeout > 0 {
		timeout = time.Duration(params.Timeout) * time.Millisecond
		if timeout > MaxBashTimeout {
			timeout = MaxBashTimeout
		}
	}

	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(cmdCtx, t.shell, "/c", params.Command)
	} else {
		cmd = exec.CommandContext(cmdCtx, t.shell, "-c", params.Command)
	}

	if toolCtx != nil && toolCtx.WorkDir != "" {
		cmd.Dir = toolCtx.WorkDir
	} else if t.workDir != "" {
		cmd.Dir = t.workDir
	}
	cmd.Env = os.Environ()
	if runtime.GOOS != "windows" {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	}

	var stdout, stderr outputBuffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Start()
	if runErr == nil {
		waitCh := make(chan error, 1)
		go func() { waitCh <- cmd.Wait() }()

		select {
		case runErr = <-waitCh:
		case <-cmdCtx.Done():
			t.killProcessGroup(cmd)
			<-waitCh
			runErr = cmdCtx.Err()
		}
	}
	duration := time.Since(start)

	timedOut := cmdCtx.Err() == context.DeadlineExceeded
	exitCode := 0
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	} else if timedOut {
		exitCode = -1
	}

	out := BashOutput{
		Stdout:     stdout.truncated(),
		Stderr:     stderr.truncated(),
		ExitCode:   exitCode,
		DurationMS: duration.Milliseconds(),
		Success:    runErr == nil && exitCode == 0,
		TimedOut:   timedOut,
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}

	return &Result{
		Title:  fmt.Sprintf("Ran %q", params.Command),
		Output: string(raw),
		Metadata: map[string]any{
			"exit_code": out.ExitCode,
			"timed_out": out.TimedOut,
		},
	}, nil
}

func (t *BashTool) killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	pid := cmd.Process.Pid
	if runtime.GOOS == "windows" {
		exec.Command("taskkill", "/pid", fmt.Sprint(pid), "/f", "/t").Run()
		return
	}
	syscall.Kill(-pid, syscall.SIGTERM)
	time.Sleep(sigkillGrace)
	if cmd.ProcessState == nil {
		syscall.Kill(-pid, syscall.SIGKILL)
	}
}

func (t *BashTool) EinoTool() einotool.InvokableTool {
	return &einoToolWrapper{tool: t}
}

type outputBuffer struct {
	data []byte
}

func (b *outputBuffer) Write(p []byte) (int, error) {
	if len(b.data) < MaxOutputLength {
		remaining := MaxOutputLength - len(b.data)
		if remaining > len(p) {
			remaining = len(p)
		}
		b.data = append(b.data, p[:remaining]...)
	}
	return len(p), nil
}

func (b *outputBuffer) truncated() string {
	return string(b.data)
}
