package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/locuscode/locus/internal/config"
	"github.com/locuscode/locus/internal/event"
	"github.com/locuscode/locus/internal/memory"
	"github.com/locuscode/locus/internal/orchestrator"
	"github.com/locuscode/locus/internal/permission"
	"github.com/locuscode/locus/internal/project"
	"github.com/locuscode/locus/internal/provider"
	"github.com/locuscode/locus/internal/session"
	"github.com/locuscode/locus/internal/tasklist"
	"github.com/locuscode/locus/internal/tool"
	"github.com/locuscode/locus/pkg/types"
)

// MissingTTYError reports that an interactive run was requested (no
// --prompt given) but stdin is not a terminal, per spec.md §6's exit code 2.
type MissingTTYError struct{}

func (e *MissingTTYError) Error() string {
	return "an interactive session requires a TTY on stdin; pass --prompt for one-shot use"
}

var (
	runMode      string
	runModel     string
	runProvider  string
	runWorkdir   string
	runMaxTurns  int
	runMaxTokens int
	runPrompt    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the agent loop against a workspace",
	Long: `Run drives one Orchestrator over a Session rooted at --workdir.

With --prompt, it sends exactly that one message and exits once the turn
closes. Without --prompt, it reads lines from stdin interactively until
EOF or ":exit", requiring stdin to be a TTY.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runMode, "mode", "", "Mode: rush|smart|deep (default smart)")
	runCmd.Flags().StringVarP(&runModel, "model", "m", "", "Model to use (provider/model format)")
	runCmd.Flags().StringVar(&runProvider, "provider", "", "Provider id (anthropic|openai|zai|ollama)")
	runCmd.Flags().StringVar(&runWorkdir, "workdir", "", "Workspace root (default current directory)")
	runCmd.Flags().IntVar(&runMaxTurns, "max-turns", 0, "Cap inner-loop round trips for this run (0 = unlimited)")
	runCmd.Flags().IntVar(&runMaxTokens, "max-tokens", 0, "Override the mode's max output tokens (0 = mode default)")
	runCmd.Flags().StringVar(&runPrompt, "prompt", "", "Send this message once and exit, instead of reading stdin")
}

func runRun(cmd *cobra.Command, args []string) error {
	workDir, err := GetWorkDir(runWorkdir)
	if err != nil {
		return err
	}
	workDir = resolveRepoRoot(workDir)

	paths := config.GetPaths()
	if err := paths.EnsurePaths(); err != nil {
		return err
	}

	appConfig, err := config.Load(workDir)
	if err != nil {
		return &orchestrator.ConfigError{Message: err.Error()}
	}

	if m := runModel; m != "" {
		appConfig.Model = m
	} else if gm := GetGlobalModel(); gm != "" {
		appConfig.Model = gm
	}

	providerID := runProvider
	if providerID == "" {
		providerID = config.DefaultProviderID(appConfig)
	}
	if providerID == "" {
		return &orchestrator.ConfigError{Message: "no provider configured: set ANTHROPIC_API_KEY, OPENAI_API_KEY, ZAI_API_KEY, or LOCUS_LLM=ollama"}
	}

	mode := types.Mode(strings.ToLower(runMode))
	switch mode {
	case "":
		mode = types.ModeSmart
	case types.ModeRush, types.ModeSmart, types.ModeDeep:
	default:
		return &orchestrator.ConfigError{Message: fmt.Sprintf("unknown mode %q: want rush, smart, or deep", runMode)}
	}
	limits := types.LimitsFor(mode)
	if runMaxTokens > 0 {
		limits.MaxOutputTokens = runMaxTokens
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	providerReg, err := provider.InitializeProviders(ctx, appConfig)
	if err != nil {
		return &orchestrator.ConfigError{Message: err.Error()}
	}

	permChecker := permission.NewChecker(terminalConfirm)

	taskStore, err := tasklist.Open(workDir)
	if err != nil {
		return err
	}
	defer taskStore.Close()

	toolReg, err := tool.DefaultRegistry(workDir, permChecker, taskStore)
	if err != nil {
		return err
	}
	gateway := tool.NewGateway(toolReg, permChecker)

	memClient, err := memory.New(workDir, nil)
	if err != nil {
		return &orchestrator.ConfigError{Message: err.Error()}
	}
	defer memClient.Close()

	bus := event.New()
	defer bus.Close()

	cfg := types.ConfigSnapshot{
		Model:         appConfig.Model,
		Provider:      providerID,
		Mode:          mode,
		Limits:        limits,
		SandboxPolicy: types.SandboxPolicy{Interactive: isatty.IsTerminal(os.Stdin.Fd())},
	}
	sess := session.New(workDir, cfg)

	orch := orchestrator.New(sess, bus, memClient, providerReg, gateway, toolReg, orchestrator.RolePrimary)
	if runMaxTurns > 0 {
		orch.SetMaxTurns(runMaxTurns)
	}

	if runPrompt != "" {
		return runOneShot(ctx, orch, bus, runPrompt)
	}
	return runInteractiveLoop(ctx, orch, bus)
}

// resolveRepoRoot walks up from dir looking for a .git marker, per spec.md
// §9's cache-path resolution rule, and returns the enclosing worktree root
// when one is found. VCSDir, not ID, is the signal a marker was actually
// found: ID falls back to "global" both when there is no .git ancestor and
// when one exists but the git binary can't produce a project hash (no
// commits yet, git unavailable), so checking ID alone would discard a
// perfectly good worktree root in the latter case.
func resolveRepoRoot(dir string) string {
	info, err := project.FromDirectory(dir)
	if err != nil || info.VCSDir == nil {
		return dir
	}
	return info.Worktree
}

// runOneShot sends exactly one message and returns once its turn closes.
func runOneShot(ctx context.Context, orch *orchestrator.Orchestrator, bus *event.Bus, prompt string) error {
	printDone, err := watchOneTurn(ctx, bus, orch.Session().ID())
	if err != nil {
		return err
	}
	sendErr := orch.SendMessage(ctx, prompt)
	<-printDone
	return sendErr
}

// runInteractiveLoop requires a TTY on stdin, then reads one line at a time,
// sending each as its own turn until EOF or the user types ":exit". Each
// turn gets its own subscription window so a failed or completed turn's
// SessionEnd stops that turn's printing without silencing the next one.
func runInteractiveLoop(ctx context.Context, orch *orchestrator.Orchestrator, bus *event.Bus) error {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return &MissingTTYError{}
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == ":exit" || line == ":quit" {
			break
		}

		printDone, err := watchOneTurn(ctx, bus, orch.Session().ID())
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nerror: %v\n", err)
			continue
		}
		if err := orch.SendMessage(ctx, line); err != nil {
			fmt.Fprintf(os.Stderr, "\nerror: %v\n", err)
		}
		<-printDone
	}
	return scanner.Err()
}

// watchOneTurn subscribes to sessionID's event stream and renders events to
// stdout/stderr in a background goroutine until it sees a SessionEnd (one
// turn's worth) or ctx is cancelled, then closes the returned channel.
func watchOneTurn(ctx context.Context, bus *event.Bus, sessionID string) (<-chan struct{}, error) {
	sub, err := bus.Subscribe(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case evt, ok := <-sub:
				if !ok {
					return
				}
				if renderEvent(evt) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return done, nil
}

// renderEvent prints the subset of events a plain terminal front end needs
// and reports whether evt marks the end of the turn.
func renderEvent(evt event.SessionEvent) (turnEnded bool) {
	switch e := evt.(type) {
	case event.TextDelta:
		fmt.Print(e.Text)
	case event.ToolStart:
		if e.ToolUse != nil {
			fmt.Fprintf(os.Stderr, "\n[running %s]\n", e.ToolUse.Name)
		}
	case event.Error:
		fmt.Fprintf(os.Stderr, "\nerror: %s\n", e.Message)
	case event.SessionEnd:
		fmt.Println()
		return true
	}
	return false
}

// terminalConfirm asks the user on stderr/stdin whether to allow a
// Write/Execute/GitWrite tool call, per spec.md §4.3's confirmation gate.
func terminalConfirm(ctx context.Context, req permission.Request) (bool, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return false, nil
	}
	fmt.Fprintf(os.Stderr, "\nallow %s (%s)? [y/N] ", req.ToolName, req.Title)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, nil
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
