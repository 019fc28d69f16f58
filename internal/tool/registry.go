package tool

import (
	"sync"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"github.com/locuscode/locus/internal/edithistory"
	"github.com/locuscode/locus/internal/permission"
	"github.com/locuscode/locus/internal/tasklist"
)

// Registry holds the gateway's fixed tool set, keyed by tool ID.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	workDir string
}

// NewRegistry creates an empty registry rooted at workDir.
func NewRegistry(workDir string) *Registry {
	return &Registry{
		tools:   make(map[string]Tool),
		workDir: workDir,
	}
}

// Register adds tool to the registry, replacing any existing tool with the
// same ID.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	log.Debug().Str("tool", tool.ID()).Msg("registering tool")
	r.tools[tool.ID()] = tool
}

// Get returns the tool registered under id, if any.
func (r *Registry) Get(id string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[id]
	return t, ok
}

// List returns every registered tool in no particular order.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	return out
}

// IDs returns every registered tool ID.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.tools))
	for id := range r.tools {
		out = append(out, id)
	}
	return out
}

// EinoTools adapts every registered tool to Eino's BaseTool interface, for
// wiring into an eino ToolsNode.
func (r *Registry) EinoTools() []einotool.BaseTool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]einotool.BaseTool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.EinoTool())
	}
	return out
}

// ToolInfos returns the schema.ToolInfo for every registered tool, for
// presenting the tool set to a model provider.
func (r *Registry) ToolInfos() ([]*schema.ToolInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*schema.ToolInfo, 0, len(r.tools))
	for _, t := range r.tools {
		params := parseJSONSchemaToParams(t.Parameters())
		out = append(out, &schema.ToolInfo{
			Name:        t.ID(),
			Desc:        t.Description(),
			ParamsOneOf: schema.NewParamsOneOfByParams(params),
		})
	}
	return out, nil
}

// DefaultRegistry builds the gateway's fixed tool set: file_read/read,
// create_file, edit_file, undo_edit, bash, glob, grep, finder, handoff, and
// task_list. The task meta-tool (sub-agent dispatch) and the read-only
// tool_search/tool_explain introspection tools are owned by the
// orchestrator, not the gateway, since they need visibility into the full
// agent roster rather than just the filesystem.
func DefaultRegistry(workDir string, checker *permission.Checker, taskStore *tasklist.Store) (*Registry, error) {
	var (
		history *edithistory.History
		err     error
	)
	if taskStore != nil {
		history, err = edithistory.LoadWithDB(workDir, taskStore.DB())
	} else {
		history, err = edithistory.Load(workDir)
	}
	if err != nil {
		return nil, err
	}

	r := NewRegistry(workDir)
	r.Register(NewReadTool(workDir))
	r.Register(NewWriteTool(workDir, history))
	r.Register(NewEditTool(workDir, history))
	r.Register(NewUndoTool(workDir, history))
	r.Register(NewBashTool(workDir, WithPermissionChecker(checker)))
	r.Register(NewGlobTool(workDir))
	r.Register(NewGrepTool(workDir))
	r.Register(NewFinderTool(workDir))
	r.Register(NewHandoffTool(workDir))
	if taskStore != nil {
		r.Register(NewTaskListTool(taskStore))
	}
	return r, nil
}
