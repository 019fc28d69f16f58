package orchestrator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/locuscode/locus/internal/tool"
)

// Meta-tool names. These are never looked up in a tool.Registry: the
// orchestrator recognises them before a call ever reaches the gateway,
// because their semantics depend on orchestrator state (the full tool
// roster, the ability to spawn a sub-agent) rather than the filesystem.
const (
	toolNameTask        = "task"
	toolNameToolSearch  = "tool_search"
	toolNameToolExplain = "tool_explain"
)

// metaToolInfos returns the schema.ToolInfo entries for the three
// orchestrator-owned meta-tools, advertised alongside the gateway's
// registered tools on every request per spec.md's core tool set.
func metaToolInfos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: toolNameTask,
			Desc: "Dispatch a focused sub-task to a fresh sub-agent and return its final answer.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"prompt":      {Type: schema.String, Desc: "The instructions for the sub-agent.", Required: true},
				"description": {Type: schema.String, Desc: "A short label for this sub-task, shown in the UI.", Required: true},
			}),
		},
		{
			Name: toolNameToolSearch,
			Desc: "Search the full tool catalogue beyond the core set by name or description.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {Type: schema.String, Desc: "Substring to match against tool names and descriptions.", Required: true},
			}),
		},
		{
			Name: toolNameToolExplain,
			Desc: "Return a tool's description and parameter schema.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"name": {Type: schema.String, Desc: "The tool name to explain.", Required: true},
			}),
		},
	}
}

// isMetaTool reports whether name is handled by the orchestrator rather
// than dispatched through the gateway.
func isMetaTool(name string) bool {
	switch name {
	case toolNameTask, toolNameToolSearch, toolNameToolExplain:
		return true
	}
	return false
}

// toolSearchEntry is one row of a tool_search result.
type toolSearchEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// runToolSearch matches query against every registered tool's name and
// description, case-insensitively, returning the hits as a JSON array.
func runToolSearch(registry *tool.Registry, query string) string {
	q := strings.ToLower(query)
	var hits []toolSearchEntry
	for _, t := range registry.List() {
		if strings.Contains(strings.ToLower(t.ID()), q) || strings.Contains(strings.ToLower(t.Description()), q) {
			hits = append(hits, toolSearchEntry{Name: t.ID(), Description: t.Description()})
		}
	}
	raw, _ := json.Marshal(hits)
	return string(raw)
}

// toolExplainResult is the body of a tool_explain result.
type toolExplainResult struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// runToolExplain renders name's contract, or an error payload if name isn't
// registered.
func runToolExplain(registry *tool.Registry, name string) string {
	t, ok := registry.Get(name)
	if !ok {
		raw, _ := json.Marshal(map[string]string{"error": fmt.Sprintf("tool not found: %s", name)})
		return string(raw)
	}
	raw, _ := json.Marshal(toolExplainResult{
		Name:        t.ID(),
		Description: t.Description(),
		Parameters:  t.Parameters(),
	})
	return string(raw)
}
