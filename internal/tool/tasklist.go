package tool

import (
	"context"
	"encoding/json"
	"fmt"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/locuscode/locus/internal/tasklist"
)

const taskListDescription = `Manages a plan's checklist of tasks.

Action "create" replaces the plan's entire checklist. "list" returns it.
"update" patches one task's status/title/description. "add" appends new
tasks. "remove" deletes one. "reorder" rewrites the display order given a
full list of task ids.`

// TaskListTool implements the task_list contract on top of tasklist.Store.
type TaskListTool struct {
	store *tasklist.Store
}

// TaskListInput is the task_list tool's argument shape. Fields relevant to
// the chosen Action are required; others are ignored.
type TaskListInput struct {
	Action      string          `json:"action"`
	PlanID      string          `json:"plan_id"`
	TaskID      string          `json:"task_id,omitempty"`
	Tasks       []tasklist.Task `json:"tasks,omitempty"`
	Status      string          `json:"status,omitempty"`
	Title       string          `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Order       []string        `json:"order,omitempty"`
}

// TaskListOutput is the task_list tool's JSON result shape.
type TaskListOutput struct {
	Tasks   []tasklist.Task `json:"tasks,omitempty"`
	Task    *tasklist.Task  `json:"task,omitempty"`
	Removed bool            `json:"removed,omitempty"`
}

// NewTaskListTool creates a new task_list tool backed by store.
func NewTaskListTool(store *tasklist.Store) *TaskListTool {
	return &TaskListTool{store: store}
}

func (t *TaskListTool) ID() string          { return "task_list" }
func (t *TaskListTool) Description() string { return taskListDescription }

func (t *TaskListTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"action": {"type": "string", "enum": ["create", "list", "get", "update", "add", "remove", "reorder"]},
			"plan_id": {"type": "string"},
			"task_id": {"type": "string", "description": "Required for get, update, and remove"},
			"tasks": {
				"type": "array",
				"description": "Required for create and add",
				"items": {
					"type": "object",
					"properties": {
						"title": {"type": "string"},
						"status": {"type": "string", "enum": ["pending", "in_progress", "done", "cancelled"]},
						"description": {"type": "string"}
					},
					"required": ["title"]
				}
			},
			"status": {"type": "string", "enum": ["pending", "in_progress", "done", "cancelled"], "description": "Used with update"},
			"title": {"type": "string", "description": "Used with update"},
			"description": {"type": "string", "description": "Used with update"},
			"order": {"type": "array", "items": {"type": "string"}, "description": "Required for reorder: every task_id in display order"}
		},
		"required": ["action", "plan_id"]
	}`)
}

func (t *TaskListTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params TaskListInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if params.PlanID == "" {
		return nil, fmt.Errorf("plan_id is required")
	}

	var out TaskListOutput
	var title string

	switch params.Action {
	case "create":
		tasks, err := t.store.Create(params.PlanID, params.Tasks)
		if err != nil {
			return nil, err
		}
		out.Tasks = tasks
		title = fmt.Sprintf("Created %d tasks", len(tasks))

	case "list":
		tasks, err := t.store.List(params.PlanID)
		if err != nil {
			return nil, err
		}
		out.Tasks = tasks
		title = fmt.Sprintf("Listed %d tasks", len(tasks))

	case "get":
		if params.TaskID == "" {
			return nil, fmt.Errorf("task_id is required for get")
		}
		task, err := t.store.Get(params.PlanID, params.TaskID)
		if err != nil {
			return nil, err
		}
		out.Task = task
		title = fmt.Sprintf("Fetched %s", params.TaskID)

	case "update":
		if params.TaskID == "" {
			return nil, fmt.Errorf("task_id is required for update")
		}
		var status *tasklist.Status
		if params.Status != "" {
			s := tasklist.Status(params.Status)
			status = &s
		}
		var titlePtr *string
		if params.Title != "" {
			titlePtr = &params.Title
		}
		if err := t.store.Update(params.PlanID, params.TaskID, status, titlePtr, params.Description); err != nil {
			return nil, err
		}
		task, err := t.store.Get(params.PlanID, params.TaskID)
		if err != nil {
			return nil, err
		}
		out.Task = task
		title = fmt.Sprintf("Updated %s", params.TaskID)

	case "add":
		tasks, err := t.store.Add(params.PlanID, params.Tasks)
		if err != nil {
			return nil, err
		}
		out.Tasks = tasks
		title = fmt.Sprintf("Added tasks, %d total", len(tasks))

	case "remove":
		if params.TaskID == "" {
			return nil, fmt.Errorf("task_id is required for remove")
		}
		removed, err := t.store.Remove(params.PlanID, params.TaskID)
		if err != nil {
			return nil, err
		}
		out.Removed = removed
		title = fmt.Sprintf("Removed %s", params.TaskID)

	case "reorder":
		if len(params.Order) == 0 {
			return nil, fmt.Errorf("order is required for reorder")
		}
		tasks, err := t.store.Reorder(params.PlanID, params.Order)
		if err != nil {
			return nil, err
		}
		out.Tasks = tasks
		title = "Reordered tasks"

	default:
		return nil, fmt.Errorf("unknown action %q", params.Action)
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}

	return &Result{
		Title:  title,
		Output: string(raw),
		Metadata: map[string]any{
			"action":  params.Action,
			"plan_id": params.PlanID,
		},
	}, nil
}

func (t *TaskListTool) EinoTool() einotool.InvokableTool {
	return &einoToolWrapper{tool: t}
}
