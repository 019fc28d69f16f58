package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agnivade/levenshtein"
	einotool "github.com/cloudwego/eino/components/tool"

	"github.com/locuscode/locus/internal/edithistory"
)

const editDescription = `Performs a find-replace edit on a file in the working copy.

old_string must be present in the file. Exact match is tried first, then a
line-ending-normalized match, then a fuzzy match against the closest line or
block. Without replace_all, old_string must be unique or the edit fails.
Every successful edit is recorded in the undo history.`

// EditTool implements the edit_file contract.
type EditTool struct {
	workDir string
	history *edithistory.History
}

// EditInput is the edit tool's argument shape.
type EditInput struct {
	Path       string `json:"path"`
	OldString  string `json:"old_string"`
	NewString  string `json:"new_string"`
	ReplaceAll bool   `json:"replace_all,omitempty"`
}

// EditOutput is the edit tool's JSON result shape.
type EditOutput struct {
	Path         string `json:"path"`
	Replacements int    `json:"replacements"`
	Strategy     string `json:"strategy"`
}

// NewEditTool creates a new edit_file tool rooted at workDir.
func NewEditTool(workDir string, history *edithistory.History) *EditTool {
	return &EditTool{workDir: workDir, history: history}
}

func (t *EditTool) ID() string          { return "edit_file" }
func (t *EditTool) Description() string { return editDescription }

func (t *EditTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string", "description": "Path relative to the repository root"},
			"old_string": {"type": "string", "description": "The exact text to replace"},
			"new_string": {"type": "string", "description": "The text to replace it with"},
			"replace_all": {"type": "boolean", "description": "Replace all occurrences (default: false)"}
		},
		"required": ["path", "old_string", "new_string"]
	}`)
}

func (t *EditTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params EditInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if params.OldString == params.NewString {
		return nil, fmt.Errorf("old_string and new_string must be different")
	}

	root := t.workDir
	if toolCtx != nil && toolCtx.WorkDir != "" {
		root = toolCtx.WorkDir
	}

	abs, err := ResolveInWorkspace(root, params.Path)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", params.Path, err)
	}
	text := string(content)

	var newText, strategy string
	var count int

	if params.ReplaceAll {
		count = strings.Count(text, params.OldString)
		if count == 0 {
			return t.fuzzyReplace(ctx, abs, root, params, text, toolCtx)
		}
		newText = strings.ReplaceAll(text, params.OldString, params.NewString)
		strategy = "exact"
	} else {
		count = strings.Count(text, params.OldString)
		if count == 0 {
			return t.fuzzyReplace(ctx, abs, root, params, text, toolCtx)
		}
		if count > 1 {
			return nil, fmt.Errorf("old_string appears %d times in file; use replace_all or provide more context", count)
		}
		newText = strings.Replace(text, params.OldString, params.NewString, 1)
		count = 1
		strategy = "exact"
	}

	return t.commit(abs, root, params.Path, text, newText, count, strategy)
}

func (t *EditTool) commit(abs, root, relInput, oldText, newText string, count int, strategy string) (*Result, error) {
	if err := os.WriteFile(abs, []byte(newText), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", relInput, err)
	}

	if t.history != nil {
		rel, relErr := filepath.Rel(root, abs)
		if relErr != nil {
			rel = relInput
		}
		if err := t.history.Record(rel, oldText, newText); err != nil {
			return nil, fmt.Errorf("record edit history for %s: %w", relInput, err)
		}
	}

	out := EditOutput{Path: relInput, Replacements: count, Strategy: strategy}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}

	diffText, additions, deletions := buildDiffMetadata(abs, oldText, newText, root)

	return &Result{
		Title:  fmt.Sprintf("Edited %s", filepath.Base(relInput)),
		Output: string(raw),
		Metadata: map[string]any{
			"path":         relInput,
			"replacements": count,
			"strategy":     strategy,
			"diff":         diffText,
			"additions":    additions,
			"deletions":    deletions,
		},
	}, nil
}

// fuzzyReplace attempts to find similar text when an exact match fails.
func (t *EditTool) fuzzyReplace(ctx context.Context, abs, root string, params EditInput, text string, toolCtx *Context) (*Result, error) {
	normalizedOld := normalizeLineEndings(params.OldString)
	normalizedText := normalizeLineEndings(text)

	if strings.Contains(normalizedText, normalizedOld) {
		newText := strings.Replace(normalizedText, normalizedOld, params.NewString, 1)
		return t.commit(abs, root, params.Path, text, newText, 1, "normalized")
	}

	match, sim := findBestMatch(text, params.OldString)
	if match != "" && sim >= 0.7 {
		newText := strings.Replace(text, match, params.NewString, 1)
		return t.commit(abs, root, params.Path, text, newText, 1, fmt.Sprintf("fuzzy:%.0f%%", sim*100))
	}

	return nil, fmt.Errorf("old_string not found in %s; the content may have changed or the string doesn't exist", params.Path)
}

func normalizeLineEndings(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// findBestMatch finds the substring most similar to target.
func findBestMatch(text, target string) (string, float64) {
	lines := strings.Split(text, "\n")
	targetLines := strings.Split(target, "\n")

	if len(targetLines) == 1 {
		bestMatch := ""
		bestSimilarity := 0.0
		for _, line := range lines {
			sim := similarity(line, target)
			if sim > bestSimilarity {
				bestSimilarity = sim
				bestMatch = line
			}
		}
		return bestMatch, bestSimilarity
	}

	targetLen := len(targetLines)
	bestMatch := ""
	bestSimilarity := 0.0
	for i := 0; i <= len(lines)-targetLen; i++ {
		block := strings.Join(lines[i:i+targetLen], "\n")
		sim := similarity(block, target)
		if sim > bestSimilarity {
			bestSimilarity = sim
			bestMatch = block
		}
	}
	return bestMatch, bestSimilarity
}

// similarity computes normalized Levenshtein similarity via agnivade/levenshtein.
func similarity(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	if len(a) > 10000 || len(b) > 10000 {
		maxLen := max(len(a), len(b))
		minLen := min(len(a), len(b))
		return float64(minLen) / float64(maxLen)
	}

	dist := levenshtein.ComputeDistance(a, b)
	maxLen := max(len(a), len(b))
	return 1.0 - float64(dist)/float64(maxLen)
}

func (t *EditTool) EinoTool() einotool.InvokableTool {
	return &einoToolWrapper{tool: t}
}
