package tool

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobToolMatchesDoublestarPattern(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test1.go"), []byte(""), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.txt"), []byte(""), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "nested.go"), []byte(""), 0o644))

	tool := NewGlobTool(dir)
	input, _ := json.Marshal(GlobInput{Pattern: "**/*.go"})
	res, err := tool.Execute(context.Background(), input, &Context{WorkDir: dir})
	require.NoError(t, err)

	var out GlobOutput
	require.NoError(t, json.Unmarshal([]byte(res.Output), &out))
	assert.ElementsMatch(t, []string{"test1.go", "sub/nested.go"}, out.Files)
}

func TestGlobToolNoMatches(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.txt"), []byte(""), 0o644))

	tool := NewGlobTool(dir)
	input, _ := json.Marshal(GlobInput{Pattern: "**/*.go"})
	res, err := tool.Execute(context.Background(), input, &Context{WorkDir: dir})
	require.NoError(t, err)

	var out GlobOutput
	require.NoError(t, json.Unmarshal([]byte(res.Output), &out))
	assert.Equal(t, 0, out.Count)
}

func TestGlobToolRelativeSearchPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "subdir", "test.go"), []byte(""), 0o644))

	tool := NewGlobTool(dir)
	input, _ := json.Marshal(GlobInput{Pattern: "*.go", Path: "subdir"})
	res, err := tool.Execute(context.Background(), input, &Context{WorkDir: dir})
	require.NoError(t, err)

	var out GlobOutput
	require.NoError(t, json.Unmarshal([]byte(res.Output), &out))
	assert.Contains(t, out.Files, "subdir/test.go")
}

func TestGlobToolRefusesPathOutsideWorkspace(t *testing.T) {
	dir := t.TempDir()
	tool := NewGlobTool(dir)

	input, _ := json.Marshal(GlobInput{Pattern: "*", Path: "/etc"})
	_, err := tool.Execute(context.Background(), input, &Context{WorkDir: dir})
	require.Error(t, err)
	var pathErr *PathOutsideWorkspaceError
	assert.ErrorAs(t, err, &pathErr)
}

func TestGlobToolInvalidInput(t *testing.T) {
	tool := NewGlobTool("/tmp")
	_, err := tool.Execute(context.Background(), json.RawMessage(`{invalid json}`), &Context{WorkDir: "/tmp"})
	assert.Error(t, err)
}

func TestGlobToolProperties(t *testing.T) {
	tool := NewGlobTool("/tmp")
	assert.Equal(t, "glob", tool.ID())

	var schema map[string]any
	require.NoError(t, json.Unmarshal(tool.Parameters(), &schema))
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "pattern")
	assert.Contains(t, props, "path")
}

func TestGlobToolEinoTool(t *testing.T) {
	tool := NewGlobTool("/tmp")
	einoTool := tool.EinoTool()
	require.NotNil(t, einoTool)

	info, err := einoTool.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "glob", info.Name)
}
