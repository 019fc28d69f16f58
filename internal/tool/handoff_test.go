package tool

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandoffToolStartsDetachedProcess(t *testing.T) {
	dir := t.TempDir()
	tool := NewHandoffTool(dir)

	input, _ := json.Marshal(HandoffInput{Command: "sleep 0.1"})
	res, err := tool.Execute(context.Background(), input, &Context{WorkDir: dir})
	require.NoError(t, err)

	var out HandoffOutput
	require.NoError(t, json.Unmarshal([]byte(res.Output), &out))
	assert.Greater(t, out.PID, 0)
}

func TestHandoffToolInvalidInput(t *testing.T) {
	tool := NewHandoffTool("/tmp")
	_, err := tool.Execute(context.Background(), json.RawMessage(`{invalid json}`), &Context{WorkDir: "/tmp"})
	assert.Error(t, err)
}

func TestHandoffToolEinoTool(t *testing.T) {
	tool := NewHandoffTool("/tmp")
	einoTool := tool.EinoTool()
	require.NotNil(t, einoTool)

	info, err := einoTool.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "handoff", info.Name)
}
