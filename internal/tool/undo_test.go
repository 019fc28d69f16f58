package tool

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locuscode/locus/internal/edithistory"
)

func TestUndoToolRestoresPriorContent(t *testing.T) {
	dir := t.TempDir()
	h, err := edithistory.Load(dir)
	require.NoError(t, err)

	writeTool := NewWriteTool(dir, h)
	firstInput, _ := json.Marshal(WriteInput{Path: "a.txt", Content: "A"})
	_, err = writeTool.Execute(context.Background(), firstInput, &Context{WorkDir: dir})
	require.NoError(t, err)
	secondInput, _ := json.Marshal(WriteInput{Path: "a.txt", Content: "B"})
	_, err = writeTool.Execute(context.Background(), secondInput, &Context{WorkDir: dir})
	require.NoError(t, err)

	undoTool := NewUndoTool(dir, h)
	undoInput, _ := json.Marshal(UndoInput{Path: "a.txt"})
	_, err = undoTool.Execute(context.Background(), undoInput, &Context{WorkDir: dir})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "A", string(data))
}

func TestUndoToolNothingToUndo(t *testing.T) {
	dir := t.TempDir()
	h, err := edithistory.Load(dir)
	require.NoError(t, err)

	undoTool := NewUndoTool(dir, h)
	input, _ := json.Marshal(UndoInput{Path: "missing.txt"})
	_, err = undoTool.Execute(context.Background(), input, &Context{WorkDir: dir})
	assert.Error(t, err)
}

func TestUndoToolEinoTool(t *testing.T) {
	h, err := edithistory.Load(t.TempDir())
	require.NoError(t, err)
	tool := NewUndoTool("/tmp", h)
	einoTool := tool.EinoTool()
	require.NotNil(t, einoTool)

	info, err := einoTool.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "undo_edit", info.Name)
}
