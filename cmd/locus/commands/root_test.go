package commands

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetWorkDirReturnsExplicitDir(t *testing.T) {
	dir, err := GetWorkDir("/some/explicit/path")
	require.NoError(t, err)
	assert.Equal(t, "/some/explicit/path", dir)
}

func TestGetWorkDirFallsBackToCwd(t *testing.T) {
	want, err := os.Getwd()
	require.NoError(t, err)

	got, err := GetWorkDir("")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestExitCodeForMissingTTY(t *testing.T) {
	assert.Equal(t, 2, ExitCodeFor(&MissingTTYError{}))
}

func TestExitCodeForWrappedMissingTTY(t *testing.T) {
	wrapped := errors.New("setup: " + (&MissingTTYError{}).Error())
	assert.Equal(t, 1, ExitCodeFor(wrapped), "a plain error with a similar message is not a *MissingTTYError")
}

func TestExitCodeForOtherErrors(t *testing.T) {
	assert.Equal(t, 1, ExitCodeFor(errors.New("boom")))
}
