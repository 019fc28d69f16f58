package tasklist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	s := newTestStore(t)

	tasks, err := s.Create("plan-1", []Task{
		{Title: "write spec"},
		{Title: "implement"},
	})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "t1", tasks[0].ID)
	assert.Equal(t, "t2", tasks[1].ID)
	assert.Equal(t, StatusPending, tasks[0].Status)
}

func TestListReturnsInSortOrder(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Create("plan-1", []Task{{Title: "a"}, {Title: "b"}, {Title: "c"}})
	require.NoError(t, err)

	tasks, err := s.List("plan-1")
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{tasks[0].Title, tasks[1].Title, tasks[2].Title})
}

func TestGetReturnsNilForMissingTask(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Create("plan-1", []Task{{Title: "a"}})
	require.NoError(t, err)

	got, err := s.Get("plan-1", "t99")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpdateChangesOnlyGivenFields(t *testing.T) {
	s := newTestStore(t)
	tasks, err := s.Create("plan-1", []Task{{Title: "a", Description: "orig"}})
	require.NoError(t, err)

	done := StatusDone
	require.NoError(t, s.Update("plan-1", tasks[0].ID, &done, nil, nil))

	got, err := s.Get("plan-1", tasks[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, StatusDone, got.Status)
	assert.Equal(t, "a", got.Title)
	assert.Equal(t, "orig", got.Description)
}

func TestAddAppendsAfterExistingTasks(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Create("plan-1", []Task{{Title: "a"}, {Title: "b"}})
	require.NoError(t, err)

	tasks, err := s.Add("plan-1", []Task{{Title: "c"}})
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "c", tasks[2].Title)
	assert.Equal(t, "t3", tasks[2].ID)
}

func TestRemoveDeletesTaskAndReturnsRemaining(t *testing.T) {
	s := newTestStore(t)
	tasks, err := s.Create("plan-1", []Task{{Title: "a"}, {Title: "b"}})
	require.NoError(t, err)

	ok, err := s.Remove("plan-1", tasks[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)

	remaining, err := s.List("plan-1")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "b", remaining[0].Title)
}

func TestRemoveMissingTaskReturnsFalse(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Create("plan-1", []Task{{Title: "a"}})
	require.NoError(t, err)

	ok, err := s.Remove("plan-1", "t99")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReorderRewritesSortOrder(t *testing.T) {
	s := newTestStore(t)
	tasks, err := s.Create("plan-1", []Task{{Title: "a"}, {Title: "b"}, {Title: "c"}})
	require.NoError(t, err)

	reordered, err := s.Reorder("plan-1", []string{tasks[2].ID, tasks[0].ID, tasks[1].ID})
	require.NoError(t, err)
	require.Len(t, reordered, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{reordered[0].Title, reordered[1].Title, reordered[2].Title})
}

func TestPlansAreIsolated(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Create("plan-1", []Task{{Title: "a"}})
	require.NoError(t, err)
	_, err = s.Create("plan-2", []Task{{Title: "x"}})
	require.NoError(t, err)

	p1, err := s.List("plan-1")
	require.NoError(t, err)
	p2, err := s.List("plan-2")
	require.NoError(t, err)
	require.Len(t, p1, 1)
	require.Len(t, p2, 1)
	assert.Equal(t, "t1", p1[0].ID)
	assert.Equal(t, "t1", p2[0].ID)
}
