package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-dag/app/graph"
)

func writeSnapshot(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMemory(t *testing.T) {
	path := writeSnapshot(t, `
tasks:
  - id: 1
    title: Design
    created_at: 2024-03-01T09:00:00Z
    due_date: 2024-03-03T09:00:00Z
  - id: 2
    title: Build
    created_at: 2024-03-01T09:00:00Z
    due_date: 2024-03-06T09:00:00Z
  - id: 3
    title: Paint
dependencies:
  - parent_id: 1
    child_id: 2
`)
	m, err := LoadMemory(context.Background(), path, clock)
	require.NoError(t, err)

	tasks, deps, err := m.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "Design", tasks[0].Title)
	assert.Equal(t, time.Date(2024, time.March, 3, 9, 0, 0, 0, time.UTC), tasks[0].DueDate.UTC())
	assert.Equal(t, fixedNow, tasks[2].CreatedAt, "missing created_at defaults to now")
	require.Len(t, deps, 1)

	s, err := graph.ComputeSchedule(tasks, deps)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, s.CriticalPath)
}

func TestLoadMemory_RejectsCycle(t *testing.T) {
	path := writeSnapshot(t, `
tasks:
  - {id: 1, title: a}
  - {id: 2, title: b}
dependencies:
  - {parent_id: 1, child_id: 2}
  - {parent_id: 2, child_id: 1}
`)
	_, err := LoadMemory(context.Background(), path, clock)
	require.Error(t, err)
	assert.Equal(t, graph.CycleDetected, graph.KindOf(err))
	assert.Contains(t, err.Error(), "load dependency 2 -> 1")
}

func TestLoadMemory_RejectsDanglingEdge(t *testing.T) {
	path := writeSnapshot(t, `
tasks:
  - {id: 1, title: a}
dependencies:
  - {parent_id: 1, child_id: 5}
`)
	_, err := LoadMemory(context.Background(), path, clock)
	assert.Equal(t, graph.TaskNotFound, graph.KindOf(err))
}

func TestLoadMemory_BadYAML(t *testing.T) {
	_, err := LoadMemory(context.Background(), writeSnapshot(t, "tasks: [oops"), clock)
	require.Error(t, err)
}
