package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-dag/app/models"
)

const snapshot = `
tasks:
  - id: 1
    title: Design
    created_at: 2024-03-01T09:00:00Z
    due_date: 2024-03-03T09:00:00Z
  - id: 2
    title: Build
    created_at: 2024-03-01T09:00:00Z
    due_date: 2024-03-08T09:00:00Z
  - id: 3
    title: Release
    created_at: 2024-03-01T09:00:00Z
    due_date: 2024-03-10T09:00:00Z
dependencies:
  - parent_id: 1
    child_id: 2
  - parent_id: 2
    child_id: 3
`

func writeSnapshot(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(snapshot), 0o600))
	return path
}

func TestRun_ScheduleText(t *testing.T) {
	color.NoColor = true
	var out strings.Builder
	require.NoError(t, run(&out, []string{"schedule", "-f", writeSnapshot(t)}))
	assert.Contains(t, out.String(), "Critical path: #1 -> #2 -> #3")
}

func TestRun_ScheduleJSON(t *testing.T) {
	var out strings.Builder
	require.NoError(t, run(&out, []string{"schedule", "-f", writeSnapshot(t), "--json"}))

	var s models.Schedule
	require.NoError(t, json.Unmarshal([]byte(out.String()), &s))
	assert.Equal(t, []int64{1, 2, 3}, s.Order)
	assert.Equal(t, []int64{1, 2, 3}, s.CriticalPath)
}

func TestRun_Check(t *testing.T) {
	path := writeSnapshot(t)

	var out strings.Builder
	require.NoError(t, run(&out, []string{"check", "-f", path, "--parent", "1", "--child", "3", "--json"}))
	assert.JSONEq(t, `{"accepted": true}`, out.String())

	out.Reset()
	err := run(&out, []string{"check", "-f", path, "--parent", "3", "--child", "1", "--json"})
	assert.ErrorIs(t, err, errRejected)
	assert.JSONEq(t, `{"accepted": false, "reason": "CycleDetected"}`, out.String())

	err = run(&out, []string{"check", "-f", path, "--parent", "x", "--child", "1"})
	assert.ErrorContains(t, err, "--parent")
}

func TestRun_MissingFile(t *testing.T) {
	var out strings.Builder
	err := run(&out, []string{"schedule"})
	assert.ErrorContains(t, err, `required flag(s) "file" not set`)
}
