package report

import (
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-dag/app/graph"
	"todo-dag/app/models"
)

func init() {
	color.NoColor = true
}

func TestFormatDuration(t *testing.T) {
	for d, want := range map[time.Duration]string{
		0:                               "0s",
		45 * time.Minute:                "45m0s",
		5 * time.Hour:                   "5h",
		50 * time.Hour:                  "2d 2h",
		72*time.Hour + time.Minute:      "3d 0h",
		47*time.Hour + 45*time.Minute:   "2d 0h",
		23*time.Hour + 50*time.Minute:   "1d 0h",
		59*time.Minute + 45*time.Second: "1h",
	} {
		assert.Equal(t, want, FormatDuration(d), d.String())
	}
}

func TestSchedule(t *testing.T) {
	created := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	due := func(day int) *time.Time {
		d := time.Date(2024, time.March, day, 9, 0, 0, 0, time.UTC)
		return &d
	}
	tasks := []models.Task{
		{ID: 1, Title: "Design", CreatedAt: created, DueDate: due(3)},
		{ID: 2, Title: "Build", CreatedAt: created, DueDate: due(8)},
		{ID: 3, Title: "Docs", CreatedAt: created, DueDate: due(4)},
	}
	deps := []models.Dependency{{ParentID: 1, ChildID: 2}, {ParentID: 1, ChildID: 3}}
	s, err := graph.ComputeSchedule(tasks, deps)
	require.NoError(t, err)

	var out strings.Builder
	Schedule(&out, s, deps)
	got := out.String()

	assert.Contains(t, got, "Schedule: 3 tasks, 2 dependencies")
	assert.Contains(t, got, "Critical path: #1 -> #2 (6d 0h)")
	assert.Contains(t, got, "#2  Build *")
	assert.Contains(t, got, "#3  Docs\n")
	assert.Contains(t, got, "after #1 (critical)")
	assert.Equal(t, 1, strings.Count(got, "(critical)"))
	assert.Contains(t, got, "start 2024-03-04 09:00")
}

func TestDecision(t *testing.T) {
	var out strings.Builder
	Decision(&out, graph.Decision{Accepted: true})
	assert.Equal(t, "ok dependency can be added\n", out.String())

	out.Reset()
	Decision(&out, graph.CheckNewEdge(graph.TaskIndex{}, nil, 3, 3))
	assert.Equal(t, "rejected task 3 cannot depend on itself (SelfDependency)\n", out.String())
}
