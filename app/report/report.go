// Package report renders schedules and edge decisions for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"todo-dag/app/graph"
	"todo-dag/app/models"
)

var (
	bold       = color.New(color.Bold).SprintFunc()
	dim        = color.New(color.Faint).SprintFunc()
	green      = color.New(color.FgGreen).SprintFunc()
	red        = color.New(color.FgRed).SprintFunc()
	boldCyan   = color.New(color.Bold, color.FgCyan).SprintFunc()
	boldYellow = color.New(color.Bold, color.FgYellow).SprintFunc()
)

const timeLayout = "2006-01-02 15:04"

// FormatDuration prints d as days and hours, e.g. "2d 3h", or as minutes
// and seconds below an hour, e.g. "45m0s".
func FormatDuration(d time.Duration) string {
	if m := d.Round(time.Minute); m < time.Hour {
		return m.String()
	}
	d = d.Round(time.Hour)
	days := d / (24 * time.Hour)
	hours := d % (24 * time.Hour) / time.Hour
	if days == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dd %dh", days, hours)
}

func pathString(s *models.Schedule) string {
	ids := make([]string, len(s.CriticalPath))
	for i, id := range s.CriticalPath {
		ids[i] = fmt.Sprintf("#%d", id)
	}
	return strings.Join(ids, " -> ")
}

// Schedule writes s in topological order. Tasks on the critical path are
// marked, and each task lists its predecessors with critical edges
// highlighted.
func Schedule(w io.Writer, s *models.Schedule, deps []models.Dependency) {
	parents := make(map[int64][]int64)
	for _, d := range deps {
		parents[d.ChildID] = append(parents[d.ChildID], d.ParentID)
	}

	fmt.Fprintf(w, "%s %s tasks, %s dependencies\n", boldCyan("Schedule:"), bold(len(s.Tasks)), bold(len(deps)))
	if len(s.CriticalPath) > 0 {
		fmt.Fprintf(w, "%s %s (%s)\n", boldYellow("Critical path:"), pathString(s), FormatDuration(s.TotalDuration))
	}
	fmt.Fprintln(w)

	for _, t := range s.Tasks {
		mark := ""
		if t.Critical {
			mark = " " + boldYellow("*")
		}
		fmt.Fprintf(w, "  %s  %s%s\n", bold(fmt.Sprintf("#%d", t.ID)), t.Title, mark)
		fmt.Fprintf(w, "      %s %s  %s %s  %s %s\n",
			dim("start"), t.EarliestStart.Format(timeLayout),
			dim("finish"), t.FinishTime.Format(timeLayout),
			dim("duration"), FormatDuration(t.Duration))
		for _, p := range parents[t.ID] {
			edge := fmt.Sprintf("after #%d", p)
			if s.IsCriticalEdge(p, t.ID) {
				edge = boldYellow(edge + " (critical)")
			} else {
				edge = dim(edge)
			}
			fmt.Fprintf(w, "      %s\n", edge)
		}
	}
}

// Decision writes the outcome of checking parentID -> childID.
func Decision(w io.Writer, d graph.Decision) {
	if d.Accepted {
		fmt.Fprintf(w, "%s dependency can be added\n", green("ok"))
		return
	}
	fmt.Fprintf(w, "%s %s (%s)\n", red("rejected"), d.Err(), d.Reason)
}
