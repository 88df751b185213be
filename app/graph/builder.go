package graph

import (
	"fmt"
	"time"

	"todo-dag/app/models"
)

// Predecessor is a direct parent of a task together with its finish time, so
// earliest-start can be computed without a second lookup.
type Predecessor struct {
	ID     int64
	Finish time.Time
}

// Graph is a read-only snapshot of tasks and dependencies. Neighbours are
// referenced by id and resolved through Tasks.
type Graph struct {
	Tasks        []models.Task
	Successors   map[int64][]int64       // task -> tasks it blocks
	Predecessors map[int64][]Predecessor // task -> tasks that block it

	index map[int64]int
}

// Build constructs a Graph from a flat task list and parent -> child edges.
// Task order is preserved; successor and predecessor lists follow edge order.
// An edge whose endpoint is not a known task is an integrity violation.
func Build(tasks []models.Task, deps []models.Dependency) (*Graph, error) {
	g := &Graph{
		Tasks:        tasks,
		Successors:   make(map[int64][]int64, len(tasks)),
		Predecessors: make(map[int64][]Predecessor, len(tasks)),
		index:        make(map[int64]int, len(tasks)),
	}

	for i, t := range tasks {
		if _, ok := g.index[t.ID]; ok {
			return nil, &IntegrityError{Detail: fmt.Sprintf("duplicate task id %d", t.ID)}
		}
		g.index[t.ID] = i
	}

	seen := make(map[[2]int64]bool, len(deps))
	for _, d := range deps {
		if _, ok := g.index[d.ParentID]; !ok {
			return nil, &IntegrityError{Detail: fmt.Sprintf("dependency %d -> %d references unknown task %d", d.ParentID, d.ChildID, d.ParentID)}
		}
		if _, ok := g.index[d.ChildID]; !ok {
			return nil, &IntegrityError{Detail: fmt.Sprintf("dependency %d -> %d references unknown task %d", d.ParentID, d.ChildID, d.ChildID)}
		}
		if seen[d.Edge()] {
			continue
		}
		seen[d.Edge()] = true

		parent := g.Tasks[g.index[d.ParentID]]
		g.Successors[d.ParentID] = append(g.Successors[d.ParentID], d.ChildID)
		g.Predecessors[d.ChildID] = append(g.Predecessors[d.ChildID], Predecessor{
			ID:     d.ParentID,
			Finish: parent.FinishTime(),
		})
	}

	return g, nil
}

// Task returns the task with the given id.
func (g *Graph) Task(id int64) (models.Task, bool) {
	i, ok := g.index[id]
	if !ok {
		return models.Task{}, false
	}
	return g.Tasks[i], true
}

// LookupTask implements TaskLookup.
func (g *Graph) LookupTask(id int64) (models.Task, bool) {
	return g.Task(id)
}

// TaskCount returns the number of tasks in the graph.
func (g *Graph) TaskCount() int {
	return len(g.Tasks)
}

// Roots returns the tasks with no predecessors, in task order.
func (g *Graph) Roots() []int64 {
	var roots []int64
	for _, t := range g.Tasks {
		if len(g.Predecessors[t.ID]) == 0 {
			roots = append(roots, t.ID)
		}
	}
	return roots
}
