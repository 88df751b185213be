package graph

import (
	"time"

	"todo-dag/app/models"
)

// Scheduler derives earliest starts and the critical path from a snapshot.
type Scheduler struct {
	// Step is added to the latest predecessor finish time to get a task's
	// earliest start. Zero means one calendar day.
	Step time.Duration
}

// ComputeSchedule schedules tasks and deps with the default one-day step.
func ComputeSchedule(tasks []models.Task, deps []models.Dependency) (*models.Schedule, error) {
	return Scheduler{}.Compute(tasks, deps)
}

// Compute builds a Graph from the snapshot and schedules it.
func (s Scheduler) Compute(tasks []models.Task, deps []models.Dependency) (*models.Schedule, error) {
	g, err := Build(tasks, deps)
	if err != nil {
		return nil, err
	}
	return s.Schedule(g)
}

// Schedule runs the three passes over g: topological order, earliest start,
// then the longest-duration chain.
func (s Scheduler) Schedule(g *Graph) (*models.Schedule, error) {
	order, err := TopoSort(g)
	if err != nil {
		return nil, err
	}

	earliest := make(map[int64]time.Time, len(order))
	for _, id := range order {
		t, _ := g.Task(id)
		preds := g.Predecessors[id]
		if len(preds) == 0 {
			earliest[id] = t.CreatedAt
			continue
		}
		latest := preds[0].Finish
		for _, p := range preds[1:] {
			if p.Finish.After(latest) {
				latest = p.Finish
			}
		}
		earliest[id] = s.next(latest)
	}

	durations := make(map[int64]time.Duration, len(order))
	best := make(map[int64]time.Duration, len(order))
	bestParent := make(map[int64]int64, len(order))
	for _, id := range order {
		t, _ := g.Task(id)
		d := t.FinishTime().Sub(earliest[id])
		if d < 0 {
			d = 0
		}
		durations[id] = d

		preds := g.Predecessors[id]
		if len(preds) == 0 {
			best[id] = d
			continue
		}
		parent := preds[0].ID
		for _, p := range preds[1:] {
			if best[p.ID] > best[parent] {
				parent = p.ID
			}
		}
		best[id] = best[parent] + d
		bestParent[id] = parent
	}

	result := &models.Schedule{
		Tasks:        make([]models.ScheduledTask, 0, len(order)),
		Order:        order,
		CriticalPath: []int64{},
	}
	if len(order) > 0 {
		end := order[0]
		for _, id := range order[1:] {
			if best[id] > best[end] {
				end = id
			}
		}
		result.TotalDuration = best[end]

		for cur, ok := end, true; ok; cur, ok = bestParent[cur] {
			result.CriticalPath = append(result.CriticalPath, cur)
		}
		for i, j := 0, len(result.CriticalPath)-1; i < j; i, j = i+1, j-1 {
			result.CriticalPath[i], result.CriticalPath[j] = result.CriticalPath[j], result.CriticalPath[i]
		}
	}

	critical := make(map[int64]bool, len(result.CriticalPath))
	for _, id := range result.CriticalPath {
		critical[id] = true
	}
	for _, id := range order {
		t, _ := g.Task(id)
		result.Tasks = append(result.Tasks, models.ScheduledTask{
			Task:          t,
			EarliestStart: earliest[id],
			FinishTime:    t.FinishTime(),
			Duration:      durations[id],
			Critical:      critical[id],
		})
	}
	return result, nil
}

func (s Scheduler) next(t time.Time) time.Time {
	if s.Step <= 0 {
		return t.AddDate(0, 0, 1)
	}
	return t.Add(s.Step)
}

// TopoSort orders g with Kahn's algorithm. Ready tasks are taken in task
// order first, then in the order their last predecessor released them, so the
// result is stable for a given snapshot. A cycle yields an *IntegrityError.
func TopoSort(g *Graph) ([]int64, error) {
	inDegree := make(map[int64]int, len(g.Tasks))
	var queue []int64
	for _, t := range g.Tasks {
		inDegree[t.ID] = len(g.Predecessors[t.ID])
		if inDegree[t.ID] == 0 {
			queue = append(queue, t.ID)
		}
	}

	order := make([]int64, 0, len(g.Tasks))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		for _, succ := range g.Successors[node] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}

	if len(order) != len(g.Tasks) {
		return nil, &IntegrityError{Sorted: len(order), Total: len(g.Tasks)}
	}
	return order, nil
}
