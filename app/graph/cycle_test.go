package graph

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-dag/app/models"
)

// reachable is a BFS oracle independent of WouldCreateCycle.
func reachable(from, to int64, edges []models.Dependency) bool {
	adj := make(map[int64][]int64)
	for _, e := range edges {
		adj[e.ParentID] = append(adj[e.ParentID], e.ChildID)
	}
	seen := map[int64]bool{from: true}
	queue := []int64{from}
	for i := 0; i < len(queue); i++ {
		if queue[i] == to {
			return true
		}
		for _, next := range adj[queue[i]] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

// randomDAG only creates edges from lower to higher ids, so it is acyclic.
func randomDAG(r *rand.Rand, n int, density float64) ([]models.Task, []models.Dependency) {
	tasks := make([]models.Task, 0, n)
	var deps []models.Dependency
	for i := 1; i <= n; i++ {
		tasks = append(tasks, task(int64(i), r.Intn(5), 5+r.Intn(20)))
		for j := 1; j < i; j++ {
			if r.Float64() < density {
				deps = append(deps, edge(int64(j), int64(i)))
			}
		}
	}
	r.Shuffle(len(tasks), func(a, b int) { tasks[a], tasks[b] = tasks[b], tasks[a] })
	r.Shuffle(len(deps), func(a, b int) { deps[a], deps[b] = deps[b], deps[a] })
	return tasks, deps
}

func TestWouldCreateCycle_ClosingChain(t *testing.T) {
	// A -> B -> C, proposed C -> A
	deps := []models.Dependency{edge(1, 2), edge(2, 3)}
	assert.True(t, WouldCreateCycle(3, 1, deps))
	assert.True(t, WouldCreateCycle(2, 1, deps))
	assert.True(t, WouldCreateCycle(3, 2, deps))
	assert.False(t, WouldCreateCycle(1, 3, deps))
	assert.Len(t, deps, 2, "input edges must not be mutated")
}

func TestWouldCreateCycle_IsolatedTasks(t *testing.T) {
	assert.False(t, WouldCreateCycle(10, 11, nil))
	assert.False(t, WouldCreateCycle(11, 10, nil))
}

func TestWouldCreateCycle_DenseGraphTerminates(t *testing.T) {
	// Complete DAG on 200 nodes: exponential path count, linear traversal.
	var deps []models.Dependency
	for i := int64(1); i <= 200; i++ {
		for j := i + 1; j <= 200; j++ {
			deps = append(deps, edge(i, j))
		}
	}
	assert.True(t, WouldCreateCycle(200, 1, deps))
	assert.False(t, WouldCreateCycle(1, 200, deps))
}

func TestWouldCreateCycle_MatchesReachability(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 25; round++ {
		tasks, deps := randomDAG(r, 12, 0.2)
		present := make(map[[2]int64]bool)
		for _, d := range deps {
			present[d.Edge()] = true
		}
		for _, p := range tasks {
			for _, c := range tasks {
				if p.ID == c.ID || present[[2]int64{p.ID, c.ID}] {
					continue
				}
				want := reachable(c.ID, p.ID, deps)
				require.Equal(t, want, WouldCreateCycle(p.ID, c.ID, deps),
					"round %d: edge %d -> %d", round, p.ID, c.ID)
			}
		}
	}
}

func TestCheckNewEdge_AcceptedInsertionsStayAcyclic(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	tasks, _ := randomDAG(r, 15, 0)
	lookup := NewTaskIndex(tasks...)

	var deps []models.Dependency
	for i := 0; i < 300; i++ {
		p := int64(1 + r.Intn(15))
		c := int64(1 + r.Intn(15))
		d := CheckNewEdge(lookup, deps, p, c)
		if d.Accepted {
			deps = append(deps, edge(p, c))
		}
		g := buildTestGraph(t, tasks, deps...)
		_, err := TopoSort(g)
		require.NoError(t, err, "after %d insertions", len(deps))
	}
	assert.NotEmpty(t, deps)
}
