package graph

import "todo-dag/app/models"

// WouldCreateCycle reports whether adding parentID -> childID to edges would
// close a cycle, i.e. whether parentID is reachable from childID once the
// edge is in place. It does not modify edges.
func WouldCreateCycle(parentID, childID int64, edges []models.Dependency) bool {
	adj := make(map[int64][]int64, len(edges)+1)
	for _, e := range edges {
		adj[e.ParentID] = append(adj[e.ParentID], e.ChildID)
	}
	adj[parentID] = append(adj[parentID], childID)

	visited := make(map[int64]bool)
	stack := []int64{childID}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == parentID {
			return true
		}
		if visited[node] {
			continue
		}
		visited[node] = true
		for _, next := range adj[node] {
			if !visited[next] {
				stack = append(stack, next)
			}
		}
	}
	return false
}
