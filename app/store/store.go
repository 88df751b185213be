// Package store persists tasks and dependencies. Implementations guarantee
// that the validation passed to AddDependency runs atomically with the insert
// with respect to every other dependency mutation.
package store

import (
	"context"

	"github.com/pkg/errors"

	"todo-dag/app/graph"
	"todo-dag/app/models"
)

var (
	// ErrTaskNotFound is returned when a task id does not resolve.
	ErrTaskNotFound = errors.New("task not found")
	// ErrDependencyNotFound is returned when removing an edge that does not exist.
	ErrDependencyNotFound = errors.New("dependency not found")
)

// EdgeValidator decides whether a new edge may be committed. It sees the
// endpoints that exist and the full current edge set. A non-nil error aborts
// the insert.
type EdgeValidator func(lookup graph.TaskLookup, edges []models.Dependency) error

// Store is a durable collection of tasks and dependency edges.
type Store interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	// CreateTask assigns an id and, if unset, a creation time.
	CreateTask(ctx context.Context, task *models.Task) (*models.Task, error)
	// DeleteTask removes the task and every edge that references it.
	DeleteTask(ctx context.Context, id int64) error

	ListDependencies(ctx context.Context) ([]models.Dependency, error)
	// Snapshot returns tasks and edges read consistently with each other.
	Snapshot(ctx context.Context) ([]models.Task, []models.Dependency, error)
	// AddDependency runs validate and, if it passes, inserts parent -> child.
	// Adding an existing pair returns the stored edge with created == false.
	AddDependency(ctx context.Context, parentID, childID int64, validate EdgeValidator) (dep *models.Dependency, created bool, err error)
	RemoveDependency(ctx context.Context, parentID, childID int64) error

	Close(ctx context.Context) error
}

func findEdge(edges []models.Dependency, parentID, childID int64) (models.Dependency, bool) {
	for _, d := range edges {
		if d.ParentID == parentID && d.ChildID == childID {
			return d, true
		}
	}
	return models.Dependency{}, false
}
