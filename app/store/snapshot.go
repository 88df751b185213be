package store

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"todo-dag/app/graph"
	"todo-dag/app/models"
)

// SnapshotFile is the YAML layout used to seed a Memory store and by the CLI.
//
//	tasks:
//	  - id: 1
//	    title: Design
//	    created_at: 2024-03-01T09:00:00Z
//	    due_date: 2024-03-03T23:59:00Z
//	dependencies:
//	  - parent_id: 1
//	    child_id: 2
type SnapshotFile struct {
	Tasks        []models.Task       `yaml:"tasks"`
	Dependencies []models.Dependency `yaml:"dependencies"`
}

// ReadSnapshotFile parses the YAML snapshot at path.
func ReadSnapshotFile(path string) (*SnapshotFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read snapshot")
	}
	var snap SnapshotFile
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrapf(err, "parse snapshot %s", path)
	}
	return &snap, nil
}

// NewMemoryFromSnapshot loads snap into a new Memory store. Every edge goes
// through the same admission check as a live insert, so a snapshot that
// contains a cycle, a self-loop or a dangling edge is rejected.
func NewMemoryFromSnapshot(ctx context.Context, snap *SnapshotFile, now func() time.Time) (*Memory, error) {
	m := NewMemory(now)
	for i := range snap.Tasks {
		if _, err := m.CreateTask(ctx, &snap.Tasks[i]); err != nil {
			return nil, errors.Wrapf(err, "load task #%d", i+1)
		}
	}
	for _, d := range snap.Dependencies {
		_, _, err := m.AddDependency(ctx, d.ParentID, d.ChildID, func(lookup graph.TaskLookup, edges []models.Dependency) error {
			return graph.CheckNewEdge(lookup, edges, d.ParentID, d.ChildID).Err()
		})
		if err != nil {
			return nil, errors.Wrapf(err, "load dependency %d -> %d", d.ParentID, d.ChildID)
		}
	}
	return m, nil
}

// LoadMemory reads the snapshot at path into a new Memory store.
func LoadMemory(ctx context.Context, path string, now func() time.Time) (*Memory, error) {
	snap, err := ReadSnapshotFile(path)
	if err != nil {
		return nil, err
	}
	return NewMemoryFromSnapshot(ctx, snap, now)
}
