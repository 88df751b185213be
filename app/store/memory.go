package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"todo-dag/app/graph"
	"todo-dag/app/models"
)

// Memory is an in-process Store. A single RWMutex serialises writers, so
// validation and insert in AddDependency cannot interleave with another edge
// mutation.
type Memory struct {
	mu     sync.RWMutex
	nextID int64
	tasks  []models.Task // ascending id
	deps   []models.Dependency
	now    func() time.Time
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty store. now defaults to time.Now.
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{nextID: 1, now: now}
}

func cloneTask(t models.Task) models.Task {
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	return t
}

func (m *Memory) indexOf(id int64) int {
	for i, t := range m.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (m *Memory) ListTasks(ctx context.Context) ([]models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.copyTasks(), nil
}

func (m *Memory) copyTasks() []models.Task {
	out := make([]models.Task, len(m.tasks))
	for i, t := range m.tasks {
		out[i] = cloneTask(t)
	}
	return out
}

func (m *Memory) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.indexOf(id)
	if i < 0 {
		return nil, errors.Wrapf(ErrTaskNotFound, "task %d", id)
	}
	t := cloneTask(m.tasks[i])
	return &t, nil
}

// CreateTask keeps a caller-supplied id when it is positive and unused, which
// lets snapshots be loaded with their original ids.
func (m *Memory) CreateTask(ctx context.Context, task *models.Task) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := cloneTask(*task)
	switch {
	case t.ID == 0:
		t.ID = m.nextID
	case t.ID < 0:
		return nil, errors.Errorf("invalid task id %d", t.ID)
	case m.indexOf(t.ID) >= 0:
		return nil, errors.Errorf("task %d already exists", t.ID)
	}
	if t.ID >= m.nextID {
		m.nextID = t.ID + 1
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = m.now()
	}

	i := len(m.tasks)
	for i > 0 && m.tasks[i-1].ID > t.ID {
		i--
	}
	m.tasks = append(m.tasks, models.Task{})
	copy(m.tasks[i+1:], m.tasks[i:])
	m.tasks[i] = t

	out := cloneTask(t)
	return &out, nil
}

func (m *Memory) DeleteTask(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return errors.Wrapf(ErrTaskNotFound, "task %d", id)
	}
	m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)

	kept := m.deps[:0]
	for _, d := range m.deps {
		if d.ParentID != id && d.ChildID != id {
			kept = append(kept, d)
		}
	}
	m.deps = kept
	return nil
}

func (m *Memory) ListDependencies(ctx context.Context) ([]models.Dependency, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Dependency(nil), m.deps...), nil
}

func (m *Memory) Snapshot(ctx context.Context) ([]models.Task, []models.Dependency, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.copyTasks(), append([]models.Dependency(nil), m.deps...), nil
}

func (m *Memory) AddDependency(ctx context.Context, parentID, childID int64, validate EdgeValidator) (*models.Dependency, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lookup := make(graph.TaskIndex, 2)
	for _, id := range []int64{parentID, childID} {
		if i := m.indexOf(id); i >= 0 {
			lookup[id] = m.tasks[i]
		}
	}
	edges := append([]models.Dependency(nil), m.deps...)
	if err := validate(lookup, edges); err != nil {
		return nil, false, err
	}
	if existing, ok := findEdge(m.deps, parentID, childID); ok {
		return &existing, false, nil
	}

	d := models.Dependency{
		ID:        uuid.New().String(),
		ParentID:  parentID,
		ChildID:   childID,
		CreatedAt: m.now(),
	}
	m.deps = append(m.deps, d)
	return &d, true, nil
}

func (m *Memory) RemoveDependency(ctx context.Context, parentID, childID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, d := range m.deps {
		if d.ParentID == parentID && d.ChildID == childID {
			m.deps = append(m.deps[:i], m.deps[i+1:]...)
			return nil
		}
	}
	return errors.Wrapf(ErrDependencyNotFound, "dependency %d -> %d", parentID, childID)
}

func (m *Memory) Close(ctx context.Context) error {
	return nil
}
