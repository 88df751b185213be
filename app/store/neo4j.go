package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"todo-dag/app/graph"
	"todo-dag/app/logging"
	"todo-dag/app/models"
)

// Dependencies are stored as (child)-[:HAS_PARENT]->(parent).
const (
	taskFields = "t.id AS id, t.title AS title, t.due_date AS due_date, t.created_at AS created_at, t.image_url AS image_url"

	listTasksQuery = "MATCH (t:Task) RETURN " + taskFields + " ORDER BY t.id"

	listDependenciesQuery = "MATCH (c:Task)-[d:HAS_PARENT]->(p:Task) " +
		"RETURN d.id AS id, p.id AS parent_id, c.id AS child_id, d.created_at AS created_at " +
		"ORDER BY d.seq"

	lookupTasksQuery = "MATCH (t:Task) WHERE t.id IN $ids RETURN " + taskFields

	// Edges take their seq from a counter so that insertion order survives
	// equal timestamps.
	createDependencyQuery = "MERGE (n:Counter {name: 'dependency'}) " +
		"SET n.next = coalesce(n.next, 0) + 1 " +
		"WITH n.next AS seq " +
		"MATCH (c:Task {id: $child_id}), (p:Task {id: $parent_id}) " +
		"CREATE (c)-[:HAS_PARENT {id: $id, created_at: $created_at, seq: seq}]->(p)"

	// lockQuery takes a write lock on a single node. Every transaction that
	// mutates edges or reads a snapshot runs it first, so those transactions
	// are serialised.
	lockQuery = "MERGE (l:GraphLock {name: $name}) SET l.version = coalesce(l.version, 0) + 1"
)

const dependencyLock = "dependencies"

// Neo4j is a Store backed by a Neo4j database.
type Neo4j struct {
	driver   neo4j.DriverWithContext
	database string
	now      func() time.Time
}

var _ Store = (*Neo4j)(nil)

// NewNeo4j creates a store over driver. The store owns the driver and closes
// it in Close.
func NewNeo4j(driver neo4j.DriverWithContext, database string) *Neo4j {
	return &Neo4j{driver: driver, database: database, now: time.Now}
}

func (s *Neo4j) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

// EnsureSchema creates the uniqueness constraints the store relies on.
func (s *Neo4j) EnsureSchema(ctx context.Context) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	for _, q := range []string{
		"CREATE CONSTRAINT task_id IF NOT EXISTS FOR (t:Task) REQUIRE t.id IS UNIQUE",
		"CREATE CONSTRAINT graph_lock_name IF NOT EXISTS FOR (l:GraphLock) REQUIRE l.name IS UNIQUE",
		"CREATE CONSTRAINT counter_name IF NOT EXISTS FOR (c:Counter) REQUIRE c.name IS UNIQUE",
	} {
		res, err := session.Run(ctx, q, nil)
		if err != nil {
			return errors.Wrap(err, "create constraint")
		}
		if _, err := res.Consume(ctx); err != nil {
			return errors.Wrap(err, "create constraint")
		}
	}
	return nil
}

// ListTasks retrieves all tasks ordered by id.
func (s *Neo4j) ListTasks(ctx context.Context) ([]models.Task, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return listTasks(ctx, tx)
	})
	if err != nil {
		return nil, errors.Wrap(err, "list tasks")
	}
	return result.([]models.Task), nil
}

func listTasks(ctx context.Context, tx neo4j.ManagedTransaction) ([]models.Task, error) {
	res, err := tx.Run(ctx, listTasksQuery, nil)
	if err != nil {
		return nil, err
	}
	var tasks []models.Task
	for res.Next(ctx) {
		task, err := taskFromRecord(res.Record())
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, res.Err()
}

func listDependencies(ctx context.Context, tx neo4j.ManagedTransaction) ([]models.Dependency, error) {
	res, err := tx.Run(ctx, listDependenciesQuery, nil)
	if err != nil {
		return nil, err
	}
	var deps []models.Dependency
	for res.Next(ctx) {
		dep, err := dependencyFromRecord(res.Record())
		if err != nil {
			return nil, err
		}
		deps = append(deps, dep)
	}
	return deps, res.Err()
}

// GetTask retrieves a single task by its ID.
func (s *Neo4j) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, "MATCH (t:Task {id: $id}) RETURN "+taskFields, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, nil
		}
		task, err := taskFromRecord(records[0])
		if err != nil {
			return nil, err
		}
		return &task, nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "get task %d", id)
	}
	task, _ := result.(*models.Task)
	if task == nil {
		return nil, errors.Wrapf(ErrTaskNotFound, "task %d", id)
	}
	return task, nil
}

// CreateTask adds a new task, drawing its id from a counter node.
func (s *Neo4j) CreateTask(ctx context.Context, task *models.Task) (*models.Task, error) {
	t := *task
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	var due any
	if t.DueDate != nil {
		due = *t.DueDate
	}
	var image any
	if t.ImageURL != "" {
		image = t.ImageURL
	}

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	id, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MERGE (c:Counter {name: 'task'}) "+
				"SET c.next = coalesce(c.next, 0) + 1 "+
				"WITH c.next AS id "+
				"CREATE (t:Task {id: id, title: $title, due_date: $due_date, created_at: $created_at, image_url: $image_url}) "+
				"RETURN id",
			map[string]any{
				"title":      t.Title,
				"due_date":   due,
				"created_at": t.CreatedAt,
				"image_url":  image,
			},
		)
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		return intValue(record, "id")
	})
	if err != nil {
		return nil, errors.Wrap(err, "create task")
	}
	t.ID = id.(int64)
	logging.FromContext(ctx).Debug("task created", zap.Int64("task_id", t.ID))
	return &t, nil
}

// DeleteTask deletes a task and its relationships.
func (s *Neo4j) DeleteTask(ctx context.Context, id int64) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	deleted, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if err := lockDependencies(ctx, tx); err != nil {
			return nil, err
		}
		res, err := tx.Run(ctx,
			"MATCH (t:Task {id: $id}) WITH t, t.id AS id DETACH DELETE t RETURN id",
			map[string]any{"id": id},
		)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		return len(records) > 0, err
	})
	if err != nil {
		return errors.Wrapf(err, "delete task %d", id)
	}
	if !deleted.(bool) {
		return errors.Wrapf(ErrTaskNotFound, "task %d", id)
	}
	return nil
}

// ListDependencies retrieves every edge in insertion order.
func (s *Neo4j) ListDependencies(ctx context.Context) ([]models.Dependency, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return listDependencies(ctx, tx)
	})
	if err != nil {
		return nil, errors.Wrap(err, "list dependencies")
	}
	return result.([]models.Dependency), nil
}

type snapshot struct {
	tasks []models.Task
	deps  []models.Dependency
}

func lockDependencies(ctx context.Context, tx neo4j.ManagedTransaction) error {
	_, err := tx.Run(ctx, lockQuery, map[string]any{"name": dependencyLock})
	return err
}

// snapshotTx reads tasks and edges while holding the graph lock. Edge
// writers and DeleteTask take the same lock, so no edge can appear or lose
// an endpoint between the two reads.
func snapshotTx(ctx context.Context, tx neo4j.ManagedTransaction) (snapshot, error) {
	if err := lockDependencies(ctx, tx); err != nil {
		return snapshot{}, err
	}
	tasks, err := listTasks(ctx, tx)
	if err != nil {
		return snapshot{}, err
	}
	deps, err := listDependencies(ctx, tx)
	if err != nil {
		return snapshot{}, err
	}
	return snapshot{tasks: tasks, deps: deps}, nil
}

// Snapshot reads tasks and edges in one write transaction holding the graph
// lock.
func (s *Neo4j) Snapshot(ctx context.Context) ([]models.Task, []models.Dependency, error) {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return snapshotTx(ctx, tx)
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "read snapshot")
	}
	snap := result.(snapshot)
	return snap.tasks, snap.deps, nil
}

type addResult struct {
	dep     models.Dependency
	created bool
}

// addDependencyTx is the body of AddDependency. The validator sees the
// endpoints and every edge read under the lock; nothing is written unless it
// accepts.
func addDependencyTx(ctx context.Context, tx neo4j.ManagedTransaction, parentID, childID int64, validate EdgeValidator, now time.Time) (addResult, error) {
	if err := lockDependencies(ctx, tx); err != nil {
		return addResult{}, err
	}

	res, err := tx.Run(ctx, lookupTasksQuery, map[string]any{"ids": []int64{parentID, childID}})
	if err != nil {
		return addResult{}, err
	}
	lookup := make(graph.TaskIndex, 2)
	for res.Next(ctx) {
		task, err := taskFromRecord(res.Record())
		if err != nil {
			return addResult{}, err
		}
		lookup[task.ID] = task
	}
	if err := res.Err(); err != nil {
		return addResult{}, err
	}

	edges, err := listDependencies(ctx, tx)
	if err != nil {
		return addResult{}, err
	}
	if err := validate(lookup, edges); err != nil {
		return addResult{}, err
	}
	if existing, ok := findEdge(edges, parentID, childID); ok {
		return addResult{dep: existing}, nil
	}

	dep := models.Dependency{
		ID:        uuid.New().String(),
		ParentID:  parentID,
		ChildID:   childID,
		CreatedAt: now,
	}
	_, err = tx.Run(ctx, createDependencyQuery, map[string]any{
		"child_id":   childID,
		"parent_id":  parentID,
		"id":         dep.ID,
		"created_at": dep.CreatedAt,
	})
	if err != nil {
		return addResult{}, err
	}
	return addResult{dep: dep, created: true}, nil
}

// AddDependency validates and inserts parent -> child in one write
// transaction holding the graph lock. A rejected edge rolls the transaction
// back.
func (s *Neo4j) AddDependency(ctx context.Context, parentID, childID int64, validate EdgeValidator) (*models.Dependency, bool, error) {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return addDependencyTx(ctx, tx, parentID, childID, validate, s.now())
	})
	if err != nil {
		if graph.KindOf(err) != "" {
			return nil, false, err
		}
		return nil, false, errors.Wrapf(err, "add dependency %d -> %d", parentID, childID)
	}
	r := result.(addResult)
	return &r.dep, r.created, nil
}

// RemoveDependency deletes the parent -> child edge.
func (s *Neo4j) RemoveDependency(ctx context.Context, parentID, childID int64) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	removed, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if err := lockDependencies(ctx, tx); err != nil {
			return nil, err
		}
		res, err := tx.Run(ctx,
			"MATCH (c:Task {id: $child_id})-[d:HAS_PARENT]->(p:Task {id: $parent_id}) "+
				"WITH d, d.id AS id DELETE d RETURN id",
			map[string]any{"child_id": childID, "parent_id": parentID},
		)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		return len(records) > 0, err
	})
	if err != nil {
		return errors.Wrapf(err, "remove dependency %d -> %d", parentID, childID)
	}
	if !removed.(bool) {
		return errors.Wrapf(ErrDependencyNotFound, "dependency %d -> %d", parentID, childID)
	}
	return nil
}

// Close closes the driver.
func (s *Neo4j) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}
