package services

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"todo-dag/app/graph"
	"todo-dag/app/logging"
	"todo-dag/app/metrics"
	"todo-dag/app/models"
	"todo-dag/app/store"
)

// ErrTitleRequired is returned when a task is created without a title.
var ErrTitleRequired = errors.New("title is required")

// ErrInvalidDueDate is returned for due dates that are neither YYYY-MM-DD nor
// RFC 3339.
var ErrInvalidDueDate = errors.New("invalid due date")

// ImageFinder looks up an illustration for a task title.
type ImageFinder interface {
	FindImage(ctx context.Context, query string) (string, error)
}

// Options configure a TaskService.
type Options struct {
	Scheduler graph.Scheduler
	// Location and DueHour/DueMinute turn a date-only due date into a time.
	Location  *time.Location
	DueHour   int
	DueMinute int
	// Images is optional.
	Images ImageFinder
}

// TaskService handles task-related operations.
type TaskService struct {
	store store.Store
	opts  Options
}

// NewTaskService creates a new instance of TaskService.
func NewTaskService(st store.Store, opts Options) *TaskService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &TaskService{store: st, opts: opts}
}

// NewTask is the user input for CreateTask.
type NewTask struct {
	Title   string `json:"title"`
	DueDate string `json:"due_date"`
}

// ParseDueDate accepts "2006-01-02", placed at the configured time of day in
// the configured location, or a full RFC 3339 timestamp. Empty means no due
// date.
func (s *TaskService) ParseDueDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if d, err := time.ParseInLocation("2006-01-02", raw, s.opts.Location); err == nil {
		due := time.Date(d.Year(), d.Month(), d.Day(), s.opts.DueHour, s.opts.DueMinute, 0, 0, s.opts.Location)
		return &due, nil
	}
	due, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidDueDate, "%q", raw)
	}
	return &due, nil
}

// CreateTask validates input, decorates the task with an image when an
// ImageFinder is configured, and stores it.
func (s *TaskService) CreateTask(ctx context.Context, in NewTask) (*models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	due, err := s.ParseDueDate(in.DueDate)
	if err != nil {
		return nil, err
	}

	task := &models.Task{Title: title, DueDate: due}
	if s.opts.Images != nil {
		url, err := s.opts.Images.FindImage(ctx, title)
		if err != nil {
			logging.FromContext(ctx).Warn("image lookup failed", zap.String("title", title), zap.Error(err))
		}
		task.ImageURL = url
	}
	return s.store.CreateTask(ctx, task)
}

// GetTaskByID retrieves a single task.
func (s *TaskService) GetTaskByID(ctx context.Context, id int64) (*models.Task, error) {
	return s.store.GetTask(ctx, id)
}

// DeleteTask deletes a task and its dependencies.
func (s *TaskService) DeleteTask(ctx context.Context, id int64) error {
	return s.store.DeleteTask(ctx, id)
}

// ListDependencies returns every edge.
func (s *TaskService) ListDependencies(ctx context.Context) ([]models.Dependency, error) {
	return s.store.ListDependencies(ctx)
}

// GetSchedule reads a snapshot and schedules it. An IntegrityViolation is
// logged and returned, never replaced by a partial schedule.
func (s *TaskService) GetSchedule(ctx context.Context) (*models.Schedule, error) {
	tasks, deps, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	schedule, err := s.opts.Scheduler.Compute(tasks, deps)
	metrics.ScheduleSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		if graph.KindOf(err) == graph.IntegrityViolation {
			metrics.IntegrityViolations.Inc()
			logging.FromContext(ctx).Error("stored task graph is not a DAG",
				zap.Int("tasks", len(tasks)), zap.Int("dependencies", len(deps)), zap.Error(err))
		}
		return nil, errors.Wrap(err, "compute schedule")
	}
	return schedule, nil
}

// CheckDependency evaluates parent -> child against the current graph without
// storing anything.
func (s *TaskService) CheckDependency(ctx context.Context, parentID, childID int64) (graph.Decision, error) {
	if err := graph.ValidateEdge(parentID, childID); err != nil {
		return graph.CheckNewEdge(graph.TaskIndex{}, nil, parentID, childID), nil
	}
	tasks, deps, err := s.store.Snapshot(ctx)
	if err != nil {
		return graph.Decision{}, err
	}
	return graph.CheckNewEdge(graph.NewTaskIndex(tasks...), deps, parentID, childID), nil
}

// AddDependency records that parentID must finish before childID starts. The
// check runs inside the store's write section so concurrent inserts cannot
// jointly introduce a cycle.
func (s *TaskService) AddDependency(ctx context.Context, parentID, childID int64) (*models.Dependency, bool, error) {
	log := logging.FromContext(ctx).With(zap.Int64("parent_id", parentID), zap.Int64("child_id", childID))

	// Input errors never reach the store.
	if err := graph.ValidateEdge(parentID, childID); err != nil {
		metrics.EdgeChecks.WithLabelValues(string(graph.KindOf(err))).Inc()
		return nil, false, err
	}

	dep, created, err := s.store.AddDependency(ctx, parentID, childID, func(lookup graph.TaskLookup, edges []models.Dependency) error {
		return graph.CheckNewEdge(lookup, edges, parentID, childID).Err()
	})
	if kind := graph.KindOf(err); kind != "" {
		metrics.EdgeChecks.WithLabelValues(string(kind)).Inc()
		log.Info("dependency rejected", zap.String("reason", string(kind)))
		return nil, false, err
	}
	if err != nil {
		return nil, false, err
	}
	metrics.EdgeChecks.WithLabelValues("accepted").Inc()
	if created {
		log.Info("dependency added", zap.String("dependency_id", dep.ID))
	}
	return dep, created, nil
}

// RemoveDependency deletes the parent -> child edge.
func (s *TaskService) RemoveDependency(ctx context.Context, parentID, childID int64) error {
	return s.store.RemoveDependency(ctx, parentID, childID)
}
