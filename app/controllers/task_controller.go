package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"todo-dag/app/graph"
	"todo-dag/app/logging"
	"todo-dag/app/models"
	"todo-dag/app/services"
	"todo-dag/app/store"
)

// TaskController handles HTTP requests for tasks.
type TaskController struct {
	Service *services.TaskService
}

// NewTaskController creates a new TaskController.
func NewTaskController(service *services.TaskService) *TaskController {
	return &TaskController{Service: service}
}

type errorResponse struct {
	Error  string          `json:"error"`
	Reason graph.ErrorKind `json:"reason,omitempty"`
}

// dependencyRequest carries the parent id. json.Number keeps the raw text so
// it can be reported back when it is not a valid id.
type dependencyRequest struct {
	ParentID json.Number `json:"parent_id"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusOf maps an error from the service layer to an HTTP status.
func statusOf(err error) (int, graph.ErrorKind) {
	kind := graph.KindOf(err)
	switch kind {
	case graph.InvalidIdentifier, graph.SelfDependency, graph.CycleDetected:
		return http.StatusBadRequest, kind
	case graph.TaskNotFound:
		return http.StatusNotFound, kind
	case graph.IntegrityViolation:
		return http.StatusInternalServerError, kind
	}
	switch {
	case errors.Is(err, store.ErrTaskNotFound):
		return http.StatusNotFound, graph.TaskNotFound
	case errors.Is(err, store.ErrDependencyNotFound):
		return http.StatusNotFound, ""
	case errors.Is(err, services.ErrTitleRequired), errors.Is(err, services.ErrInvalidDueDate):
		return http.StatusBadRequest, ""
	}
	return http.StatusInternalServerError, ""
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := statusOf(err)
	if status == http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Reason: kind})
}

func pathID(r *http.Request, name string) (int64, error) {
	return graph.ParseID(mux.Vars(r)[name])
}

// GetTasks handles GET /tasks.
func (c *TaskController) GetTasks(w http.ResponseWriter, r *http.Request) {
	schedule, err := c.Service.GetSchedule(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

// CreateTask handles POST /tasks.
func (c *TaskController) CreateTask(w http.ResponseWriter, r *http.Request) {
	var in services.NewTask
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request payload"})
		return
	}

	task, err := c.Service.CreateTask(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// GetTaskByID handles GET /tasks/{taskID}.
func (c *TaskController) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "taskID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	task, err := c.Service.GetTaskByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// DeleteTask handles DELETE /tasks/{taskID}.
func (c *TaskController) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "taskID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := c.Service.DeleteTask(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// dependencyIDs reads the child from the path and the parent from the body.
func dependencyIDs(r *http.Request) (parentID, childID int64, err error) {
	childID, err = pathID(r, "taskID")
	if err != nil {
		return 0, 0, err
	}
	var req dependencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return 0, 0, &graph.EdgeError{Kind: graph.InvalidIdentifier, ChildID: childID}
	}
	parentID, err = graph.ParseID(req.ParentID.String())
	if err != nil {
		return 0, 0, err
	}
	return parentID, childID, nil
}

// AddDependency handles POST /tasks/{taskID}/dependencies.
func (c *TaskController) AddDependency(w http.ResponseWriter, r *http.Request) {
	parentID, childID, err := dependencyIDs(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	dep, created, err := c.Service.AddDependency(r.Context(), parentID, childID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, dep)
}

// CheckDependency handles POST /tasks/{taskID}/dependencies/check.
func (c *TaskController) CheckDependency(w http.ResponseWriter, r *http.Request) {
	parentID, childID, err := dependencyIDs(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	decision, err := c.Service.CheckDependency(r.Context(), parentID, childID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

// RemoveDependency handles DELETE /tasks/{taskID}/dependencies/{parentID}.
func (c *TaskController) RemoveDependency(w http.ResponseWriter, r *http.Request) {
	childID, err := pathID(r, "taskID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	parentID, err := pathID(r, "parentID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := c.Service.RemoveDependency(r.Context(), parentID, childID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDependencies handles GET /dependencies.
func (c *TaskController) ListDependencies(w http.ResponseWriter, r *http.Request) {
	deps, err := c.Service.ListDependencies(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if deps == nil {
		deps = []models.Dependency{}
	}
	writeJSON(w, http.StatusOK, deps)
}
