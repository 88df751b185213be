package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"todo-dag/app/controllers"
)

// RegisterRoutes sets up all routes for the application.
func RegisterRoutes(router *mux.Router, taskController *controllers.TaskController) {
	router.HandleFunc("/tasks", taskController.GetTasks).Methods(http.MethodGet)
	router.HandleFunc("/tasks", taskController.CreateTask).Methods(http.MethodPost)
	router.HandleFunc("/tasks/{taskID}", taskController.GetTaskByID).Methods(http.MethodGet)
	router.HandleFunc("/tasks/{taskID}", taskController.DeleteTask).Methods(http.MethodDelete)
	router.HandleFunc("/tasks/{taskID}/dependencies", taskController.AddDependency).Methods(http.MethodPost)
	router.HandleFunc("/tasks/{taskID}/dependencies/check", taskController.CheckDependency).Methods(http.MethodPost)
	router.HandleFunc("/tasks/{taskID}/dependencies/{parentID}", taskController.RemoveDependency).Methods(http.MethodDelete)
	router.HandleFunc("/dependencies", taskController.ListDependencies).Methods(http.MethodGet)

	router.HandleFunc("/healthz", healthz).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok\n"))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusMethodNotAllowed)
}

// NewRouter returns a router with every route registered and the request
// middleware installed. mux skips middleware when no route matches, so the
// 404 and 405 handlers are wrapped directly.
func NewRouter(taskController *controllers.TaskController) *mux.Router {
	router := mux.NewRouter()
	RegisterRoutes(router, taskController)
	router.Use(RequestLogger, Instrument)
	router.NotFoundHandler = RequestLogger(Instrument(http.NotFoundHandler()))
	router.MethodNotAllowedHandler = RequestLogger(Instrument(http.HandlerFunc(methodNotAllowed)))
	return router
}
