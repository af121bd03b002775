package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/taskview/internal/tasklist"
	"github.com/starford/taskview/internal/taskservice"
)

// NewRouter creates a chi router with all view routes mounted.
// defaultSort is consulted per request so config reloads apply immediately.
// sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc *taskservice.Service, defaultSort func() tasklist.SortMode, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, defaultSort)

	r := chi.NewRouter()

	r.Get("/health/live", h.Live)
	r.Get("/health/ready", h.Ready)

	r.Get("/summary", h.Summary)

	r.Get("/tasks", h.ListTasks)
	r.Post("/tasks", h.CreateTask)
	r.Route("/tasks/{id}", func(r chi.Router) {
		r.Post("/complete", h.CompleteTask)
		r.Post("/delete", h.DeleteTask)
		r.Post("/update", h.UpdateTask)
	})

	r.Post("/reset-db", h.ResetDB)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
