package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/taskview/internal/apperr"
	"github.com/starford/taskview/internal/checksum"
	"github.com/starford/taskview/internal/tasklist"
	"github.com/starford/taskview/internal/taskservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc         *taskservice.Service
	defaultSort func() tasklist.SortMode
}

// NewHandler creates a new Handler. defaultSort supplies the sort mode used
// when a request carries none; nil means tasklist.DefaultSortMode.
func NewHandler(svc *taskservice.Service, defaultSort func() tasklist.SortMode) *Handler {
	if defaultSort == nil {
		defaultSort = func() tasklist.SortMode { return tasklist.DefaultSortMode }
	}
	return &Handler{svc: svc, defaultSort: defaultSort}
}

// viewQuery reads the filter and sort mode of the view from the query string.
func (h *Handler) viewQuery(r *http.Request) taskservice.Query {
	values := r.URL.Query()
	mode := h.defaultSort()
	if s := values.Get("sort"); s != "" {
		mode = tasklist.ParseSortMode(s)
	}
	return taskservice.Query{
		Filter: tasklist.FilterFromValues(values),
		Sort:   mode,
	}
}

func taskID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid task id %q", apperr.ErrInvalidInput, chi.URLParam(r, "id"))
	}
	return id, nil
}

// ListTasks handles GET /tasks.
//
//	@Summary		List annotated tasks
//	@Tags			tasks
//	@Produce		json
//	@Param			status		query		string	false	"Status filter"
//	@Param			priority	query		string	false	"Priority filter"
//	@Param			tag			query		string	false	"Tag filter"
//	@Param			q			query		string	false	"Text search"
//	@Param			due_before	query		string	false	"Due before (YYYY-MM-DD)"
//	@Param			sort		query		string	false	"Sort mode"	Enums(due-asc, due-desc, prio-desc, prio-asc, status, created-asc, created-desc)
//	@Success		200			{object}	BoardResponse
//	@Success		304			"Not modified"
//	@Failure		502			{object}	errResponse
//	@Router			/tasks [get]
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	board, err := h.svc.Board(r.Context(), h.viewQuery(r))
	if err != nil {
		writeError(w, "list tasks", err)
		return
	}

	// GeneratedAt changes on every call, so the tag covers the content only.
	etag, err := checksum.ETag(struct {
		Entries []tasklist.Entry  `json:"entries"`
		Summary any               `json:"summary"`
		Sort    tasklist.SortMode `json:"sort"`
	}{board.Entries, board.Summary, board.Sort})
	if err != nil {
		writeError(w, "list tasks", err)
		return
	}
	w.Header().Set("ETag", etag)
	if checksum.Match(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// Summary handles GET /summary.
//
//	@Summary		Aggregate task counters
//	@Tags			tasks
//	@Produce		json
//	@Success		200	{object}	models.Summary
//	@Failure		502	{object}	errResponse
//	@Router			/summary [get]
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Summary(r.Context())
	if err != nil {
		writeError(w, "summary", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// CreateTask handles POST /tasks.
//
//	@Summary		Create a task
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateTaskRequest	true	"Task to create"
//	@Success		201		{object}	MutationResponse
//	@Failure		400		{object}	errResponse
//	@Router			/tasks [post]
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	in, err := req.toNewTask()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	res, err := h.svc.Create(r.Context(), in, h.viewQuery(r))
	if err != nil {
		writeError(w, "create task", err)
		return
	}
	writeJSON(w, http.StatusCreated, newMutationResponse(res))
}

// CompleteTask handles POST /tasks/{id}/complete.
//
//	@Summary		Mark a task as done
//	@Tags			tasks
//	@Produce		json
//	@Param			id	path		int	true	"Task ID"
//	@Success		200	{object}	MutationResponse
//	@Failure		404	{object}	errResponse
//	@Router			/tasks/{id}/complete [post]
func (h *Handler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "complete task", h.svc.Complete)
}

// DeleteTask handles POST /tasks/{id}/delete.
//
//	@Summary		Delete a task
//	@Tags			tasks
//	@Produce		json
//	@Param			id	path		int	true	"Task ID"
//	@Success		200	{object}	MutationResponse
//	@Failure		404	{object}	errResponse
//	@Router			/tasks/{id}/delete [post]
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "delete task", h.svc.Delete)
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, op string,
	fn func(context.Context, int64, taskservice.Query) (*taskservice.Result, error)) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, op, err)
		return
	}
	res, err := fn(r.Context(), id, h.viewQuery(r))
	if err != nil {
		writeError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newMutationResponse(res))
}

// UpdateTask handles POST /tasks/{id}/update.
//
//	@Summary		Partially update a task
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int					true	"Task ID"
//	@Param			body	body		UpdateTaskRequest	true	"Fields to change"
//	@Success		200		{object}	MutationResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Router			/tasks/{id}/update [post]
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	id, err := taskID(r)
	if err != nil {
		writeError(w, "update task", err)
		return
	}
	var patch UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	res, err := h.svc.Update(r.Context(), id, patch, h.viewQuery(r))
	if err != nil {
		writeError(w, "update task", err)
		return
	}
	writeJSON(w, http.StatusOK, newMutationResponse(res))
}

// ResetDB handles POST /reset-db.
//
//	@Summary		Restore the task API's seed data
//	@Tags			tasks
//	@Produce		json
//	@Success		200	{object}	MutationResponse
//	@Router			/reset-db [post]
func (h *Handler) ResetDB(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Reset(r.Context(), h.viewQuery(r))
	if err != nil {
		writeError(w, "reset", err)
		return
	}
	writeJSON(w, http.StatusOK, newMutationResponse(res))
}

// Live handles GET /health/live.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready handles GET /health/ready. It reports unavailable while the task API
// cannot serve a summary.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if _, err := h.svc.Summary(ctx); err != nil {
		slog.Warn("readiness check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
