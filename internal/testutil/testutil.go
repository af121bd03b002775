// Package testutil provides shared test helpers, most notably an in-memory
// task API server.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/taskview/internal/models"
)

// FakeTaskAPI is an in-memory task API served over httptest.
type FakeTaskAPI struct {
	Server *httptest.Server

	mu       sync.Mutex
	tasks    []models.Task
	seed     []models.Task
	nextID   int64
	queries  []string
	bodies   []string
	failNext int
	failList int
	now      func() time.Time
}

// NewFakeTaskAPI starts a fake API seeded with tasks. The server is closed
// when the test ends.
func NewFakeTaskAPI(t *testing.T, seed ...models.Task) *FakeTaskAPI {
	t.Helper()
	f := &FakeTaskAPI{
		seed: slices.Clone(seed),
		now:  time.Now,
	}
	f.reset()

	r := chi.NewRouter()
	r.Use(f.failures)
	r.Get("/summary", f.summary)
	r.Get("/tasks", f.list)
	r.Post("/tasks", f.create)
	r.Post("/tasks/{id}/complete", f.complete)
	r.Post("/tasks/{id}/delete", f.remove)
	r.Post("/tasks/{id}/update", f.update)
	r.Post("/reset-db", f.resetHandler)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL of the fake API.
func (f *FakeTaskAPI) URL() string {
	return f.Server.URL
}

// SetNow fixes the clock used for overdue counts and created-at stamps.
func (f *FakeTaskAPI) SetNow(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = func() time.Time { return now }
}

// FailNext makes the next n requests answer 500 with an error payload.
func (f *FakeTaskAPI) FailNext(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = n
}

// FailListNext makes the next n GET /tasks requests answer 500 while writes
// keep succeeding.
func (f *FakeTaskAPI) FailListNext(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failList = n
}

// Queries returns the raw query strings received on GET /tasks.
func (f *FakeTaskAPI) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.queries)
}

// Bodies returns the raw request bodies received by mutating endpoints.
func (f *FakeTaskAPI) Bodies() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.bodies)
}

// Tasks returns a snapshot of the stored tasks.
func (f *FakeTaskAPI) Tasks() []models.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.tasks)
}

func (f *FakeTaskAPI) reset() {
	f.tasks = slices.Clone(f.seed)
	f.nextID = 1
	for _, t := range f.tasks {
		if t.ID >= f.nextID {
			f.nextID = t.ID + 1
		}
	}
}

func (f *FakeTaskAPI) failures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		fail := f.failNext > 0
		if fail {
			f.failNext--
		}
		f.mu.Unlock()
		if fail {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "injected failure"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeTaskAPI) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := q.Get("status")
	priority := q.Get("priority")
	tag := q.Get("tag")
	text := strings.ToLower(q.Get("q"))
	var before models.Date
	if v := q.Get("due_before"); v != "" {
		d, err := models.ParseDate(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad due_before"})
			return
		}
		before = d
	}

	f.mu.Lock()
	f.queries = append(f.queries, r.URL.RawQuery)
	if f.failList > 0 {
		f.failList--
		f.mu.Unlock()
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list unavailable"})
		return
	}
	out := []models.Task{}
	for _, t := range f.tasks {
		switch {
		case status != "" && string(t.Status) != status:
		case priority != "" && string(t.Priority) != priority:
		case tag != "" && !slices.Contains(t.Tags, tag):
		case text != "" && !strings.Contains(strings.ToLower(t.Title+" "+t.Desc), text):
		case !before.IsZero() && (t.Due.IsZero() || !t.Due.Before(before)):
		default:
			out = append(out, t)
		}
	}
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (f *FakeTaskAPI) summary(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	today := models.DateOf(f.now())
	s := models.Summary{
		Total:      len(f.tasks),
		ByStatus:   map[string]int{},
		ByPriority: map[string]int{},
	}
	for _, t := range f.tasks {
		s.ByStatus[string(t.Status)]++
		s.ByPriority[string(t.Priority)]++
		if !t.IsDone() && !t.Due.IsZero() && t.Due.Before(today) {
			s.Overdue++
		}
	}
	writeJSON(w, http.StatusOK, s)
}

func (f *FakeTaskAPI) create(w http.ResponseWriter, r *http.Request) {
	var in models.NewTask
	if !f.decode(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title required"})
		return
	}

	f.mu.Lock()
	t := models.Task{
		ID:        f.nextID,
		Title:     in.Title,
		Desc:      in.Desc,
		Status:    models.StatusTodo,
		Priority:  in.Priority,
		Due:       in.Due,
		Tags:      in.Tags,
		CreatedAt: models.Timestamp{Time: f.now().UTC()},
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	f.nextID++
	f.tasks = append(f.tasks, t)
	f.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]int64{"id": t.ID})
}

func (f *FakeTaskAPI) complete(w http.ResponseWriter, r *http.Request) {
	f.mutate(w, r, func(t *models.Task) { t.Status = models.StatusDone })
}

func (f *FakeTaskAPI) update(w http.ResponseWriter, r *http.Request) {
	var p models.TaskPatch
	if !f.decode(w, r, &p) {
		return
	}
	f.mutate(w, r, func(t *models.Task) {
		if p.Title != "" {
			t.Title = p.Title
		}
		if p.Desc != "" {
			t.Desc = p.Desc
		}
		if p.Status != "" {
			t.Status = p.Status
		}
		if p.Priority != "" {
			t.Priority = p.Priority
		}
		if p.Due != "" {
			t.Due, _ = models.ParseDate(p.Due)
		}
		if p.Tags != nil {
			t.Tags = p.Tags
		}
	})
}

func (f *FakeTaskAPI) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	f.mu.Lock()
	i := slices.IndexFunc(f.tasks, func(t models.Task) bool { return t.ID == id })
	if i >= 0 {
		f.tasks = slices.Delete(f.tasks, i, i+1)
	}
	f.mu.Unlock()

	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeTaskAPI) resetHandler(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	f.reset()
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (f *FakeTaskAPI) mutate(w http.ResponseWriter, r *http.Request, apply func(*models.Task)) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	f.mu.Lock()
	i := slices.IndexFunc(f.tasks, func(t models.Task) bool { return t.ID == id })
	if i >= 0 {
		apply(&f.tasks[i])
	}
	f.mu.Unlock()

	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (f *FakeTaskAPI) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return false
	}
	f.mu.Lock()
	f.bodies = append(f.bodies, string(raw))
	f.mu.Unlock()
	if err := json.Unmarshal(raw, v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Task builds a task record for tests. due may be empty.
func Task(id int64, title string, status models.Status, prio models.Priority, due string, tags ...string) models.Task {
	t := models.Task{
		ID:        id,
		Title:     title,
		Status:    status,
		Priority:  prio,
		Tags:      append([]string{}, tags...),
		CreatedAt: models.Timestamp{Time: time.Date(2024, time.January, 1, 0, 0, int(id), 0, time.UTC)},
	}
	if due != "" {
		t.Due = models.MustParseDate(due)
	}
	return t
}
