package taskapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/starford/taskview/internal/apperr"
	"github.com/starford/taskview/internal/models"
	"github.com/starford/taskview/internal/tasklist"
	"github.com/starford/taskview/internal/testutil"
)

func seed() []models.Task {
	return []models.Task{
		testutil.Task(1, "Buy milk", models.StatusTodo, models.PriorityLow, "2024-01-10", "home"),
		testutil.Task(2, "Write report", models.StatusDoing, models.PriorityHigh, "", "work"),
		testutil.Task(3, "File taxes", models.StatusDone, models.PriorityMedium, "2023-04-15"),
	}
}

type countingTransport struct {
	paths []string
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.paths = append(c.paths, r.URL.Path)
	return http.DefaultTransport.RoundTrip(r)
}

func TestNew_CustomHTTPClientAndTrailingSlash(t *testing.T) {
	api := testutil.NewFakeTaskAPI(t, seed()...)
	tr := &countingTransport{}
	c := New(api.URL()+"/", WithHTTPClient(&http.Client{Transport: tr}))

	if _, err := c.Summary(context.Background()); err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(tr.paths) != 1 || tr.paths[0] != "/summary" {
		t.Errorf("requests = %q, want [/summary]", tr.paths)
	}
}

func TestTasks_NoFilter(t *testing.T) {
	api := testutil.NewFakeTaskAPI(t, seed()...)
	c := New(api.URL())

	tasks, err := c.Tasks(context.Background(), "")
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(tasks))
	}
	if q := api.Queries(); len(q) != 1 || q[0] != "" {
		t.Errorf("queries = %q, want one empty query", q)
	}
}

func TestListTasks_SendsEncodedFilter(t *testing.T) {
	api := testutil.NewFakeTaskAPI(t, seed()...)
	c := New(api.URL() + "/")

	tasks, err := c.ListTasks(context.Background(), tasklist.FilterRequest{Status: "todo", Query: "buy milk"})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != 1 {
		t.Fatalf("tasks = %+v, want task 1 only", tasks)
	}
	if got := api.Queries()[0]; got != "status=todo&q=buy+milk" {
		t.Errorf("query = %q", got)
	}
	if tasks[0].Due.String() != "2024-01-10" {
		t.Errorf("due = %q", tasks[0].Due.String())
	}
}

func TestSummary(t *testing.T) {
	api := testutil.NewFakeTaskAPI(t, seed()...)
	c := New(api.URL())

	s, err := c.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if s.Total != 3 || s.ByStatus["done"] != 1 || s.ByPriority["high"] != 1 {
		t.Errorf("summary = %+v", s)
	}
}

func TestMutations(t *testing.T) {
	api := testutil.NewFakeTaskAPI(t, seed()...)
	c := New(api.URL())
	ctx := context.Background()

	if err := c.CreateTask(ctx, models.NewTask{Title: "New", Tags: []string{"x"}}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if err := c.CompleteTask(ctx, 1); err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if err := c.UpdateTask(ctx, 2, models.TaskPatch{Title: "Renamed"}); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if err := c.DeleteTask(ctx, 3); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}

	tasks := api.Tasks()
	if len(tasks) != 3 {
		t.Fatalf("got %d tasks after mutations, want 3", len(tasks))
	}
	if tasks[0].Status != models.StatusDone {
		t.Errorf("task 1 status = %q", tasks[0].Status)
	}
	if tasks[1].Title != "Renamed" {
		t.Errorf("task 2 title = %q", tasks[1].Title)
	}
	if tasks[2].Title != "New" || tasks[2].ID != 4 {
		t.Errorf("created task = %+v", tasks[2])
	}

	bodies := api.Bodies()
	if !strings.Contains(bodies[0], `"due":null`) {
		t.Errorf("create body = %s, want null due", bodies[0])
	}
	if bodies[1] != `{"title":"Renamed"}` {
		t.Errorf("update body = %s", bodies[1])
	}

	if err := c.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if len(api.Tasks()) != 3 || api.Tasks()[0].Status != models.StatusTodo {
		t.Errorf("reset did not restore seed data")
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		status  int
		body    string
		message string
		target  error
	}{
		{http.StatusNotFound, `{"error":"task not found"}`, "task not found", apperr.ErrNotFound},
		{http.StatusConflict, `{"error":"stale"}`, "stale", apperr.ErrConflict},
		{http.StatusBadRequest, `{"error":"title required"}`, "title required", apperr.ErrInvalidInput},
		{http.StatusUnprocessableEntity, ``, "Unprocessable Entity", apperr.ErrInvalidInput},
		{http.StatusInternalServerError, `not json`, "Internal Server Error", apperr.ErrUpstream},
		{599, ``, "request failed", apperr.ErrUpstream},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		}))

		err := New(srv.URL).CompleteTask(context.Background(), 7)
		srv.Close()

		var apiErr *Error
		if !errors.As(err, &apiErr) {
			t.Fatalf("status %d: err = %v, want *Error", tc.status, err)
		}
		if apiErr.StatusCode != tc.status || apiErr.Message != tc.message {
			t.Errorf("status %d: got %+v, want message %q", tc.status, apiErr, tc.message)
		}
		if !errors.Is(err, tc.target) {
			t.Errorf("status %d: err does not match %v", tc.status, tc.target)
		}
	}
}

func TestFailureFromFake(t *testing.T) {
	api := testutil.NewFakeTaskAPI(t, seed()...)
	api.FailNext(1)

	_, err := New(api.URL()).Tasks(context.Background(), "")
	if !errors.Is(err, apperr.ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
	if !strings.Contains(err.Error(), "injected failure") {
		t.Errorf("err = %v, want API message", err)
	}
}

func TestEmptyBodyTolerated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tasks, err := New(srv.URL).Tasks(context.Background(), "")
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Errorf("tasks = %#v, want empty non-nil", tasks)
	}
}

func TestMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"due":"tomorrow"}]`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Tasks(context.Background(), "")
	if err == nil {
		t.Fatal("expected decode error for malformed due")
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		t.Errorf("decode failure reported as API error: %v", err)
	}
}

func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Summary(context.Background())
	if !errors.Is(err, apperr.ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
}

func TestRequestHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}))
	defer srv.Close()

	if err := New(srv.URL).Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if ct := got.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}
