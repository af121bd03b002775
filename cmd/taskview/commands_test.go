package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/taskview/internal/models"
	"github.com/starford/taskview/internal/taskservice"
	"github.com/starford/taskview/internal/testutil"
)

func seed() []models.Task {
	return []models.Task{
		testutil.Task(1, "Buy milk", models.StatusTodo, models.PriorityLow, "2030-05-01", "home"),
		testutil.Task(2, "File taxes", models.StatusTodo, models.PriorityHigh, "2030-01-15"),
		testutil.Task(3, "Fix bike", models.StatusDoing, models.PriorityMedium, ""),
	}
}

// run executes the CLI against api with a config path that does not exist.
func run(t *testing.T, api *testutil.FakeTaskAPI, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf
	full := append([]string{"taskview",
		"--config", filepath.Join(t.TempDir(), "missing.yaml"),
		"--api-url", api.URL(),
	}, args...)
	err := app.Run(context.Background(), full)
	return buf.String(), err
}

func decodeBoard(t *testing.T, out string) taskservice.Board {
	t.Helper()
	var b taskservice.Board
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	return b
}

func ids(b taskservice.Board) []int64 {
	out := make([]int64, 0, len(b.Entries))
	for _, e := range b.Entries {
		out = append(out, e.Task.ID)
	}
	return out
}

func TestList_JSONSortedAndFiltered(t *testing.T) {
	api := testutil.NewFakeTaskAPI(t, seed()...)

	out, err := run(t, api, "list", "--status", "todo", "--sort", "due-asc", "--json")
	require.NoError(t, err)

	b := decodeBoard(t, out)
	assert.Equal(t, []int64{2, 1}, ids(b))
	assert.Equal(t, 2, b.Count)
	assert.Equal(t, []string{"status=todo"}, api.Queries())
}

func TestList_DefaultSortIsNewestFirst(t *testing.T) {
	api := testutil.NewFakeTaskAPI(t, seed()...)

	out, err := run(t, api, "list", "--json")
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2, 1}, ids(decodeBoard(t, out)))
}

func TestList_Text(t *testing.T) {
	api := testutil.NewFakeTaskAPI(t, seed()...)

	out, err := run(t, api, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Tasks")
	assert.Contains(t, out, "(3)")
	assert.Contains(t, out, "Buy milk")
	assert.Contains(t, out, "total 3")
}

func TestSummary_JSON(t *testing.T) {
	api := testutil.NewFakeTaskAPI(t, seed()...)

	out, err := run(t, api, "summary", "--json")
	require.NoError(t, err)

	var s models.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.ByStatus["todo"])
}

func TestAdd(t *testing.T) {
	api := testutil.NewFakeTaskAPI(t, seed()...)

	_, err := run(t, api, "add", "--priority", "high", "--due", "2030-02-02", "--tags", "work, urgent", "Write report")
	require.NoError(t, err)

	tasks := api.Tasks()
	require.Len(t, tasks, 4)
	added := tasks[3]
	assert.Equal(t, "Write report", added.Title)
	assert.Equal(t, models.PriorityHigh, added.Priority)
	assert.Equal(t, "2030-02-02", added.Due.String())
	assert.Equal(t, []string{"work", "urgent"}, added.Tags)
}

func TestAdd_RequiresTitle(t *testing.T) {
	api := testutil.NewFakeTaskAPI(t, seed()...)

	_, err := run(t, api, "add")
	require.Error(t, err)
	assert.Len(t, api.Tasks(), 3)
}

func TestAdd_BadDue(t *testing.T) {
	api := testutil.NewFakeTaskAPI(t, seed()...)

	_, err := run(t, api, "add", "--due", "tomorrow", "Something")
	require.Error(t, err)
	assert.Empty(t, api.Bodies())
}

func TestComplete(t *testing.T) {
	api := testutil.NewFakeTaskAPI(t, seed()...)

	out, err := run(t, api, "complete", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "File taxes")
	assert.Equal(t, models.StatusDone, api.Tasks()[1].Status)
}

func TestComplete_ReloadFailure(t *testing.T) {
	api := testutil.NewFakeTaskAPI(t, seed()...)
	api.FailListNext(1)

	out, err := run(t, api, "complete", "1")
	require.NoError(t, err)
	assert.Equal(t, "completed: 1\n", out)
	assert.Equal(t, models.StatusDone, api.Tasks()[0].Status)
}

func TestComplete_InvalidID(t *testing.T) {
	api := testutil.NewFakeTaskAPI(t, seed()...)

	for _, arg := range []string{"abc", "0", "-4"} {
		_, err := run(t, api, "complete", arg)
		assert.Error(t, err, arg)
	}
}

func TestDelete_NeedsConfirmation(t *testing.T) {
	api := testutil.NewFakeTaskAPI(t, seed()...)

	_, err := run(t, api, "delete", "1")
	require.ErrorIs(t, err, errNotConfirmed)
	assert.Len(t, api.Tasks(), 3)

	_, err = run(t, api, "delete", "--yes", "1")
	require.NoError(t, err)
	assert.Len(t, api.Tasks(), 2)
}

func TestDelete_Missing(t *testing.T) {
	api := testutil.NewFakeTaskAPI(t, seed()...)

	_, err := run(t, api, "delete", "--yes", "42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestEdit(t *testing.T) {
	api := testutil.NewFakeTaskAPI(t, seed()...)

	_, err := run(t, api, "edit", "--status", "blocked", "--title", "Fix bike brakes", "3")
	require.NoError(t, err)

	got := api.Tasks()[2]
	assert.Equal(t, models.StatusBlocked, got.Status)
	assert.Equal(t, "Fix bike brakes", got.Title)
	assert.Equal(t, models.PriorityMedium, got.Priority)
}

func TestEdit_InvalidStatus(t *testing.T) {
	api := testutil.NewFakeTaskAPI(t, seed()...)

	_, err := run(t, api, "edit", "--status", "paused", "3")
	require.Error(t, err)
	assert.Empty(t, api.Bodies())
}

func TestReset(t *testing.T) {
	api := testutil.NewFakeTaskAPI(t, seed()...)

	_, err := run(t, api, "delete", "--yes", "1")
	require.NoError(t, err)

	_, err = run(t, api, "reset")
	require.ErrorIs(t, err, errNotConfirmed)

	_, err = run(t, api, "reset", "--yes")
	require.NoError(t, err)
	assert.Len(t, api.Tasks(), 3)
}

func TestConfigFile_DefaultSort(t *testing.T) {
	api := testutil.NewFakeTaskAPI(t, seed()...)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("view:\n  default_sort: prio-desc\n"), 0o644))

	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf
	err := app.Run(context.Background(), []string{"taskview", "-c", path, "--api-url", api.URL(), "list", "--json"})
	require.NoError(t, err)

	b := decodeBoard(t, buf.String())
	assert.Equal(t, []int64{2, 3, 1}, ids(b))
}

func TestConfigFile_Invalid(t *testing.T) {
	api := testutil.NewFakeTaskAPI(t, seed()...)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("view:\n  default_sort: sideways\n"), 0o644))

	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run(context.Background(), []string{"taskview", "-c", path, "--api-url", api.URL(), "list"})
	require.Error(t, err)
	assert.Empty(t, api.Queries())
}

func TestAPIURL_Invalid(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run(context.Background(), []string{"taskview",
		"--config", filepath.Join(t.TempDir(), "missing.yaml"),
		"--api-url", "not a url", "summary"})
	require.Error(t, err)
}
