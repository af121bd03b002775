package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskUnmarshal_APIShape(t *testing.T) {
	raw := `{
		"id": 7,
		"title": "Buy milk",
		"desc": "2 litres",
		"status": "todo",
		"priority": "high",
		"due": "2024-03-01",
		"tags": ["home", "errand", "home"],
		"created-at": "2024-02-01T10:30:00Z"
	}`

	var task Task
	require.NoError(t, json.Unmarshal([]byte(raw), &task))
	assert.Equal(t, int64(7), task.ID)
	assert.Equal(t, StatusTodo, task.Status)
	assert.Equal(t, PriorityHigh, task.Priority)
	assert.Equal(t, "2024-03-01", task.Due.String())
	assert.Equal(t, []string{"home", "errand", "home"}, task.Tags)
	assert.Equal(t, time.Date(2024, 2, 1, 10, 30, 0, 0, time.UTC), task.CreatedAt.UTC())
}

func TestTaskUnmarshal_AbsentDue(t *testing.T) {
	for _, raw := range []string{
		`{"id":1,"title":"a","due":null}`,
		`{"id":1,"title":"a","due":""}`,
		`{"id":1,"title":"a"}`,
	} {
		var task Task
		require.NoError(t, json.Unmarshal([]byte(raw), &task), raw)
		assert.True(t, task.Due.IsZero(), raw)
	}
}

func TestTaskUnmarshal_MalformedDue(t *testing.T) {
	var task Task
	err := json.Unmarshal([]byte(`{"id":1,"title":"a","due":"next week"}`), &task)
	assert.Error(t, err)
}

func TestTimestampLayouts(t *testing.T) {
	for _, s := range []string{
		"2024-01-01",
		"2024-01-01T08:00:00",
		"2024-01-01 08:00:00",
		"2024-01-01T08:00:00Z",
		"2024-01-01T08:00:00.123456+02:00",
	} {
		ts, err := ParseTimestamp(s)
		require.NoError(t, err, s)
		assert.Equal(t, 2024, ts.Year(), s)
	}

	_, err := ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestTaskMarshal_RoundTripsDates(t *testing.T) {
	task := Task{ID: 2, Title: "x", Status: StatusDone, Tags: []string{}}
	data, err := json.Marshal(task)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"due":null`)
	assert.Contains(t, string(data), `"created-at":null`)

	task.Due = MustParseDate("2023-01-01")
	data, err = json.Marshal(task)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"due":"2023-01-01"`)
}

func TestDateOrdering(t *testing.T) {
	a := MustParseDate("2020-01-01")
	b := MustParseDate("2020-01-02")

	assert.True(t, a.Before(b))
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 0, a.Compare(NewDate(2020, time.January, 1)))
	assert.Equal(t, MaxDate, Date{}.OrMax())
	assert.Equal(t, a, a.OrMax())
}

func TestDateOf_UsesOwnLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	// 2020-01-01 20:00 UTC is already 2020-01-02 in UTC+10.
	ref := time.Date(2020, 1, 1, 20, 0, 0, 0, time.UTC).In(loc)
	assert.Equal(t, "2020-01-02", DateOf(ref).String())
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c", "a"}, ParseTags(" a, b,, c ,a"))
	assert.Equal(t, []string{}, ParseTags(""))
	assert.Equal(t, []string{}, ParseTags(" , ,"))
}

func TestNewTaskValidate(t *testing.T) {
	n := NewTask{Title: "   ", Priority: "medium", Tags: []string{" x ", ""}}
	n.Normalize()
	assert.Equal(t, []string{"x"}, n.Tags)
	require.Error(t, n.Validate())

	n.Title = "Write report"
	assert.NoError(t, n.Validate())

	n.Priority = "urgent"
	assert.Error(t, n.Validate())
}

func TestTaskPatch(t *testing.T) {
	assert.True(t, TaskPatch{}.IsEmpty())

	p := TaskPatch{Status: StatusBlocked, Due: "2024-05-01"}
	assert.False(t, p.IsEmpty())
	assert.NoError(t, p.Validate())

	p.Due = "05/01/2024"
	assert.Error(t, p.Validate())

	p = TaskPatch{Status: "someday"}
	assert.Error(t, p.Validate())

	data, err := json.Marshal(TaskPatch{Title: "new"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"new"}`, string(data))
}
