// Package models defines the domain types for taskview.
package models

import (
	"strings"
	"time"
)

// Status is the workflow state of a task.
type Status string

const (
	StatusTodo    Status = "todo"
	StatusDoing   Status = "doing"
	StatusBlocked Status = "blocked"
	StatusDone    Status = "done"
)

// Priority is the user-assigned importance of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Statuses lists the known status values in workflow order.
func Statuses() []string {
	return []string{string(StatusTodo), string(StatusDoing), string(StatusBlocked), string(StatusDone)}
}

// Priorities lists the known priority values from lowest to highest.
func Priorities() []string {
	return []string{string(PriorityLow), string(PriorityMedium), string(PriorityHigh)}
}

// Task is a task record as served by the task API.
// Status and Priority carry unknown values verbatim.
type Task struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Desc      string    `json:"desc,omitempty"`
	Status    Status    `json:"status"`
	Priority  Priority  `json:"priority"`
	Due       Date      `json:"due"`
	Tags      []string  `json:"tags"`
	CreatedAt Timestamp `json:"created-at"`
}

// IsDone reports whether the task has been completed.
func (t Task) IsDone() bool {
	return t.Status == StatusDone
}

// Summary is the aggregate view returned by the task API.
type Summary struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by-status"`
	ByPriority map[string]int `json:"by-priority"`
	Overdue    int            `json:"overdue"`
}

// ParseTags splits comma-separated user input into trimmed, non-empty tags.
// Order and duplicates are preserved.
func ParseTags(s string) []string {
	tags := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// Timestamp is a point in time that tolerates the layouts task APIs commonly emit.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
}

// ParseTimestamp parses s using the first matching known layout.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return Timestamp{Time: t}, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return Timestamp{}, firstErr
}

// MarshalJSON encodes the timestamp as RFC 3339, or null when zero.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + ts.Format(time.RFC3339Nano) + `"`), nil
}

// UnmarshalJSON accepts null, "" or any layout known to ParseTimestamp.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	s, ok, err := jsonString(data)
	if err != nil {
		return err
	}
	if !ok {
		*ts = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}
