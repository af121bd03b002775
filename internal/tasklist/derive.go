package tasklist

import (
	"time"

	"github.com/starford/taskview/internal/models"
)

// Badge is a labelled chip a renderer shows next to a task.
type Badge struct {
	Class string `json:"class"`
	Text  string `json:"text"`
}

// Badge classes that are not a status or priority value.
const (
	BadgeDue     = "due"
	BadgeOverdue = "overdue"
)

// Derived holds the display fields computed for one task.
type Derived struct {
	Overdue     bool
	Completable bool
	Badges      []Badge
}

// IsOverdue reports whether task is past due on the calendar day of ref.
// ref is truncated to midnight in its own location; a task due on that day is
// not overdue. Tasks without a due date and completed tasks are never overdue.
func IsOverdue(task models.Task, ref time.Time) bool {
	if task.Due.IsZero() || task.IsDone() {
		return false
	}
	return task.Due.Before(models.DateOf(ref))
}

// Derive computes all derived display fields for task relative to ref.
func Derive(task models.Task, ref time.Time) Derived {
	overdue := IsOverdue(task, ref)

	badges := []Badge{
		{Class: string(task.Status), Text: string(task.Status)},
		{Class: string(task.Priority), Text: "priority:" + string(task.Priority)},
	}
	if !task.Due.IsZero() {
		badges = append(badges, Badge{Class: BadgeDue, Text: task.Due.String()})
	}
	if overdue {
		badges = append(badges, Badge{Class: BadgeOverdue, Text: "OVERDUE"})
	}

	return Derived{
		Overdue:     overdue,
		Completable: !task.IsDone(),
		Badges:      badges,
	}
}
