package tasklist

import (
	"context"
	"time"

	"github.com/starford/taskview/internal/models"
)

// Entry is one annotated row of a task view. Renderers must treat Overdue as
// the only authority for overdue highlighting.
type Entry struct {
	Task        models.Task `json:"task"`
	Overdue     bool        `json:"overdue"`
	Completable bool        `json:"completable"`
	Badges      []Badge     `json:"badges"`
}

// Source returns the task records matching an encoded filter query.
type Source interface {
	Tasks(ctx context.Context, query string) ([]models.Task, error)
}

// BuildView sorts raw by mode and annotates every record relative to ref.
// The result has one entry per input record, in Sort order.
func BuildView(raw []models.Task, mode SortMode, ref time.Time) []Entry {
	sorted := Sort(raw, mode)
	entries := make([]Entry, len(sorted))
	for i, task := range sorted {
		d := Derive(task, ref)
		entries[i] = Entry{
			Task:        task,
			Overdue:     d.Overdue,
			Completable: d.Completable,
			Badges:      d.Badges,
		}
	}
	return entries
}

// Load requests the tasks matching filter from src and builds the view.
func Load(ctx context.Context, src Source, filter FilterRequest, mode SortMode, ref time.Time) ([]Entry, error) {
	raw, err := src.Tasks(ctx, filter.Encode())
	if err != nil {
		return nil, err
	}
	return BuildView(raw, mode, ref), nil
}
