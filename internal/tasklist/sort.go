package tasklist

import (
	"cmp"
	"slices"

	"github.com/starford/taskview/internal/models"
)

// SortMode selects the ordering applied to a task list.
type SortMode string

const (
	SortDueAsc      SortMode = "due-asc"
	SortDueDesc     SortMode = "due-desc"
	SortPrioDesc    SortMode = "prio-desc"
	SortPrioAsc     SortMode = "prio-asc"
	SortStatus      SortMode = "status"
	SortCreatedAsc  SortMode = "created-asc"
	SortCreatedDesc SortMode = "created-desc"

	DefaultSortMode = SortCreatedDesc
)

// SortModes returns every recognised mode.
func SortModes() []SortMode {
	return []SortMode{
		SortDueAsc, SortDueDesc,
		SortPrioDesc, SortPrioAsc,
		SortStatus,
		SortCreatedAsc, SortCreatedDesc,
	}
}

// Valid reports whether m names a recognised mode.
func (m SortMode) Valid() bool {
	return slices.Contains(SortModes(), m)
}

// ParseSortMode maps s to a mode, falling back to DefaultSortMode.
func ParseSortMode(s string) SortMode {
	if m := SortMode(s); m.Valid() {
		return m
	}
	return DefaultSortMode
}

// PriorityRank maps a priority to its rank: high 3, medium 2, low 1, else 0.
func PriorityRank(p models.Priority) int {
	switch p {
	case models.PriorityHigh:
		return 3
	case models.PriorityMedium:
		return 2
	case models.PriorityLow:
		return 1
	default:
		return 0
	}
}

// StatusRank maps a status to its rank: todo 1, doing 2, blocked 3, done 4, else 0.
func StatusRank(s models.Status) int {
	switch s {
	case models.StatusTodo:
		return 1
	case models.StatusDoing:
		return 2
	case models.StatusBlocked:
		return 3
	case models.StatusDone:
		return 4
	default:
		return 0
	}
}

type comparator func(a, b models.Task) int

func byDue(a, b models.Task) int {
	return a.Due.OrMax().Compare(b.Due.OrMax())
}

func byPriority(a, b models.Task) int {
	return cmp.Compare(PriorityRank(a.Priority), PriorityRank(b.Priority))
}

func byStatusThenPriorityDesc(a, b models.Task) int {
	return cmp.Or(
		cmp.Compare(StatusRank(a.Status), StatusRank(b.Status)),
		byPriority(b, a),
	)
}

func byCreated(a, b models.Task) int {
	return a.CreatedAt.Compare(b.CreatedAt.Time)
}

func reverse(c comparator) comparator {
	return func(a, b models.Task) int { return c(b, a) }
}

func comparatorFor(mode SortMode) comparator {
	switch mode {
	case SortDueAsc:
		return byDue
	case SortDueDesc:
		return reverse(byDue)
	case SortPrioDesc:
		return reverse(byPriority)
	case SortPrioAsc:
		return byPriority
	case SortStatus:
		return byStatusThenPriorityDesc
	case SortCreatedAsc:
		return byCreated
	default:
		return reverse(byCreated)
	}
}

// Sort returns a new slice holding tasks ordered by mode. Records with equal
// keys keep their input order. The input slice is not modified.
func Sort(tasks []models.Task, mode SortMode) []models.Task {
	out := slices.Clone(tasks)
	if out == nil {
		out = []models.Task{}
	}
	slices.SortStableFunc(out, comparatorFor(mode))
	return out
}
