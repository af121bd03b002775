// Package render formats task views for the terminal.
package render

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/starford/taskview/internal/models"
	"github.com/starford/taskview/internal/tasklist"
)

// List renders entries one task per line. Highlighting follows Entry.Overdue.
func List(entries []tasklist.Entry) string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render("Tasks"))
	b.WriteString(" ")
	b.WriteString(CountStyle.Render(fmt.Sprintf("(%d)", len(entries))))
	b.WriteString("\n")

	if len(entries) == 0 {
		b.WriteString(CountStyle.Render("  no tasks match"))
		b.WriteString("\n")
		return b.String()
	}

	for _, e := range entries {
		b.WriteString(Entry(e))
		b.WriteString("\n")
	}
	return b.String()
}

// Entry renders a single annotated task, with its description on a second
// line when present.
func Entry(e tasklist.Entry) string {
	icon, titleStyle := IconOpen, TitleStyle
	switch {
	case e.Overdue:
		icon, titleStyle = IconOverdue, OverdueTitleStyle
	case !e.Completable:
		icon, titleStyle = IconDone, DoneTitleStyle
	}

	parts := []string{
		icon,
		IDStyle.Render(fmt.Sprintf("#%-3d", e.Task.ID)),
		titleStyle.Render(e.Task.Title),
	}
	for _, badge := range e.Badges {
		parts = append(parts, Badge(badge))
	}
	for _, tag := range e.Task.Tags {
		parts = append(parts, TagStyle.Render("#"+tag))
	}

	line := strings.Join(parts, " ")
	if e.Task.Desc != "" {
		line += "\n" + DescStyle.Render(e.Task.Desc)
	}
	return line
}

// Badge renders a badge as a bracketed chip.
func Badge(b tasklist.Badge) string {
	style, ok := badgeStyles[b.Class]
	if !ok {
		style = defaultBadgeStyle
	}
	return style.Render("[" + b.Text + "]")
}

// Summary renders the aggregate counters. Map keys are printed in a stable
// order: known values first, then anything else alphabetically.
func Summary(s *models.Summary) string {
	if s == nil {
		return CountStyle.Render("summary unavailable") + "\n"
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render("Summary"))
	b.WriteString(fmt.Sprintf(" total %d", s.Total))
	if s.Overdue > 0 {
		b.WriteString(", ")
		b.WriteString(badgeStyles[tasklist.BadgeOverdue].Render(fmt.Sprintf("%d overdue", s.Overdue)))
	} else {
		b.WriteString(", 0 overdue")
	}
	b.WriteString("\n")
	prios := models.Priorities()
	slices.Reverse(prios)
	b.WriteString(counts("status", s.ByStatus, models.Statuses()))
	b.WriteString(counts("priority", s.ByPriority, prios))
	return b.String()
}

func counts(label string, m map[string]int, known []string) string {
	var order []string
	for _, k := range known {
		if _, ok := m[k]; ok {
			order = append(order, k)
		}
	}
	rest := slices.Sorted(maps.Keys(m))
	for _, k := range rest {
		if !slices.Contains(order, k) {
			order = append(order, k)
		}
	}

	parts := make([]string, len(order))
	for i, k := range order {
		parts[i] = fmt.Sprintf("%s %d", k, m[k])
	}
	return fmt.Sprintf("  %-9s %s\n", label+":", CountStyle.Render(strings.Join(parts, " · ")))
}
