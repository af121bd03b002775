package mcpserver

// SortModesURI is the resource URI of ViewContract.
const SortModesURI = "taskview://sort-modes"

// ViewContract documents how task lists are ordered and annotated, so LLM
// consumers can interpret list_tasks output without guessing.
const ViewContract = `# Taskview List Contract

## Sort modes

| Mode           | Order                                                        |
|----------------|--------------------------------------------------------------|
| ` + "`due-asc`" + `      | Earliest due date first; tasks without a due date last.      |
| ` + "`due-desc`" + `     | Latest due date first; tasks without a due date first.       |
| ` + "`prio-desc`" + `    | high, medium, low, then unknown priorities.                  |
| ` + "`prio-asc`" + `     | Unknown priorities, then low, medium, high.                  |
| ` + "`status`" + `       | Unknown statuses, todo, doing, blocked, done; ties by priority high first. |
| ` + "`created-asc`" + `  | Oldest first.                                                |
| ` + "`created-desc`" + ` | Newest first. Used for unknown or missing modes.             |

Tasks that compare equal keep the order the task API returned them in.

## Overdue

A task is overdue when it has a due date, its status is not ` + "`done`" + `, and the
due date is before today. A task due today is not overdue. Always read the
` + "`overdue`" + ` field of each entry instead of recomputing it.

## Filters

` + "`status`" + `, ` + "`priority`" + `, ` + "`tag`" + `, ` + "`q`" + ` (text search) and ` + "`due_before`" + ` (YYYY-MM-DD)
are passed to the task API unchanged. Blank filters are ignored.

## Values

- status: todo, doing, blocked, done
- priority: low, medium, high
- dates: YYYY-MM-DD
`
