package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/starford/taskview/internal"
	"github.com/starford/taskview/internal/models"
	"github.com/starford/taskview/internal/render"
	"github.com/starford/taskview/internal/tasklist"
	"github.com/starford/taskview/internal/taskservice"
	pkgconfig "github.com/starford/taskview/pkg/config"
)

var errNotConfirmed = errors.New("refusing without --yes")

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "taskview",
		Usage:   "Sorted, annotated views over a remote task API",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "Task API base URL (overrides api.base_url)",
				Sources: cli.EnvVars("TASKVIEW_API_URL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP view server",
				Action: serve,
			},
			{
				Name:  "list",
				Usage: "Print the sorted task list",
				Flags: append(filterFlags(),
					&cli.StringFlag{Name: "sort", Usage: "Sort mode (due-asc, due-desc, prio-desc, prio-asc, status, created-asc, created-desc)"},
					jsonFlag(),
				),
				Action: listTasks,
			},
			{
				Name:   "summary",
				Usage:  "Print task counts",
				Flags:  []cli.Flag{jsonFlag()},
				Action: showSummary,
			},
			{
				Name:      "add",
				Usage:     "Create a task",
				ArgsUsage: "<title>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "desc", Usage: "Description"},
					&cli.StringFlag{Name: "priority", Usage: "low, medium or high"},
					&cli.StringFlag{Name: "due", Usage: "Due date (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
				},
				Action: addTask,
			},
			{
				Name:      "complete",
				Usage:     "Mark a task as done",
				ArgsUsage: "<id>",
				Action:    completeTask,
			},
			{
				Name:      "delete",
				Usage:     "Delete a task",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{yesFlag()},
				Action:    deleteTask,
			},
			{
				Name:      "edit",
				Usage:     "Change fields of a task; omitted flags are left unchanged",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "New title"},
					&cli.StringFlag{Name: "desc", Usage: "New description"},
					&cli.StringFlag{Name: "status", Usage: "todo, doing, blocked or done"},
					&cli.StringFlag{Name: "priority", Usage: "low, medium or high"},
					&cli.StringFlag{Name: "due", Usage: "New due date (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
				},
				Action: editTask,
			},
			{
				Name:   "reset",
				Usage:  "Restore the task API's seed data",
				Flags:  []cli.Flag{yesFlag()},
				Action: resetTasks,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: serveMCP,
			},
		},
	}
}

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "status", Usage: "Filter by status"},
		&cli.StringFlag{Name: "priority", Usage: "Filter by priority"},
		&cli.StringFlag{Name: "tag", Usage: "Filter by tag"},
		&cli.StringFlag{Name: "q", Usage: "Text search"},
		&cli.StringFlag{Name: "due-before", Usage: "Only tasks due before this date (YYYY-MM-DD)"},
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Print JSON instead of text"}
}

func yesFlag() cli.Flag {
	return &cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Confirm the destructive action"}
}

// loadConfig reads the config file named by --config, falling back to
// defaults when it does not exist, and applies --api-url.
func loadConfig(cmd *cli.Command) (*internal.Config, string, error) {
	path := cmd.String("config")
	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(path, cfg)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if apiURL := cmd.String("api-url"); apiURL != "" {
		cfg.API.BaseURL = apiURL
		if err := cfg.Validate(); err != nil {
			return nil, "", fmt.Errorf("invalid --api-url: %w", err)
		}
	}
	if !found {
		path = ""
	}
	return cfg, path, nil
}

// cliLogger sends warnings and errors to stderr so stdout stays clean for
// command output and the MCP protocol.
func cliLogger() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
}

func newService(cmd *cli.Command) (*taskservice.Service, *internal.Config, error) {
	cliLogger()
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	svc, err := internal.NewService(internal.WithConfig(cfg))
	if err != nil {
		return nil, nil, err
	}
	return svc, cfg, nil
}

func out(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printBoard(cmd *cli.Command, b *taskservice.Board) error {
	w := out(cmd)
	if cmd.Bool("json") {
		return printJSON(w, b)
	}
	_, err := fmt.Fprint(w, render.List(b.Entries)+"\n"+render.Summary(b.Summary))
	return err
}

// printResult prints the reloaded board of a write. A failed reload is only
// reported on stderr; the write itself went through.
func printResult(cmd *cli.Command, done string, res *taskservice.Result) error {
	if res.RefreshErr != nil {
		slog.Warn("task list reload failed", slog.String("error", res.RefreshErr.Error()))
		_, err := fmt.Fprintln(out(cmd), done)
		return err
	}
	return printBoard(cmd, res.Board)
}

func argID(cmd *cli.Command) (int64, error) {
	if cmd.Args().Len() != 1 {
		return 0, fmt.Errorf("expected exactly one task id")
	}
	id, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", cmd.Args().First())
	}
	return id, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}
	if path != "" {
		opts = append(opts, internal.WithConfigPath(path))
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cliLogger()
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version))
}

func listTasks(ctx context.Context, cmd *cli.Command) error {
	svc, cfg, err := newService(cmd)
	if err != nil {
		return err
	}
	mode := cfg.View.DefaultSort
	if s := cmd.String("sort"); s != "" {
		mode = tasklist.ParseSortMode(s)
	}
	board, err := svc.Board(ctx, taskservice.Query{
		Filter: tasklist.FilterRequest{
			Status:    cmd.String("status"),
			Priority:  cmd.String("priority"),
			Tag:       cmd.String("tag"),
			Query:     cmd.String("q"),
			DueBefore: cmd.String("due-before"),
		},
		Sort: mode,
	})
	if err != nil {
		return err
	}
	return printBoard(cmd, board)
}

func showSummary(ctx context.Context, cmd *cli.Command) error {
	svc, _, err := newService(cmd)
	if err != nil {
		return err
	}
	s, err := svc.Summary(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return printJSON(out(cmd), s)
	}
	_, err = fmt.Fprint(out(cmd), render.Summary(s))
	return err
}

func addTask(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return fmt.Errorf("title is required")
	}
	svc, cfg, err := newService(cmd)
	if err != nil {
		return err
	}
	in := models.NewTask{
		Title:    cmd.Args().First(),
		Desc:     cmd.String("desc"),
		Priority: models.Priority(cmd.String("priority")),
		Tags:     models.ParseTags(cmd.String("tags")),
	}
	if due := cmd.String("due"); due != "" {
		d, err := models.ParseDate(due)
		if err != nil {
			return err
		}
		in.Due = d
	}
	res, err := svc.Create(ctx, in, taskservice.Query{Sort: cfg.View.DefaultSort})
	if err != nil {
		return err
	}
	return printResult(cmd, "created: "+in.Title, res)
}

func completeTask(ctx context.Context, cmd *cli.Command) error {
	id, err := argID(cmd)
	if err != nil {
		return err
	}
	svc, cfg, err := newService(cmd)
	if err != nil {
		return err
	}
	res, err := svc.Complete(ctx, id, taskservice.Query{Sort: cfg.View.DefaultSort})
	if err != nil {
		return err
	}
	return printResult(cmd, fmt.Sprintf("completed: %d", id), res)
}

func deleteTask(ctx context.Context, cmd *cli.Command) error {
	id, err := argID(cmd)
	if err != nil {
		return err
	}
	if !cmd.Bool("yes") {
		return fmt.Errorf("delete task %d: %w", id, errNotConfirmed)
	}
	svc, cfg, err := newService(cmd)
	if err != nil {
		return err
	}
	res, err := svc.Delete(ctx, id, taskservice.Query{Sort: cfg.View.DefaultSort})
	if err != nil {
		return err
	}
	return printResult(cmd, fmt.Sprintf("deleted: %d", id), res)
}

func editTask(ctx context.Context, cmd *cli.Command) error {
	id, err := argID(cmd)
	if err != nil {
		return err
	}
	svc, cfg, err := newService(cmd)
	if err != nil {
		return err
	}
	patch := models.TaskPatch{
		Title:    cmd.String("title"),
		Desc:     cmd.String("desc"),
		Status:   models.Status(cmd.String("status")),
		Priority: models.Priority(cmd.String("priority")),
		Due:      cmd.String("due"),
	}
	if tags := cmd.String("tags"); tags != "" {
		patch.Tags = models.ParseTags(tags)
	}
	res, err := svc.Update(ctx, id, patch, taskservice.Query{Sort: cfg.View.DefaultSort})
	if err != nil {
		return err
	}
	return printResult(cmd, fmt.Sprintf("updated: %d", id), res)
}

func resetTasks(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") {
		return fmt.Errorf("reset: %w", errNotConfirmed)
	}
	svc, cfg, err := newService(cmd)
	if err != nil {
		return err
	}
	res, err := svc.Reset(ctx, taskservice.Query{Sort: cfg.View.DefaultSort})
	if err != nil {
		return err
	}
	return printResult(cmd, "reset", res)
}
