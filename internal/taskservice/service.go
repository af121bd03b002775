package taskservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/taskview/internal/apperr"
	"github.com/starford/taskview/internal/models"
	"github.com/starford/taskview/internal/tasklist"
)

// DataSource is the remote task API.
type DataSource interface {
	tasklist.Source
	Summary(ctx context.Context) (*models.Summary, error)
	CreateTask(ctx context.Context, t models.NewTask) error
	CompleteTask(ctx context.Context, id int64) error
	DeleteTask(ctx context.Context, id int64) error
	UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) error
	Reset(ctx context.Context) error
}

// Event kinds passed to the notifier after a successful mutation.
const (
	EventCreated   = "created"
	EventCompleted = "completed"
	EventDeleted   = "deleted"
	EventUpdated   = "updated"
	EventReset     = "reset"
)

// Notifier is told about every successful mutation. id is 0 for events that
// do not concern a single task.
type Notifier func(kind string, id int64)

// Query selects which tasks a board shows and how they are ordered.
type Query struct {
	Filter tasklist.FilterRequest
	Sort   tasklist.SortMode
}

// Board is a rendered task list together with the API's summary.
type Board struct {
	Entries     []tasklist.Entry       `json:"entries"`
	Count       int                    `json:"count"`
	Summary     *models.Summary        `json:"summary"`
	Sort        tasklist.SortMode      `json:"sort"`
	Filter      tasklist.FilterRequest `json:"filter"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source used as the overdue reference.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithNotifier sets the mutation callback.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notify = n }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// Service builds task boards and applies mutations against a DataSource.
type Service struct {
	src    DataSource
	now    func() time.Time
	notify Notifier
	log    *slog.Logger
}

// NewService creates a new task service.
func NewService(src DataSource, opts ...Option) *Service {
	s := &Service{
		src:    src,
		now:    time.Now,
		notify: func(string, int64) {},
		log:    slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Board loads the task list and the summary concurrently. A summary failure
// leaves Summary nil; a task list failure fails the board.
func (s *Service) Board(ctx context.Context, q Query) (*Board, error) {
	mode := tasklist.ParseSortMode(string(q.Sort))
	ref := s.now()

	var (
		entries []tasklist.Entry
		summary *models.Summary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = tasklist.Load(gctx, s.src, q.Filter, mode, ref)
		if err != nil {
			return fmt.Errorf("load tasks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		sum, err := s.src.Summary(gctx)
		if err != nil {
			s.log.Warn("summary unavailable", slog.String("error", err.Error()))
			return nil
		}
		summary = sum
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Board{
		Entries:     entries,
		Count:       len(entries),
		Summary:     summary,
		Sort:        mode,
		Filter:      q.Filter,
		GeneratedAt: ref,
	}, nil
}

// Summary returns the API's aggregate counters.
func (s *Service) Summary(ctx context.Context) (*models.Summary, error) {
	return s.src.Summary(ctx)
}

// Result is the outcome of a write the task API accepted. Board is the
// reloaded view; it is nil when the reload failed, and RefreshErr says why.
// A failed reload never turns an accepted write into an error.
type Result struct {
	Board      *Board
	RefreshErr error
}

func (s *Service) refresh(ctx context.Context, q Query) *Result {
	b, err := s.Board(ctx, q)
	if err != nil {
		s.log.Warn("board reload after write failed", slog.String("error", err.Error()))
		return &Result{RefreshErr: err}
	}
	return &Result{Board: b}
}

// CreateTask validates and submits a new task.
func (s *Service) CreateTask(ctx context.Context, in models.NewTask) error {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return fmt.Errorf("%w: %s", apperr.ErrInvalidInput, err)
	}
	if err := s.src.CreateTask(ctx, in); err != nil {
		return err
	}
	s.notify(EventCreated, 0)
	return nil
}

// CompleteTask marks a task as done.
func (s *Service) CompleteTask(ctx context.Context, id int64) error {
	if err := s.src.CompleteTask(ctx, id); err != nil {
		return err
	}
	s.notify(EventCompleted, id)
	return nil
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	if err := s.src.DeleteTask(ctx, id); err != nil {
		return err
	}
	s.notify(EventDeleted, id)
	return nil
}

// UpdateTask applies a partial update. changed is false for an empty patch,
// which skips the API call.
func (s *Service) UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (changed bool, err error) {
	if patch.IsEmpty() {
		return false, nil
	}
	if err := patch.Validate(); err != nil {
		return false, fmt.Errorf("%w: %s", apperr.ErrInvalidInput, err)
	}
	if err := s.src.UpdateTask(ctx, id, patch); err != nil {
		return false, err
	}
	s.notify(EventUpdated, id)
	return true, nil
}

// ResetTasks restores the API's seed data.
func (s *Service) ResetTasks(ctx context.Context) error {
	if err := s.src.Reset(ctx); err != nil {
		return err
	}
	s.notify(EventReset, 0)
	return nil
}

// Create is CreateTask followed by a board reload.
func (s *Service) Create(ctx context.Context, in models.NewTask, q Query) (*Result, error) {
	if err := s.CreateTask(ctx, in); err != nil {
		return nil, err
	}
	return s.refresh(ctx, q), nil
}

// Complete is CompleteTask followed by a board reload.
func (s *Service) Complete(ctx context.Context, id int64, q Query) (*Result, error) {
	if err := s.CompleteTask(ctx, id); err != nil {
		return nil, err
	}
	return s.refresh(ctx, q), nil
}

// Delete is DeleteTask followed by a board reload.
func (s *Service) Delete(ctx context.Context, id int64, q Query) (*Result, error) {
	if err := s.DeleteTask(ctx, id); err != nil {
		return nil, err
	}
	return s.refresh(ctx, q), nil
}

// Update is UpdateTask followed by a board reload. An empty patch still
// returns the current board.
func (s *Service) Update(ctx context.Context, id int64, patch models.TaskPatch, q Query) (*Result, error) {
	if _, err := s.UpdateTask(ctx, id, patch); err != nil {
		return nil, err
	}
	return s.refresh(ctx, q), nil
}

// Reset is ResetTasks followed by a board reload.
func (s *Service) Reset(ctx context.Context, q Query) (*Result, error) {
	if err := s.ResetTasks(ctx); err != nil {
		return nil, err
	}
	return s.refresh(ctx, q), nil
}
